package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"TianHe-LiveSim/cache"
	"TianHe-LiveSim/collab"
	"TianHe-LiveSim/config"
	"TianHe-LiveSim/feed"
	"TianHe-LiveSim/generation"
	"TianHe-LiveSim/gift"
	"TianHe-LiveSim/ledger"
	"TianHe-LiveSim/metrics"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/phrase"
	"TianHe-LiveSim/refresh"
	"TianHe-LiveSim/scheduler"
	"TianHe-LiveSim/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxChatRunes = 60

// Deps 房间依赖的协作方，同一进程内的房间可以共享
type Deps struct {
	Config    *config.Config
	Store     cache.Store
	Social    collab.SocialFeed
	Wallet    collab.Wallet
	Persona   collab.Persona
	Generator generation.Generator
	Catalog   *gift.Catalog
	// 随机种子，0 表示按时间
	Seed int64
}

// Snapshot 进房时下发的完整房间状态
type Snapshot struct {
	Identity  model.RoomIdentity       `json:"identity"`
	Mode      model.Mode               `json:"mode"`
	Feed      []model.DanmakuMessage   `json:"feed"`
	Viewers   int                      `json:"viewers"`
	Narrative []string                 `json:"narrative"`
	Refresh   refresh.Status           `json:"refresh"`
	Balance   int64                    `json:"balance"`
	Catalog   []model.GiftDefinition   `json:"catalog"`
	Gifts     []model.GiftEvent        `json:"gifts"`
	Reactions []model.FloatingReaction `json:"reactions"`
}

// Room 一次进房会话
type Room struct {
	identity model.RoomIdentity
	mode     model.Mode
	deps     Deps
	logger   *logrus.Entry

	picker    *phrase.Picker
	feed      *feed.Feed
	ledger    *ledger.Ledger
	economy   *gift.Economy
	reactions *gift.Reactions
	viewers   *scheduler.Viewers
	machine   *refresh.Machine

	mutex   sync.Mutex
	handle  *scheduler.Handle
	mounted bool
	closed  bool

	refreshStarted atomic.Int64
}

// New 根据进房参数组装房间组件，不启动任何任务
func New(params model.EntryParams, deps Deps) (*Room, error) {
	if strings.TrimSpace(params.RoomID) == "" {
		return nil, fmt.Errorf("%w: room id is empty", model.ErrInvalidEntry)
	}
	if params.Mode == model.ModeWatch && params.Streamer == nil {
		return nil, fmt.Errorf("%w: watch mode requires streamer payload", model.ErrInvalidEntry)
	}
	if deps.Config == nil {
		deps.Config = config.NewConfig()
	}
	if deps.Persona == nil {
		deps.Persona = collab.StaticPersona(deps.Config.ViewerName)
	}
	if deps.Wallet == nil {
		deps.Wallet = collab.NewMemoryWallet(deps.Config.Wallet.InitialBalance)
	}
	if deps.Catalog == nil {
		deps.Catalog = gift.DefaultCatalog()
	}
	if deps.Generator == nil {
		return nil, errors.New("room requires a generator")
	}
	cfg := deps.Config

	identity := params.Identity(cfg.HostName, cfg.Scheduler.DefaultViewers)
	r := &Room{
		identity: identity,
		mode:     params.Mode,
		deps:     deps,
		logger:   utils.RoomLogger(identity.ID),
		picker:   phrase.NewPicker(deps.Seed),
		feed:     feed.New(cfg.Feed.Bound),
		ledger:   ledger.New(cfg.Refresh.LedgerLines),
		viewers:  scheduler.NewViewers(identity.InitialViewers, cfg.Scheduler.ViewerFloor),
	}
	r.economy = gift.NewEconomy(deps.Catalog, deps.Wallet, r.feed, r.ledger, gift.Options{
		DisplayDuration: cfg.Gift.DisplayDuration,
		MaxRecent:       cfg.Gift.MaxRecent,
	})
	r.reactions = gift.NewReactions(r.picker, gift.ReactionOptions{
		Lifetime: cfg.Gift.ReactionLifetime,
		Lanes:    cfg.Gift.ReactionLanes,
		Max:      cfg.Gift.MaxReactions,
	})

	var seed []string
	if s := params.SeedNarrative(); s != "" {
		seed = append(seed, s)
	}
	r.machine = refresh.New(refresh.Deps{
		Identity:  identity,
		OwnerID:   identity.ID,
		Persona:   identity.Name,
		Feed:      r.feed,
		Ledger:    r.ledger,
		Generator: deps.Generator,
		Store:     deps.Store,
		Social:    deps.Social,
		Config:    cfg.Refresh,
	}, seed)

	r.instrument()
	return r, nil
}

// instrument 把组件事件接到 prometheus
func (r *Room) instrument() {
	id := r.identity.ID
	r.feed.OnAppend(func(msg model.DanmakuMessage) {
		metrics.FeedAppended(id, string(msg.Kind))
	})
	r.economy.OnGift(func(ev model.GiftEvent) {
		origin := "user"
		if ev.Simulated {
			origin = "simulated"
		}
		metrics.GiftEmitted(id, string(ev.Gift.Tier), origin)
	})
	r.reactions.OnSpawn(func(model.FloatingReaction) {
		metrics.ReactionSpawned(id)
	})
	r.viewers.OnChange(func(count int) {
		metrics.SetViewers(id, count)
	})
	r.machine.OnOutcome(func(outcome string) {
		metrics.RefreshFinished(id, outcome, time.Unix(0, r.refreshStarted.Load()))
	})
}

// Mount 进房：读取一次缓存，然后启动氛围生成器
func (r *Room) Mount(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return model.ErrRoomClosed
	}
	if r.mounted {
		return nil
	}

	r.restore(ctx)

	r.feed.Append(model.DanmakuMessage{
		ID:        uuid.NewString(),
		Author:    "系统",
		Text:      fmt.Sprintf("欢迎来到 %s 的直播间", r.identity.Name),
		Color:     "#00d1f1",
		Kind:      model.KindSystem,
		Timestamp: time.Now(),
	})

	cfg := r.deps.Config.Scheduler
	r.handle = scheduler.Start(ctx, scheduler.RoomContext{
		Identity:    r.identity,
		Feed:        r.feed,
		Gifts:       r.economy,
		AmbientPool: r.deps.Catalog.ByTier(model.TierFloat, model.TierExplode),
		Reactions:   r.reactions,
		Viewers:     r.viewers,
		Picker:      r.picker,
		Config:      cfg,
	})
	r.mounted = true
	metrics.RoomMounted()
	metrics.SetViewers(r.identity.ID, r.viewers.Count())
	r.logger.Infof("房间 %s 已进入，模式 %s", r.identity.ID, r.mode)
	return nil
}

// restore 用缓存恢复场景描述与弹幕池，缓存不可用时沿用初始描述
func (r *Room) restore(ctx context.Context) {
	if r.deps.Store == nil {
		return
	}
	state, err := r.deps.Store.Load(ctx, r.identity.ID)
	if err != nil {
		if !errors.Is(err, model.ErrCacheMiss) {
			r.logger.Warnf("房间 %s 读取缓存失败: %v", r.identity.ID, err)
		}
		return
	}
	if len(state.SceneNarrative) > 0 {
		r.machine.Seed(state.SceneNarrative)
	}
	if len(state.SecondaryPool) > 0 {
		r.feed.LoadSecondaryPool(state.SecondaryPool)
	}
	r.logger.Infof("房间 %s 从缓存恢复 %d 段描述、%d 条弹幕", r.identity.ID, len(state.SceneNarrative), len(state.SecondaryPool))
}

// Close 离开房间，停止所有任务，进行中的刷新结果会被丢弃
func (r *Room) Close() {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return
	}
	r.closed = true
	handle := r.handle
	mounted := r.mounted
	r.mutex.Unlock()

	r.machine.Detach()
	if handle != nil {
		handle.Stop()
	}
	r.reactions.Stop()
	if mounted {
		metrics.RoomUnmounted(r.identity.ID)
	}
	r.logger.Infof("房间 %s 已离开", r.identity.ID)
}

func (r *Room) Closed() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.closed
}

// Say 观众发送弹幕
func (r *Room) Say(text string) (model.DanmakuMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.DanmakuMessage{}, errors.New("empty danmaku")
	}
	if r.Closed() {
		return model.DanmakuMessage{}, model.ErrRoomClosed
	}
	msg := model.DanmakuMessage{
		ID:        uuid.NewString(),
		Author:    r.deps.Persona.DisplayName(),
		Text:      utils.TruncateRunes(text, maxChatRunes),
		Color:     "#ffffff",
		Level:     1,
		Kind:      model.KindNormal,
		Timestamp: time.Now(),
	}
	r.feed.Append(msg)
	r.ledger.RecordLine(msg.Text)
	return msg, nil
}

// SendGift 观众送礼，返回送礼后的余额
func (r *Room) SendGift(giftID string) (*model.GiftEvent, int64, error) {
	if r.Closed() {
		return nil, r.deps.Wallet.Balance(), model.ErrRoomClosed
	}
	event, balance, err := r.economy.SendGift(giftID, r.deps.Persona.DisplayName())
	if errors.Is(err, model.ErrInsufficientFunds) {
		metrics.GiftRejected(r.identity.ID)
	}
	return event, balance, err
}

// React 观众点击表情
func (r *Room) React(glyph string) (model.FloatingReaction, error) {
	if r.Closed() {
		return model.FloatingReaction{}, model.ErrRoomClosed
	}
	return r.reactions.Spawn(glyph), nil
}

// Refresh 阻塞直到本次刷新结束
func (r *Room) Refresh(ctx context.Context) error {
	r.refreshStarted.Store(time.Now().UnixNano())
	return r.machine.Refresh(ctx)
}

func (r *Room) RefreshStatus() refresh.Status {
	return r.machine.Status()
}

func (r *Room) Snapshot() Snapshot {
	return Snapshot{
		Identity:  r.identity,
		Mode:      r.mode,
		Feed:      r.feed.Snapshot(),
		Viewers:   r.viewers.Count(),
		Narrative: r.machine.Narrative(),
		Refresh:   r.machine.Status(),
		Balance:   r.deps.Wallet.Balance(),
		Catalog:   r.deps.Catalog.All(),
		Gifts:     r.economy.Recent(),
		Reactions: r.reactions.Active(),
	}
}

func (r *Room) Identity() model.RoomIdentity { return r.identity }
func (r *Room) Mode() model.Mode             { return r.mode }
func (r *Room) Feed() *feed.Feed             { return r.feed }
func (r *Room) Economy() *gift.Economy       { return r.economy }
func (r *Room) Reactions() *gift.Reactions   { return r.reactions }
func (r *Room) Viewers() *scheduler.Viewers  { return r.viewers }
func (r *Room) Machine() *refresh.Machine    { return r.machine }
func (r *Room) Ledger() *ledger.Ledger       { return r.ledger }
