package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TianHe-LiveSim/config"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/phrase"
	"TianHe-LiveSim/utils"

	"github.com/google/uuid"
)

// ChatFeed 弹幕列表的公开操作
type ChatFeed interface {
	Append(msg model.DanmakuMessage)
	ConsumeSecondary() (model.ChatEntry, bool)
}

// GiftEmitter 模拟观众送礼
type GiftEmitter interface {
	EmitSimulated(gift model.GiftDefinition, sender string) *model.GiftEvent
}

// ReactionSpawner 飘屏表情
type ReactionSpawner interface {
	Spawn(glyph string) model.FloatingReaction
}

type RoomContext struct {
	Identity    model.RoomIdentity
	Feed        ChatFeed
	Gifts       GiftEmitter
	AmbientPool []model.GiftDefinition
	Reactions   ReactionSpawner
	Viewers     *Viewers
	Picker      *phrase.Picker
	Config      config.SchedulerConfig
}

// Handle 持有房间内所有定时任务，Stop 之后不会再有任何回调
type Handle struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	done   chan struct{}
}

// Start 启动所有氛围生成器
func Start(ctx context.Context, rc RoomContext) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	g := &generators{rc: rc}

	cfg := rc.Config
	h.run(ctx, "entrant", cfg.Entrant, g, g.entrant)
	h.run(ctx, "chat", cfg.Chat, g, g.chat)
	h.run(ctx, "drift", cfg.Drift, g, g.drift)
	h.run(ctx, "reaction", cfg.Reaction, g, g.reaction)
	h.run(ctx, "gift", cfg.Gift, g, g.gift)

	utils.Logger.Debugf("房间 %s 氛围生成器已启动", rc.Identity.ID)
	return h
}

func (h *Handle) run(ctx context.Context, name string, iv config.Interval, g *generators, tick func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			timer := time.NewTimer(g.rc.Picker.Jitter(iv.Min, iv.Max))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			// 取消与到期同时发生时不再触发
			if ctx.Err() != nil {
				return
			}
			g.safe(name, tick)
		}
	}()
}

// Stop 取消所有定时任务并等待生成器退出
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.cancel()
		h.wg.Wait()
		close(h.done)
	})
}

// Done 在 Stop 完成后关闭
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

type generators struct {
	rc RoomContext
}

func (g *generators) safe(name string, tick func()) {
	defer func() {
		if r := recover(); r != nil {
			utils.Logger.Errorf("房间 %s 生成器 %s 异常: %v", g.rc.Identity.ID, name, r)
		}
	}()
	tick()
}

// 进房提示
func (g *generators) entrant() {
	speaker := g.rc.Picker.Speaker()
	g.rc.Feed.Append(model.DanmakuMessage{
		ID:        uuid.NewString(),
		Author:    speaker.Name,
		Text:      fmt.Sprintf("%s 进入了直播间", speaker.Name),
		Color:     "#999999",
		Level:     speaker.Level,
		Kind:      model.KindSystem,
		Timestamp: time.Now(),
	})

	delta := g.rc.Config.EntrantDelta
	g.rc.Viewers.Nudge(g.rc.Picker.Between(-delta/2, delta))
}

// 普通弹幕
func (g *generators) chat() {
	speaker := g.rc.Picker.Speaker()
	author, text := g.pickChat()
	if author == "" {
		author = speaker.Name
	}
	g.rc.Feed.Append(model.DanmakuMessage{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		Color:     speaker.Color,
		Level:     speaker.Level,
		Kind:      model.KindNormal,
		Timestamp: time.Now(),
	})
}

// pickChat 按权重在生成弹幕池与兜底弹幕之间选择，失败时使用默认弹幕
func (g *generators) pickChat() (author, text string) {
	w := g.rc.Config.ChatWeights
	if phrase.ChooseSource(g.rc.Picker.Float64(), w.Secondary, w.Fallback) == phrase.SourceSecondary {
		if entry, ok := g.rc.Feed.ConsumeSecondary(); ok && entry.Text != "" {
			return entry.Author, entry.Text
		}
	}

	text, err := g.rc.Picker.Fallback(g.rc.Identity.Category)
	if err != nil || text == "" {
		return "", phrase.DefaultPhrase
	}
	return "", text
}

// 在线人数随机游走
func (g *generators) drift() {
	step := g.rc.Config.DriftStep
	g.rc.Viewers.Nudge(g.rc.Picker.Between(-step, step))
}

func (g *generators) reaction() {
	if g.rc.Picker.Chance(g.rc.Config.ReactionChance) {
		g.rc.Reactions.Spawn("")
	}
}

// 模拟观众送礼
func (g *generators) gift() {
	if len(g.rc.AmbientPool) == 0 || !g.rc.Picker.Chance(g.rc.Config.GiftChance) {
		return
	}
	gift := g.rc.AmbientPool[g.rc.Picker.Intn(len(g.rc.AmbientPool))]
	g.rc.Gifts.EmitSimulated(gift, g.rc.Picker.Speaker().Name)
}
