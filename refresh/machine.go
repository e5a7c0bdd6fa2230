package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"TianHe-LiveSim/cache"
	"TianHe-LiveSim/collab"
	"TianHe-LiveSim/config"
	"TianHe-LiveSim/generation"
	"TianHe-LiveSim/ledger"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/protocol"
	"TianHe-LiveSim/utils"
)

// 刷新状态
type State int

const (
	Idle State = iota
	Requesting
	Merging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Merging:
		return "merging"
	default:
		return "unknown"
	}
}

const (
	progressCap     = 95
	anonymousAuthor = "路人"
	maxAuthorRunes  = 24
	maxTextRunes    = 60
	saveTimeout     = 5 * time.Second
)

// 刷新结果
const (
	OutcomeMerged    = "merged"
	OutcomeMalformed = "malformed"
	OutcomeTransport = "transport_error"
	OutcomeTimeout   = "timeout"
	OutcomeDiscarded = "discarded"
)

type Status struct {
	State     State  `json:"-"`
	StateName string `json:"state"`
	Progress  int    `json:"progress"`
	LastError string `json:"last_error,omitempty"`
}

// PoolLoader 生成弹幕池
type PoolLoader interface {
	LoadSecondaryPool(entries []model.ChatEntry)
	SecondaryPool() []model.ChatEntry
}

// Engagement 观众互动记录
type Engagement interface {
	Snapshot() (model.EngagementSnapshot, ledger.Mark)
	Drop(mark ledger.Mark)
}

type Deps struct {
	Identity  model.RoomIdentity
	OwnerID   string
	Persona   string
	Feed      PoolLoader
	Ledger    Engagement
	Generator generation.Generator
	Store     cache.Store
	Social    collab.SocialFeed
	Config    config.RefreshConfig
}

// Machine 场景刷新状态机，同一房间同一时刻最多一个请求
type Machine struct {
	mutex     sync.Mutex
	deps      Deps
	state     State
	progress  int
	lastErr   error
	narrative []string
	mounted   bool
	resetTmr  *time.Timer

	listeners []func(Status)
	outcomes  []func(string)
	posts     sync.WaitGroup
}

func New(deps Deps, seed []string) *Machine {
	cfg := &deps.Config
	if cfg.MaxChatEntries <= 0 {
		cfg.MaxChatEntries = 25
	}
	if cfg.MaxNarrativeChars <= 0 {
		cfg.MaxNarrativeChars = 800
	}
	if cfg.NarrativeTailChars <= 0 {
		cfg.NarrativeTailChars = 600
	}
	if cfg.ExcerptChars <= 0 {
		cfg.ExcerptChars = 120
	}
	if cfg.ProgressCadence <= 0 {
		cfg.ProgressCadence = 300 * time.Millisecond
	}
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = 4
	}

	m := &Machine{deps: deps, mounted: true}
	for _, s := range seed {
		if strings.TrimSpace(s) != "" {
			m.narrative = append(m.narrative, s)
		}
	}
	return m
}

// Seed 用缓存中的场景描述替换初始描述，仅在首次刷新前调用
func (m *Machine) Seed(narrative []string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.narrative = append([]string(nil), narrative...)
}

// OnChange 注册状态变化回调，回调在持锁时执行，不能再调用 Machine 的方法
func (m *Machine) OnChange(fn func(Status)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.listeners = append(m.listeners, fn)
}

// OnOutcome 注册刷新结果回调
func (m *Machine) OnOutcome(fn func(outcome string)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.outcomes = append(m.outcomes, fn)
}

// Narrative 场景描述副本
func (m *Machine) Narrative() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.narrative...)
}

func (m *Machine) Status() Status {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.statusLocked()
}

func (m *Machine) statusLocked() Status {
	s := Status{State: m.state, StateName: m.state.String(), Progress: m.progress}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

// Detach 房间卸载，之后到达的结果全部丢弃
func (m *Machine) Detach() {
	m.mutex.Lock()
	m.mounted = false
	if m.resetTmr != nil {
		m.resetTmr.Stop()
	}
	m.mutex.Unlock()
}

// WaitPosts 等待已发出的动态通知结束
func (m *Machine) WaitPosts() {
	m.posts.Wait()
}

// Refresh 请求生成协作方推进场景并补充弹幕池
func (m *Machine) Refresh(ctx context.Context) error {
	m.mutex.Lock()
	if !m.mounted {
		m.mutex.Unlock()
		return model.ErrRoomClosed
	}
	if m.state != Idle {
		m.mutex.Unlock()
		return model.ErrRefreshInFlight
	}
	m.state = Requesting
	m.progress = 0
	m.lastErr = nil
	if m.resetTmr != nil {
		m.resetTmr.Stop()
	}
	snapshot, mark := m.deps.Ledger.Snapshot()
	req := generation.Request{
		Category:           m.deps.Identity.Category,
		Persona:            m.deps.Persona,
		PriorNarrativeTail: utils.TailRunes(strings.Join(m.narrative, "\n"), m.deps.Config.NarrativeTailChars),
		Engagement:         snapshot,
		MaxChatEntries:     m.deps.Config.MaxChatEntries,
	}
	m.notifyLocked()
	m.mutex.Unlock()

	utils.Logger.Infof("房间 %s 开始刷新场景", m.deps.Identity.ID)

	stopProgress := m.runProgress()
	result := m.request(ctx, req)
	stopProgress()

	return m.apply(ctx, result, mark)
}

func (m *Machine) request(ctx context.Context, req generation.Request) protocol.Result {
	reqCtx := ctx
	if m.deps.Config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, m.deps.Config.RequestTimeout)
		defer cancel()
	}

	raw, err := m.deps.Generator.Generate(reqCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return protocol.TransportFailure(fmt.Errorf("%w: %v", model.ErrGenerationTimeout, err))
		}
		return protocol.TransportFailure(fmt.Errorf("%w: %v", model.ErrGenerationTransport, err))
	}
	return protocol.ExtractEnvelope(raw)
}

func (m *Machine) apply(ctx context.Context, result protocol.Result, mark ledger.Mark) error {
	switch result.Kind {
	case protocol.Parsed:
		narrative, entries := m.sanitize(result)
		if narrative == "" && len(entries) == 0 {
			return m.fail(fmt.Errorf("%w: empty envelope", model.ErrGenerationMalformed), OutcomeMalformed)
		}
		return m.merge(ctx, narrative, entries, mark)
	case protocol.Malformed:
		return m.fail(fmt.Errorf("%w: %v", model.ErrGenerationMalformed, result.Err), OutcomeMalformed)
	case protocol.TransportError:
		outcome := OutcomeTransport
		if errors.Is(result.Err, model.ErrGenerationTimeout) {
			outcome = OutcomeTimeout
		}
		return m.fail(result.Err, outcome)
	default:
		return m.fail(fmt.Errorf("%w: unknown result kind %d", model.ErrGenerationMalformed, result.Kind), OutcomeMalformed)
	}
}

// fail 回到空闲，保留原有场景、弹幕池与互动记录
func (m *Machine) fail(err error, outcome string) error {
	m.mutex.Lock()
	if !m.mounted {
		m.state = Idle
		m.mutex.Unlock()
		m.emitOutcome(OutcomeDiscarded)
		return model.ErrRoomClosed
	}
	m.state = Idle
	m.lastErr = err
	m.finishProgressLocked()
	m.notifyLocked()
	m.mutex.Unlock()

	utils.Logger.Warnf("房间 %s 刷新失败: %v", m.deps.Identity.ID, err)
	m.emitOutcome(outcome)
	return err
}

func (m *Machine) merge(ctx context.Context, narrative string, entries []model.ChatEntry, mark ledger.Mark) error {
	m.mutex.Lock()
	if !m.mounted {
		m.state = Idle
		m.mutex.Unlock()
		utils.Logger.Infof("房间 %s 已关闭，丢弃刷新结果", m.deps.Identity.ID)
		m.emitOutcome(OutcomeDiscarded)
		return model.ErrRoomClosed
	}
	m.state = Merging
	if narrative != "" {
		m.narrative = append(m.narrative, narrative)
	}
	m.deps.Feed.LoadSecondaryPool(entries)
	state := &model.RoomState{
		RoomID:         m.deps.Identity.ID,
		SceneNarrative: append([]string(nil), m.narrative...),
		SecondaryPool:  m.deps.Feed.SecondaryPool(),
		UpdatedAt:      time.Now(),
	}
	m.notifyLocked()
	m.mutex.Unlock()

	var cacheErr error
	if m.deps.Store != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		if err := m.deps.Store.Save(saveCtx, state); err != nil {
			cacheErr = fmt.Errorf("%w: %v", model.ErrCacheWrite, err)
			utils.Logger.Warnf("房间 %s 缓存写入失败: %v", m.deps.Identity.ID, err)
		}
		cancel()
	}

	if narrative != "" {
		m.post(narrative)
	}
	m.deps.Ledger.Drop(mark)

	m.mutex.Lock()
	m.state = Idle
	m.lastErr = cacheErr
	m.finishProgressLocked()
	m.notifyLocked()
	m.mutex.Unlock()

	utils.Logger.Infof("房间 %s 刷新完成，新增弹幕 %d 条", m.deps.Identity.ID, len(entries))
	m.emitOutcome(OutcomeMerged)
	return nil
}

// sanitize 限制生成结果的长度与条数
func (m *Machine) sanitize(result protocol.Result) (string, []model.ChatEntry) {
	cfg := m.deps.Config
	narrative := utils.TruncateRunes(strings.TrimSpace(result.Narrative), cfg.MaxNarrativeChars)

	entries := make([]model.ChatEntry, 0, len(result.ChatEntries))
	for _, e := range result.ChatEntries {
		if len(entries) >= cfg.MaxChatEntries {
			break
		}
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		author := strings.TrimSpace(e.Author)
		if author == "" {
			author = anonymousAuthor
		}
		entries = append(entries, model.ChatEntry{
			Author: utils.TruncateRunes(author, maxAuthorRunes),
			Text:   utils.TruncateRunes(text, maxTextRunes),
		})
	}
	return narrative, entries
}

// post 通知关注动态，失败忽略
func (m *Machine) post(narrative string) {
	if m.deps.Social == nil {
		return
	}
	excerpt := utils.TruncateRunes(narrative, m.deps.Config.ExcerptChars)
	if excerpt != narrative {
		excerpt += "…"
	}
	owner := m.deps.OwnerID

	m.posts.Add(1)
	go func() {
		defer m.posts.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.Logger.Warnf("房间 %s 动态通知异常: %v", m.deps.Identity.ID, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := m.deps.Social.AppendPost(ctx, owner, excerpt); err != nil {
			utils.Logger.Debugf("房间 %s 动态通知失败: %v", m.deps.Identity.ID, err)
		}
	}()
}

// runProgress 按固定节奏推进展示进度，与真实请求耗时无关
func (m *Machine) runProgress() func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(m.deps.Config.ProgressCadence)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.mutex.Lock()
				if m.state == Requesting && m.progress < progressCap {
					m.progress += m.deps.Config.ProgressStep
					if m.progress > progressCap {
						m.progress = progressCap
					}
					m.notifyLocked()
				}
				m.mutex.Unlock()
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}

func (m *Machine) finishProgressLocked() {
	m.progress = 100
	delay := m.deps.Config.ProgressResetDelay
	if delay <= 0 {
		m.progress = 0
		return
	}
	m.resetTmr = time.AfterFunc(delay, func() {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		if m.state == Idle && m.progress == 100 {
			m.progress = 0
			m.notifyLocked()
		}
	})
}

func (m *Machine) notifyLocked() {
	status := m.statusLocked()
	for _, fn := range m.listeners {
		fn(status)
	}
}

func (m *Machine) emitOutcome(outcome string) {
	m.mutex.Lock()
	outcomes := m.outcomes
	m.mutex.Unlock()
	for _, fn := range outcomes {
		fn(outcome)
	}
}
