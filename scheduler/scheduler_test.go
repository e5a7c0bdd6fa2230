package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"TianHe-LiveSim/config"
	"TianHe-LiveSim/feed"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/phrase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFeed struct {
	*feed.Feed
	mutex sync.Mutex
	count int
}

func (c *countingFeed) Append(msg model.DanmakuMessage) {
	c.mutex.Lock()
	c.count++
	c.mutex.Unlock()
	c.Feed.Append(msg)
}

func (c *countingFeed) appended() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.count
}

type fakeGifts struct {
	mutex sync.Mutex
	sent  []string
}

func (f *fakeGifts) EmitSimulated(gift model.GiftDefinition, sender string) *model.GiftEvent {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sent = append(f.sent, gift.ID)
	return &model.GiftEvent{Gift: gift, Sender: sender, Simulated: true}
}

type fakeReactions struct {
	mutex sync.Mutex
	n     int
}

func (f *fakeReactions) Spawn(glyph string) model.FloatingReaction {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.n++
	return model.FloatingReaction{Glyph: glyph}
}

func fastConfig() config.SchedulerConfig {
	iv := config.Interval{Min: time.Millisecond, Max: 3 * time.Millisecond}
	cfg := config.NewConfig().Scheduler
	cfg.Entrant, cfg.Chat, cfg.Drift, cfg.Reaction, cfg.Gift = iv, iv, iv, iv, iv
	cfg.ReactionChance = 1
	cfg.GiftChance = 1
	return cfg
}

func newContext(f ChatFeed) (RoomContext, *fakeGifts, *fakeReactions) {
	gifts := &fakeGifts{}
	reactions := &fakeReactions{}
	return RoomContext{
		Identity:    model.RoomIdentity{ID: "1", Category: "游戏"},
		Feed:        f,
		Gifts:       gifts,
		AmbientPool: []model.GiftDefinition{{ID: "heart", Name: "小心心", Price: 1, Tier: model.TierFloat}},
		Reactions:   reactions,
		Viewers:     NewViewers(100, 50),
		Picker:      phrase.NewPicker(3),
		Config:      fastConfig(),
	}, gifts, reactions
}

func TestStartProducesAndStopIsFinal(t *testing.T) {
	cf := &countingFeed{Feed: feed.New(80)}
	rc, gifts, reactions := newContext(cf)

	h := Start(context.Background(), rc)
	require.Eventually(t, func() bool { return cf.appended() > 10 }, 2*time.Second, 5*time.Millisecond)
	h.Stop()

	select {
	case <-h.Done():
	default:
		t.Fatal("done channel should be closed after Stop")
	}

	after := cf.appended()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, cf.appended())

	gifts.mutex.Lock()
	assert.NotEmpty(t, gifts.sent)
	gifts.mutex.Unlock()
	reactions.mutex.Lock()
	assert.Positive(t, reactions.n)
	reactions.mutex.Unlock()

	// 重复调用无副作用
	h.Stop()
}

func TestStopOnParentCancel(t *testing.T) {
	cf := &countingFeed{Feed: feed.New(80)}
	rc, _, _ := newContext(cf)
	ctx, cancel := context.WithCancel(context.Background())
	h := Start(ctx, rc)
	cancel()
	h.Stop()
	after := cf.appended()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, cf.appended())
}

func TestPickChatPrefersSecondaryPool(t *testing.T) {
	f := feed.New(10)
	rc, _, _ := newContext(f)
	rc.Config.ChatWeights = config.ChatSourceWeights{Secondary: 1, Fallback: 0}
	g := &generators{rc: rc}

	f.LoadSecondaryPool([]model.ChatEntry{{Author: "AI观众", Text: "x"}, {Author: "", Text: "y"}})
	a1, t1 := g.pickChat()
	a2, t2 := g.pickChat()
	_, t3 := g.pickChat()
	assert.Equal(t, []string{"x", "y", "x"}, []string{t1, t2, t3})
	assert.Equal(t, "AI观众", a1)
	assert.Equal(t, "", a2)
}

func TestPickChatFallsBackWhenPoolEmpty(t *testing.T) {
	f := feed.New(10)
	rc, _, _ := newContext(f)
	rc.Config.ChatWeights = config.ChatSourceWeights{Secondary: 1, Fallback: 0}
	g := &generators{rc: rc}

	_, text := g.pickChat()
	assert.Contains(t, phrase.Fallback("游戏"), text)
}

func TestChatAppendsNormalMessage(t *testing.T) {
	f := feed.New(10)
	rc, _, _ := newContext(f)
	g := &generators{rc: rc}
	g.chat()
	g.entrant()

	snap := f.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, model.KindNormal, snap[0].Kind)
	assert.NotEmpty(t, snap[0].Author)
	assert.Equal(t, model.KindSystem, snap[1].Kind)
}

type panickingFeed struct{}

func (panickingFeed) Append(model.DanmakuMessage) { panic("boom") }
func (panickingFeed) ConsumeSecondary() (model.ChatEntry, bool) { return model.ChatEntry{}, false }

func TestSafeRecoversPanics(t *testing.T) {
	rc, _, _ := newContext(panickingFeed{})
	g := &generators{rc: rc}
	assert.NotPanics(t, func() { g.safe("chat", g.chat) })
}

func TestViewersFloor(t *testing.T) {
	v := NewViewers(60, 50)
	var seen []int
	v.OnChange(func(n int) { seen = append(seen, n) })

	assert.Equal(t, 50, v.Nudge(-100))
	assert.Equal(t, 55, v.Nudge(5))
	assert.Equal(t, []int{50, 55}, seen)
	assert.Equal(t, 50, NewViewers(10, 50).Count())
}

func TestDriftNeverBelowFloor(t *testing.T) {
	rc, _, _ := newContext(feed.New(10))
	rc.Viewers = NewViewers(50, 50)
	rc.Config.DriftStep = 1000
	g := &generators{rc: rc}
	for i := 0; i < 200; i++ {
		g.drift()
		require.GreaterOrEqual(t, rc.Viewers.Count(), 50)
	}
}
