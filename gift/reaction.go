package gift

import (
	"sync"
	"time"

	"TianHe-LiveSim/model"
	"TianHe-LiveSim/phrase"

	"github.com/google/uuid"
)

type ReactionOptions struct {
	Lifetime time.Duration
	Lanes    int
	Max      int
}

type tracked struct {
	reaction  model.FloatingReaction
	expiresAt time.Time
	timer     *time.Timer
}

// Reactions 飘屏表情，每个表情到期后自行移除
type Reactions struct {
	mutex    sync.Mutex
	active   []*tracked
	lifetime time.Duration
	lanes    int
	max      int
	picker   *phrase.Picker
	now      func() time.Time
	stopped  bool

	listeners []func(model.FloatingReaction)
}

func NewReactions(picker *phrase.Picker, opts ReactionOptions) *Reactions {
	if opts.Lifetime <= 0 {
		opts.Lifetime = 2 * time.Second
	}
	if opts.Lanes <= 0 {
		opts.Lanes = 5
	}
	if opts.Max <= 0 {
		opts.Max = 30
	}
	return &Reactions{
		lifetime: opts.Lifetime,
		lanes:    opts.Lanes,
		max:      opts.Max,
		picker:   picker,
		now:      time.Now,
	}
}

func (r *Reactions) OnSpawn(fn func(model.FloatingReaction)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Spawn 生成一个表情，glyph 为空时随机选择
func (r *Reactions) Spawn(glyph string) model.FloatingReaction {
	if glyph == "" {
		glyph = r.picker.Glyph()
	}
	now := r.now()
	reaction := model.FloatingReaction{
		ID:        uuid.NewString(),
		Glyph:     glyph,
		Lane:      r.picker.Intn(r.lanes),
		SpawnedAt: now,
	}

	r.mutex.Lock()
	if r.stopped {
		r.mutex.Unlock()
		return reaction
	}
	t := &tracked{reaction: reaction, expiresAt: now.Add(r.lifetime)}
	t.timer = time.AfterFunc(r.lifetime, func() { r.remove(reaction.ID) })
	r.active = append(r.active, t)
	if len(r.active) > r.max {
		evicted := r.active[0]
		evicted.timer.Stop()
		r.active = r.active[1:]
	}
	listeners := r.listeners
	r.mutex.Unlock()

	for _, fn := range listeners {
		fn(reaction)
	}
	return reaction
}

func (r *Reactions) remove(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for i, t := range r.active {
		if t.reaction.ID == id {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return
		}
	}
}

// Active 当前仍在生命周期内的表情
func (r *Reactions) Active() []model.FloatingReaction {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	out := make([]model.FloatingReaction, 0, len(r.active))
	for _, t := range r.active {
		if now.Before(t.expiresAt) {
			out = append(out, t.reaction)
		}
	}
	return out
}

// Stop 取消所有未触发的定时器
func (r *Reactions) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stopped = true
	for _, t := range r.active {
		t.timer.Stop()
	}
	r.active = nil
}
