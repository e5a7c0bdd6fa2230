package feed

import (
	"sync"

	"TianHe-LiveSim/model"
)

const DefaultBound = 80

// Feed 有界弹幕列表，超出上限时淘汰最旧的一条
type Feed struct {
	mutex sync.RWMutex

	buf  []model.DanmakuMessage
	head int
	size int

	pool   []model.ChatEntry
	cursor int

	listeners []func(model.DanmakuMessage)
}

func New(bound int) *Feed {
	if bound <= 0 {
		bound = DefaultBound
	}
	return &Feed{buf: make([]model.DanmakuMessage, bound)}
}

// OnAppend 注册新增弹幕的回调，回调在锁外执行
func (f *Feed) OnAppend(fn func(model.DanmakuMessage)) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Append 追加弹幕
func (f *Feed) Append(msg model.DanmakuMessage) {
	f.mutex.Lock()
	bound := len(f.buf)
	if f.size < bound {
		f.buf[(f.head+f.size)%bound] = msg
		f.size++
	} else {
		f.buf[f.head] = msg
		f.head = (f.head + 1) % bound
	}
	listeners := f.listeners
	f.mutex.Unlock()

	for _, fn := range listeners {
		fn(msg)
	}
}

// Snapshot 按插入顺序返回当前弹幕的副本
func (f *Feed) Snapshot() []model.DanmakuMessage {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	out := make([]model.DanmakuMessage, f.size)
	for i := 0; i < f.size; i++ {
		out[i] = f.buf[(f.head+i)%len(f.buf)]
	}
	return out
}

func (f *Feed) Len() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.size
}

func (f *Feed) Bound() int {
	return len(f.buf)
}

// LoadSecondaryPool 替换生成弹幕池并把游标归零
func (f *Feed) LoadSecondaryPool(entries []model.ChatEntry) {
	pool := make([]model.ChatEntry, len(entries))
	copy(pool, entries)

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.pool = pool
	f.cursor = 0
}

// ConsumeSecondary 循环取出生成弹幕池中的下一条
func (f *Feed) ConsumeSecondary() (model.ChatEntry, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if len(f.pool) == 0 {
		return model.ChatEntry{}, false
	}
	entry := f.pool[f.cursor%len(f.pool)]
	f.cursor = (f.cursor + 1) % len(f.pool)
	return entry, true
}

// SecondaryPool 返回生成弹幕池的副本
func (f *Feed) SecondaryPool() []model.ChatEntry {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	out := make([]model.ChatEntry, len(f.pool))
	copy(out, f.pool)
	return out
}
