package ledger

import (
	"sync"

	"TianHe-LiveSim/model"
)

type entryKind int

const (
	kindLine entryKind = iota
	kindGift
)

type entry struct {
	seq  uint64
	kind entryKind
	text string
}

const maxEntries = 256

// Mark 快照位置，刷新成功后只清除快照之前的记录
type Mark uint64

// Ledger 上次成功刷新以来观众自己的弹幕与礼物
type Ledger struct {
	mutex    sync.Mutex
	entries  []entry
	seq      uint64
	maxLines int
}

func New(maxLines int) *Ledger {
	if maxLines <= 0 {
		maxLines = 10
	}
	return &Ledger{maxLines: maxLines}
}

func (l *Ledger) RecordLine(text string) {
	l.append(kindLine, text)
}

func (l *Ledger) RecordGift(name string) {
	l.append(kindGift, name)
}

func (l *Ledger) append(kind entryKind, text string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.seq++
	l.entries = append(l.entries, entry{seq: l.seq, kind: kind, text: text})
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
}

// Snapshot 返回当前互动快照及其位置
func (l *Ledger) Snapshot() (model.EngagementSnapshot, Mark) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	snap := model.EngagementSnapshot{
		RecentUserLines: []string{},
		RecentGifts:     []model.GiftCount{},
	}
	index := make(map[string]int)
	for _, e := range l.entries {
		switch e.kind {
		case kindLine:
			snap.RecentUserLines = append(snap.RecentUserLines, e.text)
		case kindGift:
			if i, ok := index[e.text]; ok {
				snap.RecentGifts[i].Count++
				continue
			}
			index[e.text] = len(snap.RecentGifts)
			snap.RecentGifts = append(snap.RecentGifts, model.GiftCount{Name: e.text, Count: 1})
		}
	}
	if len(snap.RecentUserLines) > l.maxLines {
		snap.RecentUserLines = snap.RecentUserLines[len(snap.RecentUserLines)-l.maxLines:]
	}
	return snap, Mark(l.seq)
}

// Drop 清除 mark 及之前的记录，之后新增的记录保留给下一次刷新
func (l *Ledger) Drop(mark Mark) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.seq > uint64(mark) {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

func (l *Ledger) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.entries)
}
