package ledger

import (
	"testing"

	"TianHe-LiveSim/model"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotAggregatesGifts(t *testing.T) {
	l := New(10)
	l.RecordLine("你好")
	l.RecordGift("小心心")
	l.RecordGift("火箭")
	l.RecordGift("小心心")

	snap, _ := l.Snapshot()
	assert.Equal(t, []string{"你好"}, snap.RecentUserLines)
	assert.Equal(t, []model.GiftCount{{Name: "小心心", Count: 2}, {Name: "火箭", Count: 1}}, snap.RecentGifts)
}

func TestDropKeepsEntriesAfterMark(t *testing.T) {
	l := New(10)
	l.RecordLine("before")
	_, mark := l.Snapshot()

	// 请求进行中产生的互动
	l.RecordLine("during")
	l.RecordGift("火箭")

	l.Drop(mark)
	snap, _ := l.Snapshot()
	assert.Equal(t, []string{"during"}, snap.RecentUserLines)
	assert.Equal(t, []model.GiftCount{{Name: "火箭", Count: 1}}, snap.RecentGifts)
}

func TestSnapshotCapsLines(t *testing.T) {
	l := New(2)
	l.RecordLine("a")
	l.RecordLine("b")
	l.RecordLine("c")
	snap, _ := l.Snapshot()
	assert.Equal(t, []string{"b", "c"}, snap.RecentUserLines)
	assert.Equal(t, 3, l.Len())
}

func TestEmptySnapshot(t *testing.T) {
	snap, mark := New(5).Snapshot()
	assert.Empty(t, snap.RecentUserLines)
	assert.Empty(t, snap.RecentGifts)
	assert.Equal(t, Mark(0), mark)
}
