package feed

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"TianHe-LiveSim/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(text string) model.DanmakuMessage {
	return model.DanmakuMessage{ID: text, Text: text, Kind: model.KindNormal}
}

func texts(msgs []model.DanmakuMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func TestAppendEvictsOldest(t *testing.T) {
	f := New(3)
	for _, s := range []string{"A", "B", "C", "D"} {
		f.Append(msg(s))
	}
	assert.Equal(t, []string{"B", "C", "D"}, texts(f.Snapshot()))
}

func TestAppendKeepsMostRecentInOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		bound := r.Intn(10) + 1
		n := r.Intn(40)
		f := New(bound)

		var all []string
		for i := 0; i < n; i++ {
			s := fmt.Sprintf("m%d", i)
			all = append(all, s)
			f.Append(msg(s))
			require.LessOrEqual(t, f.Len(), bound)
		}

		want := all
		if len(want) > bound {
			want = want[len(want)-bound:]
		}
		if len(want) == 0 {
			want = []string{}
		}
		assert.Equal(t, want, texts(f.Snapshot()), "bound=%d n=%d", bound, n)
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	f := New(2)
	f.Append(msg("A"))
	snap := f.Snapshot()
	f.Append(msg("B"))
	f.Append(msg("C"))
	assert.Equal(t, []string{"A"}, texts(snap))
}

func TestConsumeSecondaryCycles(t *testing.T) {
	f := New(10)
	_, ok := f.ConsumeSecondary()
	assert.False(t, ok)

	f.LoadSecondaryPool([]model.ChatEntry{{Author: "a", Text: "x"}, {Author: "b", Text: "y"}})
	var got []string
	for i := 0; i < 3; i++ {
		e, ok := f.ConsumeSecondary()
		require.True(t, ok)
		got = append(got, e.Text)
	}
	assert.Equal(t, []string{"x", "y", "x"}, got)
}

func TestLoadSecondaryPoolResetsCursor(t *testing.T) {
	f := New(10)
	f.LoadSecondaryPool([]model.ChatEntry{{Text: "x"}, {Text: "y"}})
	_, _ = f.ConsumeSecondary()

	f.LoadSecondaryPool([]model.ChatEntry{{Text: "p"}, {Text: "q"}})
	e, ok := f.ConsumeSecondary()
	require.True(t, ok)
	assert.Equal(t, "p", e.Text)
}

func TestOnAppendListener(t *testing.T) {
	f := New(2)
	var seen []string
	f.OnAppend(func(m model.DanmakuMessage) { seen = append(seen, m.Text) })
	f.Append(msg("A"))
	f.Append(msg("B"))
	assert.Equal(t, []string{"A", "B"}, seen)
}

func TestConcurrentAppend(t *testing.T) {
	f := New(16)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Append(msg(fmt.Sprintf("%d-%d", w, i)))
				_ = f.Snapshot()
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 16, f.Len())
}
