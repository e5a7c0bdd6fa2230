package room

import (
	"context"
	"testing"
	"time"

	"TianHe-LiveSim/cache"
	"TianHe-LiveSim/collab"
	"TianHe-LiveSim/config"
	"TianHe-LiveSim/generation"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/refresh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quietConfig 把氛围生成器的间隔拉长，避免干扰断言
func quietConfig() *config.Config {
	cfg := config.NewConfig()
	slow := config.Interval{Min: time.Hour, Max: time.Hour}
	cfg.Scheduler.Entrant = slow
	cfg.Scheduler.Chat = slow
	cfg.Scheduler.Drift = slow
	cfg.Scheduler.Reaction = slow
	cfg.Scheduler.Gift = slow
	cfg.Refresh.ProgressCadence = 5 * time.Millisecond
	cfg.Refresh.ProgressResetDelay = 0
	cfg.Wallet.InitialBalance = 100
	return cfg
}

func testDeps(store cache.Store) Deps {
	return Deps{
		Config:  quietConfig(),
		Store:   store,
		Social:  collab.NewMemorySocialFeed(10),
		Persona: collab.StaticPersona("小明"),
		Generator: generation.Static(generation.Envelope{
			Narrative:   "主播开始唱第二首歌",
			ChatEntries: []model.ChatEntry{{Author: "a", Text: "好听"}},
		}),
		Seed: 7,
	}
}

func watchParams(id string) model.EntryParams {
	return model.EntryParams{
		RoomID: id,
		Mode:   model.ModeWatch,
		Streamer: &model.StreamerPayload{
			Name:          "小鹿",
			Category:      "唱歌",
			SeedNarrative: "小鹿在调音",
			Viewers:       3000,
		},
	}
}

func TestNewRejectsInvalidEntry(t *testing.T) {
	_, err := New(model.EntryParams{}, testDeps(nil))
	assert.ErrorIs(t, err, model.ErrInvalidEntry)

	_, err = New(model.EntryParams{RoomID: "1", Mode: model.ModeWatch}, testDeps(nil))
	assert.ErrorIs(t, err, model.ErrInvalidEntry)
}

func TestMountSeedsIdentityAndWelcome(t *testing.T) {
	r, err := New(watchParams("r-1"), testDeps(nil))
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background()))
	defer r.Close()

	snap := r.Snapshot()
	assert.Equal(t, "小鹿", snap.Identity.Name)
	assert.Equal(t, "唱歌", snap.Identity.Category)
	assert.Equal(t, 3000, snap.Viewers)
	assert.Equal(t, []string{"小鹿在调音"}, snap.Narrative)
	assert.Equal(t, int64(100), snap.Balance)
	require.Len(t, snap.Feed, 1)
	assert.Equal(t, model.KindSystem, snap.Feed[0].Kind)
	assert.Equal(t, "idle", snap.Refresh.StateName)
}

func TestViewerActions(t *testing.T) {
	r, err := New(watchParams("r-2"), testDeps(nil))
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background()))
	defer r.Close()

	msg, err := r.Say("  主播好  ")
	require.NoError(t, err)
	assert.Equal(t, "小明", msg.Author)
	assert.Equal(t, "主播好", msg.Text)
	assert.Equal(t, 1, r.Ledger().Len())

	_, err = r.Say("   ")
	assert.Error(t, err)

	_, balance, err := r.SendGift("flower")
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)
	_, balance, err = r.SendGift("rocket")
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Equal(t, int64(70), balance)

	reaction, err := r.React("❤")
	require.NoError(t, err)
	assert.Equal(t, "❤", reaction.Glyph)
}

func TestRefreshPersistsAcrossSessions(t *testing.T) {
	store := cache.NewMemoryStore(8, time.Hour)
	deps := testDeps(store)

	first, err := New(watchParams("r-3"), deps)
	require.NoError(t, err)
	require.NoError(t, first.Mount(context.Background()))
	require.NoError(t, first.Refresh(context.Background()))
	first.Close()

	second, err := New(watchParams("r-3"), deps)
	require.NoError(t, err)
	require.NoError(t, second.Mount(context.Background()))
	defer second.Close()

	assert.Equal(t, []string{"小鹿在调音", "主播开始唱第二首歌"}, second.Machine().Narrative())
	assert.Equal(t, []model.ChatEntry{{Author: "a", Text: "好听"}}, second.Feed().SecondaryPool())
}

func TestCloseStopsEverything(t *testing.T) {
	r, err := New(watchParams("r-4"), testDeps(nil))
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background()))

	r.Close()
	r.Close()
	assert.True(t, r.Closed())

	_, err = r.Say("还在吗")
	assert.ErrorIs(t, err, model.ErrRoomClosed)
	assert.ErrorIs(t, r.Refresh(context.Background()), model.ErrRoomClosed)
	assert.ErrorIs(t, r.Mount(context.Background()), model.ErrRoomClosed)
}

func TestRefreshStatusVisibleToListeners(t *testing.T) {
	r, err := New(watchParams("r-5"), testDeps(nil))
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background()))
	defer r.Close()

	states := make(chan refresh.State, 16)
	r.Machine().OnChange(func(s refresh.Status) {
		select {
		case states <- s.State:
		default:
		}
	})
	require.NoError(t, r.Refresh(context.Background()))
	close(states)

	var seen []refresh.State
	for s := range states {
		seen = append(seen, s)
	}
	assert.Contains(t, seen, refresh.Requesting)
	assert.Contains(t, seen, refresh.Merging)
	assert.Equal(t, refresh.Idle, seen[len(seen)-1])
}
