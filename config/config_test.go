package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 80, cfg.Feed.Bound)
	assert.Equal(t, 25, cfg.Refresh.MaxChatEntries)
	assert.Equal(t, 800, cfg.Refresh.MaxNarrativeChars)
	assert.Equal(t, 2*time.Second, cfg.Gift.ReactionLifetime)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
room_id: "777"
mode: watch
feed:
  bound: 20
scheduler:
  chat:
    min: 100ms
    max: 200ms
  chat_weights:
    secondary: 0.9
    fallback: 0.1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "livesim.yaml"), []byte(yaml), 0644))

	cfg, err := Load(dir, "livesim")
	require.NoError(t, err)
	assert.Equal(t, "777", cfg.RoomID)
	assert.Equal(t, "watch", cfg.Mode)
	assert.Equal(t, 20, cfg.Feed.Bound)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.Chat.Min)
	assert.Equal(t, 0.9, cfg.Scheduler.ChatWeights.Secondary)
	// 未覆盖的字段保留默认值
	assert.Equal(t, 3*time.Second, cfg.Scheduler.Entrant.Min)
}

func TestValidateRejectsBadInterval(t *testing.T) {
	cfg := NewConfig()
	cfg.Scheduler.Gift = Interval{Min: time.Second, Max: time.Millisecond}
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Scheduler.ChatWeights = ChatSourceWeights{}
	assert.Error(t, cfg.Validate())
}
