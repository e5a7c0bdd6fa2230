package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "直播", TruncateRunes("直播间", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "", TruncateRunes("abc", 0))
}

func TestTailRunes(t *testing.T) {
	assert.Equal(t, "播间", TailRunes("直播间", 2))
	assert.Equal(t, "abc", TailRunes("abc", 3))
}

func TestCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.png")
	f, err := CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.True(t, FileExists(path))
}
