package cache

import (
	"context"

	"TianHe-LiveSim/model"
)

// Store 会话级房间状态缓存，Save 整体覆盖
type Store interface {
	Load(ctx context.Context, roomID string) (*model.RoomState, error)
	Save(ctx context.Context, state *model.RoomState) error
}

func clone(state *model.RoomState) *model.RoomState {
	out := *state
	out.SceneNarrative = append([]string(nil), state.SceneNarrative...)
	out.SecondaryPool = append([]model.ChatEntry(nil), state.SecondaryPool...)
	return &out
}
