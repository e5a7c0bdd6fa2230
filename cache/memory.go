package cache

import (
	"context"
	"errors"
	"time"

	"TianHe-LiveSim/model"

	"github.com/bluele/gcache"
)

// MemoryStore 进程内缓存，进程退出即丢失
type MemoryStore struct {
	rooms gcache.Cache
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 64
	}
	builder := gcache.New(size).LRU()
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}
	return &MemoryStore{rooms: builder.Build()}
}

func (s *MemoryStore) Load(ctx context.Context, roomID string) (*model.RoomState, error) {
	cached, err := s.rooms.Get(roomID)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, model.ErrCacheMiss
		}
		return nil, err
	}
	return clone(cached.(*model.RoomState)), nil
}

func (s *MemoryStore) Save(ctx context.Context, state *model.RoomState) error {
	return s.rooms.Set(state.RoomID, clone(state))
}
