package room

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"TianHe-LiveSim/model"
	"TianHe-LiveSim/utils"
)

// Manager 管理进程内所有已进入的房间
type Manager struct {
	rooms  map[string]*Room
	deps   Deps
	mutex  sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc

	mountListeners   []func(*Room)
	unmountListeners []func(*Room)
}

func NewManager(ctx context.Context, deps Deps) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		rooms:  make(map[string]*Room),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnMount 注册进房回调，回调在房间启动之后执行
func (m *Manager) OnMount(fn func(*Room)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.mountListeners = append(m.mountListeners, fn)
}

// OnUnmount 注册离房回调，回调在房间关闭之后执行
func (m *Manager) OnUnmount(fn func(*Room)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.unmountListeners = append(m.unmountListeners, fn)
}

// Mount 创建并进入房间
func (m *Manager) Mount(params model.EntryParams) (*Room, error) {
	m.mutex.Lock()
	if m.ctx.Err() != nil {
		m.mutex.Unlock()
		return nil, model.ErrRoomClosed
	}
	if _, exists := m.rooms[params.RoomID]; exists {
		m.mutex.Unlock()
		return nil, fmt.Errorf("%w: %s", model.ErrRoomExists, params.RoomID)
	}

	r, err := New(params, m.deps)
	if err != nil {
		m.mutex.Unlock()
		return nil, err
	}
	if err := r.Mount(m.ctx); err != nil {
		m.mutex.Unlock()
		r.Close()
		return nil, err
	}
	m.rooms[params.RoomID] = r
	listeners := m.mountListeners
	m.mutex.Unlock()

	for _, fn := range listeners {
		fn(r)
	}
	return r, nil
}

// Unmount 离开房间
func (m *Manager) Unmount(roomID string) error {
	m.mutex.Lock()
	r, exists := m.rooms[roomID]
	if !exists {
		m.mutex.Unlock()
		return fmt.Errorf("%w: %s", model.ErrRoomNotFound, roomID)
	}
	delete(m.rooms, roomID)
	listeners := m.unmountListeners
	m.mutex.Unlock()

	r.Close()
	for _, fn := range listeners {
		fn(r)
	}
	utils.Logger.Infof("移除房间 %s", roomID)
	return nil
}

func (m *Manager) Get(roomID string) (*Room, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, exists := m.rooms[roomID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrRoomNotFound, roomID)
	}
	return r, nil
}

// 获取房间列表
func (m *Manager) Rooms() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]string, 0, len(m.rooms))
	for roomID := range m.rooms {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)
	return rooms
}

// 离开所有房间
func (m *Manager) Stop() {
	m.mutex.Lock()
	m.cancel()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	listeners := m.unmountListeners
	m.mutex.Unlock()

	for roomID, r := range rooms {
		r.Close()
		for _, fn := range listeners {
			fn(r)
		}
		utils.Logger.Infof("关闭房间 %s", roomID)
	}
	utils.Logger.Info("所有房间已关闭")
}
