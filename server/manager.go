package server

import (
	"sync"

	"go.uber.org/zap"
)

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   Config
	log   *zap.SugaredLogger
}

// NewRoomManager 所有房间共享同一份配置
func NewRoomManager(cfg Config, log *zap.SugaredLogger) *RoomManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RoomManager{rooms: make(map[string]*Room), cfg: cfg, log: log}
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) (*Room, error) {
	if id == "" {
		id = m.cfg.Server.DefaultRoom
	}
	m.mu.RLock()
	r, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	r, err := NewRoom(id, m.cfg, m.log)
	if err != nil {
		return nil, err
	}
	m.rooms[id] = r
	r.StartTicker()
	m.log.Infof("room %s created", id)
	return r, nil
}

// Rooms 当前所有房间 id
func (m *RoomManager) Rooms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Close 停止所有房间的 Tick
func (m *RoomManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.Stop()
		delete(m.rooms, id)
	}
}
