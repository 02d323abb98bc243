package game

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

// 房间名长度上限
const maxRoomNameLength = 20

// Manager 房间管理器
// 房间一经创建即永久存续（不做回收），生命周期循环随创建启动
type Manager struct {
	words     WordService
	timings   Timings
	directory Directory

	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewManager 创建房间管理器
func NewManager(words WordService, timings Timings, directory Directory) *Manager {
	return &Manager{
		words:     words,
		timings:   timings,
		directory: directory,
		rooms:     make(map[string]*Room),
	}
}

// CreateRoom 创建房间并启动其生命周期循环
func (m *Manager) CreateRoom(name string, isPrivate bool, language string, rules Rules) (*Room, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(name) > maxRoomNameLength {
		return nil, ErrNameTooLong
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if !m.words.HasLanguage(language) {
		return nil, ErrUnknownLanguage
	}

	room := NewRoom(uuid.New().String(), name, isPrivate, language, rules, m.words, m.timings, m.directory)

	m.mu.Lock()
	m.rooms[room.ID] = room
	m.mu.Unlock()

	go room.Run()

	if m.directory != nil {
		go func() { _ = m.directory.SaveRoom(context.Background(), room.Info(), room.IsPrivate) }()
	}

	log.Printf("🏠 房间 %s (%s) 已创建, 语言 %s", room.ID, name, language)
	return room, nil
}

// GetRoom 获取房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// ListRooms 列出公开房间
func (m *Manager) ListRooms() []protocol.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]protocol.RoomInfo, 0, len(m.rooms))
	for _, room := range m.rooms {
		if !room.IsPrivate {
			rooms = append(rooms, room.Info())
		}
	}
	return rooms
}
