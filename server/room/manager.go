package room

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// RoomInfo is returned for server listings.
type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

// Manager holds rooms by code. Rooms are created on first join or via
// CreateRoom and removed when the last player leaves.
type Manager struct {
	mu    sync.RWMutex
	cfg   Config
	rooms map[string]*Room
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:   cfg,
		rooms: make(map[string]*Room),
	}
}

// GetOrCreateRoom returns the room for the given code, creating and starting
// it if needed.
func (m *Manager) GetOrCreateRoom(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		return r
	}
	return m.startRoomLocked(code)
}

// CreateRoom generates a unique code, starts the room, and returns the code.
func (m *Manager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		m.startRoomLocked(code)
		return code
	}
}

func (m *Manager) startRoomLocked(code string) *Room {
	r := New(m.cfg)
	r.Code = code
	r.OnEmpty = func(c string) {
		go m.removeRoom(c)
	}
	m.rooms[code] = r
	go r.Run()
	return r
}

func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		r.Stop()
		delete(m.rooms, code)
	}
}

// ListRooms returns the active rooms with their occupancy.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, RoomInfo{Code: code, Players: r.NumPlayers()})
	}
	return out
}

// TotalPlayers sums occupancy across rooms for registry heartbeats.
func (m *Manager) TotalPlayers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, r := range m.rooms {
		total += r.NumPlayers()
	}
	return total
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
