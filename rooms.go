package main

import (
	"log"
	"sort"
	"sync"
)

// RoomManager is the process-scoped room table. It is created in main and
// passed to the handlers that need it rather than accessed as ambient
// package state, which keeps the core testable in isolation.
type RoomManager struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	clients map[string]*Client // every connected client, in a room or not
}

// NewRoomManager creates an empty registry
func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:   make(map[string]*Room),
		clients: make(map[string]*Client),
	}
}

// CreateRoom inserts a new room and starts its tick loop
func (m *RoomManager) CreateRoom(name string, potatoSpeed float64, maxPlayers int, private bool) *Room {
	room := NewRoom(name, potatoSpeed, maxPlayers, private)
	room.lobbyNotify = m.BroadcastLobbies

	m.mu.Lock()
	m.rooms[room.ID] = room
	m.mu.Unlock()

	go room.Run()
	log.Printf("Created room %s (%q, max %d, private %v)", room.ID, room.Name, room.MaxPlayers, room.Private)
	return room
}

// GetRoom looks a room up by id
func (m *RoomManager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// RemoveRoom stops and deletes a room once it is confirmed empty. The
// emptiness re-check under the room lock handles a join that lands between
// the last leave and this call: the room survives and the joiner plays on.
// Once the closed flag is set, AddPlayer rejects any later join.
func (m *RoomManager) RemoveRoom(id string) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return
	}

	stopped := false
	room.WithLock(func() {
		if len(room.Players) > 0 {
			return
		}
		room.closed = true
		stopped = true
	})
	if stopped {
		delete(m.rooms, id)
	}
	m.mu.Unlock()

	if stopped {
		room.Stop()
		log.Printf("Destroyed empty room %s", id)
	}
}

// ListLobbies returns public room summaries sorted by id for stable output
func (m *RoomManager) ListLobbies() []LobbySummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]LobbySummary, 0, len(m.rooms))
	for _, room := range m.rooms {
		if room.Private {
			continue
		}
		room.WithLock(func() {
			out = append(out, room.Summary())
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RegisterClient tracks a freshly connected client
func (m *RoomManager) RegisterClient(c *Client) {
	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()
}

// UnregisterClient forgets a disconnected client
func (m *RoomManager) UnregisterClient(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()
}

// BroadcastLobbies pushes the current public room list to every client that
// is still browsing (not inside a room).
func (m *RoomManager) BroadcastLobbies() {
	lobbies := m.ListLobbies()

	m.mu.RLock()
	browsing := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		if c.Room() == nil {
			browsing = append(browsing, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range browsing {
		c.SendMessage(ServerMessage{Type: "lobbies_update", Payload: lobbies})
	}
}
