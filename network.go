package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // game clients are served cross-origin in development
	},
}

// Client represents one connected WebSocket client. Its id doubles as the
// player id inside whatever room it joins.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	manager *RoomManager

	mu     sync.Mutex
	room   *Room
	closed bool
}

// NewClient creates a client for an upgraded connection
func NewClient(conn *websocket.Conn, manager *RoomManager) *Client {
	return &Client{
		ID:      newID(),
		Conn:    conn,
		Send:    make(chan []byte, WriteChannelSize),
		manager: manager,
	}
}

// Room returns the room this client currently sits in, or nil
func (c *Client) Room() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(r *Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

// HandleWebSocket upgrades the connection and starts the client pumps
func HandleWebSocket(manager *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := NewClient(conn, manager)
		manager.RegisterClient(client)
		log.Printf("Client connected: %s", client.ID)

		go client.WritePump()
		go client.ReadPump()

		client.SendMessage(ServerMessage{Type: "lobbies_update", Payload: manager.ListLobbies()})
	}
}

// ReadPump reads messages from the WebSocket connection until it drops
func (c *Client) ReadPump() {
	defer func() {
		c.Disconnect()
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error from %s: %v", c.ID, err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Dropping malformed message from %s: %v", c.ID, err)
			continue
		}

		c.HandleMessage(msg)
	}
}

// WritePump sends queued messages and keepalive pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleMessage dispatches one validated inbound message
func (c *Client) HandleMessage(msg ClientMessage) {
	switch msg.Type {
	case "create_room":
		c.handleCreateRoom(msg)
	case "join_room":
		c.handleJoinRoom(msg)
	case "start_game":
		c.handleStartGame()
	case "input":
		c.handleInput(msg)
	case "ping_check":
		c.SendMessage(ServerMessage{Type: "pong_check", Payload: PongCheckPayload{Timestamp: msg.Timestamp}})
	case "update_ping":
		c.handleUpdatePing(msg)
	case "leave_room":
		c.LeaveRoom()
		c.manager.BroadcastLobbies()
	default:
		log.Printf("Unknown message type %q from %s", msg.Type, c.ID)
	}
}

func (c *Client) handleCreateRoom(msg ClientMessage) {
	if c.Room() != nil {
		c.SendError("already in a room")
		return
	}

	room := c.manager.CreateRoom(msg.Name, msg.PotatoSpeed, msg.MaxPlayers, msg.IsPrivate)
	c.joinRoom(room, msg.Name, msg.Color)
}

func (c *Client) handleJoinRoom(msg ClientMessage) {
	if c.Room() != nil {
		c.SendError("already in a room")
		return
	}

	room, ok := c.manager.GetRoom(msg.RoomID)
	if !ok {
		c.SendError(ErrRoomNotFound.Error())
		return
	}
	c.joinRoom(room, msg.Name, msg.Color)
}

func (c *Client) joinRoom(room *Room, name, color string) {
	var joinErr error
	var isHost bool
	room.WithLock(func() {
		_, joinErr = room.AddPlayer(c, name, color)
		isHost = room.HostID == c.ID
	})
	if joinErr != nil {
		c.SendError(joinErr.Error())
		return
	}

	c.setRoom(room)
	c.SendMessage(ServerMessage{Type: "room_joined", Payload: RoomJoinedPayload{
		RoomID:        room.ID,
		IsHost:        isHost,
		PlayerID:      c.ID,
		SpeedModifier: room.PotatoSpeed,
		MaxPlayers:    room.MaxPlayers,
		IsPrivate:     room.Private,
	}})
	c.manager.BroadcastLobbies()
}

func (c *Client) handleStartGame() {
	room := c.Room()
	if room == nil {
		return
	}

	var startErr error
	room.WithLock(func() {
		startErr = room.StartGame(c.ID)
	})
	if startErr != nil {
		c.SendError(startErr.Error())
		return
	}
	c.manager.BroadcastLobbies()
}

func (c *Client) handleInput(msg ClientMessage) {
	room := c.Room()
	if room == nil {
		return // stale input after leaving; not a fault
	}
	room.WithLock(func() {
		room.HandleInput(c.ID, msg.X, msg.Y, msg.Key)
	})
}

func (c *Client) handleUpdatePing(msg ClientMessage) {
	room := c.Room()
	if room == nil {
		return
	}
	room.WithLock(func() {
		if p, ok := room.Players[c.ID]; ok {
			p.Ping = msg.Ping
		}
	})
}

// LeaveRoom removes this client's player from its room, destroying the room
// when it empties out
func (c *Client) LeaveRoom() {
	room := c.Room()
	if room == nil {
		return
	}
	c.setRoom(nil)

	empty := false
	room.WithLock(func() {
		empty = room.RemovePlayer(c.ID)
	})
	if empty {
		c.manager.RemoveRoom(room.ID)
	}
}

// Disconnect treats a dropped connection as a normal leave
func (c *Client) Disconnect() {
	c.LeaveRoom()
	c.manager.UnregisterClient(c)
	c.manager.BroadcastLobbies()

	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
	c.mu.Unlock()
	log.Printf("Client disconnected: %s", c.ID)
}

// SendMessage queues a message for the write pump, dropping it if the
// client has fallen too far behind
func (c *Client) SendMessage(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msg.Type, err)
		return
	}

	// A message racing the disconnect teardown is droppable by definition.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.Send <- data:
	default:
		log.Printf("Client %s send channel full, dropping %s", c.ID, msg.Type)
	}
}

// SendError reports a rejected command
func (c *Client) SendError(message string) {
	c.SendMessage(ServerMessage{Type: "error", Payload: ErrorPayload{Message: message}})
}
