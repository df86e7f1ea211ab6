package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// BotClient is a headless player: it dials the server, joins or creates a
// room, and drives a LocalSim with wandering input. It exists to exercise
// the full protocol path end to end without a browser.
type BotClient struct {
	Name string
	Sim  *LocalSim

	conn     *websocket.Conn
	playerID string
	roomID   string
	isHost   bool
	incoming chan ServerMessage
	done     chan struct{}
}

// DialBot connects a bot to a running server
func DialBot(url, name string) (*BotClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	b := &BotClient{
		Name:     name,
		conn:     conn,
		incoming: make(chan ServerMessage, WriteChannelSize),
		done:     make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *BotClient) readLoop() {
	defer close(b.incoming)
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Bot %s dropping malformed message: %v", b.Name, err)
			continue
		}
		// Re-marshal the payload later against its concrete type; the
		// envelope keeps it as raw interface data here.
		select {
		case b.incoming <- msg:
		case <-b.done:
			return
		}
	}
}

func (b *BotClient) send(msg ClientMessage) error {
	return b.conn.WriteJSON(msg)
}

// CreateRoom asks the server for a fresh room and waits for the join ack
func (b *BotClient) CreateRoom(name string, potatoSpeed float64, maxPlayers int, private bool) error {
	if err := b.send(ClientMessage{
		Type:        "create_room",
		Name:        b.Name,
		PotatoSpeed: potatoSpeed,
		MaxPlayers:  maxPlayers,
		IsPrivate:   private,
	}); err != nil {
		return err
	}
	return b.awaitRoomJoined()
}

// JoinRoom joins an existing room and waits for the join ack
func (b *BotClient) JoinRoom(roomID string) error {
	if err := b.send(ClientMessage{Type: "join_room", RoomID: roomID, Name: b.Name}); err != nil {
		return err
	}
	return b.awaitRoomJoined()
}

// StartGame asks the server to start the round (host only)
func (b *BotClient) StartGame() error {
	return b.send(ClientMessage{Type: "start_game"})
}

func (b *BotClient) awaitRoomJoined() error {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-b.incoming:
			if !ok {
				return fmt.Errorf("connection closed before room_joined")
			}
			switch msg.Type {
			case "room_joined":
				var joined RoomJoinedPayload
				if err := decodePayload(msg.Payload, &joined); err != nil {
					return err
				}
				b.playerID = joined.PlayerID
				b.roomID = joined.RoomID
				b.isHost = joined.IsHost
				b.Sim = NewLocalSim(joined.PlayerID, nil)
				return nil
			case "error":
				var perr ErrorPayload
				if err := decodePayload(msg.Payload, &perr); err != nil {
					return err
				}
				return fmt.Errorf("join rejected: %s", perr.Message)
			}
		case <-timeout:
			return fmt.Errorf("timed out waiting for room_joined")
		}
	}
}

// Run drives render frames and throttled input until the connection drops
// or Stop is called. Snapshots mutate the sim only at frame boundaries.
func (b *BotClient) Run(frameRate int) {
	frame := time.NewTicker(time.Second / time.Duration(frameRate))
	ping := time.NewTicker(2 * time.Second)
	defer frame.Stop()
	defer ping.Stop()

	dt := 1.0 / float64(frameRate)
	var pending []GameStatePayload

	for {
		select {
		case <-b.done:
			return

		case msg, ok := <-b.incoming:
			if !ok {
				return
			}
			switch msg.Type {
			case "game_state":
				var snap GameStatePayload
				if err := decodePayload(msg.Payload, &snap); err == nil {
					pending = append(pending[:0], snap) // keep only the latest
				}
			case "pong_check":
				var pong PongCheckPayload
				if err := decodePayload(msg.Payload, &pong); err == nil {
					rtt := time.Now().UnixMilli() - pong.Timestamp
					_ = b.send(ClientMessage{Type: "update_ping", Ping: int(rtt)})
				}
			case "game_over":
				b.Sim = NewLocalSim(b.playerID, b.Sim.Obstacles)
			}

		case <-ping.C:
			_ = b.send(ClientMessage{Type: "ping_check", Timestamp: time.Now().UnixMilli()})

		case <-frame.C:
			for _, snap := range pending {
				b.Sim.ApplySnapshot(snap)
			}
			pending = pending[:0]

			b.wander()
			b.Sim.StepFrame(dt)

			if b.Sim.ShouldSendInput(time.Now()) {
				if err := b.send(ClientMessage{Type: "input", X: b.Sim.Target.X, Y: b.Sim.Target.Y}); err != nil {
					return
				}
			}
		}
	}
}

// wander picks a fresh random destination whenever the bot arrives
func (b *BotClient) wander() {
	if Distance(b.Sim.Predicted, b.Sim.Target) > PlayerRadius {
		return
	}
	b.Sim.SetTarget(Vec2{
		X: RandomFloat(PlayerRadius, ArenaWidth-PlayerRadius),
		Y: RandomFloat(PlayerRadius, ArenaHeight-PlayerRadius),
	})
}

// Stop tears down the bot connection
func (b *BotClient) Stop() {
	close(b.done)
	b.conn.Close()
}

// decodePayload converts a loosely decoded envelope payload into its
// concrete struct
func decodePayload(payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
