package main

// ClientMessage is the closed envelope for every inbound message. Unknown
// types and malformed payloads are logged and dropped at the boundary; only
// validated fields ever reach a room.
type ClientMessage struct {
	Type string `json:"type"`

	// create_room / join_room
	Name        string  `json:"name,omitempty"`
	Color       string  `json:"color,omitempty"`
	RoomID      string  `json:"roomId,omitempty"`
	PotatoSpeed float64 `json:"potatoSpeed,omitempty"`
	MaxPlayers  int     `json:"maxPlayers,omitempty"`
	IsPrivate   bool    `json:"isPrivate,omitempty"`

	// input
	X   float64 `json:"x,omitempty"`
	Y   float64 `json:"y,omitempty"`
	Key string  `json:"key,omitempty"`

	// ping_check / update_ping
	Timestamp int64 `json:"timestamp,omitempty"`
	Ping      int   `json:"ping,omitempty"`
}

// ServerMessage is the outbound envelope
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// LobbySummary is one row of a lobbies_update listing
type LobbySummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	State      string `json:"state"`
}

// RoomJoinedPayload confirms a join to the joining client
type RoomJoinedPayload struct {
	RoomID        string  `json:"roomId"`
	IsHost        bool    `json:"isHost"`
	PlayerID      string  `json:"playerId"`
	SpeedModifier float64 `json:"speedModifier"`
	MaxPlayers    int     `json:"maxPlayers"`
	IsPrivate     bool    `json:"isPrivate"`
}

// LobbyPlayer is the pre-round roster entry
type LobbyPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Ping  int    `json:"ping"`
}

// RoomUpdatePayload carries the roster and host after membership changes
type RoomUpdatePayload struct {
	Players []LobbyPlayer `json:"players"`
	HostID  string        `json:"hostId"`
}

// CooldownSnapshot reports ability cooldowns in milliseconds remaining
type CooldownSnapshot struct {
	Boost   float64 `json:"boost"`
	Shield  float64 `json:"shield"`
	Stealth float64 `json:"stealth"`
	Slime   float64 `json:"slime"`
}

// PlayerSnapshot is one player's view in the per-tick game_state broadcast
type PlayerSnapshot struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Color     string           `json:"color"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Speed     float64          `json:"speed"`
	Lives     int              `json:"lives"`
	Score     float64          `json:"score"`
	Alive     bool             `json:"alive"`
	Shielded  bool             `json:"shielded"`
	Stealthed bool             `json:"stealthed"`
	Ghosted   bool             `json:"ghosted"`
	Slowed    bool             `json:"slowed"`
	Silenced  bool             `json:"silenced"`
	Ping      int              `json:"ping"`
	Cooldowns CooldownSnapshot `json:"cooldowns"`
}

// PotatoSnapshot is a potato's view in the game_state broadcast
type PotatoSnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Frozen bool    `json:"frozen"`
}

// PowerupSnapshot is a powerup's view in the game_state broadcast
type PowerupSnapshot struct {
	ID   string  `json:"id"`
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	R    float64 `json:"r"`
}

// SlimeSnapshot is a slime area's view in the game_state broadcast
type SlimeSnapshot struct {
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
}

// GameStatePayload is the full authoritative snapshot broadcast every tick
// while a round is active
type GameStatePayload struct {
	Tick       uint64            `json:"tick"`
	Players    []PlayerSnapshot  `json:"players"`
	Potatoes   []PotatoSnapshot  `json:"potatoes"`
	Obstacles  []Obstacle        `json:"obstacles"`
	Powerups   []PowerupSnapshot `json:"powerups"`
	SlimeAreas []SlimeSnapshot   `json:"slimeAreas"`
}

// GameOverPayload announces the round result
type GameOverPayload struct {
	WinnerID string           `json:"winnerId"`
	Players  []PlayerSnapshot `json:"players"`
}

// PongCheckPayload echoes the client's ping probe timestamp
type PongCheckPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// ErrorPayload reports a rejected command
type ErrorPayload struct {
	Message string `json:"message"`
}
