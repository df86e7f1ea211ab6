package main

import "time"

// Powerup types
const (
	PowerupSpeed  = "speed"  // temporary speed multiplier
	PowerupReset  = "reset"  // zeroes every ability cooldown
	PowerupGhost  = "ghost"  // temporary invulnerability
	PowerupFreeze = "freeze" // freezes every potato in the room
)

// Ability keys as sent in input messages
const (
	AbilityBoost   = "boost"
	AbilityShield  = "shield"
	AbilityStealth = "stealth"
	AbilitySlime   = "slime"
)

// Player represents a player in a room. All ability and hazard timers are
// stored as cooldown counters or deadlines and checked each tick; status
// flags are recomputed from them, never mutated on their own.
type Player struct {
	ID     string
	Name   string
	Color  string
	Pos    Vec2
	Target Vec2 // movement-intent point, chased each tick
	Radius float64
	Speed  float64 // effective speed for this tick, derived in updateStatus
	Lives  int
	Score  float64
	Alive  bool
	Ping   int

	// Ability cooldowns, milliseconds remaining, clamped to [0, max]
	BoostCooldown   float64
	ShieldCooldown  float64
	StealthCooldown float64
	SlimeCooldown   float64

	// Effect deadlines, compared against the tick clock
	SpeedBoostUntil time.Time
	GhostUntil      time.Time

	// Hazard-derived statuses, refreshed every tick from slime overlap
	Slowed   bool
	Silenced bool

	Client *Client
}

// NewPlayer creates a player ready to wait in a lobby
func NewPlayer(id, name, color string, client *Client) *Player {
	if name == "" {
		name = "Player"
	}
	if len(name) > MaxPlayerNameLen {
		name = name[:MaxPlayerNameLen]
	}
	p := &Player{
		ID:     id,
		Name:   name,
		Color:  color,
		Radius: PlayerRadius,
		Client: client,
	}
	p.ResetForRound(nil, nil)
	return p
}

// ResetForRound returns the player to round-start state in place. The same
// instance persists across rounds; only disconnects destroy it.
func (p *Player) ResetForRound(obstacles []Obstacle, potatoes []*Potato) {
	p.Pos = FindOpenPosition(p.Radius, obstacles, potatoes, PotatoRadius*4)
	p.Target = p.Pos
	p.Speed = PlayerBaseSpeed
	p.Lives = PlayerLives
	p.Score = 0
	p.Alive = true
	p.BoostCooldown = 0
	p.ShieldCooldown = 0
	p.StealthCooldown = 0
	p.SlimeCooldown = 0
	p.SpeedBoostUntil = time.Time{}
	p.GhostUntil = time.Time{}
	p.Slowed = false
	p.Silenced = false
}

// Shielded derives the shield flag from the cooldown tail window: the shield
// is up for ShieldWindowMs right after activation, with no separate timer.
func (p *Player) Shielded() bool {
	return p.ShieldCooldown > ShieldCooldownMs-ShieldWindowMs
}

// Stealthed derives the stealth flag the same way as Shielded
func (p *Player) Stealthed() bool {
	return p.StealthCooldown > StealthCooldownMs-StealthWindowMs
}

// Ghosted reports whether the invulnerability window is still open
func (p *Player) Ghosted(now time.Time) bool {
	return now.Before(p.GhostUntil)
}

// SpeedBoosted reports whether the boost ability window is still open
func (p *Player) SpeedBoosted(now time.Time) bool {
	return now.Before(p.SpeedBoostUntil)
}

// Targetable reports whether a potato may pick this player as its target
func (p *Player) Targetable(now time.Time) bool {
	return p.Alive && !p.Stealthed() && !p.Ghosted(now)
}

// Potato is the AI-controlled pursuer. It holds only the id of its target;
// the room's player table resolves it each tick, so a vanished target
// degrades to "no target" instead of a dangling reference.
type Potato struct {
	Pos         Vec2
	Radius      float64
	Speed       float64 // base speed before the room's multipliers
	FrozenUntil time.Time
	TargetID    string
	Waypoints   []Vec2
	RecalcIn    int // ticks until the next path recompute
}

// NewPotato creates a potato at the given position
func NewPotato(pos Vec2) *Potato {
	return &Potato{
		Pos:    pos,
		Radius: PotatoRadius,
		Speed:  PotatoBaseSpeed,
	}
}

// Frozen reports whether the potato is still frozen
func (pt *Potato) Frozen(now time.Time) bool {
	return now.Before(pt.FrozenUntil)
}

// Powerup is a transient collectible
type Powerup struct {
	ID        string
	Type      string
	Pos       Vec2
	Radius    float64
	SpawnedAt time.Time
}

// SlimeArea is a transient hazard zone created by the slime ability. It
// expires by deadline comparison each tick rather than a scheduled callback.
type SlimeArea struct {
	OwnerID   string
	Pos       Vec2
	Radius    float64
	SpawnedAt time.Time
	Duration  time.Duration
}

// Expired reports whether the area's lifetime has passed
func (s *SlimeArea) Expired(now time.Time) bool {
	return now.Sub(s.SpawnedAt) >= s.Duration
}

// Covers reports whether a point lies inside the area
func (s *SlimeArea) Covers(pos Vec2) bool {
	return Distance(s.Pos, pos) < s.Radius
}
