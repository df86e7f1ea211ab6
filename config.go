package main

import "time"

const (
	// Arena configuration
	ArenaWidth  = 1280.0
	ArenaHeight = 720.0

	// Game loop configuration
	TickRate     = 20                      // simulation ticks per second
	TickInterval = time.Second / TickRate  // 50ms
	TickSeconds  = 1.0 / float64(TickRate) // dt passed to movement
	GracePeriod  = 5 * time.Second         // no win checks right after round start

	// Player configuration
	PlayerRadius        = 25.0
	PlayerBaseSpeed     = 250.0 // units per second
	PlayerLives         = 3
	SurvivalScorePerSec = 1.0
	DefaultMaxPlayers   = 8
	MaxPlayerNameLen    = 20

	// Ability cooldowns (milliseconds) and effect windows
	BoostCooldownMs   = 6000.0
	BoostDuration     = 3 * time.Second
	BoostMultiplier   = 1.8
	ShieldCooldownMs  = 8000.0
	ShieldWindowMs    = 2500.0 // shield holds while cooldown remains within this tail
	StealthCooldownMs = 10000.0
	StealthWindowMs   = 3000.0
	SlimeCooldownMs   = 12000.0

	// Slime areas
	SlimeRadius     = 90.0
	SlimeDuration   = 6 * time.Second
	SlimeSlowFactor = 0.5

	// Potato configuration
	PotatoRadius         = 30.0
	PotatoBaseSpeed      = 200.0
	PotatoFreezeDuration = 3 * time.Second
	MaxPotatoes          = 3
	PotatoScoreThreshold = 100.0 // one extra potato per threshold crossed
	SpeedModIncrement    = 0.1   // rubber-banding bump per elimination
	MinPotatoSpeedConfig = 0.5
	MaxPotatoSpeedConfig = 2.0

	// Obstacle generation
	ObstacleCount         = 8
	ObstacleMinSize       = 40.0
	ObstacleMaxSize       = 160.0
	ObstacleSpawnMargin   = 60.0
	CenterExclusionRadius = 150.0
	ObstacleMinGap        = 2*PlayerRadius + 10 // keeps every corridor passable
	PlacementAttempts     = 200

	// Pathfinding
	NavCellSize     = 40.0
	PathNodeBudget  = 600 // A* expansions before straight-line fallback
	PathRecalcTicks = 6   // recompute every 300ms, follow waypoints between

	// Powerups
	PowerupSpawnChance   = 0.02 // per tick while a round is active
	MaxPowerupCount      = 3
	PowerupRadius        = 18.0
	PowerupScoreBonus    = 25.0
	PowerupSpeedDuration = 4 * time.Second
	PowerupGhostDuration = 3 * time.Second

	// Client prediction / reconciliation. Tuned against TickInterval;
	// revisit these if the tick rate changes.
	ReconcileSnapDistance = 50.0
	RemoteLerpFactor      = 0.25
	RemoteSnapDistance    = 200.0
	InputSendInterval     = 50 * time.Millisecond

	// Network
	WriteChannelSize = 256
	WriteWait        = 10 * time.Second
	PongWait         = 60 * time.Second
	PingPeriod       = 54 * time.Second
)

// PowerupWeight is one row of the cumulative-probability spawn table.
type PowerupWeight struct {
	Type       string
	Cumulative float64
}

// PowerupTable maps a uniform roll in [0,1) to a powerup type. Entries are
// cumulative and the last one must reach 1.0.
var PowerupTable = []PowerupWeight{
	{Type: PowerupSpeed, Cumulative: 0.35},
	{Type: PowerupReset, Cumulative: 0.60},
	{Type: PowerupGhost, Cumulative: 0.85},
	{Type: PowerupFreeze, Cumulative: 1.0},
}
