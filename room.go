package main

import (
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// RoomState is the room lifecycle state
type RoomState string

const (
	RoomWaiting RoomState = "waiting"
	RoomPlaying RoomState = "playing"
	RoomEnded   RoomState = "ended"
)

// Command-level errors reported back to clients as error events
var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInProgress = errors.New("game already in progress")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotHost        = errors.New("only the host can start the game")
	ErrNoPlayers      = errors.New("cannot start an empty room")
)

// Room owns one game session: its obstacles, players, potatoes, powerups,
// and slime areas. A single mutex serializes tick processing and message
// handling, so nothing else ever mutates room state concurrently. Rooms are
// independent of each other; a room tearing down cannot affect its siblings.
type Room struct {
	ID          string
	Name        string
	HostID      string
	MaxPlayers  int
	Private     bool
	PotatoSpeed float64 // configured multiplier from create_room

	State          RoomState
	Tick           uint64
	RoundStart     time.Time
	SpeedModifier  float64 // rubber-banding, non-decreasing during a round
	Obstacles      []Obstacle
	Grid           *navGrid
	Players        map[string]*Player
	Potatoes       []*Potato
	Powerups       []*Powerup
	SlimeAreas     []*SlimeArea
	LastSurvivorID string
	LastWinnerID   string // winner of the most recent finished round

	mu     sync.Mutex
	quit   chan struct{}
	closed bool // set under mu during teardown; joins are rejected after

	// lobbyNotify pushes a lobby refresh to browsing clients. Set by the
	// manager at creation; invoked on a fresh goroutine because the lobby
	// listing takes this room's lock.
	lobbyNotify func()
}

// NewRoom creates a room with a freshly generated obstacle set and nav grid
func NewRoom(name string, potatoSpeed float64, maxPlayers int, private bool) *Room {
	if name == "" {
		name = "Room"
	}
	if maxPlayers <= 0 || maxPlayers > DefaultMaxPlayers {
		maxPlayers = DefaultMaxPlayers
	}
	obstacles := GenerateObstacles(ObstacleCount)
	r := &Room{
		ID:            newID(),
		Name:          name,
		MaxPlayers:    maxPlayers,
		Private:       private,
		PotatoSpeed:   Clamp(potatoSpeed, MinPotatoSpeedConfig, MaxPotatoSpeedConfig),
		State:         RoomWaiting,
		SpeedModifier: 1.0,
		Obstacles:     obstacles,
		Grid:          newNavGrid(obstacles, PotatoRadius),
		Players:       make(map[string]*Player),
		Potatoes:      make([]*Potato, 0, 1),
		Powerups:      make([]*Powerup, 0, MaxPowerupCount),
		SlimeAreas:    make([]*SlimeArea, 0),
		quit:          make(chan struct{}),
	}
	if potatoSpeed == 0 {
		r.PotatoSpeed = 1.0
	}
	return r
}

// Run drives the fixed-interval tick until the room is stopped
func (r *Room) Run() {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.State == RoomPlaying {
				r.update(time.Now())
				r.broadcast(ServerMessage{Type: "game_state", Payload: r.buildGameState()})
			}
			r.mu.Unlock()
		}
	}
}

// Stop terminates the tick loop
func (r *Room) Stop() {
	close(r.quit)
}

// WithLock runs fn serialized against the tick loop. Every message handler
// that touches room state goes through here.
func (r *Room) WithLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// update advances the simulation one tick. The phase order is load-bearing:
// statuses before movement (speed overrides), movement before separation,
// separation before pursuit, pickups before elimination.
func (r *Room) update(now time.Time) {
	r.Tick++
	r.expireSlimeAreas(now)
	r.updateStatuses(now)
	r.movePlayers()
	r.separatePlayers()
	r.updatePotatoes(now)
	r.spawnPowerup(now)
	r.collectPowerups(now)
	r.resolvePotatoHits(now)
	r.checkWin(now)
}

func (r *Room) movePlayers() {
	for _, p := range r.Players {
		if !p.Alive {
			continue
		}
		p.Pos = MoveCircleToward(p.Pos, p.Target, p.Radius, p.Speed, TickSeconds, r.Obstacles)
	}
}

// separatePlayers resolves every overlapping pair of living, non-ghost
// players. Pair order follows map iteration and is arbitrary; with three or
// more mutually overlapping players the outcome depends on it, which is
// acceptable because the wall validation inside SeparateCircles bounds
// every push.
func (r *Room) separatePlayers() {
	now := time.Now()
	pool := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Alive && !p.Ghosted(now) {
			pool = append(pool, p)
		}
	}

	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			a, b := pool[i], pool[j]
			if !CirclesOverlap(a.Pos, a.Radius, b.Pos, b.Radius) {
				continue
			}
			a.Pos, b.Pos = SeparateCircles(a.Pos, b.Pos, a.Radius, b.Radius, r.Obstacles)
		}
	}
}

// updatePotatoes runs the pursuit phase: top up the potato count, retarget,
// recompute paths on the recalc cadence, and advance along waypoints.
func (r *Room) updatePotatoes(now time.Time) {
	for len(r.Potatoes) < r.desiredPotatoCount() {
		pos := FindOpenPosition(PotatoRadius, r.Obstacles, r.Potatoes, PlayerRadius*6)
		r.Potatoes = append(r.Potatoes, NewPotato(pos))
		log.Printf("Room %s spawned potato %d", r.ID, len(r.Potatoes))
	}

	for _, pt := range r.Potatoes {
		if pt.Frozen(now) {
			continue
		}

		pt.TargetID = r.nearestTargetID(pt, now)
		target, ok := r.Players[pt.TargetID]
		if !ok || !target.Targetable(now) {
			// Target vanished between selection and resolution; idle.
			pt.TargetID = ""
			pt.Waypoints = nil
			continue
		}

		pt.RecalcIn--
		if pt.RecalcIn <= 0 {
			pt.RecalcIn = PathRecalcTicks
			if path, found := r.Grid.FindPath(pt.Pos, target.Pos); found {
				pt.Waypoints = path
			} else {
				// Budget exhausted or unreachable cell: degrade to a
				// straight-line chase toward the last known position.
				pt.Waypoints = nil
			}
		}

		waypoint := target.Pos
		if len(pt.Waypoints) > 0 {
			waypoint = pt.Waypoints[0]
		}
		speed := pt.Speed * r.PotatoSpeed * r.SpeedModifier
		pt.Pos = MoveCircleToward(pt.Pos, waypoint, pt.Radius, speed, TickSeconds, r.Obstacles)

		if len(pt.Waypoints) > 0 && Distance(pt.Pos, pt.Waypoints[0]) < pt.Radius {
			pt.Waypoints = pt.Waypoints[1:]
		}
	}
}

// desiredPotatoCount grows deterministically with the highest living score
func (r *Room) desiredPotatoCount() int {
	best := 0.0
	for _, p := range r.Players {
		if p.Alive && p.Score > best {
			best = p.Score
		}
	}
	count := 1 + int(best/PotatoScoreThreshold)
	if count > MaxPotatoes {
		count = MaxPotatoes
	}
	return count
}

// nearestTargetID picks the closest living, non-stealthed, non-ghosted
// player. Exact distance ties resolve to the lowest player id; iteration
// runs over sorted ids so the rule is deterministic.
func (r *Room) nearestTargetID(pt *Potato, now time.Time) string {
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	bestID := ""
	bestDist := 0.0
	for _, id := range ids {
		p := r.Players[id]
		if !p.Targetable(now) {
			continue
		}
		d := Distance(pt.Pos, p.Pos)
		if bestID == "" || d < bestDist {
			bestID = id
			bestDist = d
		}
	}
	return bestID
}

// spawnPowerup probabilistically spawns one powerup below the concurrency
// cap, picking the type from the cumulative weight table and the position by
// rejection sampling against obstacles.
func (r *Room) spawnPowerup(now time.Time) {
	if len(r.Powerups) >= MaxPowerupCount {
		return
	}
	if rand.Float64() >= PowerupSpawnChance {
		return
	}

	roll := rand.Float64()
	kind := PowerupTable[len(PowerupTable)-1].Type
	for _, entry := range PowerupTable {
		if roll < entry.Cumulative {
			kind = entry.Type
			break
		}
	}

	r.Powerups = append(r.Powerups, &Powerup{
		ID:        newID(),
		Type:      kind,
		Pos:       FindOpenPosition(PowerupRadius, r.Obstacles, nil, 0),
		Radius:    PowerupRadius,
		SpawnedAt: now,
	})
}

// collectPowerups hands each touched powerup to the first living player in
// contact: flat score bonus plus the type effect, then removal.
func (r *Room) collectPowerups(now time.Time) {
	remaining := r.Powerups[:0]
	for _, pu := range r.Powerups {
		collector := (*Player)(nil)
		for _, p := range r.Players {
			if p.Alive && CirclesOverlap(p.Pos, p.Radius, pu.Pos, pu.Radius) {
				collector = p
				break
			}
		}
		if collector == nil {
			remaining = append(remaining, pu)
			continue
		}

		collector.Score += PowerupScoreBonus
		switch pu.Type {
		case PowerupSpeed:
			collector.SpeedBoostUntil = now.Add(PowerupSpeedDuration)
		case PowerupReset:
			collector.BoostCooldown = 0
			collector.ShieldCooldown = 0
			collector.StealthCooldown = 0
			collector.SlimeCooldown = 0
		case PowerupGhost:
			collector.GhostUntil = now.Add(PowerupGhostDuration)
		case PowerupFreeze:
			for _, pt := range r.Potatoes {
				pt.FrozenUntil = now.Add(PotatoFreezeDuration)
			}
		}
		log.Printf("Player %s collected %s powerup in room %s", collector.ID, pu.Type, r.ID)
	}
	r.Powerups = remaining
}

// resolvePotatoHits applies potato contact: shield freezes the potato,
// ghost ignores the hit, anything else costs a life. A non-fatal hit
// respawns the player at a validated open position with a fresh shield, so
// one contact can never drain more than a single life.
func (r *Room) resolvePotatoHits(now time.Time) {
	for _, pt := range r.Potatoes {
		if pt.Frozen(now) {
			continue
		}
		for _, p := range r.Players {
			if !p.Alive || !CirclesOverlap(pt.Pos, pt.Radius, p.Pos, p.Radius) {
				continue
			}
			if p.Shielded() {
				pt.FrozenUntil = now.Add(PotatoFreezeDuration)
				break
			}
			if p.Ghosted(now) {
				continue
			}
			r.damagePlayer(p)
		}
	}
}

func (r *Room) damagePlayer(p *Player) {
	p.Lives--
	if p.Lives <= 0 {
		p.Lives = 0
		p.Alive = false
		r.SpeedModifier += SpeedModIncrement
		log.Printf("Player %s eliminated in room %s, speed modifier now %.1f", p.ID, r.ID, r.SpeedModifier)
		return
	}
	p.Pos = FindOpenPosition(p.Radius, r.Obstacles, r.Potatoes, PotatoRadius*4)
	p.Target = p.Pos
	p.ShieldCooldown = ShieldCooldownMs // respawn protection via the derived shield
}

// checkWin tracks the last single survivor every tick and, once the grace
// period has passed, ends the round. The winner fallback chain is
// deterministic: sole survivor, else the last tracked single-survivor id,
// else the highest score with ties broken by lowest id.
func (r *Room) checkWin(now time.Time) {
	alive := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	if len(alive) == 1 {
		r.LastSurvivorID = alive[0].ID
	}

	if now.Sub(r.RoundStart) < GracePeriod {
		return
	}

	switch len(alive) {
	case 1:
		r.endRound(alive[0].ID)
	case 0:
		winner := r.LastSurvivorID
		if _, ok := r.Players[winner]; !ok {
			winner = r.highestScoreID()
		}
		r.endRound(winner)
	}
}

// highestScoreID returns the highest-score player id, ties to the lowest id
func (r *Room) highestScoreID() string {
	bestID := ""
	bestScore := 0.0
	for id, p := range r.Players {
		if bestID == "" || p.Score > bestScore || (p.Score == bestScore && id < bestID) {
			bestID = id
			bestScore = p.Score
		}
	}
	return bestID
}

func (r *Room) endRound(winnerID string) {
	r.State = RoomEnded
	r.LastWinnerID = winnerID
	log.Printf("Room %s round over, winner %s", r.ID, winnerID)
	r.broadcast(ServerMessage{Type: "game_over", Payload: GameOverPayload{
		WinnerID: winnerID,
		Players:  r.playerSnapshots(),
	}})
	// The room immediately waits for the host to start another round.
	r.State = RoomWaiting
	if r.lobbyNotify != nil {
		go r.lobbyNotify()
	}
}

// StartGame transitions WAITING -> PLAYING: players reset in place, one
// fresh potato, cleared pickups and hazards, rubber-banding back to 1.0.
func (r *Room) StartGame(playerID string) error {
	if playerID != r.HostID {
		return ErrNotHost
	}
	if r.State == RoomPlaying {
		return ErrRoomInProgress
	}
	if len(r.Players) == 0 {
		return ErrNoPlayers
	}

	r.SpeedModifier = 1.0
	r.Powerups = r.Powerups[:0]
	r.SlimeAreas = r.SlimeAreas[:0]
	r.LastSurvivorID = ""
	r.Potatoes = []*Potato{NewPotato(FindOpenPosition(PotatoRadius, r.Obstacles, nil, 0))}
	for _, p := range r.Players {
		p.ResetForRound(r.Obstacles, r.Potatoes)
	}
	r.Tick = 0
	r.RoundStart = time.Now()
	r.State = RoomPlaying

	log.Printf("Room %s started a round with %d players", r.ID, len(r.Players))
	r.broadcast(ServerMessage{Type: "game_started"})
	return nil
}

// AddPlayer validates and inserts a joining player. The first member becomes
// host. A room already torn down reports not-found: a join can race the last
// member's leave, and landing in a stopped room would strand the player.
func (r *Room) AddPlayer(client *Client, name, color string) (*Player, error) {
	if r.closed {
		return nil, ErrRoomNotFound
	}
	if r.State == RoomPlaying {
		return nil, ErrRoomInProgress
	}
	if len(r.Players) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}

	id := newID()
	if client != nil {
		id = client.ID
	}
	p := NewPlayer(id, name, color, client)
	p.Pos = FindOpenPosition(p.Radius, r.Obstacles, r.Potatoes, PotatoRadius*4)
	p.Target = p.Pos
	r.Players[p.ID] = p
	if r.HostID == "" {
		r.HostID = p.ID
	}

	log.Printf("Player %s (%s) joined room %s (%d/%d)", p.Name, p.ID, r.ID, len(r.Players), r.MaxPlayers)
	r.broadcast(ServerMessage{Type: "room_update", Payload: r.buildRoomUpdate()})
	return p, nil
}

// RemovePlayer takes a player out of the room, migrating the host role to
// the first remaining member when needed. Returns true when the room is now
// empty and should be destroyed.
func (r *Room) RemovePlayer(playerID string) bool {
	p, ok := r.Players[playerID]
	if !ok {
		return len(r.Players) == 0
	}
	delete(r.Players, playerID)
	log.Printf("Player %s left room %s (%d remaining)", p.ID, r.ID, len(r.Players))

	if len(r.Players) == 0 {
		// Clear the host so a join that beats the teardown starts fresh
		// instead of inheriting a departed host id.
		r.HostID = ""
		return true
	}

	if r.HostID == playerID {
		// "First remaining" by map iteration; explicitly not score- or
		// join-order-based.
		for id := range r.Players {
			r.HostID = id
			break
		}
		log.Printf("Room %s host migrated to %s", r.ID, r.HostID)
	}

	r.broadcast(ServerMessage{Type: "room_update", Payload: r.buildRoomUpdate()})
	return false
}

// HandleInput stores a player's movement intent and triggers any ability
// key. Input referencing a dead or unknown player is a silent no-op.
func (r *Room) HandleInput(playerID string, x, y float64, key string) {
	p, ok := r.Players[playerID]
	if !ok || r.State != RoomPlaying || !p.Alive {
		return
	}
	p.Target = Vec2{
		X: Clamp(x, p.Radius, ArenaWidth-p.Radius),
		Y: Clamp(y, p.Radius, ArenaHeight-p.Radius),
	}
	if key != "" {
		r.ActivateAbility(p, key, time.Now())
	}
}

// broadcast fans a message out to every connected member
func (r *Room) broadcast(msg ServerMessage) {
	for _, p := range r.Players {
		if p.Client != nil {
			p.Client.SendMessage(msg)
		}
	}
}

func (r *Room) playerSnapshots() []PlayerSnapshot {
	now := time.Now()
	snaps := make([]PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.Players {
		snaps = append(snaps, PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Color:     p.Color,
			X:         p.Pos.X,
			Y:         p.Pos.Y,
			Speed:     p.Speed,
			Lives:     p.Lives,
			Score:     p.Score,
			Alive:     p.Alive,
			Shielded:  p.Shielded(),
			Stealthed: p.Stealthed(),
			Ghosted:   p.Ghosted(now),
			Slowed:    p.Slowed,
			Silenced:  p.Silenced,
			Ping:      p.Ping,
			Cooldowns: CooldownSnapshot{
				Boost:   p.BoostCooldown,
				Shield:  p.ShieldCooldown,
				Stealth: p.StealthCooldown,
				Slime:   p.SlimeCooldown,
			},
		})
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// buildGameState assembles the full per-tick snapshot
func (r *Room) buildGameState() GameStatePayload {
	now := time.Now()

	potatoes := make([]PotatoSnapshot, 0, len(r.Potatoes))
	for _, pt := range r.Potatoes {
		potatoes = append(potatoes, PotatoSnapshot{
			X:      pt.Pos.X,
			Y:      pt.Pos.Y,
			Radius: pt.Radius,
			Frozen: pt.Frozen(now),
		})
	}

	powerups := make([]PowerupSnapshot, 0, len(r.Powerups))
	for _, pu := range r.Powerups {
		powerups = append(powerups, PowerupSnapshot{
			ID:   pu.ID,
			Type: pu.Type,
			X:    pu.Pos.X,
			Y:    pu.Pos.Y,
			R:    pu.Radius,
		})
	}

	slimes := make([]SlimeSnapshot, 0, len(r.SlimeAreas))
	for _, s := range r.SlimeAreas {
		slimes = append(slimes, SlimeSnapshot{
			OwnerID: s.OwnerID,
			X:       s.Pos.X,
			Y:       s.Pos.Y,
			Radius:  s.Radius,
		})
	}

	return GameStatePayload{
		Tick:       r.Tick,
		Players:    r.playerSnapshots(),
		Potatoes:   potatoes,
		Obstacles:  r.Obstacles,
		Powerups:   powerups,
		SlimeAreas: slimes,
	}
}

func (r *Room) buildRoomUpdate() RoomUpdatePayload {
	players := make([]LobbyPlayer, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, LobbyPlayer{ID: p.ID, Name: p.Name, Color: p.Color, Ping: p.Ping})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return RoomUpdatePayload{Players: players, HostID: r.HostID}
}

// Summary returns the lobby-listing view of the room
func (r *Room) Summary() LobbySummary {
	return LobbySummary{
		ID:         r.ID,
		Name:       r.Name,
		Players:    len(r.Players),
		MaxPlayers: r.MaxPlayers,
		State:      string(r.State),
	}
}
