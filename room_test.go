package main

import (
	"math"
	"testing"
	"time"
)

// newTestRoom builds a room with an empty arena so tests can place entities
// at exact positions without random obstacles interfering.
func newTestRoom() *Room {
	r := NewRoom("test", 1.0, DefaultMaxPlayers, false)
	r.Obstacles = nil
	r.Grid = newNavGrid(nil, PotatoRadius)
	return r
}

func addTestPlayer(r *Room, name string) *Player {
	p, err := r.AddPlayer(nil, name, "#fff")
	if err != nil {
		panic(err)
	}
	return p
}

// lockedAddPlayer is for rooms whose tick goroutine is running
func lockedAddPlayer(r *Room, name string) (*Player, error) {
	var p *Player
	var err error
	r.WithLock(func() { p, err = r.AddPlayer(nil, name, "#fff") })
	return p, err
}

func TestAddPlayerFirstMemberBecomesHost(t *testing.T) {
	r := newTestRoom()
	first := addTestPlayer(r, "first")
	addTestPlayer(r, "second")

	if r.HostID != first.ID {
		t.Fatalf("host = %s, want first joiner %s", r.HostID, first.ID)
	}
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	r := NewRoom("small", 1.0, 2, false)
	addTestPlayer(r, "a")
	addTestPlayer(r, "b")

	if _, err := r.AddPlayer(nil, "c", "#fff"); err != ErrRoomFull {
		t.Fatalf("join of full room: err = %v, want ErrRoomFull", err)
	}
}

func TestAddPlayerRejectsWhileInProgress(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := r.AddPlayer(nil, "late", "#fff"); err != ErrRoomInProgress {
		t.Fatalf("join of running room: err = %v, want ErrRoomInProgress", err)
	}
}

func TestRemovePlayerMigratesHost(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	other := addTestPlayer(r, "other")

	if empty := r.RemovePlayer(host.ID); empty {
		t.Fatalf("room reported empty with a member remaining")
	}
	if r.HostID != other.ID {
		t.Fatalf("host = %s, want migrated to %s", r.HostID, other.ID)
	}

	if empty := r.RemovePlayer(other.ID); !empty {
		t.Fatalf("room not reported empty after last member left")
	}
}

func TestStartGameRequiresHost(t *testing.T) {
	r := newTestRoom()
	addTestPlayer(r, "host")
	other := addTestPlayer(r, "other")

	if err := r.StartGame(other.ID); err != ErrNotHost {
		t.Fatalf("non-host start: err = %v, want ErrNotHost", err)
	}
}

func TestStartGameResetsRoundState(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	p := addTestPlayer(r, "other")

	// Dirty the room as a finished round would have left it.
	r.SpeedModifier = 1.3
	r.LastSurvivorID = "stale"
	r.Powerups = append(r.Powerups, &Powerup{ID: "x"})
	r.SlimeAreas = append(r.SlimeAreas, &SlimeArea{OwnerID: "x"})
	p.Lives = 0
	p.Alive = false
	p.Score = 42

	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	if r.State != RoomPlaying || r.Tick != 0 {
		t.Fatalf("state=%s tick=%d after start", r.State, r.Tick)
	}
	if r.SpeedModifier != 1.0 || r.LastSurvivorID != "" {
		t.Fatalf("round scaffolding not reset: modifier=%v survivor=%q", r.SpeedModifier, r.LastSurvivorID)
	}
	if len(r.Powerups) != 0 || len(r.SlimeAreas) != 0 || len(r.Potatoes) != 1 {
		t.Fatalf("entities not reset: %d powerups, %d slimes, %d potatoes",
			len(r.Powerups), len(r.SlimeAreas), len(r.Potatoes))
	}
	if !p.Alive || p.Lives != PlayerLives || p.Score != 0 {
		t.Fatalf("player not reset: alive=%v lives=%d score=%v", p.Alive, p.Lives, p.Score)
	}

	if err := r.StartGame(host.ID); err != ErrRoomInProgress {
		t.Fatalf("double start: err = %v, want ErrRoomInProgress", err)
	}
}

func TestDamagePlayerNonFatalRespawnsWithShield(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 100, Y: 100}
	p.Target = Vec2{X: 900, Y: 600}

	r.damagePlayer(p)
	if p.Lives != PlayerLives-1 || !p.Alive {
		t.Fatalf("lives=%d alive=%v after non-fatal hit", p.Lives, p.Alive)
	}
	if !p.Shielded() {
		t.Fatalf("no respawn protection after non-fatal hit")
	}
	if p.Target != p.Pos {
		t.Fatalf("movement intent not cleared on respawn")
	}
}

func TestDamagePlayerFatalBumpsSpeedModifier(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Lives = 1

	r.damagePlayer(p)
	if p.Alive || p.Lives != 0 {
		t.Fatalf("lives=%d alive=%v after fatal hit", p.Lives, p.Alive)
	}
	if r.SpeedModifier != 1.0+SpeedModIncrement {
		t.Fatalf("speed modifier = %v, want %v", r.SpeedModifier, 1.0+SpeedModIncrement)
	}
}

func TestResolvePotatoHitsCostsOneLife(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 300, Y: 300}
	pt := NewPotato(p.Pos)
	r.Potatoes = []*Potato{pt}

	r.resolvePotatoHits(time.Now())
	if p.Lives != PlayerLives-1 {
		t.Fatalf("lives = %d, want exactly one lost", p.Lives)
	}
	// The respawn teleport plus fresh shield keeps the same contact from
	// draining another life next tick.
	r.resolvePotatoHits(time.Now())
	if p.Lives != PlayerLives-1 {
		t.Fatalf("lives = %d after second pass, contact drained extra lives", p.Lives)
	}
}

func TestResolvePotatoHitsShieldFreezesPotato(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 300, Y: 300}
	p.ShieldCooldown = ShieldCooldownMs
	pt := NewPotato(p.Pos)
	r.Potatoes = []*Potato{pt}
	now := time.Now()

	r.resolvePotatoHits(now)
	if p.Lives != PlayerLives {
		t.Fatalf("shielded player lost a life")
	}
	if !pt.Frozen(now) {
		t.Fatalf("potato not frozen by shield contact")
	}
}

func TestResolvePotatoHitsGhostIgnored(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 300, Y: 300}
	now := time.Now()
	p.GhostUntil = now.Add(time.Minute)
	pt := NewPotato(p.Pos)
	r.Potatoes = []*Potato{pt}

	r.resolvePotatoHits(now)
	if p.Lives != PlayerLives {
		t.Fatalf("ghosted player lost a life")
	}
	if pt.Frozen(now) {
		t.Fatalf("ghost contact froze the potato")
	}
}

func TestResolvePotatoHitsFrozenPotatoHarmless(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 300, Y: 300}
	now := time.Now()
	pt := NewPotato(p.Pos)
	pt.FrozenUntil = now.Add(time.Minute)
	r.Potatoes = []*Potato{pt}

	r.resolvePotatoHits(now)
	if p.Lives != PlayerLives {
		t.Fatalf("frozen potato dealt damage")
	}
}

func TestCheckWinWaitsForGracePeriod(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	other := addTestPlayer(r, "other")
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	other.Alive = false

	r.checkWin(r.RoundStart.Add(GracePeriod / 2))
	if r.State != RoomPlaying {
		t.Fatalf("round ended inside the grace period")
	}

	r.checkWin(r.RoundStart.Add(GracePeriod + time.Second))
	if r.State != RoomWaiting {
		t.Fatalf("round still running after grace period with one survivor")
	}
	if r.LastWinnerID != host.ID {
		t.Fatalf("winner = %s, want sole survivor %s", r.LastWinnerID, host.ID)
	}
}

func TestCheckWinSimultaneousEliminationUsesLastSurvivor(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	other := addTestPlayer(r, "other")
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// One tick with a single survivor records it, then everyone dies at once.
	other.Alive = false
	r.checkWin(r.RoundStart.Add(time.Second))
	host.Alive = false

	r.checkWin(r.RoundStart.Add(GracePeriod + time.Second))
	if r.LastWinnerID != host.ID {
		t.Fatalf("winner = %s, want last survivor %s", r.LastWinnerID, host.ID)
	}
}

func TestCheckWinFallsBackToHighestScore(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	other := addTestPlayer(r, "other")
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// No single-survivor tick ever happened.
	host.Alive = false
	other.Alive = false
	host.Score = 10
	other.Score = 30

	r.checkWin(r.RoundStart.Add(GracePeriod + time.Second))
	if r.LastWinnerID != other.ID {
		t.Fatalf("winner = %s, want highest score %s", r.LastWinnerID, other.ID)
	}
}

func TestHighestScoreTiesResolveToLowestID(t *testing.T) {
	r := newTestRoom()
	r.Players["b"] = &Player{ID: "b", Score: 50}
	r.Players["a"] = &Player{ID: "a", Score: 50}
	r.Players["c"] = &Player{ID: "c", Score: 10}

	if got := r.highestScoreID(); got != "a" {
		t.Fatalf("highestScoreID = %q, want lowest tied id \"a\"", got)
	}
}

func TestDesiredPotatoCountScalesWithScore(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")

	cases := []struct {
		score float64
		want  int
	}{
		{0, 1},
		{PotatoScoreThreshold - 1, 1},
		{PotatoScoreThreshold, 2},
		{PotatoScoreThreshold * 2, 3},
		{PotatoScoreThreshold * 10, MaxPotatoes},
	}
	for _, tc := range cases {
		p.Score = tc.score
		if got := r.desiredPotatoCount(); got != tc.want {
			t.Fatalf("score %v: potato count = %d, want %d", tc.score, got, tc.want)
		}
	}

	// Dead players do not drive difficulty.
	p.Score = PotatoScoreThreshold * 10
	p.Alive = false
	if got := r.desiredPotatoCount(); got != 1 {
		t.Fatalf("dead player score counted: potato count = %d, want 1", got)
	}
}

func TestNearestTargetSkipsUntargetable(t *testing.T) {
	r := newTestRoom()
	near := addTestPlayer(r, "near")
	far := addTestPlayer(r, "far")
	now := time.Now()

	pt := NewPotato(Vec2{X: 100, Y: 100})
	near.Pos = Vec2{X: 150, Y: 100}
	far.Pos = Vec2{X: 900, Y: 600}

	if got := r.nearestTargetID(pt, now); got != near.ID {
		t.Fatalf("target = %s, want nearest %s", got, near.ID)
	}

	near.StealthCooldown = StealthCooldownMs
	if got := r.nearestTargetID(pt, now); got != far.ID {
		t.Fatalf("target = %s, want %s while nearest is stealthed", got, far.ID)
	}

	far.GhostUntil = now.Add(time.Minute)
	if got := r.nearestTargetID(pt, now); got != "" {
		t.Fatalf("target = %q, want none with everyone untargetable", got)
	}
}

func TestNearestTargetDistanceTieLowestID(t *testing.T) {
	r := newTestRoom()
	r.Players["b"] = &Player{ID: "b", Pos: Vec2{X: 200, Y: 100}, Alive: true}
	r.Players["a"] = &Player{ID: "a", Pos: Vec2{X: 100, Y: 200}, Alive: true}

	pt := NewPotato(Vec2{X: 100, Y: 100})
	if got := r.nearestTargetID(pt, time.Now()); got != "a" {
		t.Fatalf("tied distances: target = %q, want lowest id \"a\"", got)
	}
}

func TestSpawnPowerupRespectsCap(t *testing.T) {
	r := newTestRoom()
	for i := 0; i < MaxPowerupCount; i++ {
		r.Powerups = append(r.Powerups, &Powerup{ID: newID()})
	}

	for i := 0; i < 1000; i++ {
		r.spawnPowerup(time.Now())
	}
	if len(r.Powerups) != MaxPowerupCount {
		t.Fatalf("powerup count = %d, want capped at %d", len(r.Powerups), MaxPowerupCount)
	}
}

func TestCollectPowerupReset(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 400, Y: 300}
	p.BoostCooldown = BoostCooldownMs
	p.SlimeCooldown = SlimeCooldownMs
	r.Powerups = []*Powerup{{ID: "pu", Type: PowerupReset, Pos: p.Pos, Radius: PowerupRadius}}

	r.collectPowerups(time.Now())
	if len(r.Powerups) != 0 {
		t.Fatalf("collected powerup not removed")
	}
	if p.BoostCooldown != 0 || p.SlimeCooldown != 0 {
		t.Fatalf("reset powerup left cooldowns at boost=%v slime=%v", p.BoostCooldown, p.SlimeCooldown)
	}
	if p.Score != PowerupScoreBonus {
		t.Fatalf("score = %v, want pickup bonus %v", p.Score, PowerupScoreBonus)
	}
}

func TestCollectPowerupFreezeHitsAllPotatoes(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 400, Y: 300}
	r.Potatoes = []*Potato{NewPotato(Vec2{X: 100, Y: 100}), NewPotato(Vec2{X: 900, Y: 600})}
	r.Powerups = []*Powerup{{ID: "pu", Type: PowerupFreeze, Pos: p.Pos, Radius: PowerupRadius}}
	now := time.Now()

	r.collectPowerups(now)
	for i, pt := range r.Potatoes {
		if !pt.Frozen(now) {
			t.Fatalf("potato %d not frozen by freeze powerup", i)
		}
	}
}

func TestCollectPowerupDeadPlayerCannotCollect(t *testing.T) {
	r := newTestRoom()
	p := addTestPlayer(r, "a")
	p.Pos = Vec2{X: 400, Y: 300}
	p.Alive = false
	r.Powerups = []*Powerup{{ID: "pu", Type: PowerupSpeed, Pos: p.Pos, Radius: PowerupRadius}}

	r.collectPowerups(time.Now())
	if len(r.Powerups) != 1 {
		t.Fatalf("dead player collected a powerup")
	}
}

func TestHandleInputClampsTargetAndIgnoresDead(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.HandleInput(host.ID, -500, 99999, "")
	if host.Target.X != host.Radius || host.Target.Y != ArenaHeight-host.Radius {
		t.Fatalf("target %+v not clamped to arena bounds", host.Target)
	}

	host.Alive = false
	prev := host.Target
	r.HandleInput(host.ID, 640, 360, "")
	if host.Target != prev {
		t.Fatalf("dead player's input applied")
	}

	// Unknown player ids are a silent no-op.
	r.HandleInput("nobody", 640, 360, "")
}

func TestUpdateRunsFullRoundToElimination(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	prey := addTestPlayer(r, "prey")
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Pin the prey on top of the potato with no lives to spare and keep the
	// host far away. Each update costs the prey its last life, so the round
	// resolves once the grace period is over.
	host.Pos = Vec2{X: 1200, Y: 650}
	host.Target = host.Pos
	prey.Lives = 1
	prey.Pos = r.Potatoes[0].Pos
	prey.Target = prey.Pos
	r.RoundStart = time.Now().Add(-GracePeriod - time.Second)

	for i := 0; i < 5*TickRate && r.State == RoomPlaying; i++ {
		r.update(time.Now())
	}

	if r.State != RoomWaiting {
		t.Fatalf("round never resolved, state = %s", r.State)
	}
	if prey.Alive {
		t.Fatalf("prey survived while pinned to the potato")
	}
	if r.LastWinnerID != host.ID {
		t.Fatalf("winner = %s, want %s", r.LastWinnerID, host.ID)
	}
}

func TestSequentialEliminationCrownsLastSurvivor(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	players := []*Player{host, addTestPlayer(r, "b"), addTestPlayer(r, "c"), addTestPlayer(r, "d")}
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Knock out the first three one at a time, checking the win state and
	// rubber-banding after each elimination.
	for i := 0; i < 3; i++ {
		p := players[i]
		p.Lives = 1
		r.damagePlayer(p)

		wantMod := 1.0 + float64(i+1)*SpeedModIncrement
		if math.Abs(r.SpeedModifier-wantMod) > 1e-9 {
			t.Fatalf("after %d eliminations speed modifier = %v, want %v", i+1, r.SpeedModifier, wantMod)
		}

		r.checkWin(r.RoundStart.Add(GracePeriod + time.Second))
		if i < 2 && r.State != RoomPlaying {
			t.Fatalf("round ended with %d players still alive", 4-(i+1))
		}
	}

	if r.State != RoomWaiting {
		t.Fatalf("round still running with one survivor")
	}
	if r.LastWinnerID != players[3].ID {
		t.Fatalf("winner = %s, want last survivor %s", r.LastWinnerID, players[3].ID)
	}
}

func TestJoinAfterRoomDestroyedIsRejected(t *testing.T) {
	m := NewRoomManager()
	room := m.CreateRoom("doomed", 1.0, 4, false)
	p, err := lockedAddPlayer(room, "a")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	// A late joiner resolved the room just before the last member left.
	stale, ok := m.GetRoom(room.ID)
	if !ok {
		t.Fatalf("room not resolvable before teardown")
	}

	var empty bool
	room.WithLock(func() { empty = room.RemovePlayer(p.ID) })
	if !empty {
		t.Fatalf("room not reported empty after last leave")
	}
	m.RemoveRoom(room.ID)

	// The join lands after teardown: it must fail instead of stranding the
	// player in a room with no tick loop.
	var joinErr error
	stale.WithLock(func() { _, joinErr = stale.AddPlayer(nil, "late", "#fff") })
	if joinErr != ErrRoomNotFound {
		t.Fatalf("join of destroyed room: err = %v, want ErrRoomNotFound", joinErr)
	}
	var startErr error
	stale.WithLock(func() { startErr = stale.StartGame("late") })
	if startErr == nil {
		t.Fatalf("start accepted in a destroyed room")
	}
}

func TestRemoveRoomKeepsRoomWhenJoinRacesIn(t *testing.T) {
	m := NewRoomManager()
	room := m.CreateRoom("contested", 1.0, 4, false)
	p, err := lockedAddPlayer(room, "a")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	var empty bool
	room.WithLock(func() { empty = room.RemovePlayer(p.ID) })
	if !empty {
		t.Fatalf("room not reported empty after last leave")
	}

	// A joiner slips in between the leave and the manager's RemoveRoom.
	joiner, err := lockedAddPlayer(room, "b")
	if err != nil {
		t.Fatalf("racing join: %v", err)
	}
	m.RemoveRoom(room.ID)

	if _, ok := m.GetRoom(room.ID); !ok {
		t.Fatalf("room destroyed out from under a joined player")
	}
	var closed bool
	var hostID string
	room.WithLock(func() { closed = room.closed; hostID = room.HostID })
	if closed {
		t.Fatalf("occupied room marked closed")
	}
	if hostID != joiner.ID {
		t.Fatalf("host = %q, want the racing joiner %s", hostID, joiner.ID)
	}

	room.WithLock(func() { room.RemovePlayer(joiner.ID) })
	m.RemoveRoom(room.ID)
	if _, ok := m.GetRoom(room.ID); ok {
		t.Fatalf("empty room survived removal")
	}
}

func TestEndRoundNotifiesLobby(t *testing.T) {
	r := newTestRoom()
	host := addTestPlayer(r, "host")
	other := addTestPlayer(r, "other")
	if err := r.StartGame(host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	notified := make(chan struct{}, 1)
	r.lobbyNotify = func() { notified <- struct{}{} }

	other.Alive = false
	r.checkWin(r.RoundStart.Add(GracePeriod + time.Second))
	if r.State != RoomWaiting {
		t.Fatalf("round did not end")
	}

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatalf("no lobby refresh after round end")
	}
}

func TestRoomManagerLifecycle(t *testing.T) {
	m := NewRoomManager()
	pub := m.CreateRoom("public", 1.0, 4, false)
	priv := m.CreateRoom("private", 1.0, 4, true)
	defer m.RemoveRoom(priv.ID)

	if _, ok := m.GetRoom(pub.ID); !ok {
		t.Fatalf("created room not found")
	}

	lobbies := m.ListLobbies()
	if len(lobbies) != 1 || lobbies[0].ID != pub.ID {
		t.Fatalf("lobby list = %+v, want only the public room", lobbies)
	}

	m.RemoveRoom(pub.ID)
	if _, ok := m.GetRoom(pub.ID); ok {
		t.Fatalf("removed room still resolvable")
	}
	if got := m.ListLobbies(); len(got) != 0 {
		t.Fatalf("lobby list after removal = %+v, want empty", got)
	}
}
