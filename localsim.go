package main

import "time"

// RemoteEntity is the client-side view of an entity the local player does
// not control. Display chases Server by exponential smoothing each frame,
// snapping only on large divergence.
type RemoteEntity struct {
	Display Vec2
	Server  Vec2
}

// step advances the displayed position one frame
func (e *RemoteEntity) step() {
	if Distance(e.Display, e.Server) > RemoteSnapDistance {
		e.Display = e.Server
		return
	}
	e.Display = Lerp(e.Display, e.Server, RemoteLerpFactor)
}

// LocalSim is the client-side simulation: it predicts the local player with
// the same movement rule the server runs, interpolates everyone else, and
// reconciles against each authoritative snapshot. Rendering reads Display
// positions and the predicted self, never raw server state.
type LocalSim struct {
	PlayerID  string
	Obstacles []Obstacle

	// Predicted own avatar. Self carries the authoritative non-positional
	// fields (lives, score, cooldowns, statuses); Predicted is positional
	// and only yields to the server past the snap threshold.
	Predicted Vec2
	Target    Vec2
	Self      PlayerSnapshot
	Snapped   bool // true when the last snapshot forced a position snap

	Remotes  map[string]*RemoteEntity
	Potatoes []*RemoteEntity

	lastInputSent time.Time
}

// NewLocalSim creates a client simulation for one player
func NewLocalSim(playerID string, obstacles []Obstacle) *LocalSim {
	return &LocalSim{
		PlayerID:  playerID,
		Obstacles: obstacles,
		Remotes:   make(map[string]*RemoteEntity),
	}
}

// SetTarget records the locally captured movement intent
func (s *LocalSim) SetTarget(target Vec2) {
	s.Target = Vec2{
		X: Clamp(target.X, PlayerRadius, ArenaWidth-PlayerRadius),
		Y: Clamp(target.Y, PlayerRadius, ArenaHeight-PlayerRadius),
	}
}

// StepFrame runs one render frame: predict the local avatar immediately
// from local input, then ease every remote entity toward its latest server
// position. Frame rate is independent of the server tick.
func (s *LocalSim) StepFrame(dt float64) {
	if s.Self.Alive {
		s.Predicted = MoveCircleToward(s.Predicted, s.Target, PlayerRadius, s.Self.Speed, dt, s.Obstacles)
	}
	for _, e := range s.Remotes {
		e.step()
	}
	for _, e := range s.Potatoes {
		e.step()
	}
}

// ApplySnapshot reconciles against one authoritative snapshot. Applied at a
// frame boundary only; the network layer must not call it mid-frame.
func (s *LocalSim) ApplySnapshot(snap GameStatePayload) {
	seen := make(map[string]bool, len(snap.Players))
	for _, ps := range snap.Players {
		if ps.ID == s.PlayerID {
			s.reconcileSelf(ps)
			continue
		}
		seen[ps.ID] = true
		serverPos := Vec2{X: ps.X, Y: ps.Y}
		if e, ok := s.Remotes[ps.ID]; ok {
			e.Server = serverPos
		} else {
			s.Remotes[ps.ID] = &RemoteEntity{Display: serverPos, Server: serverPos}
		}
	}
	for id := range s.Remotes {
		if !seen[id] {
			delete(s.Remotes, id)
		}
	}

	// Potatoes carry no ids; match by index and snap newcomers.
	if len(s.Potatoes) > len(snap.Potatoes) {
		s.Potatoes = s.Potatoes[:len(snap.Potatoes)]
	}
	for i, pt := range snap.Potatoes {
		serverPos := Vec2{X: pt.X, Y: pt.Y}
		if i < len(s.Potatoes) {
			s.Potatoes[i].Server = serverPos
		} else {
			s.Potatoes = append(s.Potatoes, &RemoteEntity{Display: serverPos, Server: serverPos})
		}
	}

	if len(snap.Obstacles) > 0 {
		s.Obstacles = snap.Obstacles
	}
}

// reconcileSelf takes every non-positional field from the server and keeps
// the predicted position unless it diverged past the snap threshold. The
// bounded rubber-band this trades in is the price of zero input latency.
func (s *LocalSim) reconcileSelf(ps PlayerSnapshot) {
	serverPos := Vec2{X: ps.X, Y: ps.Y}
	wasAlive := s.Self.Alive
	s.Self = ps

	s.Snapped = false
	if !wasAlive || Distance(s.Predicted, serverPos) > ReconcileSnapDistance {
		// Mispredicted wall contact, packet loss, or a server respawn.
		s.Predicted = serverPos
		s.Target = serverPos
		s.Snapped = true
	}
}

// ShouldSendInput throttles outbound input to a fixed interval regardless
// of frame rate
func (s *LocalSim) ShouldSendInput(now time.Time) bool {
	if now.Sub(s.lastInputSent) < InputSendInterval {
		return false
	}
	s.lastInputSent = now
	return true
}
