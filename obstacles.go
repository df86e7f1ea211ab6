package main

// Obstacle is a static axis-aligned rectangle. Obstacle sets are generated
// once per room and never change afterwards.
type Obstacle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the obstacle footprint as a Rect
func (o Obstacle) Rect() Rect {
	return Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
}

// GenerateObstacles scatters blocking rectangles around the arena.
// Two placement constraints hold for every accepted candidate: the arena
// center stays open (spawn and fallback respawn area), and any two obstacles
// keep at least ObstacleMinGap between them so no position becomes
// permanently unreachable.
func GenerateObstacles(count int) []Obstacle {
	obstacles := make([]Obstacle, 0, count)
	center := Vec2{X: ArenaWidth / 2, Y: ArenaHeight / 2}

	attempts := 0
	for len(obstacles) < count && attempts < PlacementAttempts {
		attempts++

		width := RandomFloat(ObstacleMinSize, ObstacleMaxSize)
		height := RandomFloat(ObstacleMinSize, ObstacleMaxSize)

		maxX := ArenaWidth - ObstacleSpawnMargin - width
		maxY := ArenaHeight - ObstacleSpawnMargin - height
		if maxX <= ObstacleSpawnMargin || maxY <= ObstacleSpawnMargin {
			break
		}

		candidate := Obstacle{
			ID:     newID(),
			X:      RandomFloat(ObstacleSpawnMargin, maxX),
			Y:      RandomFloat(ObstacleSpawnMargin, maxY),
			Width:  width,
			Height: height,
		}

		if CircleIntersectsRect(center, CenterExclusionRadius, candidate.Rect()) {
			continue
		}

		tooClose := false
		for _, obs := range obstacles {
			// Intersects pads both rectangles, so half the gap on each
			// side enforces exactly ObstacleMinGap between them.
			if candidate.Rect().Intersects(obs.Rect(), ObstacleMinGap/2) {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		obstacles = append(obstacles, candidate)
	}

	return obstacles
}

// CircleBlocked reports whether a circle at pos collides with the arena
// bounds or any obstacle. This is the single validity test behind movement,
// spawning, and pathfinding.
func CircleBlocked(pos Vec2, radius float64, obstacles []Obstacle) bool {
	if !CircleInBounds(pos, radius, ArenaWidth, ArenaHeight) {
		return true
	}
	for _, obs := range obstacles {
		if CircleIntersectsRect(pos, radius, obs.Rect()) {
			return true
		}
	}
	return false
}

// FindOpenPosition rejection-samples a position where a circle of the given
// radius fits, keeping clear of every potato by the safety margin. Falls back
// to the arena center, which the obstacle generator keeps open.
func FindOpenPosition(radius float64, obstacles []Obstacle, potatoes []*Potato, safeMargin float64) Vec2 {
	for i := 0; i < PlacementAttempts; i++ {
		pos := Vec2{
			X: RandomFloat(radius, ArenaWidth-radius),
			Y: RandomFloat(radius, ArenaHeight-radius),
		}
		if CircleBlocked(pos, radius, obstacles) {
			continue
		}
		clear := true
		for _, p := range potatoes {
			if Distance(pos, p.Pos) < safeMargin {
				clear = false
				break
			}
		}
		if clear {
			return pos
		}
	}
	return Vec2{X: ArenaWidth / 2, Y: ArenaHeight / 2}
}
