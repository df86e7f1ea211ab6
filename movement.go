package main

// MoveCircleToward advances a circle toward target with the step capped at
// speed*dt, snapping when the remaining distance is under one step. The X
// component applies first and is kept only if the resulting circle stays
// in-bounds and outside every obstacle; Y then validates against the updated
// X. Rejecting axes independently is what produces wall sliding instead of a
// dead stop on diagonal contact.
//
// The server tick and the client-side predictor both run this exact rule.
func MoveCircleToward(pos, target Vec2, radius, speed, dt float64, obstacles []Obstacle) Vec2 {
	delta := target.Sub(pos)
	dist := delta.Length()
	if dist == 0 {
		return pos
	}

	step := speed * dt
	if dist <= step {
		step = dist
	}
	move := delta.Normalize().Mul(step)

	next := pos
	if move.X != 0 {
		candidate := Vec2{X: next.X + move.X, Y: next.Y}
		if !CircleBlocked(candidate, radius, obstacles) {
			next = candidate
		}
	}
	if move.Y != 0 {
		candidate := Vec2{X: next.X, Y: next.Y + move.Y}
		if !CircleBlocked(candidate, radius, obstacles) {
			next = candidate
		}
	}
	return next
}

// separationPush applies one half-overlap push to a circle, validating each
// axis against walls the same way movement does, so a push can never shove a
// player through an obstacle.
func separationPush(pos Vec2, push Vec2, radius float64, obstacles []Obstacle) Vec2 {
	next := pos
	if push.X != 0 {
		candidate := Vec2{X: next.X + push.X, Y: next.Y}
		if !CircleBlocked(candidate, radius, obstacles) {
			next = candidate
		}
	}
	if push.Y != 0 {
		candidate := Vec2{X: next.X, Y: next.Y + push.Y}
		if !CircleBlocked(candidate, radius, obstacles) {
			next = candidate
		}
	}
	return next
}

// SeparateCircles resolves one overlapping pair by pushing each circle half
// the overlap depth along the separating normal. Circles already at or past
// touching distance are left untouched. Coincident centers separate along a
// fixed axis so the push is still well-defined.
func SeparateCircles(a, b Vec2, ra, rb float64, obstacles []Obstacle) (Vec2, Vec2) {
	dist := Distance(a, b)
	overlap := ra + rb - dist
	if overlap <= 0 {
		return a, b
	}

	var normal Vec2
	if dist == 0 {
		normal = Vec2{X: 1, Y: 0}
	} else {
		normal = b.Sub(a).Mul(1 / dist)
	}

	half := normal.Mul(overlap / 2)
	newA := separationPush(a, half.Mul(-1), ra, obstacles)
	newB := separationPush(b, half, rb, obstacles)
	return newA, newB
}
