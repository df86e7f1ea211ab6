package main

import (
	"log"
	"time"
)

// ActivateAbility triggers one of the four abilities for a player.
// Activation requires the ability off cooldown and the player not silenced;
// anything else is silently ignored (stale or spammed key presses are
// normal, not errors).
func (r *Room) ActivateAbility(p *Player, key string, now time.Time) {
	if !p.Alive || p.Silenced {
		return
	}

	switch key {
	case AbilityBoost:
		if p.BoostCooldown > 0 {
			return
		}
		p.BoostCooldown = BoostCooldownMs
		p.SpeedBoostUntil = now.Add(BoostDuration)
	case AbilityShield:
		if p.ShieldCooldown > 0 {
			return
		}
		// The shield flag derives from the cooldown tail window, so
		// starting the cooldown is the whole activation.
		p.ShieldCooldown = ShieldCooldownMs
	case AbilityStealth:
		if p.StealthCooldown > 0 {
			return
		}
		p.StealthCooldown = StealthCooldownMs
	case AbilitySlime:
		if p.SlimeCooldown > 0 {
			return
		}
		p.SlimeCooldown = SlimeCooldownMs
		r.SlimeAreas = append(r.SlimeAreas, &SlimeArea{
			OwnerID:   p.ID,
			Pos:       p.Pos,
			Radius:    SlimeRadius,
			SpawnedAt: now,
			Duration:  SlimeDuration,
		})
	default:
		log.Printf("Player %s pressed unknown ability key %q", p.ID, key)
	}
}

// updateStatuses runs the status phase of the tick: decrement cooldowns,
// recompute hazard-derived flags, and derive the effective speed. This phase
// runs before movement so a speed override always applies to the tick that
// computed it.
func (r *Room) updateStatuses(now time.Time) {
	dtMs := TickSeconds * 1000

	for _, p := range r.Players {
		p.BoostCooldown = Clamp(p.BoostCooldown-dtMs, 0, BoostCooldownMs)
		p.ShieldCooldown = Clamp(p.ShieldCooldown-dtMs, 0, ShieldCooldownMs)
		p.StealthCooldown = Clamp(p.StealthCooldown-dtMs, 0, StealthCooldownMs)
		p.SlimeCooldown = Clamp(p.SlimeCooldown-dtMs, 0, SlimeCooldownMs)

		p.Slowed = false
		p.Silenced = false
		if p.Alive && r.inHostileSlime(p) {
			p.Slowed = true
			p.Silenced = true
			r.stripDefensiveStatuses(p)
		}

		speed := PlayerBaseSpeed
		if p.SpeedBoosted(now) {
			speed *= BoostMultiplier
		}
		if p.Slowed {
			speed *= SlimeSlowFactor
		}
		p.Speed = speed

		if p.Alive && r.State == RoomPlaying {
			p.Score += SurvivalScorePerSec * TickSeconds
		}
	}
}

// inHostileSlime reports whether the player stands inside any slime area it
// does not own
func (r *Room) inHostileSlime(p *Player) bool {
	for _, area := range r.SlimeAreas {
		if area.OwnerID != p.ID && area.Covers(p.Pos) {
			return true
		}
	}
	return false
}

// stripDefensiveStatuses drops shield, stealth, and ghost for a player
// caught in hostile slime. Cooldowns are floored just below their active
// tail window so the ability cannot be re-triggered the moment the player
// steps out.
func (r *Room) stripDefensiveStatuses(p *Player) {
	if p.Shielded() {
		p.ShieldCooldown = ShieldCooldownMs - ShieldWindowMs
	}
	if p.Stealthed() {
		p.StealthCooldown = StealthCooldownMs - StealthWindowMs
	}
	p.GhostUntil = time.Time{}
}

// expireSlimeAreas drops areas whose duration has passed. Expiry is a
// deadline comparison each tick, never a scheduled callback that could fire
// against a torn-down room.
func (r *Room) expireSlimeAreas(now time.Time) {
	active := r.SlimeAreas[:0]
	for _, area := range r.SlimeAreas {
		if !area.Expired(now) {
			active = append(active, area)
		}
	}
	r.SlimeAreas = active
}
