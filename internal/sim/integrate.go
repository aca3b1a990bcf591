package sim

import (
	"time"

	"github.com/57ave/rtype-server/internal/protocol"
)

// integrate runs the generic per-entity pass shared by every kind: lifetime
// expiry, position integration, and fire-timer/shield countdowns (spec
// §4.F step 2).
func (w *World) integrate(dt float64, now time.Time) {
	// PLAYER velocity for this tick is derived from whatever CLIENT_INPUT
	// was drained in step 1, before position integration, so an input's
	// effect on position is visible in the very tick it arrives (spec §8
	// scenario 4: 7 ticks of held input advance x by exactly 7*speed*dt,
	// not 6).
	w.applyPlayerVelocity(now)

	for id, e := range w.entities {
		if e.Lifetime != LifetimePermanent {
			e.Lifetime -= dt
			if e.Lifetime <= 0 {
				w.removals = append(w.removals, id)
				delete(w.entities, id)
				continue
			}
		}

		e.X += float32(float64(e.VX) * dt)
		e.Y += float32(float64(e.VY) * dt)

		if e.FireTimer > 0 {
			e.FireTimer -= dt
		}
		if e.shieldTimer > 0 {
			e.shieldTimer -= dt
			if e.shieldTimer <= 0 && e.ChargeLevel == ShieldChargeLevel {
				e.ChargeLevel = 0
			}
		}
	}

	w.clampPlayersAndFire(now)
}

// applyPlayerVelocity sets each PLAYER entity's velocity from its owner's
// latest input, persisting that input within a short prediction window so
// a momentary gap in CLIENT_INPUT packets doesn't stop the ship dead (spec
// §4.F step 3 "PLAYER"). It runs before the generic integration loop so
// the resulting movement is visible within the same tick the input
// arrived in.
func (w *World) applyPlayerVelocity(now time.Time) {
	window := time.Duration(w.cfg.PredictionWindowMs) * time.Millisecond
	speed := float32(w.cfg.PlayerSpeed)

	for _, e := range w.entities {
		if e.Kind != protocol.KindPlayer {
			continue
		}
		pi, ok := w.players[e.OwnerPlayerID]
		if !ok || !pi.lastSeqSet {
			e.VX, e.VY = 0, 0
			continue
		}

		mask := pi.mask
		if now.Sub(pi.receivedAt) > window {
			mask = 0
		}

		var vx, vy float32
		if mask&protocol.InputLeft != 0 {
			vx -= speed
		}
		if mask&protocol.InputRight != 0 {
			vx += speed
		}
		if mask&protocol.InputUp != 0 {
			vy -= speed
		}
		if mask&protocol.InputDown != 0 {
			vy += speed
		}
		e.VX, e.VY = vx, vy
	}
}

// clampPlayersAndFire runs after the generic integration pass: it clamps
// each PLAYER into the movement rectangle and fires a shot if the latest
// input's Fire bit is set and the cooldown has elapsed (spec §4.F step 3
// "PLAYER", "Firing rules").
func (w *World) clampPlayersAndFire(now time.Time) {
	window := time.Duration(w.cfg.PredictionWindowMs) * time.Millisecond
	bounds := w.cfg.MovementBounds

	for _, e := range w.entities {
		if e.Kind != protocol.KindPlayer {
			continue
		}

		if float64(e.X) < bounds.MinX {
			e.X = float32(bounds.MinX)
		} else if float64(e.X) > bounds.MaxX {
			e.X = float32(bounds.MaxX)
		}
		if float64(e.Y) < bounds.MinY {
			e.Y = float32(bounds.MinY)
		} else if float64(e.Y) > bounds.MaxY {
			e.Y = float32(bounds.MaxY)
		}

		pi, ok := w.players[e.OwnerPlayerID]
		if !ok || !pi.lastSeqSet {
			continue
		}
		mask := pi.mask
		if now.Sub(pi.receivedAt) > window {
			mask = 0
		}
		if mask&protocol.InputFire != 0 && e.FireTimer <= 0 {
			w.fire(e, pi.chargeLevel)
		}
	}
}

// fire spawns a PLAYER_MISSILE from e and resets its cooldown. A
// chargeLevel of 0 is a normal shot; any other value is a charged shot,
// which uses the charged cooldown and speed and carries chargeLevel on the
// missile (spec §4.F "Firing rules"). No damage value is applied for player
// missiles: a hit removes the MONSTER whatever the charge.
func (w *World) fire(e *ServerEntity, chargeLevel uint8) {
	projType := ProjectileNormal
	cooldown := w.cfg.FireCooldownNormal
	speed := w.projectileSpeed("player_normal", 800)
	if chargeLevel > 0 {
		projType = ProjectileCharged
		cooldown = w.cfg.FireCooldownCharged
		speed = w.projectileSpeed("player_charged", 900)
	}
	e.FireTimer = cooldown

	missile := &ServerEntity{
		ID:             w.allocID(),
		Kind:           protocol.KindPlayerMissile,
		X:              e.X,
		Y:              e.Y,
		VX:             float32(speed),
		OwnerPlayerID:  e.OwnerPlayerID,
		PlayerLine:     e.PlayerLine,
		ChargeLevel:    chargeLevel,
		ProjectileType: projType,
		Lifetime:       LifetimePermanent,
	}
	w.entities[missile.ID] = missile
	w.spawns = append(w.spawns, missile.state())
}

func (w *World) projectileSpeed(name string, fallback float64) float64 {
	if def, ok := w.cfg.Projectiles[name]; ok {
		return def.Speed
	}
	return fallback
}

func (w *World) projectileDamage(name string, fallback int) int {
	if def, ok := w.cfg.Projectiles[name]; ok {
		return def.Damage
	}
	return fallback
}

// applyTypeRules handles the remaining per-kind behavior not already
// covered by the generic integrate pass: OOB removal for missiles, and
// monster fire timers/OOB removal (spec §4.F step 3).
func (w *World) applyTypeRules(dt float64) {
	margin := float32(w.cfg.OOBMargin)
	bounds := w.cfg.MovementBounds

	outOfBounds := func(e *ServerEntity) bool {
		return float64(e.X) < bounds.MinX-float64(margin) ||
			float64(e.X) > bounds.MaxX+float64(margin) ||
			float64(e.Y) < bounds.MinY-float64(margin) ||
			float64(e.Y) > bounds.MaxY+float64(margin)
	}

	for id, e := range w.entities {
		switch e.Kind {
		case protocol.KindPlayerMissile, protocol.KindMonsterMissile:
			if outOfBounds(e) {
				w.removals = append(w.removals, id)
				delete(w.entities, id)
			}
		case protocol.KindMonster:
			onscreen := !outOfBounds(e)
			if onscreen && e.FireTimer <= 0 {
				w.monsterFire(e)
			}
			if outOfBounds(e) {
				w.removals = append(w.removals, id)
				delete(w.entities, id)
			}
		}
	}
}

// monsterFire spawns a MONSTER_MISSILE from e's position and resets its
// fire timer to a base interval (see bossFireRateFor) plus uniform jitter
// of up to half that base, drawn from the
// world's deterministic PRNG (spec §4.F step 3 "MONSTER", §8 "tick
// determinism").
func (w *World) monsterFire(e *ServerEntity) {
	base := w.bossFireRateFor(e)
	jitter := w.rng.Float64() * base * 0.5
	e.FireTimer = base + jitter

	speed := w.projectileSpeed("monster", 300)
	missile := &ServerEntity{
		ID:             w.allocID(),
		Kind:           protocol.KindMonsterMissile,
		X:              e.X,
		Y:              e.Y,
		VX:             -float32(speed),
		EnemyType:      e.EnemyType,
		ProjectileType: ProjectileMonster,
		Lifetime:       LifetimePermanent,
	}
	w.entities[missile.ID] = missile
	w.spawns = append(w.spawns, missile.state())
}

// bossFireRateFor returns the boss's configured fire rate when e is the
// current level's boss, otherwise a generic monster fire interval.
func (w *World) bossFireRateFor(e *ServerEntity) float64 {
	if e.isBoss && w.level.index < len(w.cfg.Levels) {
		if rate := w.cfg.Levels[w.level.index].Boss.FireRateSeconds; rate > 0 {
			return rate
		}
	}
	return 1.5
}
