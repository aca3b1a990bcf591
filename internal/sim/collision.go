package sim

import (
	"github.com/57ave/rtype-server/internal/protocol"
)

// hitRadius is the naive all-pairs collision radius shared by every pair
// tested. The specification bounds entity counts by spawn/screen limits
// rather than naming per-type hitboxes, so one radius keeps the pass
// simple and cheap, matching "naive all-pairs" (spec §4.F step 4).
const hitRadius = 32.0

// scorePerMonsterKill and monsterContactDamage aren't part of the
// configuration surface spec §6 enumerates (no per-monster score value or
// contact-damage field is named there); they're fixed constants here
// rather than invented config fields.
const (
	scorePerMonsterKill  = 100
	monsterContactDamage = 20
)

func dist2(ax, ay, bx, by float32) float64 {
	dx := float64(ax - bx)
	dy := float64(ay - by)
	return dx*dx + dy*dy
}

func overlapping(a, b *ServerEntity) bool {
	return dist2(a.X, a.Y, b.X, b.Y) <= hitRadius*hitRadius
}

// collide runs the naive all-pairs collision pass (spec §4.F step 4) and
// reports whether the level's boss was killed this tick (level advance or
// GAME_VICTORY).
func (w *World) collide() bool {
	dead := make(map[uint32]bool)
	victory := false

	type key struct{ a, b uint32 }
	seen := make(map[key]bool)

	for idA, a := range w.entities {
		for idB, b := range w.entities {
			if idA >= idB {
				continue
			}
			k := key{idA, idB}
			if seen[k] {
				continue
			}
			seen[k] = true

			if dead[idA] || dead[idB] {
				continue
			}
			if !overlapping(a, b) {
				continue
			}

			switch {
			case a.Kind == protocol.KindPlayerMissile && b.Kind == protocol.KindMonster:
				victory = victory || w.killMonsterByMissile(a, b, dead)
			case b.Kind == protocol.KindPlayerMissile && a.Kind == protocol.KindMonster:
				victory = victory || w.killMonsterByMissile(b, a, dead)

			case a.Kind == protocol.KindMonsterMissile && b.Kind == protocol.KindPlayer:
				w.hitPlayerWithMissile(a, b, dead)
			case b.Kind == protocol.KindMonsterMissile && a.Kind == protocol.KindPlayer:
				w.hitPlayerWithMissile(b, a, dead)

			case a.Kind == protocol.KindMonster && b.Kind == protocol.KindPlayer:
				w.monsterContact(a, b, dead)
			case b.Kind == protocol.KindMonster && a.Kind == protocol.KindPlayer:
				w.monsterContact(b, a, dead)

			case a.Kind == protocol.KindPowerup && b.Kind == protocol.KindPlayer:
				w.collectPowerup(a, b, dead)
			case b.Kind == protocol.KindPowerup && a.Kind == protocol.KindPlayer:
				w.collectPowerup(b, a, dead)
			}
		}
	}

	for id := range dead {
		w.removals = append(w.removals, id)
	}

	return victory
}

func (w *World) killMonsterByMissile(missile, monster *ServerEntity, dead map[uint32]bool) (victory bool) {
	dead[missile.ID] = true
	dead[monster.ID] = true
	w.spawnExplosion(monster.X, monster.Y, 0.5)
	w.scores[missile.OwnerPlayerID] += scorePerMonsterKill
	return monster.isBoss
}

func (w *World) hitPlayerWithMissile(missile, player *ServerEntity, dead map[uint32]bool) {
	dead[missile.ID] = true
	dmg := w.projectileDamage("monster", 10)
	applyDamage(player, dmg)
	w.spawnExplosion(missile.X, missile.Y, 0.3)
	if player.HP == 0 {
		dead[player.ID] = true
		w.deadPlayers = append(w.deadPlayers, player.OwnerPlayerID)
	}
}

func (w *World) monsterContact(monster, player *ServerEntity, dead map[uint32]bool) {
	dead[monster.ID] = true
	applyDamage(player, monsterContactDamage)
	w.spawnExplosion(player.X, player.Y, 0.3)
	if player.HP == 0 {
		dead[player.ID] = true
		w.deadPlayers = append(w.deadPlayers, player.OwnerPlayerID)
	}
}

func (w *World) collectPowerup(powerup, player *ServerEntity, dead map[uint32]bool) {
	dead[powerup.ID] = true
	def, ok := w.cfg.Powerups["shield"]
	duration := 5.0
	if ok {
		duration = def.DurationSeconds
	}
	player.ChargeLevel = ShieldChargeLevel
	player.shieldTimer = duration
}

func applyDamage(e *ServerEntity, dmg int) {
	if dmg < 0 {
		dmg = 0
	}
	if int(e.HP) <= dmg {
		e.HP = 0
	} else {
		e.HP -= uint8(dmg)
	}
}

// spawnExplosion creates a pure-lifetime EXPLOSION entity at (x, y),
// announced via ENTITY_SPAWN and later removed by lifetime expiry (spec
// §3 "ServerEntity" EXPLOSION, §4.G "excluded from snapshots").
func (w *World) spawnExplosion(x, y float32, lifetime float64) {
	e := &ServerEntity{
		ID:       w.allocID(),
		Kind:     protocol.KindExplosion,
		X:        x,
		Y:        y,
		Lifetime: lifetime,
	}
	w.entities[e.ID] = e
	w.spawns = append(w.spawns, e.state())
}

// applyRemovals deletes every dead entity queued this tick. Entities
// removed earlier in the tick (lifetime expiry, OOB) were already deleted
// from the map directly; this only needs to cover the collision pass's
// map-iteration-safe deferred deletes.
func (w *World) applyRemovals() {
	seen := make(map[uint32]bool, len(w.removals))
	deduped := w.removals[:0]
	for _, id := range w.removals {
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
		delete(w.entities, id)
	}
	w.removals = deduped
}
