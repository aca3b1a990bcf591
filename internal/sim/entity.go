// Package sim implements the authoritative per-room simulation: entity
// lifecycle, fixed-timestep integration, firing, collision, and the level
// spawner/timeline (spec §3 "ServerEntity", §4.F).
package sim

import "github.com/57ave/rtype-server/internal/protocol"

// LifetimePermanent marks an entity that never expires on its own; it is
// removed only by the collision pass, by leaving the out-of-bounds window,
// or (for a PLAYER) by RemovePlayer.
const LifetimePermanent = -1

// ServerEntity is one authoritative simulation object. Only a subset of
// fields is meaningful per Kind — see the per-type rules in applyTypeRules.
type ServerEntity struct {
	ID             uint32
	Kind           protocol.EntityKind
	X, Y           float32
	VX, VY         float32
	HP             uint8
	OwnerPlayerID  uint8
	PlayerLine     uint8
	FireTimer      float64
	Lifetime       float64 // seconds remaining; LifetimePermanent = never expires
	ChargeLevel    uint8
	EnemyType      uint8
	ProjectileType uint8

	// shieldTimer counts down the remaining duration of an active shield
	// powerup; ChargeLevel==ShieldChargeLevel is the wire-visible marker,
	// this is the server-only clock behind it.
	shieldTimer float64

	// isBoss is sim-internal bookkeeping, never serialized: it marks the
	// one MONSTER entity per level whose death, besides the ordinary kill
	// credit, advances to the next level or triggers GAME_VICTORY.
	isBoss bool
}

// ShieldChargeLevel is the chargeLevel sentinel that marks a player's
// shield powerup as active (spec §4.F step 4, POWERUP vs PLAYER).
const ShieldChargeLevel uint8 = 99

// Projectile type identifiers, keyed into config.Config.Projectiles by
// name (see World.projectileSpeed and World.projectileDamage).
const (
	ProjectileNormal  uint8 = 0
	ProjectileCharged uint8 = 1
	ProjectileMonster uint8 = 2
)

// state converts a ServerEntity into its wire EntityState. Used by the
// snapshot emitter and by ENTITY_SPAWN announcements.
func (e *ServerEntity) state() protocol.EntityState {
	return protocol.EntityState{
		ID:             e.ID,
		Type:           e.Kind,
		X:              e.X,
		Y:              e.Y,
		VX:             e.VX,
		VY:             e.VY,
		HP:             e.HP,
		PlayerID:       e.OwnerPlayerID,
		PlayerLine:     e.PlayerLine,
		ChargeLevel:    e.ChargeLevel,
		EnemyType:      e.EnemyType,
		ProjectileType: e.ProjectileType,
	}
}
