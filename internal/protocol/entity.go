package protocol

// EntityKind enumerates the server-authoritative entity types carried on
// the wire in EntityState.Type (spec §3).
type EntityKind uint8

const (
	KindPlayer         EntityKind = 0
	KindPlayerMissile  EntityKind = 1
	KindMonster        EntityKind = 2
	KindMonsterMissile EntityKind = 3
	KindExplosion      EntityKind = 4
	KindPowerup        EntityKind = 5
	KindModule         EntityKind = 6
)

// EntityStateSize is the exact on-wire byte size of one EntityState record.
// Decoding reads records one at a time; a payload whose length isn't an
// exact multiple of this is not rejected as a whole.
const EntityStateSize = 4 + 1 + 4 + 4 + 4 + 4 + 1 + 1 + 1 + 1 + 1 + 1 // 27

// EntityState is the wire representation of one entity in a snapshot,
// spawn, or any other packet that carries entity data. Field order is part
// of the wire contract (spec §3) — never reorder these without bumping
// Version.
type EntityState struct {
	ID              uint32
	Type            EntityKind
	X, Y            float32
	VX, VY          float32
	HP              uint8
	PlayerID        uint8
	PlayerLine      uint8
	ChargeLevel     uint8
	EnemyType       uint8
	ProjectileType  uint8
}

// Encode writes the EntityState in its fixed 27-byte layout.
func (e EntityState) Encode(w *Writer) {
	w.U32(e.ID)
	w.U8(uint8(e.Type))
	w.F32(e.X)
	w.F32(e.Y)
	w.F32(e.VX)
	w.F32(e.VY)
	w.U8(e.HP)
	w.U8(e.PlayerID)
	w.U8(e.PlayerLine)
	w.U8(e.ChargeLevel)
	w.U8(e.EnemyType)
	w.U8(e.ProjectileType)
}

// DecodeEntityState reads one EntityState from r.
func DecodeEntityState(r *Reader) (EntityState, error) {
	var e EntityState
	var err error
	if e.ID, err = r.U32(); err != nil {
		return EntityState{}, err
	}
	typ, err := r.U8()
	if err != nil {
		return EntityState{}, err
	}
	e.Type = EntityKind(typ)
	if e.X, err = r.F32(); err != nil {
		return EntityState{}, err
	}
	if e.Y, err = r.F32(); err != nil {
		return EntityState{}, err
	}
	if e.VX, err = r.F32(); err != nil {
		return EntityState{}, err
	}
	if e.VY, err = r.F32(); err != nil {
		return EntityState{}, err
	}
	if e.HP, err = r.U8(); err != nil {
		return EntityState{}, err
	}
	if e.PlayerID, err = r.U8(); err != nil {
		return EntityState{}, err
	}
	if e.PlayerLine, err = r.U8(); err != nil {
		return EntityState{}, err
	}
	if e.ChargeLevel, err = r.U8(); err != nil {
		return EntityState{}, err
	}
	if e.EnemyType, err = r.U8(); err != nil {
		return EntityState{}, err
	}
	if e.ProjectileType, err = r.U8(); err != nil {
		return EntityState{}, err
	}
	return e, nil
}

// position/velocity epsilons used by the snapshot cache's change detection
// (spec §4.G). Exported so the cache and its tests share one definition.
const (
	PositionEpsilon = 0.05
	VelocityEpsilon = 0.01
)

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Equal reports whether e and other are indistinguishable for snapshot
// purposes: position and velocity compared with epsilon tolerance, every
// other field compared exactly.
func (e EntityState) Equal(other EntityState) bool {
	return e.ID == other.ID &&
		e.Type == other.Type &&
		absf(e.X-other.X) <= PositionEpsilon &&
		absf(e.Y-other.Y) <= PositionEpsilon &&
		absf(e.VX-other.VX) <= VelocityEpsilon &&
		absf(e.VY-other.VY) <= VelocityEpsilon &&
		e.HP == other.HP &&
		e.PlayerID == other.PlayerID &&
		e.PlayerLine == other.PlayerLine &&
		e.ChargeLevel == other.ChargeLevel &&
		e.EnemyType == other.EnemyType &&
		e.ProjectileType == other.ProjectileType
}
