// Package config defines the configuration record the core consumes at
// start. The core never reads files itself (spec §6) — config.Config is a
// plain value type; internal/config only adds the YAML loader collaborator
// cmd/server uses to produce one.
package config

import "github.com/google/uuid"

// Vec2 is a 2D point or extent in world units.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned movement boundary, min inclusive, max inclusive.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether p lies within the rectangle.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Clamp returns p moved into the rectangle if it's outside it.
func (r Rect) Clamp(p Vec2) Vec2 {
	if p.X < r.MinX {
		p.X = r.MinX
	} else if p.X > r.MaxX {
		p.X = r.MaxX
	}
	if p.Y < r.MinY {
		p.Y = r.MinY
	} else if p.Y > r.MaxY {
		p.Y = r.MaxY
	}
	return p
}

// WaveEntry is one scheduled enemy spawn within a level's timeline.
type WaveEntry struct {
	TimeOffsetSeconds float64 `yaml:"timeOffsetSeconds"`
	EnemyType         uint8   `yaml:"enemyType"`
	Count             int     `yaml:"count"`
	IntervalSeconds   float64 `yaml:"intervalSeconds"`
}

// BossDef describes a level's boss encounter.
type BossDef struct {
	EnemyType         uint8   `yaml:"enemyType"`
	HP                int     `yaml:"hp"`
	Speed             float64 `yaml:"speed"`
	FireRateSeconds   float64 `yaml:"fireRateSeconds"`
	FirePattern       string  `yaml:"firePattern"`
	SpawnTimeSeconds  float64 `yaml:"spawnTimeSeconds"`
	// StopsSpawnsOnArrival, when true, means ordinary enemy spawns cease
	// once the boss is present (spec §4.F step 6).
	StopsSpawnsOnArrival bool `yaml:"stopsSpawnsOnArrival"`
}

// LevelDef is one playable level's wave table and boss.
type LevelDef struct {
	ID    uint8       `yaml:"id"`
	Waves []WaveEntry `yaml:"waves"`
	Boss  BossDef     `yaml:"boss"`
}

// ProjectileDef carries the per-type timings and damage used by the fire
// rules in spec §4.F.
type ProjectileDef struct {
	Speed  float64 `yaml:"speed"`
	Damage int     `yaml:"damage"`
}

// PowerupDef describes one pickup's effect and duration.
type PowerupDef struct {
	Kind            string  `yaml:"kind"`
	DurationSeconds float64 `yaml:"durationSeconds"`
}

// Config is the single record the core accepts at start. Nothing in this
// type is read from disk by the core itself; internal/config.LoadFile is a
// collaborator that produces one.
type Config struct {
	// InstanceID tags this server process for log correlation across
	// restarts. Never serialized on the wire.
	InstanceID uuid.UUID

	TickRate          int `yaml:"tickRate"`
	SnapshotRate      int `yaml:"snapshotRate"`
	UDPPort           int `yaml:"udpPort"`
	MinPlayersToStart int `yaml:"minPlayersToStart"`
	MaxPlayerShips    int `yaml:"maxPlayerShips"`

	PlayerSpawnX      float64 `yaml:"playerSpawnX"`
	PlayerSpawnYStart float64 `yaml:"playerSpawnYStart"`
	PlayerSpawnYStep  float64 `yaml:"playerSpawnYStep"`
	PlayerSpeed       float64 `yaml:"playerSpeed"`
	MovementBounds    Rect    `yaml:"movementBounds"`

	FireCooldownNormal  float64 `yaml:"fireCooldownNormal"`
	FireCooldownCharged float64 `yaml:"fireCooldownCharged"`
	OOBMargin           float64 `yaml:"oobMargin"`

	Projectiles map[string]ProjectileDef `yaml:"projectiles"`
	Powerups    map[string]PowerupDef    `yaml:"powerups"`
	Levels      []LevelDef               `yaml:"levels"`

	// SessionTimeout and PredictionSnapThreshold are tunables spec §9 calls
	// out explicitly ("keep it configurable") even though spec §4.D/§4.H
	// state their defaults as fixed numbers.
	SessionTimeoutSeconds    float64 `yaml:"sessionTimeoutSeconds"`
	PredictionSnapThresholdPx float64 `yaml:"predictionSnapThresholdPx"`
	PredictionWindowMs       int     `yaml:"predictionWindowMs"`
}

// Default returns a Config with the defaults named throughout spec.md,
// suitable as a base for a loaded file to override.
func Default() Config {
	return Config{
		InstanceID:        uuid.New(),
		TickRate:          60,
		SnapshotRate:      30,
		UDPPort:           4242,
		MinPlayersToStart: 1,
		MaxPlayerShips:    8,

		PlayerSpawnX:      200,
		PlayerSpawnYStart: 100,
		PlayerSpawnYStep:  80,
		PlayerSpeed:       500,
		MovementBounds:    Rect{MinX: 0, MinY: 0, MaxX: 1920, MaxY: 1080},

		FireCooldownNormal:  0.25,
		FireCooldownCharged: 1.0,
		OOBMargin:           64,

		Projectiles: map[string]ProjectileDef{
			"player_normal":  {Speed: 800, Damage: 10},
			"player_charged": {Speed: 900, Damage: 10}, // Damage is not read for player missiles
			"monster":        {Speed: 300, Damage: 10},
		},
		Powerups: map[string]PowerupDef{
			"shield": {Kind: "shield", DurationSeconds: 5},
		},

		SessionTimeoutSeconds:     5,
		PredictionSnapThresholdPx: 2,
		PredictionWindowMs:        200,
	}
}
