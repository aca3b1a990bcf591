package sim

import (
	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/protocol"
)

type waveProgress struct {
	spawned int
}

// levelState tracks one room's position in its configured level timeline
// (spec §4.F step 6, §6 configuration surface "per-level wave tables").
type levelState struct {
	index       int
	elapsed     float64
	waves       []waveProgress
	bossSpawned bool
}

func newLevelState() levelState {
	return levelState{}
}

func resetLevelProgress(index int) levelState {
	return levelState{index: index}
}

// CurrentLevelID returns the wire levelId of the room's current level, or
// 0 if the level table is exhausted or empty.
func (w *World) CurrentLevelID() uint8 {
	if w.level.index >= len(w.cfg.Levels) {
		return 0
	}
	return w.cfg.Levels[w.level.index].ID
}

// advanceLevel fires scheduled enemy spawns per the current level's wave
// table and spawns the boss once its spawn time arrives; ordinary spawns
// stop once the boss is present if the level marks StopsSpawnsOnArrival
// (spec §4.F step 6). Level-to-level transitions happen in World.Step when
// a boss is killed, not here.
func (w *World) advanceLevel(dt float64) {
	if w.level.index >= len(w.cfg.Levels) {
		return
	}
	lvl := w.cfg.Levels[w.level.index]
	if len(w.level.waves) != len(lvl.Waves) {
		w.level.waves = make([]waveProgress, len(lvl.Waves))
	}
	w.level.elapsed += dt

	if !(w.level.bossSpawned && lvl.Boss.StopsSpawnsOnArrival) {
		for i := range lvl.Waves {
			wave := lvl.Waves[i]
			prog := &w.level.waves[i]
			if prog.spawned >= wave.Count {
				continue
			}
			threshold := wave.TimeOffsetSeconds + float64(prog.spawned)*wave.IntervalSeconds
			if w.level.elapsed >= threshold {
				w.spawnMonster(wave.EnemyType)
				prog.spawned++
			}
		}
	}

	if !w.level.bossSpawned && w.level.elapsed >= lvl.Boss.SpawnTimeSeconds {
		w.spawnBoss(lvl.Boss)
		w.level.bossSpawned = true
	}
}

// spawnMonster creates a MONSTER entity of enemyType entering from the
// right edge of the movement bounds, at a PRNG-jittered height so waves
// don't all fly in on the same line (spec §8 "tick determinism" — jitter
// is drawn from the world's seeded PRNG, never time.Now/math/rand's
// global source).
func (w *World) spawnMonster(enemyType uint8) {
	bounds := w.cfg.MovementBounds
	y := bounds.MinY + w.rng.Float64()*(bounds.MaxY-bounds.MinY)

	e := &ServerEntity{
		ID:        w.allocID(),
		Kind:      protocol.KindMonster,
		X:         float32(bounds.MaxX + w.cfg.OOBMargin/2),
		Y:         float32(y),
		VX:        -float32(w.projectileSpeed("monster", 150) / 2),
		HP:        30,
		EnemyType: enemyType,
		Lifetime:  LifetimePermanent,
	}
	w.entities[e.ID] = e
	w.spawns = append(w.spawns, e.state())
}

// spawnBoss creates the level's single boss MONSTER entity, marked
// isBoss so its death triggers level advancement or GAME_VICTORY in
// addition to the ordinary kill credit (spec §4.F step 6, supplemented boss
// encounter).
func (w *World) spawnBoss(boss config.BossDef) {
	bounds := w.cfg.MovementBounds
	e := &ServerEntity{
		ID:        w.allocID(),
		Kind:      protocol.KindMonster,
		X:         float32(bounds.MaxX - w.cfg.OOBMargin),
		Y:         float32((bounds.MinY + bounds.MaxY) / 2),
		VX:        -float32(boss.Speed),
		HP:        clampHP(boss.HP),
		EnemyType: boss.EnemyType,
		Lifetime:  LifetimePermanent,
		isBoss:    true,
	}
	w.entities[e.ID] = e
	w.spawns = append(w.spawns, e.state())
}

func clampHP(hp int) uint8 {
	if hp <= 0 {
		return 1
	}
	if hp > 255 {
		return 255
	}
	return uint8(hp)
}
