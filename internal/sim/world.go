package sim

import (
	"math/rand"
	"time"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/protocol"
)

// Events collects everything World.Step produced this tick, for the
// dispatcher to turn into outgoing packets. A zero-value Events means
// nothing happened.
type Events struct {
	Spawned      []protocol.EntityState
	Destroyed    []uint32
	DeadPlayers  []uint8 // playerIds whose PLAYER entity died in collision this tick
	LevelChanged bool
	NewLevelID   uint8
	GameOver     bool
	GameVictory  bool
	TotalScore   uint32
}

type playerInput struct {
	mask         uint8
	chargeLevel  uint8
	lastSeq      uint32
	lastSeqSet   bool
	receivedAt   time.Time
}

// World is one room's authoritative simulation: its entity table, per-player
// input/score bookkeeping, and level timeline. Grounded on the teacher's
// GameState/updateGameState, generalized from a single velocity-integration
// pass into the full per-type rule set, firing, and collision the
// specification requires (spec §4.F).
type World struct {
	cfg    config.Config
	roomID uint32

	entities map[uint32]*ServerEntity
	nextID   uint32

	players map[uint8]*playerInput
	scores  map[uint8]uint32

	rng *rand.Rand

	level levelState

	removals    []uint32
	spawns      []protocol.EntityState
	deadPlayers []uint8
}

// NewWorld returns an empty world for roomID. seed drives the spawner's
// jitter deterministically (spec §8 "tick determinism"): the same seed,
// config, and input sequence always produce the same entity history.
func NewWorld(cfg config.Config, roomID uint32, seed int64) *World {
	return &World{
		cfg:      cfg,
		roomID:   roomID,
		entities: make(map[uint32]*ServerEntity),
		players:  make(map[uint8]*playerInput),
		scores:   make(map[uint8]uint32),
		rng:      rand.New(rand.NewSource(seed)),
		level:    newLevelState(),
	}
}

func (w *World) allocID() uint32 {
	w.nextID++
	return w.nextID
}

// SpawnPlayer creates a PLAYER entity for playerID at its deterministic
// spawn offset (spec §4.I: spawnX fixed, spawnY = spawnYStart +
// index*spawnYStep, playerLine = index mod 5).
func (w *World) SpawnPlayer(playerID uint8, index int) protocol.EntityState {
	e := &ServerEntity{
		ID:            w.allocID(),
		Kind:          protocol.KindPlayer,
		X:             float32(w.cfg.PlayerSpawnX),
		Y:             float32(w.cfg.PlayerSpawnYStart + float64(index)*w.cfg.PlayerSpawnYStep),
		HP:            100,
		OwnerPlayerID: playerID,
		PlayerLine:    uint8(index % 5),
		Lifetime:      LifetimePermanent,
	}
	w.entities[e.ID] = e
	if _, ok := w.players[playerID]; !ok {
		w.players[playerID] = &playerInput{}
	}
	return e.state()
}

// RemovePlayer queues the PLAYER entity owned by playerID for removal, for
// disconnect/timeout cleanup (spec §4.D session sweep, §4.I).
func (w *World) RemovePlayer(playerID uint8) {
	for id, e := range w.entities {
		if e.Kind == protocol.KindPlayer && e.OwnerPlayerID == playerID {
			w.removals = append(w.removals, id)
			delete(w.entities, id)
		}
	}
	delete(w.players, playerID)
}

// ApplyInput records playerID's latest input, applying the CLIENT_INPUT
// idempotency rule: a sequence at or below the last one processed is
// dropped, never reapplied (spec §8 "input idempotency").
func (w *World) ApplyInput(playerID uint8, mask uint8, chargeLevel uint8, seq uint32, now time.Time) bool {
	pi, ok := w.players[playerID]
	if !ok {
		pi = &playerInput{}
		w.players[playerID] = pi
	}
	if pi.lastSeqSet && seq <= pi.lastSeq {
		return false
	}
	pi.mask = mask
	pi.chargeLevel = chargeLevel
	pi.lastSeq = seq
	pi.lastSeqSet = true
	pi.receivedAt = now
	return true
}

// LastProcessedSeq returns the highest inputSeq applied for playerID, for
// the snapshot emitter's PlayerInputAck (spec §4.G step 5).
func (w *World) LastProcessedSeq(playerID uint8) (uint32, bool) {
	pi, ok := w.players[playerID]
	if !ok || !pi.lastSeqSet {
		return 0, false
	}
	return pi.lastSeq, true
}

// Score returns playerID's current tally.
func (w *World) Score(playerID uint8) uint32 { return w.scores[playerID] }

// TotalScore sums every player's score, used for GAME_OVER/GAME_VICTORY
// payloads.
func (w *World) TotalScore() uint32 {
	var total uint32
	for _, s := range w.scores {
		total += s
	}
	return total
}

// Snapshot returns a value-copy wire state for every live entity, for the
// snapshot emitter's per-tick comparison against its cache.
func (w *World) Snapshot() []protocol.EntityState {
	out := make([]protocol.EntityState, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e.state())
	}
	return out
}

// AlivePlayers reports how many PLAYER entities currently exist.
func (w *World) AlivePlayers() int {
	n := 0
	for _, e := range w.entities {
		if e.Kind == protocol.KindPlayer {
			n++
		}
	}
	return n
}

// Step advances the world by one fixed tick of dt seconds (spec §4.F). now
// is the wall-clock time of this tick, used for the input prediction
// window. roomPlaying gates the spawner: it only advances while the room
// is in PLAYING.
func (w *World) Step(dt float64, now time.Time, roomPlaying bool) Events {
	// removals still holds what RemovePlayer queued since the last tick, so
	// those ids are reported in this tick's Destroyed list.
	w.spawns = w.spawns[:0]
	w.deadPlayers = w.deadPlayers[:0]

	w.integrate(dt, now)
	w.applyTypeRules(dt)
	victory := w.collide()
	w.applyRemovals()

	var ev Events
	if victory {
		if w.level.index+1 < len(w.cfg.Levels) {
			w.level = resetLevelProgress(w.level.index + 1)
			ev.LevelChanged = true
			ev.NewLevelID = w.CurrentLevelID()
		} else {
			ev.GameVictory = true
			ev.TotalScore = w.TotalScore()
		}
	} else if roomPlaying && w.AlivePlayers() == 0 && w.hadAnyPlayer() {
		ev.GameOver = true
		ev.TotalScore = w.TotalScore()
	} else if roomPlaying {
		w.advanceLevel(dt)
	}

	ev.Spawned = append(ev.Spawned, w.spawns...)
	ev.Destroyed = append(ev.Destroyed, w.removals...)
	w.removals = w.removals[:0]
	ev.DeadPlayers = append(ev.DeadPlayers, w.deadPlayers...)
	return ev
}

// hadAnyPlayer reports whether the world currently tracks any player slot
// (created by SpawnPlayer or ApplyInput, dropped by RemovePlayer), so
// GAME_OVER only fires once a round genuinely had players (and
// not, e.g., immediately after room creation before anyone spawned).
func (w *World) hadAnyPlayer() bool {
	return len(w.players) > 0
}
