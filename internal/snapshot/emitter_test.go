package snapshot

import (
	"testing"
	"time"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/protocol"
	"github.com/57ave/rtype-server/internal/sim"
)

func TestBuildFirstTickIsFullAndIncludesAck(t *testing.T) {
	cfg := config.Default()
	w := sim.NewWorld(cfg, 1, 1)
	w.SpawnPlayer(1, 0)
	w.ApplyInput(1, protocol.InputRight, 0, 7, time.Now())

	e := NewEmitter()
	frame, ok, err := e.Build(w, []uint8{1}, 1000, false)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !ok {
		t.Fatalf("expected the first Build call to send a frame")
	}

	h, payload, err := protocol.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	if h.Type != protocol.EntityUpdate {
		t.Errorf("header.Type = %v, want EntityUpdate", h.Type)
	}

	r := protocol.NewReader(payload)
	sh, err := protocol.DecodeSnapshotHeader(r)
	if err != nil {
		t.Fatalf("DecodeSnapshotHeader error: %v", err)
	}
	if sh.EntityCount != 1 {
		t.Errorf("EntityCount = %d, want 1", sh.EntityCount)
	}
	if sh.PlayerAckCount != 1 {
		t.Errorf("PlayerAckCount = %d, want 1", sh.PlayerAckCount)
	}

	ack, err := protocol.DecodePlayerInputAck(r)
	if err != nil {
		t.Fatalf("DecodePlayerInputAck error: %v", err)
	}
	if ack.PlayerID != 1 || ack.LastProcessedInputSeq != 7 {
		t.Errorf("ack = %+v, want {PlayerID:1 LastProcessedInputSeq:7}", ack)
	}
}

func TestBuildSkipsSendWhenNothingChanged(t *testing.T) {
	cfg := config.Default()
	w := sim.NewWorld(cfg, 1, 1)
	w.SpawnPlayer(1, 0)

	e := NewEmitter()
	if _, ok, _ := e.Build(w, []uint8{1}, 1000, false); !ok {
		t.Fatalf("expected the first Build call to send")
	}

	// No input, no stepping: nothing in the world changed, so the second
	// call with the same live state should send nothing.
	_, ok, err := e.Build(w, []uint8{1}, 1001, false)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if ok {
		t.Errorf("expected no frame to be sent when no entity changed")
	}
}

func TestBuildForceFullNextResendsEverything(t *testing.T) {
	cfg := config.Default()
	w := sim.NewWorld(cfg, 1, 1)
	w.SpawnPlayer(1, 0)

	e := NewEmitter()
	e.Build(w, []uint8{1}, 1000, false)
	e.ForceFullNext()

	_, ok, err := e.Build(w, []uint8{1}, 1001, false)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !ok {
		t.Errorf("expected a forced full send even with no changes")
	}
}

func TestBuildExcludesExplosionsFromDeltaStream(t *testing.T) {
	// A stationary boss (speed 0, fixed spawn position) and a missile fired
	// straight at it collide deterministically after enough ticks, leaving
	// an EXPLOSION entity behind. The emitter must never put it on the wire.
	cfg := config.Default()
	cfg.PlayerSpawnYStart = 540
	cfg.PlayerSpawnYStep = 0
	cfg.Levels = []config.LevelDef{
		{ID: 1, Boss: config.BossDef{EnemyType: 9, HP: 10, SpawnTimeSeconds: 0, Speed: 0}},
	}
	w := sim.NewWorld(cfg, 1, 1)
	w.SpawnPlayer(1, 0)

	dt := 1.0 / float64(cfg.TickRate)
	now := time.Now()
	w.ApplyInput(1, protocol.InputFire, 0, 1, now)

	e := NewEmitter()
	sawExplosion := false
	for tick := 0; tick < 300 && !sawExplosion; tick++ {
		w.Step(dt, now, true)
		now = now.Add(time.Duration(dt * float64(time.Second)))

		for _, s := range w.Snapshot() {
			if s.Type == protocol.KindExplosion {
				sawExplosion = true
			}
		}

		frame, ok, err := e.Build(w, []uint8{1}, uint32(tick), false)
		if err != nil {
			t.Fatalf("Build error: %v", err)
		}
		if !ok {
			continue
		}
		_, payload, err := protocol.DecodeFrame(frame)
		if err != nil {
			t.Fatalf("DecodeFrame error: %v", err)
		}
		r := protocol.NewReader(payload)
		sh, err := protocol.DecodeSnapshotHeader(r)
		if err != nil {
			t.Fatalf("DecodeSnapshotHeader error: %v", err)
		}
		for i := uint32(0); i < sh.PlayerAckCount; i++ {
			if _, err := protocol.DecodePlayerInputAck(r); err != nil {
				t.Fatalf("DecodePlayerInputAck error: %v", err)
			}
		}
		for i := uint32(0); i < sh.EntityCount; i++ {
			es, err := protocol.DecodeEntityState(r)
			if err != nil {
				t.Fatalf("DecodeEntityState error: %v", err)
			}
			if es.Type == protocol.KindExplosion {
				t.Fatalf("ENTITY_UPDATE payload contained an EXPLOSION entity")
			}
		}
	}

	if !sawExplosion {
		t.Fatalf("expected the missile and stationary boss to collide within 300 ticks")
	}
}

func TestEncodeSpawnAndDestroyRoundTrip(t *testing.T) {
	state := protocol.EntityState{ID: 42, Type: protocol.KindMonster, X: 1, Y: 2}
	frame, err := EncodeSpawn(state, 5, 1234)
	if err != nil {
		t.Fatalf("EncodeSpawn error: %v", err)
	}
	h, payload, err := protocol.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	if h.Type != protocol.EntitySpawn {
		t.Errorf("header.Type = %v, want EntitySpawn", h.Type)
	}
	got, err := protocol.DecodeEntityState(protocol.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeEntityState error: %v", err)
	}
	if got.ID != 42 || got.Type != protocol.KindMonster {
		t.Errorf("got = %+v, want ID 42 KindMonster", got)
	}

	destroyFrame, err := EncodeDestroy(42, 6, 1234)
	if err != nil {
		t.Fatalf("EncodeDestroy error: %v", err)
	}
	h2, payload2, err := protocol.DecodeFrame(destroyFrame)
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	if h2.Type != protocol.EntityDestroy {
		t.Errorf("header.Type = %v, want EntityDestroy", h2.Type)
	}
	dp, err := protocol.DecodeEntityDestroy(protocol.NewReader(payload2))
	if err != nil {
		t.Fatalf("DecodeEntityDestroy error: %v", err)
	}
	if dp.EntityID != 42 {
		t.Errorf("EntityID = %d, want 42", dp.EntityID)
	}
}
