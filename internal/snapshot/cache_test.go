package snapshot

import (
	"testing"

	"github.com/57ave/rtype-server/internal/protocol"
)

func TestDiffFirstCallReportsEverything(t *testing.T) {
	c := NewCache()
	live := []protocol.EntityState{
		{ID: 1, Type: protocol.KindPlayer, X: 10},
		{ID: 2, Type: protocol.KindMonster, X: 20},
	}

	changed := c.Diff(live, false)
	if len(changed) != 2 {
		t.Fatalf("len(changed) = %d, want 2 on first call", len(changed))
	}
}

func TestDiffOmitsUnchangedEntities(t *testing.T) {
	c := NewCache()
	live := []protocol.EntityState{{ID: 1, Type: protocol.KindPlayer, X: 10, Y: 10}}
	c.Diff(live, false)

	changed := c.Diff(live, false)
	if len(changed) != 0 {
		t.Errorf("len(changed) = %d, want 0 for an unchanged entity", len(changed))
	}
}

func TestDiffReportsEntityBeyondEpsilon(t *testing.T) {
	c := NewCache()
	c.Diff([]protocol.EntityState{{ID: 1, Type: protocol.KindPlayer, X: 10}}, false)

	moved := []protocol.EntityState{{ID: 1, Type: protocol.KindPlayer, X: 10 + protocol.PositionEpsilon*2}}
	changed := c.Diff(moved, false)
	if len(changed) != 1 {
		t.Errorf("len(changed) = %d, want 1 once X moves beyond epsilon", len(changed))
	}
}

func TestDiffIgnoresSubEpsilonJitter(t *testing.T) {
	c := NewCache()
	c.Diff([]protocol.EntityState{{ID: 1, Type: protocol.KindPlayer, X: 10}}, false)

	jittered := []protocol.EntityState{{ID: 1, Type: protocol.KindPlayer, X: 10 + protocol.PositionEpsilon/2}}
	changed := c.Diff(jittered, false)
	if len(changed) != 0 {
		t.Errorf("len(changed) = %d, want 0 for sub-epsilon movement", len(changed))
	}
}

func TestDiffFullIgnoresCache(t *testing.T) {
	c := NewCache()
	live := []protocol.EntityState{{ID: 1, Type: protocol.KindPlayer, X: 10}}
	c.Diff(live, false)

	changed := c.Diff(live, true)
	if len(changed) != 1 {
		t.Errorf("len(changed) = %d, want 1 when full is forced", len(changed))
	}
}

func TestDiffPrunesEntitiesNoLongerLive(t *testing.T) {
	c := NewCache()
	c.Diff([]protocol.EntityState{
		{ID: 1, Type: protocol.KindPlayer},
		{ID: 2, Type: protocol.KindMonster},
	}, false)

	if len(c.last) != 2 {
		t.Fatalf("cache has %d entries, want 2", len(c.last))
	}

	c.Diff([]protocol.EntityState{{ID: 1, Type: protocol.KindPlayer}}, false)
	if _, ok := c.last[2]; ok {
		t.Errorf("expected entity 2 pruned from cache once it left the live set")
	}
}

func TestResetForcesFullNextDiff(t *testing.T) {
	c := NewCache()
	live := []protocol.EntityState{{ID: 1, Type: protocol.KindPlayer, X: 10}}
	c.Diff(live, false)
	c.Reset()

	changed := c.Diff(live, false)
	if len(changed) != 1 {
		t.Errorf("len(changed) = %d, want 1 right after Reset", len(changed))
	}
}
