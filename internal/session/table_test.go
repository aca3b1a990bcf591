package session

import (
	"net"
	"testing"
	"time"
)

func addr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
}

func TestGetOrCreateAssignsMonotonicPlayerIDs(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	s1, created1 := tbl.GetOrCreate(addr(1000), now)
	if !created1 {
		t.Fatalf("expected first GetOrCreate to create a session")
	}
	if s1.PlayerID != 1 {
		t.Errorf("PlayerID = %d, want 1", s1.PlayerID)
	}

	s2, created2 := tbl.GetOrCreate(addr(1001), now)
	if !created2 {
		t.Fatalf("expected second distinct endpoint to create a session")
	}
	if s2.PlayerID != 2 {
		t.Errorf("PlayerID = %d, want 2", s2.PlayerID)
	}

	s1Again, created3 := tbl.GetOrCreate(addr(1000), now.Add(time.Second))
	if created3 {
		t.Errorf("expected repeat endpoint to not create a new session")
	}
	if s1Again.PlayerID != s1.PlayerID {
		t.Errorf("repeat lookup returned a different PlayerID: %d != %d", s1Again.PlayerID, s1.PlayerID)
	}
	if !s1Again.LastPacketTime.Equal(now.Add(time.Second)) {
		t.Errorf("GetOrCreate on a hit should refresh LastPacketTime")
	}
}

func TestTouchUpdatesSequenceAndClock(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	a := addr(2000)
	tbl.GetOrCreate(a, now)

	later := now.Add(3 * time.Second)
	tbl.Touch(a, later, 42)

	s, ok := tbl.Get(a)
	if !ok {
		t.Fatalf("expected session to exist after Touch")
	}
	if s.LastClientSequence != 42 {
		t.Errorf("LastClientSequence = %d, want 42", s.LastClientSequence)
	}
	if !s.LastPacketTime.Equal(later) {
		t.Errorf("LastPacketTime not refreshed by Touch")
	}
}

func TestTouchOnUnknownEndpointIsNoop(t *testing.T) {
	tbl := NewTable()
	tbl.Touch(addr(3000), time.Now(), 1) // must not panic
	if tbl.Len() != 0 {
		t.Errorf("Touch must not create a session for an unknown endpoint")
	}
}

func TestRemove(t *testing.T) {
	tbl := NewTable()
	a := addr(4000)
	tbl.GetOrCreate(a, time.Now())
	tbl.Remove(a)

	if _, ok := tbl.Get(a); ok {
		t.Errorf("expected session to be gone after Remove")
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
}

func TestSweepTimeoutsRemovesOnlyStaleSessions(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	fresh := addr(5000)
	stale := addr(5001)
	tbl.GetOrCreate(fresh, now)
	tbl.GetOrCreate(stale, now.Add(-10*time.Second))

	removed := tbl.SweepTimeouts(now, 5*time.Second)
	if len(removed) != 1 {
		t.Fatalf("expected exactly 1 session swept, got %d", len(removed))
	}
	if removed[0].Endpoint.Port != stale.Port {
		t.Errorf("swept the wrong session: %+v", removed[0])
	}
	if _, ok := tbl.Get(fresh); !ok {
		t.Errorf("fresh session should survive the sweep")
	}
	if _, ok := tbl.Get(stale); ok {
		t.Errorf("stale session should have been removed")
	}
}

func TestSetRoomAndByPlayerID(t *testing.T) {
	tbl := NewTable()
	a := addr(6000)
	s, _ := tbl.GetOrCreate(a, time.Now())

	tbl.SetRoom(a, 7)
	got, ok := tbl.Get(a)
	if !ok || got.RoomID != 7 {
		t.Fatalf("expected RoomID 7, got %+v", got)
	}

	found, ok := tbl.ByPlayerID(s.PlayerID)
	if !ok {
		t.Fatalf("expected to find session by PlayerID %d", s.PlayerID)
	}
	if found.Endpoint.Port != a.Port {
		t.Errorf("ByPlayerID returned wrong session: %+v", found)
	}

	if _, ok := tbl.ByPlayerID(255); ok {
		t.Errorf("expected no session for an unused PlayerID")
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	tbl := NewTable()
	a := addr(7000)
	tbl.GetOrCreate(a, time.Now())

	snap := tbl.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 session in snapshot, got %d", len(snap))
	}
	snap[0].RoomID = 99

	s, _ := tbl.Get(a)
	if s.RoomID == 99 {
		t.Errorf("mutating a Snapshot copy must not affect the live table")
	}
}
