package metrics

import (
	"testing"
	"time"
)

func TestCountersAccumulate(t *testing.T) {
	c := NewCounters()
	c.AddPacketsReceived(3)
	c.AddBytesReceived(512)
	c.AddPlayerJoined()
	c.AddPlayerJoined()
	c.AddPlayerLeft()
	c.AddRoomCreated()
	c.AddTickRun()

	snap := c.Snapshot(time.Now().Add(-2 * time.Second))
	if snap.PacketsReceived != 3 {
		t.Errorf("PacketsReceived = %d, want 3", snap.PacketsReceived)
	}
	if snap.BytesReceived != 512 {
		t.Errorf("BytesReceived = %d, want 512", snap.BytesReceived)
	}
	if snap.PlayersJoined != 2 {
		t.Errorf("PlayersJoined = %d, want 2", snap.PlayersJoined)
	}
	if snap.PlayersLeft != 1 {
		t.Errorf("PlayersLeft = %d, want 1", snap.PlayersLeft)
	}
	if snap.RoomsCreated != 1 {
		t.Errorf("RoomsCreated = %d, want 1", snap.RoomsCreated)
	}
	if snap.TicksRun != 1 {
		t.Errorf("TicksRun = %d, want 1", snap.TicksRun)
	}
	if snap.Uptime < 2*time.Second {
		t.Errorf("Uptime = %v, want at least 2s", snap.Uptime)
	}
}

func TestLogNilLoggerIsNoop(t *testing.T) {
	snap := Snapshot{}
	snap.Log(nil, 0, 0) // must not panic
}
