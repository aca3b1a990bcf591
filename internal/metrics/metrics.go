// Package metrics tracks the counters the core accumulates while running
// and logs them periodically, grounded on networking/server/server.go's
// ServerMetrics/logMetrics pair (spec §9 "structured, periodic metrics
// logging" — the ambient observability stack a Non-goal excluding a metrics
// *exporter* never excludes).
package metrics

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Counters holds the running totals the dispatcher updates as it works.
// AddMalformedFrames, AddDroppedFrames and AddUnknownPackets have no caller
// in this tree, so those three totals stay at zero; the transport and
// dispatcher keep their own drop counts. Every field is updated with sync/atomic so any goroutine may
// call the Add* methods without additional locking, the same way the
// teacher's ServerMetrics fields are atomic int64s behind free functions.
type Counters struct {
	packetsReceived int64
	packetsSent     int64
	bytesReceived   int64
	bytesSent       int64
	malformedFrames int64
	droppedFrames   int64
	unknownPackets  int64
	playersJoined   int64
	playersLeft     int64
	roomsCreated    int64
	ticksRun        int64
}

// NewCounters returns a zeroed Counters ready for concurrent use.
func NewCounters() *Counters { return &Counters{} }

func (c *Counters) AddPacketsReceived(n int64) { atomic.AddInt64(&c.packetsReceived, n) }
func (c *Counters) AddPacketsSent(n int64)      { atomic.AddInt64(&c.packetsSent, n) }
func (c *Counters) AddBytesReceived(n int64)    { atomic.AddInt64(&c.bytesReceived, n) }
func (c *Counters) AddBytesSent(n int64)        { atomic.AddInt64(&c.bytesSent, n) }
func (c *Counters) AddMalformedFrames(n int64)  { atomic.AddInt64(&c.malformedFrames, n) }
func (c *Counters) AddDroppedFrames(n int64)    { atomic.AddInt64(&c.droppedFrames, n) }
func (c *Counters) AddUnknownPackets(n int64)   { atomic.AddInt64(&c.unknownPackets, n) }
func (c *Counters) AddPlayerJoined()            { atomic.AddInt64(&c.playersJoined, 1) }
func (c *Counters) AddPlayerLeft()              { atomic.AddInt64(&c.playersLeft, 1) }
func (c *Counters) AddRoomCreated()             { atomic.AddInt64(&c.roomsCreated, 1) }
func (c *Counters) AddTickRun()                 { atomic.AddInt64(&c.ticksRun, 1) }

// Snapshot is a point-in-time, non-atomic copy of every counter, suitable
// for logging or exposing to a caller without holding the live fields open.
type Snapshot struct {
	PacketsReceived int64
	PacketsSent     int64
	BytesReceived   int64
	BytesSent       int64
	MalformedFrames int64
	DroppedFrames   int64
	UnknownPackets  int64
	PlayersJoined   int64
	PlayersLeft     int64
	RoomsCreated    int64
	TicksRun        int64
	Uptime          time.Duration
}

// Snapshot reads every counter and pairs it with uptime since start.
func (c *Counters) Snapshot(start time.Time) Snapshot {
	return Snapshot{
		PacketsReceived: atomic.LoadInt64(&c.packetsReceived),
		PacketsSent:     atomic.LoadInt64(&c.packetsSent),
		BytesReceived:   atomic.LoadInt64(&c.bytesReceived),
		BytesSent:       atomic.LoadInt64(&c.bytesSent),
		MalformedFrames: atomic.LoadInt64(&c.malformedFrames),
		DroppedFrames:   atomic.LoadInt64(&c.droppedFrames),
		UnknownPackets:  atomic.LoadInt64(&c.unknownPackets),
		PlayersJoined:   atomic.LoadInt64(&c.playersJoined),
		PlayersLeft:     atomic.LoadInt64(&c.playersLeft),
		RoomsCreated:    atomic.LoadInt64(&c.roomsCreated),
		TicksRun:        atomic.LoadInt64(&c.ticksRun),
		Uptime:          time.Since(start),
	}
}

// Log writes one human-readable metrics line, byte counts rendered via
// go-humanize the way the teacher's logMetrics renders them as raw KB
// divisions — humanize.Bytes picks the right unit instead of hardcoding one.
func (s Snapshot) Log(logger *log.Logger, activeSessions, activeRooms int) {
	if logger == nil {
		return
	}
	logger.Printf(
		"metrics uptime=%s sessions=%d rooms=%d recv=%d(%s) sent=%d(%s) malformed=%d dropped=%d unknown=%d joined=%d left=%d roomsCreated=%d ticks=%d",
		s.Uptime.Round(time.Second),
		activeSessions,
		activeRooms,
		s.PacketsReceived, humanize.Bytes(uint64(s.BytesReceived)),
		s.PacketsSent, humanize.Bytes(uint64(s.BytesSent)),
		s.MalformedFrames,
		s.DroppedFrames,
		s.UnknownPackets,
		s.PlayersJoined,
		s.PlayersLeft,
		s.RoomsCreated,
		s.TicksRun,
	)
}
