// Package dispatch ties the session table, room manager, per-room
// simulation, and snapshot emitters together into the single server-side
// entry point: one goroutine drains inbound packets and advances every
// playing room's world, exactly as spec §5 describes the simulation
// thread (grounded on networking/server/server.go's processMessage/tick
// pair, generalized from one flat switch plus ad hoc locking into a
// Server type that owns no lock of its own — every piece it touches
// already owns its own).
package dispatch

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/metrics"
	"github.com/57ave/rtype-server/internal/protocol"
	"github.com/57ave/rtype-server/internal/room"
	"github.com/57ave/rtype-server/internal/session"
	"github.com/57ave/rtype-server/internal/sim"
	"github.com/57ave/rtype-server/internal/snapshot"
)

// Server is the single point where sessions, rooms, per-room simulations,
// and snapshot emitters meet. Every method here is meant to be called from
// one goroutine (the simulation/tick goroutine spec §5 describes); the
// worlds/emitters maps have no lock of their own, the same way the sim
// package's entity table is "owned solely by the simulation thread" (spec
// §5 "Shared-resource policy").
type Server struct {
	cfg       config.Config
	transport *session.Transport
	sessions  *session.Table
	rooms     *room.Manager
	logger    *log.Logger

	worlds   map[uint32]*sim.World
	emitters map[uint32]*snapshot.Emitter

	// Metrics is optional; every counting call site checks it for nil
	// first, so a caller that doesn't care about metrics can leave it unset
	// (the dispatch_test.go suite does exactly this).
	Metrics *metrics.Counters

	sendSeq uint32

	unknownPacketCount   int64
	malformedPayloadCount int64

	// OnPlayerLeft and OnPlayerDied are supplemented internal callbacks
	// (from original_source/'s CLIENT_LEFT/PLAYER_DIED announcements,
	// folded into ROOM_UPDATE/ENTITY_DESTROY on the wire per SPEC_FULL.md)
	// that a caller may set to observe those events; cmd/server leaves both
	// unset. Either may be nil.
	OnPlayerLeft func(playerID uint8, roomID uint32)
	OnPlayerDied func(playerID uint8, roomID uint32)
}

// NewServer wires a fresh session table and room manager around transport.
func NewServer(cfg config.Config, transport *session.Transport, logger *log.Logger) *Server {
	return &Server{
		cfg:       cfg,
		transport: transport,
		sessions:  session.NewTable(),
		rooms:     room.NewManager(),
		logger:    logger,
		worlds:    make(map[uint32]*sim.World),
		emitters:  make(map[uint32]*snapshot.Emitter),
	}
}

// UnknownPacketCount reports how many frames carried a type this dispatcher
// doesn't recognize (spec §7 UnknownPacketType).
// SessionCount and RoomCount expose the live table sizes the metrics loop
// logs alongside the accumulated counters.
func (s *Server) SessionCount() int { return s.sessions.Len() }
func (s *Server) RoomCount() int    { return len(s.rooms.ListRooms()) }

func (s *Server) UnknownPacketCount() int64 { return s.unknownPacketCount }

// MalformedPayloadCount reports how many frames passed header validation
// but failed to decode their typed payload (spec §7 PayloadSizeMismatch /
// DecodeUnderflow / OverrunString).
func (s *Server) MalformedPayloadCount() int64 { return s.malformedPayloadCount }

func nowMs(now time.Time) uint32 { return uint32(now.UnixMilli()) }

func (s *Server) nextSeq() uint32 {
	s.sendSeq++
	return s.sendSeq
}

func (s *Server) countSent(n int) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.AddPacketsSent(1)
	s.Metrics.AddBytesSent(int64(n))
}

// sendTo encodes payload as an uncompressed frame of typ and enqueues it to
// addr.
func (s *Server) sendTo(addr *net.UDPAddr, typ protocol.PacketType, payload []byte, now time.Time) {
	frame, err := protocol.EncodeFrame(typ, s.nextSeq(), nowMs(now), payload, false)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("encode %s failed: %v", typ, err)
		}
		return
	}
	s.transport.SendTo(frame, addr)
	s.countSent(len(frame))
}

// broadcastRoom encodes payload once and enqueues it to every current
// member of rm.
func (s *Server) broadcastRoom(rm room.Room, typ protocol.PacketType, payload []byte, now time.Time) {
	frame, err := protocol.EncodeFrame(typ, s.nextSeq(), nowMs(now), payload, false)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("encode %s failed: %v", typ, err)
		}
		return
	}
	addrs := s.roomAddrs(rm)
	s.transport.Broadcast(frame, addrs)
	for range addrs {
		s.countSent(len(frame))
	}
}

// roomAddrs resolves every member's endpoint through the session table. A
// member whose session has since vanished (e.g. a timeout mid-broadcast) is
// silently skipped.
func (s *Server) roomAddrs(rm room.Room) []*net.UDPAddr {
	addrs := make([]*net.UDPAddr, 0, len(rm.PlayerIDs))
	for _, pid32 := range rm.PlayerIDs {
		if sess, ok := s.sessions.ByPlayerID(uint8(pid32)); ok {
			addrs = append(addrs, sess.Endpoint)
		}
	}
	return addrs
}

// broadcastRoomUpdate sends the current membership/ready/host view of rm to
// every member (spec §8 scenario 2). The wire protocol carries no player
// display-name packet (CLIENT_HELLO's payload is empty; only chat messages
// name their sender), so member names are a deterministic placeholder
// derived from playerId.
func (s *Server) broadcastRoomUpdate(rm room.Room, now time.Time) {
	entries := make([]protocol.RoomUpdateEntry, 0, len(rm.PlayerIDs))
	for _, pid32 := range rm.PlayerIDs {
		entries = append(entries, protocol.RoomUpdateEntry{
			ID:      pid32,
			Name:    fmt.Sprintf("Player_%d", pid32),
			IsHost:  pid32 == rm.HostPlayerID,
			IsReady: rm.Ready[pid32],
		})
	}
	payload := protocol.RoomUpdatePayload{RoomID: rm.ID, Players: entries}
	w := protocol.NewWriter(16 + len(entries)*16)
	payload.Encode(w)
	s.broadcastRoom(rm, protocol.RoomUpdate, w.Bytes(), now)
}

// cleanupPlayer removes playerID from roomID's world (if any) and room
// membership, reassigning host if needed, and notifies survivors. Used by
// CLIENT_DISCONNECT, ROOM_LEAVE, and the session timeout sweep alike, so
// all three paths share one cleanup story (spec §4.D, §8 scenario 6).
func (s *Server) cleanupPlayer(playerID uint8, roomID uint32, now time.Time) {
	if roomID == 0 {
		return
	}
	if w, ok := s.worlds[roomID]; ok {
		w.RemovePlayer(playerID)
	}

	stillExists := s.rooms.LeaveRoom(roomID, uint32(playerID))
	if s.Metrics != nil {
		s.Metrics.AddPlayerLeft()
	}
	if s.OnPlayerLeft != nil {
		s.OnPlayerLeft(playerID, roomID)
	}

	if !stillExists {
		delete(s.worlds, roomID)
		delete(s.emitters, roomID)
		return
	}
	if rm, ok := s.rooms.Get(roomID); ok {
		s.broadcastRoomUpdate(rm, now)
	}
}
