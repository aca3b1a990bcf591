package dispatch

import (
	"time"

	"github.com/57ave/rtype-server/internal/protocol"
	"github.com/57ave/rtype-server/internal/room"
	"github.com/57ave/rtype-server/internal/session"
	"github.com/57ave/rtype-server/internal/sim"
	"github.com/57ave/rtype-server/internal/snapshot"
)

// handleGameStart honors GAME_START only when the sender is host, the room
// has at least minPlayersToStart members, and the room is WAITING (spec
// §4.I) — readiness itself (PLAYER_READY) is a separate mechanism the spec
// never names as a GAME_START precondition, so it's not enforced here.
func (s *Server) handleGameStart(sess *session.Session, r *protocol.Reader, now time.Time) {
	req, err := protocol.DecodeGameStart(r)
	if err != nil {
		s.malformedPayloadCount++
		return
	}
	if req.RoomID == 0 || sess.RoomID != req.RoomID {
		return
	}
	rm, ok := s.rooms.Get(req.RoomID)
	if !ok {
		return
	}
	if rm.HostPlayerID != uint32(sess.PlayerID) {
		return // NotAuthorized: ignore, no reply
	}
	if rm.State != room.Waiting {
		return // PreconditionFailed
	}
	if len(rm.PlayerIDs) < s.cfg.MinPlayersToStart {
		return // PreconditionFailed
	}

	s.rooms.SetState(req.RoomID, room.Playing)

	w := sim.NewWorld(s.cfg, req.RoomID, now.UnixNano())
	s.worlds[req.RoomID] = w
	emitter := snapshot.NewEmitter()
	s.emitters[req.RoomID] = emitter

	startPayload := protocol.GameStartPayload{RoomID: req.RoomID}
	sw := protocol.NewWriter(4)
	startPayload.Encode(sw)
	s.broadcastRoom(rm, protocol.GameStart, sw.Bytes(), now)

	memberIDs := make([]uint8, 0, len(rm.PlayerIDs))
	for i, pid32 := range rm.PlayerIDs {
		pid := uint8(pid32)
		w.SpawnPlayer(pid, i)
		memberIDs = append(memberIDs, pid)
	}

	emitter.ForceFullNext()
	if frame, ok, err := emitter.Build(w, memberIDs, nowMs(now), true); err == nil && ok {
		s.transport.Broadcast(frame, s.roomAddrs(rm))
	}
}

// handleClientInput applies a CLIENT_INPUT to the sender's own world entry.
// The payload's playerId field is wire-redundant with the session's own
// identity; a mismatch is treated as a spoofing attempt and dropped rather
// than trusted (spec §7 NotAuthorized).
func (s *Server) handleClientInput(sess *session.Session, r *protocol.Reader, now time.Time) {
	req, err := protocol.DecodeClientInput(r)
	if err != nil {
		s.malformedPayloadCount++
		return
	}
	if req.PlayerID != sess.PlayerID {
		return
	}
	if sess.RoomID == 0 {
		return
	}
	rm, ok := s.rooms.Get(sess.RoomID)
	if !ok || rm.State != room.Playing {
		return // PreconditionFailed: input outside PLAYING is ignored
	}
	w, ok := s.worlds[sess.RoomID]
	if !ok {
		return
	}
	w.ApplyInput(sess.PlayerID, req.InputMask, req.ChargeLevel, req.InputSeq, now)
}

// Step drains every inbound packet queued since the last tick, then
// advances each playing room's simulation by one fixed step and turns the
// resulting events into outgoing packets (spec §4.F, §5: "drain the inbound
// queue" is always step 1 of a tick).
func (s *Server) Step(now time.Time) {
	s.drainInbound(now)
	if s.Metrics != nil {
		s.Metrics.AddTickRun()
	}

	dt := 1.0 / float64(s.cfg.TickRate)
	for roomID, w := range s.worlds {
		rm, ok := s.rooms.Get(roomID)
		if !ok {
			delete(s.worlds, roomID)
			delete(s.emitters, roomID)
			continue
		}
		playing := rm.State == room.Playing
		ev := w.Step(dt, now, playing)
		s.handleEvents(roomID, rm, ev, now)
	}

	s.sweepTimeouts(now)
}

func (s *Server) drainInbound(now time.Time) {
	ch := s.transport.Inbound()
	for {
		select {
		case in := <-ch:
			s.HandlePacket(in, now)
		default:
			return
		}
	}
}

// handleEvents turns one tick's sim.Events into outgoing packets and
// applies the room-level state changes a finished round or level transition
// implies (spec §4.I supplemented LEVEL_CHANGE/GAME_OVER/GAME_VICTORY
// semantics).
func (s *Server) handleEvents(roomID uint32, rm room.Room, ev sim.Events, now time.Time) {
	addrs := s.roomAddrs(rm)

	for _, sp := range ev.Spawned {
		if frame, err := snapshot.EncodeSpawn(sp, s.nextSeq(), nowMs(now)); err == nil {
			s.transport.Broadcast(frame, addrs)
		}
	}
	for _, id := range ev.Destroyed {
		if frame, err := snapshot.EncodeDestroy(id, s.nextSeq(), nowMs(now)); err == nil {
			s.transport.Broadcast(frame, addrs)
		}
	}
	for _, pid := range ev.DeadPlayers {
		if s.OnPlayerDied != nil {
			s.OnPlayerDied(pid, roomID)
		}
	}

	if ev.LevelChanged {
		s.rooms.SetCurrentLevel(roomID, int(ev.NewLevelID))
		payload := protocol.LevelChangePayload{LevelID: ev.NewLevelID}
		w := protocol.NewWriter(1)
		payload.Encode(w)
		if frame, err := protocol.EncodeFrame(protocol.LevelChange, s.nextSeq(), nowMs(now), w.Bytes(), false); err == nil {
			s.transport.Broadcast(frame, addrs)
		}
	}

	if ev.GameOver || ev.GameVictory {
		typ := protocol.GameOver
		w := protocol.NewWriter(4)
		if ev.GameVictory {
			typ = protocol.GameVictory
			protocol.GameVictoryPayload{TotalScore: ev.TotalScore}.Encode(w)
		} else {
			protocol.GameOverPayload{TotalScore: ev.TotalScore}.Encode(w)
		}
		if frame, err := protocol.EncodeFrame(typ, s.nextSeq(), nowMs(now), w.Bytes(), false); err == nil {
			s.transport.Broadcast(frame, addrs)
		}

		s.rooms.SetState(roomID, room.Waiting)
		s.rooms.ResetReady(roomID)
		delete(s.worlds, roomID)
		delete(s.emitters, roomID)
		if rm2, ok := s.rooms.Get(roomID); ok {
			s.broadcastRoomUpdate(rm2, now)
		}
	}
}

// EmitSnapshots builds and sends one delta (or forced-full) ENTITY_UPDATE
// per playing room. Called at the configured snapshot rate, independent of
// the tick rate (spec §4.G, §6 snapshotRate).
func (s *Server) EmitSnapshots(now time.Time) {
	for roomID, w := range s.worlds {
		rm, ok := s.rooms.Get(roomID)
		if !ok || rm.State != room.Playing {
			continue
		}
		e, ok := s.emitters[roomID]
		if !ok {
			continue
		}
		memberIDs := make([]uint8, 0, len(rm.PlayerIDs))
		for _, pid32 := range rm.PlayerIDs {
			memberIDs = append(memberIDs, uint8(pid32))
		}
		frame, ok, err := e.Build(w, memberIDs, nowMs(now), false)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("snapshot build for room %d: %v", roomID, err)
			}
			continue
		}
		if !ok {
			continue
		}
		s.transport.Broadcast(frame, s.roomAddrs(rm))
	}
}

// sweepTimeouts evicts sessions that have gone quiet past the configured
// timeout and runs the same cleanup path as an explicit disconnect (spec
// §4.D, §8 scenario 6).
func (s *Server) sweepTimeouts(now time.Time) {
	timeout := time.Duration(s.cfg.SessionTimeoutSeconds * float64(time.Second))
	removed := s.sessions.SweepTimeouts(now, timeout)
	for _, sess := range removed {
		s.cleanupPlayer(sess.PlayerID, sess.RoomID, now)
	}
}
