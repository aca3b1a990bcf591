package dispatch

import (
	"fmt"
	"time"

	"github.com/57ave/rtype-server/internal/protocol"
	"github.com/57ave/rtype-server/internal/room"
	"github.com/57ave/rtype-server/internal/session"
)

// HandlePacket is the single entry point for a validated inbound datagram,
// grounded on the teacher's processMessage switch over packet type
// (networking/server/server.go), generalized to the wider packet set this
// protocol defines. now is the tick's wall-clock time.
func (s *Server) HandlePacket(in session.Inbound, now time.Time) {
	sess, created := s.sessions.GetOrCreate(in.Addr, now)
	if !created {
		s.sessions.Touch(in.Addr, now, in.Header.Seq)
	}
	if s.Metrics != nil {
		s.Metrics.AddPacketsReceived(1)
		s.Metrics.AddBytesReceived(int64(len(in.Payload)))
		if created {
			s.Metrics.AddPlayerJoined()
		}
	}

	r := protocol.NewReader(in.Payload)

	switch in.Header.Type {
	case protocol.ClientHello:
		s.handleClientHello(sess, now)
	case protocol.ClientPing:
		s.handleClientPing(sess, in.Header, now)
	case protocol.ClientDisconnect:
		s.handleClientDisconnect(sess, now)
	case protocol.RoomListReq:
		s.handleRoomListReq(sess, now)
	case protocol.RoomCreate:
		s.handleRoomCreate(sess, r, now)
	case protocol.RoomJoin:
		s.handleRoomJoin(sess, r, now)
	case protocol.RoomLeave:
		s.handleRoomLeave(sess, r, now)
	case protocol.PlayerReady:
		s.handlePlayerReady(sess, r, now)
	case protocol.GameStart:
		s.handleGameStart(sess, r, now)
	case protocol.ChatMessage:
		s.handleChatMessage(sess, r, now)
	case protocol.ClientInputPacket:
		s.handleClientInput(sess, r, now)
	default:
		// Header.Valid() already rejected bad magic/version; an unrecognized
		// but well-formed type here is forward compatibility, not malformed
		// framing (spec §7 UnknownPacketType: drop, no reply).
		s.unknownPacketCount++
	}
}

func (s *Server) handleClientHello(sess *session.Session, now time.Time) {
	payload := protocol.ServerWelcomePayload{AssignedPlayerID: sess.PlayerID}
	w := protocol.NewWriter(1)
	payload.Encode(w)
	s.sendTo(sess.Endpoint, protocol.ServerWelcome, w.Bytes(), now)
}

func (s *Server) handleClientPing(sess *session.Session, h protocol.Header, now time.Time) {
	payload := protocol.ServerPingReplyPayload{EchoedTimestamp: h.Timestamp}
	w := protocol.NewWriter(4)
	payload.Encode(w)
	s.sendTo(sess.Endpoint, protocol.ServerPingReply, w.Bytes(), now)
}

func (s *Server) handleClientDisconnect(sess *session.Session, now time.Time) {
	s.cleanupPlayer(sess.PlayerID, sess.RoomID, now)
	s.sessions.Remove(sess.Endpoint)
}

func (s *Server) handleRoomListReq(sess *session.Session, now time.Time) {
	rooms := s.rooms.ListRooms()
	entries := make([]protocol.RoomListEntry, 0, len(rooms))
	for _, r := range rooms {
		entries = append(entries, protocol.RoomListEntry{
			ID:         r.ID,
			Name:       r.Name,
			CurPlayers: uint8(len(r.PlayerIDs)),
			MaxPlayers: r.MaxPlayers,
			InGame:     r.State == room.Playing,
		})
	}
	payload := protocol.RoomListResPayload{Rooms: entries}
	w := protocol.NewWriter(8 + len(entries)*16)
	payload.Encode(w)
	s.sendTo(sess.Endpoint, protocol.RoomListRes, w.Bytes(), now)
}

const defaultMaxPlayers = 8

func (s *Server) handleRoomCreate(sess *session.Session, r *protocol.Reader, now time.Time) {
	req, err := protocol.DecodeRoomCreate(r)
	if err != nil {
		s.malformedPayloadCount++
		return
	}
	if sess.RoomID != 0 {
		return // PreconditionFailed: already in a room, ignore
	}

	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 || maxPlayers > defaultMaxPlayers {
		maxPlayers = defaultMaxPlayers
	}
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Room_%d", sess.PlayerID)
	}

	roomID := s.rooms.CreateRoom(name, maxPlayers, uint32(sess.PlayerID))
	s.rooms.JoinRoom(roomID, uint32(sess.PlayerID))
	s.sessions.SetRoom(sess.Endpoint, roomID)
	if s.Metrics != nil {
		s.Metrics.AddRoomCreated()
	}

	createdPayload := protocol.RoomCreatedPayload{RoomID: roomID}
	cw := protocol.NewWriter(4)
	createdPayload.Encode(cw)
	s.sendTo(sess.Endpoint, protocol.RoomCreated, cw.Bytes(), now)

	rm, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	joinedPayload := protocol.RoomJoinedPayload{RoomID: rm.ID, Name: rm.Name, MaxPlayers: rm.MaxPlayers, HostPlayerID: rm.HostPlayerID}
	jw := protocol.NewWriter(16 + len(rm.Name))
	joinedPayload.Encode(jw)
	s.sendTo(sess.Endpoint, protocol.RoomJoined, jw.Bytes(), now)

	s.broadcastRoomUpdate(rm, now)
}

func (s *Server) handleRoomJoin(sess *session.Session, r *protocol.Reader, now time.Time) {
	req, err := protocol.DecodeRoomJoin(r)
	if err != nil {
		s.malformedPayloadCount++
		return
	}
	if sess.RoomID != 0 {
		return // PreconditionFailed: already in a room
	}
	if !s.rooms.JoinRoom(req.RoomID, uint32(sess.PlayerID)) {
		return // nonexistent, full, or not WAITING: ignore, no reply
	}
	s.sessions.SetRoom(sess.Endpoint, req.RoomID)

	rm, ok := s.rooms.Get(req.RoomID)
	if !ok {
		return
	}
	joinedPayload := protocol.RoomJoinedPayload{RoomID: rm.ID, Name: rm.Name, MaxPlayers: rm.MaxPlayers, HostPlayerID: rm.HostPlayerID}
	jw := protocol.NewWriter(16 + len(rm.Name))
	joinedPayload.Encode(jw)
	s.sendTo(sess.Endpoint, protocol.RoomJoined, jw.Bytes(), now)

	s.broadcastRoomUpdate(rm, now)
}

func (s *Server) handleRoomLeave(sess *session.Session, r *protocol.Reader, now time.Time) {
	req, err := protocol.DecodeRoomLeave(r)
	if err != nil {
		s.malformedPayloadCount++
		return
	}
	if req.RoomID == 0 || sess.RoomID != req.RoomID {
		return // PreconditionFailed: not a member of that room
	}
	roomID := sess.RoomID
	playerID := sess.PlayerID
	s.sessions.SetRoom(sess.Endpoint, 0)
	s.cleanupPlayer(playerID, roomID, now)
}

func (s *Server) handlePlayerReady(sess *session.Session, r *protocol.Reader, now time.Time) {
	req, err := protocol.DecodePlayerReady(r)
	if err != nil {
		s.malformedPayloadCount++
		return
	}
	if sess.RoomID == 0 {
		return
	}
	if !s.rooms.SetReady(sess.RoomID, uint32(sess.PlayerID), req.Ready) {
		return
	}
	if rm, ok := s.rooms.Get(sess.RoomID); ok {
		s.broadcastRoomUpdate(rm, now)
	}
}

func (s *Server) handleChatMessage(sess *session.Session, r *protocol.Reader, now time.Time) {
	req, err := protocol.DecodeChatMessage(r)
	if err != nil {
		s.malformedPayloadCount++
		return
	}
	if sess.RoomID == 0 {
		return
	}
	rm, ok := s.rooms.Get(sess.RoomID)
	if !ok {
		return
	}
	out := protocol.ChatMessagePayload{
		SenderID:   uint32(sess.PlayerID),
		SenderName: req.SenderName,
		Message:    req.Message,
		RoomID:     sess.RoomID,
	}
	w := protocol.NewWriter(16 + len(out.SenderName) + len(out.Message))
	out.Encode(w)
	s.broadcastRoom(rm, protocol.ChatMessage, w.Bytes(), now)
}
