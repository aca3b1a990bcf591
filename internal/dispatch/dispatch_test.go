package dispatch

import (
	"net"
	"testing"
	"time"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/protocol"
	"github.com/57ave/rtype-server/internal/room"
	"github.com/57ave/rtype-server/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	transport, err := session.NewTransport(0, 1e6, 1e6, nil)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	t.Cleanup(func() { transport.Close() })
	return NewServer(config.Default(), transport, nil)
}

func fakeAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func inboundOf(typ protocol.PacketType, seq uint32, addr *net.UDPAddr, payload []byte) session.Inbound {
	return session.Inbound{
		Header:  protocol.NewHeader(typ, seq, 0),
		Payload: payload,
		Addr:    addr,
	}
}

func TestClientHelloSendsWelcomeOverTheWire(t *testing.T) {
	transport, err := session.NewTransport(0, 1e6, 1e6, nil)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer transport.Close()
	go transport.SendLoop()

	srv := NewServer(config.Default(), transport, nil)

	client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("client listen: %v", err)
	}
	defer client.Close()
	clientAddr := client.LocalAddr().(*net.UDPAddr)

	srv.HandlePacket(inboundOf(protocol.ClientHello, 1, clientAddr, nil), time.Now())

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, _, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	h, payload, err := protocol.DecodeFrame(buf[:n])
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if h.Type != protocol.ServerWelcome {
		t.Fatalf("Type = %v, want SERVER_WELCOME", h.Type)
	}
	welcome, err := protocol.DecodeServerWelcome(protocol.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeServerWelcome: %v", err)
	}
	if welcome.AssignedPlayerID != 1 {
		t.Errorf("AssignedPlayerID = %d, want 1", welcome.AssignedPlayerID)
	}
}

func TestRoomCreateThenJoinAddsBothMembers(t *testing.T) {
	srv := newTestServer(t)
	hostAddr := fakeAddr(40001)
	joinerAddr := fakeAddr(40002)

	createW := protocol.NewWriter(8)
	protocol.RoomCreatePayload{Name: "Squad", MaxPlayers: 4}.Encode(createW)
	srv.HandlePacket(inboundOf(protocol.RoomCreate, 1, hostAddr, createW.Bytes()), time.Now())

	hostSess, ok := srv.sessions.Get(hostAddr)
	if !ok {
		t.Fatalf("host session not created")
	}
	if hostSess.RoomID == 0 {
		t.Fatalf("host session has no room after ROOM_CREATE")
	}

	joinW := protocol.NewWriter(4)
	protocol.RoomJoinPayload{RoomID: hostSess.RoomID}.Encode(joinW)
	srv.HandlePacket(inboundOf(protocol.RoomJoin, 1, joinerAddr, joinW.Bytes()), time.Now())

	rm, ok := srv.rooms.Get(hostSess.RoomID)
	if !ok {
		t.Fatalf("room %d vanished", hostSess.RoomID)
	}
	if len(rm.PlayerIDs) != 2 {
		t.Fatalf("len(PlayerIDs) = %d, want 2", len(rm.PlayerIDs))
	}
	if rm.HostPlayerID != uint32(hostSess.PlayerID) {
		t.Errorf("HostPlayerID = %d, want %d", rm.HostPlayerID, hostSess.PlayerID)
	}
}

func TestGameStartSpawnsEveryMemberAndSendsFullSnapshot(t *testing.T) {
	transport, err := session.NewTransport(0, 1e6, 1e6, nil)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer transport.Close()
	go transport.SendLoop()

	srv := NewServer(config.Default(), transport, nil)

	hostConn, _ := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	defer hostConn.Close()
	joinerConn, _ := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	defer joinerConn.Close()
	hostAddr := hostConn.LocalAddr().(*net.UDPAddr)
	joinerAddr := joinerConn.LocalAddr().(*net.UDPAddr)

	createW := protocol.NewWriter(8)
	protocol.RoomCreatePayload{Name: "Squad", MaxPlayers: 4}.Encode(createW)
	srv.HandlePacket(inboundOf(protocol.RoomCreate, 1, hostAddr, createW.Bytes()), time.Now())
	hostSess, _ := srv.sessions.Get(hostAddr)

	joinW := protocol.NewWriter(4)
	protocol.RoomJoinPayload{RoomID: hostSess.RoomID}.Encode(joinW)
	srv.HandlePacket(inboundOf(protocol.RoomJoin, 1, joinerAddr, joinW.Bytes()), time.Now())

	startW := protocol.NewWriter(4)
	protocol.GameStartPayload{RoomID: hostSess.RoomID}.Encode(startW)
	srv.HandlePacket(inboundOf(protocol.GameStart, 1, hostAddr, startW.Bytes()), time.Now())

	rm, ok := srv.rooms.Get(hostSess.RoomID)
	if !ok || rm.State != room.Playing {
		t.Fatalf("room state = %+v, want Playing", rm)
	}
	w, ok := srv.worlds[hostSess.RoomID]
	if !ok {
		t.Fatalf("no world created for room %d", hostSess.RoomID)
	}
	if w.AlivePlayers() != 2 {
		t.Errorf("AlivePlayers() = %d, want 2", w.AlivePlayers())
	}

	// The host receives GAME_START followed by an initial full
	// ENTITY_UPDATE carrying both players; only the host's socket is read.
	sawSnapshotWithTwoPlayers := false
	hostConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	for i := 0; i < 10; i++ {
		n, _, err := hostConn.ReadFromUDP(buf)
		if err != nil {
			break
		}
		h, payload, err := protocol.DecodeFrame(buf[:n])
		if err != nil {
			t.Fatalf("DecodeFrame: %v", err)
		}
		if h.Type != protocol.EntityUpdate {
			continue
		}
		r := protocol.NewReader(payload)
		sh, err := protocol.DecodeSnapshotHeader(r)
		if err != nil {
			t.Fatalf("DecodeSnapshotHeader: %v", err)
		}
		if sh.EntityCount == 2 {
			sawSnapshotWithTwoPlayers = true
		}
	}
	if !sawSnapshotWithTwoPlayers {
		t.Errorf("never observed an initial ENTITY_UPDATE with 2 entities")
	}
}

func TestClientInputIgnoredOutsidePlayingRoom(t *testing.T) {
	srv := newTestServer(t)
	hostAddr := fakeAddr(40101)

	createW := protocol.NewWriter(8)
	protocol.RoomCreatePayload{Name: "Lobby", MaxPlayers: 4}.Encode(createW)
	srv.HandlePacket(inboundOf(protocol.RoomCreate, 1, hostAddr, createW.Bytes()), time.Now())
	hostSess, _ := srv.sessions.Get(hostAddr)

	inputW := protocol.NewWriter(8)
	protocol.ClientInputPayload{PlayerID: hostSess.PlayerID, InputMask: protocol.InputRight, ChargeLevel: 0, InputSeq: 1}.Encode(inputW)
	srv.HandlePacket(inboundOf(protocol.ClientInputPacket, 2, hostAddr, inputW.Bytes()), time.Now())

	if len(srv.worlds) != 0 {
		t.Errorf("expected no world to exist before GAME_START, got %d", len(srv.worlds))
	}
}

func TestClientInputMovesPlayerAfterGameStart(t *testing.T) {
	srv := newTestServer(t)
	hostAddr := fakeAddr(40201)

	createW := protocol.NewWriter(8)
	protocol.RoomCreatePayload{Name: "Solo", MaxPlayers: 1}.Encode(createW)
	srv.HandlePacket(inboundOf(protocol.RoomCreate, 1, hostAddr, createW.Bytes()), time.Now())
	hostSess, _ := srv.sessions.Get(hostAddr)

	startW := protocol.NewWriter(4)
	protocol.GameStartPayload{RoomID: hostSess.RoomID}.Encode(startW)
	srv.HandlePacket(inboundOf(protocol.GameStart, 2, hostAddr, startW.Bytes()), time.Now())

	w := srv.worlds[hostSess.RoomID]
	before := w.Snapshot()[0]

	inputW := protocol.NewWriter(8)
	protocol.ClientInputPayload{PlayerID: hostSess.PlayerID, InputMask: protocol.InputRight, ChargeLevel: 0, InputSeq: 1}.Encode(inputW)
	srv.HandlePacket(inboundOf(protocol.ClientInputPacket, 3, hostAddr, inputW.Bytes()), time.Now())

	now := time.Now()
	w.Step(1.0/float64(srv.cfg.TickRate), now, true)
	after := w.Snapshot()[0]

	if after.X <= before.X {
		t.Errorf("X did not advance after an InputRight tick: before=%v after=%v", before.X, after.X)
	}
}

func TestSessionTimeoutReassignsHostAndUpdatesRoom(t *testing.T) {
	srv := newTestServer(t)
	hostAddr := fakeAddr(40301)
	joinerAddr := fakeAddr(40302)
	t0 := time.Now()

	createW := protocol.NewWriter(8)
	protocol.RoomCreatePayload{Name: "Duo", MaxPlayers: 4}.Encode(createW)
	srv.HandlePacket(inboundOf(protocol.RoomCreate, 1, hostAddr, createW.Bytes()), t0)
	hostSess, _ := srv.sessions.Get(hostAddr)

	joinW := protocol.NewWriter(4)
	protocol.RoomJoinPayload{RoomID: hostSess.RoomID}.Encode(joinW)
	srv.HandlePacket(inboundOf(protocol.RoomJoin, 1, joinerAddr, joinW.Bytes()), t0)
	joinerSess, _ := srv.sessions.Get(joinerAddr)

	// The joiner keeps sending; the host goes quiet past the timeout.
	timeout := time.Duration(srv.cfg.SessionTimeoutSeconds * float64(time.Second))
	later := t0.Add(timeout + time.Second)
	srv.sessions.Touch(joinerAddr, later, 2)

	srv.Step(later)

	if _, ok := srv.sessions.Get(hostAddr); ok {
		t.Errorf("expected the host's session to be swept after timing out")
	}
	rm, ok := srv.rooms.Get(hostSess.RoomID)
	if !ok {
		t.Fatalf("room %d should still exist with the joiner remaining", hostSess.RoomID)
	}
	if rm.HostPlayerID != uint32(joinerSess.PlayerID) {
		t.Errorf("HostPlayerID = %d, want reassigned to joiner %d", rm.HostPlayerID, joinerSess.PlayerID)
	}
	if len(rm.PlayerIDs) != 1 {
		t.Errorf("len(PlayerIDs) = %d, want 1 after the host's timeout", len(rm.PlayerIDs))
	}
}
