package session

import (
	"net"
	"testing"
	"time"

	"github.com/57ave/rtype-server/internal/protocol"
)

func TestTransportSendRecvRoundTrip(t *testing.T) {
	server, err := NewTransport(0, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewTransport(server): %v", err)
	}
	defer server.Close()

	client, err := NewTransport(0, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewTransport(client): %v", err)
	}
	defer client.Close()

	go server.RecvLoop()
	go client.RecvLoop()
	go server.SendLoop()
	go client.SendLoop()

	serverAddr := server.conn.LocalAddr().(*net.UDPAddr)

	payload := protocol.ClientInputPayload{PlayerID: 3, InputMask: protocol.InputFire, ChargeLevel: 0, InputSeq: 7}
	w := protocol.NewWriter(0)
	payload.Encode(w)
	frame, err := protocol.EncodeFrame(protocol.ClientInputPacket, 7, 1000, w.Bytes(), false)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	client.SendTo(frame, serverAddr)

	select {
	case in := <-server.Inbound():
		if in.Header.Type != protocol.ClientInputPacket {
			t.Errorf("Type = %v, want ClientInputPacket", in.Header.Type)
		}
		if in.Header.Seq != 7 {
			t.Errorf("Seq = %d, want 7", in.Header.Seq)
		}
		got, err := protocol.DecodeClientInput(protocol.NewReader(in.Payload))
		if err != nil {
			t.Fatalf("DecodeClientInput: %v", err)
		}
		if got.InputMask != protocol.InputFire || got.InputSeq != 7 {
			t.Errorf("payload mismatch: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestTransportRateLimitDropsExcessDatagrams(t *testing.T) {
	server, err := NewTransport(0, 1, 1, nil)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer server.Close()

	go server.RecvLoop()

	client, err := NewTransport(0, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewTransport(client): %v", err)
	}
	defer client.Close()
	go client.SendLoop()

	serverAddr := server.conn.LocalAddr().(*net.UDPAddr)

	w := protocol.NewWriter(0)
	frame, err := protocol.EncodeFrame(protocol.ClientPing, 1, 0, w.Bytes(), false)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	for i := 0; i < 5; i++ {
		client.SendTo(frame, serverAddr)
	}

	time.Sleep(200 * time.Millisecond)

	if server.DroppedCount() == 0 {
		t.Errorf("expected at least one datagram to be rate-limited and dropped")
	}
}
