// Command client is a headless demo client: it connects, creates a room (the
// default config's minPlayersToStart is 1, so a lone host may start
// immediately), then drives a predictor.Predictor off a constant input and
// logs reconciliation corrections as they happen. There is no terminal UI in
// this pack to draw on (charmbracelet is explicitly out of scope — see
// DESIGN.md), so this binary is a protocol-conformance and prediction demo,
// not a playable game client. Grounded on networking/client/client.go's
// Connect/receiveLoop/gameLoop trio and cmd/wt's cobra root command.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/predictor"
	"github.com/57ave/rtype-server/internal/protocol"
)

func main() {
	var serverAddr string
	var roomName string
	var createRoom bool

	root := &cobra.Command{
		Use:   "client",
		Short: "Headless demo client exercising prediction/reconciliation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(serverAddr, roomName, createRoom)
		},
	}
	root.Flags().StringVar(&serverAddr, "server", "127.0.0.1:4242", "server UDP address")
	root.Flags().StringVar(&roomName, "room", "Demo", "room name to create")
	root.Flags().BoolVar(&createRoom, "create", true, "create and start a new room; when false, only request the room list")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(serverAddr, roomName string, createRoom bool) error {
	logger := log.New(os.Stdout, "client: ", log.LstdFlags)
	cfg := config.Default()

	remote, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", serverAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, remote)
	if err != nil {
		return fmt.Errorf("dial %s: %w", serverAddr, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := &demoClient{conn: conn, logger: logger, sendSeq: 1, tickDt: 1.0 / float64(cfg.TickRate)}

	localPlayerID, err := c.handshake()
	if err != nil {
		return err
	}
	logger.Printf("assigned playerId=%d", localPlayerID)

	if err := c.joinOrCreateRoom(roomName, createRoom); err != nil {
		return err
	}
	c.pred = predictor.New(cfg, localPlayerID, float32(cfg.PlayerSpawnX), float32(cfg.PlayerSpawnYStart))

	c.readLoop(ctx)
	return nil
}

// demoClient is intentionally minimal: one connection, one local player,
// reading server frames and applying a held InputRight input per received
// frame so
// the prediction/reconciliation path in internal/predictor has something to
// exercise without a real input device.
type demoClient struct {
	conn     *net.UDPConn
	logger   *log.Logger
	pred     *predictor.Predictor
	sendSeq  uint32
	playerID uint8
	tickDt   float64
}

func (c *demoClient) handshake() (uint8, error) {
	if err := c.send(protocol.ClientHello, nil); err != nil {
		return 0, err
	}
	h, payload, err := c.recv(2 * time.Second)
	if err != nil {
		return 0, fmt.Errorf("handshake: %w", err)
	}
	if h.Type != protocol.ServerWelcome {
		return 0, fmt.Errorf("handshake: expected SERVER_WELCOME, got %v", h.Type)
	}
	welcome, err := protocol.DecodeServerWelcome(protocol.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("decode SERVER_WELCOME: %w", err)
	}
	c.playerID = welcome.AssignedPlayerID
	return welcome.AssignedPlayerID, nil
}

func (c *demoClient) joinOrCreateRoom(name string, create bool) error {
	if !create {
		return c.send(protocol.RoomListReq, nil)
	}
	w := protocol.NewWriter(8 + len(name))
	protocol.RoomCreatePayload{Name: name, MaxPlayers: 4}.Encode(w)
	if err := c.send(protocol.RoomCreate, w.Bytes()); err != nil {
		return err
	}
	h, payload, err := c.recv(2 * time.Second)
	if err != nil {
		return fmt.Errorf("room create: %w", err)
	}
	if h.Type != protocol.RoomCreated {
		return fmt.Errorf("room create: expected ROOM_CREATED, got %v", h.Type)
	}
	created, err := protocol.DecodeRoomCreated(protocol.NewReader(payload))
	if err != nil {
		return fmt.Errorf("decode ROOM_CREATED: %w", err)
	}

	gw := protocol.NewWriter(4)
	protocol.GameStartPayload{RoomID: created.RoomID}.Encode(gw)
	return c.send(protocol.GameStart, gw.Bytes())
}

// readLoop is the client's entire steady-state behavior: decode whatever
// arrives, fold ENTITY_UPDATE frames into the predictor, and push one input
// per server frame so there's always something pending to reconcile.
func (c *demoClient) readLoop(ctx context.Context) {
	inputSeq := uint32(1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		h, payload, err := c.recv(500 * time.Millisecond)
		if err != nil {
			continue
		}

		switch h.Type {
		case protocol.GameStart:
			c.logger.Printf("game started")
		case protocol.EntityUpdate:
			c.onSnapshot(payload)
		case protocol.GameOver, protocol.GameVictory:
			c.logger.Printf("round ended: %v", h.Type)
			return
		}

		mask := protocol.InputRight
		c.pred.ApplyLocalInput(inputSeq, mask, 0, c.tickDt)

		iw := protocol.NewWriter(8)
		protocol.ClientInputPayload{PlayerID: c.playerID, InputMask: mask, ChargeLevel: 0, InputSeq: inputSeq}.Encode(iw)
		c.send(protocol.ClientInputPacket, iw.Bytes())
		inputSeq++
	}
}

func (c *demoClient) onSnapshot(payload []byte) {
	r := protocol.NewReader(payload)
	sh, err := protocol.DecodeSnapshotHeader(r)
	if err != nil {
		return
	}
	acks := make([]protocol.PlayerInputAck, 0, sh.PlayerAckCount)
	for i := uint32(0); i < sh.PlayerAckCount; i++ {
		a, err := protocol.DecodePlayerInputAck(r)
		if err != nil {
			return
		}
		acks = append(acks, a)
	}
	entities := make([]protocol.EntityState, 0, sh.EntityCount)
	for i := uint32(0); i < sh.EntityCount; i++ {
		e, err := protocol.DecodeEntityState(r)
		if err != nil {
			return
		}
		entities = append(entities, e)
	}
	before := c.pred.PendingCount()
	c.pred.OnSnapshot(sh.SnapshotSeq, acks, entities, time.Now())
	x, y := c.pred.LocalPosition()
	c.logger.Printf("snapshot seq=%d pendingBefore=%d pendingAfter=%d pos=(%.1f,%.1f)", sh.SnapshotSeq, before, c.pred.PendingCount(), x, y)
}

func (c *demoClient) send(typ protocol.PacketType, payload []byte) error {
	frame, err := protocol.EncodeFrame(typ, c.sendSeq, uint32(time.Now().UnixMilli()), payload, false)
	if err != nil {
		return err
	}
	c.sendSeq++
	_, err = c.conn.Write(frame)
	return err
}

func (c *demoClient) recv(timeout time.Duration) (protocol.Header, []byte, error) {
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 4096)
	n, err := c.conn.Read(buf)
	if err != nil {
		return protocol.Header{}, nil, err
	}
	return protocol.DecodeFrame(buf[:n])
}
