package session

import (
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/57ave/rtype-server/internal/protocol"
)

// scratchBufferSize is the receive scratch buffer; a single non-blocking
// socket drives both directions, as in the teacher's networkLoop (spec
// §4.D, §5).
const scratchBufferSize = 64 * 1024

// Inbound is one validated, framed datagram handed to the dispatcher.
type Inbound struct {
	Header  protocol.Header
	Payload []byte
	Addr    *net.UDPAddr
}

type outboundDatagram struct {
	data []byte
	addr *net.UDPAddr
}

// Transport owns the UDP socket and the cross-thread queues that are the
// only channels between the I/O goroutine and the simulation goroutine
// (spec §5). Receive parses and validates a frame before it ever reaches
// the queue; malformed frames are dropped and counted here, never
// propagated.
type Transport struct {
	conn *net.UDPConn

	inbound   chan Inbound
	outbound  chan outboundDatagram

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	rateLimit rate.Limit
	rateBurst int

	malformedCount int64
	droppedCount   int64

	logger *log.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewTransport binds a UDP socket on port and returns a Transport ready for
// RecvLoop and SendLoop. ratePerSecond/burst bound how many datagrams any
// single endpoint may submit, checked before a frame is parsed or reaches
// the session table — a cheap defensive cap independent of the
// simulation's own fire-rate limiting.
func NewTransport(port int, ratePerSecond float64, burst int, logger *log.Logger) (*Transport, error) {
	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	return &Transport{
		conn:      conn,
		inbound:   make(chan Inbound, 4096),
		outbound:  make(chan outboundDatagram, 4096),
		limiters:  make(map[string]*rate.Limiter),
		rateLimit: rate.Limit(ratePerSecond),
		rateBurst: burst,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Inbound returns the channel the dispatcher drains each tick.
func (t *Transport) Inbound() <-chan Inbound { return t.inbound }

// MalformedCount reports how many frames were dropped for magic/version or
// decode errors since start.
func (t *Transport) MalformedCount() int64 { return atomic.LoadInt64(&t.malformedCount) }

// DroppedCount reports how many frames were dropped for any other reason
// (full inbound queue, rate limit).
func (t *Transport) DroppedCount() int64 { return atomic.LoadInt64(&t.droppedCount) }

// RecvLoop is the tight receive loop: recv into a scratch buffer, parse the
// header, validate, enqueue. It never blocks on the simulation; a full
// inbound queue just drops the frame (spec §4.D, §5). Call this in its own
// goroutine; it returns when Close is called.
func (t *Transport) RecvLoop() {
	buf := make([]byte, scratchBufferSize)
	for {
		t.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			continue
		}

		if !t.allow(addr) {
			atomic.AddInt64(&t.droppedCount, 1)
			continue
		}

		h, payload, err := protocol.DecodeFrame(buf[:n])
		if err != nil {
			atomic.AddInt64(&t.malformedCount, 1)
			continue
		}
		if !h.Valid() {
			atomic.AddInt64(&t.malformedCount, 1)
			continue
		}

		select {
		case t.inbound <- Inbound{Header: h, Payload: payload, Addr: addr}:
		default:
			atomic.AddInt64(&t.droppedCount, 1)
		}
	}
}

func (t *Transport) allow(addr *net.UDPAddr) bool {
	if t.rateLimit <= 0 {
		return true
	}
	k := addr.String()

	t.limiterMu.Lock()
	lim, ok := t.limiters[k]
	if !ok {
		lim = rate.NewLimiter(t.rateLimit, t.rateBurst)
		t.limiters[k] = lim
	}
	t.limiterMu.Unlock()

	return lim.Allow()
}

// SendLoop drains the outbound queue and writes datagrams. Sends are
// fire-and-forget: no reliability, no retry (spec §4.D, §9). Call this in
// its own goroutine; it returns when Close is called.
func (t *Transport) SendLoop() {
	for {
		select {
		case dg := <-t.outbound:
			if _, err := t.conn.WriteToUDP(dg.data, dg.addr); err != nil && t.logger != nil {
				t.logger.Printf("send to %s failed: %v", dg.addr, err)
			}
		case <-t.done:
			return
		}
	}
}

// SendTo enqueues a unicast send. Non-blocking from the caller's
// perspective; if the outbound queue is full the datagram is dropped and
// counted.
func (t *Transport) SendTo(data []byte, addr *net.UDPAddr) {
	select {
	case t.outbound <- outboundDatagram{data: data, addr: addr}:
	default:
		atomic.AddInt64(&t.droppedCount, 1)
	}
}

// Broadcast enqueues the same datagram to every address given.
func (t *Transport) Broadcast(data []byte, addrs []*net.UDPAddr) {
	for _, a := range addrs {
		t.SendTo(data, a)
	}
}

// Close stops the receive/send loops and closes the socket. Pending
// outbound datagrams are discarded; there is no graceful drain (spec §5).
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}
