// Package predictor implements the client side of the prediction/
// reconciliation split described in spec §4.H: the local ship is rendered
// from an optimistic forward-simulated position that is corrected against
// authoritative snapshots, while remote entities are rendered from a
// one-interval-behind interpolation buffer. Grounded on
// networking/client/client.go's predictionQueue/reconcileState pair,
// generalized from a toy 3D mover into the same 2D movement model
// internal/sim's integrate.go uses server-side, since a predictor that
// doesn't share its host's movement math can never reconcile to zero error.
package predictor

import (
	"math"
	"time"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/protocol"
)

// maxPendingInputs bounds the pendingInputs FIFO (spec §4.H "bounded,
// e.g., 120 entries") independent of ack arrival, the same way the
// teacher's predictionQueue caps itself at 64 regardless of reconciliation.
const maxPendingInputs = 120

// PendingInput is one not-yet-acknowledged CLIENT_INPUT the client applied
// optimistically and must be ready to replay.
type PendingInput struct {
	Seq         uint32
	InputMask   uint8
	ChargeLevel uint8
	DtSeconds   float64
}

// RemoteSample is one authoritative position for a remote entity, stamped
// with this client's local arrival clock rather than the server's tick
// time, since interpolation renders against local wall-clock elapsed time.
type RemoteSample struct {
	X, Y      float32
	ArrivedAt time.Time
}

// interpolationEntry holds the two most recent authoritative samples for
// one remote entity (spec §4.H "InterpolationBuffer"). hasTwo is false
// until a second sample arrives, matching the "has two snapshots" flag.
type interpolationEntry struct {
	previous RemoteSample
	current  RemoteSample
	hasTwo   bool
}

// Predictor is one client's local-ship predictor plus its remote-entity
// interpolation buffers. It is not safe for concurrent use; a client drives
// it from a single render/network-receive loop.
type Predictor struct {
	cfg           config.Config
	localPlayerID uint8

	predictedX, predictedY float32
	pendingInputs          []PendingInput

	lastAppliedSnapshotSeq uint32
	hasAppliedSnapshot     bool

	remotes map[uint32]*interpolationEntry
}

// New returns a Predictor seeded at (startX, startY) — the deterministic
// spawn position the server will also compute for this player (spec
// §4.I spawn offsets).
func New(cfg config.Config, localPlayerID uint8, startX, startY float32) *Predictor {
	return &Predictor{
		cfg:           cfg,
		localPlayerID: localPlayerID,
		predictedX:    startX,
		predictedY:    startY,
		remotes:       make(map[uint32]*interpolationEntry),
	}
}

// LocalPosition returns the client's current best guess of its own ship,
// rendered directly with no interpolation (spec §4.H step 4).
func (p *Predictor) LocalPosition() (x, y float32) { return p.predictedX, p.predictedY }

// PendingCount reports how many unacknowledged inputs are queued, mostly
// useful for connection-quality diagnostics.
func (p *Predictor) PendingCount() int { return len(p.pendingInputs) }

// stepMovement applies one input mask for dt seconds using exactly the
// model internal/sim's applyPlayerVelocity + clamp pass uses server-side:
// same speed, same clamping rectangle, no acceleration/friction. Sharing
// this function between ApplyLocalInput and reconciliation's replay is
// what makes the replayed position reproduce the server's position
// bit-for-bit absent divergence (spec §8 scenario 4).
func (p *Predictor) stepMovement(x, y float32, mask uint8, dt float64) (float32, float32) {
	speed := float32(p.cfg.PlayerSpeed)
	var vx, vy float32
	if mask&protocol.InputLeft != 0 {
		vx -= speed
	}
	if mask&protocol.InputRight != 0 {
		vx += speed
	}
	if mask&protocol.InputUp != 0 {
		vy -= speed
	}
	if mask&protocol.InputDown != 0 {
		vy += speed
	}

	x += float32(float64(vx) * dt)
	y += float32(float64(vy) * dt)

	bounds := p.cfg.MovementBounds
	if float64(x) < bounds.MinX {
		x = float32(bounds.MinX)
	} else if float64(x) > bounds.MaxX {
		x = float32(bounds.MaxX)
	}
	if float64(y) < bounds.MinY {
		y = float32(bounds.MinY)
	} else if float64(y) > bounds.MaxY {
		y = float32(bounds.MaxY)
	}
	return x, y
}

// ApplyLocalInput is step 2 of the client frame in spec §4.H: apply the
// input immediately to the predicted position, then remember it for
// replay. Callers allocate seq monotonically (previous + 1) and are
// responsible for actually sending the CLIENT_INPUT packet (step 3) — this
// package only owns the predicted-state bookkeeping.
func (p *Predictor) ApplyLocalInput(seq uint32, mask uint8, chargeLevel uint8, dt float64) {
	p.predictedX, p.predictedY = p.stepMovement(p.predictedX, p.predictedY, mask, dt)

	p.pendingInputs = append(p.pendingInputs, PendingInput{
		Seq:         seq,
		InputMask:   mask,
		ChargeLevel: chargeLevel,
		DtSeconds:   dt,
	})
	if len(p.pendingInputs) > maxPendingInputs {
		p.pendingInputs = p.pendingInputs[len(p.pendingInputs)-maxPendingInputs:]
	}
}

// OnSnapshot processes one ENTITY_UPDATE: drops acknowledged pending
// inputs, reconciles the local ship, and folds every remote entity into
// its interpolation buffer. Returns false without touching any state if
// snapshotSeq is stale (spec §4.H "reject any snapshot whose snapshotSeq
// <= the highest one already applied").
func (p *Predictor) OnSnapshot(snapshotSeq uint32, acks []protocol.PlayerInputAck, entities []protocol.EntityState, now time.Time) bool {
	if p.hasAppliedSnapshot && snapshotSeq <= p.lastAppliedSnapshotSeq {
		return false
	}
	p.lastAppliedSnapshotSeq = snapshotSeq
	p.hasAppliedSnapshot = true

	for _, a := range acks {
		if a.PlayerID == p.localPlayerID {
			p.dropAcked(a.LastProcessedInputSeq)
			break
		}
	}

	var localState *protocol.EntityState
	for i := range entities {
		e := entities[i]
		if e.Type == protocol.KindPlayer && e.PlayerID == p.localPlayerID {
			localState = &entities[i]
			continue
		}
		p.pushRemote(e, now)
	}
	if localState != nil {
		p.reconcileLocal(*localState)
	}
	return true
}

// dropAcked discards every pendingInput at or below acked (spec §4.H
// "drop all pendingInputs with seq <= ackedSeq").
func (p *Predictor) dropAcked(acked uint32) {
	idx := 0
	for idx < len(p.pendingInputs) && p.pendingInputs[idx].Seq <= acked {
		idx++
	}
	p.pendingInputs = p.pendingInputs[idx:]
}

// reconcileLocal replays every still-pending input on top of the
// authoritative position and snaps to the replayed result only if it
// diverges from the current prediction by more than the configured
// threshold (spec §4.H, §9 "prediction threshold is a heuristic, keep it
// configurable").
func (p *Predictor) reconcileLocal(authoritative protocol.EntityState) {
	x, y := authoritative.X, authoritative.Y
	for _, in := range p.pendingInputs {
		x, y = p.stepMovement(x, y, in.InputMask, in.DtSeconds)
	}

	errX := float64(x - p.predictedX)
	errY := float64(y - p.predictedY)
	errMag := math.Sqrt(errX*errX + errY*errY)

	if errMag > p.cfg.PredictionSnapThresholdPx {
		p.predictedX, p.predictedY = x, y
	}
}

// pushRemote records e as the newest authoritative sample for a remote
// entity, sliding the previous "current" into "previous" (spec §4.H "the
// previous current becomes previous").
func (p *Predictor) pushRemote(e protocol.EntityState, now time.Time) {
	buf, ok := p.remotes[e.ID]
	if !ok {
		buf = &interpolationEntry{}
		p.remotes[e.ID] = buf
	}
	if !buf.current.ArrivedAt.IsZero() {
		buf.previous = buf.current
		buf.hasTwo = true
	}
	buf.current = RemoteSample{X: e.X, Y: e.Y, ArrivedAt: now}
}

// PruneRemote drops the interpolation buffer for an entity that has been
// destroyed, so a stale ENTITY_DESTROY'd id doesn't linger in the map
// forever.
func (p *Predictor) PruneRemote(entityID uint32) {
	delete(p.remotes, entityID)
}

// RenderRemote computes entityID's interpolated position at localClock,
// rendering one snapshot interval behind the latest authoritative sample
// (spec §4.H "Interpolation for remote entities"). ok is false if no
// sample has ever been recorded for entityID. Before a second sample
// arrives there is nothing to interpolate between, so the single known
// sample is rendered directly rather than held back — extrapolation is
// still never performed.
func (p *Predictor) RenderRemote(entityID uint32, localClock time.Time, snapshotInterval time.Duration) (x, y float32, ok bool) {
	buf, exists := p.remotes[entityID]
	if !exists {
		return 0, 0, false
	}
	if !buf.hasTwo {
		return buf.current.X, buf.current.Y, true
	}

	t := localClock.Sub(buf.current.ArrivedAt).Seconds() / snapshotInterval.Seconds()
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	x = buf.previous.X + float32(t)*(buf.current.X-buf.previous.X)
	y = buf.previous.Y + float32(t)*(buf.current.Y-buf.previous.Y)
	return x, y, true
}
