package snapshot

import (
	"github.com/57ave/rtype-server/internal/protocol"
	"github.com/57ave/rtype-server/internal/sim"
)

// Emitter builds one room's ENTITY_UPDATE stream: a delta cache plus a
// monotonic snapshot sequence counter, independent of the room's
// CLIENT_INPUT sequence space.
type Emitter struct {
	cache *Cache
	seq   uint32
}

// NewEmitter returns an emitter with an empty cache, so its first Build call
// always reports every live entity as changed.
func NewEmitter() *Emitter {
	return &Emitter{cache: NewCache()}
}

// ForceFullNext clears the cache so the next Build call emits every live
// entity regardless of whether it changed, e.g. right after a room enters
// PLAYING and members need their first full world view.
func (e *Emitter) ForceFullNext() {
	e.cache.Reset()
}

// Build returns the encoded ENTITY_UPDATE frame for one tick, carrying an
// input ack for every member in memberIDs that has a processed input in
// world, and whether there is anything to send. A tick with no changed entities and no
// forced full send returns ok=false and sends nothing, since an empty
// snapshot would just waste a datagram (spec §4.G "skip if nothing changed").
func (e *Emitter) Build(world *sim.World, memberIDs []uint8, timestampMs uint32, full bool) (frame []byte, ok bool, err error) {
	live := world.Snapshot()
	visible := make([]protocol.EntityState, 0, len(live))
	for _, s := range live {
		// EXPLOSION entities are one-shot cosmetic effects: clients learn
		// about them from ENTITY_SPAWN and their own lifetime-expiry
		// ENTITY_DESTROY, never from the periodic delta stream.
		if s.Type == protocol.KindExplosion {
			continue
		}
		visible = append(visible, s)
	}

	changed := e.cache.Diff(visible, full)
	if len(changed) == 0 && !full {
		return nil, false, nil
	}

	acks := make([]protocol.PlayerInputAck, 0, len(memberIDs))
	for _, pid := range memberIDs {
		seq, has := world.LastProcessedSeq(pid)
		if !has {
			continue
		}
		acks = append(acks, protocol.PlayerInputAck{PlayerID: pid, LastProcessedInputSeq: seq})
	}

	e.seq++
	header := protocol.SnapshotHeader{
		EntityCount:    uint32(len(changed)),
		SnapshotSeq:    e.seq,
		PlayerAckCount: uint32(len(acks)),
	}

	w := protocol.NewWriter(32 + len(acks)*5 + len(changed)*protocol.EntityStateSize)
	header.Encode(w)
	for _, a := range acks {
		a.Encode(w)
	}
	for _, s := range changed {
		s.Encode(w)
	}

	frame, err = protocol.EncodeFrame(protocol.EntityUpdate, e.seq, timestampMs, w.Bytes(), false)
	if err != nil {
		return nil, false, err
	}
	return frame, true, nil
}

// EncodeSpawn builds one ENTITY_SPAWN frame announcing a newly created
// entity, used alongside Build for entities World.Step reports as spawned
// this tick (spec §4.G).
func EncodeSpawn(e protocol.EntityState, seq uint32, timestampMs uint32) ([]byte, error) {
	w := protocol.NewWriter(protocol.EntityStateSize)
	e.Encode(w)
	return protocol.EncodeFrame(protocol.EntitySpawn, seq, timestampMs, w.Bytes(), false)
}

// EncodeDestroy builds one ENTITY_DESTROY frame for an entity World.Step
// reports as removed this tick.
func EncodeDestroy(entityID uint32, seq uint32, timestampMs uint32) ([]byte, error) {
	w := protocol.NewWriter(4)
	protocol.EntityDestroyPayload{EntityID: entityID}.Encode(w)
	return protocol.EncodeFrame(protocol.EntityDestroy, seq, timestampMs, w.Bytes(), false)
}
