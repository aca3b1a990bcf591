// Package snapshot builds the per-room ENTITY_UPDATE payload: it tracks the
// last state broadcast for each entity, emits only what changed since then,
// and piggybacks each member's latest acknowledged input sequence (spec
// §4.G).
package snapshot

import "github.com/57ave/rtype-server/internal/protocol"

// Cache holds the last entity state emitted to a room's snapshot stream, so
// Emitter can tell which entities actually need to go out this tick.
type Cache struct {
	last map[uint32]protocol.EntityState
}

// NewCache returns an empty per-room cache.
func NewCache() *Cache {
	return &Cache{last: make(map[uint32]protocol.EntityState)}
}

// Diff returns the subset of live that changed (by protocol.EntityState.Equal)
// since it was last reported, or every entity in live if full is true; only
// reported entities update their cache entry. It also
// prunes cache entries for ids no longer present in live — those go out
// separately as ENTITY_DESTROY, not as part of the delta snapshot.
func (c *Cache) Diff(live []protocol.EntityState, full bool) []protocol.EntityState {
	stillPresent := make(map[uint32]bool, len(live))
	changed := make([]protocol.EntityState, 0, len(live))

	for _, e := range live {
		stillPresent[e.ID] = true
		prev, ok := c.last[e.ID]
		if full || !ok || !prev.Equal(e) {
			changed = append(changed, e)
			c.last[e.ID] = e
		}
	}

	for id := range c.last {
		if !stillPresent[id] {
			delete(c.last, id)
		}
	}

	return changed
}

// Reset clears all cached state, forcing the next Diff call to report every
// live entity as changed. Used when a room transitions WAITING -> PLAYING
// and the first snapshot of a round must be a full one.
func (c *Cache) Reset() {
	c.last = make(map[uint32]protocol.EntityState)
}
