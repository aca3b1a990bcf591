package session

import (
	"net"
	"sync"
	"time"
)

// Table is the session table: a map from endpoint to Session guarded by a
// single mutex, always held for the full duration of any compound
// read-modify-write (spec §4.D, §5).
type Table struct {
	mu           sync.Mutex
	byEndpoint   map[string]*Session
	nextPlayerID uint8
}

// NewTable returns an empty session table. playerIDs are allocated
// monotonically starting at 1 (0 is reserved to mean "no owner" on
// entities).
func NewTable() *Table {
	return &Table{
		byEndpoint:   make(map[string]*Session),
		nextPlayerID: 1,
	}
}

// GetOrCreate returns the existing session for addr, or creates one and
// assigns it the next playerID. created reports which happened. Every
// call — hit or miss — refreshes LastPacketTime, which is the keep-alive
// mechanism: any received packet counts (spec §4.D, §5).
func (t *Table) GetOrCreate(addr *net.UDPAddr, now time.Time) (sess *Session, created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(addr)
	if s, ok := t.byEndpoint[k]; ok {
		s.LastPacketTime = now
		return s, false
	}

	s := &Session{
		Endpoint:       addr,
		PlayerID:       t.nextPlayerID,
		LastPacketTime: now,
	}
	t.nextPlayerID++
	t.byEndpoint[k] = s
	return s, true
}

// Touch refreshes a known session's keep-alive clock and records its last
// client sequence number (kept for duplicate hints, not ordering — spec
// §4.D).
func (t *Table) Touch(addr *net.UDPAddr, now time.Time, clientSeq uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byEndpoint[key(addr)]; ok {
		s.LastPacketTime = now
		s.LastClientSequence = clientSeq
	}
}

// Get returns the session for addr, if any.
func (t *Table) Get(addr *net.UDPAddr) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byEndpoint[key(addr)]
	return s, ok
}

// Remove deletes the session for addr, e.g. on CLIENT_DISCONNECT.
func (t *Table) Remove(addr *net.UDPAddr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byEndpoint, key(addr))
}

// SweepTimeouts removes every session whose LastPacketTime is older than
// timeout and returns the removed sessions, so the caller (dispatch layer)
// can trigger entity cleanup and host reassignment for each (spec §4.D).
func (t *Table) SweepTimeouts(now time.Time, timeout time.Duration) []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []*Session
	for k, s := range t.byEndpoint {
		if now.Sub(s.LastPacketTime) > timeout {
			removed = append(removed, s)
			delete(t.byEndpoint, k)
		}
	}
	return removed
}

// SetRoom records which room a session currently belongs to (0 = none).
func (t *Table) SetRoom(addr *net.UDPAddr, roomID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byEndpoint[key(addr)]; ok {
		s.RoomID = roomID
	}
}

// ByPlayerID scans the table for the session owning playerID. The table is
// small enough (bounded by concurrent connections) that a linear scan under
// the single lock is simpler and cheap enough — the spec explicitly warns
// against premature lock-free optimization here (spec §9).
func (t *Table) ByPlayerID(playerID uint8) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.byEndpoint {
		if s.PlayerID == playerID {
			return s, true
		}
	}
	return nil, false
}

// Snapshot returns a value copy of every session, safe to use outside the
// lock.
func (t *Table) Snapshot() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Session, 0, len(t.byEndpoint))
	for _, s := range t.byEndpoint {
		out = append(out, *s)
	}
	return out
}

// Len reports the current number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byEndpoint)
}
