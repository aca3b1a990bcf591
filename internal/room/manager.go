package room

import "sync"

// Manager owns every room behind a single lock (spec §4.E: "all operations
// take a single manager-level lock. Rooms are never exposed by borrowed
// reference outside the lock.") — grounded on the teacher's
// Server.rooms map, generalized from an ad hoc map-plus-per-call-locking
// scheme into one small type with that invariant enforced centrally.
type Manager struct {
	mu         sync.Mutex
	rooms      map[uint32]*Room
	nextRoomID uint32
}

// NewManager returns an empty room manager. Room IDs are allocated
// monotonically starting at 1.
func NewManager() *Manager {
	return &Manager{
		rooms:      make(map[uint32]*Room),
		nextRoomID: 1,
	}
}

// CreateRoom allocates and inserts a room. The host is NOT automatically a
// member — the caller issues a subsequent JoinRoom (spec §4.E).
func (m *Manager) CreateRoom(name string, maxPlayers uint8, hostID uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextRoomID
	m.nextRoomID++

	m.rooms[id] = &Room{
		ID:           id,
		Name:         name,
		MaxPlayers:   maxPlayers,
		HostPlayerID: hostID,
		State:        Waiting,
		Ready:        make(map[uint32]bool),
	}
	return id
}

// JoinRoom adds playerID to room id. Fails (returns false) if the room
// doesn't exist, is full, or isn't WAITING. Joining a room the player is
// already a member of is a no-op that returns true (spec §4.E).
func (m *Manager) JoinRoom(id uint32, playerID uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return false
	}
	if r.Member(playerID) {
		return true
	}
	if r.State != Waiting {
		return false
	}
	if len(r.PlayerIDs) >= int(r.MaxPlayers) {
		return false
	}

	r.PlayerIDs = append(r.PlayerIDs, playerID)
	r.Ready[playerID] = false
	return true
}

// LeaveRoom removes playerID's membership and ready flag. If the room
// becomes empty it is destroyed; otherwise, if the leaver was host, host
// is reassigned to the earliest-joined remaining member (spec §3, §4.E).
// Returns whether the room still exists afterward, so the caller can
// decide whether to broadcast ROOM_UPDATE or treat it as gone.
func (m *Manager) LeaveRoom(id uint32, playerID uint32) (stillExists bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return false
	}

	idx := -1
	for i, pid := range r.PlayerIDs {
		if pid == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Not a member: a no-op, the room is unaffected either way.
		return true
	}

	r.PlayerIDs = append(r.PlayerIDs[:idx], r.PlayerIDs[idx+1:]...)
	delete(r.Ready, playerID)

	if len(r.PlayerIDs) == 0 {
		delete(m.rooms, id)
		return false
	}

	if r.HostPlayerID == playerID {
		r.HostPlayerID = r.PlayerIDs[0]
	}
	return true
}

// SetReady sets playerID's ready flag. Fails if playerID is not a member
// of the room (spec §4.E).
func (m *Manager) SetReady(id uint32, playerID uint32, ready bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok || !r.Member(playerID) {
		return false
	}
	r.Ready[playerID] = ready
	return true
}

// AllReady reports whether room id has at least one member and every
// member is ready. A non-existent room is never "all ready".
func (m *Manager) AllReady(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return false
	}
	return r.AllReady()
}

// Get returns a value copy of the room, safe to use outside the lock.
func (m *Manager) Get(id uint32) (Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return Room{}, false
	}
	return r.clone(), true
}

// ListRooms returns a value-copy snapshot of every room, safe to use
// outside the lock (spec §4.E listRooms).
func (m *Manager) ListRooms() []Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.clone())
	}
	return out
}

// RenameRoom lets the current host rename their room. Fails if the room
// doesn't exist or requesterID is not the host. This has no packet of its
// own on the wire and the dispatcher does not call it; it keeps host-driven
// lobby bookkeeping inside the manager's lock.
func (m *Manager) RenameRoom(id uint32, requesterID uint32, newName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok || r.HostPlayerID != requesterID {
		return false
	}
	r.Name = newName
	return true
}

// SetState transitions a room's lifecycle state directly. Used by the
// dispatcher for GAME_START (Waiting -> Playing) and round-end resets
// (-> Waiting).
func (m *Manager) SetState(id uint32, s State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return false
	}
	r.State = s
	return true
}

// ResetReady clears every member's ready flag, used when a room returns to
// WAITING after a finished round (spec §3 supplemented: score tallying
// returns a finished room to WAITING rather than destroying it).
func (m *Manager) ResetReady(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return
	}
	for pid := range r.Ready {
		r.Ready[pid] = false
	}
}

// SetCurrentLevel records which level the room's timeline is on; the
// dispatcher sets it on LEVEL_CHANGE, and it is readable through Get.
func (m *Manager) SetCurrentLevel(id uint32, level int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return false
	}
	r.CurrentLevel = level
	return true
}
