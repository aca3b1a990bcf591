// Package room implements the lobby-side room state machine: create, join,
// leave, ready-up, and host ownership transfer (spec §3 "Room", §4.E).
package room

// State is a room's lifecycle phase.
type State int

const (
	// Waiting is the lobby state: players may join, ready up, and the
	// host may issue GAME_START once quorum is reached.
	Waiting State = iota
	// Playing is the active-game state: CLIENT_INPUT is accepted, the
	// simulation advances the room's entities each tick.
	Playing
	// Paused is a host-toggled suspension of Playing; the simulation
	// does not advance but membership and entities are preserved.
	Paused
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Room is one lobby/game instance. Membership order is insertion order,
// which doubles as ship-color (playerLine) assignment order (spec §3).
// Rooms are never handed out by reference outside the Manager's lock —
// see Manager.Get / Manager.ListRooms, which return value copies.
type Room struct {
	ID            uint32
	Name          string
	MaxPlayers    uint8
	HostPlayerID  uint32
	State         State
	PlayerIDs     []uint32
	Ready         map[uint32]bool
	CurrentLevel  int
}

// Member reports whether playerID currently belongs to the room.
func (r *Room) Member(playerID uint32) bool {
	for _, id := range r.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// AllReady is true iff the room has at least one member and every member
// has readied up (spec §4.E allReady).
func (r *Room) AllReady() bool {
	if len(r.PlayerIDs) == 0 {
		return false
	}
	for _, id := range r.PlayerIDs {
		if !r.Ready[id] {
			return false
		}
	}
	return true
}

// clone returns a deep-enough value copy safe to hand to a caller outside
// the manager's lock: the PlayerIDs slice and Ready map are copied, not
// shared.
func (r *Room) clone() Room {
	out := *r
	out.PlayerIDs = append([]uint32(nil), r.PlayerIDs...)
	out.Ready = make(map[uint32]bool, len(r.Ready))
	for k, v := range r.Ready {
		out.Ready[k] = v
	}
	return out
}
