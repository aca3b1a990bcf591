// Package session implements the per-endpoint session table described in
// spec §3/§4.D: one Session per distinct UDP endpoint, created on first
// valid frame, destroyed on CLIENT_DISCONNECT or timeout.
package session

import (
	"net"
	"time"
)

// Session is one connected endpoint's server-side state. Sessions own
// their player slot exclusively; the room manager only borrows playerIDs
// by value (spec §3 "Ownership").
type Session struct {
	Endpoint           *net.UDPAddr
	PlayerID           uint8
	LastPacketTime     time.Time
	RoomID             uint32 // 0 = none
	LastClientSequence uint32
}

// key returns the map key for an endpoint: its string form, the same way
// the teacher's client table was keyed off addr.String().
func key(addr *net.UDPAddr) string { return addr.String() }
