package value

import "sync/atomic"

// PresenceState is the availability of the device behind a leaf.
type PresenceState int32

const (
	PresenceAbsent PresenceState = iota
	PresencePresent
)

func (s PresenceState) String() string {
	if s == PresencePresent {
		return "present"
	}
	return "absent"
}

// Presence reports whether the device behind a leaf is currently present.
// Implementations must be non-blocking and safe for concurrent use.
type Presence interface {
	State() PresenceState
}

// PresenceFunc adapts a function to Presence.
type PresenceFunc func() PresenceState

// State implements Presence.
func (f PresenceFunc) State() PresenceState { return f() }

// AlwaysPresent is a Presence for devices that cannot disappear.
var AlwaysPresent Presence = PresenceFunc(func() PresenceState { return PresencePresent })

// PresenceSwitch is a settable Presence, updated by whatever tracks device
// connectivity.
type PresenceSwitch struct {
	state atomic.Int32
}

// NewPresenceSwitch returns a switch in the given state.
func NewPresenceSwitch(initial PresenceState) *PresenceSwitch {
	s := &PresenceSwitch{}
	s.state.Store(int32(initial))
	return s
}

// Set changes the reported state.
func (s *PresenceSwitch) Set(state PresenceState) { s.state.Store(int32(state)) }

// State implements Presence.
func (s *PresenceSwitch) State() PresenceState { return PresenceState(s.state.Load()) }
