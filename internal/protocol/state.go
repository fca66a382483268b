package protocol

// State names a position in the connection lifecycle. Transitions only
// move forward except for the Active and Degraded pair, which flip on
// abnormal closes and manual reconnects.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateJoined
	StateActive
	StateDegraded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateActive:
		return "active"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
