package transport

// State is the connection state of a Transport.
type State int32

const (
	StateInit State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// StateChange is emitted on every state transition.
type StateChange struct {
	State    State
	Previous State
	// Attempt is the number of reconnect attempts made since the last drop.
	Attempt int
	// Err is the failure that caused the transition, if any.
	Err error
}
