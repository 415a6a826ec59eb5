package twinhub

// ConnectionState represents the health of the connection to the backend.
// States are ordered by severity; the tracker only moves to a state of
// equal-or-worse severity unless explicitly reset by connected() or
// disconnected().
type ConnectionState int

// Possible connection states, ordered from healthiest to worst.
const (
	StateConnected ConnectionState = iota
	StateBuffering
	StateBackPressure
	StateReconnecting
	StateBufferFull
	StateDisconnected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateBuffering:
		return "buffering"
	case StateBackPressure:
		return "back_pressure"
	case StateReconnecting:
		return "reconnecting"
	case StateBufferFull:
		return "buffer_full"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// stateTracker guards connection-state transitions and notifies an observer
// on every change. It has no internal locking: the owning resilience handler
// serializes all access.
type stateTracker struct {
	state    ConnectionState
	observer func(ConnectionState)
}

func newStateTracker(observer func(ConnectionState)) *stateTracker {
	return &stateTracker{state: StateConnected, observer: observer}
}

func (t *stateTracker) current() ConnectionState {
	return t.state
}

// isBuffering reports whether outgoing correlated requests must be buffered.
func (t *stateTracker) isBuffering() bool {
	return t.state >= StateBuffering
}

// canSend reports whether fire-and-forget messages may be written directly.
func (t *stateTracker) canSend() bool {
	return t.state < StateBackPressure
}

// isWorking reports whether the connection is still usable or recovering.
// Once false the only exit is an explicit reconnection success.
func (t *stateTracker) isWorking() bool {
	return t.state < StateDisconnected
}

func (t *stateTracker) set(s ConnectionState) {
	t.state = s
	if t.observer != nil {
		t.observer(s)
	}
}

// connected resets the tracker to healthy. It is a no-op once disconnected.
func (t *stateTracker) connected() {
	if t.state != StateConnected && t.state != StateDisconnected {
		t.set(StateConnected)
	}
}

// buffering upgrades from Connected only: it never downgrades a state of
// worse severity.
func (t *stateTracker) buffering() {
	if t.state < StateBuffering {
		t.set(StateBuffering)
	}
}

func (t *stateTracker) backPressure() {
	if t.state < StateBackPressure {
		t.set(StateBackPressure)
	}
}

func (t *stateTracker) reconnecting() {
	if t.state < StateReconnecting {
		t.set(StateReconnecting)
	}
}

func (t *stateTracker) bufferFull() {
	if t.state != StateBufferFull && t.state != StateDisconnected {
		t.set(StateBufferFull)
	}
}

// disconnected is terminal: every other transition is blocked afterwards
// until a reconnection success resets the tracker via reset().
func (t *stateTracker) disconnected() {
	if t.state != StateDisconnected {
		t.set(StateDisconnected)
	}
}

// reset unconditionally returns the tracker to Connected. Used only after a
// successful explicit reconnection.
func (t *stateTracker) reset() {
	if t.state != StateConnected {
		t.set(StateConnected)
	}
}
