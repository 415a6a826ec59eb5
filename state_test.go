package twinhub

import "testing"

func TestStateTracker_InitialState(t *testing.T) {
	tr := newStateTracker(nil)
	if tr.current() != StateConnected {
		t.Fatalf("initial state = %v, want %v", tr.current(), StateConnected)
	}
}

func TestStateTracker_Monotonicity(t *testing.T) {
	tr := newStateTracker(nil)

	tr.backPressure()
	if tr.current() != StateBackPressure {
		t.Fatalf("state = %v, want %v", tr.current(), StateBackPressure)
	}

	// buffering must not downgrade below BackPressure severity
	tr.buffering()
	if tr.current() != StateBackPressure {
		t.Errorf("buffering() downgraded state to %v", tr.current())
	}

	tr.reconnecting()
	if tr.current() != StateReconnecting {
		t.Errorf("state = %v, want %v", tr.current(), StateReconnecting)
	}

	// backPressure must not downgrade below Reconnecting severity
	tr.backPressure()
	if tr.current() != StateReconnecting {
		t.Errorf("backPressure() downgraded state to %v", tr.current())
	}
}

func TestStateTracker_ConnectedResets(t *testing.T) {
	tr := newStateTracker(nil)

	tr.backPressure()
	tr.connected()
	if tr.current() != StateConnected {
		t.Errorf("connected() should reset from BackPressure, state = %v", tr.current())
	}

	tr.bufferFull()
	tr.connected()
	if tr.current() != StateConnected {
		t.Errorf("connected() should reset from BufferFull, state = %v", tr.current())
	}
}

func TestStateTracker_DisconnectedIsTerminal(t *testing.T) {
	tr := newStateTracker(nil)
	tr.disconnected()

	tr.connected()
	if tr.current() != StateDisconnected {
		t.Errorf("connected() after disconnected() changed state to %v", tr.current())
	}
	tr.buffering()
	if tr.current() != StateDisconnected {
		t.Errorf("buffering() after disconnected() changed state to %v", tr.current())
	}
	tr.bufferFull()
	if tr.current() != StateDisconnected {
		t.Errorf("bufferFull() after disconnected() changed state to %v", tr.current())
	}

	// explicit reconnection success is the only way back
	tr.reset()
	if tr.current() != StateConnected {
		t.Errorf("reset() should return to Connected, state = %v", tr.current())
	}
}

func TestStateTracker_Thresholds(t *testing.T) {
	tr := newStateTracker(nil)

	if tr.isBuffering() {
		t.Error("isBuffering() should be false while Connected")
	}
	if !tr.canSend() {
		t.Error("canSend() should be true while Connected")
	}
	if !tr.isWorking() {
		t.Error("isWorking() should be true while Connected")
	}

	tr.buffering()
	if !tr.isBuffering() {
		t.Error("isBuffering() should be true while Buffering")
	}
	if !tr.canSend() {
		t.Error("canSend() should still be true while Buffering")
	}

	tr.backPressure()
	if tr.canSend() {
		t.Error("canSend() should be false under BackPressure")
	}
	if !tr.isWorking() {
		t.Error("isWorking() should be true under BackPressure")
	}

	tr.disconnected()
	if tr.isWorking() {
		t.Error("isWorking() should be false once Disconnected")
	}
}

func TestStateTracker_ObserverNotified(t *testing.T) {
	var seen []ConnectionState
	tr := newStateTracker(func(s ConnectionState) {
		seen = append(seen, s)
	})

	tr.buffering()
	tr.buffering() // no-op, no notification
	tr.backPressure()
	tr.connected()

	want := []ConnectionState{StateBuffering, StateBackPressure, StateConnected}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observer[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestConnectionState_String(t *testing.T) {
	if StateBackPressure.String() != "back_pressure" {
		t.Errorf("String() = %q", StateBackPressure.String())
	}
	if ConnectionState(42).String() != "unknown" {
		t.Errorf("String() for unknown value = %q", ConnectionState(42).String())
	}
}
