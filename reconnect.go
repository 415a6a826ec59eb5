package twinhub

import (
	"context"
	"fmt"
	"time"
)

// backoff implements exponential backoff with a maximum delay.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

func (b *backoff) next() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	if d > b.max {
		d = b.max
	}
	return d
}

func (b *backoff) reset() {
	b.current = b.initial
}

const (
	reconnectInitialDelay = 1 * time.Second
	reconnectMaxDelay     = 30 * time.Second
)

// redial repeatedly attempts to re-establish the transport with capped
// exponential backoff, giving up after attempts tries or when ctx is
// cancelled. It is the "promise of a new transport" resolved by the
// resilience handler after an unexpected close.
func redial(ctx context.Context, attempts int, dial func(context.Context) (Transport, error)) (Transport, error) {
	b := newBackoff(reconnectInitialDelay, reconnectMaxDelay)

	var lastErr error
	for i := 0; i < attempts; i++ {
		tr, err := dial(ctx)
		if err == nil {
			return tr, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.next()):
		}
	}
	return nil, fmt.Errorf("reconnect gave up after %d attempts: %w", attempts, lastErr)
}
