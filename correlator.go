package twinhub

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ackSuffix marks a protocol acknowledgement frame: binding control messages
// (START-SEND-*/STOP-SEND-*) are echoed back by the backend with this suffix
// appended. Matched by string suffix, not structured parsing.
const ackSuffix = ":ACK"

// responseResult settles a correlated request: exactly one of env or err is set.
type responseResult struct {
	env *Envelope
	err error
}

// correlator assigns correlation ids to outgoing requests, matches inbound
// responses to their pending promises and routes everything else — binding
// acknowledgements to their waiters, unsolicited envelopes to the
// subscription dispatcher. It is the single entry point a transport invokes
// for inbound frames.
type correlator struct {
	mu      sync.Mutex
	handler resilienceHandler
	pending map[string]chan responseResult
	acks    map[string][]chan struct{}

	dispatch func(env *Envelope) bool
	onError  ErrorHandler
}

func newCorrelator(handler resilienceHandler, dispatch func(env *Envelope) bool, onError ErrorHandler) *correlator {
	return &correlator{
		handler:  handler,
		pending:  make(map[string]chan responseResult),
		acks:     make(map[string][]chan struct{}),
		dispatch: dispatch,
		onError:  onError,
	}
}

// request assigns a fresh correlation id to env, registers a pending promise
// for it and hands the serialized request to the resilience handler. The
// returned channel receives exactly one result.
func (c *correlator) request(env *Envelope) (string, <-chan responseResult, error) {
	c.mu.Lock()
	id := c.newCorrelationID()
	ch := make(chan responseResult, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	env.setCorrelationID(id)
	body, err := marshalEnvelope(env)
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return "", nil, err
	}

	c.handler.sendRequest(id, &pendingRequest{
		body:   body,
		reject: func(cause error) { c.handleError(id, cause) },
	})
	return id, ch, nil
}

// newCorrelationID generates a collision-free correlation id, retrying
// generation on the (vanishingly unlikely) collision. Callers hold mu.
func (c *correlator) newCorrelationID() string {
	for {
		id := uuid.New().String()
		if _, taken := c.pending[id]; !taken {
			return id
		}
	}
}

// HandleInput routes one raw inbound frame: acknowledgement frames settle
// their binding waiters, response frames with a pending correlation id go to
// the resilience handler's response path, everything else is treated as an
// unsolicited message.
func (c *correlator) HandleInput(raw string) {
	if strings.HasSuffix(raw, ackSuffix) {
		c.settleAck(strings.TrimSuffix(raw, ackSuffix))
		return
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		c.onError(SDKError{
			Kind:      ErrParseFailure,
			Raw:       raw,
			Cause:     err,
			Timestamp: time.Now(),
		})
		return
	}

	id := env.CorrelationID()
	c.mu.Lock()
	_, isPending := c.pending[id]
	c.mu.Unlock()

	if id != "" && isPending {
		c.handler.handleResponse(id, env)
		return
	}
	c.handler.handleMessage(env)
}

// handleMessage dispatches an unsolicited envelope to the subscription
// matchers. An envelope matching no subscription is reported, not dropped
// silently.
func (c *correlator) handleMessage(env *Envelope) {
	if !c.dispatch(env) {
		c.onError(SDKError{
			Kind:      ErrNoSubscription,
			Topic:     env.Topic,
			Timestamp: time.Now(),
		})
	}
}

// handleResponse resolves the pending promise for id with the response.
func (c *correlator) handleResponse(id string, env *Envelope) {
	c.settle(id, responseResult{env: env})
}

// handleError deletes and rejects the pending request for id.
func (c *correlator) handleError(id string, cause error) {
	c.settle(id, responseResult{err: cause})
}

func (c *correlator) settle(id string, result responseResult) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if ok {
		ch <- result
	}
}

// awaitAck registers a waiter for the acknowledgement of the given binding
// control frame. Multiple in-flight bindings with the same text share the ack.
func (c *correlator) awaitAck(control string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.acks[control] = append(c.acks[control], ch)
	c.mu.Unlock()
	return ch
}

func (c *correlator) settleAck(control string) {
	c.mu.Lock()
	waiters := c.acks[control]
	delete(c.acks, control)
	c.mu.Unlock()
	for _, ch := range waiters {
		ch <- struct{}{}
	}
}
