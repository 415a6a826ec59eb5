package twinhub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is the main entry point for interacting with a TwinHub backend.
type Client struct {
	cfg      Config
	handler  resilienceHandler
	corr     *correlator
	registry *subscriptionRegistry

	transport Transport
	builder   TransportBuilder

	connected bool
	closed    bool
	mu        sync.Mutex

	lifeCtx    context.Context
	lifeCancel context.CancelFunc

	onError ErrorHandler

	disconnectFn func(error)
	reconnectFn  func()
}

// NewClient creates a new TwinHub client with the given configuration.
// The onError handler is called for SDK-level errors that cannot be returned
// to a direct caller (e.g., inbound parse failures, unmatched messages).
// The client is not connected until Connect() is called.
func NewClient(cfg Config, onError ErrorHandler) (*Client, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	if onError == nil {
		return nil, errors.New("ErrorHandler must not be nil")
	}

	c := &Client{
		cfg:      resolved,
		registry: newSubscriptionRegistry(),
		onError:  onError,
	}
	c.lifeCtx, c.lifeCancel = context.WithCancel(context.Background())

	if resolved.Bufferless {
		c.handler = newBufferlessResilience(resolved.OnStateChange)
	} else {
		c.handler = newStandardResilience(resolved.BufferSize, resolved.OnStateChange)
	}
	c.corr = newCorrelator(c.handler, c.registry.dispatch, onError)
	c.wireHandler()

	c.builder = resolved.TransportBuilder
	if c.builder == nil {
		c.builder = dialWebSocket
	}

	return c, nil
}

// wireHandler connects the resilience handler's inbound callbacks to the
// correlator and the failure path to the client.
func (c *Client) wireHandler() {
	switch h := c.handler.(type) {
	case *standardResilience:
		h.onResponse = c.corr.handleResponse
		h.onMessage = c.corr.handleMessage
		h.onFailure = c.reconnectFailed
	case *bufferlessResilience:
		h.onResponse = c.corr.handleResponse
		h.onMessage = c.corr.handleMessage
		h.onFailure = c.reconnectFailed
	}
}

// Connect establishes the WebSocket connection to the backend.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.mu.Unlock()

	tr, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.transport = tr
	c.connected = true
	c.mu.Unlock()

	c.handler.resolveTransport(tr, nil)
	return nil
}

func (c *Client) dial(ctx context.Context) (Transport, error) {
	return c.builder(ctx, c.cfg, c.corr.HandleInput, c.transportClosed)
}

// transportClosed is invoked by the transport when the connection drops
// unexpectedly. It hands the resilience handler a reconnect future that
// redials with capped backoff.
func (c *Client) transportClosed(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	disconnectFn := c.disconnectFn
	c.mu.Unlock()

	if disconnectFn != nil {
		disconnectFn(cause)
	}

	c.handler.handleClose(func() (Transport, error) {
		tr, err := redial(c.lifeCtx, c.cfg.ReconnectAttempts, c.dial)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.transport = tr
		reconnectFn := c.reconnectFn
		c.mu.Unlock()

		if reconnectFn != nil {
			reconnectFn()
		}
		return tr, nil
	})
}

// reconnectFailed is the terminal failure path: reconnection gave up and
// every pending request and message has been rejected with connection.lost.
func (c *Client) reconnectFailed(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.onError(SDKError{
		Kind:      ErrReconnectFailed,
		Cause:     err,
		Timestamp: time.Now(),
	})
}

// Close gracefully shuts down the client connection. Pending requests and
// buffered messages are rejected with connection.lost.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	transport := c.transport
	c.mu.Unlock()

	c.lifeCancel()
	c.handler.disconnect(connectionLostError())

	if transport != nil {
		return transport.Close()
	}
	return nil
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return c.handler.state()
}

// OnDisconnect registers a callback invoked when the connection drops.
func (c *Client) OnDisconnect(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectFn = fn
}

// OnReconnect registers a callback invoked when the connection is restored.
func (c *Client) OnReconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnectFn = fn
}

// Request sends a correlated envelope and blocks until a matching response
// arrives, the resilience layer rejects it, or the context expires. Response
// envelopes with an error status (>= 400) are returned as *ErrorResponse.
//
// If ctx expires first the correlation state is cleaned up when the response
// or a bulk rejection eventually arrives; there is no per-request
// cancellation on the wire.
func (c *Client) Request(ctx context.Context, env *Envelope, opts ...RequestOption) (*Envelope, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.mu.Unlock()

	o := requestDefaults()
	for _, opt := range opts {
		opt(&o)
	}
	for k, v := range o.headers {
		if env.Headers == nil {
			env.Headers = make(map[string]any)
		}
		env.Headers[k] = v
	}

	_, ch, err := c.corr.request(env)
	if err != nil {
		return nil, err
	}

	select {
	case result := <-ch:
		if result.err != nil {
			return nil, result.err
		}
		return unwrapErrorStatus(result.env)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// unwrapErrorStatus converts an error-status response envelope into an
// *ErrorResponse, preserving the backend's error payload when present.
func unwrapErrorStatus(env *Envelope) (*Envelope, error) {
	if env.Status < 400 {
		return env, nil
	}
	er := &ErrorResponse{Status: env.Status}
	if env.Value != nil {
		_ = env.UnmarshalValue(er)
		er.Status = env.Status
	}
	if er.Code == "" {
		er.Code = "backend.error"
	}
	return nil, er
}

// Send transmits a fire-and-forget envelope. It returns once the frame is
// written to the connection — possibly after buffering and a reconnect — or
// fails with a capacity/connectivity rejection.
func (c *Client) Send(ctx context.Context, env *Envelope) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.mu.Unlock()

	body, err := marshalEnvelope(env)
	if err != nil {
		return err
	}

	select {
	case err := <-c.handler.send(body):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscription is a live registration for inbound envelopes.
type Subscription struct {
	id     string
	stream StreamKind
	client *Client
}

// Cancel removes the subscription. The server-side stream binding is stopped
// once no other subscription uses the same stream.
func (s *Subscription) Cancel(ctx context.Context) error {
	s.client.registry.remove(s.id)
	if s.client.registry.streamCount(s.stream) == 0 {
		return s.client.sendBinding(ctx, s.stream.stopCommand())
	}
	return nil
}

// Subscribe registers fn for envelopes whose topic starts with topic and
// whose path matches path (exactly, or as a prefix with WithSubResources).
// The first subscription for a stream starts the server-side binding and
// waits for its acknowledgement.
func (c *Client) Subscribe(ctx context.Context, topic, path string, fn MessageFunc, opts ...SubscribeOption) (*Subscription, error) {
	o := subscribeDefaults()
	for _, opt := range opts {
		opt(&o)
	}
	return c.subscribe(ctx, o.stream, scopeMatcher(topic, path, o.subResources), fn)
}

// SubscribeType registers fn for envelopes whose message-subject topic
// segment equals subject, regardless of the thing they address. Defaults to
// the live-message stream.
func (c *Client) SubscribeType(ctx context.Context, subject string, fn MessageFunc, opts ...SubscribeOption) (*Subscription, error) {
	o := subscribeDefaults()
	o.stream = StreamMessages
	for _, opt := range opts {
		opt(&o)
	}
	return c.subscribe(ctx, o.stream, typeMatcher(subject), fn)
}

func (c *Client) subscribe(ctx context.Context, stream StreamKind, matches func(*Envelope) bool, fn MessageFunc) (*Subscription, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.mu.Unlock()

	sub := &subscription{
		id:      uuid.New().String(),
		stream:  stream,
		matches: matches,
		fn:      fn,
	}
	c.registry.add(sub)

	if c.registry.streamCount(stream) == 1 {
		if err := c.sendBinding(ctx, stream.startCommand()); err != nil {
			c.registry.remove(sub.id)
			return nil, err
		}
	}

	return &Subscription{id: sub.id, stream: stream, client: c}, nil
}

// sendBinding transmits a plain-string binding control frame and waits for
// the backend to echo it back with the ":ACK" suffix.
func (c *Client) sendBinding(ctx context.Context, control string) error {
	ack := c.corr.awaitAck(control)

	select {
	case err := <-c.handler.send(control):
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
