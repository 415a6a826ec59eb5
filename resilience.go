package twinhub

import (
	"net/http"
	"sync"
	"time"
)

// pollInterval is the fixed delay between retry attempts for buffered
// requests. Best-effort, not exponential: the poll loop terminates naturally
// once nothing is outstanding.
const pollInterval = 500 * time.Millisecond

// standardResilience is the default resilience handler. It buffers correlated
// requests and fire-and-forget messages while the connection is degraded,
// retries buffered requests in insertion order, requeues requests on server
// backpressure (429) and replays buffered messages after a reconnect.
//
// All buffer and tracker access is serialized behind mu: send, poll and
// response handling interleave arbitrarily across goroutines.
type standardResilience struct {
	mu       sync.Mutex
	tracker  *stateTracker
	messages *messageBuffer
	requests *requestBuffer
	tr       Transport

	// onResponse forwards a resolved response to the correlator; onMessage
	// forwards unsolicited envelopes to the subscription dispatcher. Both are
	// invoked outside mu.
	onResponse func(id string, env *Envelope)
	onMessage  func(env *Envelope)

	// onFailure propagates a terminal reconnect failure.
	onFailure func(err error)
}

func newStandardResilience(bufferSize int, observer func(ConnectionState)) *standardResilience {
	return &standardResilience{
		tracker:  newStateTracker(observer),
		messages: newMessageBuffer(bufferSize),
		requests: newRequestBuffer(bufferSize),
	}
}

func (h *standardResilience) state() ConnectionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tracker.current()
}

// sendRequest stores the request, then either transmits it immediately or
// queues it as outstanding depending on the current state. A request issued
// after the connection gave up is rejected with connection.lost.
func (h *standardResilience) sendRequest(id string, req *pendingRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.requests.addRequest(id, req)
	if h.tracker.isBuffering() {
		if !h.tracker.isWorking() {
			h.requests.deleteRequest(id)
			req.reject(connectionLostError())
			return
		}
		h.addToOutstanding(id, req)
		return
	}
	_ = h.tr.Send(req.body)
}

// addToOutstanding queues id for the poll loop. The first addition while the
// tracker is still healthy flips it to buffering and polls immediately;
// later additions coalesce into one deferred poll. Callers hold mu.
func (h *standardResilience) addToOutstanding(id string, req *pendingRequest) {
	if !h.requests.addOutstanding(id, req.reject) {
		h.requests.deleteRequest(id)
		return
	}
	if !h.tracker.isBuffering() {
		h.tracker.buffering()
		h.poll()
		return
	}
	h.schedulePoll()
}

// send transmits a fire-and-forget frame, or buffers it while the connection
// is degraded. The returned waiter receives nil once the frame is written.
func (h *standardResilience) send(body string) <-chan error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.tracker.canSend() {
		if !h.tracker.isWorking() {
			return settledWaiter(connectionLostError())
		}
		if h.messages.full() {
			h.tracker.bufferFull()
			return settledWaiter(bufferOverflowError())
		}
		ch, err := h.messages.addMessage(body)
		if err != nil {
			return settledWaiter(err)
		}
		return ch
	}

	return settledWaiter(h.tr.Send(body))
}

// handleResponse processes a response matched to a pending id. A 429 status
// signals backpressure: the request is requeued instead of resolved. Any
// other response releases the id, advances the poll loop and is forwarded to
// the correlator.
func (h *standardResilience) handleResponse(id string, env *Envelope) {
	h.mu.Lock()
	if env.Status == http.StatusTooManyRequests {
		h.tracker.backPressure()
		if req, ok := h.requests.get(id); ok {
			h.addToOutstanding(id, req)
		}
		h.mu.Unlock()
		return
	}

	if h.tracker.canSend() && h.requests.isPolling(id) {
		h.poll()
	}
	h.requests.deleteRequest(id)
	h.checkBufferState()
	onResponse := h.onResponse
	h.mu.Unlock()

	if onResponse != nil {
		onResponse(id, env)
	}
}

// handleMessage forwards an unsolicited inbound envelope to the dispatcher.
func (h *standardResilience) handleMessage(env *Envelope) {
	h.mu.Lock()
	onMessage := h.onMessage
	h.mu.Unlock()

	if onMessage != nil {
		onMessage(env)
	}
}

// poll attempts one outstanding transmission and reschedules itself while
// sends are still happening. Callers hold mu.
func (h *standardResilience) poll() {
	if h.requests.empty() {
		return
	}
	if h.requests.sendNextOutstanding(h.tr) {
		h.schedulePoll()
	}
}

func (h *standardResilience) schedulePoll() {
	time.AfterFunc(pollInterval, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.poll()
	})
}

// checkBufferState recomputes the aggregate connection state from the two
// buffers. Callers hold mu.
func (h *standardResilience) checkBufferState() {
	switch {
	case h.messages.full() || h.requests.full():
		h.tracker.bufferFull()
	case !h.requests.empty():
		h.tracker.buffering()
	default:
		h.tracker.connected()
	}
}

// handleClose reacts to a dropped connection: every in-flight or buffered
// request is rejected with connection.interrupted (its response may have been
// lost mid-flight), buffered messages survive for the reconnect flush, and
// the reconnect future is resolved on its own goroutine.
func (h *standardResilience) handleClose(reconnect func() (Transport, error)) {
	h.mu.Lock()
	h.tracker.reconnecting()
	h.rejectOngoingRequests(connectionInterruptedError())
	h.mu.Unlock()

	go func() {
		h.resolveTransport(reconnect())
	}()
}

// resolveTransport adopts a re-established transport and resumes work, or —
// on reconnect failure — terminally rejects everything pending with
// connection.lost.
func (h *standardResilience) resolveTransport(tr Transport, err error) {
	h.mu.Lock()
	if err != nil {
		h.tracker.disconnected()
		h.rejectOngoingRequests(connectionLostError())
		h.messages.rejectMessages(connectionLostError())
		onFailure := h.onFailure
		h.mu.Unlock()
		if onFailure != nil {
			onFailure(err)
		}
		return
	}

	h.tr = tr
	h.checkBufferState()
	h.poll()
	h.messages.sendMessages(h.tr)
	if h.requests.empty() && h.messages.empty() {
		h.tracker.reset()
	}
	h.mu.Unlock()
}

// disconnect terminally rejects everything pending. Used on deliberate close.
func (h *standardResilience) disconnect(reason *ErrorResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tracker.disconnected()
	h.rejectOngoingRequests(reason)
	h.messages.rejectMessages(reason)
}

// rejectOngoingRequests rejects and deletes every stored request. Callers
// hold mu; the reject continuations only settle caller-owned channels.
func (h *standardResilience) rejectOngoingRequests(reason *ErrorResponse) {
	h.requests.rejectAllOngoing(func(id string, req *pendingRequest) {
		h.requests.deleteRequest(id)
		req.reject(reason)
	})
}

// settledWaiter returns a waiter already settled with err (nil for success).
func settledWaiter(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

// bufferlessResilience is the degraded-mode handler: no buffering, no retry,
// no backpressure handling. Any send while not strictly connected fails
// immediately with connection.unavailable (still working) or connection.lost
// (given up).
type bufferlessResilience struct {
	mu       sync.Mutex
	tracker  *stateTracker
	tr       Transport
	requests map[string]*pendingRequest

	onResponse func(id string, env *Envelope)
	onMessage  func(env *Envelope)
	onFailure  func(err error)
}

func newBufferlessResilience(observer func(ConnectionState)) *bufferlessResilience {
	return &bufferlessResilience{
		tracker:  newStateTracker(observer),
		requests: make(map[string]*pendingRequest),
	}
}

func (h *bufferlessResilience) state() ConnectionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tracker.current()
}

func (h *bufferlessResilience) sendRequest(id string, req *pendingRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tracker.current() != StateConnected {
		req.reject(h.unavailable())
		return
	}
	h.requests[id] = req
	_ = h.tr.Send(req.body)
}

func (h *bufferlessResilience) send(body string) <-chan error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tracker.current() != StateConnected {
		return settledWaiter(h.unavailable())
	}
	return settledWaiter(h.tr.Send(body))
}

// unavailable picks the connectivity error matching the tracker. Callers hold mu.
func (h *bufferlessResilience) unavailable() *ErrorResponse {
	if h.tracker.isWorking() {
		return connectionUnavailableError()
	}
	return connectionLostError()
}

func (h *bufferlessResilience) handleResponse(id string, env *Envelope) {
	h.mu.Lock()
	delete(h.requests, id)
	onResponse := h.onResponse
	h.mu.Unlock()

	if onResponse != nil {
		onResponse(id, env)
	}
}

func (h *bufferlessResilience) handleMessage(env *Envelope) {
	h.mu.Lock()
	onMessage := h.onMessage
	h.mu.Unlock()

	if onMessage != nil {
		onMessage(env)
	}
}

func (h *bufferlessResilience) handleClose(reconnect func() (Transport, error)) {
	h.mu.Lock()
	h.tracker.reconnecting()
	h.rejectAll(connectionInterruptedError())
	h.mu.Unlock()

	go func() {
		h.resolveTransport(reconnect())
	}()
}

func (h *bufferlessResilience) resolveTransport(tr Transport, err error) {
	h.mu.Lock()
	if err != nil {
		h.tracker.disconnected()
		h.rejectAll(connectionLostError())
		onFailure := h.onFailure
		h.mu.Unlock()
		if onFailure != nil {
			onFailure(err)
		}
		return
	}
	h.tr = tr
	h.tracker.reset()
	h.mu.Unlock()
}

func (h *bufferlessResilience) disconnect(reason *ErrorResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tracker.disconnected()
	h.rejectAll(reason)
}

// rejectAll rejects every in-flight request. Callers hold mu.
func (h *bufferlessResilience) rejectAll(reason *ErrorResponse) {
	for id, req := range h.requests {
		delete(h.requests, id)
		req.reject(reason)
	}
}
