package twinhub

// pendingRequest is a correlated request owned by the request buffer until it
// is resolved, rejected, or deleted. The reject continuation settles the
// caller's pending promise; resolution happens through the correlator when a
// matching response arrives.
type pendingRequest struct {
	body   string
	reject func(error)
}

// requestBuffer holds correlated request/response pairs. The outstanding list
// tracks ids buffered and awaiting (re)transmission in insertion order; the
// polling set tracks ids currently sent and awaiting a response. At most one
// send is in flight per id: an id must leave the polling set before it can be
// retried. max == 0 means unbounded. No internal locking: the owning
// resilience handler serializes all access.
type requestBuffer struct {
	max         int
	requests    map[string]*pendingRequest
	outstanding []string
	polling     map[string]struct{}
}

func newRequestBuffer(max int) *requestBuffer {
	return &requestBuffer{
		max:      max,
		requests: make(map[string]*pendingRequest),
		polling:  make(map[string]struct{}),
	}
}

// addRequest unconditionally stores (or overwrites) the request for id.
func (b *requestBuffer) addRequest(id string, req *pendingRequest) {
	b.requests[id] = req
}

func (b *requestBuffer) get(id string) (*pendingRequest, bool) {
	req, ok := b.requests[id]
	return req, ok
}

// addOutstanding queues id for (re)transmission. If the buffer is full the
// reject handler is invoked with a buffer-overflow error and false is
// returned; the caller must then delete the request. An id currently in the
// polling set is moved back to non-polling instead of being re-queued: it was
// already sent once and is being retried.
func (b *requestBuffer) addOutstanding(id string, reject func(error)) bool {
	if b.full() {
		reject(bufferOverflowError())
		return false
	}
	if _, polling := b.polling[id]; polling {
		delete(b.polling, id)
		return true
	}
	b.outstanding = append(b.outstanding, id)
	return true
}

// sendNextOutstanding transmits the first outstanding id not already in
// flight and marks it polling. Returns false without side effects when every
// outstanding id is already polling or nothing is outstanding.
func (b *requestBuffer) sendNextOutstanding(tr Transport) bool {
	for _, id := range b.outstanding {
		if _, polling := b.polling[id]; polling {
			continue
		}
		req, ok := b.requests[id]
		if !ok {
			continue
		}
		b.polling[id] = struct{}{}
		// Transmission failures are left to the close/reconnect path: the id
		// stays polling and is either requeued or rejected in bulk.
		_ = tr.Send(req.body)
		return true
	}
	return false
}

// rejectAllOngoing invokes handler for every stored request. The handler is
// expected to reject and delete each one; the buffer does not self-clear.
func (b *requestBuffer) rejectAllOngoing(handler func(id string, req *pendingRequest)) {
	ids := make([]string, 0, len(b.requests))
	for id := range b.requests {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if req, ok := b.requests[id]; ok {
			handler(id, req)
		}
	}
}

// deleteRequest removes id from the outstanding list, the polling set and the
// request map. Idempotent.
func (b *requestBuffer) deleteRequest(id string) {
	for i, o := range b.outstanding {
		if o == id {
			b.outstanding = append(b.outstanding[:i], b.outstanding[i+1:]...)
			break
		}
	}
	delete(b.polling, id)
	delete(b.requests, id)
}

func (b *requestBuffer) isPolling(id string) bool {
	_, ok := b.polling[id]
	return ok
}

// empty reports whether nothing is outstanding. Requests that were sent
// immediately (stored but never queued) do not count.
func (b *requestBuffer) empty() bool {
	return len(b.outstanding) == 0
}

func (b *requestBuffer) full() bool {
	return b.max > 0 && len(b.outstanding) >= b.max
}
