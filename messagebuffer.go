package twinhub

// messageEntry is one buffered fire-and-forget frame. Identical in-flight
// bodies share a single entry; every waiter is settled together when the
// frame is transmitted or rejected.
type messageEntry struct {
	body    string
	waiters []chan error
}

// messageBuffer holds fire-and-forget frames awaiting a live connection.
// max == 0 means unbounded. No internal locking: the owning resilience
// handler serializes all access.
type messageBuffer struct {
	max     int
	order   []string
	entries map[string]*messageEntry
}

func newMessageBuffer(max int) *messageBuffer {
	return &messageBuffer{
		max:     max,
		entries: make(map[string]*messageEntry),
	}
}

func (b *messageBuffer) size() int {
	return len(b.entries)
}

func (b *messageBuffer) empty() bool {
	return len(b.entries) == 0
}

func (b *messageBuffer) full() bool {
	return b.max > 0 && len(b.entries) >= b.max
}

// addMessage buffers a frame and returns a waiter that receives nil once the
// frame is actually transmitted, or the rejection error. An identical body
// already in the buffer shares its slot instead of consuming a new one.
func (b *messageBuffer) addMessage(body string) (<-chan error, error) {
	entry, ok := b.entries[body]
	if !ok {
		if b.full() {
			return nil, bufferOverflowError()
		}
		entry = &messageEntry{body: body}
		b.entries[body] = entry
		b.order = append(b.order, body)
	}
	ch := make(chan error, 1)
	entry.waiters = append(entry.waiters, ch)
	return ch, nil
}

// sendMessages transmits every buffered frame in insertion order, settling
// waiters and removing entries as each send succeeds. A transmission error
// aborts the flush: entries already sent stay settled and removed, the rest
// stay buffered. Returns true only if the buffer ends up empty.
func (b *messageBuffer) sendMessages(tr Transport) bool {
	for len(b.order) > 0 {
		body := b.order[0]
		entry, ok := b.entries[body]
		if !ok {
			b.order = b.order[1:]
			continue
		}
		if err := tr.Send(entry.body); err != nil {
			return false
		}
		b.order = b.order[1:]
		delete(b.entries, body)
		for _, ch := range entry.waiters {
			ch <- nil
		}
	}
	return len(b.entries) == 0
}

// rejectMessages rejects every waiter of every entry and clears the buffer.
func (b *messageBuffer) rejectMessages(reason error) {
	for _, entry := range b.entries {
		for _, ch := range entry.waiters {
			ch <- reason
		}
	}
	b.order = nil
	b.entries = make(map[string]*messageEntry)
}
