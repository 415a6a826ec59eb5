package twinhub

import (
	"strings"
	"sync"
)

// MessageFunc is the signature for subscription callbacks. Callbacks run on
// the inbound goroutine: long-running work should be handed off.
type MessageFunc func(env *Envelope)

type subscription struct {
	id      string
	stream  StreamKind
	matches func(env *Envelope) bool
	fn      MessageFunc
}

// scopeMatcher matches an envelope whose topic starts with topic and whose
// path either starts with path (sub-resources enabled) or equals it exactly.
func scopeMatcher(topic, path string, subResources bool) func(*Envelope) bool {
	return func(env *Envelope) bool {
		if !strings.HasPrefix(env.Topic, topic) {
			return false
		}
		if subResources {
			return strings.HasPrefix(env.Path, path)
		}
		return env.Path == path
	}
}

// typeMatcher matches an envelope whose message-subject topic segment equals
// subject, regardless of the thing it addresses.
func typeMatcher(subject string) func(*Envelope) bool {
	return func(env *Envelope) bool {
		return env.subject() == subject
	}
}

// subscriptionRegistry holds active subscriptions and dispatches inbound
// envelopes to every matching callback.
type subscriptionRegistry struct {
	mu   sync.RWMutex
	subs map[string]*subscription
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{subs: make(map[string]*subscription)}
}

func (r *subscriptionRegistry) add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.id] = sub
}

func (r *subscriptionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

// streamCount returns how many subscriptions are bound to the given stream.
func (r *subscriptionRegistry) streamCount(stream StreamKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, sub := range r.subs {
		if sub.stream == stream {
			n++
		}
	}
	return n
}

// dispatch invokes every matching subscription's callback and reports whether
// any matched.
func (r *subscriptionRegistry) dispatch(env *Envelope) bool {
	r.mu.RLock()
	var matched []*subscription
	for _, sub := range r.subs {
		if sub.matches(env) {
			matched = append(matched, sub)
		}
	}
	r.mu.RUnlock()

	for _, sub := range matched {
		sub.fn(env)
	}
	return len(matched) > 0
}
