package twinhub

import "testing"

func TestScopeMatcher_ExactPath(t *testing.T) {
	matches := scopeMatcher("org.acme/sensor-1/things/twin/events", "/features/temperature", false)

	if !matches(&Envelope{
		Topic: "org.acme/sensor-1/things/twin/events/modified",
		Path:  "/features/temperature",
	}) {
		t.Error("should match exact path under the subscribed topic")
	}

	if matches(&Envelope{
		Topic: "org.acme/sensor-1/things/twin/events/modified",
		Path:  "/features/temperature/properties/value",
	}) {
		t.Error("should not match a nested path without sub-resources")
	}

	if matches(&Envelope{
		Topic: "org.other/sensor-1/things/twin/events/modified",
		Path:  "/features/temperature",
	}) {
		t.Error("should not match a different topic")
	}
}

func TestScopeMatcher_SubResources(t *testing.T) {
	matches := scopeMatcher("org.acme/sensor-1/things/twin/events", "/features/temperature", true)

	if !matches(&Envelope{
		Topic: "org.acme/sensor-1/things/twin/events/modified",
		Path:  "/features/temperature/properties/value",
	}) {
		t.Error("should match nested paths with sub-resources enabled")
	}

	if matches(&Envelope{
		Topic: "org.acme/sensor-1/things/twin/events/modified",
		Path:  "/attributes/location",
	}) {
		t.Error("should not match a path outside the subscribed prefix")
	}
}

func TestTypeMatcher(t *testing.T) {
	matches := typeMatcher("raiseAlarm")

	if !matches(&Envelope{Topic: "org.acme/sensor-1/things/live/messages/raiseAlarm"}) {
		t.Error("should match the message-subject segment")
	}
	if matches(&Envelope{Topic: "org.acme/sensor-1/things/live/messages/clearAlarm"}) {
		t.Error("should not match a different subject")
	}
	if matches(&Envelope{Topic: "too/short"}) {
		t.Error("should not match a topic without a subject segment")
	}
}

func TestSubscriptionRegistry_DispatchAllMatches(t *testing.T) {
	r := newSubscriptionRegistry()

	var first, second, other int
	r.add(&subscription{
		id:      "1",
		stream:  StreamTwinEvents,
		matches: scopeMatcher("org.acme/sensor-1", "/", true),
		fn:      func(*Envelope) { first++ },
	})
	r.add(&subscription{
		id:      "2",
		stream:  StreamTwinEvents,
		matches: scopeMatcher("org.acme/sensor-1/things/twin/events", "/features", true),
		fn:      func(*Envelope) { second++ },
	})
	r.add(&subscription{
		id:      "3",
		stream:  StreamTwinEvents,
		matches: scopeMatcher("org.other", "/", true),
		fn:      func(*Envelope) { other++ },
	})

	matched := r.dispatch(&Envelope{
		Topic: "org.acme/sensor-1/things/twin/events/modified",
		Path:  "/features/temperature",
	})

	if !matched {
		t.Fatal("dispatch should report a match")
	}
	if first != 1 || second != 1 {
		t.Errorf("matching callbacks invoked (%d, %d), want (1, 1)", first, second)
	}
	if other != 0 {
		t.Errorf("non-matching callback invoked %d times", other)
	}
}

func TestSubscriptionRegistry_DispatchNoMatch(t *testing.T) {
	r := newSubscriptionRegistry()
	if r.dispatch(&Envelope{Topic: "org.acme/x/things/twin/events/created", Path: "/"}) {
		t.Error("dispatch with no subscriptions should report no match")
	}
}

func TestSubscriptionRegistry_RemoveAndStreamCount(t *testing.T) {
	r := newSubscriptionRegistry()
	r.add(&subscription{id: "1", stream: StreamTwinEvents, matches: func(*Envelope) bool { return true }, fn: func(*Envelope) {}})
	r.add(&subscription{id: "2", stream: StreamMessages, matches: func(*Envelope) bool { return true }, fn: func(*Envelope) {}})

	if n := r.streamCount(StreamTwinEvents); n != 1 {
		t.Errorf("streamCount(events) = %d, want 1", n)
	}

	r.remove("1")
	if n := r.streamCount(StreamTwinEvents); n != 0 {
		t.Errorf("streamCount(events) after remove = %d, want 0", n)
	}
	if !r.dispatch(&Envelope{Topic: "t", Path: "/"}) {
		t.Error("remaining subscription should still dispatch")
	}
}
