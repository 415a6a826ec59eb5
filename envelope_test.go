package twinhub

import (
	"encoding/json"
	"testing"
)

func TestEnvelope_CorrelationIDRoundTrip(t *testing.T) {
	env := &Envelope{Topic: "t", Path: "/"}
	if env.CorrelationID() != "" {
		t.Errorf("CorrelationID() on fresh envelope = %q, want empty", env.CorrelationID())
	}

	env.setCorrelationID("abc-123")
	if env.CorrelationID() != "abc-123" {
		t.Errorf("CorrelationID() = %q, want abc-123", env.CorrelationID())
	}

	// survives a marshal/parse round trip through the wire format
	raw, err := marshalEnvelope(env)
	if err != nil {
		t.Fatalf("marshalEnvelope error: %v", err)
	}
	parsed, err := parseEnvelope(raw)
	if err != nil {
		t.Fatalf("parseEnvelope error: %v", err)
	}
	if parsed.CorrelationID() != "abc-123" {
		t.Errorf("parsed CorrelationID() = %q, want abc-123", parsed.CorrelationID())
	}
}

func TestEnvelope_UnmarshalValue(t *testing.T) {
	env := &Envelope{Value: json.RawMessage(`{"temperature": 21.5}`)}

	var v struct {
		Temperature float64 `json:"temperature"`
	}
	if err := env.UnmarshalValue(&v); err != nil {
		t.Fatalf("UnmarshalValue error: %v", err)
	}
	if v.Temperature != 21.5 {
		t.Errorf("temperature = %v, want 21.5", v.Temperature)
	}

	empty := &Envelope{}
	if err := empty.UnmarshalValue(&v); err == nil {
		t.Error("UnmarshalValue on empty value should error")
	}
}

func TestTopicHelpers(t *testing.T) {
	twin := TwinTopic("org.acme", "sensor-1", "commands/modify")
	if twin != "org.acme/sensor-1/things/twin/commands/modify" {
		t.Errorf("TwinTopic = %q", twin)
	}

	live := LiveTopic("org.acme", "sensor-1", "messages/raiseAlarm")
	if live != "org.acme/sensor-1/things/live/messages/raiseAlarm" {
		t.Errorf("LiveTopic = %q", live)
	}
}

func TestEnvelope_Subject(t *testing.T) {
	env := &Envelope{Topic: "org.acme/sensor-1/things/live/messages/raiseAlarm"}
	if env.subject() != "raiseAlarm" {
		t.Errorf("subject() = %q, want raiseAlarm", env.subject())
	}

	short := &Envelope{Topic: "org.acme/sensor-1"}
	if short.subject() != "" {
		t.Errorf("subject() on short topic = %q, want empty", short.subject())
	}
}
