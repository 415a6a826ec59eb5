package twinhub

import (
	"encoding/json"
	"fmt"
	"strings"
)

// correlationIDHeader is the envelope header carrying the correlation id.
const correlationIDHeader = "correlation-id"

// Envelope is the JSON protocol envelope exchanged with the backend.
// Topics follow the form {namespace}/{name}/{group}/{channel}/{criterion}/{action},
// e.g. "org.acme/sensor-1/things/twin/events/modified".
type Envelope struct {
	Topic   string          `json:"topic"`
	Headers map[string]any  `json:"headers,omitempty"`
	Path    string          `json:"path"`
	Value   json.RawMessage `json:"value,omitempty"`
	Fields  string          `json:"fields,omitempty"`
	Extra   json.RawMessage `json:"extra,omitempty"`
	Status  int             `json:"status,omitempty"`
}

// CorrelationID returns the envelope's correlation-id header, or "" if absent.
func (e *Envelope) CorrelationID() string {
	if e.Headers == nil {
		return ""
	}
	if id, ok := e.Headers[correlationIDHeader].(string); ok {
		return id
	}
	return ""
}

func (e *Envelope) setCorrelationID(id string) {
	if e.Headers == nil {
		e.Headers = make(map[string]any)
	}
	e.Headers[correlationIDHeader] = id
}

// UnmarshalValue decodes the envelope value into the provided struct.
func (e *Envelope) UnmarshalValue(v any) error {
	if e.Value == nil {
		return fmt.Errorf("envelope has no value")
	}
	return json.Unmarshal(e.Value, v)
}

// subject returns the message-subject segment of the topic (the sixth
// segment, e.g. "raiseAlarm" in "org.acme/sensor-1/things/live/messages/raiseAlarm"),
// or "" if the topic is too short.
func (e *Envelope) subject() string {
	const subjectSegment = 5
	parts := strings.Split(e.Topic, "/")
	if len(parts) <= subjectSegment {
		return ""
	}
	return parts[subjectSegment]
}

// marshalEnvelope serializes an envelope into its wire frame.
func marshalEnvelope(env *Envelope) (string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(data), nil
}

// parseEnvelope parses a wire frame into an envelope.
func parseEnvelope(raw string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	return &env, nil
}

// TwinTopic builds a twin-channel topic for the given thing and action,
// e.g. TwinTopic("org.acme", "sensor-1", "commands/modify").
func TwinTopic(namespace, name, action string) string {
	return fmt.Sprintf("%s/%s/things/twin/%s", namespace, name, action)
}

// LiveTopic builds a live-channel topic for the given thing and action,
// e.g. LiveTopic("org.acme", "sensor-1", "messages/raiseAlarm").
func LiveTopic(namespace, name, action string) string {
	return fmt.Sprintf("%s/%s/things/live/%s", namespace, name, action)
}
