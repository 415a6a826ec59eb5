package twinhub

// StreamKind identifies a server-side event stream that subscriptions bind to.
type StreamKind string

// Streams a client can bind to. Binding is controlled with plain-string
// START-SEND-*/STOP-SEND-* frames acknowledged by an ":ACK" echo.
const (
	StreamTwinEvents   StreamKind = "EVENTS"
	StreamLiveEvents   StreamKind = "LIVE-EVENTS"
	StreamMessages     StreamKind = "MESSAGES"
	StreamLiveCommands StreamKind = "LIVE-COMMANDS"
)

func (s StreamKind) startCommand() string {
	return "START-SEND-" + string(s)
}

func (s StreamKind) stopCommand() string {
	return "STOP-SEND-" + string(s)
}

// SubscribeOption configures subscription behavior.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	stream       StreamKind
	subResources bool
}

func subscribeDefaults() subscribeOptions {
	return subscribeOptions{
		stream: StreamTwinEvents,
	}
}

// WithStream binds the subscription to a specific server-side stream instead
// of the default twin-event stream.
func WithStream(stream StreamKind) SubscribeOption {
	return func(o *subscribeOptions) {
		o.stream = stream
	}
}

// WithSubResources widens a scope subscription to also match envelopes whose
// path is nested below the subscribed path, instead of requiring exact
// path equality.
func WithSubResources() SubscribeOption {
	return func(o *subscribeOptions) {
		o.subResources = true
	}
}

// RequestOption configures request behavior.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers map[string]any
}

func requestDefaults() requestOptions {
	return requestOptions{}
}

// WithHeader sets an additional envelope header on the outgoing request.
func WithHeader(key string, value any) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]any)
		}
		o.headers[key] = value
	}
}
