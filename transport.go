package twinhub

import "context"

// Transport writes fully serialized frames to the backend. Reliability is
// entirely the resilience layer's job: implementations only report whether
// the write itself failed. The current implementation uses
// gorilla/websocket (websocket.go).
type Transport interface {
	// Send writes one serialized frame to the connection.
	Send(frame string) error

	// Close shuts down the connection. Closing must not invoke the
	// builder's onClose callback.
	Close() error
}

// TransportBuilder dials the backend and returns a connected Transport.
// Inbound frames are delivered through onFrame; an unexpected connection
// loss is reported once through onClose. A custom builder can be supplied
// via Config.TransportBuilder.
type TransportBuilder func(ctx context.Context, cfg Config, onFrame func(raw string), onClose func(err error)) (Transport, error)

// resilienceHandler decides, per outgoing call, whether to send immediately,
// buffer, or reject, and owns the request/message buffers and the state
// tracker for one logical connection. The transport layer drives it through
// handleClose/resolveTransport; the correlator drives it through the
// remaining methods.
type resilienceHandler interface {
	// sendRequest stores and transmits (or buffers) a correlated request.
	sendRequest(id string, req *pendingRequest)

	// send transmits (or buffers) a fire-and-forget frame. The returned
	// waiter receives nil once the frame is written, or the rejection error.
	send(body string) <-chan error

	// handleResponse processes an inbound response matched to a pending id.
	handleResponse(id string, env *Envelope)

	// handleMessage processes an inbound unsolicited envelope.
	handleMessage(env *Envelope)

	// handleClose reacts to a lost connection: the reconnect future is
	// resolved on a separate goroutine and handed to resolveTransport.
	handleClose(reconnect func() (Transport, error))

	// resolveTransport adopts a re-established transport, or cascades the
	// reconnect failure to every pending request and message.
	resolveTransport(tr Transport, err error)

	// disconnect terminally rejects everything pending with reason.
	disconnect(reason *ErrorResponse)

	// state returns the current connection state.
	state() ConnectionState
}
