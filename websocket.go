package twinhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// webSocket implements Transport over gorilla/websocket. Frames are plain
// text: JSON envelopes and the string-based binding control protocol.
type webSocket struct {
	conn *websocket.Conn
	mu   sync.Mutex // protects conn writes

	onFrame func(raw string)
	onClose func(err error)

	done chan struct{}
}

// dialWebSocket is the default TransportBuilder.
func dialWebSocket(ctx context.Context, cfg Config, onFrame func(raw string), onClose func(err error)) (Transport, error) {
	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIToken)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, &ConnectionError{URL: cfg.EndpointURL, Reason: err.Error()}
	}

	ws := &webSocket{
		conn:    conn,
		onFrame: onFrame,
		onClose: onClose,
		done:    make(chan struct{}),
	}
	go ws.readLoop()
	return ws, nil
}

func (w *webSocket) Send(frame string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (w *webSocket) Close() error {
	select {
	case <-w.done:
		return nil // already closed
	default:
		close(w.done)
	}
	return w.conn.Close()
}

func (w *webSocket) readLoop() {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				// deliberate close, not a connection loss
			default:
				w.onClose(err)
			}
			return
		}
		w.onFrame(string(data))
	}
}

// ConnectionError represents a failure to connect or stay connected to the
// backend.
type ConnectionError struct {
	URL    string
	Reason string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error [%s]: %s", e.URL, e.Reason)
}
