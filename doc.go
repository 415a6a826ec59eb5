// Package twinhub provides a Go SDK for interacting with a TwinHub
// digital-twin backend over WebSocket.
//
// The SDK abstracts the WebSocket transport and the JSON envelope protocol,
// exposing three core operations:
//
//   - Send: fire-and-forget messaging
//   - Request: request/response with automatic correlation-id matching
//   - Subscribe: receive twin/live events and messages via matchers
//
// The connection is resilient by default: correlated requests issued while
// the connection is degraded are buffered and retried in order,
// fire-and-forget messages are buffered and flushed on reconnect, and server
// backpressure (HTTP-style 429 responses) pauses sending and requeues the
// affected request instead of failing it. Buffering can be disabled entirely
// with Config.Bufferless, in which case any send while not strictly connected
// fails fast.
//
// Basic usage:
//
//	client, err := twinhub.NewClient(twinhub.Config{
//	    EndpointURL: "ws://localhost:8080/ws/2",
//	    APIToken:    "my-token",
//	}, twinhub.LogErrors(log.Default()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Request(ctx, &twinhub.Envelope{
//	    Topic: "org.acme/sensor-1/things/twin/commands/retrieve",
//	    Path:  "/",
//	})
package twinhub
