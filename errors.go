package twinhub

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// Sentinel errors for client state.
var (
	ErrNotConnected     = errors.New("client is not connected")
	ErrAlreadyConnected = errors.New("client is already connected")
	ErrClientClosed     = errors.New("client is closed")
)

// ErrorResponse is the error payload surfaced when the resilience layer
// rejects a request or message. The status/code literals are fixed by the
// protocol; HTTP-style statuses (4xx/5xx) carried in response envelopes are
// wrapped in the same shape.
type ErrorResponse struct {
	Status      int    `json:"status"`
	Code        string `json:"error"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
}

// Fixed connectivity and capacity error payloads (statuses 0-3).
func connectionUnavailableError() *ErrorResponse {
	return &ErrorResponse{
		Status:      0,
		Code:        "connection.unavailable",
		Message:     "The connection is not available.",
		Description: "The client is not connected and buffering is disabled. Check the connection and try again.",
	}
}

func connectionInterruptedError() *ErrorResponse {
	return &ErrorResponse{
		Status:      1,
		Code:        "connection.interrupted",
		Message:     "The connection was interrupted before a response was received.",
		Description: "The request may or may not have been applied. Retry after the connection is restored.",
	}
}

func connectionLostError() *ErrorResponse {
	return &ErrorResponse{
		Status:      2,
		Code:        "connection.lost",
		Message:     "The connection to the backend was lost.",
		Description: "Reconnecting failed or was not attempted. The request was not sent.",
	}
}

func bufferOverflowError() *ErrorResponse {
	return &ErrorResponse{
		Status:      3,
		Code:        "buffer.overflow",
		Message:     "The outgoing buffer is full.",
		Description: "Too many requests are waiting for the connection to recover. Retry later or increase the buffer size.",
	}
}

// ErrorKind classifies SDK-level errors that cannot be returned to a caller.
type ErrorKind int

const (
	ErrParseFailure   ErrorKind = iota // inbound frame couldn't be parsed
	ErrNoSubscription                  // inbound message matched no pending request and no subscription
	ErrTransportWrite                  // failed to write to the connection
	ErrReconnectFailed                 // reconnection gave up
)

var errorKindNames = [...]string{
	ErrParseFailure:    "ErrParseFailure",
	ErrNoSubscription:  "ErrNoSubscription",
	ErrTransportWrite:  "ErrTransportWrite",
	ErrReconnectFailed: "ErrReconnectFailed",
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// SDKError represents an error that the SDK could not deliver to a direct
// caller. These errors are routed to the ErrorHandler provided at client
// creation.
type SDKError struct {
	Kind      ErrorKind
	Topic     string // envelope topic, if known
	Cause     error
	Raw       string // raw frame (for parse failures)
	Timestamp time.Time
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v (topic=%s)", e.Kind, e.Cause, e.Topic)
	}
	return fmt.Sprintf("%s (topic=%s)", e.Kind, e.Topic)
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// ErrorHandler is called for every SDK-level error that cannot be returned
// to a direct caller. It MUST be provided when creating a client.
type ErrorHandler func(SDKError)

// LogErrors returns an ErrorHandler that logs all SDK errors to the given logger.
func LogErrors(logger *log.Logger) ErrorHandler {
	return func(e SDKError) {
		if e.Cause != nil {
			logger.Printf("[twinhub] %s: %v (topic=%s)", e.Kind, e.Cause, e.Topic)
		} else {
			logger.Printf("[twinhub] %s (topic=%s)", e.Kind, e.Topic)
		}
	}
}
