package twinhub

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the configuration for a TwinHub client.
type Config struct {
	// EndpointURL is the WebSocket URL of the backend.
	// Fallback: TWINHUB_ENDPOINT_URL environment variable.
	EndpointURL string

	// APIToken is the authentication token for the backend.
	// Fallback: TWINHUB_API_TOKEN environment variable.
	APIToken string

	// BufferSize bounds the outgoing request and message buffers.
	// 0 means unbounded; negative values are rejected.
	// Fallback: TWINHUB_BUFFER_SIZE environment variable.
	BufferSize int

	// Bufferless disables all buffering and retry: any send while not
	// strictly connected fails immediately.
	Bufferless bool

	// ReconnectAttempts caps how often a dropped connection is redialed
	// before the client gives up. 0 uses the default of 5.
	ReconnectAttempts int

	// OnStateChange, if set, observes every connection-state transition.
	// Called synchronously from the resilience layer: do not call back into
	// the client from the observer.
	OnStateChange func(ConnectionState)

	// TransportBuilder overrides how connections are established. If nil the
	// default gorilla/websocket transport is used.
	TransportBuilder TransportBuilder
}

const defaultReconnectAttempts = 5

// resolveConfig fills empty fields from environment variables and validates
// required fields.
func resolveConfig(cfg Config) (Config, error) {
	if cfg.EndpointURL == "" {
		cfg.EndpointURL = os.Getenv("TWINHUB_ENDPOINT_URL")
	}
	if cfg.APIToken == "" {
		cfg.APIToken = os.Getenv("TWINHUB_API_TOKEN")
	}
	if cfg.BufferSize == 0 {
		if v := os.Getenv("TWINHUB_BUFFER_SIZE"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, fmt.Errorf("TWINHUB_BUFFER_SIZE is not an integer: %q", v)
			}
			cfg.BufferSize = n
		}
	}

	if cfg.EndpointURL == "" {
		return cfg, fmt.Errorf("EndpointURL is required (set in Config or TWINHUB_ENDPOINT_URL env)")
	}
	if cfg.APIToken == "" {
		return cfg, fmt.Errorf("APIToken is required (set in Config or TWINHUB_API_TOKEN env)")
	}
	if cfg.BufferSize < 0 {
		return cfg, fmt.Errorf("BufferSize must be >= 0, got %d", cfg.BufferSize)
	}
	if cfg.ReconnectAttempts < 0 {
		return cfg, fmt.Errorf("ReconnectAttempts must be >= 0, got %d", cfg.ReconnectAttempts)
	}
	if cfg.ReconnectAttempts == 0 {
		cfg.ReconnectAttempts = defaultReconnectAttempts
	}

	return cfg, nil
}
