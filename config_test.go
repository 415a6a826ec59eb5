package twinhub

import "testing"

func TestResolveConfig_Valid(t *testing.T) {
	cfg, err := resolveConfig(Config{
		EndpointURL: "ws://localhost:8080/ws/2",
		APIToken:    "test-token",
	})
	if err != nil {
		t.Fatalf("resolveConfig error: %v", err)
	}
	if cfg.ReconnectAttempts != defaultReconnectAttempts {
		t.Errorf("ReconnectAttempts = %d, want default %d", cfg.ReconnectAttempts, defaultReconnectAttempts)
	}
}

func TestResolveConfig_EnvFallback(t *testing.T) {
	t.Setenv("TWINHUB_ENDPOINT_URL", "ws://env-host:8080/ws/2")
	t.Setenv("TWINHUB_API_TOKEN", "env-token")
	t.Setenv("TWINHUB_BUFFER_SIZE", "32")

	cfg, err := resolveConfig(Config{})
	if err != nil {
		t.Fatalf("resolveConfig error: %v", err)
	}
	if cfg.EndpointURL != "ws://env-host:8080/ws/2" {
		t.Errorf("EndpointURL = %q", cfg.EndpointURL)
	}
	if cfg.APIToken != "env-token" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.BufferSize != 32 {
		t.Errorf("BufferSize = %d, want 32", cfg.BufferSize)
	}
}

func TestResolveConfig_ExplicitBeatsEnv(t *testing.T) {
	t.Setenv("TWINHUB_ENDPOINT_URL", "ws://env-host:8080/ws/2")
	t.Setenv("TWINHUB_API_TOKEN", "env-token")

	cfg, err := resolveConfig(Config{
		EndpointURL: "ws://explicit:8080/ws/2",
		APIToken:    "explicit-token",
	})
	if err != nil {
		t.Fatalf("resolveConfig error: %v", err)
	}
	if cfg.EndpointURL != "ws://explicit:8080/ws/2" {
		t.Errorf("EndpointURL = %q, explicit value should win", cfg.EndpointURL)
	}
}

func TestResolveConfig_MissingEndpoint(t *testing.T) {
	t.Setenv("TWINHUB_ENDPOINT_URL", "")
	if _, err := resolveConfig(Config{APIToken: "tok"}); err == nil {
		t.Error("resolveConfig should error without EndpointURL")
	}
}

func TestResolveConfig_MissingToken(t *testing.T) {
	t.Setenv("TWINHUB_API_TOKEN", "")
	if _, err := resolveConfig(Config{EndpointURL: "ws://localhost"}); err == nil {
		t.Error("resolveConfig should error without APIToken")
	}
}

func TestResolveConfig_NegativeBufferSize(t *testing.T) {
	_, err := resolveConfig(Config{
		EndpointURL: "ws://localhost",
		APIToken:    "tok",
		BufferSize:  -1,
	})
	if err == nil {
		t.Error("resolveConfig should reject a negative BufferSize")
	}
}

func TestResolveConfig_BadBufferSizeEnv(t *testing.T) {
	t.Setenv("TWINHUB_BUFFER_SIZE", "not-a-number")
	_, err := resolveConfig(Config{
		EndpointURL: "ws://localhost",
		APIToken:    "tok",
	})
	if err == nil {
		t.Error("resolveConfig should reject a non-integer TWINHUB_BUFFER_SIZE")
	}
}
