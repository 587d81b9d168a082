package config

import (
	"testing"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SNAPBIN_PORT", "9090")
	t.Setenv("SNAPBIN_BACKEND", "memory")
	t.Setenv("SNAPBIN_REDIS_URL", "redis://redis.internal:6380")
	t.Setenv("SNAPBIN_CLIENT_URL", "https://paste.example.com")
	t.Setenv("SNAPBIN_TEST_MODE", "1")

	cfg := &Config{
		Port:     5000,
		Backend:  "redis",
		RedisURL: "redis://localhost:6379",
	}
	ApplyEnv(cfg)

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Backend)
	}
	if cfg.RedisURL != "redis://redis.internal:6380" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.ClientURL != "https://paste.example.com" {
		t.Errorf("ClientURL = %q", cfg.ClientURL)
	}
	if !cfg.TestMode {
		t.Error("TestMode should be enabled")
	}
}

func TestApplyEnvInvalidPortIgnored(t *testing.T) {
	t.Setenv("SNAPBIN_PORT", "not-a-number")

	cfg := &Config{Port: 5000}
	ApplyEnv(cfg)

	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want default 5000 for invalid env value", cfg.Port)
	}
}

func TestApplyEnvTestModeValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
		{"yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SNAPBIN_TEST_MODE", tt.value)
			cfg := &Config{}
			ApplyEnv(cfg)
			if cfg.TestMode != tt.want {
				t.Errorf("TestMode = %v for %q, want %v", cfg.TestMode, tt.value, tt.want)
			}
		})
	}
}
