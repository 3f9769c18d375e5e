package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.LivenessInterval != 5*time.Second {
		t.Fatalf("unexpected liveness interval: %s", cfg.LivenessInterval)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("addr: \":9000\"\nliveness_interval: 2s\nsend_buffer: 16\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STREAMRELAY_SEND_BUFFER", "32")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.LivenessInterval != 2*time.Second {
		t.Fatalf("liveness interval = %s", cfg.LivenessInterval)
	}
	if cfg.SendBuffer != 32 {
		t.Fatalf("env should override file, send_buffer = %d", cfg.SendBuffer)
	}
}

func TestValidateAuthMode(t *testing.T) {
	cfg := Default()
	cfg.AuthMode = AuthModeJWT
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for jwt mode without secret")
	}
	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.AuthMode = "ldap"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", AuthMode: AuthModeQueryKey})
	if cfg.Addr != ":1" || cfg.AuthMode != AuthModeQueryKey {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SendBuffer != Default().SendBuffer {
		t.Fatalf("zero values must not overwrite: %+v", cfg)
	}
}

func TestValidatePing(t *testing.T) {
	cfg := Default()
	if cfg.PingInterval <= 0 || cfg.PingTimeout <= 0 {
		t.Fatalf("keepalive should be on by default: %+v", cfg)
	}
	cfg.PingTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for pings without a timeout")
	}
	cfg.PingInterval = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled pings need no timeout: %v", err)
	}
}
