package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 8787 {
		t.Fatalf("Port = %d, want 8787", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Fatalf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.KeepaliveInterval != 5*time.Second {
		t.Fatalf("KeepaliveInterval = %v, want 5s", cfg.KeepaliveInterval)
	}
	if cfg.AuthRateLimitPerMinute != 30 {
		t.Fatalf("AuthRateLimitPerMinute = %d, want 30", cfg.AuthRateLimitPerMinute)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("ROOM_RELAY_PORT", "9999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://*.b.test")
	t.Setenv("BROWSER_RPC_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 9999 {
		t.Fatalf("Port = %d, want 9999", cfg.Port)
	}
	want := []string{"https://a.test", "https://*.b.test"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i, o := range want {
		if cfg.AllowedOrigins[i] != o {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], o)
		}
	}
	if cfg.BrowserRPCTimeout != 45*time.Second {
		t.Fatalf("BrowserRPCTimeout = %v, want 45s", cfg.BrowserRPCTimeout)
	}
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("LOCAL_RPC_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LocalRPCTimeout != 30*time.Second {
		t.Fatalf("LocalRPCTimeout = %v, want fallback default 30s", cfg.LocalRPCTimeout)
	}
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("WS_READ_BUFFER_SIZE", "not-an-int")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.WSReadBufferSize != 4096 {
		t.Fatalf("WSReadBufferSize = %d, want fallback default 4096", cfg.WSReadBufferSize)
	}
}
