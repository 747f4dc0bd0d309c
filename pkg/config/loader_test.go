package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_UsesConfigPathEnvWhenPathEmpty(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "from-env.json")

	seed := DefaultConfig()
	seed.Gateway.Port = 29999
	seed.Interactions.TTLSeconds = 42

	if err := NewLoader().Save(cfgPath, seed); err != nil {
		t.Fatalf("save config: %v", err)
	}

	t.Setenv(ConfigPathEnv, cfgPath)

	got, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.Gateway.Port != 29999 {
		t.Fatalf("expected gateway port 29999, got %d", got.Gateway.Port)
	}
	if got.InteractionTTL() != 42*time.Second {
		t.Fatalf("expected ttl 42s, got %s", got.InteractionTTL())
	}
}

func TestLoad_AutoCreatesMissingFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.json")

	got, err := NewLoader().Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if got.Discord.Prefix != "$" {
		t.Fatalf("expected default prefix, got %q", got.Discord.Prefix)
	}
	if got.Interactions.BusyPolicy != "block" {
		t.Fatalf("expected default busy policy, got %q", got.Interactions.BusyPolicy)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	content := `{"interactions": {"ttl_seconds": 120, "busy_policy": "block", "sweep_schedule": "@every 1m"}}`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MOCHIBOT_INTERACTIONS_BUSY_POLICY", "reject")

	got, err := NewLoader().Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.Interactions.TTLSeconds != 120 {
		t.Fatalf("expected ttl 120 from file, got %d", got.Interactions.TTLSeconds)
	}
	if got.Interactions.BusyPolicy != "reject" {
		t.Fatalf("expected env override, got %q", got.Interactions.BusyPolicy)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}

	if got := expandPath("~/.mochibot/cache.json"); got != filepath.Join(home, ".mochibot", "cache.json") {
		t.Fatalf("unexpected expansion %q", got)
	}
	if got := expandPath("/var/lib/mochibot"); got != "/var/lib/mochibot" {
		t.Fatalf("absolute path changed: %q", got)
	}
}
