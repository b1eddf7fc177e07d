package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  reddit:
    - user: Fast-Wolverine
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Poll.Interval != 5*time.Minute {
		t.Errorf("Poll.Interval = %s, want 5m", cfg.Poll.Interval)
	}
	if cfg.Poll.CheckTimeout != time.Minute {
		t.Errorf("Poll.CheckTimeout = %s, want 1m", cfg.Poll.CheckTimeout)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("HTTP.Timeout = %s, want 30s", cfg.HTTP.Timeout)
	}
	if cfg.State.Backend != "memory" {
		t.Errorf("State.Backend = %q, want memory", cfg.State.Backend)
	}
	if cfg.Trigger.Path != "trigger" {
		t.Errorf("Trigger.Path = %q, want trigger", cfg.Trigger.Path)
	}
	if len(cfg.Sources.Reddit) != 1 || cfg.Sources.Reddit[0].User != "Fast-Wolverine" {
		t.Errorf("Sources.Reddit = %+v", cfg.Sources.Reddit)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
poll:
  interval: 30s
  parallel: true
  max_parallel: 2
trigger:
  path: /usr/local/bin/notify
  dry_run: true
state:
  backend: redis
  key_prefix: "watch:"
sources:
  amazon:
    - name: PS5
      domain: com
      asin: B08FC5L3RG
  target:
    - name: PS5
      id: A-81114595
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Poll.Interval != 30*time.Second || !cfg.Poll.Parallel || cfg.Poll.MaxParallel != 2 {
		t.Errorf("Poll = %+v", cfg.Poll)
	}
	if cfg.Trigger.Path != "/usr/local/bin/notify" || !cfg.Trigger.DryRun {
		t.Errorf("Trigger = %+v", cfg.Trigger)
	}
	if cfg.State.Backend != "redis" || cfg.State.KeyPrefix != "watch:" {
		t.Errorf("State = %+v", cfg.State)
	}
	if len(cfg.Sources.Amazon) != 1 || cfg.Sources.Amazon[0].ASIN != "B08FC5L3RG" {
		t.Errorf("Sources.Amazon = %+v", cfg.Sources.Amazon)
	}
	if len(cfg.Sources.Target) != 1 || cfg.Sources.Target[0].ID != "A-81114595" {
		t.Errorf("Sources.Target = %+v", cfg.Sources.Target)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
poll:
  interval: 30s
`)
	t.Setenv("POLL_INTERVAL", "2m")
	t.Setenv("TRIGGER_PATH", "/opt/trigger")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Poll.Interval != 2*time.Minute {
		t.Errorf("Poll.Interval = %s, want 2m", cfg.Poll.Interval)
	}
	if cfg.Trigger.Path != "/opt/trigger" {
		t.Errorf("Trigger.Path = %q, want /opt/trigger", cfg.Trigger.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Poll:    PollConfig{Interval: time.Minute},
			Trigger: TriggerConfig{Path: "trigger"},
			State:   StateConfig{Backend: "memory"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero interval", func(c *Config) { c.Poll.Interval = 0 }, ErrInvalidInterval},
		{"negative check timeout", func(c *Config) { c.Poll.CheckTimeout = -time.Second }, ErrInvalidTimeout},
		{"unknown backend", func(c *Config) { c.State.Backend = "etcd" }, ErrUnknownBackend},
		{"empty trigger", func(c *Config) { c.Trigger.Path = " " }, ErrTriggerPath},
		{"reddit without user", func(c *Config) {
			c.Sources.Reddit = []RedditSource{{}}
		}, ErrInvalidSource},
		{"amazon without asin", func(c *Config) {
			c.Sources.Amazon = []AmazonSource{{Name: "PS5"}}
		}, ErrInvalidSource},
		{"target without id", func(c *Config) {
			c.Sources.Target = []TargetSource{{Name: "PS5"}}
		}, ErrInvalidSource},
		{"duplicate target", func(c *Config) {
			c.Sources.Target = []TargetSource{{ID: "A-1"}, {ID: "A-1"}}
		}, ErrDuplicateSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on valid config = %v", err)
	}
}
