package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("DASHSYNC_BASE_URL", "http://svc:5000")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote.BaseURL != "http://svc:5000" {
		t.Errorf("base url override not applied: %q", cfg.Remote.BaseURL)
	}
	if cfg.Polling.Status != 5*time.Second || cfg.Polling.Leaderboard != 15*time.Second || cfg.Polling.Heartbeat != 30*time.Second {
		t.Errorf("unexpected polling defaults: %+v", cfg.Polling)
	}
	if cfg.Mode.SettleDelay != 300*time.Millisecond || cfg.Mode.ResumeDelay != 500*time.Millisecond {
		t.Errorf("unexpected mode delays: %+v", cfg.Mode)
	}
	if len(cfg.Timeframes()) != len(DefaultTimeframes) {
		t.Errorf("expected %d default timeframes, got %d", len(DefaultTimeframes), len(cfg.Timeframes()))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
remote:
  base_url: "http://localhost:9000"
  http_timeout: 3s
polling:
  status: 2s
  chart_timeframe: "15m"
signal:
  timeframes: ["5m", "30m"]
mode:
  settle_delay: 100ms
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote.HTTPTimeout != 3*time.Second {
		t.Errorf("http timeout: got %s", cfg.Remote.HTTPTimeout)
	}
	if cfg.Polling.Status != 2*time.Second {
		t.Errorf("status interval: got %s", cfg.Polling.Status)
	}
	if cfg.Polling.Chart != 5*time.Second {
		t.Errorf("chart interval default: got %s", cfg.Polling.Chart)
	}
	if got := cfg.Timeframes(); len(got) != 2 || got[0] != "5m" || got[1] != "30m" {
		t.Errorf("timeframes: got %v", got)
	}
	if cfg.Mode.SettleDelay != 100*time.Millisecond {
		t.Errorf("settle delay: got %s", cfg.Mode.SettleDelay)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Remote.BaseURL = "http://x"
		c.applyDefaults()
		return c
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing base url", func(c *Config) { c.Remote.BaseURL = "" }, false},
		{"sub-second interval", func(c *Config) { c.Polling.Chart = 200 * time.Millisecond }, false},
		{"bad chart timeframe", func(c *Config) { c.Polling.ChartTimeframe = "2h" }, false},
		{"duplicate timeframe", func(c *Config) { c.Signal.Timeframes = []string{"1m", "1m"} }, false},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "tok" }, false},
		{"telegram fully set", func(c *Config) { c.Telegram.BotToken = "tok"; c.Telegram.ChatID = "1" }, true},
	}
	for _, tt := range tests {
		c := base()
		tt.mutate(c)
		err := c.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
