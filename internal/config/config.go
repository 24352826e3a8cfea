package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"DashSync/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Remote struct {
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		HTTPTimeout time.Duration `yaml:"http_timeout"`
	} `yaml:"remote"`
	Polling struct {
		Status                time.Duration `yaml:"status"`
		Chart                 time.Duration `yaml:"chart"`
		Leaderboard           time.Duration `yaml:"leaderboard"`
		Presence              time.Duration `yaml:"presence"`
		Heartbeat             time.Duration `yaml:"heartbeat"`
		ChartTimeframe        string        `yaml:"chart_timeframe"`
		ConnectivityLostAfter int           `yaml:"connectivity_lost_after"`
		RefreshPerSecond      float64       `yaml:"refresh_per_second"`
	} `yaml:"polling"`
	Signal struct {
		Timeframes []string `yaml:"timeframes"`
	} `yaml:"signal"`
	Mode struct {
		SettleDelay time.Duration `yaml:"settle_delay"`
		ResumeDelay time.Duration `yaml:"resume_delay"`
	} `yaml:"mode"`
	Session struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"session"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Feed struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"feed"`
	Log struct {
		Debug bool `yaml:"debug"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// DefaultTimeframes is the canonical consensus set used when none is configured.
var DefaultTimeframes = []string{"1m", "5m", "15m", "30m", "1h", "60m"}

// chartTimeframes are the values the chart endpoint accepts.
var chartTimeframes = map[string]bool{"1m": true, "5m": true, "15m": true, "30m": true, "1h": true, "60m": true}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DASHSYNC_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("DASHSYNC_API_KEY"); v != "" {
		cfg.Remote.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("FEED_ADDR"); v != "" {
		cfg.Feed.ListenAddr = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Remote.HTTPTimeout == 0 {
		c.Remote.HTTPTimeout = 10 * time.Second
	}
	if c.Polling.Status == 0 {
		c.Polling.Status = 5 * time.Second
	}
	if c.Polling.Chart == 0 {
		c.Polling.Chart = 5 * time.Second
	}
	if c.Polling.Leaderboard == 0 {
		c.Polling.Leaderboard = 15 * time.Second
	}
	if c.Polling.Presence == 0 {
		c.Polling.Presence = 5 * time.Second
	}
	if c.Polling.Heartbeat == 0 {
		c.Polling.Heartbeat = 30 * time.Second
	}
	if c.Polling.ChartTimeframe == "" {
		c.Polling.ChartTimeframe = "5m"
	}
	if c.Polling.ConnectivityLostAfter == 0 {
		c.Polling.ConnectivityLostAfter = 3
	}
	if c.Polling.RefreshPerSecond == 0 {
		c.Polling.RefreshPerSecond = 1
	}
	if len(c.Signal.Timeframes) == 0 {
		c.Signal.Timeframes = append([]string(nil), DefaultTimeframes...)
	}
	if c.Mode.SettleDelay == 0 {
		c.Mode.SettleDelay = 300 * time.Millisecond
	}
	if c.Mode.ResumeDelay == 0 {
		c.Mode.ResumeDelay = 500 * time.Millisecond
	}
	if c.Session.StateFile == "" {
		c.Session.StateFile = "data/session.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/dashsync.db"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	for name, d := range map[string]time.Duration{
		"polling.status":      c.Polling.Status,
		"polling.chart":       c.Polling.Chart,
		"polling.leaderboard": c.Polling.Leaderboard,
		"polling.presence":    c.Polling.Presence,
		"polling.heartbeat":   c.Polling.Heartbeat,
	} {
		if d < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", name, d)
		}
	}
	if !chartTimeframes[c.Polling.ChartTimeframe] {
		return fmt.Errorf("polling.chart_timeframe %q is not supported", c.Polling.ChartTimeframe)
	}
	if c.Polling.ConnectivityLostAfter < 1 {
		return fmt.Errorf("polling.connectivity_lost_after must be positive")
	}
	if c.Polling.RefreshPerSecond <= 0 {
		return fmt.Errorf("polling.refresh_per_second must be positive")
	}
	seen := make(map[string]bool, len(c.Signal.Timeframes))
	for _, tf := range c.Signal.Timeframes {
		if tf == "" || seen[tf] {
			return fmt.Errorf("signal.timeframes: empty or duplicate entry %q", tf)
		}
		seen[tf] = true
	}
	if c.Mode.SettleDelay < 0 || c.Mode.ResumeDelay < 0 {
		return fmt.Errorf("mode delays must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Timeframes returns the canonical consensus timeframes as typed values.
func (c *Config) Timeframes() []model.Timeframe {
	out := make([]model.Timeframe, len(c.Signal.Timeframes))
	for i, tf := range c.Signal.Timeframes {
		out[i] = model.Timeframe(tf)
	}
	return out
}
