// Package config loads the anchorage YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/anchorage/position"
	"github.com/hazyhaar/anchorage/resolve"
)

// Config is the top-level anchorage configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Placement PlacementConfig `yaml:"placement"`
	Browser   BrowserConfig   `yaml:"browser"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"` // ms
}

// ResolverConfig controls the live resolution budget.
type ResolverConfig struct {
	Frames        int             `yaml:"frames"`
	FrameInterval time.Duration   `yaml:"frame_interval"`
	Checkpoints   []time.Duration `yaml:"checkpoints"`
}

// PlacementConfig controls callout placement.
type PlacementConfig struct {
	position.Layout `yaml:",inline"`
	Threshold       float64 `yaml:"threshold"`
	CalloutWidth    float64 `yaml:"callout_width"`
	CalloutHeight   float64 `yaml:"callout_height"`
}

// BrowserConfig controls the Chrome used for live pages.
type BrowserConfig struct {
	Remote            string        `yaml:"remote"`
	Stealth           string        `yaml:"stealth"` // none | headless
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ResourceBlocking  []string      `yaml:"resource_blocking"`
	// AllowPrivate lets live resolution open loopback and private hosts.
	AllowPrivate bool `yaml:"allow_private"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = "data/anchorage.db"
	}
	if c.Store.BusyTimeout <= 0 {
		c.Store.BusyTimeout = 10_000
	}
	if c.Resolver.Frames <= 0 {
		c.Resolver.Frames = resolve.DefaultSchedule.Frames
	}
	if c.Resolver.FrameInterval <= 0 {
		c.Resolver.FrameInterval = time.Second / 60
	}
	if len(c.Resolver.Checkpoints) == 0 {
		c.Resolver.Checkpoints = append([]time.Duration(nil), resolve.DefaultSchedule.Checkpoints...)
	}
	if c.Placement.Spacing <= 0 {
		c.Placement.Spacing = position.DefaultLayout.Spacing
	}
	if c.Placement.EdgePadding <= 0 {
		c.Placement.EdgePadding = position.DefaultLayout.EdgePadding
	}
	if c.Placement.Threshold <= 0 {
		c.Placement.Threshold = 1
	}
	if c.Placement.CalloutWidth <= 0 {
		c.Placement.CalloutWidth = 280
	}
	if c.Placement.CalloutHeight <= 0 {
		c.Placement.CalloutHeight = 120
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 30 * time.Second
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Schedule returns the resolver retry schedule.
func (c *Config) Schedule() resolve.Schedule {
	return resolve.Schedule{Frames: c.Resolver.Frames, Checkpoints: c.Resolver.Checkpoints}
}

// SlogLevel parses Log.Level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.Log.Level)
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
