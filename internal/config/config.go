package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/g1link/internal/ble/protocol"
)

// maxHeartbeat is the arms' idle timeout; the heartbeat must beat faster.
const maxHeartbeat = 32 * time.Second

// Config holds all application configuration.
type Config struct {
	Glasses  GlassesConfig `yaml:"glasses"`
	Display  DisplayConfig `yaml:"display"`
	Timing   TimingConfig  `yaml:"timing"`
	Metrics  MetricsConfig `yaml:"metrics"`
	LogLevel string        `yaml:"log_level"`
}

// GlassesConfig identifies the pair to connect to.
type GlassesConfig struct {
	Left    string `yaml:"left"`    // left arm address
	Right   string `yaml:"right"`   // right arm address
	Variant string `yaml:"variant"` // "g1" or "g1-legacy"
}

// DisplayConfig controls text layout.
type DisplayConfig struct {
	Width          int `yaml:"width"`            // pixels
	AvgCharWidth   int `yaml:"avg_char_width"`   // pixels
	LinesPerScreen int `yaml:"lines_per_screen"` // lines shown per page
	// BitmapDir is where relative image paths are resolved.
	BitmapDir string `yaml:"bitmap_dir"`
}

// TimingConfig holds pacing and timeout settings.
type TimingConfig struct {
	InterFrame     time.Duration `yaml:"inter_frame"`
	InterPacket    time.Duration `yaml:"inter_packet"`
	PageInterval   time.Duration `yaml:"page_interval"`
	Heartbeat      time.Duration `yaml:"heartbeat"`
	ScanTimeout    time.Duration `yaml:"scan_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "g1link")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Glasses: GlassesConfig{
			Variant: protocol.VariantG1.Name,
		},
		Display: DisplayConfig{
			Width:          protocol.VariantG1.MaxDisplayWidth,
			AvgCharWidth:   10,
			LinesPerScreen: protocol.LinesPerScreen,
			BitmapDir:      filepath.Join(home, ".local", "share", "g1link", "bitmaps"),
		},
		Timing: TimingConfig{
			InterFrame:     50 * time.Millisecond,
			InterPacket:    10 * time.Millisecond,
			PageInterval:   5 * time.Second,
			Heartbeat:      28 * time.Second,
			ScanTimeout:    15 * time.Second,
			ConnectTimeout: 20 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in bitmap_dir is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Display.BitmapDir = expandTilde(cfg.Display.BitmapDir)

	return cfg, nil
}

// Validate checks the config for invalid values. Arm addresses may be
// empty; commands that connect require them.
func (c *Config) Validate() error {
	variant, err := protocol.LookupVariant(c.Glasses.Variant)
	if err != nil {
		return fmt.Errorf("glasses.variant: %w", err)
	}

	if c.Glasses.Left != "" && strings.EqualFold(c.Glasses.Left, c.Glasses.Right) {
		return fmt.Errorf("glasses.left and glasses.right must differ")
	}

	if c.Display.Width <= 0 || c.Display.Width > variant.MaxDisplayWidth {
		return fmt.Errorf("display.width must be in 1..%d, got %d", variant.MaxDisplayWidth, c.Display.Width)
	}
	if c.Display.AvgCharWidth <= 0 {
		return fmt.Errorf("display.avg_char_width must be > 0")
	}
	if c.Display.LinesPerScreen <= 0 {
		return fmt.Errorf("display.lines_per_screen must be > 0")
	}

	if c.Timing.Heartbeat <= 0 || c.Timing.Heartbeat >= maxHeartbeat {
		return fmt.Errorf("timing.heartbeat must be between 0 and %s, got %s", maxHeartbeat, c.Timing.Heartbeat)
	}
	for name, d := range map[string]time.Duration{
		"timing.inter_frame":     c.Timing.InterFrame,
		"timing.inter_packet":    c.Timing.InterPacket,
		"timing.page_interval":   c.Timing.PageInterval,
		"timing.scan_timeout":    c.Timing.ScanTimeout,
		"timing.connect_timeout": c.Timing.ConnectTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Variant returns the protocol variant named in the config.
func (c *Config) Variant() (protocol.Variant, error) {
	return protocol.LookupVariant(c.Glasses.Variant)
}

// ParseLogLevel maps a log_level string to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = "# g1link configuration\n# Arm addresses come from `g1ctl scan`.\n\n"

// WriteDefault writes the default config to DefaultConfigPath unless a file
// already exists there, and returns the path.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
