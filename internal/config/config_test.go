package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Glasses.Variant != "g1" {
		t.Errorf("Glasses.Variant = %q, want %q", cfg.Glasses.Variant, "g1")
	}
	if cfg.Display.Width != 488 {
		t.Errorf("Display.Width = %d, want 488", cfg.Display.Width)
	}
	if cfg.Display.LinesPerScreen != 5 {
		t.Errorf("Display.LinesPerScreen = %d, want 5", cfg.Display.LinesPerScreen)
	}
	if cfg.Timing.Heartbeat != 28*time.Second {
		t.Errorf("Timing.Heartbeat = %v, want 28s", cfg.Timing.Heartbeat)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
glasses:
  left: "AA:BB:CC:00:00:01"
  right: "AA:BB:CC:00:00:02"
  variant: g1-legacy
display:
  width: 400
  avg_char_width: 8
timing:
  inter_frame: 80ms
  heartbeat: 20s
metrics:
  addr: ""
log_level: debug
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Glasses.Left != "AA:BB:CC:00:00:01" || cfg.Glasses.Right != "AA:BB:CC:00:00:02" {
		t.Errorf("Glasses = %+v", cfg.Glasses)
	}
	if cfg.Display.Width != 400 || cfg.Display.AvgCharWidth != 8 {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if cfg.Timing.InterFrame != 80*time.Millisecond {
		t.Errorf("Timing.InterFrame = %v, want 80ms", cfg.Timing.InterFrame)
	}
	if cfg.Timing.Heartbeat != 20*time.Second {
		t.Errorf("Timing.Heartbeat = %v, want 20s", cfg.Timing.Heartbeat)
	}
	// Fields not in the file keep their defaults.
	if cfg.Display.LinesPerScreen != 5 {
		t.Errorf("Display.LinesPerScreen = %d, want default 5", cfg.Display.LinesPerScreen)
	}
	if cfg.Timing.InterPacket != 10*time.Millisecond {
		t.Errorf("Timing.InterPacket = %v, want default 10ms", cfg.Timing.InterPacket)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want empty", cfg.Metrics.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}

	v, err := cfg.Variant()
	if err != nil || v.Name != "g1-legacy" {
		t.Errorf("Variant() = %v, %v", v.Name, err)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("display:\n  bitmap_dir: ~/pics\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(tmpHome, "pics"); cfg.Display.BitmapDir != want {
		t.Errorf("BitmapDir = %q, want %q", cfg.Display.BitmapDir, want)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() should return error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("timing:\n  heartbeat: [oops\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should return error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			modify: func(c *Config) {},
		},
		{
			name:    "unknown variant",
			modify:  func(c *Config) { c.Glasses.Variant = "g2" },
			wantErr: "glasses.variant",
		},
		{
			name: "same address twice",
			modify: func(c *Config) {
				c.Glasses.Left = "aa:bb"
				c.Glasses.Right = "AA:BB"
			},
			wantErr: "must differ",
		},
		{
			name:    "display too wide",
			modify:  func(c *Config) { c.Display.Width = 600 },
			wantErr: "display.width",
		},
		{
			name:    "zero char width",
			modify:  func(c *Config) { c.Display.AvgCharWidth = 0 },
			wantErr: "display.avg_char_width",
		},
		{
			name:    "zero lines per screen",
			modify:  func(c *Config) { c.Display.LinesPerScreen = 0 },
			wantErr: "display.lines_per_screen",
		},
		{
			name:    "heartbeat at idle timeout",
			modify:  func(c *Config) { c.Timing.Heartbeat = 32 * time.Second },
			wantErr: "timing.heartbeat",
		},
		{
			name:    "negative inter frame",
			modify:  func(c *Config) { c.Timing.InterFrame = -time.Millisecond },
			wantErr: "timing.inter_frame",
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "g1link", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# g1link") {
		t.Error("written config should start with header comment")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Timing.Heartbeat != 28*time.Second {
		t.Errorf("written config Timing.Heartbeat = %v, want 28s", cfg.Timing.Heartbeat)
	}
	if cfg.Glasses.Variant != "g1" {
		t.Errorf("written config Glasses.Variant = %q, want g1", cfg.Glasses.Variant)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	cfgDir := filepath.Join(tmpHome, ".config", "g1link")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	existing := []byte("log_level: debug\n")
	cfgPath := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(cfgPath, existing, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(existing) {
		t.Errorf("WriteDefault() overwrote existing config: %q", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
