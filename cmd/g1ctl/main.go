// Command g1ctl drives a pair of G1 glasses from the command line.
//
// Usage:
//
//	g1ctl [--config path] <command> [args]
//
// Run g1ctl with no command for the list of commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chaz8081/g1link/internal/ble"
	"github.com/chaz8081/g1link/internal/config"
	"github.com/chaz8081/g1link/internal/glasses"
	"github.com/chaz8081/g1link/internal/metrics"
)

const usageText = `usage: g1ctl [--config path] <command> [args]

commands:
  init-config                    write the default config file
  scan                           list nearby glasses pairs
  text <message...>              show text
  image <file.bmp>               show a bitmap
  brightness <0-63|auto>         set display brightness
  silent on|off                  toggle silent mode
  clear                          clear the display
  battery                        print battery levels
  notify [flags] <message...>    show a notification card
  clear-notification <id>        remove a notification
  mic [flags]                    record raw microphone data
  monitor                        print events until interrupted
`

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/g1link/config.yaml)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usageText) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, flag.Arg(0), flag.Args()[1:])
	stop()
	if err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	if cmd == "init-config" {
		path, err := config.WriteDefault()
		if err != nil {
			return err
		}
		fmt.Println("Config at", path)
		return nil
	}

	h, ok := commands[cmd]
	if !ok {
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if h.connect {
		if err := a.connect(ctx); err != nil {
			return err
		}
	}
	return h.run(ctx, a, args)
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	session *glasses.Session
	server  *http.Server
}

func newApp(cfg *config.Config) (*app, error) {
	variant, err := cfg.Variant()
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	var server *http.Server
	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		m = metrics.New(reg)
		server = serveMetrics(cfg.Metrics.Addr, reg)
	}

	session := glasses.NewSession(ble.NewTinyGoAdapter(), variant, glasses.Options{
		InterFrameDelay:   cfg.Timing.InterFrame,
		InterPacketDelay:  cfg.Timing.InterPacket,
		PageInterval:      cfg.Timing.PageInterval,
		HeartbeatInterval: cfg.Timing.Heartbeat,
		ConnectTimeout:    cfg.Timing.ConnectTimeout,
		DisplayWidth:      cfg.Display.Width,
		AvgCharWidth:      cfg.Display.AvgCharWidth,
		LinesPerScreen:    cfg.Display.LinesPerScreen,
		Logger:            slog.Default(),
		Metrics:           m,
	})
	return &app{cfg: cfg, session: session, server: server}, nil
}

func (a *app) connect(ctx context.Context) error {
	left, right := a.cfg.Glasses.Left, a.cfg.Glasses.Right
	if left == "" || right == "" {
		return errors.New("glasses.left and glasses.right are not set; run `g1ctl scan` and add them to the config")
	}
	start := time.Now()
	if err := a.session.Connect(ctx, left, right); err != nil {
		return err
	}
	log.Printf("Connected in %s (session %s)", time.Since(start).Round(time.Millisecond), a.session.ID())
	return nil
}

func (a *app) close() {
	if err := a.session.Disconnect(); err != nil {
		slog.Warn("[G1] disconnect", "error", err)
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("[G1] metrics server stopped", "addr", addr, "error", err)
		}
	}()
	slog.Debug("[G1] serving metrics", "addr", addr)
	return srv
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}
