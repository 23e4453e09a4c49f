// Command test-display is a manual end-to-end check of the display path.
// It connects to the configured glasses, counts down for 3 seconds, then
// shows a line of text followed by a checkerboard bitmap.
// Put the glasses on before the countdown finishes.
//
// Usage:
//
//	go run ./cmd/test-display [--config path] [--left addr --right addr] [--image]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chaz8081/g1link/internal/bitmap"
	"github.com/chaz8081/g1link/internal/ble"
	"github.com/chaz8081/g1link/internal/config"
	"github.com/chaz8081/g1link/internal/glasses"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config file")
	left := flag.String("left", "", "left arm address (overrides config)")
	right := flag.String("right", "", "right arm address (overrides config)")
	withImage := flag.Bool("image", true, "also send a test pattern bitmap")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}
	if *left != "" {
		cfg.Glasses.Left = *left
	}
	if *right != "" {
		cfg.Glasses.Right = *right
	}
	variant, err := cfg.Variant()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	session := glasses.NewSession(ble.NewTinyGoAdapter(), variant, glasses.Options{
		InterFrameDelay:  cfg.Timing.InterFrame,
		InterPacketDelay: cfg.Timing.InterPacket,
		ConnectTimeout:   cfg.Timing.ConnectTimeout,
	})

	ctx := context.Background()
	fmt.Printf("Connecting to %s / %s...\n", cfg.Glasses.Left, cfg.Glasses.Right)
	if err := session.Connect(ctx, cfg.Glasses.Left, cfg.Glasses.Right); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer session.Disconnect()

	fmt.Println("Connected. Put the glasses on now!")
	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	text := "Hello from g1link! If you can read this, text frames reach both arms."
	if err := session.SendText(ctx, text); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Text sent.")

	if *withImage {
		time.Sleep(3 * time.Second)
		data, err := bitmap.Encode(bitmap.TestPattern(variant.MaxDisplayWidth, 136, 16))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := session.SendImage(ctx, data, variant.MaxDisplayWidth); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println("Test pattern sent.")
	}

	time.Sleep(3 * time.Second)
	if err := session.ClearScreen(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\nDone!")
}
