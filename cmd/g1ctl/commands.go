package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chaz8081/g1link/internal/bitmap"
	"github.com/chaz8081/g1link/internal/ble/protocol"
	"github.com/chaz8081/g1link/internal/glasses"
)

type command struct {
	connect bool
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"scan":               {run: cmdScan},
	"text":               {connect: true, run: cmdText},
	"image":              {connect: true, run: cmdImage},
	"brightness":         {connect: true, run: cmdBrightness},
	"silent":             {connect: true, run: cmdSilent},
	"clear":              {connect: true, run: cmdClear},
	"battery":            {connect: true, run: cmdBattery},
	"notify":             {connect: true, run: cmdNotify},
	"clear-notification": {connect: true, run: cmdClearNotification},
	"mic":                {connect: true, run: cmdMic},
	"monitor":            {connect: true, run: cmdMonitor},
}

func cmdScan(ctx context.Context, a *app, _ []string) error {
	fmt.Printf("Scanning for %s...\n", a.cfg.Timing.ScanTimeout)
	pairs, err := a.session.Scan(ctx, a.cfg.Timing.ScanTimeout)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		fmt.Println("No glasses found. Take them out of the case and try again.")
		return nil
	}
	for i, p := range pairs {
		fmt.Printf("%d. %s\n", i+1, p.Channel)
		fmt.Printf("   left:  %s (%s, %d dBm)\n", p.Left.Address, p.Left.Name, p.Left.RSSI)
		fmt.Printf("   right: %s (%s, %d dBm)\n", p.Right.Address, p.Right.Name, p.Right.RSSI)
	}
	return nil
}

func cmdText(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: text <message...>")
	}
	return a.session.SendText(ctx, strings.Join(args, " "))
}

func cmdImage(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: image <file.bmp>")
	}
	path := args[0]
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil && a.cfg.Display.BitmapDir != "" {
			path = filepath.Join(a.cfg.Display.BitmapDir, path)
		}
	}
	data, width, err := bitmap.Load(path)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := a.session.SendImage(ctx, data, width); err != nil {
		return err
	}
	fmt.Printf("Sent %d bytes in %s\n", len(data), time.Since(start).Round(time.Millisecond))
	return nil
}

func cmdBrightness(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: brightness <0-63|auto>")
	}
	if args[0] == "auto" {
		return a.session.SetBrightness(ctx, 0, true)
	}
	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("brightness %q: %w", args[0], err)
	}
	return a.session.SetBrightness(ctx, level, false)
}

func cmdSilent(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return errors.New("usage: silent on|off")
	}
	return a.session.SetSilentMode(ctx, args[0] == "on")
}

func cmdClear(ctx context.Context, a *app, _ []string) error {
	return a.session.ClearScreen(ctx)
}

func cmdBattery(ctx context.Context, a *app, _ []string) error {
	done := make(chan struct{})
	var once sync.Once
	sub := a.session.Subscribe(glasses.EventBattery, func(glasses.Event) {
		_, l := a.session.Battery(glasses.Left)
		_, r := a.session.Battery(glasses.Right)
		if l && r {
			once.Do(func() { close(done) })
		}
	})
	defer a.session.Unsubscribe(sub)

	if err := a.session.QueryBattery(ctx); err != nil {
		return err
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, side := range []glasses.Side{glasses.Left, glasses.Right} {
		info, ok := a.session.Battery(side)
		if !ok {
			fmt.Printf("%-5s  no reading\n", side)
			continue
		}
		line := fmt.Sprintf("%-5s  %3d%%", side, info.Percentage)
		if info.Charging {
			line += "  charging"
		}
		if info.Voltage != nil {
			line += fmt.Sprintf("  %dmV", *info.Voltage)
		}
		fmt.Println(line)
	}
	return nil
}

func cmdNotify(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	id := fs.Uint("id", uint(time.Now().Unix()%1000), "notification id")
	appID := fs.String("app", "io.g1link.cli", "app identifier")
	name := fs.String("name", "g1ctl", "display name")
	title := fs.String("title", "g1ctl", "title")
	subtitle := fs.String("subtitle", "", "subtitle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: notify [flags] <message...>")
	}

	n := protocol.NewNotification(uint32(*id), *appID, *name, *title, strings.Join(fs.Args(), " "), time.Now())
	n.Subtitle = *subtitle
	if err := a.session.SendNotification(ctx, n); err != nil {
		return err
	}
	fmt.Printf("Notification %d sent\n", n.MsgID)
	return nil
}

func cmdClearNotification(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: clear-notification <id>")
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("notification id %q: %w", args[0], err)
	}
	return a.session.ClearNotification(ctx, uint32(id))
}

func cmdMic(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("mic", flag.ContinueOnError)
	duration := fs.Duration("duration", 5*time.Second, "how long to record")
	out := fs.String("out", "capture.raw", "output file for the raw audio stream")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Printf("Recording for %s...\n", *duration)
	data, err := a.session.CaptureAudio(ctx, *duration)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), *out)
	return nil
}

func cmdMonitor(ctx context.Context, a *app, _ []string) error {
	show := func(ev glasses.Event) {
		switch ev.Kind {
		case glasses.EventDevice:
			fmt.Printf("%s  %-5s  %-20s  %+v\n", time.Now().Format("15:04:05"), ev.Side, ev.Name, ev.State)
		case glasses.EventBattery:
			fmt.Printf("%s  %-5s  battery %d%% charging=%v\n", time.Now().Format("15:04:05"), ev.Side, ev.Battery.Percentage, ev.Battery.Charging)
		case glasses.EventAck:
			fmt.Printf("%s  %-5s  ack %s ok=%v\n", time.Now().Format("15:04:05"), ev.Side, protocol.OpName(ev.Ack.Opcode), ev.Ack.OK)
		default:
			fmt.Printf("%s  %-5s  %s % x\n", time.Now().Format("15:04:05"), ev.Side, ev.Kind, ev.Raw)
		}
	}
	for _, k := range []glasses.EventKind{glasses.EventDevice, glasses.EventBattery, glasses.EventAck, glasses.EventRaw} {
		sub := a.session.Subscribe(k, show)
		defer a.session.Unsubscribe(sub)
	}

	if err := a.session.QueryBattery(ctx); err != nil {
		return err
	}
	fmt.Println("Monitoring. Press Ctrl+C to exit.")
	<-ctx.Done()
	return nil
}
