package ble

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Arm name markers. The glasses advertise each arm separately with names
// like "Even G1_74_L_3A5B1C" and "Even G1_74_R_1F2E3D"; everything before
// the marker identifies the pair.
const (
	leftMarker  = "_L_"
	rightMarker = "_R_"
)

// Pair is one left/right set of arms seen during a scan.
type Pair struct {
	Channel string
	Left    Device
	Right   Device
}

// IsGlassesArm reports whether an advertised device looks like one arm.
func IsGlassesArm(d Device) bool {
	return strings.Contains(d.Name, leftMarker) || strings.Contains(d.Name, rightMarker)
}

// ScanForPairs scans for glasses arms until timeout and returns the
// complete pairs found, ordered by channel. Arms whose partner was not
// seen are left out.
func ScanForPairs(ctx context.Context, adapter Adapter, timeout time.Duration) ([]Pair, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	devices, err := adapter.Scan(ctx, IsGlassesArm)
	if err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return GroupPairs(devices), nil
}

// GroupPairs matches left and right arms by channel.
func GroupPairs(devices []Device) []Pair {
	byChannel := make(map[string]*Pair)
	for _, d := range devices {
		var channel string
		var left bool
		if i := strings.Index(d.Name, leftMarker); i >= 0 {
			channel, left = d.Name[:i], true
		} else if i := strings.Index(d.Name, rightMarker); i >= 0 {
			channel = d.Name[:i]
		} else {
			continue
		}
		p, ok := byChannel[channel]
		if !ok {
			p = &Pair{Channel: channel}
			byChannel[channel] = p
		}
		if left {
			p.Left = d
		} else {
			p.Right = d
		}
	}

	var pairs []Pair
	for _, p := range byChannel {
		if p.Left.Address != "" && p.Right.Address != "" {
			pairs = append(pairs, *p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Channel < pairs[j].Channel })
	return pairs
}
