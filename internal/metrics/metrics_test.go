package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecording(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)

	m.FrameWritten("left", 20)
	m.FrameWritten("left", 5)
	m.WriteFailed("right")
	m.Heartbeat(true)
	m.Heartbeat(false)
	m.Event("device")
	m.Dropped()
	m.SetBattery("right", 85)
	m.SetState(3)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"frames left", testutil.ToFloat64(m.FramesWritten.WithLabelValues("left")), 2},
		{"bytes left", testutil.ToFloat64(m.BytesWritten.WithLabelValues("left")), 25},
		{"write errors right", testutil.ToFloat64(m.WriteErrors.WithLabelValues("right")), 1},
		{"heartbeats", testutil.ToFloat64(m.Heartbeats), 2},
		{"heartbeat failures", testutil.ToFloat64(m.HeartbeatFailures), 1},
		{"device events", testutil.ToFloat64(m.InboundEvents.WithLabelValues("device")), 1},
		{"dropped", testutil.ToFloat64(m.DroppedFrames), 1},
		{"battery right", testutil.ToFloat64(m.Battery.WithLabelValues("right")), 85},
		{"state", testutil.ToFloat64(m.SessionState), 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.FrameWritten("left", 1)
	m.WriteFailed("left")
	m.Heartbeat(false)
	m.Event("raw")
	m.Dropped()
	m.SetBattery("left", 10)
	m.SetState(1)
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.Heartbeat(true)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "g1_heartbeats_total 1") {
		t.Errorf("exposition missing heartbeat counter:\n%s", body)
	}
}
