// Package metrics exposes prometheus instrumentation for the glasses session.
// All recording methods are safe on a nil *Metrics so callers can run
// without instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics groups the session's collectors.
type Metrics struct {
	FramesWritten     *prometheus.CounterVec // labels: side
	BytesWritten      *prometheus.CounterVec // labels: side
	WriteErrors       *prometheus.CounterVec // labels: side
	Heartbeats        prometheus.Counter
	HeartbeatFailures prometheus.Counter
	InboundEvents     *prometheus.CounterVec // labels: kind
	DroppedFrames     prometheus.Counter
	Battery           *prometheus.GaugeVec // labels: side
	SessionState      prometheus.Gauge
}

// New registers and returns the session metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "g1_frames_written_total",
			Help: "Frames written to an arm.",
		}, []string{"side"}),
		BytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "g1_bytes_written_total",
			Help: "Bytes written to an arm.",
		}, []string{"side"}),
		WriteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "g1_write_errors_total",
			Help: "Failed characteristic writes.",
		}, []string{"side"}),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "g1_heartbeats_total",
			Help: "Heartbeat ticks sent.",
		}),
		HeartbeatFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "g1_heartbeat_failures_total",
			Help: "Heartbeat ticks with at least one failed write.",
		}),
		InboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "g1_inbound_events_total",
			Help: "Decoded inbound notifications by kind.",
		}, []string{"kind"}),
		DroppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "g1_inbound_dropped_total",
			Help: "Inbound notifications dropped as malformed.",
		}),
		Battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "g1_battery_percent",
			Help: "Last reported battery level.",
		}, []string{"side"}),
		SessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "g1_session_state",
			Help: "Session state (0 disconnected, 1 scanning, 2 connecting, 3 connected, 4 disconnecting).",
		}),
	}
	reg.MustRegister(m.FramesWritten, m.BytesWritten, m.WriteErrors, m.Heartbeats, m.HeartbeatFailures,
		m.InboundEvents, m.DroppedFrames, m.Battery, m.SessionState)
	return m
}

// FrameWritten counts one successful write of n bytes to an arm.
func (m *Metrics) FrameWritten(side string, n int) {
	if m == nil {
		return
	}
	m.FramesWritten.WithLabelValues(side).Inc()
	m.BytesWritten.WithLabelValues(side).Add(float64(n))
}

// WriteFailed counts one failed write to an arm.
func (m *Metrics) WriteFailed(side string) {
	if m == nil {
		return
	}
	m.WriteErrors.WithLabelValues(side).Inc()
}

// Heartbeat counts one heartbeat tick and whether every write succeeded.
func (m *Metrics) Heartbeat(ok bool) {
	if m == nil {
		return
	}
	m.Heartbeats.Inc()
	if !ok {
		m.HeartbeatFailures.Inc()
	}
}

// Event counts one decoded inbound notification of the given kind.
func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.InboundEvents.WithLabelValues(kind).Inc()
}

// Dropped counts one inbound notification discarded as malformed.
func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.DroppedFrames.Inc()
}

// SetBattery records the last battery percentage reported by an arm.
func (m *Metrics) SetBattery(side string, percent uint8) {
	if m == nil {
		return
	}
	m.Battery.WithLabelValues(side).Set(float64(percent))
}

// SetState records the session lifecycle state.
func (m *Metrics) SetState(state int) {
	if m == nil {
		return
	}
	m.SessionState.Set(float64(state))
}
