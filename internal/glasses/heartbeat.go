package glasses

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/g1link/internal/ble/protocol"
	"github.com/chaz8081/g1link/internal/metrics"
)

// DefaultHeartbeatInterval keeps the link under the arms' 32s idle timeout.
const DefaultHeartbeatInterval = 28 * time.Second

// Heartbeat periodically writes the keepalive frame to both arms. Its
// sequence counter is separate from the frame sequence counter.
type Heartbeat struct {
	clock    Clock
	interval time.Duration
	send     func(ctx context.Context, frame []byte) error
	log      *slog.Logger
	metrics  *metrics.Metrics

	seq protocol.Sequencer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHeartbeat returns a stopped scheduler that delivers frames via send.
func NewHeartbeat(clock Clock, interval time.Duration, send func(context.Context, []byte) error, log *slog.Logger, m *metrics.Metrics) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Heartbeat{
		clock:    clock,
		interval: interval,
		send:     send,
		log:      log,
		metrics:  m,
	}
}

// Start begins ticking. Calling Start on a running scheduler is a no-op.
func (h *Heartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	ticker := h.clock.NewTicker(h.interval)

	go func(done chan struct{}) {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				h.beat(ctx)
			}
		}
	}(h.done)
}

// Stop cancels the ticker and waits for the loop to exit; no tick fires
// after Stop returns. Safe to call more than once.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// beat sends one keepalive. Failures are logged and never stop the loop.
func (h *Heartbeat) beat(ctx context.Context) {
	seq := h.seq.Next()
	err := h.send(ctx, protocol.HeartbeatFrame(seq))
	if ctx.Err() != nil || errors.Is(err, ErrNotConnected) {
		// Stopping.
		return
	}
	h.metrics.Heartbeat(err == nil)
	if err != nil {
		h.log.Warn("[G1] heartbeat failed", "seq", seq, "error", err)
		return
	}
	h.log.Debug("[G1] heartbeat", "seq", seq)
}
