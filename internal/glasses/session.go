// Package glasses drives a pair of smart-glasses arms as one logical
// device: it connects both arms, serializes every write per arm, fans
// frames out to both sides and decodes what the arms report back.
package glasses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chaz8081/g1link/internal/ble"
	"github.com/chaz8081/g1link/internal/ble/protocol"
	"github.com/chaz8081/g1link/internal/metrics"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateScanning
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// Options configures pacing and presentation. Zero values take defaults.
type Options struct {
	InterFrameDelay   time.Duration // between frames of one message (default 50ms)
	InterPacketDelay  time.Duration // between bitmap packets (default 10ms)
	PageInterval      time.Duration // before each text screen after the first (default InterFrameDelay)
	HeartbeatInterval time.Duration // default 28s
	ConnectTimeout    time.Duration // 0 means bounded only by the caller's ctx

	DisplayWidth   int // pixels; default is the variant's MaxDisplayWidth
	AvgCharWidth   int // pixels per character (default 10)
	LinesPerScreen int // default 5

	Clock   Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		InterFrameDelay:   50 * time.Millisecond,
		InterPacketDelay:  10 * time.Millisecond,
		HeartbeatInterval: DefaultHeartbeatInterval,
		AvgCharWidth:      10,
		LinesPerScreen:    protocol.LinesPerScreen,
	}
}

// Session is one logical connection to both arms. All methods are safe for
// concurrent use; multi-frame sends are serialized.
type Session struct {
	id         string
	adapter    ble.Adapter
	variant    protocol.Variant
	codec      *protocol.Codec
	opts       Options
	clock      Clock
	log        *slog.Logger
	metrics    *metrics.Metrics
	dispatcher *Dispatcher
	heartbeat  *Heartbeat

	sendMu sync.Mutex // held for the whole of a multi-frame send

	mu      sync.Mutex
	state   State
	left    *endpoint
	right   *endpoint
	abort   context.CancelCauseFunc // set while connecting
	battery map[Side]protocol.BatteryInfo
}

// NewSession creates a disconnected session for the given firmware variant.
func NewSession(adapter ble.Adapter, variant protocol.Variant, opts Options) *Session {
	def := DefaultOptions()
	if opts.InterFrameDelay <= 0 {
		opts.InterFrameDelay = def.InterFrameDelay
	}
	if opts.InterPacketDelay <= 0 {
		opts.InterPacketDelay = def.InterPacketDelay
	}
	if opts.PageInterval <= 0 {
		opts.PageInterval = opts.InterFrameDelay
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = def.HeartbeatInterval
	}
	if opts.DisplayWidth <= 0 || opts.DisplayWidth > variant.MaxDisplayWidth {
		opts.DisplayWidth = variant.MaxDisplayWidth
	}
	if opts.AvgCharWidth <= 0 {
		opts.AvgCharWidth = def.AvgCharWidth
	}
	if opts.LinesPerScreen <= 0 {
		opts.LinesPerScreen = def.LinesPerScreen
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id := uuid.NewString()
	log := opts.Logger.With("session", id)

	s := &Session{
		id:         id,
		adapter:    adapter,
		variant:    variant,
		codec:      protocol.NewCodec(variant),
		opts:       opts,
		clock:      opts.Clock,
		log:        log,
		metrics:    opts.Metrics,
		dispatcher: NewDispatcher(log, opts.Metrics),
		battery:    make(map[Side]protocol.BatteryInfo),
	}
	s.heartbeat = NewHeartbeat(s.clock, opts.HeartbeatInterval, s.writeBoth, log, opts.Metrics)
	s.dispatcher.Subscribe(EventBattery, s.recordBattery)
	s.metrics.SetState(int(StateDisconnected))
	return s
}

// ID returns the session's unique id, also attached to every log line.
func (s *Session) ID() string { return s.id }

// Variant returns the firmware variant the session encodes for.
func (s *Session) Variant() protocol.Variant { return s.variant }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EndpointState returns the connection state of one arm.
func (s *Session) EndpointState(side Side) EndpointState {
	s.mu.Lock()
	ep := s.left
	if side == Right {
		ep = s.right
	}
	s.mu.Unlock()
	if ep == nil {
		return EndpointDisconnected
	}
	return ep.getState()
}

// DeviceState returns the last known physical state of the glasses.
func (s *Session) DeviceState() protocol.DeviceState {
	return s.dispatcher.State()
}

// Battery returns the last battery reading from one arm.
func (s *Session) Battery(side Side) (protocol.BatteryInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.battery[side]
	return info, ok
}

// Subscribe registers an observer for inbound events of kind.
func (s *Session) Subscribe(kind EventKind, fn func(Event)) Subscription {
	return s.dispatcher.Subscribe(kind, fn)
}

// Unsubscribe removes an observer registered with Subscribe.
func (s *Session) Unsubscribe(sub Subscription) bool {
	return s.dispatcher.Unsubscribe(sub)
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	s.metrics.SetState(int(st))
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.setStateLocked(st)
	s.mu.Unlock()
}

// Scan looks for advertising arms for up to timeout and returns the
// complete left/right pairs found.
func (s *Session) Scan(ctx context.Context, timeout time.Duration) ([]ble.Pair, error) {
	s.mu.Lock()
	if s.state != StateDisconnected {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot scan while %s", ErrConnection, st)
	}
	s.setStateLocked(StateScanning)
	s.mu.Unlock()
	defer s.setState(StateDisconnected)

	s.log.Info("[G1] scanning", "timeout", timeout)
	pairs, err := ble.ScanForPairs(ctx, s.adapter, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	s.log.Info("[G1] scan complete", "pairs", len(pairs))
	return pairs, nil
}

// Connect opens both arms concurrently, subscribes to their notifications,
// sends the init frame to the left arm and starts the heartbeat. On any
// failure, including either link dropping before the session is Connected,
// every arm that did connect is disconnected again and the session stays
// Disconnected.
func (s *Session) Connect(ctx context.Context, leftAddr, rightAddr string) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot connect while %s", ErrConnection, st)
	}
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	if err := s.adapter.Enable(); err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("%w: enable adapter: %w", ErrConnection, err)
	}

	if s.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ConnectTimeout)
		defer cancel()
	}
	ctx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	left := newEndpoint(Left, leftAddr)
	right := newEndpoint(Right, rightAddr)
	s.mu.Lock()
	s.left, s.right, s.abort = left, right, abort
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.abort = nil
		s.mu.Unlock()
	}()

	s.log.Info("[G1] connecting", "left", leftAddr, "right", rightAddr)
	g, gctx := errgroup.WithContext(ctx)
	for _, ep := range []*endpoint{left, right} {
		ep := ep
		g.Go(func() error { return s.open(gctx, ep) })
	}
	if err := g.Wait(); err != nil {
		s.rollback(left, right)
		if cause := context.Cause(ctx); errors.Is(cause, ErrLinkDropped) {
			err = cause
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w: %w", ErrConnection, ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	s.codec.ResetSequence()
	if err := s.write(ctx, left, protocol.InitFrame()); err != nil {
		s.rollback(left, right)
		if cause := context.Cause(ctx); errors.Is(cause, ErrLinkDropped) {
			err = cause
		}
		return fmt.Errorf("%w: init: %w", ErrConnection, err)
	}

	s.heartbeat.Start()
	s.mu.Lock()
	if left.isDropped() || right.isDropped() {
		s.mu.Unlock()
		s.heartbeat.Stop()
		s.rollback(left, right)
		return fmt.Errorf("%w: %w", ErrConnection, ErrLinkDropped)
	}
	s.setStateLocked(StateConnected)
	s.mu.Unlock()
	s.log.Info("[G1] connected")
	return nil
}

// open connects one arm and wires its characteristics.
func (s *Session) open(ctx context.Context, ep *endpoint) error {
	ep.setState(EndpointConnecting)
	conn, err := s.adapter.Connect(ctx, ep.address)
	if err != nil {
		ep.setState(EndpointDisconnected)
		return fmt.Errorf("%s arm %s: %w", ep.side, ep.address, err)
	}
	ep.mu.Lock()
	ep.conn = conn
	ep.mu.Unlock()

	tx, err := conn.DiscoverCharacteristic(protocol.ServiceUUID, protocol.WriteCharUUID)
	if err != nil {
		return fmt.Errorf("%s arm: discover write characteristic: %w", ep.side, err)
	}
	rx, err := conn.DiscoverCharacteristic(protocol.ServiceUUID, protocol.NotifyCharUUID)
	if err != nil {
		return fmt.Errorf("%s arm: discover notify characteristic: %w", ep.side, err)
	}
	side := ep.side
	if err := rx.Subscribe(func(data []byte) { s.dispatcher.Handle(side, data) }); err != nil {
		return fmt.Errorf("%s arm: subscribe: %w", ep.side, err)
	}
	conn.OnDisconnect(func() { s.handleDrop(ep) })

	ep.mu.Lock()
	ep.tx = tx
	if !ep.dropped {
		ep.state = EndpointConnected
	}
	ep.mu.Unlock()
	ep.start()
	s.log.Debug("[G1] arm connected", "side", ep.side, "address", ep.address)
	return nil
}

func (s *Session) rollback(left, right *endpoint) {
	for _, ep := range []*endpoint{left, right} {
		if err := ep.close(); err != nil {
			s.log.Warn("[G1] rollback disconnect failed", "side", ep.side, "error", err)
		}
	}
	s.mu.Lock()
	s.left, s.right = nil, nil
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()
}

// Disconnect stops the heartbeat and releases both arms. A frame already
// being written completes; nothing after it is sent. Calling Disconnect on
// a session that is not connected does nothing.
func (s *Session) Disconnect() error {
	return s.teardown(nil)
}

// teardown disconnects the session. With a non-nil owner it only proceeds
// if owner is still one of the session's current endpoints.
func (s *Session) teardown(owner *endpoint) error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return nil
	}
	if owner != nil && owner != s.left && owner != s.right {
		s.mu.Unlock()
		return nil
	}
	left, right := s.left, s.right
	s.left, s.right = nil, nil
	s.setStateLocked(StateDisconnecting)
	s.mu.Unlock()

	s.heartbeat.Stop()
	err := errors.Join(left.close(), right.close())

	s.mu.Lock()
	s.battery = make(map[Side]protocol.BatteryInfo)
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()
	s.log.Info("[G1] disconnected")
	return err
}

// handleDrop reacts to either arm's link dropping. While connecting it
// aborts the attempt; once connected it tears the whole session down.
func (s *Session) handleDrop(ep *endpoint) {
	s.mu.Lock()
	if ep != s.left && ep != s.right {
		s.mu.Unlock()
		return
	}
	ep.markDropped()
	st, abort := s.state, s.abort
	s.mu.Unlock()

	switch st {
	case StateConnecting:
		s.log.Warn("[G1] arm link dropped while connecting", "side", ep.side)
		if abort != nil {
			abort(fmt.Errorf("%w: %s arm", ErrLinkDropped, ep.side))
		}
	case StateConnected:
		s.log.Warn("[G1] arm link dropped, disconnecting", "side", ep.side)
		go func() {
			if err := s.teardown(ep); err != nil {
				s.log.Warn("[G1] teardown after drop", "error", err)
			}
		}()
	}
}

func (s *Session) recordBattery(ev Event) {
	s.mu.Lock()
	if s.state == StateConnected {
		s.battery[ev.Side] = ev.Battery
	}
	s.mu.Unlock()
	s.metrics.SetBattery(ev.Side.String(), ev.Battery.Percentage)
}

// endpoints returns both arms, or ErrNotConnected.
func (s *Session) endpoints() (*endpoint, *endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return nil, nil, fmt.Errorf("%w: session is %s", ErrNotConnected, s.state)
	}
	return s.left, s.right, nil
}

func (s *Session) write(ctx context.Context, ep *endpoint, frame []byte) error {
	if err := ep.write(ctx, frame); err != nil {
		s.metrics.WriteFailed(ep.side.String())
		return err
	}
	s.metrics.FrameWritten(ep.side.String(), len(frame))
	return nil
}

// writeBoth writes frame to both arms concurrently and waits for both.
func (s *Session) writeBoth(ctx context.Context, frame []byte) error {
	left, right, err := s.endpoints()
	if err != nil {
		return err
	}
	var g errgroup.Group
	for _, ep := range []*endpoint{left, right} {
		ep := ep
		g.Go(func() error { return s.write(ctx, ep, frame) })
	}
	return g.Wait()
}

// writeSide writes frame to one arm only.
func (s *Session) writeSide(ctx context.Context, side Side, frame []byte) error {
	left, right, err := s.endpoints()
	if err != nil {
		return err
	}
	if side == Right {
		return s.write(ctx, right, frame)
	}
	return s.write(ctx, left, frame)
}

// sendSingle writes a one-frame command to both arms.
func (s *Session) sendSingle(ctx context.Context, frame []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.writeBoth(ctx, frame)
}

// pause waits between frames, honoring ctx.
func (s *Session) pause(ctx context.Context, d time.Duration) error {
	return s.clock.Sleep(ctx, d)
}
