package glasses

import (
	"context"
	"fmt"
	"sync"

	"github.com/chaz8081/g1link/internal/ble"
)

// Side identifies one arm.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// EndpointState is the connection state of one arm.
type EndpointState int

const (
	EndpointDisconnected EndpointState = iota
	EndpointConnecting
	EndpointConnected
)

func (s EndpointState) String() string {
	switch s {
	case EndpointConnecting:
		return "connecting"
	case EndpointConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

type writeRequest struct {
	data []byte
	done chan error
}

// endpoint owns the link to one arm. Every write to the arm, whether a
// frame or a heartbeat, goes through its single writer goroutine.
type endpoint struct {
	side    Side
	address string

	mu      sync.Mutex
	state   EndpointState
	conn    ble.Connection
	tx      ble.Characteristic
	dropped bool

	queue chan writeRequest
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func newEndpoint(side Side, address string) *endpoint {
	return &endpoint{
		side:    side,
		address: address,
		queue:   make(chan writeRequest),
		quit:    make(chan struct{}),
	}
}

func (e *endpoint) setState(s EndpointState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *endpoint) getState() EndpointState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// markDropped records that the arm's link went away.
func (e *endpoint) markDropped() {
	e.mu.Lock()
	e.dropped = true
	e.state = EndpointDisconnected
	e.mu.Unlock()
}

func (e *endpoint) isDropped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

func (e *endpoint) connection() ble.Connection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn
}

// start launches the writer goroutine. tx must be set.
func (e *endpoint) start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-e.quit:
				return
			case req := <-e.queue:
				req.done <- e.tx.Write(req.data)
			}
		}
	}()
}

// write hands data to the writer goroutine and waits for the result. A
// write already handed off always completes; ctx only bounds the wait for
// the queue.
func (e *endpoint) write(ctx context.Context, data []byte) error {
	req := writeRequest{data: data, done: make(chan error, 1)}
	select {
	case e.queue <- req:
	case <-e.quit:
		return fmt.Errorf("%w: %s arm closed", ErrNotConnected, e.side)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := <-req.done; err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransportWrite, e.side, err)
	}
	return nil
}

// stop ends the writer goroutine after any in-flight write. Idempotent.
func (e *endpoint) stop() {
	e.once.Do(func() { close(e.quit) })
	e.wg.Wait()
}

// close stops the writer and drops the link.
func (e *endpoint) close() error {
	e.stop()
	e.mu.Lock()
	conn := e.conn
	e.conn = nil
	e.tx = nil
	e.state = EndpointDisconnected
	e.mu.Unlock()
	if conn == nil {
		return nil
	}
	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("glasses: disconnect %s: %w", e.side, err)
	}
	return nil
}
