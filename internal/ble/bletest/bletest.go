// Package bletest provides an in-memory ble.Adapter for tests. Peripherals
// are registered by address; connections record every write and let tests
// inject notifications or drop the link.
package bletest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chaz8081/g1link/internal/ble"
	"github.com/chaz8081/g1link/internal/ble/protocol"
)

// ErrUnknownDevice is returned when connecting to an unregistered address.
var ErrUnknownDevice = errors.New("bletest: unknown device")

// Characteristic records writes and allows subscribing.
type Characteristic struct {
	mu       sync.Mutex
	writes   [][]byte
	callback func([]byte)
	writeErr error
	// failAfter > 0 makes the write with that 1-based ordinal, and every
	// later one, return writeErr.
	failAfter int
	onWrite   func([]byte)
}

func (c *Characteristic) Write(data []byte) error {
	c.mu.Lock()
	cp := make([]byte, len(data))
	copy(cp, data)
	n := len(c.writes) + 1
	if c.writeErr != nil && (c.failAfter == 0 || n >= c.failAfter) {
		err := c.writeErr
		c.mu.Unlock()
		return err
	}
	c.writes = append(c.writes, cp)
	hook := c.onWrite
	c.mu.Unlock()
	if hook != nil {
		hook(cp)
	}
	return nil
}

func (c *Characteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
	return nil
}

// Writes returns a copy of everything written so far.
func (c *Characteristic) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// FailWrites makes writes fail with err, starting from the given 1-based
// write ordinal (0 means immediately).
func (c *Characteristic) FailWrites(err error, from int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
	c.failAfter = from
}

// OnWrite installs a hook called after every successful write.
func (c *Characteristic) OnWrite(hook func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWrite = hook
}

// SimulateNotification sends a notification to the subscriber.
func (c *Characteristic) SimulateNotification(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

// Subscribed reports whether a notification callback is registered.
func (c *Characteristic) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callback != nil
}

// Connection simulates a BLE connection to one peripheral.
type Connection struct {
	Address string
	TX      *Characteristic
	RX      *Characteristic

	mu           sync.Mutex
	missing      map[string]bool
	disconnectCb func()
	disconnected bool
}

func (c *Connection) DiscoverCharacteristic(serviceUUID, charUUID string) (ble.Characteristic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.missing[charUUID] || c.missing[serviceUUID] {
		return nil, fmt.Errorf("bletest: %s/%s not found", serviceUUID, charUUID)
	}
	switch charUUID {
	case protocol.WriteCharUUID:
		return c.TX, nil
	case protocol.NotifyCharUUID:
		return c.RX, nil
	default:
		return nil, fmt.Errorf("bletest: unknown characteristic UUID %q", charUUID)
	}
}

func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *Connection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

// Disconnected reports whether Disconnect was called.
func (c *Connection) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// SimulateDisconnect marks the link as dropped and fires the callback.
func (c *Connection) SimulateDisconnect() {
	c.mu.Lock()
	c.disconnected = true
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Peripheral describes how a registered address behaves on connect.
type Peripheral struct {
	Device     ble.Device
	ConnectErr error
	// Missing lists service or characteristic UUIDs discovery will not find.
	Missing []string
}

// Adapter simulates the BLE adapter.
type Adapter struct {
	mu          sync.Mutex
	EnableErr   error
	peripherals map[string]*Peripheral
	conns       map[string][]*Connection
	connectHook func(address string)
	openHook    func(*Connection)
}

// NewAdapter returns an adapter that can connect to each given device.
func NewAdapter(devices ...ble.Device) *Adapter {
	a := &Adapter{
		peripherals: make(map[string]*Peripheral),
		conns:       make(map[string][]*Connection),
	}
	for _, d := range devices {
		a.Add(&Peripheral{Device: d})
	}
	return a
}

// Add registers a peripheral, replacing any previous one at that address.
func (a *Adapter) Add(p *Peripheral) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.peripherals[p.Device.Address] = p
}

// OnConnect installs a hook run before each connection attempt.
func (a *Adapter) OnConnect(hook func(address string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connectHook = hook
}

// OnConnected installs a hook run after each connection is established,
// before the caller sees it.
func (a *Adapter) OnConnected(hook func(*Connection)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.openHook = hook
}

func (a *Adapter) Enable() error { return a.EnableErr }

func (a *Adapter) Scan(_ context.Context, match func(ble.Device) bool) ([]ble.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []ble.Device
	for _, p := range a.peripherals {
		if match == nil || match(p.Device) {
			out = append(out, p.Device)
		}
	}
	return out, nil
}

func (a *Adapter) Connect(ctx context.Context, address string) (ble.Connection, error) {
	a.mu.Lock()
	hook := a.connectHook
	a.mu.Unlock()
	if hook != nil {
		hook(address)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	p, ok := a.peripherals[address]
	if !ok {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, address)
	}
	if p.ConnectErr != nil {
		a.mu.Unlock()
		return nil, p.ConnectErr
	}
	conn := &Connection{
		Address: address,
		TX:      &Characteristic{},
		RX:      &Characteristic{},
		missing: make(map[string]bool),
	}
	for _, id := range p.Missing {
		conn.missing[id] = true
	}
	a.conns[address] = append(a.conns[address], conn)
	opened := a.openHook
	a.mu.Unlock()

	if opened != nil {
		opened(conn)
	}
	return conn, nil
}

// Conn returns the most recent connection to address, or nil.
func (a *Adapter) Conn(address string) *Connection {
	a.mu.Lock()
	defer a.mu.Unlock()
	cs := a.conns[address]
	if len(cs) == 0 {
		return nil
	}
	return cs[len(cs)-1]
}

// Connections returns every connection ever made to address.
func (a *Adapter) Connections(address string) []*Connection {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Connection, len(a.conns[address]))
	copy(out, a.conns[address])
	return out
}

// TotalWrites counts writes across every connection.
func (a *Adapter) TotalWrites() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, cs := range a.conns {
		for _, c := range cs {
			n += len(c.TX.Writes())
		}
	}
	return n
}

var _ ble.Adapter = (*Adapter)(nil)
var _ ble.Connection = (*Connection)(nil)
var _ ble.Characteristic = (*Characteristic)(nil)
