package glasses

import (
	"log/slog"
	"sync"

	"github.com/chaz8081/g1link/internal/ble/protocol"
	"github.com/chaz8081/g1link/internal/metrics"
)

// EventKind selects which observers an event is delivered to.
type EventKind int

const (
	// EventDevice is a device-state transition (worn, cased, charging, ...).
	EventDevice EventKind = iota
	// EventBattery is a battery reading from one arm.
	EventBattery
	// EventAudio carries raw microphone bytes from the right arm.
	EventAudio
	// EventAck is a command acknowledgement.
	EventAck
	// EventRaw is any other inbound notification.
	EventRaw
)

func (k EventKind) String() string {
	switch k {
	case EventDevice:
		return "device"
	case EventBattery:
		return "battery"
	case EventAudio:
		return "audio"
	case EventAck:
		return "ack"
	default:
		return "raw"
	}
}

// Event is delivered to observers.
type Event struct {
	Kind EventKind
	Side Side
	// Name labels device events ("worn", "in_case_lid_open", "unknown", ...).
	Name   string
	Device protocol.DeviceEvent
	// State is the device state after the event was applied.
	State   protocol.DeviceState
	Battery protocol.BatteryInfo
	Audio   protocol.AudioChunk
	Ack     protocol.Ack
	Raw     []byte
}

// Subscription identifies a registered observer.
type Subscription struct {
	kind EventKind
	id   uint64
}

type observer struct {
	id uint64
	fn func(Event)
}

// Dispatcher decodes inbound notifications, owns the DeviceState and fans
// events out to observers. Observers run synchronously on the notifying
// goroutine, in registration order, outside the dispatcher's lock.
type Dispatcher struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	state     protocol.DeviceState
	nextID    uint64
	observers map[EventKind][]observer
}

// NewDispatcher creates a dispatcher. log and m may be nil.
func NewDispatcher(log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		log:       log,
		metrics:   m,
		observers: make(map[EventKind][]observer),
	}
}

// Subscribe registers fn for events of kind.
func (d *Dispatcher) Subscribe(kind EventKind, fn func(Event)) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.observers[kind] = append(d.observers[kind], observer{id: d.nextID, fn: fn})
	return Subscription{kind: kind, id: d.nextID}
}

// Unsubscribe removes an observer. It reports whether it was registered.
func (d *Dispatcher) Unsubscribe(sub Subscription) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	obs := d.observers[sub.kind]
	for i, o := range obs {
		if o.id == sub.id {
			d.observers[sub.kind] = append(obs[:i:i], obs[i+1:]...)
			return true
		}
	}
	return false
}

// State returns a copy of the current device state.
func (d *Dispatcher) State() protocol.DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Handle decodes one inbound notification from side.
func (d *Dispatcher) Handle(side Side, data []byte) {
	if len(data) < protocol.MinInboundLen {
		d.metrics.Dropped()
		return
	}

	switch data[0] {
	case protocol.OpDeviceEvents:
		ev, err := protocol.DecodeDeviceEvent(data)
		if err != nil {
			d.drop(side, data, err)
			return
		}
		d.mu.Lock()
		d.state = ev.Apply(d.state)
		state := d.state
		d.mu.Unlock()
		if !ev.Known {
			d.log.Debug("[G1] unknown device event", "side", side, "code", byte(ev.Code))
		}
		d.emit(Event{Kind: EventDevice, Side: side, Name: ev.Name(), Device: ev, State: state, Raw: data})

	case protocol.OpGetBattery:
		info, err := protocol.DecodeBattery(data)
		if err != nil {
			d.drop(side, data, err)
			return
		}
		d.emit(Event{Kind: EventBattery, Side: side, Battery: info, State: d.State(), Raw: data})

	case protocol.OpAudioData:
		chunk, err := protocol.DecodeAudio(data)
		if err != nil {
			d.drop(side, data, err)
			return
		}
		d.emit(Event{Kind: EventAudio, Side: side, Audio: chunk, State: d.State(), Raw: data})

	case protocol.OpMicrophone, protocol.OpSetBrightness, protocol.OpSetSilentMode, protocol.OpSendText,
		protocol.OpSendBitmap, protocol.OpCRCCheck, protocol.OpClearScreen, protocol.OpInit,
		protocol.OpSendNotification, protocol.OpClearNotification:
		ack, err := protocol.DecodeAck(data)
		if err != nil {
			d.drop(side, data, err)
			return
		}
		d.emit(Event{Kind: EventAck, Side: side, Ack: ack, State: d.State(), Raw: data})

	default:
		d.emit(Event{Kind: EventRaw, Side: side, State: d.State(), Raw: data})
	}
}

func (d *Dispatcher) drop(side Side, data []byte, err error) {
	d.metrics.Dropped()
	d.log.Warn("[G1] dropping malformed notification", "side", side, "opcode", protocol.OpName(data[0]), "error", err)
}

func (d *Dispatcher) emit(ev Event) {
	d.metrics.Event(ev.Kind.String())

	d.mu.Lock()
	obs := make([]observer, len(d.observers[ev.Kind]))
	copy(obs, d.observers[ev.Kind])
	d.mu.Unlock()

	for _, o := range obs {
		o.fn(ev)
	}
}
