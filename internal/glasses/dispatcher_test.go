package glasses

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chaz8081/g1link/internal/metrics"
)

func TestDispatcherObserversRunInOrder(t *testing.T) {
	d := NewDispatcher(nil, nil)
	var order []int
	d.Subscribe(EventDevice, func(Event) { order = append(order, 1) })
	d.Subscribe(EventDevice, func(Event) { order = append(order, 2) })
	d.Subscribe(EventBattery, func(Event) { order = append(order, 99) })
	d.Subscribe(EventDevice, func(Event) { order = append(order, 3) })

	d.Handle(Left, []byte{0xF5, 0x06})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("observer order = %v, want [1 2 3]", order)
	}
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := NewDispatcher(nil, nil)
	calls := 0
	sub := d.Subscribe(EventDevice, func(Event) { calls++ })

	if !d.Unsubscribe(sub) {
		t.Fatal("Unsubscribe() = false for a registered observer")
	}
	if d.Unsubscribe(sub) {
		t.Error("second Unsubscribe() = true")
	}
	d.Handle(Left, []byte{0xF5, 0x06})
	if calls != 0 {
		t.Errorf("unsubscribed observer called %d times", calls)
	}
}

func TestDispatcherDeviceTransitions(t *testing.T) {
	d := NewDispatcher(nil, nil)
	var got Event
	d.Subscribe(EventDevice, func(ev Event) { got = ev })

	d.Handle(Right, []byte{0xF5, 0x08})

	st := d.State()
	if st.GlassesWorn || !st.InCase || !st.CaseOpen {
		t.Errorf("state after in_case_lid_open = %+v", st)
	}
	if got.Name != "in_case_lid_open" || got.Side != Right || got.State != st {
		t.Errorf("event = %+v", got)
	}

	d.Handle(Right, []byte{0xF5, 0x0B})
	if st := d.State(); !st.InCase || st.CaseOpen {
		t.Errorf("state after lid closed = %+v", st)
	}
}

func TestDispatcherUnknownDeviceEvent(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Handle(Left, []byte{0xF5, 0x06})
	before := d.State()

	var got Event
	d.Subscribe(EventDevice, func(ev Event) { got = ev })
	d.Handle(Left, []byte{0xF5, 0x7E})

	if got.Name != "unknown" {
		t.Errorf("Name = %q, want unknown", got.Name)
	}
	if d.State() != before {
		t.Errorf("unknown event changed state: %+v -> %+v", before, d.State())
	}
}

func TestDispatcherDropsShortAndMalformed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	d := NewDispatcher(nil, m)
	events := 0
	for _, k := range []EventKind{EventDevice, EventBattery, EventAudio, EventAck, EventRaw} {
		d.Subscribe(k, func(Event) { events++ })
	}

	d.Handle(Left, nil)
	d.Handle(Left, []byte{0xF5})
	d.Handle(Left, []byte{0x2C, 0x00, 0x01}) // battery needs 4 bytes

	if events != 0 {
		t.Errorf("events = %d, want 0", events)
	}
	if got := testutil.ToFloat64(m.DroppedFrames); got != 3 {
		t.Errorf("dropped = %v, want 3", got)
	}
}

func TestDispatcherBatteryAckAndRaw(t *testing.T) {
	d := NewDispatcher(nil, nil)
	var battery, ack, raw []Event
	d.Subscribe(EventBattery, func(ev Event) { battery = append(battery, ev) })
	d.Subscribe(EventAck, func(ev Event) { ack = append(ack, ev) })
	d.Subscribe(EventRaw, func(ev Event) { raw = append(raw, ev) })

	d.Handle(Right, []byte{0x2C, 0x00, 0x01, 85})
	d.Handle(Right, []byte{0x0E, 0xC9})
	d.Handle(Left, []byte{0x99, 0x01})

	if len(battery) != 1 || battery[0].Battery.Percentage != 85 || !battery[0].Battery.Charging || battery[0].Side != Right {
		t.Errorf("battery events = %+v", battery)
	}
	if len(ack) != 1 || ack[0].Ack.Opcode != 0x0E || !ack[0].Ack.OK {
		t.Errorf("ack events = %+v", ack)
	}
	if len(raw) != 1 || raw[0].Raw[0] != 0x99 {
		t.Errorf("raw events = %+v", raw)
	}
}
