package protocol

import (
	"encoding/binary"
	"fmt"
)

// MinInboundLen is the shortest inbound notification worth decoding.
const MinInboundLen = 2

// DeviceState is the physical context reported by the arms.
type DeviceState struct {
	GlassesWorn     bool
	InCase          bool
	CaseOpen        bool
	GlassesCharging bool
	SilentMode      bool
}

// DeviceEventCode is the sub-code following OpDeviceEvents.
type DeviceEventCode byte

const (
	EventDoubleTap       DeviceEventCode = 0x00
	EventSingleTap       DeviceEventCode = 0x01
	EventHeadUp          DeviceEventCode = 0x02
	EventHeadDown        DeviceEventCode = 0x03
	EventSilentModeOn    DeviceEventCode = 0x04
	EventSilentModeOff   DeviceEventCode = 0x05
	EventWorn            DeviceEventCode = 0x06
	EventNotWorn         DeviceEventCode = 0x07
	EventInCaseLidOpen   DeviceEventCode = 0x08
	EventGlassesCharging DeviceEventCode = 0x09
	EventOutOfCase       DeviceEventCode = 0x0A
	EventInCaseLidClosed DeviceEventCode = 0x0B
	EventCaseCharging    DeviceEventCode = 0x0E
	EventCaseBattery     DeviceEventCode = 0x0F
	EventPairingSuccess  DeviceEventCode = 0x11
	EventLongPress       DeviceEventCode = 0x17
	EventLongPressEnd    DeviceEventCode = 0x18
	EventDashboardOpen   DeviceEventCode = 0x1E
	EventDashboardClose  DeviceEventCode = 0x1F
	EventTranslateTap    DeviceEventCode = 0x20
)

var deviceEventNames = map[DeviceEventCode]string{
	EventDoubleTap:       "double_tap",
	EventSingleTap:       "single_tap",
	EventHeadUp:          "head_up",
	EventHeadDown:        "head_down",
	EventSilentModeOn:    "silent_mode_on",
	EventSilentModeOff:   "silent_mode_off",
	EventWorn:            "worn",
	EventNotWorn:         "not_worn",
	EventInCaseLidOpen:   "in_case_lid_open",
	EventGlassesCharging: "charging",
	EventOutOfCase:       "out_of_case",
	EventInCaseLidClosed: "in_case_lid_closed",
	EventCaseCharging:    "case_charging",
	EventCaseBattery:     "case_battery",
	EventPairingSuccess:  "pairing_success",
	EventLongPress:       "long_press",
	EventLongPressEnd:    "long_press_end",
	EventDashboardOpen:   "dashboard_open",
	EventDashboardClose:  "dashboard_close",
	EventTranslateTap:    "translate_tap",
}

// DeviceEvent is a decoded OpDeviceEvents notification.
type DeviceEvent struct {
	Code DeviceEventCode
	// Arg is the byte following the sub-code, or 0 when absent.
	Arg byte
	// Known is false for sub-codes outside the table.
	Known bool
}

// Name returns the event label, "unknown" for unrecognized sub-codes.
func (e DeviceEvent) Name() string {
	if e.Code == EventGlassesCharging {
		if e.Charging() {
			return "charging_on"
		}
		return "charging_off"
	}
	if name, ok := deviceEventNames[e.Code]; ok {
		return name
	}
	return "unknown"
}

// Charging reports the charging flag carried by EventGlassesCharging.
// A missing argument byte means charging started.
func (e DeviceEvent) Charging() bool {
	return e.Arg != 0
}

// Apply returns s updated by the transition e describes. Events that do
// not touch device state return s unchanged.
func (e DeviceEvent) Apply(s DeviceState) DeviceState {
	switch e.Code {
	case EventSilentModeOn:
		s.SilentMode = true
	case EventSilentModeOff:
		s.SilentMode = false
	case EventWorn:
		s.GlassesWorn = true
		s.InCase = false
	case EventNotWorn:
		s.GlassesWorn = false
		s.InCase = false
	case EventInCaseLidOpen:
		s.GlassesWorn = false
		s.InCase = true
		s.CaseOpen = true
	case EventInCaseLidClosed:
		s.GlassesWorn = false
		s.InCase = true
		s.CaseOpen = false
	case EventOutOfCase:
		s.InCase = false
		s.CaseOpen = true
	case EventGlassesCharging:
		s.GlassesCharging = e.Charging()
	}
	return s
}

// DecodeDeviceEvent decodes an OpDeviceEvents notification.
func DecodeDeviceEvent(data []byte) (DeviceEvent, error) {
	if len(data) < MinInboundLen {
		return DeviceEvent{}, fmt.Errorf("%w: device event of %d bytes", ErrShortFrame, len(data))
	}
	if data[0] != OpDeviceEvents {
		return DeviceEvent{}, fmt.Errorf("protocol: not a device event: opcode 0x%02x", data[0])
	}
	ev := DeviceEvent{Code: DeviceEventCode(data[1])}
	_, ev.Known = deviceEventNames[ev.Code]
	if len(data) > 2 {
		ev.Arg = data[2]
	} else if ev.Code == EventGlassesCharging {
		ev.Arg = 1
	}
	return ev, nil
}

// BatteryInfo is one arm's battery reading.
type BatteryInfo struct {
	Percentage uint8
	Charging   bool
	// Voltage in millivolts, nil when the arm did not report it.
	Voltage *uint16
}

// DecodeBattery decodes an OpGetBattery response laid out as
// {opcode, reserved, flags, percentage[, voltage LE u16]}.
func DecodeBattery(data []byte) (BatteryInfo, error) {
	if len(data) < 4 {
		return BatteryInfo{}, fmt.Errorf("%w: battery response of %d bytes", ErrShortFrame, len(data))
	}
	if data[0] != OpGetBattery {
		return BatteryInfo{}, fmt.Errorf("protocol: not a battery response: opcode 0x%02x", data[0])
	}
	pct := data[3]
	if pct > 100 {
		pct = 100
	}
	info := BatteryInfo{
		Percentage: pct,
		Charging:   data[2]&0x01 != 0,
	}
	if len(data) >= 6 {
		v := binary.LittleEndian.Uint16(data[4:6])
		info.Voltage = &v
	}
	return info, nil
}

// AudioChunk is one slice of raw microphone data streamed by the right arm.
type AudioChunk struct {
	Sequence byte
	Data     []byte
}

// DecodeAudio decodes an OpAudioData notification. The data is copied.
func DecodeAudio(data []byte) (AudioChunk, error) {
	if len(data) < MinInboundLen {
		return AudioChunk{}, fmt.Errorf("%w: audio chunk of %d bytes", ErrShortFrame, len(data))
	}
	chunk := AudioChunk{Sequence: data[1], Data: make([]byte, len(data)-2)}
	copy(chunk.Data, data[2:])
	return chunk, nil
}

// Ack is a command acknowledgement: {opcode, status, ...}.
type Ack struct {
	Opcode byte
	OK     bool
	Extra  []byte
}

// DecodeAck decodes a generic acknowledgement.
func DecodeAck(data []byte) (Ack, error) {
	if len(data) < MinInboundLen {
		return Ack{}, fmt.Errorf("%w: ack of %d bytes", ErrShortFrame, len(data))
	}
	return Ack{Opcode: data[0], OK: data[1] == AckSuccess, Extra: append([]byte(nil), data[2:]...)}, nil
}
