// Package protocol implements the wire format spoken by the G1 glasses arms:
// command opcodes, the text frame header, bitmap chunking, the transfer
// checksum, notification payloads and decoding of inbound notifications.
package protocol

// Nordic UART service exposed by both arms.
const (
	ServiceUUID    = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	WriteCharUUID  = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	NotifyCharUUID = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

// Command opcodes (byte 0 of every outbound frame).
const (
	OpSetBrightness     byte = 0x01
	OpSetSilentMode     byte = 0x03
	OpMicrophone        byte = 0x0E
	OpSendBitmap        byte = 0x15
	OpCRCCheck          byte = 0x16
	OpClearScreen       byte = 0x18
	OpHeartbeat         byte = 0x25
	OpGetBattery        byte = 0x2C
	OpSendNotification  byte = 0x4B
	OpClearNotification byte = 0x4C
	OpInit              byte = 0x4D
	OpSendText          byte = 0x4E
	OpAudioData         byte = 0xF1
	OpDeviceEvents      byte = 0xF5
)

// BitmapTransmissionEnd is written to both arms after the last bitmap packet.
var BitmapTransmissionEnd = []byte{0x20, 0x0D, 0x0E}

// BitmapStorageAddress prefixes the first bitmap packet.
var BitmapStorageAddress = []byte{0x00, 0x1C, 0x00, 0x00}

// Command arguments.
const (
	InitArg byte = 0x01

	SilentModeOn  byte = 0x0C
	SilentModeOff byte = 0x0A

	MicEnable  byte = 0x01
	MicDisable byte = 0x00

	// AckSuccess and AckFailure are the status bytes the arms put after the
	// opcode when acknowledging a command.
	AckSuccess byte = 0xC9
	AckFailure byte = 0xCA

	// BatteryQueryArg asks the arm for its battery level.
	BatteryQueryArg byte = 0x01

	MaxBrightness byte = 0x3F
)

// Text screen status flags (frame byte 4).
const (
	ScreenNewContent byte = 0x01
	ScreenAIShowing  byte = 0x30
	ScreenAIComplete byte = 0x40
	ScreenManual     byte = 0x50
	ScreenNetError   byte = 0x60
	ScreenTextShow   byte = 0x70
)

// OpName returns a short human label for an opcode, used in logs.
func OpName(op byte) string {
	switch op {
	case OpSetBrightness:
		return "set_brightness"
	case OpSetSilentMode:
		return "set_silent_mode"
	case OpMicrophone:
		return "microphone"
	case OpSendBitmap:
		return "send_bitmap"
	case OpCRCCheck:
		return "crc_check"
	case OpClearScreen:
		return "clear_screen"
	case OpHeartbeat:
		return "heartbeat"
	case OpGetBattery:
		return "get_battery"
	case OpSendNotification:
		return "send_notification"
	case OpClearNotification:
		return "clear_notification"
	case OpInit:
		return "init"
	case OpSendText:
		return "send_text"
	case OpAudioData:
		return "audio_data"
	case OpDeviceEvents:
		return "device_events"
	case BitmapTransmissionEnd[0]:
		return "bitmap_end"
	default:
		return "unknown"
	}
}
