package protocol

import "fmt"

// InitFrame is sent to the left arm once both arms are connected.
func InitFrame() []byte { return []byte{OpInit, InitArg} }

// HeartbeatFrame builds the two-byte keepalive.
func HeartbeatFrame(seq byte) []byte { return []byte{OpHeartbeat, seq} }

// BrightnessFrame sets the display brightness; level is 0..MaxBrightness.
func BrightnessFrame(level byte, auto bool) ([]byte, error) {
	if level > MaxBrightness {
		return nil, fmt.Errorf("protocol: brightness %d out of range 0..%d", level, MaxBrightness)
	}
	var a byte
	if auto {
		a = 1
	}
	return []byte{OpSetBrightness, level, a}, nil
}

// SilentModeFrame toggles silent mode.
func SilentModeFrame(on bool) []byte {
	if on {
		return []byte{OpSetSilentMode, SilentModeOn, 0x00}
	}
	return []byte{OpSetSilentMode, SilentModeOff, 0x00}
}

// ClearScreenFrame blanks the display.
func ClearScreenFrame() []byte { return []byte{OpClearScreen} }

// BatteryQueryFrame requests a battery reading.
func BatteryQueryFrame() []byte { return []byte{OpGetBattery, BatteryQueryArg} }

// MicrophoneFrame turns the right arm's microphone on or off.
func MicrophoneFrame(enable bool) []byte {
	if enable {
		return []byte{OpMicrophone, MicEnable}
	}
	return []byte{OpMicrophone, MicDisable}
}
