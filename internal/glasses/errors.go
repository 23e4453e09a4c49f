package glasses

import (
	"errors"

	"github.com/chaz8081/g1link/internal/ble/protocol"
)

// Error taxonomy. Every error returned by a Session wraps one of these;
// test with errors.Is.
var (
	// ErrConnection covers an adapter that is not ready, an unreachable
	// arm, or a missing service/characteristic.
	ErrConnection = errors.New("glasses: connection failed")
	// ErrNotConnected is returned by send operations outside the Connected state.
	ErrNotConnected = errors.New("glasses: not connected")
	// ErrPayloadTooLarge is returned when a payload exceeds a protocol cap.
	ErrPayloadTooLarge = errors.New("glasses: payload too large")
	// ErrImageTooWide is returned when a bitmap is wider than the display.
	ErrImageTooWide = errors.New("glasses: image wider than display")
	// ErrLinkDropped is wrapped when an arm's link drops mid-connect.
	ErrLinkDropped = errors.New("glasses: arm link dropped")
	// ErrTransportWrite is returned when a characteristic write fails.
	ErrTransportWrite = errors.New("glasses: transport write failed")
	// ErrTimeout is returned when a bounded wait for the arms expires.
	ErrTimeout = errors.New("glasses: timed out")
	// ErrProtocol marks inbound frames shorter than their header.
	ErrProtocol = protocol.ErrShortFrame
	// ErrInvalidArgument is returned for out-of-range command arguments.
	ErrInvalidArgument = errors.New("glasses: invalid argument")
)
