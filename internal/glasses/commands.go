package glasses

import (
	"context"
	"errors"
	"fmt"

	"github.com/chaz8081/g1link/internal/ble/protocol"
)

// SetBrightness sets the display brightness, 0..63, or hands control to
// the ambient light sensor when auto is true.
func (s *Session) SetBrightness(ctx context.Context, level int, auto bool) error {
	if _, _, err := s.endpoints(); err != nil {
		return err
	}
	if level < 0 || level > int(protocol.MaxBrightness) {
		return fmt.Errorf("%w: brightness %d out of range 0..%d", ErrInvalidArgument, level, protocol.MaxBrightness)
	}
	frame, err := protocol.BrightnessFrame(byte(level), auto)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return s.sendSingle(ctx, frame)
}

// SetSilentMode turns silent mode on or off.
func (s *Session) SetSilentMode(ctx context.Context, on bool) error {
	return s.sendSingle(ctx, protocol.SilentModeFrame(on))
}

// ClearScreen blanks both displays.
func (s *Session) ClearScreen(ctx context.Context) error {
	return s.sendSingle(ctx, protocol.ClearScreenFrame())
}

// QueryBattery asks both arms for their battery level. Readings arrive
// asynchronously as EventBattery and are available from Battery.
func (s *Session) QueryBattery(ctx context.Context) error {
	return s.sendSingle(ctx, protocol.BatteryQueryFrame())
}

// SendNotification shows a notification card. Payloads over the size cap
// are rejected before anything is written.
func (s *Session) SendNotification(ctx context.Context, n protocol.Notification) error {
	if _, _, err := s.endpoints(); err != nil {
		return err
	}
	frame, err := protocol.NotificationFrame(n)
	if err != nil {
		if errors.Is(err, protocol.ErrNotificationTooLarge) {
			return fmt.Errorf("%w: %w", ErrPayloadTooLarge, err)
		}
		return fmt.Errorf("glasses: encode notification: %w", err)
	}
	return s.sendSingle(ctx, frame)
}

// ClearNotification removes a notification previously sent with msgID.
func (s *Session) ClearNotification(ctx context.Context, msgID uint32) error {
	return s.sendSingle(ctx, protocol.ClearNotificationFrame(msgID))
}
