package glasses

import (
	"context"
	"fmt"

	"github.com/chaz8081/g1link/internal/ble/protocol"
)

// SendImage transfers a 1-bit bitmap to both arms: the bitmap packets, the
// end-of-transmission marker, then the checksum frame. width is the bitmap's
// width in pixels and must fit the display. A failed write aborts the
// transfer; nothing already sent is undone.
func (s *Session) SendImage(ctx context.Context, data []byte, width int) error {
	if _, _, err := s.endpoints(); err != nil {
		return err
	}
	if width > s.variant.MaxDisplayWidth {
		return fmt.Errorf("%w: %dpx, display is %dpx", ErrImageTooWide, width, s.variant.MaxDisplayWidth)
	}
	if len(data) == 0 || width <= 0 {
		return fmt.Errorf("%w: empty image", ErrInvalidArgument)
	}

	packets := protocol.ChunkImage(data, s.variant.ImageChunkSize)
	if len(packets) > 256 {
		s.log.Warn("[G1] image needs more than 256 packets, indices will repeat", "packets", len(packets))
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	for i, pkt := range packets {
		if i > 0 {
			if err := s.pause(ctx, s.opts.InterPacketDelay); err != nil {
				return err
			}
		}
		if err := s.writeBoth(ctx, pkt); err != nil {
			return fmt.Errorf("glasses: image packet %d/%d: %w", i+1, len(packets), err)
		}
	}

	if err := s.pause(ctx, s.opts.InterFrameDelay); err != nil {
		return err
	}
	if err := s.writeBoth(ctx, protocol.BitmapTransmissionEnd); err != nil {
		return fmt.Errorf("glasses: image end marker: %w", err)
	}

	if err := s.pause(ctx, s.opts.InterFrameDelay); err != nil {
		return err
	}
	if err := s.writeBoth(ctx, protocol.CRCFrame(s.variant.ImageChecksum(data))); err != nil {
		return fmt.Errorf("glasses: image checksum: %w", err)
	}
	s.log.Debug("[G1] image sent", "bytes", len(data), "packets", len(packets))
	return nil
}
