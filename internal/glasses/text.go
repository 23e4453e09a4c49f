package glasses

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaz8081/g1link/internal/ble/protocol"
)

// textStatus marks a text frame as new content shown in text mode.
const textStatus = protocol.ScreenTextShow | protocol.ScreenNewContent

// maxScreens is the most pages a single byte can number.
const maxScreens = 255

// SendText word-wraps text to the display, groups the lines into screens
// and sends each screen to both arms. Screens are numbered from 1. A screen
// too long for one frame is split across packets of the same page.
func (s *Session) SendText(ctx context.Context, text string) error {
	if _, _, err := s.endpoints(); err != nil {
		return err
	}

	lines := protocol.SplitIntoLines(text, s.opts.DisplayWidth, s.opts.AvgCharWidth)
	if len(lines) == 0 {
		return fmt.Errorf("%w: empty text", ErrInvalidArgument)
	}
	screens := protocol.SplitIntoScreens(lines, s.opts.LinesPerScreen)
	if len(screens) > maxScreens {
		return fmt.Errorf("%w: %d screens, at most %d", ErrPayloadTooLarge, len(screens), maxScreens)
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	maxPages := byte(len(screens))
	first := true
	for i, screen := range screens {
		chunks := protocol.ChunkScreen(strings.Join(screen, "\n"), s.variant.MaxTextPayload())
		for j, chunk := range chunks {
			if !first {
				delay := s.opts.InterFrameDelay
				if j == 0 {
					delay = s.opts.PageInterval
				}
				if err := s.pause(ctx, delay); err != nil {
					return err
				}
			}
			first = false

			frame := s.codec.BuildFrame(protocol.OpSendText, []byte(chunk),
				byte(j), byte(len(chunks)), byte(i+1), maxPages, textStatus, 0, 0)
			if err := s.writeBoth(ctx, frame); err != nil {
				return fmt.Errorf("glasses: text screen %d/%d: %w", i+1, len(screens), err)
			}
		}
	}
	s.log.Debug("[G1] text sent", "screens", len(screens), "lines", len(lines))
	return nil
}
