package glasses

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chaz8081/g1link/internal/ble/protocol"
)

// SetMicrophone switches the microphone, which lives in the right arm.
func (s *Session) SetMicrophone(ctx context.Context, enable bool) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.writeSide(ctx, Right, protocol.MicrophoneFrame(enable))
}

// CaptureAudio records raw microphone data for d and returns it. The
// microphone is switched off again even if ctx is cancelled. ErrTimeout
// is returned when no audio arrived at all.
func (s *Session) CaptureAudio(ctx context.Context, d time.Duration) ([]byte, error) {
	var (
		mu  sync.Mutex
		buf []byte
	)
	sub := s.dispatcher.Subscribe(EventAudio, func(ev Event) {
		mu.Lock()
		buf = append(buf, ev.Audio.Data...)
		mu.Unlock()
	})
	defer s.dispatcher.Unsubscribe(sub)

	if err := s.SetMicrophone(ctx, true); err != nil {
		return nil, err
	}
	waitErr := s.clock.Sleep(ctx, d)
	offErr := s.SetMicrophone(context.WithoutCancel(ctx), false)
	if waitErr != nil {
		return nil, waitErr
	}
	if offErr != nil {
		return nil, offErr
	}

	mu.Lock()
	defer mu.Unlock()
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: no audio after %s", ErrTimeout, d)
	}
	return buf, nil
}
