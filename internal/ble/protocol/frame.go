package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

// ErrShortFrame is returned when an inbound frame is shorter than its header.
var ErrShortFrame = errors.New("protocol: frame shorter than header")

// Frame is a decoded text frame.
type Frame struct {
	Opcode       byte
	Sequence     byte
	TotalPackets byte
	PacketIndex  byte
	StatusFlags  byte
	PositionX    uint16
	PositionY    uint16
	Page         byte
	MaxPages     byte
	Payload      []byte
}

// Sequencer hands out mod-256 sequence numbers. The first value is 0.
// Safe for concurrent use.
type Sequencer struct {
	mu sync.Mutex
	n  byte
}

// Next returns the current sequence number and advances the counter,
// wrapping from 255 to 0.
func (s *Sequencer) Next() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.n
	s.n++
	return v
}

// Reset rewinds the counter to 0.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	s.n = 0
	s.mu.Unlock()
}

// Codec builds and parses text frames for one protocol variant. The
// sequence counter it owns is shared by every frame built through it.
type Codec struct {
	layout HeaderLayout
	seq    Sequencer
}

// NewCodec returns a codec using the header layout of v.
func NewCodec(v Variant) *Codec {
	return &Codec{layout: v.Header}
}

// HeaderSize is the number of header bytes in frames built by c.
func (c *Codec) HeaderSize() int { return c.layout.HeaderSize() }

// ResetSequence rewinds the frame sequence counter.
func (c *Codec) ResetSequence() { c.seq.Reset() }

// BuildFrame encodes a frame with a freshly allocated sequence number.
// Keeping payload within the variant's MaxTextPayload is the caller's job.
func (c *Codec) BuildFrame(opcode byte, payload []byte, packetIndex, totalPackets, page, maxPages, statusFlags byte, x, y uint16) []byte {
	return c.Encode(Frame{
		Opcode:       opcode,
		Sequence:     c.seq.Next(),
		TotalPackets: totalPackets,
		PacketIndex:  packetIndex,
		StatusFlags:  statusFlags,
		PositionX:    x,
		PositionY:    y,
		Page:         page,
		MaxPages:     maxPages,
		Payload:      payload,
	})
}

// Encode lays out f without touching the sequence counter.
func (c *Codec) Encode(f Frame) []byte {
	hs := c.layout.HeaderSize()
	buf := make([]byte, hs+len(f.Payload))
	buf[0] = f.Opcode
	buf[1] = f.Sequence
	buf[2] = f.TotalPackets
	buf[3] = f.PacketIndex
	buf[4] = f.StatusFlags
	switch c.layout {
	case HeaderCharPos:
		binary.BigEndian.PutUint16(buf[5:7], f.PositionX)
		buf[7] = f.Page
		buf[8] = f.MaxPages
	default:
		binary.LittleEndian.PutUint16(buf[5:7], f.PositionX)
		binary.LittleEndian.PutUint16(buf[7:9], f.PositionY)
		buf[9] = f.Page
		buf[10] = f.MaxPages
	}
	copy(buf[hs:], f.Payload)
	return buf
}

// ParseFrame decodes a frame laid out by Encode.
func (c *Codec) ParseFrame(data []byte) (Frame, error) {
	hs := c.layout.HeaderSize()
	if len(data) < hs {
		return Frame{}, fmt.Errorf("%w: got %d bytes, need %d", ErrShortFrame, len(data), hs)
	}
	f := Frame{
		Opcode:       data[0],
		Sequence:     data[1],
		TotalPackets: data[2],
		PacketIndex:  data[3],
		StatusFlags:  data[4],
	}
	switch c.layout {
	case HeaderCharPos:
		f.PositionX = binary.BigEndian.Uint16(data[5:7])
		f.Page = data[7]
		f.MaxPages = data[8]
	default:
		f.PositionX = binary.LittleEndian.Uint16(data[5:7])
		f.PositionY = binary.LittleEndian.Uint16(data[7:9])
		f.Page = data[9]
		f.MaxPages = data[10]
	}
	f.Payload = make([]byte, len(data)-hs)
	copy(f.Payload, data[hs:])
	return f, nil
}
