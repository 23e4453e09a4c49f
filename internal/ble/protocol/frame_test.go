package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildFrameLayoutXY(t *testing.T) {
	c := NewCodec(VariantG1)
	got := c.BuildFrame(OpSendText, []byte("hi"), 1, 3, 2, 4, ScreenTextShow|ScreenNewContent, 0x0102, 0x0304)
	want := []byte{
		0x4E,       // opcode
		0x00,       // sequence
		0x03,       // total packets
		0x01,       // packet index
		0x71,       // status flags
		0x02, 0x01, // x LE
		0x04, 0x03, // y LE
		0x02, // page
		0x04, // max pages
		'h', 'i',
	}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildFrame() =\n  got  %x\n  want %x", got, want)
	}
}

func TestBuildFrameLayoutCharPos(t *testing.T) {
	c := NewCodec(VariantG1Legacy)
	got := c.BuildFrame(OpSendText, []byte{0xAA}, 0, 1, 1, 1, ScreenNewContent, 0x0102, 0xFFFF)
	want := []byte{0x4E, 0x00, 0x01, 0x00, 0x01, 0x01, 0x02, 0x01, 0x01, 0xAA}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildFrame() =\n  got  %x\n  want %x", got, want)
	}
	if c.HeaderSize() != 9 {
		t.Errorf("HeaderSize() = %d, want 9", c.HeaderSize())
	}
}

func TestSequenceWrapsAt256(t *testing.T) {
	c := NewCodec(VariantG1)
	var prev byte
	for i := 0; i < 600; i++ {
		f := c.BuildFrame(OpSendText, nil, 0, 1, 1, 1, 0, 0, 0)
		seq := f[1]
		if seq != byte(i%256) {
			t.Fatalf("frame %d sequence = %d, want %d", i, seq, i%256)
		}
		if i > 0 && seq == prev {
			t.Fatalf("frame %d repeats sequence %d", i, seq)
		}
		prev = seq
	}
}

func TestResetSequence(t *testing.T) {
	c := NewCodec(VariantG1)
	c.BuildFrame(OpSendText, nil, 0, 1, 1, 1, 0, 0, 0)
	c.BuildFrame(OpSendText, nil, 0, 1, 1, 1, 0, 0, 0)
	c.ResetSequence()
	if got := c.BuildFrame(OpSendText, nil, 0, 1, 1, 1, 0, 0, 0)[1]; got != 0 {
		t.Errorf("sequence after reset = %d, want 0", got)
	}
}

func TestParseFrameRoundTrip(t *testing.T) {
	for _, v := range []Variant{VariantG1, VariantG1Legacy} {
		t.Run(v.Name, func(t *testing.T) {
			c := NewCodec(v)
			in := Frame{
				Opcode: OpSendText, Sequence: 7, TotalPackets: 2, PacketIndex: 1,
				StatusFlags: 0x71, PositionX: 300, Page: 3, MaxPages: 9,
				Payload: []byte("payload"),
			}
			if v.Header == HeaderPositionXY {
				in.PositionY = 40
			}
			out, err := c.ParseFrame(c.Encode(in))
			if err != nil {
				t.Fatalf("ParseFrame() error = %v", err)
			}
			if out.Sequence != in.Sequence || out.PositionX != in.PositionX || out.PositionY != in.PositionY ||
				out.Page != in.Page || out.MaxPages != in.MaxPages || !bytes.Equal(out.Payload, in.Payload) {
				t.Errorf("ParseFrame() = %+v, want %+v", out, in)
			}
		})
	}
}

func TestParseFrameShort(t *testing.T) {
	c := NewCodec(VariantG1)
	_, err := c.ParseFrame([]byte{OpSendText, 0x00, 0x01})
	if !errors.Is(err, ErrShortFrame) {
		t.Errorf("ParseFrame() error = %v, want ErrShortFrame", err)
	}
}

func TestMaxTextPayload(t *testing.T) {
	if got := VariantG1.MaxTextPayload(); got != 183 {
		t.Errorf("VariantG1.MaxTextPayload() = %d, want 183", got)
	}
	if got := VariantG1Legacy.MaxTextPayload(); got != 185 {
		t.Errorf("VariantG1Legacy.MaxTextPayload() = %d, want 185", got)
	}
}
