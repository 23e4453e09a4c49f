package protocol

import "testing"

func TestChecksumKnownVector(t *testing.T) {
	if got := Checksum([]byte("123456789")); got != 0xFC891918 {
		t.Errorf("Checksum(\"123456789\") = 0x%08X, want 0xFC891918", got)
	}
}

func TestChecksumDeterministic(t *testing.T) {
	buf := []byte{
		0x00, 0x1C, 0x00, 0x00, 0xDE, 0xAD, 0xBE, 0xEF,
		0x01, 0x02, 0x03, 0x04, 0xFF, 0xFE, 0xFD, 0xFC,
	}
	first := Checksum(buf)
	for i := 0; i < 10; i++ {
		if got := Checksum(buf); got != first {
			t.Fatalf("run %d: Checksum = 0x%08X, want 0x%08X", i, got, first)
		}
	}
}

func TestChecksumEmpty(t *testing.T) {
	// register untouched, so the result is ^0xFFFFFFFF
	if got := Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = 0x%08X, want 0", got)
	}
}

func TestCRC32StreamingMatchesOneShot(t *testing.T) {
	data := []byte("stream this in a couple of pieces")
	h := NewCRC32()
	h.Write(data[:7])
	h.Write(data[7:])
	if h.Sum32() != Checksum(data) {
		t.Errorf("streaming = 0x%08X, one-shot = 0x%08X", h.Sum32(), Checksum(data))
	}

	sum := h.Sum(nil)
	v := h.Sum32()
	if len(sum) != 4 || sum[0] != byte(v>>24) || sum[3] != byte(v) {
		t.Errorf("Sum() = %x, want big-endian 0x%08X", sum, v)
	}

	h.Reset()
	if h.Sum32() != Checksum(nil) {
		t.Error("Reset() did not restore the initial register")
	}
}
