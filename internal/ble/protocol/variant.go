package protocol

import (
	"encoding/binary"
	"fmt"
)

// HeaderLayout selects how the text frame header encodes the screen position.
type HeaderLayout int

const (
	// HeaderPositionXY carries little-endian X and Y words (11-byte header).
	HeaderPositionXY HeaderLayout = iota
	// HeaderCharPos carries a single big-endian character position (9-byte header).
	HeaderCharPos
)

// HeaderSize returns the number of header bytes preceding the payload.
func (l HeaderLayout) HeaderSize() int {
	if l == HeaderCharPos {
		return 9
	}
	return 11
}

// Variant captures the details in which firmware revisions of the protocol
// disagree. A session is built around exactly one variant.
type Variant struct {
	Name string

	Header HeaderLayout

	// MaxPacketSize caps a single text frame, header included.
	MaxPacketSize int

	// ImageChunkSize is the number of bitmap bytes carried per packet.
	ImageChunkSize int

	// MaxDisplayWidth is the widest addressable row in pixels. It bounds
	// text wrapping and rejects bitmaps that are too wide.
	MaxDisplayWidth int

	// ChecksumIncludesAddress prepends BitmapStorageAddress to the data
	// covered by the image checksum.
	ChecksumIncludesAddress bool

	// ChecksumByteOrder is how the checksum is laid out in the CRC frame.
	ChecksumByteOrder binary.ByteOrder
}

// Built-in variants.
var (
	VariantG1 = Variant{
		Name:                    "g1",
		Header:                  HeaderPositionXY,
		MaxPacketSize:           194,
		ImageChunkSize:          192,
		MaxDisplayWidth:         488,
		ChecksumIncludesAddress: true,
		ChecksumByteOrder:       binary.BigEndian,
	}

	VariantG1Legacy = Variant{
		Name:                    "g1-legacy",
		Header:                  HeaderCharPos,
		MaxPacketSize:           194,
		ImageChunkSize:          192,
		MaxDisplayWidth:         488,
		ChecksumIncludesAddress: false,
		ChecksumByteOrder:       binary.LittleEndian,
	}
)

// LookupVariant returns the built-in variant with the given name.
func LookupVariant(name string) (Variant, error) {
	switch name {
	case VariantG1.Name:
		return VariantG1, nil
	case VariantG1Legacy.Name:
		return VariantG1Legacy, nil
	default:
		return Variant{}, fmt.Errorf("protocol: unknown variant %q", name)
	}
}

// MaxTextPayload is the largest payload that fits in one text frame.
func (v Variant) MaxTextPayload() int {
	return v.MaxPacketSize - v.Header.HeaderSize()
}

// ImageChecksum computes the checksum sent in the CRC frame after a bitmap
// transfer and returns it encoded in the variant's byte order.
func (v Variant) ImageChecksum(image []byte) []byte {
	h := NewCRC32()
	if v.ChecksumIncludesAddress {
		h.Write(BitmapStorageAddress)
	}
	h.Write(image)
	order := v.ChecksumByteOrder
	if order == nil {
		order = binary.BigEndian
	}
	out := make([]byte, 4)
	order.PutUint32(out, h.Sum32())
	return out
}
