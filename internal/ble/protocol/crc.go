package protocol

import "hash"

const (
	crcPoly = 0x04C11DB7
	crcInit = 0xFFFFFFFF
)

// Checksum returns the transfer checksum of data: CRC-32 processed MSB
// first with polynomial 0x04C11DB7, register preset to all ones and the
// result complemented.
func Checksum(data []byte) uint32 {
	return ^crcUpdate(crcInit, data)
}

func crcUpdate(reg uint32, data []byte) uint32 {
	for _, b := range data {
		reg ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if reg&0x80000000 != 0 {
				reg = reg<<1 ^ crcPoly
			} else {
				reg <<= 1
			}
		}
	}
	return reg
}

type crc32MSB struct {
	reg uint32
}

// NewCRC32 returns a streaming hash.Hash32 computing the same value as Checksum.
func NewCRC32() hash.Hash32 {
	return &crc32MSB{reg: crcInit}
}

func (c *crc32MSB) Write(p []byte) (int, error) {
	c.reg = crcUpdate(c.reg, p)
	return len(p), nil
}

func (c *crc32MSB) Sum32() uint32 { return ^c.reg }

func (c *crc32MSB) Sum(b []byte) []byte {
	s := c.Sum32()
	return append(b, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

func (c *crc32MSB) Reset()         { c.reg = crcInit }
func (c *crc32MSB) Size() int      { return 4 }
func (c *crc32MSB) BlockSize() int { return 1 }
