// Package bitmap loads and builds the BMP images the glasses display.
// The display only takes 1-bit-per-pixel bitmaps.
package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/bmp"
)

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
	paletteLen    = 2 * 4
	pixelOffset   = fileHeaderLen + infoHeaderLen + paletteLen
)

// ErrDepth is returned for bitmaps that are not 1 bit per pixel.
var ErrDepth = errors.New("bitmap: not a 1-bit-per-pixel BMP")

// Load reads a BMP file and returns its bytes unchanged together with its
// width in pixels. The bytes are sent to the glasses as-is.
func Load(path string) ([]byte, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("bitmap: reading %s: %w", path, err)
	}
	width, err := Width(data)
	if err != nil {
		return nil, 0, fmt.Errorf("bitmap: %s: %w", path, err)
	}
	return data, width, nil
}

// Width decodes just the BMP header and returns the image width. It fails
// with ErrDepth unless the bitmap is 1 bit per pixel.
func Width(data []byte) (int, error) {
	cfg, err := bmp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decoding header: %w", err)
	}
	// DecodeConfig has checked the header is long enough.
	if bpp := binary.LittleEndian.Uint16(data[fileHeaderLen+14:]); bpp != 1 {
		return 0, fmt.Errorf("%w: %d bpp", ErrDepth, bpp)
	}
	return cfg.Width, nil
}

// Encode renders img as a bottom-up 1-bit BMP. Pixels at or above half
// brightness become white, the rest black.
func Encode(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("bitmap: encode: empty image %dx%d", w, h)
	}
	stride := ((w + 31) / 32) * 4
	size := pixelOffset + stride*h

	buf := make([]byte, size)
	le := binary.LittleEndian

	copy(buf[0:2], "BM")
	le.PutUint32(buf[2:], uint32(size))
	le.PutUint32(buf[10:], pixelOffset)

	info := buf[fileHeaderLen:]
	le.PutUint32(info[0:], infoHeaderLen)
	le.PutUint32(info[4:], uint32(w))
	le.PutUint32(info[8:], uint32(h))
	le.PutUint16(info[12:], 1) // planes
	le.PutUint16(info[14:], 1) // bpp
	le.PutUint32(info[20:], uint32(stride*h))
	le.PutUint32(info[32:], 2) // colours used

	// Palette entries are BGRA: index 0 black, index 1 white.
	copy(buf[fileHeaderLen+infoHeaderLen+4:], []byte{0xFF, 0xFF, 0xFF, 0x00})

	for y := 0; y < h; y++ {
		row := buf[pixelOffset+(h-1-y)*stride:]
		for x := 0; x < w; x++ {
			if white(img.At(b.Min.X+x, b.Min.Y+y)) {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return buf, nil
}

func white(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y >= 0x80
}

// monochrome is the two-colour palette of the display.
var monochrome = color.Palette{color.Black, color.White}

// TestPattern builds a width x height checkerboard with square cells of
// the given size, useful for checking a display end to end.
func TestPattern(width, height, cell int) *image.Paletted {
	if cell <= 0 {
		cell = 8
	}
	img := image.NewPaletted(image.Rect(0, 0, width, height), monochrome)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/cell+y/cell)%2 == 1 {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}
