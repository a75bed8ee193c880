package pixel

import (
	"encoding/binary"
	"fmt"
)

// Pixel holds the raw bytes of a single pixel. How the bytes are read
// depends on the encoding of the buffer the pixel belongs to:
//
//	RGBA8:  R, G, B, A
//	Index8: index, 0, 0, 0
//	UV16:   u (little endian), v (little endian)
//
// The zero Pixel is the zero value of every encoding.
type Pixel [4]byte

// RGBA returns an RGBA8 pixel.
func RGBA(r, g, b, a byte) Pixel {
	return Pixel{r, g, b, a}
}

// Index returns an Index8 pixel.
func Index(i byte) Pixel {
	return Pixel{i}
}

// UV returns a UV16 pixel.
func UV(u, v uint16) Pixel {
	var p Pixel
	binary.LittleEndian.PutUint16(p[0:2], u)
	binary.LittleEndian.PutUint16(p[2:4], v)
	return p
}

// RGBA returns the channels of an RGBA8 pixel.
func (p Pixel) RGBA() (r, g, b, a byte) {
	return p[0], p[1], p[2], p[3]
}

// Index returns the palette index of an Index8 pixel.
func (p Pixel) Index() byte {
	return p[0]
}

// UV returns the channels of a UV16 pixel.
func (p Pixel) UV() (u, v uint16) {
	return binary.LittleEndian.Uint16(p[0:2]), binary.LittleEndian.Uint16(p[2:4])
}

// Describe formats the pixel according to enc.
func (p Pixel) Describe(enc Encoding) string {
	switch enc {
	case Index8:
		return fmt.Sprintf("index(%d)", p.Index())
	case UV16:
		u, v := p.UV()
		return fmt.Sprintf("uv(%d,%d)", u, v)
	default:
		return fmt.Sprintf("rgba(%d,%d,%d,%d)", p[0], p[1], p[2], p[3])
	}
}

// load reads one pixel of encoding enc from b.
func load(enc Encoding, b []byte) Pixel {
	var p Pixel
	copy(p[:], b[:enc.BytesPerPixel()])
	return p
}

// store writes p into b using encoding enc.
func store(enc Encoding, b []byte, p Pixel) {
	copy(b[:enc.BytesPerPixel()], p[:])
}
