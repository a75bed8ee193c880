package pixel

import (
	"fmt"
	"math"

	"github.com/gogpu/pxdoc/internal/blend"
)

// Sampling defines how a buffer is read between pixel centers.
type Sampling uint8

const (
	// Nearest selects the pixel at the rounded coordinate.
	Nearest Sampling = iota

	// Bilinear performs linear interpolation between 4 neighboring pixels.
	Bilinear
)

// String returns a string representation of the sampling mode.
func (s Sampling) String() string {
	switch s {
	case Nearest:
		return "Nearest"
	case Bilinear:
		return "Bilinear"
	default:
		return "Unknown"
	}
}

// ParseSampling returns the sampling mode with the given name.
func ParseSampling(name string) (Sampling, error) {
	switch name {
	case "Nearest":
		return Nearest, nil
	case "Bilinear":
		return Bilinear, nil
	}
	return Nearest, fmt.Errorf("pixel: unknown sampling %q", name)
}

// Sample reads buf at pixel coordinates (x, y), where integer coordinates
// are pixel centers. Out-of-bounds coordinates are clamped to the edge.
// An empty buffer samples to the zero Pixel.
//
// Index8 buffers are always sampled nearest: palette indices do not
// interpolate.
func Sample(buf *Buffer, x, y float64, s Sampling) Pixel {
	if buf.width == 0 || buf.height == 0 {
		return Pixel{}
	}
	if s == Bilinear && buf.enc != Index8 {
		return sampleBilinear(buf, x, y)
	}
	return sampleNearest(buf, x, y)
}

func sampleNearest(buf *Buffer, x, y float64) Pixel {
	px := clamp(int(math.Round(x)), buf.width-1)
	py := clamp(int(math.Round(y)), buf.height-1)
	return buf.at(px, py)
}

func sampleBilinear(buf *Buffer, x, y float64) Pixel {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	tx := x - float64(x0)
	ty := y - float64(y0)

	x1 := clamp(x0+1, buf.width-1)
	y1 := clamp(y0+1, buf.height-1)
	x0 = clamp(x0, buf.width-1)
	y0 = clamp(y0, buf.height-1)

	p00 := buf.at(x0, y0)
	p10 := buf.at(x1, y0)
	p01 := buf.at(x0, y1)
	p11 := buf.at(x1, y1)

	if buf.enc == UV16 {
		u00, v00 := p00.UV()
		u10, v10 := p10.UV()
		u01, v01 := p01.UV()
		u11, v11 := p11.UV()
		u := lerp2D(blend.FromWord(u00), blend.FromWord(u10), blend.FromWord(u01), blend.FromWord(u11), tx, ty)
		v := lerp2D(blend.FromWord(v00), blend.FromWord(v10), blend.FromWord(v01), blend.FromWord(v11), tx, ty)
		return UV(blend.ToWord(u), blend.ToWord(v))
	}

	var out Pixel
	for i := range 4 {
		c := lerp2D(blend.FromByte(p00[i]), blend.FromByte(p10[i]), blend.FromByte(p01[i]), blend.FromByte(p11[i]), tx, ty)
		out[i] = blend.ToByte(c)
	}
	return out
}

// clamp clamps an integer value to [0, maxVal].
func clamp(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// lerp2D performs bilinear interpolation on a 2x2 grid.
func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	v0 := lerp(v00, v10, tx)
	v1 := lerp(v01, v11, tx)
	return lerp(v0, v1, ty)
}
