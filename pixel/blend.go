package pixel

import (
	"fmt"

	"github.com/gogpu/pxdoc/internal/blend"
)

// BlendMode names a per-channel combination function.
type BlendMode = blend.Mode

// Blend modes.
const (
	Normal     = blend.Normal
	Multiply   = blend.Multiply
	Divide     = blend.Divide
	Add        = blend.Add
	Subtract   = blend.Subtract
	Difference = blend.Difference
	Screen     = blend.Screen
	Darken     = blend.Darken
	Lighten    = blend.Lighten
)

// ParseBlendMode returns the blend mode with the given name.
func ParseBlendMode(name string) (BlendMode, error) {
	m, ok := blend.ParseMode(name)
	if !ok {
		return Normal, fmt.Errorf("pixel: unknown blend mode %q", name)
	}
	return m, nil
}

// BlendModes returns every supported blend mode.
func BlendModes() []BlendMode {
	return blend.Modes()
}

// Blend composites src over dst using mode.
//
// Each channel is normalized to [0, 1], passed through the mode's channel
// function with dst as backdrop and src as source, and then composited
// source-over. RGBA8 uses the source alpha and produces
// As + Ab*(1-As) as the result alpha. Index8 and UV16 carry no alpha and
// are composited with alpha 1.
//
// Divide computes backdrop/source; a zero source channel yields the
// encoding's maximum value.
func Blend(enc Encoding, src, dst Pixel, mode BlendMode) Pixel {
	switch enc {
	case RGBA8:
		as := blend.FromByte(src[3])
		ab := blend.FromByte(dst[3])
		var out Pixel
		for i := range 3 {
			out[i] = blend.ToByte(blend.Composite(mode, blend.FromByte(dst[i]), blend.FromByte(src[i]), as))
		}
		out[3] = blend.ToByte(blend.OverAlpha(as, ab))
		return out
	case Index8:
		v := blend.Channel(mode, blend.FromByte(dst[0]), blend.FromByte(src[0]))
		return Index(blend.ToByte(v))
	case UV16:
		su, sv := src.UV()
		du, dv := dst.UV()
		u := blend.Channel(mode, blend.FromWord(du), blend.FromWord(su))
		v := blend.Channel(mode, blend.FromWord(dv), blend.FromWord(sv))
		return UV(blend.ToWord(u), blend.ToWord(v))
	default:
		return dst
	}
}
