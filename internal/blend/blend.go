// Package blend implements the separable channel blend modes used when
// compositing stencils onto canvases.
//
// Every mode is a pure function of a backdrop channel value Cb and a source
// channel value Cs, both normalized to [0, 1]. The result of the channel
// function is then composited source-over with the source alpha:
//
//	result = B(Cb, Cs)*As + Cb*(1-As)
//
// References:
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import "math"

// Mode identifies a channel blend function.
type Mode uint8

const (
	// Normal replaces the backdrop with the source.
	Normal Mode = iota
	// Multiply computes Cb * Cs.
	Multiply
	// Divide computes Cb / Cs, clamped to 1. A zero source yields 1.
	Divide
	// Add computes Cb + Cs, clamped to 1.
	Add
	// Subtract computes Cb - Cs, clamped to 0.
	Subtract
	// Difference computes |Cb - Cs|.
	Difference
	// Screen computes 1 - (1-Cb)(1-Cs).
	Screen
	// Darken computes min(Cb, Cs).
	Darken
	// Lighten computes max(Cb, Cs).
	Lighten

	modeCount
)

var modeNames = [modeCount]string{
	Normal:     "Normal",
	Multiply:   "Multiply",
	Divide:     "Divide",
	Add:        "Add",
	Subtract:   "Subtract",
	Difference: "Difference",
	Screen:     "Screen",
	Darken:     "Darken",
	Lighten:    "Lighten",
}

// String returns the mode name.
func (m Mode) String() string {
	if m < modeCount {
		return modeNames[m]
	}
	return "Unknown"
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m < modeCount
}

// ParseMode returns the mode with the given name.
func ParseMode(name string) (Mode, bool) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), true
		}
	}
	return Normal, false
}

// Modes returns every known mode in declaration order.
func Modes() []Mode {
	out := make([]Mode, 0, modeCount)
	for m := Normal; m < modeCount; m++ {
		out = append(out, m)
	}
	return out
}

// Channel applies the blend function for mode m to normalized backdrop cb
// and source cs. The result is clamped to [0, 1]. Unknown modes behave
// like Normal.
func Channel(m Mode, cb, cs float64) float64 {
	switch m {
	case Multiply:
		return cb * cs
	case Divide:
		if cs == 0 {
			return 1
		}
		return clampUnit(cb / cs)
	case Add:
		return clampUnit(cb + cs)
	case Subtract:
		return clampUnit(cb - cs)
	case Difference:
		return math.Abs(cb - cs)
	case Screen:
		return 1 - (1-cb)*(1-cs)
	case Darken:
		return math.Min(cb, cs)
	case Lighten:
		return math.Max(cb, cs)
	default:
		return cs
	}
}

// Over composites the blended channel value b over the backdrop cb with
// source alpha as (source-over).
func Over(b, cb, as float64) float64 {
	return clampUnit(b*as + cb*(1-as))
}

// OverAlpha returns the source-over result alpha: As + Ab*(1-As).
func OverAlpha(as, ab float64) float64 {
	return clampUnit(as + ab*(1-as))
}

// Composite blends cs over cb with mode m and source alpha as.
func Composite(m Mode, cb, cs, as float64) float64 {
	return Over(Channel(m, cb, cs), cb, as)
}
