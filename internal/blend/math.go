package blend

import "math"

// div255Exact divides x by 255 exactly without using division.
//
// Formula: ((x + 1) + ((x + 1) >> 8)) >> 8 (Alvy Ray Smith).
func div255Exact(x uint16) uint16 {
	t := x + 1
	return (t + (t >> 8)) >> 8
}

// MulDiv255 multiplies two bytes and divides by 255 exactly.
// Used to scale alpha by layer opacity.
func MulDiv255(a, b byte) byte {
	return byte(div255Exact(uint16(a) * uint16(b)))
}

// clampUnit clamps v to [0, 1]. NaN maps to 0.
func clampUnit(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FromByte normalizes an 8-bit channel to [0, 1].
func FromByte(v byte) float64 {
	return float64(v) / 255
}

// ToByte converts a normalized value to an 8-bit channel, rounding to
// nearest and clamping to [0, 255].
func ToByte(v float64) byte {
	return byte(math.Round(clampUnit(v) * 255))
}

// FromWord normalizes a 16-bit channel to [0, 1].
func FromWord(v uint16) float64 {
	return float64(v) / 65535
}

// ToWord converts a normalized value to a 16-bit channel, rounding to
// nearest and clamping to [0, 65535].
func ToWord(v float64) uint16 {
	return uint16(math.Round(clampUnit(v) * 65535))
}
