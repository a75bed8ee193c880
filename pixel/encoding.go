package pixel

// Encoding represents a pixel storage encoding.
type Encoding uint8

const (
	// RGBA8 is 32-bit RGBA with straight (non-premultiplied) alpha.
	RGBA8 Encoding = iota

	// Index8 is an 8-bit palette index (1 byte per pixel).
	Index8

	// UV16 is a pair of 16-bit little-endian channels (4 bytes per pixel),
	// typically holding encoded surface normals.
	UV16

	// encodingCount is the number of encodings (for internal use).
	encodingCount
)

// EncodingInfo contains metadata about a pixel encoding.
type EncodingInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// Channels is the number of channels, alpha included.
	Channels int

	// HasAlpha indicates if the last channel is alpha.
	HasAlpha bool

	// BitsPerChannel is the number of bits per channel.
	BitsPerChannel int
}

var encodingInfoTable = [encodingCount]EncodingInfo{
	RGBA8: {
		BytesPerPixel:  4,
		Channels:       4,
		HasAlpha:       true,
		BitsPerChannel: 8,
	},
	Index8: {
		BytesPerPixel:  1,
		Channels:       1,
		BitsPerChannel: 8,
	},
	UV16: {
		BytesPerPixel:  4,
		Channels:       2,
		BitsPerChannel: 16,
	},
}

var encodingNames = [encodingCount]string{
	RGBA8:  "RGBA8",
	Index8: "Index8",
	UV16:   "UV16",
}

// Info returns the EncodingInfo for this encoding.
func (e Encoding) Info() EncodingInfo {
	if e >= encodingCount {
		return EncodingInfo{}
	}
	return encodingInfoTable[e]
}

// BytesPerPixel returns the number of bytes per pixel for this encoding.
func (e Encoding) BytesPerPixel() int {
	return e.Info().BytesPerPixel
}

// Channels returns the number of channels.
func (e Encoding) Channels() int {
	return e.Info().Channels
}

// HasAlpha returns true if this encoding has an alpha channel.
func (e Encoding) HasAlpha() bool {
	return e.Info().HasAlpha
}

// MaxValue returns the largest value a single channel can hold.
func (e Encoding) MaxValue() int {
	bits := e.Info().BitsPerChannel
	if bits == 0 {
		return 0
	}
	return 1<<bits - 1
}

// IsValid returns true if the encoding is a known encoding.
func (e Encoding) IsValid() bool {
	return e < encodingCount
}

// String returns a string representation of the encoding.
func (e Encoding) String() string {
	if e < encodingCount {
		return encodingNames[e]
	}
	return "Unknown"
}

// ParseEncoding returns the encoding with the given name.
func ParseEncoding(name string) (Encoding, bool) {
	for i, n := range encodingNames {
		if n == name {
			return Encoding(i), true
		}
	}
	return RGBA8, false
}

// ImageBytes calculates the total number of bytes needed for w*h pixels.
func (e Encoding) ImageBytes(w, h int) int {
	return w * h * e.BytesPerPixel()
}
