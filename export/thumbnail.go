package export

import (
	"fmt"
	"image"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Scaler selects the resampling kernel used by Thumbnail.
type Scaler uint8

// Scalers, from fastest to best quality.
const (
	NearestNeighbor Scaler = iota
	ApproxBiLinear
	BiLinear
	CatmullRom
)

var scalerNames = [...]string{
	NearestNeighbor: "nearest",
	ApproxBiLinear:  "approx-bilinear",
	BiLinear:        "bilinear",
	CatmullRom:      "catmull-rom",
}

// String returns the scaler name.
func (s Scaler) String() string {
	if int(s) < len(scalerNames) {
		return scalerNames[s]
	}
	return fmt.Sprintf("Scaler(%d)", s)
}

// ParseScaler returns the scaler with the given name, ignoring case.
func ParseScaler(name string) (Scaler, error) {
	for i, n := range scalerNames {
		if strings.EqualFold(n, name) {
			return Scaler(i), nil
		}
	}
	return 0, fmt.Errorf("export: unknown scaler %q", name)
}

func (s Scaler) interpolator() xdraw.Interpolator {
	switch s {
	case NearestNeighbor:
		return xdraw.NearestNeighbor
	case ApproxBiLinear:
		return xdraw.ApproxBiLinear
	case BiLinear:
		return xdraw.BiLinear
	default:
		return xdraw.CatmullRom
	}
}

// Thumbnail scales img so that its longer side is maxSide pixels,
// keeping the aspect ratio. Images already within maxSide are copied
// unscaled. Each side is at least one pixel.
func Thumbnail(img image.Image, maxSide int, s Scaler) (*image.NRGBA, error) {
	if maxSide <= 0 {
		return nil, fmt.Errorf("export: thumbnail size %d must be positive", maxSide)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmpty
	}
	if w > maxSide || h > maxSide {
		if w >= h {
			w, h = maxSide, max(1, h*maxSide/w)
		} else {
			w, h = max(1, w*maxSide/h), maxSide
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		return dst, nil
	}
	s.interpolator().Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}
