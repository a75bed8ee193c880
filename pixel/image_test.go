package pixel

import (
	"image"
	"image/color"
	"testing"
)

func TestImageRoundTrip(t *testing.T) {
	b, _ := New(RGBA8, 3, 2)
	_ = b.Set(1, 1, RGBA(10, 20, 30, 128))

	img := b.ToImage()
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("Bounds() = %v", img.Bounds())
	}
	if got := img.NRGBAAt(1, 1); got != (color.NRGBA{10, 20, 30, 128}) {
		t.Errorf("NRGBAAt(1,1) = %v", got)
	}
	if back := FromImage(img); !back.Equal(b) {
		t.Error("FromImage(ToImage(b)) differs from b")
	}
}

func TestFromImageGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 1, 1))
	g.SetGray(0, 0, color.Gray{Y: 77})
	b := FromImage(g)
	if p, _ := b.At(0, 0); p != RGBA(77, 77, 77, 255) {
		t.Errorf("At(0,0) = %v", p)
	}
}

func TestToImageIndexAndUV(t *testing.T) {
	idx, _ := FromBytes(Index8, 1, 1, []byte{42})
	if got := idx.ToImage().NRGBAAt(0, 0); got != (color.NRGBA{42, 42, 42, 255}) {
		t.Errorf("Index8 preview = %v", got)
	}

	uv, _ := New(UV16, 1, 1)
	_ = uv.Set(0, 0, UV(0x1234, 0xabcd))
	if got := uv.ToImage().NRGBAAt(0, 0); got != (color.NRGBA{0x12, 0xab, 255, 255}) {
		t.Errorf("UV16 preview = %v", got)
	}
}
