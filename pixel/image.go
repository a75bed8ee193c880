package pixel

import (
	"image"
	"image/draw"
)

// ToImage converts the buffer to an *image.NRGBA.
//
// RGBA8 is copied directly. Index8 becomes opaque gray with the index as
// intensity. UV16 maps the high bytes of u and v to red and green with
// blue and alpha at 255, the usual normal-map preview.
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))

	switch b.enc {
	case RGBA8:
		copy(img.Pix, b.data)

	case Index8:
		for i, v := range b.data {
			off := i * 4
			img.Pix[off] = v
			img.Pix[off+1] = v
			img.Pix[off+2] = v
			img.Pix[off+3] = 255
		}

	case UV16:
		for i := range b.Len() {
			off := i * 4
			// High bytes of the little-endian words.
			img.Pix[off] = b.data[off+1]
			img.Pix[off+1] = b.data[off+3]
			img.Pix[off+2] = 255
			img.Pix[off+3] = 255
		}
	}

	return img
}

// FromImage converts any image to an RGBA8 buffer with straight alpha.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	buf := &Buffer{
		data:   make([]byte, RGBA8.ImageBytes(width, height)),
		width:  width,
		height: height,
		enc:    RGBA8,
	}

	// Fast path for NRGBA images
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range height {
			src := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.data[y*width*4:], nrgba.Pix[src:src+width*4])
		}
		return buf
	}

	// Generic path: let image/draw un-premultiply.
	dst := &image.NRGBA{Pix: buf.data, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return buf
}
