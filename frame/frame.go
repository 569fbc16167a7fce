/*
Package frame defines the co-registered colour and brightness grids that
make up one step of a conversion run.
*/
package frame

import (
	"image"
	"image/color"
	"image/draw"
)

// Frame is a colour grid and its brightness grid. Both cover the same
// rectangle. Either may be nil when the conversion mode does not need it.
type Frame struct {
	Color *image.RGBA
	Gray  *image.Gray
}

// New returns a black frame of the given size with both grids allocated
func New(w, h int) *Frame {
	r := image.Rect(0, 0, w, h)
	return &Frame{
		Color: image.NewRGBA(r),
		Gray:  image.NewGray(r),
	}
}

// FromImage builds both grids from m. The brightness grid uses the same
// luma weights as color.GrayModel.
func FromImage(m image.Image) *Frame {
	b := m.Bounds()
	r := image.Rect(0, 0, b.Dx(), b.Dy())

	rgba, ok := m.(*image.RGBA)
	if !ok || rgba.Rect != r {
		rgba = image.NewRGBA(r)
		draw.Draw(rgba, r, m, b.Min, draw.Src)
	}

	f := &Frame{
		Color: rgba,
		Gray:  image.NewGray(r),
	}
	f.UpdateGray()

	return f
}

// UpdateGray recomputes the brightness grid from the colour grid
func (f *Frame) UpdateGray() {
	r := f.Color.Rect
	if f.Gray == nil || f.Gray.Rect != r {
		f.Gray = image.NewGray(r)
	}

	for y := 0; y < r.Dy(); y++ {
		src := f.Color.Pix[y*f.Color.Stride : y*f.Color.Stride+r.Dx()*4]
		dst := f.Gray.Pix[y*f.Gray.Stride : y*f.Gray.Stride+r.Dx()]
		for x := range dst {
			dst[x] = Luma(src[x*4], src[x*4+1], src[x*4+2])
		}
	}
}

// Luma returns the brightness of an 8-bit colour
func Luma(r, g, b uint8) uint8 {
	r16, g16, b16 := uint32(r)*0x101, uint32(g)*0x101, uint32(b)*0x101
	return uint8((19595*r16 + 38470*g16 + 7471*b16 + 1<<15) >> 24)
}

// Bounds returns the rectangle covered by the frame
func (f *Frame) Bounds() image.Rectangle {
	switch {
	case f.Gray != nil:
		return f.Gray.Rect
	case f.Color != nil:
		return f.Color.Rect
	}
	return image.Rectangle{}
}

// SetRGB sets the colour sample at (x, y) and its brightness
func (f *Frame) SetRGB(x, y int, r, g, b uint8) {
	f.Color.SetRGBA(x, y, color.RGBA{r, g, b, 0xff})
	if f.Gray != nil {
		f.Gray.SetGray(x, y, color.Gray{Luma(r, g, b)})
	}
}
