package render

import (
	"image"
	"image/draw"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Rasterize draws f over a copy of src.
func Rasterize(src image.Image, f Frame) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	gc := draw2dimg.NewGraphicContext(dst)
	for _, box := range f.Boxes {
		r := box.Rect
		gc.SetStrokeColor(StyleColor(box.Style))
		gc.SetLineWidth(float64(StyleThickness(box.Style)))

		gc.BeginPath()
		draw2dkit.Rectangle(gc, float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y))
		gc.Stroke()
	}

	// labels after all boxes so text is never crossed by a stroke
	for _, box := range f.Boxes {
		if box.Label == "" {
			continue
		}

		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(StyleColor(box.Style)),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(box.Rect.Min.X, box.Rect.Min.Y-5),
		}
		d.DrawString(box.Label)
	}

	return dst
}
