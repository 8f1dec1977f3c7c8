// Package cvui shows frames in an OpenCV window.
package cvui

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/model-collapse/refcurate/internal/render"
)

// Window is a render.Viewer backed by a gocv window.
type Window struct {
	win *gocv.Window
	img gocv.Mat
}

func NewWindow(name string) *Window {
	return &Window{win: gocv.NewWindow(name), img: gocv.NewMat()}
}

func (w *Window) Open(path string) (size image.Point, err error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return size, fmt.Errorf("could not load image: %s", path)
	}

	w.img.Close()
	w.img = img
	return image.Pt(img.Cols(), img.Rows()), nil
}

func (w *Window) Show(f render.Frame) error {
	if w.img.Empty() {
		return errors.New("no image opened")
	}

	display := w.img.Clone()
	defer display.Close()

	DrawFrame(&display, f)
	w.win.IMShow(display)
	// let highgui paint before the caller blocks elsewhere
	w.win.WaitKey(1)

	return nil
}

func (w *Window) WaitKey() (int, error) {
	return w.win.WaitKey(0), nil
}

func (w *Window) Close() error {
	w.img.Close()
	return w.win.Close()
}

// DrawFrame draws f onto img in place.
func DrawFrame(img *gocv.Mat, f render.Frame) {
	for _, b := range f.Boxes {
		gocv.Rectangle(img, b.Rect, render.StyleColor(b.Style), render.StyleThickness(b.Style))
	}

	for _, b := range f.Boxes {
		if b.Label == "" {
			continue
		}
		gocv.PutText(img, b.Label, image.Pt(b.Rect.Min.X, b.Rect.Min.Y-5),
			gocv.FontHersheySimplex, 0.6, render.StyleColor(b.Style), 2)
	}
}
