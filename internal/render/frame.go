// Package render describes what to draw over an image for operator review and
// provides a pure-Go rasterizer and a headless viewer for it.
package render

import (
	"image"

	"github.com/model-collapse/refcurate/internal/coco"
	"github.com/model-collapse/refcurate/internal/yolo"
)

type Style int

const (
	// Candidate is a box offered for acceptance, labelled.
	Candidate Style = iota
	// Highlight is the annotation being described, labelled.
	Highlight
	// Context is any other box on the same image, dim and unlabelled.
	Context
)

// KeyEsc is the key code viewers report for Escape.
const KeyEsc = 27

type Box struct {
	Rect  image.Rectangle
	Label string
	Style Style
}

// Frame is the overlay for one image. Drawing a frame never touches the
// source image.
type Frame struct {
	Title string
	Boxes []Box
}

// Viewer decodes an image, displays frames over it and reads single keys.
type Viewer interface {
	// Open decodes the image at path and returns its pixel size. Subsequent
	// Show calls draw over this image.
	Open(path string) (image.Point, error)
	// Show displays f over a copy of the opened image without blocking.
	Show(f Frame) error
	// WaitKey blocks until the operator presses a key.
	WaitKey() (int, error)
	Close() error
}

// Candidates plans the overlay for label boxes on an image of the given size.
func Candidates(title string, size image.Point, boxes []yolo.Box, names map[int64]string) Frame {
	f := Frame{Title: title}
	for _, b := range boxes {
		f.Boxes = append(f.Boxes, Box{
			Rect:  b.Rect(size.X, size.Y),
			Label: names[b.Class],
			Style: Candidate,
		})
	}

	return f
}

// XYXY converts a stored [x, y, w, h] box to integer corners.
func XYXY(bbox [4]float64) image.Rectangle {
	x, y, w, h := bbox[0], bbox[1], bbox[2], bbox[3]
	return image.Rect(int(x), int(y), int(x+w), int(y+h))
}

// HighlightFrame plans the overlay for describing target: target is drawn in the
// accent color with its category name, every other annotation of the same
// image dim and unlabelled.
func HighlightFrame(title string, target coco.Annotation, siblings []coco.Annotation, name string) Frame {
	f := Frame{Title: title}
	for _, a := range siblings {
		if a.ImgID != target.ImgID || a.ID == target.ID {
			continue
		}
		f.Boxes = append(f.Boxes, Box{Rect: XYXY(a.BBox), Style: Context})
	}

	// drawn last so it stays on top of overlapping context boxes
	f.Boxes = append(f.Boxes, Box{Rect: XYXY(target.BBox), Label: name, Style: Highlight})

	return f
}

// Labelled plans an overlay with every annotation drawn as a candidate.
func Labelled(title string, anns []coco.Annotation, name func(int64) string) Frame {
	f := Frame{Title: title}
	for _, a := range anns {
		f.Boxes = append(f.Boxes, Box{Rect: XYXY(a.BBox), Label: name(a.CategoryID), Style: Candidate})
	}

	return f
}
