// Package yolo reads per-image label files in YOLO format: one object per line
// as "class x_center y_center width height", coordinates normalized to [0,1].
package yolo

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Box is one labelled object in normalized center form.
type Box struct {
	Class   int64
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// XYWH converts the box to top-left pixel form [x, y, w, h] for an image of
// the given size.
func (b Box) XYWH(imgW, imgH int) [4]float64 {
	w := b.Width * float64(imgW)
	h := b.Height * float64(imgH)
	x := (b.XCenter - b.Width/2) * float64(imgW)
	y := (b.YCenter - b.Height/2) * float64(imgH)

	return [4]float64{x, y, w, h}
}

// Rect converts the box to integer pixel corners for drawing.
func (b Box) Rect(imgW, imgH int) image.Rectangle {
	x1 := int((b.XCenter - b.Width/2) * float64(imgW))
	y1 := int((b.YCenter - b.Height/2) * float64(imgH))
	x2 := int((b.XCenter + b.Width/2) * float64(imgW))
	y2 := int((b.YCenter + b.Height/2) * float64(imgH))

	return image.Rect(x1, y1, x2, y2)
}

// LabelPath returns the label file for an image: same basename with a .txt
// extension inside labelsDir.
func LabelPath(labelsDir, imgName string) string {
	base := strings.TrimSuffix(imgName, filepath.Ext(imgName))
	return filepath.Join(labelsDir, base+".txt")
}

// Parse reads label lines from r and keeps the boxes whose class is in keep.
// A nil keep retains every class. Lines with fewer than five fields or with
// fields that do not parse as numbers are dropped. Fields past the fifth are
// ignored.
func Parse(r io.Reader, keep map[int64]bool) (ret []Box, err error) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 5 {
			continue
		}

		b, ok := parseBox(parts)
		if !ok {
			continue
		}

		if keep != nil && !keep[b.Class] {
			continue
		}

		ret = append(ret, b)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels: %w", err)
	}

	return
}

func parseBox(parts []string) (b Box, ok bool) {
	cls, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return
	}

	var v [4]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(parts[i+1], 64); err != nil {
			return
		}
	}

	return Box{Class: cls, XCenter: v[0], YCenter: v[1], Width: v[2], Height: v[3]}, true
}

// ReadFile parses the label file at path. See Parse.
func ReadFile(path string, keep map[int64]bool) ([]Box, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, keep)
}
