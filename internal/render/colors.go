package render

import "image/color"

var (
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Gray  = color.RGBA{R: 100, G: 100, B: 100, A: 255}
)

// StyleColor returns the stroke color for s.
func StyleColor(s Style) color.RGBA {
	if s == Context {
		return Gray
	}

	return Green
}

// StyleThickness returns the stroke width in pixels for s.
func StyleThickness(s Style) int {
	if s == Context {
		return 1
	}

	return 2
}
