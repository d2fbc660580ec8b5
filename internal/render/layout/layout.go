// Package layout places overlay panels on the canvas.
package layout

import "image"

type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Inset shrinks rect by px on every side. A rect too small to shrink collapses to its
// center instead of turning inside out.
func Inset(rect image.Rectangle, px int) image.Rectangle {
	if px <= 0 {
		return rect
	}
	rect = rect.Canon()
	dx := min(px, rect.Dx()/2)
	dy := min(px, rect.Dy()/2)
	return image.Rect(rect.Min.X+dx, rect.Min.Y+dy, rect.Max.X-dx, rect.Max.Y-dy)
}

// SplitTop cuts a band of height px off the top of rect.
func SplitTop(rect image.Rectangle, px int) (top, rest image.Rectangle) {
	rect = rect.Canon()
	y := rect.Min.Y + clamp(px, 0, rect.Dy())
	return image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, y), image.Rect(rect.Min.X, y, rect.Max.X, rect.Max.Y)
}

// Anchor places a width x height panel in a corner of rect, shrunk to fit.
func Anchor(rect image.Rectangle, corner Corner, width, height int) image.Rectangle {
	rect = rect.Canon()
	width = clamp(width, 0, rect.Dx())
	height = clamp(height, 0, rect.Dy())

	origin := rect.Min
	if corner == TopRight || corner == BottomRight {
		origin.X = rect.Max.X - width
	}
	if corner == BottomLeft || corner == BottomRight {
		origin.Y = rect.Max.Y - height
	}
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(width, height))}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
