// Package column simulates a single falling glyph trail.
//
// Each Animator is owned by exactly one goroutine (see Run). It never shares
// mutable state with other columns; the tile colors it receives at construction
// are copied and only read afterwards.
package column

import (
	"image/color"
	"math"

	"github.com/rook-computer/rainmaker/internal/palette"
)

// Source is the randomness an Animator draws from. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Init carries everything a column needs to start; it is the payload of the init message.
type Init struct {
	Index        int
	FontSize     int
	CanvasHeight int
	Fallback     palette.RGB
	Colors       []palette.RGB
	Glyphs       []rune
}

// Glyph is one row of the column.
type Glyph struct {
	Char rune
	Base palette.RGB
	Row  int
}

// FrameGlyph is one visible glyph of a frame.
type FrameGlyph struct {
	Char  rune
	Color color.NRGBA
	Y     int
	Row   int
}

// Frame is everything a column shows during one cycle, top to bottom.
type Frame []FrameGlyph

// State is a read-only view of the trail, used by tests and diagnostics.
type State struct {
	ActivePixel      int
	TrailLength      int
	MaxPixelPosition int
	NumberOfPixels   int
}

// Animator owns the fall-trail simulation of one column.
type Animator struct {
	index    int
	fontSize int
	glyphs   []rune
	rnd      Source

	pixels           []Glyph
	activePixel      int
	trailLength      int
	maxPixelPosition int
}

var defaultGlyphs = []rune("01")

// New allocates floor(CanvasHeight/FontSize) rows, colors them from init.Colors
// (falling back to init.Fallback for rows without a tile) and resets the trail.
func New(init Init, rnd Source) *Animator {
	glyphs := init.Glyphs
	if len(glyphs) == 0 {
		glyphs = defaultGlyphs
	}
	numberOfPixels := 0
	if init.FontSize > 0 && init.CanvasHeight > 0 {
		numberOfPixels = init.CanvasHeight / init.FontSize
	}

	a := &Animator{
		index:    init.Index,
		fontSize: init.FontSize,
		glyphs:   glyphs,
		rnd:      rnd,
		pixels:   make([]Glyph, numberOfPixels),
	}
	for row := range a.pixels {
		base := init.Fallback
		if row < len(init.Colors) {
			base = init.Colors[row]
		}
		a.pixels[row] = Glyph{Char: a.randomGlyph(), Base: base, Row: row}
	}
	a.Reset()
	return a
}

// Index returns the column index this animator was created for.
func (a *Animator) Index() int { return a.index }

// NumberOfPixels is the row count of the column.
func (a *Animator) NumberOfPixels() int { return len(a.pixels) }

// Reset restarts the trail at the top with a new random length and restart threshold.
func (a *Animator) Reset() {
	n := float64(len(a.pixels))
	a.activePixel = 0
	a.trailLength = int(math.Floor(n * 0.25 * (1 + a.rnd.Float64())))
	a.maxPixelPosition = int(math.Floor(n * (0.1 + a.rnd.Float64())))
}

// State returns the current trail parameters.
func (a *Animator) State() State {
	return State{
		ActivePixel:      a.activePixel,
		TrailLength:      a.trailLength,
		MaxPixelPosition: a.maxPixelPosition,
		NumberOfPixels:   len(a.pixels),
	}
}

// Advance moves the head one row down and returns the visible part of the trail.
// The upper half of the trail fades in from transparent; the lower half, nearest the
// head, is opaque and gets more saturated towards the head.
func (a *Animator) Advance() Frame {
	if a.activePixel > a.maxPixelPosition || a.activePixel >= len(a.pixels) {
		a.Reset()
	}
	if len(a.pixels) == 0 {
		return nil
	}
	a.activePixel++

	head := float64(a.activePixel)
	start := a.activePixel - a.trailLength
	startOnScreen := max(0, start)
	limit := (head + float64(start)) / 2

	frame := make(Frame, 0, a.activePixel-startOnScreen)
	for p := startOnScreen; p < a.activePixel && p < len(a.pixels); p++ {
		pixel := &a.pixels[p]
		pixel.Char = a.randomGlyph()

		var c color.NRGBA
		if float64(p) < limit {
			gradient := ratio(float64(p-start), limit-float64(start))
			c = palette.Saturate(pixel.Base, gradient+1).NRGBA(alpha(gradient))
		} else {
			gradient := ratio(head-float64(p), head-limit) + 1
			c = palette.Saturate(pixel.Base, gradient).NRGBA(255)
		}

		frame = append(frame, FrameGlyph{
			Char:  pixel.Char,
			Color: c,
			Y:     p * a.fontSize,
			Row:   p,
		})
	}
	return frame
}

func (a *Animator) randomGlyph() rune {
	return a.glyphs[a.rnd.IntN(len(a.glyphs))]
}

// ratio divides, yielding 0 for a zero denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func alpha(gradient float64) uint8 {
	v := 255 * gradient
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
