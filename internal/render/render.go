package render

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/rook-computer/rainmaker/internal/state"
)

// Surface is the paint target of the rain. Coordinates are canvas pixels with a top-left
// anchor: DrawGlyph places the top of the glyph cell at y.
type Surface interface {
	Size() (width int, height int)
	Clear()
	DrawGlyph(text string, x, y int, c color.NRGBA)
	Present() error
}

type Renderer interface {
	Surface
	Start(ctx context.Context) error
	Stop() error
	// SetBackdrop sets the picture Clear restores. nil means the plain background color.
	SetBackdrop(img image.Image)
}

// Screen is drawn on top of the rain by renderers that support overlays.
type Screen interface {
	Start(ctx context.Context) error
	Stop() error
	Draw(r Drawer, s state.State)
}

// ScreenHost is implemented by renderers that can show a Screen.
type ScreenHost interface {
	SetScreen(screen Screen, store *state.Store)
}

type NoopRenderer struct{}

func (NoopRenderer) Start(ctx context.Context) error                { return nil }
func (NoopRenderer) Stop() error                                    { return nil }
func (NoopRenderer) Size() (int, int)                               { return 0, 0 }
func (NoopRenderer) SetBackdrop(img image.Image)                    {}
func (NoopRenderer) Clear()                                         {}
func (NoopRenderer) DrawGlyph(text string, x, y int, c color.NRGBA) {}
func (NoopRenderer) Present() error                                 { return nil }

// Multi fans every call out to all renderers. The first renderer is the primary one and
// defines Size.
type Multi []Renderer

func (m Multi) Start(ctx context.Context) error {
	for i, r := range m {
		if err := r.Start(ctx); err != nil {
			for _, started := range m[:i] {
				_ = started.Stop()
			}
			return err
		}
	}
	return nil
}

func (m Multi) Stop() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Stop())
	}
	return errors.Join(errs...)
}

func (m Multi) Size() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return m[0].Size()
}

func (m Multi) SetBackdrop(img image.Image) {
	for _, r := range m {
		r.SetBackdrop(img)
	}
}

func (m Multi) Clear() {
	for _, r := range m {
		r.Clear()
	}
}

func (m Multi) DrawGlyph(text string, x, y int, c color.NRGBA) {
	for _, r := range m {
		r.DrawGlyph(text, x, y, c)
	}
}

// Present presents on every renderer even if one fails and joins the errors.
func (m Multi) Present() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Present())
	}
	return errors.Join(errs...)
}

func (m Multi) SetScreen(screen Screen, store *state.Store) {
	for _, r := range m {
		if host, ok := r.(ScreenHost); ok {
			host.SetScreen(screen, store)
		}
	}
}

// Drawer is what overlay screens draw with, without touching the canvas directly.
type Drawer interface {
	// Size returns the logical canvas size (in pixels) that screens draw into.
	Size() (width int, height int)

	FillRect(rect image.Rectangle, c color.Color)

	MeasureText(text string, style TextStyle) TextMetrics
	DrawText(text string, x, y int, style TextStyle) TextMetrics

	DrawImageInRect(img image.Image, rect image.Rectangle, mode ScaleMode)
}

type TextAlign int

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// TextStyle describes how to render text.
// Coordinates for DrawText use a top-left anchor for Y.
// For X, Align controls how x is interpreted.
type TextStyle struct {
	Color color.Color
	Align TextAlign
}

type TextMetrics struct {
	Width      int
	Height     int
	Ascent     int
	Descent    int
	LineHeight int
}

type ScaleMode int

const (
	ScaleModeFit ScaleMode = iota
	ScaleModeFill
	ScaleModeStretch
)
