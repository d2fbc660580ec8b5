package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/rook-computer/rainmaker/internal/palette"
)

// Canvas is an offscreen RGBA surface. Glyphs are composited over the backdrop with
// their straight alpha. Present copies the back buffer to a front buffer that Frame and
// EncodePNG read from any goroutine.
type Canvas struct {
	back       *image.RGBA
	backdrop   *image.RGBA
	background color.RGBA
	face       font.Face
	ascent     int

	mu    sync.RWMutex
	front *image.RGBA
}

func NewCanvas(width, height int, background palette.RGB, face font.Face) *Canvas {
	if face == nil {
		face = basicfont.Face7x13
	}
	rect := image.Rect(0, 0, width, height)
	c := &Canvas{
		back:       image.NewRGBA(rect),
		front:      image.NewRGBA(rect),
		background: color.RGBA{R: background.R, G: background.G, B: background.B, A: 0xFF},
		face:       face,
		ascent:     face.Metrics().Ascent.Ceil(),
	}
	c.Clear()
	return c
}

func (c *Canvas) Size() (int, int) {
	b := c.back.Bounds()
	return b.Dx(), b.Dy()
}

// SetBackdrop scales img to the canvas once; Clear then copies it.
func (c *Canvas) SetBackdrop(img image.Image) {
	if img == nil {
		c.backdrop = nil
		return
	}
	dst := image.NewRGBA(c.back.Bounds())
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	c.backdrop = dst
}

func (c *Canvas) Clear() {
	if c.backdrop != nil {
		copy(c.back.Pix, c.backdrop.Pix)
		return
	}
	draw.Draw(c.back, c.back.Bounds(), &image.Uniform{C: c.background}, image.Point{}, draw.Src)
}

func (c *Canvas) DrawGlyph(text string, x, y int, col color.NRGBA) {
	if col.A == 0 {
		return
	}
	drawer := &font.Drawer{
		Dst:  c.back,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(x, y+c.ascent),
	}
	drawer.DrawString(text)
}

func (c *Canvas) Present() error {
	c.mu.Lock()
	copy(c.front.Pix, c.back.Pix)
	c.mu.Unlock()
	return nil
}

// Back exposes the back buffer to renderers that blit it.
func (c *Canvas) Back() *image.RGBA { return c.back }

// Frame returns a copy of the last presented frame.
func (c *Canvas) Frame() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := image.NewRGBA(c.front.Bounds())
	copy(out.Pix, c.front.Pix)
	return out
}

func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.Frame())
}

// Drawer primitives for overlay screens. They paint on the back buffer between the rain
// and Present.

func (c *Canvas) FillRect(rect image.Rectangle, col color.Color) {
	draw.Draw(c.back, rect.Intersect(c.back.Bounds()), &image.Uniform{C: col}, image.Point{}, draw.Over)
}

func (c *Canvas) MeasureText(text string, style TextStyle) TextMetrics {
	metrics := c.face.Metrics()
	drawer := &font.Drawer{Face: c.face}
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	return TextMetrics{
		Width:      drawer.MeasureString(text).Ceil(),
		Height:     ascent + descent,
		Ascent:     ascent,
		Descent:    descent,
		LineHeight: metrics.Height.Ceil(),
	}
}

func (c *Canvas) DrawText(text string, x, y int, style TextStyle) TextMetrics {
	m := c.MeasureText(text, style)
	switch style.Align {
	case TextAlignCenter:
		x -= m.Width / 2
	case TextAlignRight:
		x -= m.Width
	}
	fg := style.Color
	if fg == nil {
		fg = color.White
	}
	drawer := &font.Drawer{
		Dst:  c.back,
		Src:  &image.Uniform{C: fg},
		Face: c.face,
		Dot:  fixed.P(x, y+m.Ascent),
	}
	drawer.DrawString(text)
	return m
}

func (c *Canvas) DrawImageInRect(img image.Image, rect image.Rectangle, mode ScaleMode) {
	if img == nil || rect.Empty() {
		return
	}
	src := img.Bounds()
	dst := rect
	switch mode {
	case ScaleModeFit, ScaleModeFill:
		sx := float64(rect.Dx()) / float64(src.Dx())
		sy := float64(rect.Dy()) / float64(src.Dy())
		scale := min(sx, sy)
		if mode == ScaleModeFill {
			scale = max(sx, sy)
		}
		w := int(float64(src.Dx()) * scale)
		h := int(float64(src.Dy()) * scale)
		origin := image.Pt(rect.Min.X+(rect.Dx()-w)/2, rect.Min.Y+(rect.Dy()-h)/2)
		dst = image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
	}
	clip := dst.Intersect(rect)
	if clip.Empty() {
		return
	}
	// Scale into a temporary RGBA and composite with alpha
	temp := image.NewRGBA(dst)
	xdraw.NearestNeighbor.Scale(temp, temp.Bounds(), img, src, xdraw.Src, nil)
	draw.Draw(c.back, clip, temp, clip.Min, draw.Over)
}

// Offscreen is a Canvas that satisfies Renderer, for frame capture next to renderers
// that cannot encode what they show.
type Offscreen struct {
	*Canvas
}

func NewOffscreen(width, height int, background palette.RGB, face font.Face) Offscreen {
	return Offscreen{Canvas: NewCanvas(width, height, background, face)}
}

func (Offscreen) Start(ctx context.Context) error { return nil }
func (Offscreen) Stop() error                     { return nil }
