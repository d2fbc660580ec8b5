package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	fb "github.com/gonutz/framebuffer"

	"github.com/rook-computer/rainmaker/internal/palette"
	"github.com/rook-computer/rainmaker/internal/state"
)

// FBRenderer renders to the Linux framebuffer using an offscreen logical canvas.
// The embedded Canvas is valid after Start.
type FBRenderer struct {
	*Canvas

	Device string
	// Logical canvas size; zero means the framebuffer's native resolution.
	Width      int
	Height     int
	FontFamily string
	FontSize   int
	Background palette.RGB

	Logger interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}
	Debug bool

	fbDev   *fb.Device
	running atomic.Bool

	mu      sync.Mutex
	screen  Screen
	store   *state.Store
	frames  int
	lastLog time.Time
}

func NewFBRenderer() *FBRenderer {
	return &FBRenderer{Device: "/dev/fb0", FontFamily: "gomono", FontSize: 15}
}

func (r *FBRenderer) Start(ctx context.Context) error {
	// Open framebuffer
	dev, err := fb.Open(r.Device)
	if err != nil {
		return err
	}
	r.fbDev = dev
	bounds := dev.Bounds()
	if r.Logger != nil {
		r.Logger.Infof("fb", "framebuffer open, bounds=%dx%d", bounds.Dx(), bounds.Dy())
	}

	width, height := r.Width, r.Height
	if width <= 0 || height <= 0 {
		width, height = bounds.Dx(), bounds.Dy()
	}

	face, ferr := LoadFace(r.FontFamily, r.FontSize)
	if ferr != nil && r.Logger != nil {
		r.Logger.Errorf("fb", "font %q unusable, using basicfont: %v", r.FontFamily, ferr)
	} else if r.Logger != nil {
		r.Logger.Infof("fb", "loaded font %s at %dpx", r.FontFamily, r.FontSize)
	}
	r.Canvas = NewCanvas(width, height, r.Background, face)

	r.running.Store(true)
	return nil
}

func (r *FBRenderer) Stop() error {
	r.running.Store(false)
	if r.fbDev != nil {
		r.fbDev.Close()
	}
	return nil
}

// SetScreen sets the overlay drawn on top of every frame; nil removes it.
func (r *FBRenderer) SetScreen(screen Screen, store *state.Store) {
	r.mu.Lock()
	r.screen = screen
	r.store = store
	r.mu.Unlock()
}

// Present draws the overlay, publishes the frame and blits it to the device.
func (r *FBRenderer) Present() error {
	if !r.running.Load() || r.Canvas == nil {
		return errors.New("framebuffer renderer not started")
	}
	r.mu.Lock()
	screen, store := r.screen, r.store
	r.mu.Unlock()
	if screen != nil && store != nil {
		screen.Draw(r.Canvas, store.Snapshot())
	}

	if err := r.Canvas.Present(); err != nil {
		return err
	}
	if err := blitToFB(r.fbDev, r.Canvas.Back()); err != nil {
		return err
	}

	if r.Debug && r.Logger != nil {
		r.frames++
		if time.Since(r.lastLog) > time.Second {
			r.Logger.Infof("fb", "heartbeat, %d frames since last", r.frames)
			r.frames = 0
			r.lastLog = time.Now()
		}
	}
	return nil
}

// Helper: blit canvas to framebuffer via nearest-neighbor scaling.
func blitToFB(dev *fb.Device, canvas *image.RGBA) error {
	if dev == nil {
		return nil
	}
	blit(dev, canvas)
	return nil
}

type pixelSetter interface {
	Bounds() image.Rectangle
	Set(x, y int, c color.Color)
}

func blit(dst pixelSetter, canvas *image.RGBA) {
	bounds := dst.Bounds()
	dstWidth, dstHeight := bounds.Dx(), bounds.Dy()
	srcWidth, srcHeight := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	if srcWidth == 0 || srcHeight == 0 {
		return
	}
	for y := 0; y < dstHeight; y++ {
		sy := (y * srcHeight) / dstHeight
		for x := 0; x < dstWidth; x++ {
			sx := (x * srcWidth) / dstWidth
			pixel := canvas.RGBAAt(sx, sy)
			dst.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{R: pixel.R, G: pixel.G, B: pixel.B, A: 0xFF})
		}
	}
}
