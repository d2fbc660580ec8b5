package screens

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/rook-computer/rainmaker/internal/render"
	"github.com/rook-computer/rainmaker/internal/render/layout"
	"github.com/rook-computer/rainmaker/internal/state"
)

const (
	infoMarginPx = 24
	infoPadPx    = 12
	infoQRSizePx = 192
)

var panelColor = color.NRGBA{A: 0xC0}

// InfoScreen shows the preview URL and its QR code in the bottom-right corner for a
// while after start. A zero Duration keeps it up for good.
type InfoScreen struct {
	Duration time.Duration
	Logger   Logger

	mu       sync.Mutex
	deadline time.Time
	payload  string
	qr       image.Image
	now      func() time.Time
}

func NewInfoScreen(duration time.Duration, logger Logger) *InfoScreen {
	return &InfoScreen{Duration: duration, Logger: logger, now: time.Now}
}

func (s *InfoScreen) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now == nil {
		s.now = time.Now
	}
	if s.Duration > 0 {
		s.deadline = s.now().Add(s.Duration)
	}
	return nil
}

func (s *InfoScreen) Stop() error { return nil }

// Visible reports whether the overlay is still on screen.
func (s *InfoScreen) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline.IsZero() || s.now().Before(s.deadline)
}

func (s *InfoScreen) Draw(r render.Drawer, st state.State) {
	if st.Network.URL == "" || !s.Visible() {
		return
	}
	qr := s.qrFor(st.Network.URLQR)

	text := render.TextStyle{Color: color.White, Align: render.TextAlignCenter}
	metrics := r.MeasureText(st.Network.URL, text)
	panelW := max(metrics.Width, infoQRSizePx) + 2*infoPadPx
	panelH := metrics.LineHeight + 2*infoPadPx
	if qr != nil {
		panelH += infoQRSizePx + infoPadPx
	}

	w, h := r.Size()
	screen := layout.Inset(image.Rect(0, 0, w, h), infoMarginPx)
	panel := layout.Anchor(screen, layout.BottomRight, panelW, panelH)
	r.FillRect(panel, panelColor)

	inner := layout.Inset(panel, infoPadPx)
	if qr != nil {
		qrRow, rest := layout.SplitTop(inner, infoQRSizePx)
		r.DrawImageInRect(qr, qrRow, render.ScaleModeFit)
		inner = rest
		inner.Min.Y += infoPadPx
	}
	r.DrawText(st.Network.URL, inner.Min.X+inner.Dx()/2, inner.Min.Y, text)
}

// qrFor caches the QR image of the last payload.
func (s *InfoScreen) qrFor(payload string) image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payload == s.payload {
		return s.qr
	}
	s.payload = payload
	img, err := render.GenerateQRCodeImage(payload, infoQRSizePx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Errorf("screens", "qr for %q failed: %v", payload, err)
		}
		img = nil
	}
	s.qr = img
	return img
}
