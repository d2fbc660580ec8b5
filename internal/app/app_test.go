package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font/basicfont"

	"github.com/rook-computer/rainmaker/internal/config"
	"github.com/rook-computer/rainmaker/internal/matrix"
	"github.com/rook-computer/rainmaker/internal/render"
	"github.com/rook-computer/rainmaker/internal/state"
	"github.com/rook-computer/rainmaker/internal/web"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Interval = 2 * time.Millisecond
	cfg.Seed = 1
	return cfg
}

func writeSolidPNG(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "backdrop.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func startApp(t *testing.T, a *App) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestStartRainsOverImage(t *testing.T) {
	cfg := testConfig()
	off := render.NewOffscreen(120, 60, cfg.Background, basicfont.Face7x13)
	a := New(cfg, state.NewStore(), off, nil)
	a.ImagePath = writeSolidPNG(t, 120, 60, color.RGBA{R: 255, A: 255})

	cancel, done := startApp(t, a)
	waitFor(t, "five cycles", func() bool { return a.Store.Snapshot().Rain.Cycle >= 5 })

	snap := a.Store.Snapshot()
	if snap.Phase != state.RUNNING {
		t.Errorf("phase = %v", snap.Phase)
	}
	if snap.Source.Fallback || snap.Source.Format != "png" {
		t.Errorf("source = %+v", snap.Source)
	}
	if snap.Rain.Columns != 7 || snap.Rain.Rows != 4 {
		t.Errorf("grid = %dx%d, want 7x4", snap.Rain.Columns, snap.Rain.Rows)
	}

	// The right edge of the last full column is never reached by a glyph.
	if got := off.Frame().RGBAAt(119, 59); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("backdrop pixel = %v", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Start = %v", err)
	}
	if phase := a.Store.Snapshot().Phase; phase != state.STOPPED {
		t.Errorf("phase after stop = %v", phase)
	}
}

func TestMissingImageFallsBack(t *testing.T) {
	cfg := testConfig()
	a := New(cfg, state.NewStore(), render.NewOffscreen(60, 30, cfg.Background, basicfont.Face7x13), nil)
	a.ImagePath = filepath.Join(t.TempDir(), "missing.jpg")

	_, done := startApp(t, a)
	waitFor(t, "first cycle", func() bool { return a.Store.Snapshot().Rain.Cycle >= 1 })

	src := a.Store.Snapshot().Source
	if !src.Fallback || src.Err == "" {
		t.Errorf("source = %+v, want fallback with error", src)
	}

	a.Exit(nil)
	if err := <-done; err != nil {
		t.Fatalf("Start = %v", err)
	}
}

func TestExitWithError(t *testing.T) {
	cfg := testConfig()
	a := New(cfg, state.NewStore(), render.NewOffscreen(40, 30, cfg.Background, basicfont.Face7x13), nil)
	boom := errors.New("boom")

	_, done := startApp(t, a)
	waitFor(t, "running", func() bool { return a.Store.Snapshot().Phase == state.RUNNING })
	a.Exit(boom)
	a.Exit(nil)
	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("Start = %v, want %v", err, boom)
	}
	if phase := a.Store.Snapshot().Phase; phase != state.ERROR {
		t.Errorf("phase = %v", phase)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ColumnWidth = 0
	a := New(cfg, state.NewStore(), render.NoopRenderer{}, nil)
	if err := a.Start(context.Background()); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("Start = %v", err)
	}
}

func TestEmptyCanvasFails(t *testing.T) {
	a := New(testConfig(), state.NewStore(), render.NoopRenderer{}, nil)
	if err := a.Start(context.Background()); err == nil {
		t.Fatal("zero-sized renderer accepted")
	}
	if phase := a.Store.Snapshot().Phase; phase != state.ERROR {
		t.Errorf("phase = %v", phase)
	}
}

func TestPauseFromWeb(t *testing.T) {
	cfg := testConfig()
	a := New(cfg, state.NewStore(), render.NewOffscreen(40, 30, cfg.Background, basicfont.Face7x13), web.NewHTTPServer(web.ListenRandom))

	a.SetPaused(true)
	if a.Paused() {
		t.Fatal("pause before start should be ignored")
	}

	_, done := startApp(t, a)
	waitFor(t, "preview url", func() bool { return a.Store.Snapshot().Network.URL != "" })
	if url := a.Store.Snapshot().Network.URL; !strings.HasSuffix(url, fmt.Sprintf(":%d/", a.Web.Port())) {
		t.Errorf("url = %q", url)
	}

	res, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/api/v1/pause", a.Web.Port()), "application/json", strings.NewReader(`{"paused":true}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if !a.Paused() || a.Store.Snapshot().Phase != state.PAUSED {
		t.Fatalf("paused = %v, phase = %v", a.Paused(), a.Store.Snapshot().Phase)
	}

	res, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/frame.png", a.Web.Port()))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || res.Header.Get("Content-Type") != "image/png" {
		t.Errorf("frame = %d %q", res.StatusCode, res.Header.Get("Content-Type"))
	}

	a.TogglePause()
	if a.Paused() || a.Store.Snapshot().Phase != state.RUNNING {
		t.Errorf("toggle did not resume")
	}
	a.Exit(nil)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestRecordCycle(t *testing.T) {
	a := &App{Store: state.NewStore()}
	a.recordCycle(matrix.CycleReport{Cycle: 1, Issued: 3, Painted: 3, Duration: time.Millisecond})
	if rain := a.Store.Snapshot().Rain; rain.Cycle != 1 || rain.FPS != 0 || rain.CycleTime != time.Millisecond {
		t.Fatalf("first cycle = %+v", rain)
	}

	a.lastCycle = time.Now().Add(-100 * time.Millisecond)
	a.recordCycle(matrix.CycleReport{Cycle: 2})
	if fps := a.Store.Snapshot().Rain.FPS; fps < 5 || fps > 10.5 {
		t.Errorf("fps = %v, want about 10", fps)
	}

	a.recordCycle(matrix.CycleReport{Paused: true})
	if !a.lastCycle.IsZero() || a.Store.Snapshot().Rain.Cycle != 2 {
		t.Errorf("paused cycle changed the stats")
	}
}
