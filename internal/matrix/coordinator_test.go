package matrix

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rook-computer/rainmaker/internal/column"
	"github.com/rook-computer/rainmaker/internal/palette"
)

type glyphCall struct {
	text string
	x, y int
	c    color.NRGBA
}

type fakeSurface struct {
	mu       sync.Mutex
	clears   int
	presents int
	glyphs   []glyphCall
	err      error
}

func (s *fakeSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.glyphs = s.glyphs[:0]
}

func (s *fakeSurface) DrawGlyph(text string, x, y int, c color.NRGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glyphs = append(s.glyphs, glyphCall{text, x, y, c})
}

func (s *fakeSurface) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presents++
	return s.err
}

func (s *fakeSurface) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// echoWorker answers every request at once with a single glyph at row 0.
func echoWorker(requests *atomic.Int64) WorkerFunc {
	return func(ctx context.Context, init column.Init, in <-chan column.Update, out chan<- column.Reply) {
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-in:
				if !ok {
					return
				}
				if requests != nil {
					requests.Add(1)
				}
				out <- column.Reply{
					Column: init.Index,
					Cycle:  u.Cycle,
					Frame:  column.Frame{{Char: 'a' + rune(init.Index), Color: color.NRGBA{G: 255, A: 255}}},
				}
			}
		}
	}
}

func testOptions() Options {
	return Options{ColumnWidth: 20, FontSize: 15, MaxQueueSize: 3, Interval: time.Millisecond, CanvasHeight: 150, Seed: 1}
}

func TestCyclePaintsOneFramePerColumn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	surface := &fakeSurface{}
	c := New(testOptions(), palette.UniformGrid(4, 10, palette.RGB{G: 255}), surface)
	c.Worker = echoWorker(nil)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	report, err := c.Cycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Issued != 4 || report.Skipped != 0 || report.Painted != 4 {
		t.Errorf("report = %+v", report)
	}
	if surface.clears != 1 || surface.presents != 1 {
		t.Errorf("clears/presents = %d/%d, want 1/1", surface.clears, surface.presents)
	}
	if len(surface.glyphs) != 4 {
		t.Fatalf("painted %d glyphs, want 4", len(surface.glyphs))
	}
	for i, g := range surface.glyphs {
		if g.x != i*20 || g.y != 0 || g.text != string('a'+rune(i)) {
			t.Errorf("glyph %d = %+v", i, g)
		}
	}
}

func TestBarrierWaitsForSlowestColumn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	received := make(chan int, 8)
	fast := echoWorker(nil)
	surface := &fakeSurface{}
	c := New(testOptions(), palette.UniformGrid(3, 10, palette.RGB{}), surface)
	c.Worker = func(ctx context.Context, init column.Init, in <-chan column.Update, out chan<- column.Reply) {
		if init.Index != 2 {
			fast(ctx, init, in, out)
			return
		}
		for u := range in {
			received <- init.Index
			select {
			case <-release:
			case <-ctx.Done():
				return
			}
			out <- column.Reply{Column: init.Index, Cycle: u.Cycle}
		}
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.Cycle(ctx)
		done <- err
	}()

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("slow column never got its request")
	}
	// Give the fast columns time to answer; nothing may be painted yet.
	time.Sleep(20 * time.Millisecond)
	if n := surface.clearCount(); n != 0 {
		t.Fatalf("surface cleared %d times before the barrier released", n)
	}

	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("cycle did not finish after release")
	}
	if n := surface.clearCount(); n != 1 {
		t.Errorf("clears = %d, want 1", n)
	}
}

func TestFullQueuesAreSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var requests atomic.Int64
	c := New(testOptions(), palette.UniformGrid(2, 10, palette.RGB{}), &fakeSurface{})
	c.Worker = echoWorker(&requests)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Fill without painting.
	for i := 0; i < 3; i++ {
		issued, skipped, err := c.RequestFrames(ctx)
		if err != nil || issued != 2 || skipped != 0 {
			t.Fatalf("round %d: issued=%d skipped=%d err=%v", i, issued, skipped, err)
		}
		if err := c.AwaitReplies(ctx); err != nil {
			t.Fatal(err)
		}
	}
	issued, skipped, err := c.RequestFrames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if issued != 0 || skipped != 2 {
		t.Errorf("full queues: issued=%d skipped=%d, want 0/2", issued, skipped)
	}
	if err := c.AwaitReplies(ctx); err != nil {
		t.Fatal(err)
	}
	if got := requests.Load(); got != 6 {
		t.Errorf("workers saw %d requests, want 6", got)
	}
	for i := 0; i < c.Columns(); i++ {
		if c.QueueLen(i) != 3 {
			t.Errorf("column %d queue = %d, want 3", i, c.QueueLen(i))
		}
	}

	// One paint frees a slot in every column.
	if _, err := c.Paint(); err != nil {
		t.Fatal(err)
	}
	report, err := c.Cycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Issued != 2 || report.MaxDepth != 3 {
		t.Errorf("report after paint = %+v", report)
	}
}

func TestStaleRepliesAreDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(testOptions(), palette.UniformGrid(1, 10, palette.RGB{}), &fakeSurface{})
	c.Worker = echoWorker(nil)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	c.replies <- column.Reply{Column: 0, Cycle: 99, Frame: column.Frame{{Char: 'z'}}}

	if _, _, err := c.RequestFrames(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.AwaitReplies(ctx); err != nil {
		t.Fatal(err)
	}
	if c.QueueLen(0) != 1 {
		t.Fatalf("queue = %d, want only the current reply", c.QueueLen(0))
	}
	f, _ := c.queues[0].Pop()
	if f[0].Char != 'a' {
		t.Errorf("queued the stale frame: %+v", f)
	}
}

func TestAwaitRepliesHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(testOptions(), palette.UniformGrid(1, 10, palette.RGB{}), &fakeSurface{})
	c.Worker = func(ctx context.Context, _ column.Init, _ <-chan column.Update, _ chan<- column.Reply) {
		<-ctx.Done()
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.RequestFrames(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := c.AwaitReplies(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("AwaitReplies = %v, want context.Canceled", err)
	}
}

func TestPausedCycleDoesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var requests atomic.Int64
	surface := &fakeSurface{}
	c := New(testOptions(), palette.UniformGrid(2, 10, palette.RGB{}), surface)
	c.Worker = echoWorker(&requests)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	c.SetPaused(true)
	report, err := c.Cycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Paused || requests.Load() != 0 || surface.clears != 0 {
		t.Errorf("paused cycle did work: %+v, requests=%d clears=%d", report, requests.Load(), surface.clears)
	}
}

func TestPresentErrorIsReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	surface := &fakeSurface{err: errors.New("device gone")}
	c := New(testOptions(), palette.UniformGrid(1, 10, palette.RGB{}), surface)
	c.Worker = echoWorker(nil)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Cycle(ctx); err == nil {
		t.Error("expected present error")
	}
}

func TestRunCyclesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(testOptions(), palette.UniformGrid(3, 10, palette.RGB{G: 255}), &fakeSurface{})
	cycles := make(chan CycleReport, 16)
	c.OnCycle = func(r CycleReport) {
		select {
		case cycles <- r:
		default:
		}
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case r := <-cycles:
			if r.Issued+r.Skipped != 3 {
				t.Errorf("cycle %d covered %d columns", r.Cycle, r.Issued+r.Skipped)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no cycle completed")
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestStartTwiceFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := New(testOptions(), palette.UniformGrid(1, 1, palette.RGB{}), &fakeSurface{})
	c.Worker = echoWorker(nil)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
}
