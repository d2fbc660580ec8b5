// Package matrix drives the column workers in lock-step and composes their frames.
//
// A cycle is: request a frame from every column with queue space, wait until every
// issued request has been answered, then paint one queued frame per column. Workers
// only talk to the coordinator through channels; the tile grid they are seeded with is
// never written after construction.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rook-computer/rainmaker/internal/column"
	"github.com/rook-computer/rainmaker/internal/palette"
)

// Surface is where a composed frame is painted.
type Surface interface {
	Clear()
	DrawGlyph(text string, x, y int, c color.NRGBA)
	Present() error
}

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// WorkerFunc runs one column until ctx is done or requests is closed.
// It must send exactly one reply per update it receives.
type WorkerFunc func(ctx context.Context, init column.Init, requests <-chan column.Update, replies chan<- column.Reply)

// ColumnWorker returns the stock worker: a column.Animator with its own PCG stream
// derived from seed and the column index.
func ColumnWorker(seed uint64) WorkerFunc {
	return func(ctx context.Context, init column.Init, requests <-chan column.Update, replies chan<- column.Reply) {
		rnd := rand.New(rand.NewPCG(seed, uint64(init.Index)))
		column.New(init, rnd).Run(ctx, requests, replies)
	}
}

// Options are the coordinator's slice of the session config.
type Options struct {
	ColumnWidth  int
	FontSize     int
	MaxQueueSize int
	Interval     time.Duration
	CanvasHeight int
	Fallback     palette.RGB
	Glyphs       []rune
	Seed         uint64
}

// CycleReport summarizes one completed cycle.
type CycleReport struct {
	Cycle    uint64
	Issued   int
	Skipped  int
	Painted  int
	MaxDepth int
	Paused   bool
	Duration time.Duration
}

// Coordinator owns the workers and their frame queues.
type Coordinator struct {
	Logger  Logger
	Worker  WorkerFunc
	OnCycle func(CycleReport)

	opts    Options
	grid    palette.Grid
	surface Surface

	requests []chan column.Update
	replies  chan column.Reply
	queues   []*FrameQueue
	pending  map[int]bool
	skipping []bool
	cycle    uint64
	started  bool
	paused   atomic.Bool
}

// New prepares one column per grid column. Workers are spawned by Start.
func New(opts Options, grid palette.Grid, surface Surface) *Coordinator {
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}
	c := &Coordinator{
		Logger:   noopLogger{},
		Worker:   ColumnWorker(opts.Seed),
		opts:     opts,
		grid:     grid,
		surface:  surface,
		queues:   make([]*FrameQueue, len(grid)),
		skipping: make([]bool, len(grid)),
		pending:  make(map[int]bool, len(grid)),
	}
	for i := range c.queues {
		c.queues[i] = NewFrameQueue(opts.MaxQueueSize)
	}
	return c
}

// Columns returns the number of column workers.
func (c *Coordinator) Columns() int { return len(c.grid) }

// QueueLen returns the number of frames waiting for column i.
func (c *Coordinator) QueueLen(i int) int { return c.queues[i].Len() }

// SetPaused stops requesting and painting frames while keeping the cadence.
func (c *Coordinator) SetPaused(paused bool) { c.paused.Store(paused) }

func (c *Coordinator) Paused() bool { return c.paused.Load() }

// Start spawns one worker per column and sends it its init message.
func (c *Coordinator) Start(ctx context.Context) error {
	if c.started {
		return errors.New("coordinator already started")
	}
	if c.Worker == nil {
		return errors.New("no worker configured")
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
	c.started = true

	c.requests = make([]chan column.Update, len(c.grid))
	// Room for one reply per column: workers never block on a slow barrier.
	c.replies = make(chan column.Reply, len(c.grid))
	for i := range c.grid {
		c.requests[i] = make(chan column.Update, 1)
		init := column.Init{
			Index:        i,
			FontSize:     c.opts.FontSize,
			CanvasHeight: c.opts.CanvasHeight,
			Fallback:     c.opts.Fallback,
			Colors:       c.grid.Column(i),
			Glyphs:       c.opts.Glyphs,
		}
		go c.Worker(ctx, init, c.requests[i], c.replies)
	}
	c.Logger.Infof("matrix", "started %d column workers", len(c.grid))
	return nil
}

// RequestFrames opens a new cycle and asks every column with queue space for a frame.
// Columns whose queue is full are skipped this cycle.
func (c *Coordinator) RequestFrames(ctx context.Context) (issued, skipped int, err error) {
	c.cycle++
	clear(c.pending)
	for i, q := range c.queues {
		if q.Full() {
			if !c.skipping[i] {
				c.Logger.Infof("matrix", "queue for column %d is full, pausing updates", i)
			}
			c.skipping[i] = true
			skipped++
			continue
		}
		c.skipping[i] = false

		select {
		case c.requests[i] <- column.Update{Cycle: c.cycle}:
		case <-ctx.Done():
			return issued, skipped, ctx.Err()
		}
		c.pending[i] = true
		issued++
	}
	return issued, skipped, nil
}

// AwaitReplies blocks until every request of the current cycle has been answered.
// Replies from any other cycle are dropped.
func (c *Coordinator) AwaitReplies(ctx context.Context) error {
	for len(c.pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reply := <-c.replies:
			if reply.Cycle != c.cycle || !c.pending[reply.Column] {
				c.Logger.Errorf("matrix", "dropping stale frame from column %d (cycle %d, current %d)", reply.Column, reply.Cycle, c.cycle)
				continue
			}
			delete(c.pending, reply.Column)
			if err := c.queues[reply.Column].Push(reply.Frame); err != nil {
				c.Logger.Errorf("matrix", "column %d: %v", reply.Column, err)
			}
		}
	}
	return nil
}

// Paint clears the surface and draws the oldest queued frame of every column.
// It returns how many columns had a frame.
func (c *Coordinator) Paint() (int, error) {
	c.surface.Clear()
	painted := 0
	for i, q := range c.queues {
		frame, ok := q.Pop()
		if !ok {
			continue
		}
		painted++
		x := i * c.opts.ColumnWidth
		for _, g := range frame {
			c.surface.DrawGlyph(string(g.Char), x, g.Y, g.Color)
		}
	}
	return painted, c.surface.Present()
}

// Cycle runs one request/await/paint round.
func (c *Coordinator) Cycle(ctx context.Context) (CycleReport, error) {
	started := time.Now()
	if c.paused.Load() {
		return CycleReport{Cycle: c.cycle, Paused: true}, nil
	}

	issued, skipped, err := c.RequestFrames(ctx)
	if err != nil {
		return CycleReport{}, err
	}
	if err := c.AwaitReplies(ctx); err != nil {
		return CycleReport{}, err
	}

	report := CycleReport{Cycle: c.cycle, Issued: issued, Skipped: skipped}
	for _, q := range c.queues {
		report.MaxDepth = max(report.MaxDepth, q.Len())
	}
	painted, err := c.Paint()
	report.Painted = painted
	report.Duration = time.Since(started)
	if err != nil {
		return report, fmt.Errorf("present cycle %d: %w", c.cycle, err)
	}
	return report, nil
}

// Run starts the workers if needed and cycles until ctx is cancelled, waiting the
// configured interval after every paint.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	timer := time.NewTimer(c.opts.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		report, err := c.Cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A failing sink must not stop the rain.
			c.Logger.Errorf("matrix", "%v", err)
		}
		if c.OnCycle != nil {
			c.OnCycle(report)
		}
		timer.Reset(c.opts.Interval)
	}
}
