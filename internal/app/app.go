package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/rainmaker/internal/app/screens"
	"github.com/rook-computer/rainmaker/internal/config"
	"github.com/rook-computer/rainmaker/internal/matrix"
	"github.com/rook-computer/rainmaker/internal/palette"
	"github.com/rook-computer/rainmaker/internal/render"
	"github.com/rook-computer/rainmaker/internal/source"
	"github.com/rook-computer/rainmaker/internal/sshview"
	"github.com/rook-computer/rainmaker/internal/state"
	"github.com/rook-computer/rainmaker/internal/system"
	"github.com/rook-computer/rainmaker/internal/web"
)

type App struct {
	Config config.Config
	Store  *state.Store
	// Render is the primary renderer; it defines the canvas size.
	Render render.Renderer
	// Web, when set, serves the preview page and the API.
	Web *web.HTTPServer

	// SSHAddr enables the SSH broadcast when not empty.
	SSHAddr    string
	SSHHostKey string

	ImagePath string
	Logger    Logger
	Debug     bool

	// Console switches the VT to graphics mode and watches F4/Space on evdev.
	Console bool
	// InfoFor is how long the preview URL overlay stays up; zero keeps it.
	InfoFor time.Duration

	// Worker replaces the stock column worker; used by the simulator.
	Worker matrix.WorkerFunc

	coord     atomic.Pointer[matrix.Coordinator]
	lastCycle time.Time

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(cfg config.Config, store *state.Store, renderer render.Renderer, webServer *web.HTTPServer) *App {
	return &App{Config: cfg, Store: store, Render: renderer, Web: webServer, Logger: NoopLogger{}, exitCh: make(chan error, 1)}
}

// Exit requests the app to stop running. Only the first call counts.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Start runs the rain until ctx is cancelled or Exit is called.
func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	if app.Store == nil {
		app.Store = state.NewStore()
	}
	cfg := app.Config
	if err := cfg.Validate(); err != nil {
		app.Store.SetPhase(state.ERROR)
		return err
	}

	if app.Render == nil {
		app.Render = render.NewFBRenderer()
	}
	app.configureRenderer()
	if err := app.Render.Start(ctx); err != nil {
		app.Logger.Errorf("app", "renderer start error: %v", err)
		app.Store.SetPhase(state.ERROR)
		return err
	}
	defer app.Render.Stop()

	width, height := app.Render.Size()
	if width <= 0 || height <= 0 {
		app.Store.SetPhase(state.ERROR)
		return fmt.Errorf("renderer reports an empty canvas (%dx%d)", width, height)
	}
	app.Logger.Infof("app", "canvas %dx%d", width, height)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sinks := render.Multi{app.Render}
	if app.SSHAddr != "" {
		if ssh := app.startSSH(runCtx, width, height); ssh != nil {
			defer ssh.Stop()
			sinks = append(sinks, ssh)
		}
	}

	frames, ok := app.Render.(web.FrameSource)
	if !ok && app.Web != nil {
		face, err := render.LoadFace(cfg.FontFamily, cfg.FontSize)
		if err != nil {
			app.Logger.Errorf("app", "preview font %q: %v", cfg.FontFamily, err)
		}
		offscreen := render.NewOffscreen(width, height, cfg.Background, face)
		sinks = append(sinks, offscreen)
		frames = offscreen
	}

	grid := app.loadGrid(width, height, sinks)

	glyphs := config.Glyphs(cfg.Charset)
	coord := matrix.New(matrix.Options{
		ColumnWidth:  cfg.ColumnWidth,
		FontSize:     cfg.FontSize,
		MaxQueueSize: cfg.MaxQueueSize,
		Interval:     cfg.Interval,
		CanvasHeight: height,
		Fallback:     cfg.Color,
		Glyphs:       glyphs,
		Seed:         cfg.Seed,
	}, grid, sinks)
	coord.Logger = app.Logger
	if app.Worker != nil {
		coord.Worker = app.Worker
	}
	coord.OnCycle = app.recordCycle
	app.coord.Store(coord)
	rows := 0
	if len(grid) > 0 {
		rows = len(grid[0])
	}
	app.Store.UpdateRain(func(r *state.RainStats) {
		r.Columns = len(grid)
		r.Rows = rows
	})
	app.Logger.Infof("app", "%d columns x %d tiles, %d glyphs", len(grid), rows, len(glyphs))

	if app.Web != nil {
		app.startWeb(runCtx, frames)
		defer app.Web.Stop()
	}

	overlay := app.overlay()
	if len(overlay) > 0 {
		if err := overlay.Start(runCtx); err != nil {
			app.Logger.Errorf("app", "overlay start error: %v", err)
		} else {
			sinks.SetScreen(overlay, app.Store)
			defer overlay.Stop()
		}
	}

	if app.Console {
		console := system.Console{Logger: app.Logger}
		console.Enter()
		defer console.Restore()
		go system.WatchKeys(runCtx, app.Logger, map[uint16]func(){
			system.KeyF4:    func() { app.Exit(nil) },
			system.KeySpace: app.TogglePause,
		})
	}

	if q, ok := app.Render.(interface{ Quit() <-chan struct{} }); ok {
		go func() {
			select {
			case <-runCtx.Done():
			case <-q.Quit():
				app.Logger.Infof("app", "quit requested from terminal")
				app.Exit(nil)
			}
		}()
	}

	app.Store.SetPhase(state.RUNNING)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := coord.Run(runCtx); err != nil && runCtx.Err() == nil {
			app.Exit(err)
		}
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-app.exitCh:
	}
	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Errorf("app", "stopped: %v", err)
		app.Store.SetPhase(state.ERROR)
	} else {
		app.Logger.Infof("app", "stopped")
		app.Store.SetPhase(state.STOPPED)
	}
	return err
}

func (app *App) configureRenderer() {
	cfg := app.Config
	switch r := app.Render.(type) {
	case *render.FBRenderer:
		r.Logger = app.Logger
		r.Debug = app.Debug
		r.FontFamily = cfg.FontFamily
		r.FontSize = cfg.FontSize
		r.Background = cfg.Background
	case *render.TerminalRenderer:
		r.Logger = app.Logger
		r.Background = cfg.Background
		if r.CellWidth <= 0 {
			r.CellWidth = cfg.ColumnWidth
		}
		if r.CellHeight <= 0 {
			r.CellHeight = cfg.FontSize
		}
	}
}

// startSSH returns nil when the server cannot start; the rain runs without it.
func (app *App) startSSH(ctx context.Context, width, height int) *sshview.Server {
	cfg := app.Config
	ssh := sshview.New(app.SSHAddr, app.SSHHostKey, width, height, cfg.ColumnWidth, cfg.FontSize, cfg.Background)
	ssh.Logger = app.Logger
	ssh.OnSessions = func(n int) {
		app.Store.UpdateRain(func(r *state.RainStats) { r.SSHSessions = n })
	}
	if err := ssh.Start(ctx); err != nil {
		app.Logger.Errorf("app", "ssh start error: %v", err)
		return nil
	}
	return ssh
}

func (app *App) startWeb(ctx context.Context, frames web.FrameSource) {
	app.Web.Logger = app.Logger
	app.Web.Deps = web.APIV1Deps{
		State:  app.Store,
		Frames: frames,
		Pause:  app,
		Config: func() config.Config { return app.Config },
	}
	if err := app.Web.Start(ctx); err != nil {
		app.Logger.Errorf("app", "web start error: %v", err)
		return
	}
	url := previewURL(app.Web.Port())
	app.Store.UpdateNetwork(state.NetworkInfo{URL: url, URLQR: url, SSHAddr: app.SSHAddr})
	app.Logger.Infof("app", "preview at %s", url)
}

func (app *App) overlay() screens.Stack {
	var stack screens.Stack
	if app.Web != nil {
		stack = append(stack, screens.NewInfoScreen(app.InfoFor, app.Logger))
	}
	if app.Debug {
		stack = append(stack, screens.StatsScreen{})
	}
	return stack
}

// loadGrid samples the photograph into the tile grid and hands it to the sinks as the
// backdrop. Any failure yields a grid of the default color.
func (app *App) loadGrid(width, height int, sinks render.Renderer) palette.Grid {
	cfg := app.Config
	gridCfg := palette.GridConfig{
		CanvasWidth: width,
		ColumnWidth: cfg.ColumnWidth,
		TileHeight:  cfg.TileHeight,
		Fallback:    cfg.Color,
	}
	info := state.SourceInfo{Path: app.ImagePath, Width: width, Height: height}
	fallback := func(err error) palette.Grid {
		info.Fallback = true
		if err != nil {
			info.Err = err.Error()
			app.Logger.Errorf("source", "%v, using %s for every tile", err, cfg.Color.Hex())
		}
		app.Store.UpdateSource(info)
		sinks.SetBackdrop(nil)
		return palette.UniformGrid(gridCfg.Columns(), gridCfg.Rows(height), cfg.Color)
	}

	if app.ImagePath == "" {
		app.Logger.Infof("source", "no image configured")
		return fallback(nil)
	}
	img, err := source.Load(app.ImagePath)
	if err != nil {
		return fallback(err)
	}
	info.Format = img.Format
	app.Logger.Infof("source", "loaded %s (%s, %dx%d)", app.ImagePath, img.Format, img.Width(), img.Height())

	scaled := img.Scale(width, height)
	app.Store.UpdateSource(info)
	sinks.SetBackdrop(scaled.RGBA)
	return palette.BuildGrid(scaled.Pix(), scaled.Width(), scaled.Height(), gridCfg)
}

// recordCycle runs on the coordinator goroutine after every cycle.
func (app *App) recordCycle(report matrix.CycleReport) {
	if report.Paused {
		app.lastCycle = time.Time{}
		return
	}
	now := time.Now()
	var fps float64
	if !app.lastCycle.IsZero() {
		if dt := now.Sub(app.lastCycle).Seconds(); dt > 0 {
			fps = 1 / dt
		}
	}
	app.lastCycle = now

	app.Store.UpdateRain(func(r *state.RainStats) {
		r.Cycle = report.Cycle
		r.Issued = report.Issued
		r.Skipped = report.Skipped
		r.Painted = report.Painted
		r.MaxDepth = report.MaxDepth
		r.CycleTime = report.Duration
		switch {
		case fps == 0:
		case r.FPS == 0:
			r.FPS = fps
		default:
			r.FPS = 0.9*r.FPS + 0.1*fps
		}
	})
}
