package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/gdamore/tcell/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/rainmaker/internal/palette"
	"github.com/rook-computer/rainmaker/internal/state"
)

// TerminalRenderer maps the pixel canvas onto terminal cells: one cell is CellWidth
// pixels wide and CellHeight pixels tall, so one rain column lands in one cell column.
// Translucent glyphs are blended with the cell background since terminals have no alpha.
type TerminalRenderer struct {
	CellWidth  int
	CellHeight int
	Background palette.RGB

	// Screen may be preset (tests use a simulation screen); otherwise Start opens the tty.
	Screen tcell.Screen

	Logger interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}

	cols, rows int
	backdrop   []palette.RGB
	cells      []palette.RGB

	quitOnce sync.Once
	quit     chan struct{}

	overlayMu sync.Mutex
	screen    Screen
	store     *state.Store
}

func NewTerminalRenderer(cellWidth, cellHeight int, background palette.RGB) *TerminalRenderer {
	return &TerminalRenderer{CellWidth: cellWidth, CellHeight: cellHeight, Background: background}
}

func (r *TerminalRenderer) Start(ctx context.Context) error {
	if r.CellWidth <= 0 || r.CellHeight <= 0 {
		return errors.New("terminal cell size must be positive")
	}
	if r.Screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		r.Screen = screen
	}
	if err := r.Screen.Init(); err != nil {
		return err
	}
	r.Screen.HideCursor()
	r.cols, r.rows = r.Screen.Size()
	r.cells = make([]palette.RGB, r.cols*r.rows)
	r.quit = make(chan struct{})
	if r.Logger != nil {
		r.Logger.Infof("term", "terminal %dx%d cells", r.cols, r.rows)
	}

	go r.pollEvents()
	r.Clear()
	return nil
}

func (r *TerminalRenderer) Stop() error {
	if r.Screen != nil {
		r.Screen.Fini()
	}
	return nil
}

// Quit is closed when the user presses Escape, q or Ctrl-C.
func (r *TerminalRenderer) Quit() <-chan struct{} { return r.quit }

func (r *TerminalRenderer) pollEvents() {
	for {
		ev := r.Screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				r.quitOnce.Do(func() { close(r.quit) })
			}
		case *tcell.EventResize:
			// The grid is fixed for the session; just repaint.
			r.Screen.Sync()
		}
	}
}

// Size reports the pixel canvas the terminal stands for.
func (r *TerminalRenderer) Size() (int, int) {
	return r.cols * r.CellWidth, r.rows * r.CellHeight
}

// SetBackdrop samples img down to one color per cell.
func (r *TerminalRenderer) SetBackdrop(img image.Image) {
	if img == nil || r.cols == 0 || r.rows == 0 {
		r.backdrop = nil
		return
	}
	small := image.NewRGBA(image.Rect(0, 0, r.cols, r.rows))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	r.backdrop = make([]palette.RGB, r.cols*r.rows)
	for y := 0; y < r.rows; y++ {
		for x := 0; x < r.cols; x++ {
			c := small.RGBAAt(x, y)
			r.backdrop[y*r.cols+x] = palette.RGB{R: c.R, G: c.G, B: c.B}
		}
	}
}

func (r *TerminalRenderer) Clear() {
	for y := 0; y < r.rows; y++ {
		for x := 0; x < r.cols; x++ {
			bg := r.cellBackground(x, y)
			r.cells[y*r.cols+x] = bg
			r.Screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(tcellColor(bg)))
		}
	}
}

func (r *TerminalRenderer) DrawGlyph(text string, x, y int, c color.NRGBA) {
	cx, cy := x/r.CellWidth, y/r.CellHeight
	if cx < 0 || cy < 0 || cx >= r.cols || cy >= r.rows || text == "" || c.A == 0 {
		return
	}
	bg := r.cells[cy*r.cols+cx]
	fg := palette.Blend(bg, palette.RGB{R: c.R, G: c.G, B: c.B}, float64(c.A)/255)
	style := tcell.StyleDefault.Foreground(tcellColor(fg)).Background(tcellColor(bg))
	r.Screen.SetContent(cx, cy, []rune(text)[0], nil, style)
}

// SetScreen sets the overlay drawn over every frame; nil removes it.
func (r *TerminalRenderer) SetScreen(screen Screen, store *state.Store) {
	r.overlayMu.Lock()
	r.screen = screen
	r.store = store
	r.overlayMu.Unlock()
}

func (r *TerminalRenderer) Present() error {
	r.overlayMu.Lock()
	screen, store := r.screen, r.store
	r.overlayMu.Unlock()
	if screen != nil && store != nil {
		screen.Draw(cellDrawer{r}, store.Snapshot())
	}
	r.Screen.Show()
	return nil
}

func (r *TerminalRenderer) cellBackground(x, y int) palette.RGB {
	if r.backdrop != nil {
		return r.backdrop[y*r.cols+x]
	}
	return r.Background
}

func tcellColor(c palette.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
