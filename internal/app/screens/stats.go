package screens

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/rainmaker/internal/render"
	"github.com/rook-computer/rainmaker/internal/render/layout"
	"github.com/rook-computer/rainmaker/internal/state"
)

// StatsScreen prints the coordinator statistics in the top-left corner. Debug builds only.
type StatsScreen struct{}

func (StatsScreen) Start(ctx context.Context) error { return nil }
func (StatsScreen) Stop() error                     { return nil }

func (StatsScreen) Draw(r render.Drawer, st state.State) {
	lines := StatsLines(st)
	style := render.TextStyle{Color: color.NRGBA{R: 0xFF, G: 0xDC, A: 0xFF}}

	width, lineHeight := 0, 0
	for _, line := range lines {
		m := r.MeasureText(line, style)
		width = max(width, m.Width)
		lineHeight = max(lineHeight, m.LineHeight)
	}
	w, h := r.Size()
	r.FillRect(layout.Anchor(image.Rect(0, 0, w, h), layout.TopLeft, width+16, lineHeight*len(lines)+16), panelColor)
	for i, line := range lines {
		r.DrawText(line, 8, 8+i*lineHeight, style)
	}
}

// StatsLines formats the statistics overlay.
func StatsLines(st state.State) []string {
	rain := st.Rain
	return []string{
		fmt.Sprintf("%s  cycle %d  %.1f fps", st.Phase, rain.Cycle, rain.FPS),
		fmt.Sprintf("%dx%d glyphs  cycle %s", rain.Columns, rain.Rows, rain.CycleTime),
		fmt.Sprintf("issued %d  skipped %d  painted %d  queue %d", rain.Issued, rain.Skipped, rain.Painted, rain.MaxDepth),
		fmt.Sprintf("ssh sessions %d", rain.SSHSessions),
	}
}
