package render

import (
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/rainmaker/internal/palette"
)

// cellDrawer lets overlay screens draw on the terminal. Pixel coordinates are mapped to
// cells; text runs one rune per cell (two for wide runes).
type cellDrawer struct {
	r *TerminalRenderer
}

func (d cellDrawer) Size() (int, int) { return d.r.Size() }

// cellRect returns the cells touched by rect, clipped to the screen.
func (d cellDrawer) cellRect(rect image.Rectangle) image.Rectangle {
	r := d.r
	cells := image.Rect(
		rect.Min.X/r.CellWidth, rect.Min.Y/r.CellHeight,
		(rect.Max.X+r.CellWidth-1)/r.CellWidth, (rect.Max.Y+r.CellHeight-1)/r.CellHeight,
	)
	return cells.Intersect(image.Rect(0, 0, r.cols, r.rows))
}

func (d cellDrawer) FillRect(rect image.Rectangle, c color.Color) {
	fill := color.NRGBAModel.Convert(c).(color.NRGBA)
	cells := d.cellRect(rect)
	for y := cells.Min.Y; y < cells.Max.Y; y++ {
		for x := cells.Min.X; x < cells.Max.X; x++ {
			d.setBackground(x, y, fill)
		}
	}
}

func (d cellDrawer) setBackground(x, y int, c color.NRGBA) {
	r := d.r
	i := y*r.cols + x
	bg := palette.Blend(r.cells[i], palette.RGB{R: c.R, G: c.G, B: c.B}, float64(c.A)/255)
	r.cells[i] = bg
	r.Screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(tcellColor(bg)))
}

func (d cellDrawer) MeasureText(text string, style TextStyle) TextMetrics {
	h := d.r.CellHeight
	return TextMetrics{
		Width:      runewidth.StringWidth(text) * d.r.CellWidth,
		Height:     h,
		Ascent:     h,
		LineHeight: h,
	}
}

func (d cellDrawer) DrawText(text string, x, y int, style TextStyle) TextMetrics {
	r := d.r
	m := d.MeasureText(text, style)
	switch style.Align {
	case TextAlignCenter:
		x -= m.Width / 2
	case TextAlignRight:
		x -= m.Width
	}
	fg := palette.RGB{R: 0xFF, G: 0xFF, B: 0xFF}
	if style.Color != nil {
		fg = palette.FromColor(style.Color)
	}

	cx, cy := x/r.CellWidth, y/r.CellHeight
	if cy < 0 || cy >= r.rows {
		return m
	}
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if cx >= 0 && cx+w <= r.cols {
			bg := r.cells[cy*r.cols+cx]
			r.Screen.SetContent(cx, cy, ch, nil, tcell.StyleDefault.Foreground(tcellColor(fg)).Background(tcellColor(bg)))
		}
		cx += w
	}
	return m
}

// DrawImageInRect paints img as cell backgrounds. Cells are too coarse for the scale
// modes to matter, so the image is always stretched over the covered cells.
func (d cellDrawer) DrawImageInRect(img image.Image, rect image.Rectangle, mode ScaleMode) {
	cells := d.cellRect(rect)
	if img == nil || cells.Empty() {
		return
	}
	small := image.NewNRGBA(image.Rect(0, 0, cells.Dx(), cells.Dy()))
	xdraw.NearestNeighbor.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	for y := 0; y < cells.Dy(); y++ {
		for x := 0; x < cells.Dx(); x++ {
			d.setBackground(cells.Min.X+x, cells.Min.Y+y, small.NRGBAAt(x, y))
		}
	}
}
