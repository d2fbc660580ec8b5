package sshview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rook-computer/rainmaker/internal/palette"
)

const (
	esc   = "\x1b"
	csi   = esc + "["
	reset = csi + "0m"
)

func moveTo(row, col int) string { return fmt.Sprintf("%s%d;%dH", csi, row, col) }

func clearScreen() string      { return csi + "2J" }
func hideCursor() string       { return csi + "?25l" }
func showCursor() string       { return csi + "?25h" }
func enableAltScreen() string  { return csi + "?1049h" }
func disableAltScreen() string { return csi + "?1049l" }

// cell is one terminal character of the broadcast frame.
type cell struct {
	ch rune
	fg palette.RGB
	bg palette.RGB
}

// writeSGR writes a combined truecolor SGR so no state leaks from the previous cell.
func writeSGR(sb *strings.Builder, fg, bg palette.RGB) {
	sb.WriteString("\x1b[0;38;2;")
	sb.WriteString(strconv.Itoa(int(fg.R)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(fg.G)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(fg.B)))
	sb.WriteString(";48;2;")
	sb.WriteString(strconv.Itoa(int(bg.R)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(bg.G)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(bg.B)))
	sb.WriteByte('m')
}

// renderFrame encodes the top-left termW x termH cells of a cols-wide frame.
// SGR sequences are only emitted when the colors change.
func renderFrame(cells []cell, cols, rows, termW, termH int) string {
	var sb strings.Builder
	w, h := min(cols, termW), min(rows, termH)
	sb.Grow(w * h * 4)
	for y := 0; y < h; y++ {
		sb.WriteString(moveTo(y+1, 1))
		first := true
		var fg, bg palette.RGB
		for x := 0; x < w; x++ {
			c := cells[y*cols+x]
			if first || c.fg != fg || c.bg != bg {
				writeSGR(&sb, c.fg, c.bg)
				fg, bg, first = c.fg, c.bg, false
			}
			sb.WriteRune(c.ch)
		}
	}
	sb.WriteString(reset)
	return sb.String()
}
