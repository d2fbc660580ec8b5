package palette

// Grid holds the average color of every tile, indexed [column][row].
// It is built once and only read afterwards, so it may be shared between goroutines.
type Grid [][]RGB

// GridConfig describes how an image is cut into tiles.
type GridConfig struct {
	CanvasWidth int
	ColumnWidth int
	TileHeight  int
	Fallback    RGB
}

// Columns returns floor(CanvasWidth/ColumnWidth)+1; the last column may run past the right edge.
func (cfg GridConfig) Columns() int {
	if cfg.ColumnWidth <= 0 {
		return 0
	}
	return cfg.CanvasWidth/cfg.ColumnWidth + 1
}

// Rows returns the number of whole tiles that fit into height.
func (cfg GridConfig) Rows(height int) int {
	if cfg.TileHeight <= 0 || height <= 0 {
		return 0
	}
	return height / cfg.TileHeight
}

// BuildGrid averages the RGBA pixel buffer (4 bytes per pixel, rows packed without padding)
// over columnWidth x tileHeight tiles. Tiles clipped at the image edge use only the pixels
// inside the image; tiles without any sampled pixel get cfg.Fallback.
func BuildGrid(pix []byte, width, height int, cfg GridConfig) Grid {
	cols := cfg.Columns()
	rows := cfg.Rows(height)
	grid := make(Grid, cols)
	for i := 0; i < cols; i++ {
		grid[i] = make([]RGB, rows)
		xStart := i * cfg.ColumnWidth
		xEnd := min(xStart+cfg.ColumnWidth, width)

		for j := 0; j < rows; j++ {
			yStart := j * cfg.TileHeight
			yEnd := min(yStart+cfg.TileHeight, height)

			var totalR, totalG, totalB, count int
			for y := yStart; y < yEnd; y++ {
				for x := xStart; x < xEnd; x++ {
					idx := (y*width + x) * 4
					if idx+2 >= len(pix) {
						continue
					}
					totalR += int(pix[idx])
					totalG += int(pix[idx+1])
					totalB += int(pix[idx+2])
					count++
				}
			}

			if count == 0 {
				grid[i][j] = cfg.Fallback
				continue
			}
			grid[i][j] = RGB{
				R: uint8(totalR / count),
				G: uint8(totalG / count),
				B: uint8(totalB / count),
			}
		}
	}
	return grid
}

// UniformGrid fills every tile with c. Used when no usable image is available.
func UniformGrid(cols, rows int, c RGB) Grid {
	grid := make(Grid, cols)
	for i := range grid {
		grid[i] = make([]RGB, rows)
		for j := range grid[i] {
			grid[i][j] = c
		}
	}
	return grid
}

// Column returns a copy of column i, or nil when i is out of range.
func (g Grid) Column(i int) []RGB {
	if i < 0 || i >= len(g) {
		return nil
	}
	out := make([]RGB, len(g[i]))
	copy(out, g[i])
	return out
}

// At returns the tile color at (col, row) and whether it exists.
func (g Grid) At(col, row int) (RGB, bool) {
	if col < 0 || col >= len(g) || row < 0 || row >= len(g[col]) {
		return RGB{}, false
	}
	return g[col][row], true
}
