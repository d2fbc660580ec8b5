package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rook-computer/rainmaker/internal/palette"
)

const (
	EnvFontFamily   = "RAINMAKER_FONT"
	EnvBackground   = "RAINMAKER_BACKGROUND"
	EnvColor        = "RAINMAKER_COLOR"
	EnvInterval     = "RAINMAKER_INTERVAL_MS"
	EnvColumnWidth  = "RAINMAKER_COLUMN_WIDTH"
	EnvFontSize     = "RAINMAKER_FONT_SIZE"
	EnvMaxQueueSize = "RAINMAKER_MAX_QUEUE"
	EnvTileHeight   = "RAINMAKER_TILE_HEIGHT"
	EnvCharset      = "RAINMAKER_CHARSET"
	EnvSeed         = "RAINMAKER_SEED"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is fixed for the lifetime of a session.
type Config struct {
	FontFamily   string        `json:"font"`
	Background   palette.RGB   `json:"backgroundColor"`
	Color        palette.RGB   `json:"color"`
	Interval     time.Duration `json:"interval"`
	ColumnWidth  int           `json:"columnWidth"`
	FontSize     int           `json:"fontSize"`
	MaxQueueSize int           `json:"maxQueueSize"`
	TileHeight   int           `json:"tileHeight"`
	Charset      string        `json:"charset"`

	// Seed drives all column randomness; 0 means seed from the clock.
	Seed uint64 `json:"seed"`
}

// Default mirrors the stock look: green glyphs on a near-black background, 20px columns.
func Default() Config {
	const columnWidth = 20
	return Config{
		FontFamily:   "gomono",
		Background:   palette.RGB{R: 0, G: 0, B: 1},
		Color:        palette.RGB{R: 0, G: 255, B: 0},
		Interval:     50 * time.Millisecond,
		ColumnWidth:  columnWidth,
		FontSize:     FontSizeFor(columnWidth),
		MaxQueueSize: 10,
		TileHeight:   FontSizeFor(columnWidth),
		Charset:      CharsetASCII,
	}
}

// FontSizeFor derives the glyph size from the column width.
func FontSizeFor(columnWidth int) int {
	return columnWidth * 3 / 4
}

// FromEnv overlays RAINMAKER_* environment variables on top of defaults.
func FromEnv(defaults Config) (Config, error) {
	cfg := defaults

	if v := os.Getenv(EnvFontFamily); v != "" {
		cfg.FontFamily = v
	}
	if v := os.Getenv(EnvCharset); v != "" {
		cfg.Charset = v
	}
	if err := envColor(EnvBackground, &cfg.Background); err != nil {
		return Config{}, err
	}
	if err := envColor(EnvColor, &cfg.Color); err != nil {
		return Config{}, err
	}

	var intervalMs int
	if err := envInt(EnvInterval, &intervalMs); err != nil {
		return Config{}, err
	}
	if intervalMs != 0 {
		cfg.Interval = time.Duration(intervalMs) * time.Millisecond
	}

	// A custom column width re-derives the font size and tile height unless those are set too.
	var columnWidth int
	if err := envInt(EnvColumnWidth, &columnWidth); err != nil {
		return Config{}, err
	}
	if columnWidth != 0 {
		cfg.ColumnWidth = columnWidth
		cfg.FontSize = FontSizeFor(columnWidth)
		cfg.TileHeight = cfg.FontSize
	}
	if err := envInt(EnvFontSize, &cfg.FontSize); err != nil {
		return Config{}, err
	}
	if err := envInt(EnvTileHeight, &cfg.TileHeight); err != nil {
		return Config{}, err
	}
	if err := envInt(EnvMaxQueueSize, &cfg.MaxQueueSize); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv(EnvSeed); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be an unsigned integer (got %q): %w", EnvSeed, raw, err)
		}
		cfg.Seed = seed
	}
	return cfg, nil
}

// Validate rejects configurations the animation cannot run with.
func (cfg Config) Validate() error {
	switch {
	case cfg.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalid)
	case cfg.ColumnWidth <= 0:
		return fmt.Errorf("%w: column width must be positive", ErrInvalid)
	case cfg.FontSize <= 0:
		return fmt.Errorf("%w: font size must be positive", ErrInvalid)
	case cfg.TileHeight <= 0:
		return fmt.Errorf("%w: tile height must be positive", ErrInvalid)
	case cfg.MaxQueueSize <= 0:
		return fmt.Errorf("%w: max queue size must be positive", ErrInvalid)
	}
	if len(Glyphs(cfg.Charset)) == 0 {
		return fmt.Errorf("%w: charset %q has no printable glyphs", ErrInvalid, cfg.Charset)
	}
	return nil
}

func envInt(name string, dst *int) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s must be an integer (got %q): %w", name, raw, err)
	}
	*dst = v
	return nil
}

func envColor(name string, dst *palette.RGB) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	c, err := palette.ParseHex(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = c
	return nil
}
