package config

import (
	"flag"
	"strings"
	"time"
)

// Flags binds one command-line flag per Config field. The flag defaults are the values
// passed to BindFlags, normally the result of FromEnv.
type Flags struct {
	fs         *flag.FlagSet
	cfg        Config
	intervalMs int
}

func BindFlags(fs *flag.FlagSet, defaults Config) *Flags {
	f := &Flags{fs: fs, cfg: defaults}
	fs.StringVar(&f.cfg.FontFamily, "font", defaults.FontFamily, "font family (gomono, gomonobold, goregular, gobold) or a TTF/OTF path")
	fs.TextVar(&f.cfg.Background, "background", defaults.Background, "background color as #rrggbb")
	fs.TextVar(&f.cfg.Color, "color", defaults.Color, "glyph color for tiles without image data, as #rrggbb")
	fs.IntVar(&f.intervalMs, "interval", int(defaults.Interval/time.Millisecond), "milliseconds to wait after each frame")
	fs.IntVar(&f.cfg.ColumnWidth, "column-width", defaults.ColumnWidth, "column width in px")
	fs.IntVar(&f.cfg.FontSize, "font-size", defaults.FontSize, "glyph size in px (3/4 of the column width unless set)")
	fs.IntVar(&f.cfg.TileHeight, "tile-height", defaults.TileHeight, "color tile height in px (the font size unless set)")
	fs.IntVar(&f.cfg.MaxQueueSize, "max-queue", defaults.MaxQueueSize, "frames buffered per column")
	fs.StringVar(&f.cfg.Charset, "charset", defaults.Charset, "glyph set: "+strings.Join(Charsets(), ", ")+", or the glyphs themselves")
	fs.Uint64Var(&f.cfg.Seed, "seed", defaults.Seed, "random seed; 0 seeds from the clock")
	return f
}

// Config returns the validated configuration after the flag set has been parsed.
func (f *Flags) Config() (Config, error) {
	cfg := f.cfg
	cfg.Interval = time.Duration(f.intervalMs) * time.Millisecond

	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if set["column-width"] {
		if !set["font-size"] {
			cfg.FontSize = FontSizeFor(cfg.ColumnWidth)
		}
		if !set["tile-height"] {
			cfg.TileHeight = cfg.FontSize
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
