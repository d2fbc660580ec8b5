package config

import (
	"errors"
	"flag"
	"io"
	"testing"
	"time"

	"github.com/rook-computer/rainmaker/internal/palette"
)

func TestFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(Config) bool
		wantErr error
	}{
		{
			name:  "defaults",
			args:  nil,
			check: func(c Config) bool { return c == Default() },
		},
		{
			name: "column width re-derives sizes",
			args: []string{"-column-width", "40"},
			check: func(c Config) bool {
				return c.ColumnWidth == 40 && c.FontSize == 30 && c.TileHeight == 30
			},
		},
		{
			name: "explicit font size wins",
			args: []string{"-column-width", "40", "-font-size", "20"},
			check: func(c Config) bool {
				return c.FontSize == 20 && c.TileHeight == 20
			},
		},
		{
			name: "colors and interval",
			args: []string{"-color", "#ff0000", "-background", "#000000", "-interval", "100", "-seed", "9"},
			check: func(c Config) bool {
				return c.Color == (palette.RGB{R: 255}) && c.Background == (palette.RGB{}) &&
					c.Interval == 100*time.Millisecond && c.Seed == 9
			},
		},
		{
			name:    "zero interval",
			args:    []string{"-interval", "0"},
			wantErr: ErrInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			flags := BindFlags(fs, Default())
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			cfg, err := flags.Config()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(cfg) {
				t.Errorf("config = %+v", cfg)
			}
		})
	}
}

func TestFlagsRejectBadColor(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	BindFlags(fs, Default())
	if err := fs.Parse([]string{"-color", "green"}); err == nil {
		t.Error("invalid color accepted")
	}
}
