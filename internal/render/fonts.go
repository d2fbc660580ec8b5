package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var builtinFonts = map[string][]byte{
	"gomono":     gomono.TTF,
	"gomonobold": gomonobold.TTF,
	"goregular":  goregular.TTF,
	"gobold":     gobold.TTF,
}

// FontData resolves a family name to font bytes: one of the bundled Go fonts, or a path
// to a .ttf/.otf file.
func FontData(family string) ([]byte, error) {
	if data, ok := builtinFonts[strings.ToLower(family)]; ok {
		return data, nil
	}
	data, err := os.ReadFile(family)
	if err != nil {
		return nil, fmt.Errorf("font %q: %w", family, err)
	}
	return data, nil
}

// NewFace builds a face whose em size is sizePx pixels. OpenType parsing is tried first;
// fonts it rejects go through the freetype parser.
func NewFace(data []byte, sizePx int) (font.Face, error) {
	if sizePx <= 0 {
		return nil, fmt.Errorf("font size %d", sizePx)
	}
	fnt, err := opentype.Parse(data)
	if err == nil {
		face, ferr := opentype.NewFace(fnt, &opentype.FaceOptions{Size: float64(sizePx), DPI: 72, Hinting: font.HintingFull})
		if ferr == nil {
			return face, nil
		}
		err = ferr
	}
	tt, terr := truetype.Parse(data)
	if terr != nil {
		return nil, fmt.Errorf("parse font: %w (truetype: %v)", err, terr)
	}
	return truetype.NewFace(tt, &truetype.Options{Size: float64(sizePx), DPI: 72, Hinting: font.HintingFull}), nil
}

// LoadFace is FontData plus NewFace, falling back to basicfont when the family cannot be
// used. The error is returned alongside the fallback so callers can log it.
func LoadFace(family string, sizePx int) (font.Face, error) {
	data, err := FontData(family)
	if err != nil {
		return basicfont.Face7x13, err
	}
	face, err := NewFace(data, sizePx)
	if err != nil {
		return basicfont.Face7x13, err
	}
	return face, nil
}
