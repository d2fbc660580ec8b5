// Package source loads the background photograph and turns it into the pixel buffer the
// tile grid is sampled from.
package source

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for files whose extension has no registered decoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// Extensions lists the accepted file extensions, lower case with the leading dot.
func Extensions() []string { return slices.Clone(supportedExtensions) }

// Supported reports whether path has an accepted extension.
func Supported(path string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// Image is a decoded picture together with the raw RGBA buffer used for sampling.
type Image struct {
	RGBA   *image.RGBA
	Format string
}

// Width and Height are the buffer dimensions in pixels.
func (img *Image) Width() int  { return img.RGBA.Bounds().Dx() }
func (img *Image) Height() int { return img.RGBA.Bounds().Dy() }

// Pix is the row-major RGBA byte buffer, 4 bytes per pixel.
func (img *Image) Pix() []byte { return img.RGBA.Pix }

// Load opens and decodes path after checking its extension.
func Load(path string) (*Image, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode reads any registered format into a tightly packed RGBA buffer anchored at (0,0).
func Decode(r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("decode image: %w", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &Image{RGBA: toRGBA(src), Format: format}, nil
}

// Scale resamples img to exactly width x height.
func (img *Image) Scale(width, height int) *Image {
	if width <= 0 || height <= 0 {
		return &Image{RGBA: image.NewRGBA(image.Rect(0, 0, 0, 0)), Format: img.Format}
	}
	if img.Width() == width && img.Height() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img.RGBA, img.RGBA.Bounds(), xdraw.Src, nil)
	return &Image{RGBA: dst, Format: img.Format}
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
