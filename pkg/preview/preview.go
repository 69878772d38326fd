// Package preview turns decoded textures into viewable image files.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/anthonynsimon/bild/transform"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TGA  Format = "tga"
	WebP Format = "webp"
)

var ErrUnknownFormat = errors.New("unknown preview format")

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case PNG, BMP, TGA, WebP:
		return f, nil
	case "":
		return PNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Options controls how a preview is produced.
type Options struct {
	Format  Format
	MaxSize int  // longest edge in pixels, 0 keeps the original size
	FlipV   bool // mirror top to bottom
}

// Prepare applies scaling and flipping to img.
func Prepare(img image.Image, opts Options) image.Image {
	if opts.MaxSize > 0 {
		img = fit(img, opts.MaxSize)
	}
	if opts.FlipV {
		img = transform.FlipV(img)
	}
	return img
}

func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	if w >= h {
		h = max(1, h*limit/w)
		w = limit
	} else {
		w = max(1, w*limit/h)
		h = limit
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img to w after applying opts.
func Encode(w io.Writer, img image.Image, opts Options) error {
	img = Prepare(img, opts)

	var err error
	switch opts.Format {
	case PNG, "":
		err = png.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	case TGA:
		err = tga.Encode(w, img)
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(opts.Format))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s preview: %w", opts.Format, err)
	}
	return nil
}
