// Package watermark stamps the studio logo onto photos.
package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// Corners accepted by Options.Corner.
const (
	TopLeft     = "top-left"
	TopRight    = "top-right"
	BottomLeft  = "bottom-left"
	BottomRight = "bottom-right"
)

// JPEGQuality is used when encoding annotated photos.
const JPEGQuality = 90

// ErrNoLogo is returned by Apply when no logo was loaded.
var ErrNoLogo = errors.New("watermark logo is not available")

// Options control logo placement.
type Options struct {
	Scale  float64 // logo width as a fraction of the photo width
	Corner string
	Margin int
}

// Stamper applies one logo to many photos. It is safe for concurrent use.
type Stamper struct {
	logo image.Image
	opts Options
}

// New wraps an already decoded logo.
func New(logo image.Image, opts Options) *Stamper {
	return &Stamper{logo: logo, opts: opts}
}

// Load reads the logo from path. A missing path yields a Stamper whose Apply
// fails with ErrNoLogo, so the bot still starts without branding assets.
func Load(path string, opts Options) (*Stamper, error) {
	if path == "" {
		return New(nil, opts), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil, opts), nil
		}
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()
	logo, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return New(logo, opts), nil
}

// Ready reports whether a logo is loaded.
func (s *Stamper) Ready() bool {
	return s != nil && s.logo != nil
}

// Apply decodes src, draws the logo and returns the JPEG-encoded result.
func (s *Stamper) Apply(src []byte) ([]byte, error) {
	if !s.Ready() {
		return nil, ErrNoLogo
	}
	photo, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	out := s.Compose(photo)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// Compose returns a copy of photo with the scaled logo drawn over it.
func (s *Stamper) Compose(photo image.Image) *image.RGBA {
	pb := photo.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, pb.Dx(), pb.Dy()))
	draw.Draw(out, out.Bounds(), photo, pb.Min, draw.Src)

	rect := s.LogoRect(pb.Dx(), pb.Dy())
	if rect.Empty() {
		return out
	}
	draw.CatmullRom.Scale(out, rect, s.logo, s.logo.Bounds(), draw.Over, nil)
	return out
}

// LogoRect returns where the logo lands on a w×h photo.
func (s *Stamper) LogoRect(w, h int) image.Rectangle {
	lb := s.logo.Bounds()
	if lb.Dx() == 0 || lb.Dy() == 0 {
		return image.Rectangle{}
	}
	lw := int(float64(w) * s.opts.Scale)
	if lw < 1 {
		lw = 1
	}
	lh := lw * lb.Dy() / lb.Dx()
	if lh < 1 {
		lh = 1
	}
	m := s.opts.Margin

	var x, y int
	switch s.opts.Corner {
	case TopLeft:
		x, y = m, m
	case TopRight:
		x, y = w-lw-m, m
	case BottomLeft:
		x, y = m, h-lh-m
	default:
		x, y = w-lw-m, h-lh-m
	}
	return image.Rect(x, y, x+lw, y+lh)
}
