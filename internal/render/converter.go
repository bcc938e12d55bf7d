package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
)

// Option configures a Converter.
type Option func(*Converter)

// WithPalette selects the character ramp.
func WithPalette(p Palette) Option {
	return func(c *Converter) {
		if len(p.Ramp) > 0 {
			c.palette = p
		}
	}
}

// WithInvert maps dark pixels to dense characters, for light terminals.
func WithInvert(invert bool) Option {
	return func(c *Converter) { c.invert = invert }
}

// WithFs sets the filesystem ConvertFile reads from.
func WithFs(fs afero.Fs) Option {
	return func(c *Converter) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// Converter renders images as width x height character grids.
type Converter struct {
	width   int
	height  int
	palette Palette
	invert  bool
	fs      afero.Fs
}

// New returns a Converter producing frames of width columns and height rows.
func New(width, height int, opts ...Option) (*Converter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid grid %dx%d", width, height)
	}
	c := &Converter{
		width:   width,
		height:  height,
		palette: palettes[DefaultPalette],
		fs:      afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Size returns the grid dimensions.
func (c *Converter) Size() (width, height int) { return c.width, c.height }

// ConvertFile decodes the image at path and renders it.
func (c *Converter) ConvertFile(path string) (string, error) {
	file, err := c.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", path, err)
	}
	return c.Convert(img)
}

// Convert renders img. Every row ends with a newline.
func (c *Converter) Convert(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("render: nil image")
	}
	if img.Bounds().Empty() {
		return "", errors.New("render: empty image")
	}
	grid := image.NewGray(image.Rect(0, 0, c.width, c.height))
	draw.ApproxBiLinear.Scale(grid, grid.Bounds(), img, img.Bounds(), draw.Src, nil)

	ramp := c.palette.Ramp
	last := len(ramp) - 1
	var b strings.Builder
	b.Grow((c.width + 1) * c.height)
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			lum := int(grid.GrayAt(x, y).Y)
			if c.invert {
				lum = 255 - lum
			}
			b.WriteRune(ramp[lum*last/255])
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
