package decode

import (
	"fmt"
	"image"
)

// Frame is one decoded picture in packed rgb24 layout.
type Frame struct {
	// Index is the zero-based position of the frame in decode order.
	Index int64
	// PTS is the presentation timestamp in time-base ticks; valid only when
	// HasPTS is set.
	PTS    int64
	HasPTS bool
	Width  int
	Height int
	Pix    []byte
	// Flushed marks frames produced after end of input was signalled to the
	// decoder. The ffmpeg subprocess drains its decoder internally, so
	// frames from this package never set it.
	Flushed bool
}

// Image converts the frame into an image.NRGBA.
func (f Frame) Image() (*image.NRGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("frame %d: invalid size %dx%d", f.Index, f.Width, f.Height)
	}
	want := f.Width * f.Height * 3
	if len(f.Pix) != want {
		return nil, fmt.Errorf("frame %d: buffer holds %d bytes, want %d", f.Index, len(f.Pix), want)
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for src, dst := 0, 0; src < len(f.Pix); src, dst = src+3, dst+4 {
		img.Pix[dst] = f.Pix[src]
		img.Pix[dst+1] = f.Pix[src+1]
		img.Pix[dst+2] = f.Pix[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img, nil
}
