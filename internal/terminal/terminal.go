package terminal

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	enterAltScreen = "\x1b[?1049h"
	leaveAltScreen = "\x1b[?1049l"
	hideCursor     = "\x1b[?25l"
	showCursor     = "\x1b[?25h"
	clearScreen    = "\x1b[2J"
	cursorHome     = "\x1b[H"
)

// ErrNotTerminal is returned by Size when the descriptor is not a terminal.
var ErrNotTerminal = errors.New("not a terminal")

// Guard owns the terminal modes set up for playback. Restore may be called
// any number of times; only the first call writes.
type Guard struct {
	out  io.Writer
	once sync.Once
	err  error
}

// Enter switches to the alternate screen and hides the cursor.
func Enter(out io.Writer) (*Guard, error) {
	g := &Guard{out: out}
	if _, err := io.WriteString(out, enterAltScreen+hideCursor); err != nil {
		return nil, err
	}
	return g, nil
}

// Restore shows the cursor and leaves the alternate screen.
func (g *Guard) Restore() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		_, g.err = io.WriteString(g.out, showCursor+leaveAltScreen)
	})
	return g.err
}

// Screen repaints whole frames.
type Screen struct {
	out io.Writer
	buf []byte
}

// NewScreen returns a Screen writing to out.
func NewScreen(out io.Writer) *Screen {
	return &Screen{out: out}
}

// Render clears the screen, homes the cursor, and writes content in a
// single write so partial frames are not visible.
func (s *Screen) Render(content string) error {
	s.buf = s.buf[:0]
	s.buf = append(s.buf, clearScreen...)
	s.buf = append(s.buf, cursorHome...)
	s.buf = append(s.buf, content...)
	_, err := s.out.Write(s.buf)
	return err
}

// Size reports the columns and rows of the terminal behind f.
func Size(f *os.File) (int, int, error) {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return 0, 0, ErrNotTerminal
	}
	return term.GetSize(int(f.Fd()))
}
