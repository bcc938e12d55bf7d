package store

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// ScratchName is the transient image file conversion writes in the store root.
const ScratchName = "_temp_frame.png"

// ScratchGuard owns the scratch image of one conversion. Release it with
// defer right after construction so the file is gone on every exit path.
type ScratchGuard struct {
	fs   afero.Fs
	path string
}

// NewScratchGuard returns a guard for the scratch file under root.
func NewScratchGuard(fsys afero.Fs, root string) *ScratchGuard {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &ScratchGuard{fs: fsys, path: filepath.Join(root, ScratchName)}
}

// Path returns the scratch file location.
func (g *ScratchGuard) Path() string { return g.path }

// Fs returns the filesystem the scratch file lives on.
func (g *ScratchGuard) Fs() afero.Fs { return g.fs }

// Release removes the scratch file. A missing file is not an error.
func (g *ScratchGuard) Release() error {
	if err := g.fs.Remove(g.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
