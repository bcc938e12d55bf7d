package store

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"asciireel/internal/logging"
	"asciireel/internal/services"
)

// Clean removes everything Discover would play from root: numeric bucket
// directories and loose numeric frame files. Other files are left alone. A
// missing root is not an error.
func Clean(fsys afero.Fs, root string, logger *slog.Logger) (int, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	logger = logging.NewComponentLogger(logger, "store")

	children, err := afero.ReadDir(fsys, root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, services.Wrap(services.ErrIO, "store", "read output root", root, err)
	}

	removed := 0
	for _, child := range children {
		path := filepath.Join(root, child.Name())
		var stale bool
		if child.IsDir() {
			_, stale = parseNumber(child.Name())
		} else if _, isFrame, ok := frameNumber(child.Name()); isFrame && ok {
			stale = true
		}
		if !stale {
			continue
		}
		if err := fsys.RemoveAll(path); err != nil {
			return removed, services.Wrap(services.ErrIO, "store", "remove stale frames", path, err)
		}
		removed++
	}
	if removed > 0 {
		logger.Info("stale frames removed", logging.String("root", root), logging.Int("entries", removed))
	}
	return removed, nil
}
