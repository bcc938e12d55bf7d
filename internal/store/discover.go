package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"asciireel/internal/logging"
	"asciireel/internal/services"
)

// Discover rebuilds the playback order of the store at root from its
// directory layout. Names that do not follow the layout are skipped; an
// empty store yields an empty Sequence and no error.
func Discover(ctx context.Context, fsys afero.Fs, root string, logger *slog.Logger) (Sequence, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "store"))

	children, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "read frames directory", root, err)
	}

	index := NewIndex()
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(root, child.Name())
		info := resolve(fsys, path, child)

		if info.IsDir() {
			bucket, ok := parseNumber(child.Name())
			if !ok {
				logging.WarnWithContext(logger, "directory name is not a second number; skipped", "store_bucket_unparsable",
					logging.String("path", path),
					logging.String(logging.FieldErrorHint, "bucket directories must be named by whole seconds"),
					logging.String(logging.FieldImpact, "frames in this directory are not played"),
				)
				continue
			}
			if err := discoverBucket(fsys, path, bucket, index, logger); err != nil {
				return nil, err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		frame, isFrame, ok := frameNumber(child.Name())
		if !isFrame {
			continue
		}
		if !ok {
			warnFrameName(logger, path)
			continue
		}
		index.Add(Entry{Bucket: 0, Frame: frame, Path: path})
	}

	seq := index.Flatten()
	logger.Debug("frame store discovered",
		logging.String("root", root),
		logging.Int("frames", len(seq)),
		logging.Int("buckets", seq.Buckets()),
	)
	return seq, nil
}

func discoverBucket(fsys afero.Fs, dir string, bucket uint64, index *Index, logger *slog.Logger) error {
	children, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return services.Wrap(services.ErrIO, "store", "read second directory", dir, err)
	}
	for _, child := range children {
		path := filepath.Join(dir, child.Name())
		info := resolve(fsys, path, child)
		if !info.Mode().IsRegular() {
			continue
		}
		frame, isFrame, ok := frameNumber(child.Name())
		if !isFrame {
			continue
		}
		if !ok {
			warnFrameName(logger, path)
			continue
		}
		index.Add(Entry{Bucket: bucket, Frame: frame, Path: path})
	}
	return nil
}

// resolve follows symlinks so linked frames and buckets count like regular
// ones. Broken links keep their link info and are skipped by the callers.
func resolve(fsys afero.Fs, path string, info os.FileInfo) os.FileInfo {
	if info.Mode()&os.ModeSymlink == 0 {
		return info
	}
	target, err := fsys.Stat(path)
	if err != nil {
		return info
	}
	return target
}

func warnFrameName(logger *slog.Logger, path string) {
	logging.WarnWithContext(logger, "frame file name is not a frame number; skipped", "store_frame_unparsable",
		logging.String("path", path),
		logging.String(logging.FieldErrorHint, "frame files must be named <number>.txt"),
		logging.String(logging.FieldImpact, "frame is not played"),
	)
}
