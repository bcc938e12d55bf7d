package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"asciireel/internal/services"
)

var (
	// ErrBucketDir marks a failure to create a bucket directory. The store
	// layout cannot be kept after it, so conversion stops.
	ErrBucketDir = errors.New("bucket directory unavailable")
	// ErrFrameWrite marks a failure to persist a single frame. The frame is
	// dropped and conversion continues.
	ErrFrameWrite = errors.New("frame write failed")
)

// Writer persists text frames into per-second bucket directories.
type Writer struct {
	fs       afero.Fs
	root     string
	counters map[uint64]uint64
	ensured  map[uint64]string
}

// NewWriter returns a Writer rooted at root.
func NewWriter(fs afero.Fs, root string) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{
		fs:       fs,
		root:     root,
		counters: make(map[uint64]uint64),
		ensured:  make(map[uint64]string),
	}
}

// EnsureRoot creates the store root if it does not exist.
func (w *Writer) EnsureRoot() error {
	if err := w.fs.MkdirAll(w.root, 0o755); err != nil {
		return services.Wrap(services.ErrIO, "store", "create output root", w.root, err)
	}
	return nil
}

// EnsureBucket creates the directory for bucket if needed and returns its
// path. Repeated calls are cheap and never reset the bucket's frame counter.
func (w *Writer) EnsureBucket(bucket uint64) (string, error) {
	if dir, ok := w.ensured[bucket]; ok {
		return dir, nil
	}
	dir := filepath.Join(w.root, strconv.FormatUint(bucket, 10))
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "store", "create bucket", dir, fmt.Errorf("%w: %w", ErrBucketDir, err))
	}
	w.ensured[bucket] = dir
	return dir, nil
}

// Write stores content as the next frame of bucket. Frame numbers start at 1
// and advance only when a write succeeds.
func (w *Writer) Write(bucket uint64, content string) (Entry, error) {
	dir, err := w.EnsureBucket(bucket)
	if err != nil {
		return Entry{}, err
	}
	frame := w.counters[bucket] + 1
	path := filepath.Join(dir, strconv.FormatUint(frame, 10)+frameExt)
	if err := w.writeFile(path, content); err != nil {
		return Entry{}, services.Wrap(services.ErrIO, "store", "write frame", path, fmt.Errorf("%w: %w", ErrFrameWrite, err))
	}
	w.counters[bucket] = frame
	return Entry{Bucket: bucket, Frame: frame, Path: path}, nil
}

// Written returns the number of frames written to bucket so far.
func (w *Writer) Written(bucket uint64) uint64 {
	return w.counters[bucket]
}

func (w *Writer) writeFile(path, content string) error {
	file, err := w.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(content); err != nil {
		_ = file.Close()
		_ = w.fs.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		_ = w.fs.Remove(path)
		return err
	}
	return nil
}
