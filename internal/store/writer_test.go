package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"asciireel/internal/services"
)

// failingFs fails OpenFile and Open for paths containing a marker.
type failingFs struct {
	afero.Fs
	marker string
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.Contains(name, f.marker) {
		return nil, errors.New("injected open failure")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f failingFs) Open(name string) (afero.File, error) {
	if strings.Contains(name, f.marker) {
		return nil, errors.New("injected open failure")
	}
	return f.Fs.Open(name)
}

func TestWriterAssignsContiguousFrameNumbersPerBucket(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "/out")

	writes := []struct {
		bucket uint64
		want   string
	}{
		{0, "/out/0/1.txt"},
		{0, "/out/0/2.txt"},
		{3, "/out/3/1.txt"},
		{0, "/out/0/3.txt"},
		{3, "/out/3/2.txt"},
	}
	for i, tc := range writes {
		entry, err := w.Write(tc.bucket, "frame")
		if err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		if entry.Path != filepath.FromSlash(tc.want) {
			t.Fatalf("write %d: path %q, want %q", i, entry.Path, tc.want)
		}
	}
	if w.Written(0) != 3 || w.Written(3) != 2 {
		t.Fatalf("unexpected counters: 0=%d 3=%d", w.Written(0), w.Written(3))
	}
	data, err := afero.ReadFile(fs, "/out/3/2.txt")
	if err != nil || string(data) != "frame" {
		t.Fatalf("unexpected content %q: %v", data, err)
	}
}

func TestEnsureBucketIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "/out")
	if _, err := w.Write(5, "a"); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := w.EnsureBucket(5); err != nil {
			t.Fatalf("EnsureBucket: %v", err)
		}
	}
	entry, err := w.Write(5, "b")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if entry.Frame != 2 {
		t.Fatalf("expected counter preserved, got frame %d", entry.Frame)
	}

	// A directory that already exists on disk is not an error either.
	fresh := NewWriter(fs, "/out")
	if _, err := fresh.EnsureBucket(5); err != nil {
		t.Fatalf("EnsureBucket on existing directory: %v", err)
	}
}

func TestWriterBucketDirFailureIsFatal(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	w := NewWriter(fs, "/out")
	_, err := w.Write(0, "frame")
	if !errors.Is(err, ErrBucketDir) {
		t.Fatalf("expected ErrBucketDir, got %v", err)
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected I/O classification, got %v", err)
	}
}

func TestWriterFrameFailureDoesNotConsumeNumber(t *testing.T) {
	base := afero.NewMemMapFs()
	fs := failingFs{Fs: base, marker: "/out/1/1.txt"}
	w := NewWriter(fs, "/out")

	_, err := w.Write(1, "lost")
	if !errors.Is(err, ErrFrameWrite) {
		t.Fatalf("expected ErrFrameWrite, got %v", err)
	}
	if errors.Is(err, ErrBucketDir) {
		t.Fatalf("frame failure must not be reported as bucket failure: %v", err)
	}
	if w.Written(1) != 0 {
		t.Fatalf("expected counter untouched, got %d", w.Written(1))
	}

	w.fs = base
	entry, err := w.Write(1, "kept")
	if err != nil {
		t.Fatalf("write after failure: %v", err)
	}
	if entry.Frame != 1 {
		t.Fatalf("expected frame 1 after failed attempt, got %d", entry.Frame)
	}
}

func TestEnsureRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "/out/nested")
	if err := w.EnsureRoot(); err != nil {
		t.Fatalf("EnsureRoot: %v", err)
	}
	if ok, _ := afero.DirExists(fs, "/out/nested"); !ok {
		t.Fatal("expected root directory")
	}

	ro := NewWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/out")
	if err := ro.EnsureRoot(); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected I/O error, got %v", err)
	}
}
