package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"asciireel/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableDirectory(t *testing.T) {
	if result := CheckReadableDirectory("frames", t.TempDir()); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckReadableDirectory("frames", filepath.Join(t.TempDir(), "missing")); result.Passed {
		t.Fatal("expected failure for missing dir")
	}
}

func TestCheckCreatableDirectory_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "frames")
	result := CheckCreatableDirectory("output", path)
	if !result.Passed {
		t.Fatalf("expected missing dir under writable parent to pass, got: %s", result.Detail)
	}
}

func TestCheckCreatableDirectory_ExistingFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckCreatableDirectory("output", f); result.Passed {
		t.Fatal("expected failure when path is a file")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfg.Convert.OutputDir = filepath.Join(base, "frames")
	cfg.Play.FramesDir = cfg.Convert.OutputDir

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_ChecksSeparateFramesDir(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Convert.OutputDir = filepath.Join(base, "frames")
	cfg.Play.FramesDir = filepath.Join(base, "missing")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if last := results[3]; last.Name != "Play frames directory" || last.Passed {
		t.Fatalf("expected failing frames check, got %#v", last)
	}
}

func TestCheckSystemDeps_MissingBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Convert.FFmpegBinary = filepath.Join(t.TempDir(), "no-ffmpeg")
	cfg.Convert.FFprobeBinary = filepath.Join(t.TempDir(), "no-ffprobe")

	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected only binary checks when ffmpeg is missing, got %d", len(statuses))
	}
	for _, s := range statuses {
		if s.Available {
			t.Fatalf("expected %s to be unavailable", s.Name)
		}
	}
}
