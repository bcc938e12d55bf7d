package testsupport

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"
)

// WriteFrameStore lays out a frame store under root. Keys are bucket numbers
// and values the frame contents in order; bucket -1 writes loose root files.
// It returns the written paths in playback order.
func WriteFrameStore(t testing.TB, root string, buckets map[int][]string) []string {
	t.Helper()

	keys := make([]int, 0, len(buckets))
	for bucket := range buckets {
		keys = append(keys, bucket)
	}
	sort.Ints(keys)

	var paths []string
	for _, bucket := range keys {
		dir := root
		if bucket >= 0 {
			dir = filepath.Join(root, strconv.Itoa(bucket))
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		for i, content := range buckets[bucket] {
			path := filepath.Join(dir, strconv.Itoa(i+1)+".txt")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write %s: %v", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteExecutable writes a shell script to path and marks it executable.
func WriteExecutable(t testing.TB, path, script string) {
	t.Helper()

	WriteFile(t, path, script)
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
}
