package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" || results[0].Path != present {
		t.Fatalf("expected first requirement to be available at %s, got %#v", present, results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

func TestMediaRequirements(t *testing.T) {
	reqs := MediaRequirements("ffmpeg-custom", "ffprobe-custom")
	if len(reqs) != 2 || reqs[0].Command != "ffmpeg-custom" || reqs[1].Command != "ffprobe-custom" {
		t.Fatalf("unexpected requirements: %#v", reqs)
	}
}

const filterListing = `Filters:
  T.. = Timeline support
  ... = Source or sink filter
 ... scale             V->V       Scale the input video size and/or convert the image format.
 ... settb             V->V       Set timebase for the video output link.
 ... showinfo          V->V       Show textual information for each video frame.
`

func writeFFmpegStub(t *testing.T, listing string) string {
	t.Helper()
	dir := t.TempDir()
	listingPath := filepath.Join(dir, "filters.txt")
	if err := os.WriteFile(listingPath, []byte(listing), 0o644); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	bin := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\ncat '" + listingPath + "'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return bin
}

func TestCheckFFmpegFilter(t *testing.T) {
	bin := writeFFmpegStub(t, filterListing)

	if status := CheckFFmpegFilter(context.Background(), bin, "showinfo"); !status.Available {
		t.Fatalf("expected showinfo to be available, got %#v", status)
	}
	status := CheckFFmpegFilter(context.Background(), bin, "zscale")
	if status.Available || status.Detail == "" {
		t.Fatalf("expected zscale to be missing, got %#v", status)
	}
}

func TestCheckFFmpegFilterMissingBinary(t *testing.T) {
	status := CheckFFmpegFilter(context.Background(), filepath.Join(t.TempDir(), "nope"), "showinfo")
	if status.Available || status.Detail == "" {
		t.Fatalf("expected failure detail, got %#v", status)
	}
}
