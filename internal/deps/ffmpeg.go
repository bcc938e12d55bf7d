package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const filterProbeTimeout = 10 * time.Second

// MediaRequirements lists the binaries conversion shells out to.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Decodes video frames during convert"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Reads frame rate and picture size during convert"},
	}
}

// CheckFFmpegFilter reports whether the ffmpeg binary was built with the
// named filter. Conversion needs showinfo to recover frame timestamps.
func CheckFFmpegFilter(ctx context.Context, ffmpegBinary, filter string) Status {
	status := Status{
		Name:        "FFmpeg " + filter + " filter",
		Command:     strings.TrimSpace(ffmpegBinary),
		Description: "Reports frame timestamps to the sampler",
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, filterProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, status.Command, "-hide_banner", "-filters").Output() //nolint:gosec
	if err != nil {
		status.Detail = fmt.Sprintf("list filters: %v", err)
		return status
	}
	if hasFilter(out, filter) {
		status.Available = true
		return status
	}
	status.Detail = fmt.Sprintf("filter %q not compiled into %s", filter, status.Command)
	return status
}

// hasFilter scans `ffmpeg -filters` output, whose rows look like
// " ... showinfo          V->V       Show textual information for each video frame."
func hasFilter(listing []byte, filter string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == filter {
			return true
		}
	}
	return false
}
