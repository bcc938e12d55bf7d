package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asciireel/internal/player"
	"asciireel/internal/services"
	"asciireel/internal/testsupport"
)

const probeJSON = `{"streams":[{"index":0,"codec_type":"video","width":4,"height":2,"r_frame_rate":"30/1"}],"format":{"nb_streams":1}}`

// stubMediaTools installs ffprobe and ffmpeg scripts that describe and
// decode a six frame, 4x2 black clip at 30 fps.
func stubMediaTools(t *testing.T, env *cliTestEnv) {
	t.Helper()
	binDir := filepath.Join(env.baseDir, "tools")
	ffprobe := filepath.Join(binDir, "ffprobe")
	ffmpeg := filepath.Join(binDir, "ffmpeg")
	testsupport.WriteExecutable(t, ffprobe, "#!/bin/sh\ncat <<'EOF'\n"+probeJSON+"\nEOF\n")
	testsupport.WriteExecutable(t, ffmpeg, `#!/bin/sh
i=0
while [ $i -lt 6 ]; do
  echo "[Parsed_showinfo_1 @ 0x0] n:$i pts:$i pts_time:0" >&2
  i=$((i+1))
done
head -c 144 /dev/zero
`)
	env.cfg.Convert.FFmpegBinary = ffmpeg
	env.cfg.Convert.FFprobeBinary = ffprobe
	env.writeConfig(t)
}

func TestConvertWritesFrameStore(t *testing.T) {
	env := setupCLITestEnv(t)
	stubMediaTools(t, env)
	input := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, input, "not really a video")
	outDir := filepath.Join(env.baseDir, "ascii")

	out, _, err := runCLI(t, []string{"convert", "-i", input, "-o", outDir, "--fps", "10", "-W", "8", "-H", "4"}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, out, "Frames emitted")
	requireContains(t, out, "Command completed in:")

	for _, name := range []string{"1.txt", "2.txt"} {
		data, err := os.ReadFile(filepath.Join(outDir, "0", name))
		if err != nil {
			t.Fatalf("read frame %s: %v", name, err)
		}
		if lines := strings.Count(string(data), "\n"); lines != 4 {
			t.Fatalf("frame %s has %d lines, want 4", name, lines)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "0", "3.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected only two frames, stat 3.txt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "_temp_frame.png")); !os.IsNotExist(err) {
		t.Fatalf("scratch image left behind: %v", err)
	}

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Convert")
	requireContains(t, out, "Completed")
}

func TestConvertMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"convert", "-i", filepath.Join(env.baseDir, "missing.mp4")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "list", "--kind", "convert"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Failed")
}

func TestConvertRequiresInput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"convert"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "input") {
		t.Fatalf("expected missing --input error, got %v", err)
	}
}

func TestConvertRejectsUnknownPalette(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, input, "x")

	_, _, err := runCLI(t, []string{"convert", "-i", input, "--palette", "emoji"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlayRendersFrames(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFrameStore(t, env.cfg.Play.FramesDir, map[int][]string{
		0: {"first\n", "second\n"},
		1: {"third\n"},
	})

	out, _, err := runCLI(t, []string{"play", "--fps", "1000"}, env.configPath)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	requireContains(t, out, "Found 3 frames. Target FPS: ")
	requireContains(t, out, "\x1b[?1049h")
	requireContains(t, out, "\x1b[2J\x1b[Hthird\n")
	requireContains(t, out, "\x1b[?25h\x1b[?1049l")
	requireContains(t, out, "Playback finished.")
	if strings.Index(out, "first") > strings.Index(out, "third") {
		t.Fatalf("frames rendered out of order: %q", out)
	}

	out, _, err = runCLI(t, []string{"history", "list", "--kind", "play"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Play")
	requireContains(t, out, "Completed")
}

func TestPlayEmptyStore(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Play.FramesDir, 0o755); err != nil {
		t.Fatalf("mkdir frames: %v", err)
	}

	out, _, err := runCLI(t, []string{"play"}, env.configPath)
	if !errors.Is(err, player.ErrNothingToPlay) {
		t.Fatalf("expected ErrNothingToPlay, got %v", err)
	}
	requireContains(t, out, "Found 0 frames")
	if strings.Contains(out, "\x1b[?1049h") {
		t.Fatalf("terminal should not switch screens for an empty store: %q", out)
	}
}

func TestPlayReportsSkippedEntriesOnStderr(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFrameStore(t, env.cfg.Play.FramesDir, map[int][]string{0: {"first\n"}})
	stray := filepath.Join(env.cfg.Play.FramesDir, "0", "cover.txt")
	if err := os.WriteFile(stray, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write stray frame: %v", err)
	}

	out, errOut, err := runCLI(t, []string{"play", "--fps", "1000"}, env.configPath)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	requireContains(t, out, "Found 1 frames")
	requireContains(t, errOut, "frame file name is not a frame number; skipped")
	requireContains(t, errOut, "cover.txt")
	if strings.Contains(out, "not a frame number") {
		t.Fatalf("discovery warning leaked onto the frame output: %q", out)
	}
}

// cancelWriter cancels the run once the last frame has been drawn twice,
// so the cancel always lands mid-loop with the alternate screen active.
type cancelWriter struct {
	bytes.Buffer
	cancel context.CancelFunc
}

func (w *cancelWriter) Write(p []byte) (int, error) {
	n, err := w.Buffer.Write(p)
	if strings.Count(w.String(), "third\n") >= 2 {
		w.cancel()
	}
	return n, err
}

func TestPlayInterruptRestoresTerminal(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFrameStore(t, env.cfg.Play.FramesDir, map[int][]string{
		0: {"first\n", "second\n"},
		1: {"third\n"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &cancelWriter{cancel: cancel}
	var errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--config", env.configPath, "play", "--gif", "--fps", "1000"})

	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("interrupted play should exit cleanly, got %v", err)
	}
	text := out.String()
	requireContains(t, text, "\x1b[?1049h")
	requireContains(t, text, "\x1b[?25h\x1b[?1049l")
	requireContains(t, text, "Playback interrupted.")
	if strings.LastIndex(text, "third") > strings.LastIndex(text, "\x1b[?1049l") {
		t.Fatalf("frame drawn after terminal restore: %q", text)
	}
	if strings.Contains(text, "Playback finished.") {
		t.Fatalf("interrupted run reported as finished: %q", text)
	}

	runs, _, err := runCLI(t, []string{"history", "list", "--kind", "play"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, runs, "Interrupted")
}

func TestPlaySyncRequiresGif(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"play", "--sync"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, err.Error(), "--sync requires --gif")
}

func TestHistoryWithoutRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, []string{"history", "list", "--kind", "render"}, env.configPath); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
	if _, _, err := runCLI(t, []string{"history", "show", "deadbeef"}, env.configPath); err == nil {
		t.Fatal("expected unknown run id to fail")
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistoryDisabled())

	_, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled history error, got %v", err)
	}
}

func TestStatusReportsSections(t *testing.T) {
	env := setupCLITestEnv(t)
	stubMediaTools(t, env)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Directories ==")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "== Run History ==")
	requireContains(t, out, "No runs recorded")
}
