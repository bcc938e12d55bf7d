package decode

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"asciireel/internal/services"
)

type stubExecutor struct {
	stdout  []byte
	stderr  string
	runErr  error
	binary  string
	args    []string
	blockIO bool
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, stdout func(io.Reader) error, stderr func(io.Reader)) error {
	s.binary = binary
	s.args = append([]string(nil), args...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if s.blockIO {
			<-ctx.Done()
		}
		stderr(strings.NewReader(s.stderr))
	}()
	err := stdout(bytes.NewReader(s.stdout))
	if s.blockIO && err == nil {
		return s.runErr
	}
	<-done
	if err != nil {
		return err
	}
	return s.runErr
}

func rgbFrames(count, width, height int) []byte {
	out := make([]byte, 0, count*width*height*3)
	for i := 0; i < count; i++ {
		for p := 0; p < width*height; p++ {
			out = append(out, byte(i), byte(p), 0x10)
		}
	}
	return out
}

const showinfoLog = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mp4':
[Parsed_showinfo_1 @ 0x5583] config in time_base: 1001/30000, frame_rate: 30000/1001
[Parsed_showinfo_1 @ 0x5583] n:   0 pts:      0 pts_time:0       duration:      1 fmt:yuv420p
[Parsed_showinfo_1 @ 0x5583] n:   1 pts:      1 pts_time:0.0333667 duration:      1 fmt:yuv420p
[Parsed_showinfo_1 @ 0x5583] n:   2 pts:NOPTS pts_time:NOPTS fmt:yuv420p
`

func TestFramesPairsTimestampsWithPixels(t *testing.T) {
	exec := &stubExecutor{stdout: rgbFrames(3, 2, 2), stderr: showinfoLog}
	src, err := New("ffmpeg", "clip.mp4", 2, 2, WithExecutor(exec), WithTimeBase(1001, 30000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var frames []Frame
	if err := src.Frames(context.Background(), func(f Frame) error {
		frames = append(frames, f)
		return nil
	}); err != nil {
		t.Fatalf("Frames: %v", err)
	}

	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if !frames[0].HasPTS || frames[0].PTS != 0 || !frames[1].HasPTS || frames[1].PTS != 1 {
		t.Fatalf("unexpected timestamps: %+v %+v", frames[0], frames[1])
	}
	if frames[2].HasPTS {
		t.Fatalf("expected NOPTS frame to have unknown timestamp: %+v", frames[2])
	}
	if frames[1].Pix[0] != 1 || len(frames[1].Pix) != 12 {
		t.Fatalf("unexpected pixel data: %v", frames[1].Pix)
	}
	for _, f := range frames {
		if f.Flushed {
			t.Fatal("ffmpeg source must not mark frames as flushed")
		}
	}
	if exec.binary != "ffmpeg" {
		t.Fatalf("unexpected binary %q", exec.binary)
	}
}

func TestArgsIncludeTimeBaseAndShowinfo(t *testing.T) {
	src, err := New("", "clip.mp4", 4, 4, WithTimeBase(1001, 30000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	joined := strings.Join(src.Args(), " ")
	for _, want := range []string{"-i clip.mp4", "-f rawvideo", "-pix_fmt rgb24", "-map 0:v:0", "settb=1001/30000,showinfo", "pipe:"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}

	plain, _ := New("", "clip.mp4", 4, 4)
	if strings.Contains(strings.Join(plain.Args(), " "), "settb") {
		t.Fatal("expected no settb filter without a time base")
	}
}

func TestArgsKeepStoredGeometryAndTimestamps(t *testing.T) {
	src, err := New("", "portrait.mp4", 4, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	args := src.Args()
	indexOf := func(flag string) int {
		for i, arg := range args {
			if arg == flag {
				return i
			}
		}
		return -1
	}

	noRotate, input := indexOf("-noautorotate"), indexOf("-i")
	if noRotate < 0 || input < 0 || noRotate > input {
		t.Fatalf("expected -noautorotate before -i, got %v", args)
	}
	if mode := indexOf("-fps_mode"); mode < 0 || mode+1 >= len(args) || args[mode+1] != "passthrough" {
		t.Fatalf("expected -fps_mode passthrough, got %v", args)
	}
	if indexOf("-vsync") >= 0 {
		t.Fatalf("unexpected deprecated -vsync in %v", args)
	}
}

func TestFramesMissingTimestampsMarkUnknown(t *testing.T) {
	exec := &stubExecutor{stdout: rgbFrames(2, 1, 1), blockIO: true}
	src, err := New("ffmpeg", "clip.mp4", 1, 1, WithExecutor(exec), WithStampTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames []Frame
	if err := src.Frames(ctx, func(f Frame) error {
		frames = append(frames, f)
		return nil
	}); err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	for _, f := range frames {
		if f.HasPTS {
			t.Fatalf("expected unknown timestamps, got %+v", f)
		}
	}
}

func TestFramesStopsOnCallbackError(t *testing.T) {
	exec := &stubExecutor{stdout: rgbFrames(3, 1, 1), stderr: showinfoLog}
	src, _ := New("ffmpeg", "clip.mp4", 1, 1, WithExecutor(exec))
	stop := errors.New("bucket directory unavailable")

	calls := 0
	err := src.Frames(context.Background(), func(Frame) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected decoding to stop after first frame, got %d calls", calls)
	}
}

func TestFramesReportsToolFailure(t *testing.T) {
	exec := &stubExecutor{
		stderr: "clip.mp4: No such file or directory\n",
		runErr: &toolError{errors.New("wait command: exit status 1")},
	}
	src, _ := New("ffmpeg", "clip.mp4", 1, 1, WithExecutor(exec))
	err := src.Frames(context.Background(), func(Frame) error { return nil })
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
}

func TestFramesDropsTruncatedTail(t *testing.T) {
	data := append(rgbFrames(1, 2, 1), 0x01, 0x02)
	exec := &stubExecutor{stdout: data, stderr: showinfoLog}
	src, _ := New("ffmpeg", "clip.mp4", 2, 1, WithExecutor(exec))
	count := 0
	if err := src.Frames(context.Background(), func(Frame) error { count++; return nil }); err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 complete frame, got %d", count)
	}
}

func TestParseShowinfo(t *testing.T) {
	tests := []struct {
		line   string
		ok     bool
		hasPTS bool
		pts    int64
	}{
		{"[Parsed_showinfo_0 @ 0x1] n:  12 pts:  24024 pts_time:0.267", true, true, 24024},
		{"[Parsed_showinfo_0 @ 0x1] n:3 pts:-2 pts_time:-0.1", true, true, -2},
		{"[Parsed_showinfo_0 @ 0x1] n:   4 pts:NOPTS pts_time:NOPTS", true, false, 0},
		{"[Parsed_showinfo_0 @ 0x1] config in time_base: 1/25, frame_rate: 25/1", false, false, 0},
		{"Stream #0:0: Video: h264", false, false, 0},
	}
	for _, tc := range tests {
		got, ok := parseShowinfo(tc.line)
		if ok != tc.ok || got.hasPTS != tc.hasPTS || got.pts != tc.pts {
			t.Fatalf("parseShowinfo(%q) = %+v, %v", tc.line, got, ok)
		}
	}
}

func TestFrameImage(t *testing.T) {
	f := Frame{Width: 2, Height: 1, Pix: []byte{10, 20, 30, 40, 50, 60}}
	img, err := f.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	c := img.NRGBAAt(1, 0)
	if c.R != 40 || c.G != 50 || c.B != 60 || c.A != 0xff {
		t.Fatalf("unexpected pixel %+v", c)
	}
	if _, err := (Frame{Width: 2, Height: 2, Pix: []byte{1}}).Image(); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestNewValidatesInput(t *testing.T) {
	if _, err := New("ffmpeg", " ", 1, 1); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := New("ffmpeg", "clip.mp4", 0, 1); err == nil {
		t.Fatal("expected error for invalid size")
	}
}
