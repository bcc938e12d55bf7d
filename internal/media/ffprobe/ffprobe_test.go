package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "mjpeg", "width": 300, "height": 300,
     "r_frame_rate": "90000/1", "avg_frame_rate": "0/0", "time_base": "1/90000",
     "disposition": {"default": 0, "attached_pic": 1}},
    {"index": 1, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "pix_fmt": "yuv420p", "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001",
     "time_base": "1/30000", "nb_frames": "1800", "disposition": {"default": 1, "attached_pic": 0}},
    {"index": 2, "codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "channels": 2}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 3, "duration": "60.06", "format_name": "mov,mp4"}
}`

func TestParseSelectsPrimaryVideoStream(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	video, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected video stream")
	}
	if video.Index != 1 || video.Width != 1920 || video.Height != 1080 {
		t.Fatalf("unexpected video stream: %+v", video)
	}
	rate, err := video.FrameRate()
	if err != nil {
		t.Fatalf("FrameRate: %v", err)
	}
	if rate != (Rational{Num: 30000, Den: 1001}) {
		t.Fatalf("unexpected rate %v", rate)
	}
	if math.Abs(rate.Float()-29.97) > 0.01 {
		t.Fatalf("unexpected rate float %v", rate.Float())
	}
	if video.FrameCount() != 1800 {
		t.Fatalf("unexpected frame count %d", video.FrameCount())
	}
	if result.VideoStreamCount() != 2 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected stream counts %d/%d", result.VideoStreamCount(), result.AudioStreamCount())
	}
	if result.DurationSeconds() != 60.06 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestFrameRateFallsBackToAverage(t *testing.T) {
	stream := Stream{RFrameRate: "0/0", AvgFrameRate: "25/1"}
	rate, err := stream.FrameRate()
	if err != nil {
		t.Fatalf("FrameRate: %v", err)
	}
	if rate.Float() != 25 {
		t.Fatalf("unexpected rate %v", rate)
	}

	if _, err := (Stream{RFrameRate: "0/0", AvgFrameRate: ""}).FrameRate(); err == nil {
		t.Fatal("expected error without usable rate")
	}
}

func TestParseRational(t *testing.T) {
	tests := []struct {
		in      string
		want    Rational
		wantErr bool
	}{
		{"1/90000", Rational{1, 90000}, false},
		{" 24 ", Rational{24, 1}, false},
		{"0/0", Rational{0, 0}, false},
		{"", Rational{}, true},
		{"a/b", Rational{}, true},
	}
	for _, tc := range tests {
		got, err := ParseRational(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseRational(%q) err = %v", tc.in, err)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("ParseRational(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if (Rational{0, 0}).Valid() {
		t.Fatal("0/0 must not be valid")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Stream{NBFrames: "N/A"}).FrameCount() != 0 {
		t.Fatal("expected unknown frame count to be 0")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "probe.json")
	if err := os.WriteFile(payload, []byte(sampleJSON), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	script := filepath.Join(dir, "ffprobe")
	body := "#!/bin/sh\ncat " + payload + "\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	result, err := Inspect(context.Background(), script, "clip.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if _, ok := result.VideoStream(); !ok {
		t.Fatal("expected video stream from stub output")
	}

	failing := filepath.Join(dir, "ffprobe-fail")
	if err := os.WriteFile(failing, []byte("#!/bin/sh\necho 'No such file' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if _, err := Inspect(context.Background(), failing, "missing.mp4"); err == nil {
		t.Fatal("expected error from failing binary")
	}
	if _, err := Inspect(context.Background(), script, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
