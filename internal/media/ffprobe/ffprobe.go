package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int         `json:"index"`
	CodecName    string      `json:"codec_name"`
	CodecType    string      `json:"codec_type"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	PixFmt       string      `json:"pix_fmt"`
	RFrameRate   string      `json:"r_frame_rate"`
	AvgFrameRate string      `json:"avg_frame_rate"`
	TimeBase     string      `json:"time_base"`
	NBFrames     string      `json:"nb_frames"`
	Duration     string      `json:"duration"`
	SampleRate   string      `json:"sample_rate"`
	Channels     int         `json:"channels"`
	Disposition  Disposition `json:"disposition"`
}

// Disposition carries the stream flags asciireel cares about.
type Disposition struct {
	Default     int `json:"default"`
	AttachedPic int `json:"attached_pic"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Rational is an exact fraction as printed by ffprobe ("30000/1001").
type Rational struct {
	Num int64
	Den int64
}

// Valid reports whether r is a positive, finite fraction.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Float returns r as a float64, or 0 when r is not valid.
func (r Rational) Float() float64 {
	if !r.Valid() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return strconv.FormatInt(r.Num, 10) + "/" + strconv.FormatInt(r.Den, 10)
}

// ParseRational parses "num/den" or a plain integer.
func ParseRational(value string) (Rational, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Rational{}, errors.New("empty rational")
	}
	numText, denText, found := strings.Cut(value, "/")
	if !found {
		denText = "1"
	}
	num, err := strconv.ParseInt(strings.TrimSpace(numText), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", value, err)
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denText), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", value, err)
	}
	return Rational{Num: num, Den: den}, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream that is not cover art.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Disposition.AttachedPic == 0 {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// FrameRate returns the stream's base frame rate, falling back to the
// average rate when the base rate is unset ("0/0").
func (s Stream) FrameRate() (Rational, error) {
	for _, candidate := range []string{s.RFrameRate, s.AvgFrameRate} {
		rate, err := ParseRational(candidate)
		if err == nil && rate.Valid() {
			return rate, nil
		}
	}
	return Rational{}, fmt.Errorf("stream %d: no usable frame rate (r_frame_rate=%q avg_frame_rate=%q)", s.Index, s.RFrameRate, s.AvgFrameRate)
}

// FrameCount returns the container-reported frame count, or 0 when unknown.
func (s Stream) FrameCount() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s.NBFrames), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
