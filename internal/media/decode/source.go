package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"asciireel/internal/logging"
	"asciireel/internal/services"
)

const defaultStampTimeout = 5 * time.Second

// Executor abstracts command execution for testability. stdout is called on
// the calling goroutine; stderr runs concurrently and must drain its reader.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdout func(io.Reader) error, stderr func(io.Reader)) error
}

// Option configures a Source.
type Option func(*Source)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Source) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithTimeBase rescales timestamps to num/den seconds per tick.
func WithTimeBase(num, den int64) Option {
	return func(s *Source) {
		s.timeBase = [2]int64{num, den}
	}
}

// WithLogger sets the logger used for decoder diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithStampTimeout bounds how long a frame waits for its timestamp line.
func WithStampTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.stampTimeout = d
		}
	}
}

// Source decodes the first video stream of one file.
type Source struct {
	binary       string
	path         string
	width        int
	height       int
	timeBase     [2]int64
	stampTimeout time.Duration
	exec         Executor
	logger       *slog.Logger
}

// New returns a Source for path. width and height are the stream's coded
// picture size as reported by ffprobe.
func New(binary, path string, width, height int, opts ...Option) (*Source, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("decode: input path required")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("decode: invalid frame size %dx%d", width, height)
	}
	s := &Source{
		binary:       binary,
		path:         path,
		width:        width,
		height:       height,
		stampTimeout: defaultStampTimeout,
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "decode")
	return s, nil
}

// Args returns the ffmpeg command line used to decode the file.
func (s *Source) Args() []string {
	filters := make([]string, 0, 2)
	if s.timeBase[0] > 0 && s.timeBase[1] > 0 {
		filters = append(filters, "settb="+strconv.FormatInt(s.timeBase[0], 10)+"/"+strconv.FormatInt(s.timeBase[1], 10))
	}
	filters = append(filters, "showinfo")

	// Frames keep their stored geometry; rotation side data would swap width and height.
	stream := ffmpeg.Input(s.path, ffmpeg.KwArgs{"noautorotate": ""}).Output("pipe:", ffmpeg.KwArgs{
		"map":      "0:v:0",
		"vf":       strings.Join(filters, ","),
		"f":        "rawvideo",
		"pix_fmt":  "rgb24",
		"fps_mode": "passthrough",
	})
	return append([]string{"-hide_banner", "-nostdin", "-loglevel", "info"}, stream.GetArgs()...)
}

// Frames decodes the file and calls fn for every frame in decode order.
// Reaching the end of the stream is not an error. An error returned by fn
// stops decoding and is returned unchanged.
func (s *Source) Frames(ctx context.Context, fn func(Frame) error) error {
	queue := newStampQueue()
	frameSize := s.width * s.height * 3
	var desynced bool
	var count int64

	readFrames := func(r io.Reader) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf := make([]byte, frameSize)
			if _, err := io.ReadFull(r, buf); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				if errors.Is(err, io.ErrUnexpectedEOF) {
					logging.WarnWithContext(s.logger, "decoder output ended mid-frame; partial frame dropped", "decode_truncated_frame",
						logging.Int64("frame_index", count),
						logging.String(logging.FieldImpact, "last frame not converted"),
					)
					return nil
				}
				return fmt.Errorf("read frame: %w", err)
			}

			frame := Frame{Index: count, Width: s.width, Height: s.height, Pix: buf}
			if !desynced {
				st, ok := queue.pop(s.stampTimeout)
				if !ok {
					desynced = true
					logging.WarnWithContext(s.logger, "frame timestamps unavailable; remaining frames have unknown timestamps", "decode_timestamps_missing",
						logging.Int64("frame_index", count),
						logging.String(logging.FieldErrorHint, "check that the ffmpeg build includes the showinfo filter"),
						logging.String(logging.FieldImpact, "frames without timestamps are not sampled"),
					)
				} else {
					frame.PTS, frame.HasPTS = st.pts, st.hasPTS
				}
			}
			count++
			if err := fn(frame); err != nil {
				return err
			}
		}
	}

	err := s.exec.Run(ctx, s.binary, s.Args(), readFrames, queue.consume)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		var toolErr *toolError
		if errors.As(err, &toolErr) {
			detail := strings.Join(queue.stderrTail(), "; ")
			return services.Wrap(services.ErrExternalTool, "decode", "run ffmpeg", detail, err)
		}
		return err
	}
	s.logger.Debug("decode finished", logging.Int64("frames", count), logging.String("source", s.path))
	return nil
}

// toolError marks failures of the ffmpeg process itself, as opposed to
// errors returned by the frame callback.
type toolError struct {
	err error
}

func (e *toolError) Error() string { return e.err.Error() }

func (e *toolError) Unwrap() error { return e.err }

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdout func(io.Reader) error, stderr func(io.Reader)) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, args...) //nolint:gosec
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return &toolError{fmt.Errorf("stdout pipe: %w", err)}
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return &toolError{fmt.Errorf("stderr pipe: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return &toolError{fmt.Errorf("start command: %w", err)}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		stderr(errPipe)
	}()

	readErr := stdout(outPipe)
	if readErr != nil {
		cancel()
	}
	// Drain remaining output so ffmpeg is never stuck on a full pipe.
	_, _ = io.Copy(io.Discard, outPipe)
	wg.Wait()
	waitErr := cmd.Wait()

	if readErr != nil {
		return readErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		return &toolError{fmt.Errorf("wait command: %w", waitErr)}
	}
	return nil
}
