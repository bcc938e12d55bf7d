package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	"asciireel/internal/logging"
	"asciireel/internal/media/decode"
	"asciireel/internal/media/ffprobe"
	"asciireel/internal/render"
	"asciireel/internal/sampler"
	"asciireel/internal/services"
	"asciireel/internal/store"
)

// progressInterval is how many emitted frames pass between progress reports.
const progressInterval = 10

// Request describes one conversion.
type Request struct {
	Input         string
	OutputDir     string
	FPS           float64
	Width         int
	Height        int
	Palette       render.Palette
	Invert        bool
	Clean         bool
	FFmpegBinary  string
	FFprobeBinary string
	// LockDir holds the per-store lock files. Empty disables locking.
	LockDir string
}

// Summary reports what a conversion did.
type Summary struct {
	Input          string
	OutputDir      string
	SourceFPS      float64
	TargetFPS      float64
	Threshold      int64
	// Duration and ExpectedFrames come from the container and are zero when unknown.
	Duration       time.Duration
	ExpectedFrames int64
	VideoStreams   int
	AudioStreams   int
	Scanned        int64
	Kept           int64
	Emitted        int64
	Skipped        int64
	UnknownPTS     int64
	Failed         int64
	Buckets        int
	Cleaned        int
	Elapsed        time.Duration
}

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithFs sets the filesystem for the store and scratch image.
func WithFs(fsys afero.Fs) Option {
	return func(p *Pipeline) {
		if fsys != nil {
			p.fs = fsys
		}
	}
}

// WithProber replaces ffprobe (primarily for tests).
func WithProber(probe Prober) Option {
	return func(p *Pipeline) {
		if probe != nil {
			p.probe = probe
		}
	}
}

// WithDecodeOptions appends options passed to every decode.Source.
func WithDecodeOptions(opts ...decode.Option) Option {
	return func(p *Pipeline) {
		p.decodeOpts = append(p.decodeOpts, opts...)
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgress registers a callback receiving the emitted frame count every
// progressInterval frames.
func WithProgress(fn func(emitted int64)) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// Pipeline runs conversions.
type Pipeline struct {
	fs         afero.Fs
	probe      Prober
	decodeOpts []decode.Option
	logger     *slog.Logger
	progress   func(int64)
}

// New constructs a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		fs:     afero.NewOsFs(),
		probe:  ffprobe.Inspect,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "convert")
	return p
}

// Run converts req.Input into a frame store at req.OutputDir.
func (p *Pipeline) Run(ctx context.Context, req Request) (summary Summary, err error) {
	started := time.Now()
	summary = Summary{Input: req.Input, OutputDir: req.OutputDir, TargetFPS: req.FPS}
	defer func() { summary.Elapsed = time.Since(started) }()

	if err := validate(req); err != nil {
		return summary, err
	}
	if _, err := p.fs.Stat(req.Input); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return summary, services.Wrap(services.ErrNotFound, "convert", "open input", req.Input, err)
		}
		return summary, services.Wrap(services.ErrIO, "convert", "open input", req.Input, err)
	}

	writer := store.NewWriter(p.fs, req.OutputDir)
	if err := writer.EnsureRoot(); err != nil {
		return summary, err
	}

	if req.LockDir != "" {
		lock, err := store.AcquireLock(req.LockDir, req.OutputDir)
		if err != nil {
			return summary, services.Wrap(services.ErrIO, "convert", "lock output", req.OutputDir, err)
		}
		p.logger.Debug("store lock acquired", logging.String("lock_path", lock.Path()))
		defer func() {
			if relErr := lock.Release(); relErr != nil {
				p.logger.Debug("release store lock", logging.Error(relErr))
			}
		}()
	}

	if req.Clean {
		removed, err := store.Clean(p.fs, req.OutputDir, p.logger)
		if err != nil {
			return summary, err
		}
		summary.Cleaned = removed
	}

	guard := store.NewScratchGuard(p.fs, req.OutputDir)
	defer func() {
		if relErr := guard.Release(); relErr != nil {
			logging.WarnWithContext(p.logger, "scratch image not removed", "convert_scratch_cleanup_failed",
				logging.String("path", guard.Path()),
				logging.Error(relErr),
				logging.String(logging.FieldErrorHint, "delete the file by hand"),
				logging.String(logging.FieldImpact, "a stray image remains in the output directory"),
			)
		}
	}()

	info, err := p.inspect(ctx, req)
	if err != nil {
		return summary, err
	}
	stream, rate := info.stream, info.rate
	summary.SourceFPS = rate.Float()
	summary.Duration = info.duration
	summary.ExpectedFrames = info.expectedFrames
	summary.VideoStreams = info.videoStreams
	summary.AudioStreams = info.audioStreams
	if info.videoStreams > 1 {
		p.logger.Info("input has several video streams; converting the first",
			logging.Int("video_streams", info.videoStreams),
			logging.Int("stream_index", stream.Index),
		)
	}
	summary.Threshold = sampler.Threshold(summary.SourceFPS, req.FPS)

	// Decoded timestamps are rescaled so one tick is one source frame.
	smp, err := sampler.New(summary.Threshold, sampler.TimeBase{Num: rate.Den, Den: rate.Num})
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "convert", "time base", rate.String(), err)
	}

	converter, err := render.New(req.Width, req.Height,
		render.WithPalette(req.Palette),
		render.WithInvert(req.Invert),
		render.WithFs(p.fs),
	)
	if err != nil {
		return summary, services.Wrap(services.ErrValidation, "convert", "configure renderer", "", err)
	}

	decodeOpts := append([]decode.Option{
		decode.WithTimeBase(rate.Den, rate.Num),
		decode.WithLogger(p.logger),
	}, p.decodeOpts...)
	source, err := decode.New(req.FFmpegBinary, req.Input, stream.Width, stream.Height, decodeOpts...)
	if err != nil {
		return summary, services.Wrap(services.ErrValidation, "convert", "configure decoder", req.Input, err)
	}

	cols, rows := converter.Size()
	p.logger.Info("conversion started",
		logging.String("input", req.Input),
		logging.String("output_dir", req.OutputDir),
		logging.Float64("source_fps", summary.SourceFPS),
		logging.Float64("target_fps", req.FPS),
		logging.Int64("threshold", summary.Threshold),
		logging.Int64("expected_frames", summary.ExpectedFrames),
		logging.Duration("duration", summary.Duration),
		logging.String("grid", fmt.Sprintf("%dx%d", cols, rows)),
	)

	run := &frameRun{
		pipeline:  p,
		sampler:   smp,
		writer:    writer,
		converter: converter,
		scratch:   guard,
		progress:  logging.NewProgressSampler(progressInterval),
		buckets:   make(map[uint64]struct{}),
	}
	decodeErr := source.Frames(ctx, run.handle)

	state := smp.State()
	summary.Scanned = state.Scanned
	summary.Kept = state.Kept
	summary.UnknownPTS = state.UnknownPTS
	summary.Skipped = state.Scanned - state.Kept
	summary.Emitted = run.emitted
	summary.Failed = run.failed
	summary.Buckets = len(run.buckets)

	if decodeErr != nil {
		return summary, decodeErr
	}
	p.logger.Info("conversion finished",
		logging.Int64("frames_scanned", summary.Scanned),
		logging.Int64("frames_emitted", summary.Emitted),
		logging.Int64("frames_failed", summary.Failed),
		logging.Int("buckets", summary.Buckets),
		logging.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.Input) == "" {
		return services.Wrap(services.ErrValidation, "convert", "validate", "input path required", nil)
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return services.Wrap(services.ErrValidation, "convert", "validate", "output directory required", nil)
	}
	if req.FPS <= 0 || math.IsNaN(req.FPS) || math.IsInf(req.FPS, 0) {
		return services.Wrap(services.ErrValidation, "convert", "validate", fmt.Sprintf("fps must be positive, got %v", req.FPS), nil)
	}
	if req.Width <= 0 || req.Height <= 0 {
		return services.Wrap(services.ErrValidation, "convert", "validate", fmt.Sprintf("invalid size %dx%d", req.Width, req.Height), nil)
	}
	return nil
}

// inputInfo is what conversion needs to know about the input before decoding.
type inputInfo struct {
	stream         ffprobe.Stream
	rate           ffprobe.Rational
	duration       time.Duration
	expectedFrames int64
	videoStreams   int
	audioStreams   int
}

func (p *Pipeline) inspect(ctx context.Context, req Request) (inputInfo, error) {
	result, err := p.probe(ctx, req.FFprobeBinary, req.Input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return inputInfo{}, ctxErr
		}
		return inputInfo{}, services.Wrap(services.ErrExternalTool, "convert", "probe input", req.Input, err)
	}
	stream, ok := result.VideoStream()
	if !ok {
		return inputInfo{}, services.Wrap(services.ErrValidation, "convert", "probe input", "no video stream in "+req.Input, nil)
	}
	rate, err := stream.FrameRate()
	if err != nil {
		return inputInfo{}, services.Wrap(services.ErrValidation, "convert", "probe input", "video frame rate", err)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return inputInfo{}, services.Wrap(services.ErrValidation, "convert", "probe input",
			fmt.Sprintf("invalid video size %dx%d", stream.Width, stream.Height), nil)
	}

	info := inputInfo{
		stream:         stream,
		rate:           rate,
		expectedFrames: stream.FrameCount(),
		videoStreams:   result.VideoStreamCount(),
		audioStreams:   result.AudioStreamCount(),
	}
	seconds := result.DurationSeconds()
	if seconds > 0 && !math.IsInf(seconds, 0) {
		info.duration = time.Duration(math.Round(seconds * float64(time.Second)))
		// Containers without nb_frames still give a usable estimate from the duration.
		if info.expectedFrames == 0 {
			info.expectedFrames = int64(math.Round(seconds * rate.Float()))
		}
	}
	return info, nil
}

// frameRun holds the per-run state touched by the decode callback.
type frameRun struct {
	pipeline  *Pipeline
	sampler   *sampler.Sampler
	writer    *store.Writer
	converter *render.Converter
	scratch   *store.ScratchGuard
	progress  *logging.ProgressSampler
	buckets   map[uint64]struct{}
	emitted   int64
	failed    int64
}

func (r *frameRun) handle(frame decode.Frame) error {
	decision, err := r.sampler.Observe(sampler.Frame{PTS: frame.PTS, HasPTS: frame.HasPTS, Flushed: frame.Flushed})
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "convert", "bucket frame", fmt.Sprintf("frame %d", frame.Index), err)
	}
	if !decision.Keep {
		return nil
	}

	content, stage, err := r.render(frame)
	if err != nil {
		r.drop(frame, decision.Bucket, stage, err)
		return nil
	}

	entry, err := r.writer.Write(decision.Bucket, content)
	if err != nil {
		if errors.Is(err, store.ErrBucketDir) {
			return err
		}
		r.drop(frame, decision.Bucket, "write", err)
		return nil
	}
	r.buckets[entry.Bucket] = struct{}{}
	r.emitted++
	if r.progress.ShouldLog(r.emitted) && r.pipeline.progress != nil {
		r.pipeline.progress(r.emitted)
	}
	return nil
}

// render produces the text for one frame by way of the scratch image. The
// returned stage names the step that failed.
func (r *frameRun) render(frame decode.Frame) (string, string, error) {
	img, err := frame.Image()
	if err != nil {
		return "", "pixel_buffer", err
	}
	if err := r.writeScratch(img); err != nil {
		return "", "scratch_write", err
	}
	text, err := r.converter.ConvertFile(r.scratch.Path())
	if err != nil {
		return "", "text_convert", err
	}
	return text, "", nil
}

func (r *frameRun) writeScratch(img *image.NRGBA) error {
	fsys := r.scratch.Fs()
	file, err := fsys.OpenFile(r.scratch.Path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (r *frameRun) drop(frame decode.Frame, bucket uint64, stage string, err error) {
	r.failed++
	logging.WarnWithContext(r.pipeline.logger, "frame dropped", "convert_frame_"+stage+"_failed",
		logging.Int64("frame_index", frame.Index),
		logging.Uint64("bucket", bucket),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check disk space and output directory permissions"),
		logging.String(logging.FieldImpact, "frame skipped; playback continues without it"),
	)
}
