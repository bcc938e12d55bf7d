package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/spf13/afero"

	"asciireel/internal/logging"
	"asciireel/internal/services"
	"asciireel/internal/store"
)

// DefaultLoopDelay is the pause between loop passes.
const DefaultLoopDelay = 10 * time.Millisecond

// ErrNothingToPlay reports an empty frame sequence.
var ErrNothingToPlay = fmt.Errorf("%w: nothing to play", services.ErrNotFound)

// Renderer paints one frame.
type Renderer interface {
	Render(content string) error
}

// Audio is the subset of the audio output the scheduler drives.
type Audio interface {
	Load(path string) error
	Stop()
}

// Options controls playback.
type Options struct {
	FPS       float64
	Loop      bool
	Sync      bool
	AudioPath string
	LoopDelay time.Duration
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithFs sets the filesystem frames are read from.
func WithFs(fsys afero.Fs) Option {
	return func(s *Scheduler) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAudio attaches an audio output. Without one, AudioPath is ignored.
func WithAudio(audio Audio) Option {
	return func(s *Scheduler) {
		s.audio = audio
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(from, to State)) Option {
	return func(s *Scheduler) {
		s.observer = fn
	}
}

// Scheduler owns playback state. It is not safe for concurrent use.
type Scheduler struct {
	renderer Renderer
	opts     Options
	fs       afero.Fs
	clock    Clock
	audio    Audio
	logger   *slog.Logger
	observer func(from, to State)

	frames    []string
	index     int
	passes    int
	audioLive bool
	audioDead bool
	state     State
}

// New validates opts and returns an idle Scheduler.
func New(renderer Renderer, opts Options, options ...Option) (*Scheduler, error) {
	if renderer == nil {
		return nil, errors.New("player: renderer required")
	}
	if opts.FPS <= 0 || math.IsNaN(opts.FPS) || math.IsInf(opts.FPS, 0) {
		return nil, services.Wrap(services.ErrValidation, "player", "configure", fmt.Sprintf("fps must be positive, got %v", opts.FPS), nil)
	}
	if opts.Sync && !opts.Loop {
		return nil, services.Wrap(services.ErrValidation, "player", "configure", "sync requires loop", nil)
	}
	if opts.LoopDelay < 0 {
		opts.LoopDelay = 0
	}
	s := &Scheduler{
		renderer: renderer,
		opts:     opts,
		fs:       afero.NewOsFs(),
		clock:    systemClock{},
		logger:   logging.NewNop(),
		state:    StateIdle,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// State reports the current lifecycle state.
func (s *Scheduler) State() State { return s.state }

// Len reports the number of loaded frames.
func (s *Scheduler) Len() int { return len(s.frames) }

// Passes reports how many full passes over the sequence have completed.
func (s *Scheduler) Passes() int { return s.passes }

// FrameDuration is the time slot allotted to each frame.
func (s *Scheduler) FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / s.opts.FPS)
}

// Load reads every frame of seq into memory. On failure nothing is retained.
func (s *Scheduler) Load(ctx context.Context, seq store.Sequence) error {
	s.transition(StateLoading)
	s.frames = nil
	if len(seq) == 0 {
		return ErrNothingToPlay
	}
	frames := make([]string, 0, len(seq))
	for _, entry := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := afero.ReadFile(s.fs, entry.Path)
		if err != nil {
			return services.Wrap(services.ErrIO, "player", "load frame", entry.Path, err)
		}
		frames = append(frames, string(data))
	}
	s.frames = frames
	s.logger.Debug("frames loaded",
		logging.Int("frames", len(frames)),
		logging.Int("buckets", seq.Buckets()),
	)
	return nil
}

// Play renders the loaded frames until the sequence ends, the loop fails,
// or ctx is cancelled. Cancellation returns ctx.Err() after stopping audio.
func (s *Scheduler) Play(ctx context.Context) error {
	if len(s.frames) == 0 {
		return ErrNothingToPlay
	}
	s.startAudio()

	for {
		s.transition(StatePlaying)
		err := s.pass(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.interrupt(ctxErr)
		}
		if err != nil {
			if !s.opts.Loop {
				s.stopAudio()
				s.transition(StateTerminated)
				return err
			}
			logging.WarnWithContext(s.logger, "playback pass failed; leaving loop", "playback_pass_failed",
				logging.Int("pass", s.passes+1),
				logging.Int("frame_index", s.index),
				logging.Error(err),
				logging.String(logging.FieldImpact, "looping stopped early"),
			)
			break
		}
		s.passes++
		if !s.opts.Loop {
			break
		}

		s.transition(StateLooping)
		if s.opts.Sync {
			s.restartAudio()
		}
		if err := s.clock.Sleep(ctx, s.opts.LoopDelay); err != nil {
			return s.interrupt(err)
		}
	}

	s.stopAudio()
	s.transition(StateFinished)
	s.transition(StateTerminated)
	return nil
}

func (s *Scheduler) pass(ctx context.Context) error {
	slot := s.FrameDuration()
	for i, content := range s.frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.index = i
		start := s.clock.Now()
		if err := s.renderer.Render(content); err != nil {
			return fmt.Errorf("render frame %d: %w", i, err)
		}
		if remaining := slot - s.clock.Now().Sub(start); remaining > 0 {
			if err := s.clock.Sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) interrupt(err error) error {
	s.transition(StateInterrupted)
	s.stopAudio()
	s.transition(StateTerminated)
	return err
}

func (s *Scheduler) startAudio() {
	if s.audio == nil || s.opts.AudioPath == "" {
		return
	}
	if err := s.audio.Load(s.opts.AudioPath); err != nil {
		logging.WarnWithContext(s.logger, "audio unavailable; playing without sound", "audio_load_failed",
			logging.String("audio_path", s.opts.AudioPath),
			logging.Error(err),
			logging.ErrorKind(err),
			logging.String(logging.FieldErrorHint, "check the audio file format and output device"),
			logging.String(logging.FieldImpact, "playback continues silently"),
		)
		s.audioDead = true
		return
	}
	s.audioLive = true
}

// restartAudio is a no-op once the initial load has failed.
func (s *Scheduler) restartAudio() {
	if s.audio == nil || s.opts.AudioPath == "" || s.audioDead {
		return
	}
	s.audio.Stop()
	s.audioLive = false
	if err := s.audio.Load(s.opts.AudioPath); err != nil {
		logging.WarnWithContext(s.logger, "audio reload failed", "audio_reload_failed",
			logging.String("audio_path", s.opts.AudioPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this loop pass plays silently"),
		)
		return
	}
	s.audioLive = true
}

func (s *Scheduler) stopAudio() {
	if s.audio == nil || !s.audioLive {
		return
	}
	s.audio.Stop()
	s.audioLive = false
}

func (s *Scheduler) transition(to State) {
	from := s.state
	s.state = to
	if s.observer != nil && from != to {
		s.observer(from, to)
	}
}
