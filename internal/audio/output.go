package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"asciireel/internal/services"
)

var (
	// ErrUnsupportedFormat reports a file extension no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrUnavailable reports that the audio device could not be opened.
	ErrUnavailable = errors.New("audio device unavailable")
)

const (
	defaultBuffer      = 100 * time.Millisecond
	resampleQuality    = 4
	fallbackSampleRate = beep.SampleRate(44100)
)

// Sink is the device side of an Output. The default sink is beep's speaker
// package.
type Sink interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

type speakerSink struct{}

func (speakerSink) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}

func (speakerSink) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerSink) Lock()                { speaker.Lock() }
func (speakerSink) Unlock()              { speaker.Unlock() }
func (speakerSink) Close()               { speaker.Close() }

// Option configures an Output.
type Option func(*Output)

// WithSink replaces the speaker (primarily for tests).
func WithSink(sink Sink) Option {
	return func(o *Output) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithBuffer sets the speaker buffer duration.
func WithBuffer(d time.Duration) Option {
	return func(o *Output) {
		if d > 0 {
			o.buffer = d
		}
	}
}

// Output is a single-owner handle on the speaker.
type Output struct {
	mu      sync.Mutex
	sink    Sink
	buffer  time.Duration
	rate    beep.SampleRate
	started bool
	closed  bool
	queue   *queue
	drained chan struct{}
}

// NewOutput returns an Output. The device is not opened until the first Load.
func NewOutput(opts ...Option) *Output {
	o := &Output{sink: speakerSink{}, buffer: defaultBuffer}
	for _, opt := range opts {
		opt(o)
	}
	o.queue = &queue{onDrain: o.signalDrained}
	o.drained = closedChan()
	return o
}

// Load decodes path and appends it to the playback queue. Playback starts
// immediately when the queue was empty.
func (o *Output) Load(path string) error {
	stream, format, err := decodeFile(path)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		_ = stream.Close()
		return fmt.Errorf("%w: output closed", ErrUnavailable)
	}
	if !o.started {
		rate := format.SampleRate
		if rate <= 0 {
			rate = fallbackSampleRate
		}
		if err := o.sink.Init(rate, rate.N(o.buffer)); err != nil {
			_ = stream.Close()
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		o.rate = rate
		o.started = true
		o.sink.Play(o.queue)
	}

	var item beep.StreamSeekCloser = stream
	if format.SampleRate != o.rate {
		item = &resampled{Resampler: beep.Resample(resampleQuality, format.SampleRate, o.rate, stream), source: stream}
	}

	o.sink.Lock()
	if o.queue.empty() {
		o.drained = make(chan struct{})
	}
	o.queue.add(item)
	o.sink.Unlock()
	return nil
}

// Stop discards everything queued. It is safe to call before any Load.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return
	}
	o.sink.Lock()
	wasPlaying := !o.queue.empty()
	o.queue.clear()
	o.sink.Unlock()
	if wasPlaying {
		o.signalDrained()
	}
}

// Drained returns a channel closed once the queued audio has played out or
// been stopped.
func (o *Output) Drained() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.drained
}

// Close stops playback and releases the device.
func (o *Output) Close() error {
	o.Stop()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	if o.started {
		o.sink.Close()
	}
	return nil
}

// signalDrained runs on the speaker goroutine (under the speaker lock) or
// from Stop; it must not take o.mu from the speaker goroutine.
func (o *Output) signalDrained() {
	select {
	case <-o.drained:
	default:
		close(o.drained)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type resampled struct {
	*beep.Resampler
	source beep.StreamSeekCloser
}

func (r *resampled) Len() int         { return r.source.Len() }
func (r *resampled) Position() int    { return r.source.Position() }
func (r *resampled) Seek(p int) error { return r.source.Seek(p) }
func (r *resampled) Close() error     { return r.source.Close() }
func (r *resampled) Err() error       { return r.Resampler.Err() }

func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".flac", ".ogg", ".oga":
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	file, err := os.Open(path)
	if err != nil {
		marker := services.ErrIO
		if errors.Is(err, fs.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return nil, beep.Format{}, services.Wrap(marker, "audio", "open", path, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".mp3":
		stream, format, err = mp3.Decode(file)
	case ".wav":
		stream, format, err = wav.Decode(file)
	case ".flac":
		stream, format, err = flac.Decode(file)
	default:
		stream, format, err = vorbis.Decode(file)
	}
	if err != nil {
		_ = file.Close()
		return nil, beep.Format{}, services.Wrap(services.ErrValidation, "audio", "decode", path, err)
	}
	return stream, format, nil
}
