package sampler

import (
	"errors"
	"math"
)

// ErrInvalidTimeBase reports a time base that cannot convert ticks to seconds.
var ErrInvalidTimeBase = errors.New("invalid time base")

// TimeBase is the rational number of seconds per PTS tick.
type TimeBase struct {
	Num int64
	Den int64
}

// Validate reports whether tb can convert ticks to seconds.
func (tb TimeBase) Validate() error {
	if tb.Den == 0 {
		return ErrInvalidTimeBase
	}
	if tb.Num < 0 || tb.Den < 0 {
		return ErrInvalidTimeBase
	}
	return nil
}

// Decide reports whether a frame at current should be kept given the last
// kept timestamp. Negative timestamps are never kept.
func Decide(current, last int64, hasLast bool, threshold int64) bool {
	if current < 0 {
		return false
	}
	if !hasLast {
		return true
	}
	return current-last >= threshold
}

// Threshold returns the minimum tick distance between kept frames,
// round(source/target) clamped to at least 1. A target at or above the
// source rate keeps every frame.
func Threshold(sourceFPS, targetFPS float64) int64 {
	if targetFPS <= 0 || math.IsNaN(targetFPS) || math.IsNaN(sourceFPS) || math.IsInf(sourceFPS, 0) {
		return 1
	}
	ratio := math.Round(sourceFPS / targetFPS)
	if ratio < 1 || math.IsInf(ratio, 0) {
		return 1
	}
	if ratio > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(ratio)
}

// Bucket converts pts to whole seconds, floor(pts*num/den).
func Bucket(pts int64, tb TimeBase) (uint64, error) {
	if err := tb.Validate(); err != nil {
		return 0, err
	}
	if pts < 0 {
		return 0, nil
	}
	if tb.Num == 0 {
		return 0, nil
	}
	// Exact integer math while the product fits in int64.
	if pts <= math.MaxInt64/tb.Num {
		return uint64(pts * tb.Num / tb.Den), nil
	}
	return uint64(math.Floor(float64(pts) * float64(tb.Num) / float64(tb.Den))), nil
}

// Frame is the subset of a decoded frame the sampler looks at.
type Frame struct {
	PTS     int64
	HasPTS  bool
	Flushed bool
}

// Decision is the outcome of observing one frame.
type Decision struct {
	Keep bool
	// Bucket is valid only when Keep is set.
	Bucket uint64
	// NewBucket is set when Bucket differs from the previous kept frame's
	// bucket, including the first kept frame.
	NewBucket bool
}

// State is the running state of one conversion.
type State struct {
	LastPTS    int64
	HasLast    bool
	Bucket     uint64
	HasBucket  bool
	InBucket   int
	Scanned    int64
	Kept       int64
	Unsampled  int64
	UnknownPTS int64
}

// Sampler applies the keep rule and bucket assignment to a stream of frames.
type Sampler struct {
	threshold int64
	timeBase  TimeBase
	state     State
}

// New returns a Sampler for a stream with the given time base. threshold
// values below 1 are raised to 1.
func New(threshold int64, tb TimeBase) (*Sampler, error) {
	if err := tb.Validate(); err != nil {
		return nil, err
	}
	if threshold < 1 {
		threshold = 1
	}
	return &Sampler{threshold: threshold, timeBase: tb}, nil
}

// Threshold returns the tick distance in use.
func (s *Sampler) Threshold() int64 { return s.threshold }

// Observe counts frame as scanned and decides whether to keep it. Flushed
// frames and frames without a timestamp are scanned but never kept.
func (s *Sampler) Observe(frame Frame) (Decision, error) {
	s.state.Scanned++
	if frame.Flushed {
		s.state.Unsampled++
		return Decision{}, nil
	}
	if !frame.HasPTS {
		s.state.UnknownPTS++
		return Decision{}, nil
	}
	if !Decide(frame.PTS, s.state.LastPTS, s.state.HasLast, s.threshold) {
		return Decision{}, nil
	}
	bucket, err := Bucket(frame.PTS, s.timeBase)
	if err != nil {
		return Decision{}, err
	}
	s.state.LastPTS = frame.PTS
	s.state.HasLast = true
	s.state.Kept++

	decision := Decision{Keep: true, Bucket: bucket}
	if !s.state.HasBucket || s.state.Bucket != bucket {
		s.state.Bucket = bucket
		s.state.HasBucket = true
		s.state.InBucket = 0
		decision.NewBucket = true
	}
	s.state.InBucket++
	return decision, nil
}

// State returns a copy of the running state.
func (s *Sampler) State() State { return s.state }
