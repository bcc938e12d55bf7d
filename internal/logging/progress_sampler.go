package logging

// ProgressSampler decides when a running counter is worth reporting. It emits
// each time the count crosses a multiple of the interval.
type ProgressSampler struct {
	interval int64
	last     int64
}

// NewProgressSampler constructs a sampler that emits every interval counts
// (default 10).
func NewProgressSampler(interval int64) *ProgressSampler {
	if interval <= 0 {
		interval = 10
	}
	return &ProgressSampler{interval: interval}
}

// ShouldLog reports whether count reached the next reporting boundary.
// Counts that do not advance never emit.
func (s *ProgressSampler) ShouldLog(count int64) bool {
	if s == nil {
		return true
	}
	if count <= s.last {
		return false
	}
	crossed := count/s.interval > s.last/s.interval
	s.last = count
	return crossed
}
