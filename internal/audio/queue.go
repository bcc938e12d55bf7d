package audio

import "github.com/faiface/beep"

// queue plays streamers one after another and emits silence when empty.
// All access happens under the speaker lock.
type queue struct {
	items   []beep.StreamSeekCloser
	onDrain func()
}

func (q *queue) add(s beep.StreamSeekCloser) {
	q.items = append(q.items, s)
}

func (q *queue) clear() {
	for _, item := range q.items {
		_ = item.Close()
	}
	q.items = nil
}

func (q *queue) empty() bool { return len(q.items) == 0 }

func (q *queue) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		if len(q.items) == 0 {
			for i := filled; i < len(samples); i++ {
				samples[i] = [2]float64{}
			}
			break
		}
		head := q.items[0]
		n, ok := head.Stream(samples[filled:])
		filled += n
		if !ok || n == 0 {
			_ = head.Close()
			q.items = q.items[1:]
			if len(q.items) == 0 && q.onDrain != nil {
				q.onDrain()
			}
		}
	}
	return len(samples), true
}

func (q *queue) Err() error { return nil }
