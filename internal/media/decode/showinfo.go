package decode

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"sync"
	"time"
)

var showinfoPattern = regexp.MustCompile(`\bn:\s*(\d+)\s+pts:\s*(-?\d+|NOPTS)`)

type stamp struct {
	pts    int64
	hasPTS bool
}

// parseShowinfo extracts the timestamp from a showinfo log line.
func parseShowinfo(line string) (stamp, bool) {
	match := showinfoPattern.FindStringSubmatch(line)
	if match == nil {
		return stamp{}, false
	}
	if match[2] == "NOPTS" {
		return stamp{}, true
	}
	pts, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return stamp{}, true
	}
	return stamp{pts: pts, hasPTS: true}, true
}

// stampQueue hands timestamps from the stderr reader to the frame reader.
// It is unbounded so stderr is always drained and ffmpeg never blocks on it.
type stampQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []stamp
	closed bool
	tail   []string
}

func newStampQueue() *stampQueue {
	q := &stampQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// consume reads ffmpeg's stderr until EOF. Lines that are not showinfo
// output are kept as a short tail for error messages.
func (q *stampQueue) consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if s, ok := parseShowinfo(line); ok {
			q.push(s)
			continue
		}
		q.remember(line)
	}
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, r)
	}
	q.close()
}

func (q *stampQueue) push(s stamp) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *stampQueue) remember(line string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	const keep = 8
	q.tail = append(q.tail, line)
	if len(q.tail) > keep {
		q.tail = q.tail[len(q.tail)-keep:]
	}
}

func (q *stampQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// pop waits up to timeout for the next timestamp. ok is false when the wait
// timed out. After stderr closes, missing timestamps are reported as unknown.
func (q *stampQueue) pop(timeout time.Duration) (s stamp, ok bool) {
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		if !time.Now().Before(deadline) {
			return stamp{}, false
		}
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return stamp{}, true
	}
	s = q.items[0]
	q.items = q.items[1:]
	return s, true
}

func (q *stampQueue) stderrTail() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.tail...)
}
