package realtime

import (
	"sync"
	"time"

	"github.com/marketdeck/realtime/pkg/connection"
)

// pendingFrame is one outbound frame buffered while disconnected.
type pendingFrame struct {
	frame      *connection.Frame
	enqueuedAt time.Time
}

// outboundQueue buffers frames sent while no connection exists and hands
// them back in strict FIFO order once a connection is established.
//
// The queue is bounded; when full, the oldest entry is evicted so a long
// outage cannot grow memory without limit.
type outboundQueue struct {
	mu      sync.Mutex
	limit   int
	pending []pendingFrame
}

func newOutboundQueue(limit int) *outboundQueue {
	return &outboundQueue{limit: limit}
}

// push appends the frame and reports whether an older entry was evicted to
// make room.
func (q *outboundQueue) push(f *connection.Frame) (evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit > 0 && len(q.pending) >= q.limit {
		q.pending = q.pending[1:]
		evicted = true
	}
	q.pending = append(q.pending, pendingFrame{frame: f, enqueuedAt: time.Now()})
	return evicted
}

// drain removes and returns all buffered frames in insertion order.
func (q *outboundQueue) drain() []pendingFrame {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.pending
	q.pending = nil
	return pending
}

// clear discards all buffered frames and returns how many were dropped.
func (q *outboundQueue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	q.pending = nil
	return n
}

func (q *outboundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
