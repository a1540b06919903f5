package netcomm

import (
	"sync"

	"github.com/roach88/rcore/internal/ir"
)

// write is a host write waiting for the next cycle.
type write struct {
	ch    *Channel
	value ir.Value
}

// inbox is a thread-safe FIFO of host writes.
//
// Hosts enqueue from any goroutine; the net drains it once at the start of
// every cycle. The queue is unbounded: a slow net must not block the host.
//
// The signal channel lets a runner that idles between cycles wake on the
// first write.
type inbox struct {
	mu     sync.Mutex
	writes []write
	closed bool
	signal chan struct{} // buffered, size 1
}

func newInbox() *inbox {
	return &inbox{
		writes: make([]write, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// enqueue appends w. Returns false if the inbox is closed.
func (q *inbox) enqueue(w write) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.writes = append(q.writes, w)

	// Non-blocking: the buffer of 1 coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// drain removes and returns every queued write in FIFO order.
func (q *inbox) drain() []write {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.writes) == 0 {
		return nil
	}
	out := q.writes
	// Fresh backing array: the drained slice is handed to the caller
	q.writes = make([]write, 0, cap(out))
	return out
}

func (q *inbox) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.writes)
}

func (q *inbox) wait() <-chan struct{} {
	return q.signal
}

func (q *inbox) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal) // wakes all waiters
}
