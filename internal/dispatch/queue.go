package dispatch

import "sync"

// Queue marshals closures from worker goroutines onto whichever
// goroutine drains it.
type Queue struct {
	mu  sync.Mutex
	fns []func()
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Post appends fn to the queue. Safe to call from any goroutine.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

// Drain runs every queued closure on the calling goroutine in posting
// order and returns how many ran. Closures posted while draining run in
// the same pass.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.fns) == 0 {
			q.mu.Unlock()
			return n
		}
		fn := q.fns[0]
		q.fns = q.fns[1:]
		q.mu.Unlock()

		fn()
		n++
	}
}

// Len returns the number of queued closures.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}
