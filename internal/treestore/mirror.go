package treestore

import (
	"context"
	"sync"
)

// mirrorQueue runs jobs one at a time in the order they were pushed.
// Pushing never blocks.
type mirrorQueue struct {
	mu     sync.Mutex
	jobs   []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newMirrorQueue() *mirrorQueue {
	q := &mirrorQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *mirrorQueue) push(job func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	q.signal()
	return true
}

func (q *mirrorQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *mirrorQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *mirrorQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		job()
	}
}

// flush waits until every job pushed before the call has run.
func (q *mirrorQueue) flush(ctx context.Context) error {
	reached := make(chan struct{})
	if !q.push(func() { close(reached) }) {
		// Closed queues drain before the worker exits.
		select {
		case <-q.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close rejects new jobs and waits for queued ones to finish.
func (q *mirrorQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
	<-q.done
}
