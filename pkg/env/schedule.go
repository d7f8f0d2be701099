package env

import "nvmenv/internal/taskqueue"

// Schedule queues fn on the background worker and returns immediately.
// Tasks run one at a time in the order they were scheduled.
func (e *Env) Schedule(fn func()) {
	e.queue.Schedule(taskqueue.Task(fn))
}

// StartThread runs fn on its own goroutine.
func (e *Env) StartThread(fn func()) {
	taskqueue.Go(fn)
}
