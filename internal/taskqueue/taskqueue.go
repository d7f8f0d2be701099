package taskqueue

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is deferred engine work, run at most once on the worker.
type Task func()

// Queue runs scheduled tasks one at a time, in submission order, on a single
// worker goroutine pinned to its own OS thread. The worker starts on the
// first Schedule and runs for the life of the process.
type Queue struct {
	mu      sync.Mutex
	signal  *sync.Cond
	started bool
	tasks   []Task
}

func New() *Queue {
	q := &Queue{}
	q.signal = sync.NewCond(&q.mu)
	return q
}

// Schedule appends task to the queue and returns without waiting for it.
// It is safe to call from inside a running task.
func (q *Queue) Schedule(task Task) {
	if task == nil {
		return
	}

	q.mu.Lock()
	if !q.started {
		q.started = true
		go q.work()
	}

	// The worker may be waiting only when the queue is empty.
	if len(q.tasks) == 0 {
		q.signal.Signal()
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Len reports the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) work() {
	runtime.LockOSThread()

	for {
		q.mu.Lock()
		for len(q.tasks) == 0 {
			q.signal.Wait()
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		run(task)
	}
}

// run invokes task with no lock held. A panicking task is fatal: it is
// logged and re-raised, which takes the process down.
func run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("background task failed")
			panic(r)
		}
	}()
	task()
}

// Go runs fn on a new goroutine with no way to join or cancel it.
func Go(fn func()) {
	go run(fn)
}
