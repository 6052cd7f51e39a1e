// Package runloop provides the single execution context every mirror, binding and listener callback runs on.
package runloop

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Loop is a cooperative task queue.
// Tasks queued while a turn runs are executed on the next turn, which is what "next tick" means for bindings.
type Loop struct {
	sync.Mutex
	queue  []func()
	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// Defer queues a task for the next turn. Safe for concurrent use.
func (l *Loop) Defer(fn func()) {
	if fn == nil {
		return
	}

	l.Lock()
	l.queue = append(l.queue, fn)
	l.Unlock()

	select {
	case l.wakeCh <- struct{}{}:
	default:
	}
}

// Post is Defer for callers outside of the loop (transport goroutines).
func (l *Loop) Post(fn func()) {
	l.Defer(fn)
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.Lock()
	defer l.Unlock()

	return len(l.queue)
}

// Turn runs the tasks queued so far and returns how many were executed.
func (l *Loop) Turn() int {
	l.Lock()
	tasks := l.queue
	l.queue = nil
	l.Unlock()

	for _, task := range tasks {
		task()
	}

	return len(tasks)
}

// Drain runs turns until the queue is empty.
// Must not be called concurrently with a started loop.
func (l *Loop) Drain() int {
	total := 0
	for {
		n := l.Turn()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Start starts the Loop worker. A stopped Loop can be started again.
func (l *Loop) Start() {
	l.Lock()
	defer l.Unlock()

	if l.stopCh != nil {
		return
	}

	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	go l.worker(l.stopCh, l.doneCh)
}

// Stop stops the Loop worker and waits for the current turn to finish.
func (l *Loop) Stop() {
	l.Lock()
	if l.stopCh == nil {
		l.Unlock()
		return
	}
	close(l.stopCh)
	l.stopCh = nil
	doneCh := l.doneCh
	l.Unlock()

	<-doneCh
}

// Sync runs fn on the loop and waits for it (from a goroutine other than the loop's).
func (l *Loop) Sync(fn func()) {
	doneCh := make(chan struct{})
	l.Post(func() {
		defer close(doneCh)
		fn()
	})
	<-doneCh
}

// worker does the actual job.
func (l *Loop) worker(stopCh, doneCh chan struct{}) {
	logrus.Debug("Loop: start")
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			logrus.Debug("Loop: stop")
			return
		case <-l.wakeCh:
			l.Drain()
		}
	}
}

// New creates a new Loop object.
func New() *Loop {
	return &Loop{
		wakeCh: make(chan struct{}, 1),
	}
}
