package exec

import (
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/infrastructure/monitoring"
)

// ErrStopped is returned when work is submitted after Stop.
var ErrStopped = errors.New("executor is stopped")

type task struct {
	op       string
	fn       func()
	enqueued time.Time
	done     chan struct{}
}

// Loop is a single-threaded executor that owns the container tree. All
// tree mutation, visibility resolution, and lifecycle transitions run
// on it, so callers observe a consistent, non-interleaved snapshot.
// Timer firings re-enter through the same queue and are therefore
// serialized with everything else.
type Loop struct {
	tasks   chan task
	logger  *logging.Logger
	metrics *monitoring.Metrics

	stopOnce sync.Once
	stopped  chan struct{}
	drained  chan struct{}
}

// NewLoop creates the executor. Metrics may be nil.
func NewLoop(logger *logging.Logger, metrics *monitoring.Metrics) *Loop {
	return &Loop{
		tasks:   make(chan task, 256),
		logger:  logger.Named("exec"),
		metrics: metrics,
		stopped: make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// Start begins draining the queue. Call once.
func (l *Loop) Start() {
	go l.run()
}

// Stop shuts the loop down after the tasks already queued have run.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
	<-l.drained
}

// Post submits fn for asynchronous execution. It is the re-entry point
// for timer firings and completion callbacks; it never blocks on fn.
func (l *Loop) Post(op string, fn func()) error {
	return l.submit(op, fn, nil)
}

// Call submits fn and waits for it to finish. Must not be called from
// code already running on the loop; use Post there instead.
func (l *Loop) Call(op string, fn func()) error {
	done := make(chan struct{})
	if err := l.submit(op, fn, done); err != nil {
		return err
	}
	<-done
	return nil
}

// Schedule arranges for fn to run on the loop after d. The returned
// Timer cancels delivery; a firing that loses the race with Cancel is
// dropped before it reaches the queue.
func (l *Loop) Schedule(op string, d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		cancelled := t.cancelled
		t.mu.Unlock()
		if cancelled {
			return
		}
		// Post can only fail during shutdown, where dropping is fine.
		_ = l.Post(op, fn)
	})
	return t
}

func (l *Loop) submit(op string, fn func(), done chan struct{}) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}

	select {
	case l.tasks <- task{op: op, fn: fn, enqueued: time.Now(), done: done}:
		return nil
	case <-l.stopped:
		return ErrStopped
	}
}

func (l *Loop) run() {
	defer close(l.drained)
	for {
		select {
		case t := <-l.tasks:
			l.exec(t)
		case <-l.stopped:
			// Drain what was accepted before the stop.
			for {
				select {
				case t := <-l.tasks:
					l.exec(t)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) exec(t task) {
	if l.metrics != nil {
		l.metrics.RecordLoopWait(t.op, time.Since(t.enqueued))
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in executor task",
				zap.String("op", t.op),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
		if t.done != nil {
			close(t.done)
		}
	}()
	t.fn()
}

// Timer is a cancellable handle for a scheduled loop re-entry.
type Timer struct {
	mu        sync.Mutex
	cancelled bool
	timer     *time.Timer
}

// Cancel prevents the callback from being posted. Safe to call more
// than once and after the timer has fired.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.timer.Stop()
}
