// Package ipc carries lifecycle callbacks to client processes. The
// wire transport is out of process; this package ships the loopback
// implementation used when windowd runs without attached shells: every
// dispatch is accepted, logged, and pause callbacks are acknowledged
// back into the manager as a live client would.
package ipc

import (
	"sync"

	"go.uber.org/zap"

	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/shared/id"
)

// PauseAcker is the slice of the window manager the loopback needs to
// complete pause round trips.
type PauseAcker interface {
	AckPause(token id.UnitToken) error
}

// Loopback implements wm.ProcessClient in-process.
type Loopback struct {
	logger *logging.Logger

	mu        sync.Mutex
	acker     PauseAcker
	calls     map[wm.CallbackKind]int
	delivered int
}

func NewLoopback(logger *logging.Logger) *Loopback {
	return &Loopback{
		logger: logger.Named("ipc"),
		calls:  make(map[wm.CallbackKind]int),
	}
}

// Bind attaches the manager the loopback acks pauses into. The client
// is handed to the manager at construction, so binding happens after.
func (l *Loopback) Bind(acker PauseAcker) {
	l.mu.Lock()
	l.acker = acker
	l.mu.Unlock()
}

// ScheduleLifecycleCallback implements wm.ProcessClient. It is called
// on the executor thread, so the pause ack must re-enter through a
// separate goroutine rather than synchronously.
func (l *Loopback) ScheduleLifecycleCallback(pid int, token id.UnitToken, kind wm.CallbackKind) error {
	l.mu.Lock()
	l.calls[kind]++
	acker := l.acker
	l.mu.Unlock()

	l.logger.Debug("lifecycle callback",
		zap.Int("pid", pid),
		zap.String("token", token.String()),
		zap.String("kind", string(kind)),
	)

	if kind == wm.CallbackPause && acker != nil {
		go func() {
			if err := acker.AckPause(token); err != nil {
				l.logger.Warn("pause ack failed",
					zap.String("token", token.String()),
					zap.Error(err),
				)
			}
		}()
	}
	return nil
}

// DeliverToUnit implements wm.ProcessClient. The loopback has no real
// process to hand results to, so accepting the batch is the whole job.
func (l *Loopback) DeliverToUnit(pid int, token id.UnitToken, deliveries []wm.Delivery) error {
	l.mu.Lock()
	l.delivered += len(deliveries)
	l.mu.Unlock()

	l.logger.Debug("deliveries accepted",
		zap.Int("pid", pid),
		zap.String("token", token.String()),
		zap.Int("count", len(deliveries)),
	)
	return nil
}

// Delivered reports how many deliveries were accepted in total.
func (l *Loopback) Delivered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.delivered
}

// Count reports how many callbacks of one kind were dispatched.
func (l *Loopback) Count(kind wm.CallbackKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[kind]
}
