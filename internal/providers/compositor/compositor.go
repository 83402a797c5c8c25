// Package compositor provides the compositing-layer adapter. The real
// render pipeline lives out of process; this adapter records transition
// hints and per-surface visibility so clients polling the server (or
// streaming events) can drive their own animations.
package compositor

import (
	"sync"

	"go.uber.org/zap"

	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/shared/id"
)

// Tracker implements wm.Compositor. It keeps the latest visibility per
// surface token and the last prepared transition, both queryable.
type Tracker struct {
	logger *logging.Logger

	mu         sync.RWMutex
	transition wm.TransitionKind
	visible    map[id.UnitToken]bool
}

func New(logger *logging.Logger) *Tracker {
	return &Tracker{
		logger:  logger.Named("compositor"),
		visible: make(map[id.UnitToken]bool),
	}
}

func (t *Tracker) PrepareTransition(kind wm.TransitionKind) {
	t.mu.Lock()
	t.transition = kind
	t.mu.Unlock()
	t.logger.Debug("transition prepared", zap.String("kind", string(kind)))
}

func (t *Tracker) SetVisibility(token id.UnitToken, visible bool) {
	t.mu.Lock()
	if visible {
		t.visible[token] = true
	} else {
		delete(t.visible, token)
	}
	t.mu.Unlock()
	t.logger.Debug("surface visibility",
		zap.String("token", string(token)),
		zap.Bool("visible", visible),
	)
}

// Visible reports whether the surface for token is currently shown.
func (t *Tracker) Visible(token id.UnitToken) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.visible[token]
}

// VisibleCount returns the number of currently shown surfaces.
func (t *Tracker) VisibleCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.visible)
}

// LastTransition returns the most recently prepared transition kind.
func (t *Tracker) LastTransition() wm.TransitionKind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.transition
}
