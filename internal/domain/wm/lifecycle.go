package wm

import (
	"go.uber.org/zap"
)

// StartPausing moves this task group's resumed unit into PAUSING.
//
// Returns true when an ack from the client is now pending; false when
// the pause finished synchronously or there was nothing to pause. A
// call with nothing resumed and no resuming unit is a recoverable
// caller race, surfaced as a diagnostic rather than an error.
func (t *TaskGroup) StartPausing(userLeaving, uiSleeping bool, resuming *ScreenUnit) bool {
	m := t.wm

	if t.pausingUnit != nil {
		// A previous pause never completed; resolve it locally before
		// starting another so the single-pausing invariant holds.
		m.logger.Diag("pause requested while another pause is in flight",
			zap.Int("task", t.ID),
			zap.String("pausing", string(t.pausingUnit.Token)),
		)
		t.completePause(false)
	}

	prev := t.resumedUnit
	if prev == nil {
		if resuming == nil {
			m.logger.Diag("pause requested with nothing resumed",
				zap.Int("task", t.ID),
			)
		}
		return false
	}

	prev.state = StatePausing
	t.resumedUnit = nil
	t.pausingUnit = prev
	t.lastPausedUnit = prev
	if userLeaving {
		prev.visibleRequested = false
	}
	m.recordTransition(StatePausing)

	if !prev.Attached() {
		// No process to ask: resolve locally and immediately.
		t.completePause(false)
		return false
	}

	if err := prev.process.dispatch(m.client, prev.Token, CallbackPause); err != nil {
		m.logger.Diag("pause dispatch failed, completing locally",
			zap.Int("task", t.ID),
			zap.String("unit", string(prev.Token)),
			zap.Error(err),
		)
		t.completePause(false)
		return false
	}

	// The client gets a bounded window to ack; after that the pause
	// completes regardless of the response.
	prev.pauseTimer = m.loop.Schedule("pause-timeout", m.pauseAckTimeout, func() {
		m.pauseTimedOut(t, prev)
	})
	return true
}

// pauseTimedOut fires on the loop after the ack window closes. Stale
// firings (the unit moved on, or the ack won the race) no-op.
func (m *Manager) pauseTimedOut(t *TaskGroup, u *ScreenUnit) {
	if u.state != StatePausing || t.pausingUnit != u {
		return
	}
	m.logger.Diag("pause ack timed out, proceeding",
		zap.Int("task", t.ID),
		zap.String("unit", string(u.Token)),
	)
	if m.metrics != nil {
		m.metrics.PauseAckTimeouts.Inc()
	}
	t.completePause(true)
	m.endBatch()
}

// completePause transitions PAUSING to PAUSED and runs the follow-on
// work: finish completion, a deferred relaunch, or queueing the unit
// for stop when it is no longer wanted on screen. With resumeNext set
// it also kicks the focused stack's resume evaluation.
func (t *TaskGroup) completePause(resumeNext bool) {
	m := t.wm

	u := t.pausingUnit
	if u == nil {
		m.logger.Diag("pause completion with no pausing unit", zap.Int("task", t.ID))
	} else {
		u.cancelPauseTimer()
		u.state = StatePaused
		t.pausingUnit = nil
		m.recordTransition(StatePaused)

		switch {
		case u.finishing:
			m.finishCompleted(u)
		case u.deferRelaunch:
			u.deferRelaunch = false
			m.relaunch(u)
		case !u.visibleRequested || t.shouldSleep():
			m.scheduleStop(u)
		}
	}

	if resumeNext {
		if d := t.c.Display(); d != nil {
			next := d.focusedTask
			if next == nil || !next.isFocusable() {
				next = d.nextFocusableTask(nil)
			}
			if next != nil {
				m.resumeTop(next)
			}
		}
	}
}

// shouldSleep reports whether this task group's units should settle to
// stopped because the owning display is asleep.
func (t *TaskGroup) shouldSleep() bool {
	d := t.c.Display()
	return d != nil && d.sleeping
}

// resumeTop drives the top unit of t to RESUMED. Returns true when
// work was started (including "pausing elsewhere, retry when it
// completes"), false when there was nothing to do. Re-entrancy is
// guarded: a nested call is dropped.
func (m *Manager) resumeTop(t *TaskGroup) bool {
	if m.inResumeTop {
		return false
	}
	m.inResumeTop = true
	defer func() { m.inResumeTop = false }()
	return m.resumeTopInner(t)
}

func (m *Manager) resumeTopInner(t *TaskGroup) bool {
	if !t.c.Attached() {
		return false
	}
	d := t.c.Display()

	if d.sleeping {
		// Displays going to sleep pause instead of resuming.
		if t.resumedUnit != nil {
			t.StartPausing(false, true, nil)
			return true
		}
		return false
	}

	top := t.TopRunningUnit()
	if top == nil {
		return m.resumeNextFocusable(d, t)
	}
	if top.state == StateRestartingProcess && !top.Attached() {
		// Waiting for a replacement process to attach.
		return false
	}

	if top.state == StateResumed && d.focusedTask == t && !m.anyPausing(d) {
		// Already resumed everywhere that matters; just flush pending
		// visual transitions.
		m.compositor.PrepareTransition(TransitionNone)
		return false
	}

	// Focus moves to t now so the pause completion path re-enters
	// resume evaluation against the right stack.
	d.focusedTask = t

	// A different unit resumed within this very stack yields first.
	if t.resumedUnit != nil && t.resumedUnit != top {
		if t.StartPausing(false, false, top) {
			return true
		}
	}

	// Anything else resumed in this focus domain must yield first.
	if m.pauseBackStacks(d, t, top) {
		// Pause acks are outstanding; the completion path re-enters
		// resume evaluation.
		return true
	}

	if top.state == StateResumed {
		d.focusedTask = t
		return false
	}

	top.visibleRequested = true
	top.state = StateStarted
	m.recordTransition(StateStarted)
	top.state = StateResumed
	m.recordTransition(StateResumed)
	top.windowConfig = t.c.resolved
	t.resumedUnit = top
	d.focusedTask = t
	t.everVisible = true
	t.markDirty()

	if top.Attached() {
		m.deliverPending(top)
		if err := top.process.dispatch(m.client, top.Token, CallbackResume); err != nil {
			// A failed resume round trip must not leave the unit in an
			// inconsistent state: relaunch instead.
			m.logger.Warn("resume dispatch failed, relaunching",
				zap.String("unit", string(top.Token)),
				zap.Error(err),
			)
			m.relaunch(top)
			return true
		}
	}

	m.compositor.PrepareTransition(TransitionToFront)
	m.compositor.SetVisibility(top.Token, true)
	return true
}

// deliverPending hands a unit's queued results and new-intents to its
// process. Undeliverable entries stay queued for the next resume.
func (m *Manager) deliverPending(u *ScreenUnit) {
	deliveries := u.takeDeliveries()
	if len(deliveries) == 0 {
		return
	}
	m.logger.Debug("delivering pending results",
		zap.String("unit", string(u.Token)),
		zap.Int("count", len(deliveries)),
	)
	if err := u.process.deliver(m.client, u.Token, deliveries); err != nil {
		m.logger.Diag("delivery dispatch failed, requeueing",
			zap.String("unit", string(u.Token)),
			zap.Error(err),
		)
		u.pending = append(deliveries, u.pending...)
	}
}

// resumeNextFocusable escalates an empty stack's resume to the next
// focusable stack in the domain, falling back to the home stack when
// no other focusable stack exists.
func (m *Manager) resumeNextFocusable(d *Display, t *TaskGroup) bool {
	next := d.nextFocusableTask(t)
	if next != nil {
		return m.resumeTopInner(next)
	}
	if home := d.homeTask(); home != nil && home != t {
		return m.resumeTopInner(home)
	}
	return false
}

// pauseBackStacks pauses every other stack in the domain that still
// holds a resumed unit. Returns true when at least one pause is now
// awaiting its ack.
func (m *Manager) pauseBackStacks(d *Display, resumingTask *TaskGroup, resuming *ScreenUnit) bool {
	pausing := false
	d.forAllLeafTasks(func(tg *TaskGroup) bool {
		if tg != resumingTask && tg.resumedUnit != nil && tg.resumedUnit != resuming {
			if tg.StartPausing(false, false, resuming) {
				pausing = true
			}
		}
		return true
	})
	return pausing
}

// anyPausing reports whether any stack in the domain is still waiting
// on a pause ack.
func (m *Manager) anyPausing(d *Display) bool {
	found := false
	d.forAllLeafTasks(func(tg *TaskGroup) bool {
		if tg.pausingUnit != nil {
			found = true
			return false
		}
		return true
	})
	return found
}

// scheduleStop queues a paused, no-longer-visible unit for STOPPING
// after the configured delay. The firing re-checks state so a unit
// that became visible again in the meantime is left alone.
func (m *Manager) scheduleStop(u *ScreenUnit) {
	token := u.Token
	m.loop.Schedule("stop-delay", m.stopDelay, func() {
		unit, ok := m.units[token]
		if !ok || unit.state != StatePaused || unit.visibleRequested {
			return
		}
		m.stopUnit(unit)
		m.endBatch()
	})
}

// stopUnit drives PAUSED through STOPPING to STOPPED, with the stop
// round trip resolved locally when the process is unreachable.
func (m *Manager) stopUnit(u *ScreenUnit) {
	u.state = StateStopping
	m.recordTransition(StateStopping)
	if u.Attached() {
		if err := u.process.dispatch(m.client, u.Token, CallbackStop); err != nil {
			m.logger.Diag("stop dispatch failed, stopping locally",
				zap.String("unit", string(u.Token)),
				zap.Error(err),
			)
		}
	}
	u.state = StateStopped
	m.recordTransition(StateStopped)
	m.compositor.SetVisibility(u.Token, false)
}

// relaunch puts a unit on the restart path. While the unit is still
// pausing the relaunch is deferred until the pause completes.
func (m *Manager) relaunch(u *ScreenUnit) {
	if u.state == StatePausing {
		u.deferRelaunch = true
		return
	}
	if m.metrics != nil {
		m.metrics.Relaunches.Inc()
	}
	if t := u.TaskGroup(); t != nil && t.resumedUnit == u {
		t.resumedUnit = nil
	}
	u.state = StateRestartingProcess
	m.recordTransition(StateRestartingProcess)
}

// finishCompleted tears a finishing unit down once its pause (if any)
// has completed, removing it from the tree and garbage collecting an
// emptied task group.
func (m *Manager) finishCompleted(u *ScreenUnit) {
	t := u.TaskGroup()

	u.state = StateFinishing
	m.recordTransition(StateFinishing)
	u.state = StateDestroying
	m.recordTransition(StateDestroying)
	if u.Attached() {
		if err := u.process.dispatch(m.client, u.Token, CallbackDestroy); err != nil {
			m.logger.Diag("destroy dispatch failed, destroying locally",
				zap.String("unit", string(u.Token)),
				zap.Error(err),
			)
		}
	}
	u.state = StateDestroyed
	m.recordTransition(StateDestroyed)
	m.compositor.SetVisibility(u.Token, false)

	if u.process != nil {
		u.process.removeUnit(u)
	}
	if t != nil {
		if t.resumedUnit == u {
			t.resumedUnit = nil
		}
		if t.pausingUnit == u {
			t.pausingUnit = nil
		}
		if t.lastPausedUnit == u {
			t.lastPausedUnit = nil
		}
	}
	if u.c.parent != nil {
		_ = u.c.parent.RemoveChild(u.c)
	}
	delete(m.units, u.Token)

	if t != nil {
		if t.shouldBeRemoved() {
			m.removeTask(t)
		} else {
			t.markDirty()
		}
	}
}

// FinishUnit marks a unit finishing and begins its teardown. A resumed
// unit pauses first; the pause completion path finishes the job.
func (m *Manager) finishUnit(u *ScreenUnit) {
	if u.finishing || u.state.Terminal() {
		return
	}
	u.finishing = true

	t := u.TaskGroup()
	if t != nil && t.resumedUnit == u {
		t.StartPausing(false, false, nil)
		return
	}
	if u.state == StatePausing {
		// completePause will observe the finishing flag.
		return
	}
	m.finishCompleted(u)
	m.ensureVisibilityPass(nil)
	if t != nil && t.c.Attached() {
		m.resumeTop(t)
	} else if d := m.anyDisplay(); d != nil {
		if next := d.nextFocusableTask(nil); next != nil {
			m.resumeTop(next)
		}
	}
}

// handleProcessDeath is reference hygiene only: drop pausing and
// last-paused references to units of the dead process so nothing waits
// on a pause or resume that can never complete. Lifecycle state is the
// death notification path's responsibility.
func (t *TaskGroup) handleProcessDeath(p *ProcessRecord) {
	if t.pausingUnit != nil && t.pausingUnit.process == p {
		t.pausingUnit.cancelPauseTimer()
		t.pausingUnit = nil
	}
	if t.lastPausedUnit != nil && t.lastPausedUnit.process == p {
		t.lastPausedUnit = nil
	}
}
