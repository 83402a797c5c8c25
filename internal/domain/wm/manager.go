package wm

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/glasskit/windowd/internal/domain/exec"
	"github.com/glasskit/windowd/internal/domain/geometry"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/infrastructure/monitoring"
	"github.com/glasskit/windowd/internal/shared/id"
)

var (
	// ErrNoSuchTask is returned for an unknown task group id.
	ErrNoSuchTask = errors.New("no such task group")
	// ErrNoSuchDisplay is returned for an unknown display id.
	ErrNoSuchDisplay = errors.New("no such display")
	// ErrNoSuchUnit is returned for an unknown unit token.
	ErrNoSuchUnit = errors.New("no such screen unit")
	// ErrDisplayFull is returned when a single-task display already
	// hosts its one task group.
	ErrDisplayFull = errors.New("display accepts a single task group")
)

// Options configure the manager.
type Options struct {
	PauseAckTimeout time.Duration
	StopDelay       time.Duration
}

// Manager owns the container tree and orchestrates task group
// lifecycle, visibility, and bounds resolution. Every mutation runs on
// the executor loop; public methods submit there and wait.
type Manager struct {
	loop    *exec.Loop
	logger  *logging.Logger
	metrics *monitoring.Metrics

	client     ProcessClient
	compositor Compositor
	organizer  Organizer
	persister  Persister

	pauseAckTimeout time.Duration
	stopDelay       time.Duration

	displays     map[int]*Display
	displayOrder []int
	tasks        map[int]*TaskGroup
	units        map[id.UnitToken]*ScreenUnit
	processes    map[int]*ProcessRecord

	nextTaskID int

	// inResumeTop guards resume evaluation against re-entry.
	inResumeTop bool

	// dirtyTasks coalesces organizer dispatch within one batch.
	dirtyTasks map[*TaskGroup]struct{}
}

// NewManager creates the window manager. Nil collaborators default to
// no-ops; metrics may be nil.
func NewManager(loop *exec.Loop, logger *logging.Logger, metrics *monitoring.Metrics,
	client ProcessClient, compositor Compositor, organizer Organizer, persister Persister,
	opts Options) *Manager {

	if compositor == nil {
		compositor = NopCompositor{}
	}
	if organizer == nil {
		organizer = NopOrganizer{}
	}
	if persister == nil {
		persister = NopPersister{}
	}
	if opts.PauseAckTimeout <= 0 {
		opts.PauseAckTimeout = 500 * time.Millisecond
	}
	if opts.StopDelay <= 0 {
		opts.StopDelay = 10 * time.Second
	}

	return &Manager{
		loop:            loop,
		logger:          logger.Named("wm"),
		metrics:         metrics,
		client:          client,
		compositor:      compositor,
		organizer:       organizer,
		persister:       persister,
		pauseAckTimeout: opts.PauseAckTimeout,
		stopDelay:       opts.StopDelay,
		displays:        make(map[int]*Display),
		tasks:           make(map[int]*TaskGroup),
		units:           make(map[id.UnitToken]*ScreenUnit),
		processes:       make(map[int]*ProcessRecord),
		nextTaskID:      1,
	}
}

// DisplayOptions describe a display to add.
type DisplayOptions struct {
	ID                 int
	Name               string
	Bounds             geometry.Rect
	Density            int
	StableInsets       geometry.Insets
	FreeformCapable    bool
	SingleTaskInstance bool
}

// AddDisplay creates a new focus domain root.
func (m *Manager) AddDisplay(opts DisplayOptions) error {
	return m.mutate("add-display", func() error {
		if _, ok := m.displays[opts.ID]; ok {
			return fmt.Errorf("display %d already exists", opts.ID)
		}
		d := newDisplay(opts.ID, opts.Name, opts.Bounds, opts.Density, opts.StableInsets)
		d.FreeformCapable = opts.FreeformCapable
		d.SingleTaskInstance = opts.SingleTaskInstance
		m.displays[opts.ID] = d
		m.displayOrder = append(m.displayOrder, opts.ID)
		m.logger.Info("display added",
			zap.Int("display", opts.ID),
			zap.String("name", opts.Name),
			zap.String("bounds", opts.Bounds.String()),
		)
		return nil
	})
}

// LaunchRequest describes a new screen unit to present. A zero
// TaskGroupID creates a fresh task group on the target display.
type LaunchRequest struct {
	DisplayID   int
	TaskGroupID int

	Affinity    string
	BaseIntent  string
	Description string
	Mode        WindowingMode
	Type        ActivityType
	Bounds      geometry.Rect
	ResizeMode  ResizeMode

	PID         int
	ProcessName string

	Unit UnitOptions
}

// Launch creates (or reuses) a task group, adds a new screen unit on
// top of it, and drives it toward RESUMED.
func (m *Manager) Launch(req LaunchRequest) (TaskInfo, error) {
	var info TaskInfo
	err := m.mutate("launch", func() error {
		d, ok := m.displays[req.DisplayID]
		if !ok {
			return fmt.Errorf("launch on display %d: %w", req.DisplayID, ErrNoSuchDisplay)
		}

		var t *TaskGroup
		if req.TaskGroupID != 0 {
			t = m.tasks[req.TaskGroupID]
			if t == nil {
				return fmt.Errorf("launch into task %d: %w", req.TaskGroupID, ErrNoSuchTask)
			}
			if !t.c.Attached() {
				return fmt.Errorf("launch into task %d: %w", req.TaskGroupID, ErrDetached)
			}
		} else {
			var err error
			t, err = m.createTask(d, req)
			if err != nil {
				return err
			}
		}

		u := newScreenUnit(req.Unit)
		if req.PID != 0 {
			p := m.processes[req.PID]
			if p == nil {
				p = newProcessRecord(req.PID, req.ProcessName)
				m.processes[req.PID] = p
			}
			u.process = p
			p.addUnit(u)
		}
		if err := t.c.AddChild(u.c, PositionTop); err != nil {
			return err
		}
		m.units[u.Token] = u
		// The new top unit may carry a required orientation, so the
		// task configuration resolves again with the unit in place.
		t.ResolveOverrideConfiguration(t.c.parent.resolved)
		resolveSubtree(t.c)
		t.reuse = false

		m.compositor.PrepareTransition(TransitionOpen)
		m.ensureVisibilityPass(u)
		m.resumeTop(t)
		t.markDirty()
		info = m.taskInfo(t)
		return nil
	})
	return info, err
}

// createTask allocates a new top-level task group on d.
func (m *Manager) createTask(d *Display, req LaunchRequest) (*TaskGroup, error) {
	if d.SingleTaskInstance && len(d.topLevelTasks()) > 0 {
		return nil, fmt.Errorf("display %d: %w", d.ID, ErrDisplayFull)
	}
	if req.Mode == ModePinned {
		// Picture-in-picture is a singleton: an existing pinned stack
		// is dismissed before the new one appears.
		if old := d.pinnedTask(); old != nil {
			m.dismissPinned(old)
		}
	}

	t := &TaskGroup{
		wm:          m,
		ID:          m.nextTaskID,
		Affinity:    req.Affinity,
		BaseIntent:  req.BaseIntent,
		Description: req.Description,
		ResizeMode:  req.ResizeMode,
	}
	m.nextTaskID++
	t.c = &Container{kind: KindTask, task: t}
	t.c.requested.Mode = req.Mode
	t.c.requested.Type = req.Type
	t.c.requested.Bounds = req.Bounds
	if t.c.requested.Type == TypeUndefined {
		t.c.requested.Type = TypeStandard
	}
	if err := d.c.AddChild(t.c, PositionTop); err != nil {
		return nil, err
	}
	t.ResolveOverrideConfiguration(d.c.resolved)
	m.tasks[t.ID] = t
	if m.metrics != nil {
		m.metrics.IncTaskGroupsTotal()
	}
	m.noteTaskAppeared(t)
	return t, nil
}

// dismissPinned finishes a pinned stack's units and sends it to the
// back on its way out.
func (m *Manager) dismissPinned(t *TaskGroup) {
	m.logger.Info("dismissing pinned stack", zap.Int("task", t.ID))
	_ = t.c.parent.PositionChildAt(PositionBottom, t.c, false)
	var units []*ScreenUnit
	t.c.ForAllDescendants(func(c *Container) bool {
		if c.kind == KindUnit {
			units = append(units, c.unit)
		}
		return true
	}, true)
	for _, u := range units {
		m.finishUnit(u)
	}
}

// EnsureVisible re-evaluates visibility for the whole tree and kicks
// resume evaluation on every display's focused stack. Idempotent.
func (m *Manager) EnsureVisible(startingToken id.UnitToken, preserveWindows bool) error {
	return m.mutate("ensure-visible", func() error {
		var starting *ScreenUnit
		if startingToken != "" {
			starting = m.units[startingToken]
			if starting == nil {
				return fmt.Errorf("starting unit %s: %w", startingToken, ErrNoSuchUnit)
			}
		}
		m.ensureVisibilityPass(starting)
		for _, did := range m.displayOrder {
			d := m.displays[did]
			focus := d.focusedTask
			if focus == nil || !focus.isFocusable() {
				focus = d.nextFocusableTask(nil)
			}
			if focus == nil {
				continue
			}
			// A resumed unit whose window was laid out against a stale
			// configuration relaunches, unless the caller asked to keep
			// the window across the change.
			if u := focus.resumedUnit; u != nil && u != starting && u.windowConfig != focus.c.resolved {
				if preserveWindows {
					u.windowConfig = focus.c.resolved
				} else {
					m.relaunch(u)
				}
			}
			m.resumeTop(focus)
		}
		return nil
	})
}

// ensureVisibilityPass classifies every leaf task group and pushes the
// results to units and the compositor. It also drains the per-display
// layout dirty flags.
func (m *Manager) ensureVisibilityPass(starting *ScreenUnit) {
	for _, did := range m.displayOrder {
		d := m.displays[did]
		d.forAllLeafTasks(func(t *TaskGroup) bool {
			vis := t.Visibility(starting)
			if vis != Invisible {
				t.everVisible = true
			}
			m.applyVisibility(t, vis, starting)
			return true
		})
		d.layoutNeeded = false
	}
}

// applyVisibility propagates a task group's classification to its
// units: in a visible task the top running unit shows and opaque
// content hides everything below it; in an invisible task everything
// hides and paused units are queued to stop.
func (m *Manager) applyVisibility(t *TaskGroup, vis Visibility, starting *ScreenUnit) {
	if vis == Invisible {
		t.c.ForAllDescendants(func(c *Container) bool {
			if c.kind != KindUnit {
				return true
			}
			u := c.unit
			if u == starting {
				return true
			}
			if u.visibleRequested {
				u.visibleRequested = false
				m.compositor.SetVisibility(u.Token, false)
			}
			if u.state == StatePaused {
				m.scheduleStop(u)
			}
			return true
		}, true)
		return
	}

	behindOpaque := false
	t.c.ForAllDescendants(func(c *Container) bool {
		if c.kind != KindUnit {
			return true
		}
		u := c.unit
		show := !behindOpaque && u.Running()
		if show && u.Occludes() {
			behindOpaque = true
		}
		if u.visibleRequested != show {
			u.visibleRequested = show
			m.compositor.SetVisibility(u.Token, show)
			if !show && u.state == StatePaused {
				m.scheduleStop(u)
			}
		}
		return true
	}, true)
}

// Resize applies new override bounds to a task group. The returned
// bool reports whether the configuration was kept without a relaunch.
func (m *Manager) Resize(taskID int, bounds geometry.Rect, preserveWindow bool) (bool, error) {
	kept := true
	err := m.mutate("resize", func() error {
		t := m.tasks[taskID]
		if t == nil {
			m.recordResize("unknown")
			return fmt.Errorf("resize task %d: %w", taskID, ErrNoSuchTask)
		}
		if !t.c.Attached() {
			m.recordResize("detached")
			return fmt.Errorf("resize task %d: %w", taskID, ErrDetached)
		}

		before := t.c.resolved
		t.c.requested.Bounds = bounds
		t.ResolveOverrideConfiguration(t.c.parent.resolved)
		resolveSubtree(t.c)

		if t.c.resolved == before {
			m.recordResize("no-op")
			return nil
		}

		m.compositor.PrepareTransition(TransitionResize)

		// A size change survives without relaunch when the client can
		// absorb it: a resizeable task whose attached top unit keeps
		// its window.
		sizeChanged := before.ScreenWidthDp != t.c.resolved.ScreenWidthDp ||
			before.ScreenHeightDp != t.c.resolved.ScreenHeightDp
		top := t.TopRunningUnit()
		if sizeChanged && top != nil {
			if preserveWindow && t.ResizeMode != ResizeModeUnresizeable && top.Attached() {
				kept = true
				top.windowConfig = t.c.resolved
			} else {
				kept = false
				m.relaunch(top)
			}
		}

		m.ensureVisibilityPass(nil)
		if kept {
			m.recordResize("kept")
		} else {
			m.recordResize("relaunched")
		}
		t.markDirty()
		return nil
	})
	return kept, err
}

// MoveToFront raises a task group to the top of its display and gives
// it focus.
func (m *Manager) MoveToFront(taskID int, reason string) error {
	return m.mutate("move-to-front", func() error {
		t := m.tasks[taskID]
		if t == nil {
			return fmt.Errorf("move-to-front task %d: %w", taskID, ErrNoSuchTask)
		}
		if !t.c.Attached() {
			return fmt.Errorf("move-to-front task %d: %w", taskID, ErrDetached)
		}
		m.logger.Info("moving task to front",
			zap.Int("task", t.ID),
			zap.String("reason", reason),
		)
		m.compositor.PrepareTransition(TransitionToFront)
		if err := t.c.parent.PositionChildAt(PositionTop, t.c, true); err != nil {
			return err
		}
		m.ensureVisibilityPass(nil)
		m.resumeTop(t)
		t.markDirty()
		return nil
	})
}

// MoveToBack lowers a task group to the bottom of its display. The
// next focusable stack takes over the resumed unit.
func (m *Manager) MoveToBack(taskID int, reason string) error {
	return m.mutate("move-to-back", func() error {
		t := m.tasks[taskID]
		if t == nil {
			return fmt.Errorf("move-to-back task %d: %w", taskID, ErrNoSuchTask)
		}
		if !t.c.Attached() {
			return fmt.Errorf("move-to-back task %d: %w", taskID, ErrDetached)
		}
		m.logger.Info("moving task to back",
			zap.Int("task", t.ID),
			zap.String("reason", reason),
		)
		m.compositor.PrepareTransition(TransitionToBack)
		if err := t.c.parent.PositionChildAt(PositionBottom, t.c, false); err != nil {
			return err
		}
		d := t.c.Display()
		if d.focusedTask == t {
			d.focusedTask = nil
		}
		m.ensureVisibilityPass(nil)
		if next := d.nextFocusableTask(t); next != nil {
			m.resumeTop(next)
		}
		t.markDirty()
		return nil
	})
}

// FinishUnit begins teardown of one screen unit.
func (m *Manager) FinishUnit(token id.UnitToken) error {
	return m.mutate("finish-unit", func() error {
		u := m.units[token]
		if u == nil {
			return fmt.Errorf("finish unit %s: %w", token, ErrNoSuchUnit)
		}
		m.compositor.PrepareTransition(TransitionClose)
		m.finishUnit(u)
		return nil
	})
}

// AckPause is the IPC layer's completion path for a pause callback.
// Stale acks (the timeout won, or the unit moved on) no-op.
func (m *Manager) AckPause(token id.UnitToken) error {
	return m.mutate("ack-pause", func() error {
		u := m.units[token]
		if u == nil || u.state != StatePausing {
			return nil
		}
		t := u.TaskGroup()
		if t == nil || t.pausingUnit != u {
			return nil
		}
		u.cancelPauseTimer()
		t.completePause(true)
		return nil
	})
}

// QueueDelivery queues a result or new-intent for a unit. A resumed,
// attached unit receives it immediately; anything else holds it for
// the next resume.
func (m *Manager) QueueDelivery(token id.UnitToken, d Delivery) error {
	return m.mutate("queue-delivery", func() error {
		u := m.units[token]
		if u == nil {
			return fmt.Errorf("deliver to unit %s: %w", token, ErrNoSuchUnit)
		}
		u.QueueDelivery(d)
		if u.state == StateResumed && u.Attached() {
			m.deliverPending(u)
		}
		return nil
	})
}

// NotifyProcessDied handles a client process death: in-flight pauses
// of its units complete locally so nothing waits on an impossible ack,
// task group references are scrubbed, and its units are restarted or
// destroyed depending on whether the user can see them.
func (m *Manager) NotifyProcessDied(pid int) error {
	return m.mutate("process-died", func() error {
		p := m.processes[pid]
		if p == nil {
			return nil
		}
		m.logger.Warn("process died", zap.Int("pid", pid), zap.String("name", p.Name))

		// Complete in-flight pauses first: the PAUSED state must be
		// reached without waiting for the dead client.
		for _, u := range append([]*ScreenUnit(nil), p.units...) {
			if u.state == StatePausing {
				if t := u.TaskGroup(); t != nil && t.pausingUnit == u {
					u.cancelPauseTimer()
					t.completePause(false)
				}
			}
		}

		p.attached = false

		// Reference hygiene on every task group.
		for _, t := range m.tasks {
			t.handleProcessDeath(p)
		}

		// Visible units relaunch; background ones are destroyed.
		for _, u := range append([]*ScreenUnit(nil), p.units...) {
			if u.state.Terminal() {
				continue
			}
			if u.visibleRequested && !u.finishing {
				m.relaunch(u)
			} else {
				u.finishing = true
				m.finishCompleted(u)
			}
		}
		delete(m.processes, pid)

		m.ensureVisibilityPass(nil)
		for _, did := range m.displayOrder {
			d := m.displays[did]
			if next := d.nextFocusableTask(nil); next != nil {
				m.resumeTop(next)
			}
		}
		return nil
	})
}

// AttachProcess (re)connects a client process. Units left in
// RESTARTING_PROCESS by a crash adopt it and go back through the
// resume path.
func (m *Manager) AttachProcess(pid int, name string) error {
	return m.mutate("attach-process", func() error {
		if _, ok := m.processes[pid]; ok {
			return nil
		}
		p := newProcessRecord(pid, name)
		m.processes[pid] = p
		for _, u := range m.units {
			if u.state == StateRestartingProcess && u.process != nil && !u.process.attached {
				u.process.removeUnit(u)
				u.process = p
				p.addUnit(u)
				u.state = StateInitializing
			}
		}
		m.ensureVisibilityPass(nil)
		for _, did := range m.displayOrder {
			d := m.displays[did]
			if next := d.nextFocusableTask(nil); next != nil {
				m.resumeTop(next)
			}
		}
		return nil
	})
}

// SleepDisplay puts one focus domain to sleep: the resumed unit
// pauses, and paused units settle to stopped.
func (m *Manager) SleepDisplay(displayID int) error {
	return m.mutate("sleep-display", func() error {
		d, ok := m.displays[displayID]
		if !ok {
			return fmt.Errorf("sleep display %d: %w", displayID, ErrNoSuchDisplay)
		}
		if d.sleeping {
			return nil
		}
		d.sleeping = true
		d.forAllLeafTasks(func(t *TaskGroup) bool {
			if t.resumedUnit != nil {
				t.StartPausing(false, true, nil)
			}
			return true
		})
		return nil
	})
}

// WakeDisplay wakes a sleeping focus domain and resumes its focused
// stack.
func (m *Manager) WakeDisplay(displayID int) error {
	return m.mutate("wake-display", func() error {
		d, ok := m.displays[displayID]
		if !ok {
			return fmt.Errorf("wake display %d: %w", displayID, ErrNoSuchDisplay)
		}
		if !d.sleeping {
			return nil
		}
		d.sleeping = false
		m.ensureVisibilityPass(nil)
		focus := d.focusedTask
		if focus == nil || !focus.isFocusable() {
			focus = d.nextFocusableTask(nil)
		}
		if focus != nil {
			m.resumeTop(focus)
		}
		return nil
	})
}

// VisibilityOf classifies one task group.
func (m *Manager) VisibilityOf(taskID int) (Visibility, error) {
	var (
		v  Visibility
		ok bool
	)
	if err := m.loop.Call("visibility-of", func() {
		if t := m.tasks[taskID]; t != nil {
			ok = true
			v = t.Visibility(nil)
		}
	}); err != nil {
		return Invisible, err
	}
	if !ok {
		return Invisible, fmt.Errorf("task %d: %w", taskID, ErrNoSuchTask)
	}
	return v, nil
}

// Recents lists every known task group front to back per display,
// with affiliated chains kept adjacent.
func (m *Manager) Recents() ([]TaskInfo, error) {
	var out []TaskInfo
	err := m.loop.Call("recents", func() {
		seen := make(map[*TaskGroup]bool)
		for _, did := range m.displayOrder {
			d := m.displays[did]
			d.forAllLeafTasks(func(t *TaskGroup) bool {
				for _, a := range t.AffiliatedTasks() {
					if !seen[a] {
						seen[a] = true
						out = append(out, m.taskInfo(a))
					}
				}
				return true
			})
		}
	})
	return out, err
}

// taskInfo builds the read-only snapshot for a task group.
func (m *Manager) taskInfo(t *TaskGroup) TaskInfo {
	info := TaskInfo{
		ID:            t.ID,
		Affinity:      t.Affinity,
		BaseIntent:    t.BaseIntent,
		Description:   t.Description,
		Bounds:        t.Bounds(),
		WindowingMode: t.Mode(),
		ActivityType:  t.Type(),
		ResizeMode:    t.ResizeMode,
		UnitCount:     t.UnitCount(),
	}
	if d := t.c.Display(); d != nil {
		info.DisplayID = d.ID
		info.Visibility = t.Visibility(nil).String()
	} else {
		info.Visibility = Invisible.String()
	}
	if p := t.parentTaskGroup(); p != nil {
		info.ParentTaskID = p.ID
	}
	if top := t.TopUnit(); top != nil {
		info.TopUnitToken = top.Token
		info.TopUnitState = top.state.String()
	}
	return info
}

// mutate runs one mutation batch on the loop: the operation itself,
// then coalesced organizer dispatch and persistence.
func (m *Manager) mutate(op string, fn func() error) error {
	var opErr error
	if err := m.loop.Call(op, func() {
		opErr = fn()
		m.endBatch()
	}); err != nil {
		return err
	}
	return opErr
}

// noteTaskChanged queues a task group for coalesced organizer
// dispatch.
func (m *Manager) noteTaskChanged(t *TaskGroup) {
	if m.dirtyTasks == nil {
		m.dirtyTasks = make(map[*TaskGroup]struct{})
	}
	m.dirtyTasks[t] = struct{}{}
	t.dirty = true
}

// noteTaskAppeared dispatches the appearance callback immediately and
// suppresses the redundant changed callback in the same batch.
func (m *Manager) noteTaskAppeared(t *TaskGroup) {
	info := m.taskInfo(t)
	m.organizer.OnTaskAppeared(info)
	m.recordOrganizerEvent("appeared")
	if m.dirtyTasks != nil {
		delete(m.dirtyTasks, t)
	}
	t.dirty = false
}

// removeTask unlinks an empty task group and tells the organizer.
func (m *Manager) removeTask(t *TaskGroup) {
	info := m.taskInfo(t)
	if t.c.parent != nil {
		parent := t.c.parent
		_ = parent.RemoveChild(t.c)
		// An intermediate task group emptied by this removal goes too.
		if parent.kind == KindTask && parent.task.shouldBeRemoved() {
			m.removeTask(parent.task)
		}
	}
	t.RemoveFromAffiliationChain()
	if d := m.displayFor(info.DisplayID); d != nil && d.focusedTask == t {
		d.focusedTask = nil
	}
	delete(m.tasks, t.ID)
	if m.dirtyTasks != nil {
		delete(m.dirtyTasks, t)
	}
	m.organizer.OnTaskVanished(info)
	m.recordOrganizerEvent("vanished")
}

func (m *Manager) displayFor(id int) *Display { return m.displays[id] }

func (m *Manager) anyDisplay() *Display {
	for _, did := range m.displayOrder {
		return m.displays[did]
	}
	return nil
}

// endBatch flushes coalesced organizer callbacks, persists dirty
// freeform tasks, and refreshes population gauges. Runs on the loop at
// the end of every mutation batch and timer firing.
func (m *Manager) endBatch() {
	if len(m.dirtyTasks) > 0 {
		for t := range m.dirtyTasks {
			if !t.dirty {
				continue
			}
			t.dirty = false
			info := m.taskInfo(t)
			m.organizer.OnTaskInfoChanged(info)
			m.recordOrganizerEvent("changed")
			m.maybePersist(t, info)
		}
		m.dirtyTasks = make(map[*TaskGroup]struct{})
	}

	if m.metrics != nil {
		m.metrics.SetTaskGroupsActive(len(m.tasks))
		m.metrics.SetUnitsActive(len(m.units))
	}
}

// maybePersist hands a snapshot to the persistence layer when the task
// has ever been visible and sits in a bounds-persisting mode on a
// freeform-capable display.
func (m *Manager) maybePersist(t *TaskGroup, info TaskInfo) {
	if !t.everVisible || !t.Mode().PersistsTaskBounds() {
		return
	}
	d := t.c.Display()
	if d == nil || !d.FreeformCapable {
		return
	}
	m.persister.SaveTask(TaskSnapshot{Info: info, LastNonFS: t.lastNonFullscreenBounds})
	if m.metrics != nil {
		m.metrics.IncSnapshotsSaved()
	}
}

func (m *Manager) recordTransition(s UnitState) {
	if m.metrics != nil {
		m.metrics.RecordTransition(s.String())
	}
}

func (m *Manager) recordVisibility(v Visibility) {
	if m.metrics != nil {
		m.metrics.RecordVisibility(v.String())
	}
}

func (m *Manager) recordResize(status string) {
	if m.metrics != nil {
		m.metrics.RecordResize(status)
	}
}

func (m *Manager) recordOrganizerEvent(kind string) {
	if m.metrics != nil {
		m.metrics.RecordOrganizerEvent(kind)
	}
}
