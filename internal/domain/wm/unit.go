package wm

import (
	"github.com/glasskit/windowd/internal/domain/exec"
	"github.com/glasskit/windowd/internal/shared/id"
)

// UnitState is the lifecycle state of a screen unit.
type UnitState int

const (
	StateInitializing UnitState = iota
	StateStarted
	StateResumed
	StatePausing
	StatePaused
	StateStopping
	StateStopped
	StateFinishing
	StateDestroying
	StateDestroyed
	StateRestartingProcess
)

// String returns the string representation of the state.
func (s UnitState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateStarted:
		return "started"
	case StateResumed:
		return "resumed"
	case StatePausing:
		return "pausing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFinishing:
		return "finishing"
	case StateDestroying:
		return "destroying"
	case StateDestroyed:
		return "destroyed"
	case StateRestartingProcess:
		return "restarting-process"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions leave this state.
func (s UnitState) Terminal() bool { return s == StateDestroyed }

// Delivery is a result or new-intent queued for a unit, handed to the
// client on the next resume.
type Delivery struct {
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ScreenUnit is the smallest presentable unit of UI content. It lives
// as a leaf of the container tree inside a task group.
type ScreenUnit struct {
	c *Container

	Token id.UnitToken

	state            UnitState
	finishing        bool
	visibleRequested bool

	// process is the owning client process; nil while not attached.
	process *ProcessRecord

	// Presentation hints that feed the visibility resolver.
	translucent         bool
	showWallpaper       bool
	requiredOrientation Orientation

	// deferRelaunch delays a pending relaunch until the unit has
	// finished pausing.
	deferRelaunch bool

	// windowConfig is the resolved configuration the client's window
	// was last laid out against. A mismatch during a visibility pass
	// marks the window stale.
	windowConfig Configuration

	pending []Delivery

	// pauseTimer bounds the wait for a pause ack from the client.
	pauseTimer *exec.Timer
}

func newScreenUnit(opts UnitOptions) *ScreenUnit {
	u := &ScreenUnit{
		Token:               id.NewUnitToken(),
		state:               StateInitializing,
		translucent:         opts.Translucent,
		showWallpaper:       opts.ShowWallpaper,
		requiredOrientation: opts.RequiredOrientation,
	}
	u.c = &Container{kind: KindUnit, unit: u}
	return u
}

// UnitOptions carry the presentation hints for a new screen unit.
type UnitOptions struct {
	Translucent         bool
	ShowWallpaper       bool
	RequiredOrientation Orientation
}

// State returns the current lifecycle state.
func (u *ScreenUnit) State() UnitState { return u.state }

// Finishing reports whether the unit is on its way out.
func (u *ScreenUnit) Finishing() bool { return u.finishing }

// VisibleRequested reports whether the unit should be shown.
func (u *ScreenUnit) VisibleRequested() bool { return u.visibleRequested }

// TaskGroup returns the owning task group, nil when detached.
func (u *ScreenUnit) TaskGroup() *TaskGroup { return u.c.parentTask() }

// Attached reports whether the unit's process is alive and attached.
func (u *ScreenUnit) Attached() bool {
	return u.process != nil && u.process.attached
}

// Running reports whether the unit still counts as running content for
// occlusion purposes: not finishing and not torn down.
func (u *ScreenUnit) Running() bool {
	switch u.state {
	case StateDestroying, StateDestroyed:
		return false
	}
	return !u.finishing
}

// Occludes reports whether the unit fully hides whatever is below it:
// it must be opaque and not reveal the wallpaper.
func (u *ScreenUnit) Occludes() bool {
	return !u.translucent && !u.showWallpaper
}

// QueueDelivery appends a result or new-intent for the next resume.
func (u *ScreenUnit) QueueDelivery(d Delivery) {
	u.pending = append(u.pending, d)
}

// takeDeliveries drains the pending queue.
func (u *ScreenUnit) takeDeliveries() []Delivery {
	p := u.pending
	u.pending = nil
	return p
}

// cancelPauseTimer disarms a pending pause deadline, if any.
func (u *ScreenUnit) cancelPauseTimer() {
	if u.pauseTimer != nil {
		u.pauseTimer.Cancel()
		u.pauseTimer = nil
	}
}
