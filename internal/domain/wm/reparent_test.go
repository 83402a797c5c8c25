package wm

import (
	"errors"
	"testing"

	"github.com/glasskit/windowd/internal/domain/geometry"
)

func addSecondDisplay(h *harness, displayID int) {
	h.t.Helper()
	if err := h.m.AddDisplay(DisplayOptions{
		ID:              displayID,
		Name:            "external",
		Bounds:          geometry.NewRect(0, 0, 1920, 1080),
		Density:         160,
		FreeformCapable: true,
	}); err != nil {
		h.t.Fatalf("add display: %v", err)
	}
}

func TestReparentToFrontOfNewDisplay(t *testing.T) {
	h := newHarness(t)
	addSecondDisplay(h, 1)
	a := h.launch(LaunchRequest{DisplayID: 0, PID: 1})

	moved, err := h.m.Reparent(ReparentRequest{
		TaskID:          a.ID,
		TargetDisplayID: 1,
		MoveMode:        MoveAlwaysToFront,
		Reason:          "test",
	})
	if err != nil {
		t.Fatalf("reparent: %v", err)
	}
	if !moved {
		t.Fatal("reparent reported no movement")
	}

	h.run(func() {
		tg := h.m.tasks[a.ID]
		if got := tg.c.Display().ID; got != 1 {
			t.Errorf("display = %d, want 1", got)
		}
		if h.m.displays[1].focusedTask != tg {
			t.Error("moved stack did not take focus on the new display")
		}
		if tg.resumedUnit == nil || tg.resumedUnit.state != StateResumed {
			t.Error("resumed unit lost in the move")
		}
	})
}

func TestReparentKeepAtFrontOfNonFrontStack(t *testing.T) {
	h := newHarness(t)
	addSecondDisplay(h, 1)

	var moving *TaskGroup
	var movingUnit *ScreenUnit
	var resident *TaskGroup
	h.run(func() {
		m := h.m
		d0 := m.displays[0]
		d1 := m.displays[1]

		// The moving stack holds the resumed unit but is not front:
		// another stack sits above it and owns focus.
		moving = addTestTask(m, d0.c, ModeFullscreen, TypeStandard)
		movingUnit = addTestUnit(m, moving, UnitOptions{}, StateResumed)
		moving.resumedUnit = movingUnit
		front := addTestTask(m, d0.c, ModeFullscreen, TypeStandard)
		addTestUnit(m, front, UnitOptions{}, StatePaused)
		d0.focusedTask = front

		resident = addTestTask(m, d1.c, ModeFullscreen, TypeStandard)
		addTestUnit(m, resident, UnitOptions{}, StatePaused)
	})

	moved, err := h.m.Reparent(ReparentRequest{
		TaskID:          moving.ID,
		TargetDisplayID: 1,
		Position:        PositionBottom,
		MoveMode:        MoveKeepAtFront,
		Reason:          "test",
	})
	if err != nil {
		t.Fatalf("reparent: %v", err)
	}
	if !moved {
		t.Fatal("reparent reported no movement")
	}

	h.run(func() {
		d1 := h.m.displays[1]
		// Ordering unchanged: no forced move to the top.
		if got := d1.c.indexOf(moving.c); got != 0 {
			t.Errorf("moving stack index = %d, want 0 (below the resident)", got)
		}
		if got := d1.c.indexOf(resident.c); got != 1 {
			t.Errorf("resident index = %d, want 1", got)
		}
		// Resumed-state transfer still happened.
		if moving.resumedUnit != movingUnit || movingUnit.state != StateResumed {
			t.Error("resumed state did not transfer with the stack")
		}
		if d1.focusedTask != moving {
			t.Error("focus did not transfer with the resumed unit")
		}
	})
}

func TestReparentToSingleTaskDisplayRejected(t *testing.T) {
	h := newHarness(t)
	if err := h.m.AddDisplay(DisplayOptions{
		ID:                 2,
		Name:               "dashboard",
		Bounds:             geometry.NewRect(0, 0, 800, 600),
		Density:            160,
		SingleTaskInstance: true,
	}); err != nil {
		t.Fatalf("add display: %v", err)
	}
	h.launch(LaunchRequest{DisplayID: 2})
	a := h.launch(LaunchRequest{DisplayID: 0})

	moved, err := h.m.Reparent(ReparentRequest{TaskID: a.ID, TargetDisplayID: 2})
	if !errors.Is(err, ErrDisplayFull) {
		t.Fatalf("err = %v, want ErrDisplayFull", err)
	}
	if moved {
		t.Fatal("rejected reparent reported movement")
	}

	if _, err := h.m.Launch(LaunchRequest{DisplayID: 2}); !errors.Is(err, ErrDisplayFull) {
		t.Fatalf("second launch err = %v, want ErrDisplayFull", err)
	}
}

func TestReparentIntoOwnSubtreeRejected(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{DisplayID: 0})

	var child *TaskGroup
	h.run(func() {
		child = addTestTask(h.m, h.m.tasks[a.ID].c, ModeFullscreen, TypeStandard)
	})

	_, err := h.m.Reparent(ReparentRequest{TaskID: a.ID, TargetTaskID: child.ID})
	if !errors.Is(err, ErrWouldCycle) {
		t.Fatalf("err = %v, want ErrWouldCycle", err)
	}
}

func TestReparentUnknownTask(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.Reparent(ReparentRequest{TaskID: 42, TargetDisplayID: 0})
	if !errors.Is(err, ErrNoSuchTask) {
		t.Fatalf("err = %v, want ErrNoSuchTask", err)
	}
}

func TestRepositionWithinParent(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{DisplayID: 0, PID: 1})
	b := h.launch(LaunchRequest{DisplayID: 0, PID: 2})
	if err := h.m.AckPause(a.TopUnitToken); err != nil {
		t.Fatalf("ack: %v", err)
	}

	moved, err := h.m.Reparent(ReparentRequest{
		TaskID:          a.ID,
		TargetDisplayID: 0,
		MoveMode:        MoveAlwaysToFront,
	})
	if err != nil {
		t.Fatalf("reparent: %v", err)
	}
	if !moved {
		t.Fatal("reposition reported no movement")
	}
	h.run(func() {
		d := h.m.displays[0]
		if d.c.indexOf(h.m.tasks[a.ID].c) <= d.c.indexOf(h.m.tasks[b.ID].c) {
			t.Error("stack not raised above its sibling")
		}
	})
}

func TestReparentEmptiesAndRemovesOldParent(t *testing.T) {
	h := newHarness(t)
	addSecondDisplay(h, 1)

	var outer, inner *TaskGroup
	h.run(func() {
		m := h.m
		outer = addTestTask(m, m.displays[0].c, ModeFullscreen, TypeStandard)
		inner = addTestTask(m, outer.c, ModeFullscreen, TypeStandard)
		addTestUnit(m, inner, UnitOptions{}, StatePaused)
	})

	moved, err := h.m.Reparent(ReparentRequest{
		TaskID:          inner.ID,
		TargetDisplayID: 1,
		MoveMode:        MoveAlwaysToFront,
	})
	if err != nil {
		t.Fatalf("reparent: %v", err)
	}
	if !moved {
		t.Fatal("reparent reported no movement")
	}

	if got := h.task(outer.ID); got != nil {
		t.Fatal("emptied old parent not removed")
	}
	h.run(func() {
		if inner.c.Display().ID != 1 {
			t.Error("inner not on the new display")
		}
	})
}

func TestReparentReresolvesBounds(t *testing.T) {
	h := newHarness(t)
	addSecondDisplay(h, 1)
	a := h.launch(LaunchRequest{DisplayID: 0})

	moved, err := h.m.Reparent(ReparentRequest{
		TaskID:          a.ID,
		TargetDisplayID: 1,
		MoveMode:        MoveAlwaysToFront,
	})
	if err != nil || !moved {
		t.Fatalf("reparent: moved=%v err=%v", moved, err)
	}
	h.run(func() {
		tg := h.m.tasks[a.ID]
		if got := tg.Bounds(); got != geometry.NewRect(0, 0, 1920, 1080) {
			t.Errorf("bounds = %v, want the new display's", got)
		}
		if got := tg.c.resolved.Orientation; got != OrientationLandscape {
			t.Errorf("orientation = %v, want landscape", got)
		}
	})
}

func TestPinnedSingletonDismissedOnSecondLaunch(t *testing.T) {
	h := newHarness(t)
	p1 := h.launch(LaunchRequest{DisplayID: 0, Mode: ModePinned})
	p2 := h.launch(LaunchRequest{DisplayID: 0, Mode: ModePinned})

	if got := h.task(p1.ID); got != nil {
		t.Fatal("first pinned stack not dismissed")
	}
	h.run(func() {
		d := h.m.displays[0]
		if pt := d.pinnedTask(); pt == nil || pt.ID != p2.ID {
			t.Error("second pinned stack missing")
		}
	})
}
