package wm

import (
	"errors"
	"testing"

	"github.com/glasskit/windowd/internal/domain/geometry"
)

func TestLaunchCreatesTaskGroup(t *testing.T) {
	h := newHarness(t)
	info := h.launch(LaunchRequest{
		DisplayID:   0,
		Affinity:    "com.example.mail",
		Description: "Mail",
		PID:         1,
	})

	if info.DisplayID != 0 || info.UnitCount != 1 {
		t.Fatalf("info = %+v", info)
	}
	if info.TopUnitState != "resumed" {
		t.Fatalf("top unit state = %q, want resumed", info.TopUnitState)
	}
	if info.Visibility != "visible" {
		t.Fatalf("visibility = %q, want visible", info.Visibility)
	}
	if len(h.org.appeared) != 1 || h.org.appeared[0].ID != info.ID {
		t.Fatalf("appeared callbacks = %+v", h.org.appeared)
	}
}

func TestLaunchOnUnknownDisplay(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.Launch(LaunchRequest{DisplayID: 9})
	if !errors.Is(err, ErrNoSuchDisplay) {
		t.Fatalf("err = %v, want ErrNoSuchDisplay", err)
	}
}

func TestLaunchResolvesUnitOrientation(t *testing.T) {
	h := newHarness(t)
	addSecondDisplay(h, 1)

	// The unit declares the orientation, not the task: the launch must
	// resolve bounds with the unit already on top.
	a := h.launch(LaunchRequest{
		DisplayID: 1,
		PID:       1,
		Unit:      UnitOptions{RequiredOrientation: OrientationPortrait},
	})

	wantWidth := 1080 * 1080 / 1920
	if got := a.Bounds.Width(); got != wantWidth {
		t.Fatalf("width = %d, want pillarboxed %d", got, wantWidth)
	}
	if got := a.Bounds.Height(); got != 1080 {
		t.Fatalf("height = %d, want full 1080", got)
	}
}

func TestResizeKeepsConfiguration(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{
		DisplayID:  0,
		Mode:       ModeFreeform,
		Bounds:     geometry.NewRect(100, 100, 600, 600),
		ResizeMode: ResizeModeResizeable,
		PID:        1,
	})

	kept, err := h.m.Resize(a.ID, geometry.NewRect(100, 100, 700, 800), true)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if !kept {
		t.Fatal("resizeable task relaunched on a preserved resize")
	}
	h.run(func() {
		if got := h.m.tasks[a.ID].Bounds(); got != geometry.NewRect(100, 100, 700, 800) {
			t.Errorf("bounds = %v", got)
		}
	})
	if got := h.unitState(a.TopUnitToken); got != StateResumed {
		t.Fatalf("unit = %v, want still resumed", got)
	}
}

func TestResizeWithoutPreserveRelaunches(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{
		DisplayID:  0,
		Mode:       ModeFreeform,
		Bounds:     geometry.NewRect(100, 100, 600, 600),
		ResizeMode: ResizeModeResizeable,
		PID:        1,
	})

	kept, err := h.m.Resize(a.ID, geometry.NewRect(100, 100, 700, 800), false)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if kept {
		t.Fatal("configuration reported kept without window preservation")
	}
	if got := h.unitState(a.TopUnitToken); got != StateRestartingProcess {
		t.Fatalf("unit = %v, want restarting-process", got)
	}
}

func TestResizeToSameBoundsIsNoOp(t *testing.T) {
	h := newHarness(t)
	b := geometry.NewRect(100, 100, 600, 600)
	a := h.launch(LaunchRequest{DisplayID: 0, Mode: ModeFreeform, Bounds: b, PID: 1})
	transitions := len(h.comp.transitions)

	kept, err := h.m.Resize(a.ID, b, true)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if !kept {
		t.Fatal("no-op resize reported a relaunch")
	}
	if got := len(h.comp.transitions); got != transitions {
		t.Fatalf("no-op resize prepared a transition")
	}
}

func TestMoveToFrontAndBack(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{DisplayID: 0, PID: 1})
	b := h.launch(LaunchRequest{DisplayID: 0, PID: 2})
	if err := h.m.AckPause(a.TopUnitToken); err != nil {
		t.Fatalf("ack: %v", err)
	}

	if err := h.m.MoveToFront(a.ID, "user tap"); err != nil {
		t.Fatalf("move to front: %v", err)
	}
	if err := h.m.AckPause(b.TopUnitToken); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if got := h.unitState(a.TopUnitToken); got != StateResumed {
		t.Fatalf("a = %v, want resumed after move to front", got)
	}
	if got := h.unitState(b.TopUnitToken); got != StatePaused {
		t.Fatalf("b = %v, want paused", got)
	}

	if err := h.m.MoveToBack(a.ID, "gesture"); err != nil {
		t.Fatalf("move to back: %v", err)
	}
	if err := h.m.AckPause(a.TopUnitToken); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if got := h.unitState(b.TopUnitToken); got != StateResumed {
		t.Fatalf("b = %v, want resumed after a moved back", got)
	}
	h.run(func() {
		d := h.m.displays[0]
		if d.c.indexOf(h.m.tasks[a.ID].c) != 0 {
			t.Error("a not at the bottom")
		}
	})
}

func TestRecentsKeepsAffiliationAdjacent(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{DisplayID: 0})
	b := h.launch(LaunchRequest{DisplayID: 0})
	c := h.launch(LaunchRequest{DisplayID: 0})
	h.run(func() {
		// c and a form one affiliated chain with b between them in
		// z-order.
		h.m.tasks[c.ID].SetNextAffiliate(h.m.tasks[a.ID])
	})

	recents, err := h.m.Recents()
	if err != nil {
		t.Fatalf("recents: %v", err)
	}
	if len(recents) != 3 {
		t.Fatalf("recents = %d entries, want 3", len(recents))
	}
	if recents[0].ID != c.ID || recents[1].ID != a.ID || recents[2].ID != b.ID {
		t.Fatalf("order = [%d %d %d], want chain [%d %d] then %d",
			recents[0].ID, recents[1].ID, recents[2].ID, c.ID, a.ID, b.ID)
	}
}

func TestSnapshotReflectsTree(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{DisplayID: 0, Description: "Mail", PID: 1})

	snap, err := h.m.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Displays) != 1 {
		t.Fatalf("displays = %d, want 1", len(snap.Displays))
	}
	d := snap.Displays[0]
	if d.FocusedTaskID != a.ID || len(d.Tasks) != 1 {
		t.Fatalf("display node = %+v", d)
	}
	task := d.Tasks[0]
	if task.Info.Description != "Mail" || len(task.Units) != 1 {
		t.Fatalf("task node = %+v", task)
	}
	if task.Units[0].Token != a.TopUnitToken || task.Units[0].State != "resumed" {
		t.Fatalf("unit node = %+v", task.Units[0])
	}
}

func TestOrganizerChangesCoalescePerBatch(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{
		DisplayID: 0,
		Mode:      ModeFreeform,
		Bounds:    geometry.NewRect(100, 100, 600, 600),
	})
	// Launch mutates the task several times (resolve, resume, raise)
	// but the batch flushes at most one change callback.
	if got := h.org.changedCount(a.ID); got != 1 {
		t.Fatalf("changed callbacks after launch = %d, want 1", got)
	}

	if _, err := h.m.Resize(a.ID, geometry.NewRect(100, 100, 700, 800), true); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if got := h.org.changedCount(a.ID); got != 2 {
		t.Fatalf("changed callbacks after resize = %d, want 2", got)
	}
}

func TestPersistenceTriggerOnFreeformDisplay(t *testing.T) {
	h := newHarness(t)
	h.launch(LaunchRequest{
		DisplayID: 0,
		Mode:      ModeFreeform,
		Bounds:    geometry.NewRect(100, 100, 600, 600),
	})
	if h.persist.count() == 0 {
		t.Fatal("freeform task on a freeform display was not persisted")
	}

	// Fullscreen tasks never trip the persistence path.
	before := h.persist.count()
	h.launch(LaunchRequest{DisplayID: 0, Mode: ModeFullscreen})
	if got := h.persist.count(); got != before {
		t.Fatalf("fullscreen launch persisted %d snapshots", got-before)
	}
}

func TestAttachProcessAdoptsRestartingUnits(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{DisplayID: 0, PID: 1})
	if err := h.m.NotifyProcessDied(1); err != nil {
		t.Fatalf("process died: %v", err)
	}
	if got := h.unitState(a.TopUnitToken); got != StateRestartingProcess {
		t.Fatalf("unit = %v, want restarting-process", got)
	}

	if err := h.m.AttachProcess(2, "app"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got := h.unitState(a.TopUnitToken); got != StateResumed {
		t.Fatalf("unit = %v, want resumed under the new process", got)
	}
	if rec, ok := h.client.last(); !ok || rec.PID != 2 || rec.Kind != CallbackResume {
		t.Fatalf("last dispatch = %+v, want resume to pid 2", rec)
	}
}

func TestVisibilityOfUnknownTask(t *testing.T) {
	h := newHarness(t)
	if _, err := h.m.VisibilityOf(7); !errors.Is(err, ErrNoSuchTask) {
		t.Fatalf("err = %v, want ErrNoSuchTask", err)
	}
}

func TestEmptyNonOrganizerTaskIsCollected(t *testing.T) {
	h := newHarness(t)
	a := h.launch(LaunchRequest{DisplayID: 0})

	if err := h.m.FinishUnit(a.TopUnitToken); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got := h.task(a.ID); got != nil {
		t.Fatal("empty task group survived")
	}
	if len(h.org.vanished) != 1 || h.org.vanished[0].ID != a.ID {
		t.Fatalf("vanished callbacks = %+v", h.org.vanished)
	}
}
