package wm

import (
	"sync"
	"testing"
	"time"

	"github.com/glasskit/windowd/internal/domain/exec"
	"github.com/glasskit/windowd/internal/domain/geometry"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/shared/id"
)

type dispatchRecord struct {
	PID   int
	Token id.UnitToken
	Kind  CallbackKind
}

// fakeClient records lifecycle dispatches and can be told to fail
// specific callback kinds.
type fakeClient struct {
	mu        sync.Mutex
	calls     []dispatchRecord
	fail      map[CallbackKind]error
	failDeliv error
	delivered map[id.UnitToken][]Delivery
}

func (f *fakeClient) ScheduleLifecycleCallback(pid int, token id.UnitToken, kind CallbackKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[kind]; err != nil {
		return err
	}
	f.calls = append(f.calls, dispatchRecord{PID: pid, Token: token, Kind: kind})
	return nil
}

func (f *fakeClient) DeliverToUnit(pid int, token id.UnitToken, deliveries []Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeliv != nil {
		return f.failDeliv
	}
	if f.delivered == nil {
		f.delivered = make(map[id.UnitToken][]Delivery)
	}
	f.delivered[token] = append(f.delivered[token], deliveries...)
	return nil
}

func (f *fakeClient) deliveriesFor(token id.UnitToken) []Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delivered[token]
}

func (f *fakeClient) count(kind CallbackKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (f *fakeClient) last() (dispatchRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return dispatchRecord{}, false
	}
	return f.calls[len(f.calls)-1], true
}

type fakeCompositor struct {
	mu          sync.Mutex
	transitions []TransitionKind
	visibility  map[id.UnitToken]bool
}

func (f *fakeCompositor) PrepareTransition(kind TransitionKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, kind)
}

func (f *fakeCompositor) SetVisibility(token id.UnitToken, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visibility == nil {
		f.visibility = make(map[id.UnitToken]bool)
	}
	f.visibility[token] = visible
}

func (f *fakeCompositor) lastTransition() (TransitionKind, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.transitions) == 0 {
		return TransitionNone, false
	}
	return f.transitions[len(f.transitions)-1], true
}

func (f *fakeCompositor) visible(token id.UnitToken) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visibility[token]
}

type fakeOrganizer struct {
	mu       sync.Mutex
	appeared []TaskInfo
	vanished []TaskInfo
	changed  []TaskInfo
}

func (f *fakeOrganizer) OnTaskAppeared(info TaskInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appeared = append(f.appeared, info)
}

func (f *fakeOrganizer) OnTaskVanished(info TaskInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vanished = append(f.vanished, info)
}

func (f *fakeOrganizer) OnTaskInfoChanged(info TaskInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, info)
}

func (f *fakeOrganizer) changedCount(taskID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, info := range f.changed {
		if info.ID == taskID {
			n++
		}
	}
	return n
}

type fakePersister struct {
	mu    sync.Mutex
	saved []TaskSnapshot
}

func (f *fakePersister) SaveTask(snap TaskSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, snap)
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type harness struct {
	t       *testing.T
	loop    *exec.Loop
	m       *Manager
	client  *fakeClient
	comp    *fakeCompositor
	org     *fakeOrganizer
	persist *fakePersister
}

const testDisplayID = 0

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		loop:    exec.NewLoop(logging.NewNop(), nil),
		client:  &fakeClient{},
		comp:    &fakeCompositor{},
		org:     &fakeOrganizer{},
		persist: &fakePersister{},
	}
	h.loop.Start()
	t.Cleanup(h.loop.Stop)
	h.m = NewManager(h.loop, logging.NewNop(), nil,
		h.client, h.comp, h.org, h.persist,
		Options{PauseAckTimeout: 5 * time.Second, StopDelay: time.Hour})
	if err := h.m.AddDisplay(DisplayOptions{
		ID:              testDisplayID,
		Name:            "built-in",
		Bounds:          geometry.NewRect(0, 0, 1080, 1920),
		Density:         160,
		FreeformCapable: true,
	}); err != nil {
		t.Fatalf("add display: %v", err)
	}
	return h
}

// run executes fn on the loop and waits for it.
func (h *harness) run(fn func()) {
	h.t.Helper()
	if err := h.loop.Call("test", fn); err != nil {
		h.t.Fatalf("loop call: %v", err)
	}
}

func (h *harness) launch(req LaunchRequest) TaskInfo {
	h.t.Helper()
	info, err := h.m.Launch(req)
	if err != nil {
		h.t.Fatalf("launch: %v", err)
	}
	return info
}

func (h *harness) task(taskID int) *TaskGroup {
	var t *TaskGroup
	h.run(func() { t = h.m.tasks[taskID] })
	return t
}

func (h *harness) unit(token id.UnitToken) *ScreenUnit {
	var u *ScreenUnit
	h.run(func() { u = h.m.units[token] })
	return u
}

func (h *harness) unitState(token id.UnitToken) UnitState {
	var s UnitState
	var ok bool
	h.run(func() {
		if u := h.m.units[token]; u != nil {
			s, ok = u.state, true
		}
	})
	if !ok {
		h.t.Fatalf("unit %s not found", token)
	}
	return s
}

func (h *harness) display(displayID int) *Display {
	var d *Display
	h.run(func() { d = h.m.displays[displayID] })
	return d
}

// bareManager builds a manager whose loop never starts, for direct
// single-goroutine tests of the pure algorithms.
func bareManager() *Manager {
	return NewManager(exec.NewLoop(logging.NewNop(), nil), logging.NewNop(), nil,
		&fakeClient{}, &fakeCompositor{}, &fakeOrganizer{}, &fakePersister{}, Options{})
}

// addTestDisplay attaches a display directly, bypassing the loop.
func addTestDisplay(m *Manager, displayID int, bounds geometry.Rect, density int, insets geometry.Insets) *Display {
	d := newDisplay(displayID, "test", bounds, density, insets)
	d.FreeformCapable = true
	m.displays[displayID] = d
	m.displayOrder = append(m.displayOrder, displayID)
	return d
}

// addTestTask attaches a new task group directly under parent.
func addTestTask(m *Manager, parent *Container, mode WindowingMode, typ ActivityType) *TaskGroup {
	t := &TaskGroup{wm: m, ID: m.nextTaskID}
	m.nextTaskID++
	t.c = &Container{kind: KindTask, task: t}
	t.c.requested.Mode = mode
	t.c.requested.Type = typ
	if t.c.requested.Type == TypeUndefined {
		t.c.requested.Type = TypeStandard
	}
	if err := parent.AddChild(t.c, PositionTop); err != nil {
		panic(err)
	}
	t.ResolveOverrideConfiguration(parent.resolved)
	m.tasks[t.ID] = t
	return t
}

// addTestUnit attaches a new screen unit directly under t.
func addTestUnit(m *Manager, t *TaskGroup, opts UnitOptions, state UnitState) *ScreenUnit {
	u := newScreenUnit(opts)
	u.state = state
	if err := t.c.AddChild(u.c, PositionTop); err != nil {
		panic(err)
	}
	u.c.resolved = t.c.resolved
	m.units[u.Token] = u
	return u
}
