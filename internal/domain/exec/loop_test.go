package exec

import (
	"testing"
	"time"

	"github.com/glasskit/windowd/internal/infrastructure/logging"
)

func newTestLoop() *Loop {
	l := NewLoop(logging.NewNop(), nil)
	l.Start()
	return l
}

func TestCallRunsSerially(t *testing.T) {
	l := newTestLoop()
	defer l.Stop()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		if err := l.Call("test", func() { order = append(order, i) }); err != nil {
			t.Fatalf("Call failed: %v", err)
		}
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("tasks out of order: %v", order)
		}
	}
}

func TestPostDoesNotBlock(t *testing.T) {
	l := newTestLoop()
	defer l.Stop()

	ran := make(chan struct{})
	if err := l.Post("test", func() { close(ran) }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("posted task never ran")
	}
}

func TestScheduleFires(t *testing.T) {
	l := newTestLoop()
	defer l.Stop()

	fired := make(chan struct{})
	l.Schedule("timeout", 10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never fired")
	}
}

func TestScheduleCancel(t *testing.T) {
	l := newTestLoop()
	defer l.Stop()

	fired := make(chan struct{})
	timer := l.Schedule("timeout", 20*time.Millisecond, func() { close(fired) })
	timer.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled timer still fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopRejectsNewWork(t *testing.T) {
	l := newTestLoop()
	l.Stop()

	if err := l.Call("test", func() {}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if err := l.Post("test", func() {}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	l := newTestLoop()
	defer l.Stop()

	_ = l.Call("boom", func() { panic("boom") })

	ok := false
	if err := l.Call("after", func() { ok = true }); err != nil {
		t.Fatalf("Call after panic failed: %v", err)
	}
	if !ok {
		t.Fatal("loop stopped executing after panic")
	}
}
