package ipc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/shared/id"
)

type recordingAcker struct {
	mu     sync.Mutex
	tokens []id.UnitToken
}

func (r *recordingAcker) AckPause(token id.UnitToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *recordingAcker) acked() []id.UnitToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]id.UnitToken(nil), r.tokens...)
}

func TestLoopbackAcksPause(t *testing.T) {
	l := NewLoopback(logging.NewNop())
	acker := &recordingAcker{}
	l.Bind(acker)

	require.NoError(t, l.ScheduleLifecycleCallback(7, "unit_x", wm.CallbackPause))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(acker.acked()) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, []id.UnitToken{"unit_x"}, acker.acked())
	assert.Equal(t, 1, l.Count(wm.CallbackPause))
}

func TestLoopbackNonPauseCallbacksDoNotAck(t *testing.T) {
	l := NewLoopback(logging.NewNop())
	acker := &recordingAcker{}
	l.Bind(acker)

	require.NoError(t, l.ScheduleLifecycleCallback(7, "unit_y", wm.CallbackResume))
	require.NoError(t, l.ScheduleLifecycleCallback(7, "unit_y", wm.CallbackStop))
	require.NoError(t, l.ScheduleLifecycleCallback(7, "unit_y", wm.CallbackDestroy))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, acker.acked())
	assert.Equal(t, 1, l.Count(wm.CallbackResume))
	assert.Equal(t, 1, l.Count(wm.CallbackStop))
	assert.Equal(t, 1, l.Count(wm.CallbackDestroy))
}

func TestLoopbackUnboundPauseIsSafe(t *testing.T) {
	l := NewLoopback(logging.NewNop())
	require.NoError(t, l.ScheduleLifecycleCallback(1, "unit_z", wm.CallbackPause))
	assert.Equal(t, 1, l.Count(wm.CallbackPause))
}
