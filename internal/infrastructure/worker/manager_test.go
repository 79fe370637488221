package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockWorker struct {
	name     string
	startErr error
	stopErr  error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (w *mockWorker) Name() string { return w.name }

func (w *mockWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	w.started.Store(true)
	return nil
}

func (w *mockWorker) Stop() error {
	w.stopped.Store(true)
	return w.stopErr
}

type mockRunner struct {
	interval time.Duration
	exited   atomic.Bool
}

func (r *mockRunner) Run(ctx context.Context, interval time.Duration) {
	r.interval = interval
	<-ctx.Done()
	r.exited.Store(true)
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(zap.NewNop())
	ok := &mockWorker{name: "ok"}
	broken := &mockWorker{name: "broken", startErr: errors.New("boom")}
	m.Register(ok)
	m.Register(broken)

	assert.Equal(t, 2, m.Count())
	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.True(t, ok.started.Load())
	assert.False(t, broken.started.Load())

	assert.Error(t, m.StartAll(context.Background()))

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.True(t, ok.stopped.Load())

	// Stopping twice is a no-op
	assert.NoError(t, m.StopAll())
}

func TestManager_StopAllReportsFailures(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(&mockWorker{name: "a", stopErr: errors.New("stuck")})
	m.Register(&mockWorker{name: "b"})

	require.NoError(t, m.StartAll(context.Background()))
	err := m.StopAll()
	assert.ErrorContains(t, err, "failed to stop 1 workers")
}

func TestSessionSweeper_StopsWithContext(t *testing.T) {
	runner := &mockRunner{}
	sweeper := NewSessionSweeper(runner, time.Minute)
	m := NewManager(zap.NewNop())
	m.Register(sweeper)

	require.NoError(t, m.StartAll(context.Background()))
	assert.Error(t, sweeper.Start(context.Background()))

	require.NoError(t, m.StopAll())
	assert.True(t, runner.exited.Load())
	assert.Equal(t, time.Minute, runner.interval)
	assert.Equal(t, "session-sweeper", sweeper.Name())
}
