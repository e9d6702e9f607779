package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnceExecutesTask(t *testing.T) {
	var runs atomic.Int64
	s := NewSweeper("test", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, s.RunOnce(context.Background()))
	require.NoError(t, s.RunOnce(context.Background()))
	assert.EqualValues(t, 2, runs.Load())
}

func TestRunOnceRecoversPanic(t *testing.T) {
	s := NewSweeper("panicky", time.Hour, func(ctx context.Context) error {
		panic("boom")
	})
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestStartStopLifecycle(t *testing.T) {
	var runs atomic.Int64
	s := NewSweeper("ticker", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start()
	// 重复启动不生效
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())

	// 重复停止安全
	s.Stop()
}

func TestErrorDoesNotStopLoop(t *testing.T) {
	var runs atomic.Int64
	s := NewSweeper("flaky", 10*time.Millisecond, func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	})
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}
