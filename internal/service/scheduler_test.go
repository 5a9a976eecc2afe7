package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestCycles_RuminationRunsEveryStep(t *testing.T) {
	h := newHarness(t)
	h.llm.GenerateDreamError = errors.New("model down")
	cycles := NewCycles(adminID, h.rumination, h.dream, h.scholar, h.consolidation, h.bridge, zap.NewNop())

	res, err := cycles.Rumination(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Steps, 4)
	names := make([]string, len(res.Steps))
	for i, s := range res.Steps {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"dream", "scholar", "digest", "deliver"}, names)
	assert.Zero(t, res.Failed(), "model failures are reported inside step results")
	assert.NotEmpty(t, res.RunID)
}

func TestCycles_IdentityRunsConsolidationThenBridge(t *testing.T) {
	h := newHarness(t)
	cycles := NewCycles(adminID, h.rumination, h.dream, h.scholar, h.consolidation, h.bridge, zap.NewNop())

	res, err := cycles.Identity(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Steps, 2)
	assert.Equal(t, "consolidation", res.Steps[0].Name)
	assert.Equal(t, "bridge", res.Steps[1].Name)
}

func TestCycles_CancelledContextMarksRemainingSteps(t *testing.T) {
	h := newHarness(t)
	cycles := NewCycles(adminID, h.rumination, h.dream, h.scholar, h.consolidation, h.bridge, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := cycles.Rumination(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Failed())
}

func TestNewScheduler_RejectsInvalidCron(t *testing.T) {
	_, err := NewScheduler(zap.NewNop(), Job{Name: "bad", Schedule: "every tuesday", Run: noopRun})
	assert.Error(t, err)

	_, err = NewScheduler(zap.NewNop(), Job{Name: "missing"})
	assert.Error(t, err)
}

func TestScheduler_StartStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, err := NewScheduler(zap.NewNop(),
		Job{Name: JobRumination, Schedule: "0 */12 * * *", Run: noopRun},
		Job{Name: JobIdentity, Schedule: "0 */6 * * *", Run: noopRun},
		Job{Name: JobBridge, Run: noopRun},
	)
	require.NoError(t, err)

	s.Start()
	s.Stop()
	s.Stop()
}

func TestScheduler_TriggerUnknownJob(t *testing.T) {
	s, err := NewScheduler(zap.NewNop())
	require.NoError(t, err)

	_, err = s.Trigger(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
	assert.ErrorIs(t, s.Dispatch("nope"), ErrUnknownJob)
}

func TestScheduler_OverlappingTriggersShareOneRun(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s, err := NewScheduler(zap.NewNop(), Job{Name: JobRumination, Run: func(ctx context.Context) (*CycleResult, error) {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
		return &CycleResult{Job: JobRumination}, nil
	}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*CycleResult, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = s.Trigger(context.Background(), JobRumination)
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = s.Trigger(context.Background(), JobRumination)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	assert.Same(t, results[0], results[1])
}

func TestScheduler_RunIsDetachedFromCallerCancellation(t *testing.T) {
	s, err := NewScheduler(zap.NewNop(), Job{Name: JobBridge, Run: func(ctx context.Context) (*CycleResult, error) {
		return &CycleResult{Job: JobBridge}, ctx.Err()
	}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Trigger(ctx, JobBridge)
	require.NoError(t, err)
	assert.Equal(t, JobBridge, res.Job)
}

func TestScheduler_RunTimeout(t *testing.T) {
	s, err := NewScheduler(zap.NewNop(), Job{Name: JobBridge, Run: func(ctx context.Context) (*CycleResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	require.NoError(t, err)
	s.SetTimeout(20 * time.Millisecond)

	_, err = s.Trigger(context.Background(), JobBridge)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StopWaitsForDispatchedRuns(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var done atomic.Bool
	s, err := NewScheduler(zap.NewNop(), Job{Name: JobConsolidation, Run: func(ctx context.Context) (*CycleResult, error) {
		time.Sleep(30 * time.Millisecond)
		done.Store(true)
		return &CycleResult{}, nil
	}})
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(JobConsolidation))
	s.Stop()

	assert.True(t, done.Load())
}

func noopRun(ctx context.Context) (*CycleResult, error) {
	return &CycleResult{}, nil
}
