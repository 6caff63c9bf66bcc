package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/orchestration"
)

type countingRunner struct {
	mu       sync.Mutex
	calls    int
	triggers []string
	err      error
	block    chan struct{} // when set, Run blocks until closed
}

func (r *countingRunner) Run(ctx context.Context, trigger string) (*orchestration.RunReport, error) {
	r.mu.Lock()
	r.calls++
	r.triggers = append(r.triggers, trigger)
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	return &orchestration.RunReport{RunID: "test-run"}, nil
}

func (r *countingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestServiceStart_SchedulesPipelineRun(t *testing.T) {
	runner := &countingRunner{}
	svc := NewService(runner, "@every 1s")

	require.NoError(t, svc.Start())
	defer svc.Stop()

	assert.Eventually(t, func() bool {
		return runner.callCount() >= 1
	}, 3*time.Second, 50*time.Millisecond, "pipeline run was never triggered")

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, "scheduled", runner.triggers[0])
}

func TestServiceStart_InvalidCronExpression(t *testing.T) {
	svc := NewService(&countingRunner{}, "not a cron spec")
	err := svc.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a cron spec")
}

func TestServiceStart_SkipsOverlappingRuns(t *testing.T) {
	block := make(chan struct{})
	runner := &countingRunner{block: block}
	svc := NewService(runner, "@every 1s")

	require.NoError(t, svc.Start())

	// The first tick blocks inside Run; later ticks must be skipped, not
	// stacked.
	assert.Eventually(t, func() bool {
		return runner.callCount() == 1
	}, 3*time.Second, 50*time.Millisecond)
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, 1, runner.callCount())

	close(block)
	svc.Stop()
}

func TestServiceRunFailure_DoesNotStopScheduler(t *testing.T) {
	runner := &countingRunner{err: errors.New("training job failed")}
	svc := NewService(runner, "@every 1s")

	require.NoError(t, svc.Start())
	defer svc.Stop()

	assert.Eventually(t, func() bool {
		return runner.callCount() >= 2
	}, 5*time.Second, 50*time.Millisecond, "scheduler stopped after a failed run")
}
