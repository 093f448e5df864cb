package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	p, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p.Start(context.Background())
	t.Cleanup(func() { p.Stop(false) })
	return p
}

func TestPool_StartCreatesMinWorkers(t *testing.T) {
	p := newTestPool(t, Config{MinWorkers: 3, MaxWorkers: 5})

	if got := p.WorkerCount(); got != 3 {
		t.Fatalf("WorkerCount() = %d, want 3", got)
	}
}

func TestPool_SubmitExecutesTask(t *testing.T) {
	p := newTestPool(t, Config{MinWorkers: 1, MaxWorkers: 2})

	var wg sync.WaitGroup
	wg.Add(1)
	var gotTaskID string
	p.SetCallbacks(Callbacks{
		OnTaskCompleted: func(workerID, taskID string) {
			gotTaskID = taskID
			wg.Done()
		},
	})
	p.SetTaskProcessor(func(ctx context.Context, taskID string, data any) error {
		return nil
	})

	if ok := p.Submit("task-1", nil, 0); !ok {
		t.Fatal("Submit() = false, want true")
	}

	wg.Wait()
	if gotTaskID != "task-1" {
		t.Errorf("completed task id = %q, want task-1", gotTaskID)
	}
}

func TestPool_SubmitFailedTask(t *testing.T) {
	p := newTestPool(t, Config{MinWorkers: 1, MaxWorkers: 2})

	var wg sync.WaitGroup
	wg.Add(1)
	p.SetCallbacks(Callbacks{
		OnTaskFailed: func(workerID, taskID string, err error) { wg.Done() },
	})
	p.SetTaskProcessor(func(ctx context.Context, taskID string, data any) error {
		return errors.New("boom")
	})

	p.Submit("task-1", nil, 0)
	wg.Wait()

	m := p.GetMetrics()
	if m.FailedTasks != 1 {
		t.Errorf("FailedTasks = %d, want 1", m.FailedTasks)
	}
}

func TestPool_SubmitWhenNotRunning(t *testing.T) {
	p, err := New(Config{MinWorkers: 1, MaxWorkers: 1}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if ok := p.Submit("task-1", nil, 0); ok {
		t.Error("Submit() = true on a pool that was never started, want false")
	}
}

func TestPool_ForceScale(t *testing.T) {
	p := newTestPool(t, Config{MinWorkers: 1, MaxWorkers: 5})

	got := p.ForceScale(4)
	if got != 4 {
		t.Fatalf("ForceScale(4) = %d, want 4", got)
	}
	if got := p.WorkerCount(); got != 4 {
		t.Errorf("WorkerCount() = %d, want 4", got)
	}

	got = p.ForceScale(10)
	if got != 5 {
		t.Errorf("ForceScale(10) clamped = %d, want 5 (max_workers)", got)
	}
}

func TestPool_ForceScaleDown(t *testing.T) {
	p := newTestPool(t, Config{MinWorkers: 1, MaxWorkers: 5})
	p.ForceScale(4)

	time.Sleep(20 * time.Millisecond) // let new workers settle to idle

	got := p.ForceScale(1)
	if got != 1 {
		t.Errorf("ForceScale(1) = %d, want 1", got)
	}
}

func TestWorker_IsHealthy(t *testing.T) {
	w := newWorker("id-1", "worker-1")
	w.setStatus(StatusIdle)
	if !w.IsHealthy() {
		t.Error("IsHealthy() = false for a freshly created idle worker, want true")
	}

	w.setStatus(StatusFailed)
	if w.IsHealthy() {
		t.Error("IsHealthy() = true for a failed worker, want false")
	}
}

func TestPool_GetMetrics_SuccessRate(t *testing.T) {
	p := newTestPool(t, Config{MinWorkers: 1, MaxWorkers: 1})

	var wg sync.WaitGroup
	wg.Add(2)
	p.SetCallbacks(Callbacks{
		OnTaskCompleted: func(string, string) { wg.Done() },
	})
	p.SetTaskProcessor(func(ctx context.Context, taskID string, data any) error { return nil })

	p.Submit("t1", nil, 0)
	p.Submit("t2", nil, 0)
	wg.Wait()

	m := p.GetMetrics()
	if m.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", m.SuccessRate)
	}
}
