package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestQueue(t *testing.T, cfg Config) *Queue {
	t.Helper()
	q := New(cfg, zaptest.NewLogger(t))
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func TestQueue_SubmitAndExecute(t *testing.T) {
	q := newTestQueue(t, Config{MaxConcurrent: 2})

	var wg sync.WaitGroup
	wg.Add(1)

	var gotResult any
	q.SetCallbacks(Callbacks{
		OnComplete: func(taskID string, result any) {
			gotResult = result
			wg.Done()
		},
	})

	_, err := q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return "done", nil
	}, PriorityNormal, nil, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	wg.Wait()
	if gotResult != "done" {
		t.Errorf("result = %v, want %q", gotResult, "done")
	}
}

func TestQueue_HigherPriorityRunsFirst(t *testing.T) {
	q := New(Config{MaxConcurrent: 1}, zaptest.NewLogger(t))
	q.Start(context.Background())
	defer q.Stop()

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	wg.Add(3)

	q.SetCallbacks(Callbacks{
		OnComplete: func(taskID string, result any) {
			mu.Lock()
			order = append(order, result.(string))
			mu.Unlock()
			wg.Done()
		},
	})

	block := make(chan struct{})
	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		<-block
		return "first", nil
	}, PriorityNormal, nil, nil)

	// give the worker loop time to dequeue and start running "first"
	// (holding the only concurrency slot) before the rest arrive
	time.Sleep(20 * time.Millisecond)

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return "low", nil
	}, PriorityLow, nil, nil)
	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return "critical", nil
	}, PriorityCritical, nil, nil)

	close(block)
	wg.Wait()

	if len(order) != 3 || order[0] != "first" {
		t.Fatalf("order = %v, want first task to run first", order)
	}
	if order[1] != "critical" || order[2] != "low" {
		t.Errorf("order = %v, want [first critical low]", order)
	}
}

func TestQueue_SubmitRejectedWhenFull(t *testing.T) {
	q := New(Config{MaxSize: 1, MaxConcurrent: 1}, zaptest.NewLogger(t))

	block := make(chan struct{})
	var rejected *Task
	q.SetCallbacks(Callbacks{
		OnQueueFull: func(task *Task) { rejected = task },
	})

	q.Start(context.Background())
	defer q.Stop()

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		<-block
		return nil, nil
	}, PriorityNormal, nil, nil)
	time.Sleep(20 * time.Millisecond)

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return nil, nil
	}, PriorityNormal, nil, nil)

	_, err := q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return nil, nil
	}, PriorityNormal, nil, nil)
	close(block)

	if err == nil {
		t.Fatal("Submit() error = nil, want queue full error")
	}
	if rejected == nil {
		t.Error("OnQueueFull callback was not invoked")
	}
}

func TestQueue_RetriesOnFailure(t *testing.T) {
	q := newTestQueue(t, Config{MaxConcurrent: 1})

	var attempts int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)

	q.SetCallbacks(Callbacks{
		OnError: func(taskID string, err error) { wg.Done() },
	})

	maxRetries := 2
	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, errors.New("boom")
	}, PriorityNormal, nil, &maxRetries)

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (1 initial + 2 retries)", attempts)
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New(Config{MaxConcurrent: 1}, zaptest.NewLogger(t))

	block := make(chan struct{})
	q.Start(context.Background())
	defer func() { close(block); q.Stop() }()

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		<-block
		return nil, nil
	}, PriorityNormal, nil, nil)
	time.Sleep(20 * time.Millisecond)

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) { return nil, nil }, PriorityNormal, nil, nil)
	q.Submit(func(ctx context.Context, params map[string]any) (any, error) { return nil, nil }, PriorityNormal, nil, nil)

	cleared := q.Clear()
	if cleared != 2 {
		t.Errorf("Clear() = %d, want 2", cleared)
	}
}

func TestQueue_WaitForCompletion(t *testing.T) {
	q := newTestQueue(t, Config{MaxConcurrent: 2})

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		time.Sleep(10 * time.Millisecond)
		return nil, nil
	}, PriorityNormal, nil, nil)

	if !q.WaitForCompletion(time.Second) {
		t.Error("WaitForCompletion() = false, want true")
	}
}

func TestQueue_GetMetrics(t *testing.T) {
	q := newTestQueue(t, Config{MaxConcurrent: 2})

	var wg sync.WaitGroup
	wg.Add(1)
	q.SetCallbacks(Callbacks{OnComplete: func(string, any) { wg.Done() }})

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return nil, nil
	}, PriorityNormal, nil, nil)
	wg.Wait()

	m := q.GetMetrics()
	if m.Submitted != 1 || m.Completed != 1 {
		t.Errorf("metrics = %+v, want Submitted=1 Completed=1", m)
	}
}

func TestQueue_Cancel(t *testing.T) {
	q := New(Config{MaxConcurrent: 1}, zaptest.NewLogger(t))

	block := make(chan struct{})
	q.Start(context.Background())
	defer func() { close(block); q.Stop() }()

	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		<-block
		return nil, nil
	}, PriorityNormal, nil, nil)
	time.Sleep(20 * time.Millisecond)

	id, err := q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return nil, nil
	}, PriorityNormal, nil, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if ok := q.Cancel(id); !ok {
		t.Fatal("Cancel() = false, want true for a still-pending task")
	}
	if ok := q.Cancel(id); ok {
		t.Fatal("Cancel() = true on second call, want false")
	}
	if ok := q.Cancel("no-such-task"); ok {
		t.Fatal("Cancel() = true for unknown task id, want false")
	}

	m := q.GetMetrics()
	if m.Cancelled != 1 {
		t.Errorf("Cancelled = %d, want 1", m.Cancelled)
	}
	if m.QueueSize != 0 {
		t.Errorf("QueueSize = %d, want 0 after cancel", m.QueueSize)
	}
}

func TestQueue_RetryFailsWhenQueueFullOnReenqueue(t *testing.T) {
	q := New(Config{MaxSize: 1, MaxConcurrent: 1}, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	wg.Add(1)
	var gotErr error
	q.SetCallbacks(Callbacks{
		OnError: func(taskID string, err error) {
			gotErr = err
			wg.Done()
		},
	})

	q.Start(context.Background())
	defer q.Stop()

	block := make(chan struct{})
	maxRetries := 1
	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		<-block
		return nil, errors.New("boom")
	}, PriorityNormal, nil, &maxRetries)
	time.Sleep(20 * time.Millisecond)

	// Fill the single queue slot so the retrying task cannot be re-enqueued.
	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return nil, nil
	}, PriorityNormal, nil, nil)

	close(block)
	wg.Wait()

	if gotErr == nil {
		t.Fatal("OnError was not invoked for a retry dropped by a full queue")
	}

	m := q.GetMetrics()
	if m.Failed < 1 {
		t.Errorf("Failed = %d, want at least 1", m.Failed)
	}
}

func TestQueue_CallbackPanicIsRecovered(t *testing.T) {
	q := newTestQueue(t, Config{MaxConcurrent: 1})

	var wg sync.WaitGroup
	wg.Add(1)
	q.SetCallbacks(Callbacks{
		OnComplete: func(taskID string, result any) {
			defer wg.Done()
			panic("callback exploded")
		},
	})

	_, err := q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return "done", nil
	}, PriorityNormal, nil, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	wg.Wait()

	// The queue must still be usable after a panicking callback.
	var wg2 sync.WaitGroup
	wg2.Add(1)
	q.SetCallbacks(Callbacks{
		OnComplete: func(taskID string, result any) { wg2.Done() },
	})
	q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return "done", nil
	}, PriorityNormal, nil, nil)
	wg2.Wait()
}

func TestQueue_SubmitBatch(t *testing.T) {
	q := newTestQueue(t, Config{MaxConcurrent: 2})

	ids := q.SubmitBatch([]BatchItem{
		{Fn: func(ctx context.Context, params map[string]any) (any, error) { return nil, nil }, Priority: PriorityNormal},
		{Fn: func(ctx context.Context, params map[string]any) (any, error) { return nil, nil }, Priority: PriorityHigh},
	})
	if len(ids) != 2 {
		t.Fatalf("SubmitBatch() returned %d ids, want 2", len(ids))
	}
}
