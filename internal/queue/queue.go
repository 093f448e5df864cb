package queue

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// Config controls queue capacity, concurrency, and retry behavior.
type Config struct {
	// MaxSize bounds the number of queued (not yet running) tasks. Zero
	// means unlimited.
	MaxSize int

	// MaxConcurrent bounds how many tasks run at once.
	MaxConcurrent int

	// MaxRetries is the default retry budget for a task that does not
	// specify its own.
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Callbacks are invoked around task completion. All three are optional.
type Callbacks struct {
	OnComplete  func(taskID string, result any)
	OnError     func(taskID string, err error)
	OnQueueFull func(task *Task)
}

// Metrics is a snapshot of queue activity counters.
type Metrics struct {
	Submitted             int64         `json:"submitted"`
	Completed             int64         `json:"completed"`
	Failed                int64         `json:"failed"`
	Retried               int64         `json:"retried"`
	Cancelled             int64         `json:"cancelled"`
	AvgProcessingTime     time.Duration `json:"avg_processing_time"`
	QueueSize             int           `json:"queue_size"`
	ActiveCount           int           `json:"active_count"`
	MaxConcurrent         int           `json:"max_concurrent"`
	AvailableSlots        int           `json:"available_slots"`
}

type counters struct {
	submitted, completed, failed, retried, cancelled atomic.Int64
	totalProcessing                                  atomic.Int64 // nanoseconds
}

// Queue is a priority task queue with bounded concurrency. Tasks of equal
// priority run in submission order; higher-priority tasks always run
// before lower-priority ones still waiting.
type Queue struct {
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	items  taskHeap
	closed bool

	sem chan struct{}

	active   sync.WaitGroup
	activeN  atomic.Int64
	counters counters

	callbacksMu sync.RWMutex
	callbacks   Callbacks

	runningOnce sync.Once
	stopped     chan struct{}

	ctx context.Context
}

// New constructs a Queue. The queue does not start processing until Start
// is called.
func New(cfg Config, log *zap.Logger) *Queue {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	q := &Queue{
		cfg:     cfg,
		log:     log,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		stopped: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// SetCallbacks installs the completion/error/queue-full callbacks.
func (q *Queue) SetCallbacks(cb Callbacks) {
	q.callbacksMu.Lock()
	q.callbacks = cb
	q.callbacksMu.Unlock()
}

// Start begins processing submitted tasks in the background under ctx.
// Task functions receive ctx (or a descendant) as their execution
// context. Calling Start more than once has no additional effect.
func (q *Queue) Start(ctx context.Context) {
	q.runningOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		q.ctx = ctx
		q.log.Info("starting task queue",
			zap.Int("max_size", q.cfg.MaxSize),
			zap.Int("max_concurrent", q.cfg.MaxConcurrent),
		)
		go q.processLoop()
	})
}

// Stop halts processing: tasks still waiting are dequeued and run before
// the processing loop exits, and Stop blocks until the loop has exited and
// every running task has finished.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	<-q.stopped
	q.active.Wait()
	q.log.Info("task queue stopped")
}

// safeCallback invokes fn and recovers from any panic, logging it instead
// of letting it crash the task goroutine. A callback error or panic must
// never be allowed to abort task accounting.
func (q *Queue) safeCallback(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("queue callback panicked",
				zap.String("callback", name),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

// Cancel removes taskID from the queue if it has not yet started running
// and counts it as cancelled. It reports whether taskID was found pending.
// A task already running cannot be cancelled.
func (q *Queue) Cancel(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.items {
		if t.ID == taskID {
			heap.Remove(&q.items, i)
			q.counters.cancelled.Add(1)
			q.log.Debug("task cancelled", zap.String("task_id", taskID))
			return true
		}
	}
	return false
}

// Submit enqueues a task and returns its ID. If the queue is at capacity,
// it returns an AppError of KindTransientQueueFull after invoking
// OnQueueFull.
func (q *Queue) Submit(fn TaskFunc, priority Priority, params map[string]any, maxRetries *int) (string, error) {
	retries := q.cfg.MaxRetries
	if maxRetries != nil {
		retries = *maxRetries
	}

	task := &Task{
		ID:         uuid.NewString(),
		Priority:   priority,
		CreatedAt:  time.Now(),
		Fn:         fn,
		Params:     params,
		MaxRetries: retries,
	}

	q.mu.Lock()
	if q.cfg.MaxSize > 0 && len(q.items) >= q.cfg.MaxSize {
		q.mu.Unlock()
		q.log.Warn("queue full, task rejected", zap.String("task_id", task.ID))
		q.callbacksMu.RLock()
		cb := q.callbacks.OnQueueFull
		q.callbacksMu.RUnlock()
		if cb != nil {
			q.safeCallback("OnQueueFull", func() { cb(task) })
		}
		return "", apperrors.TransientQueueFull(apperrors.CodeQueueFull, "task queue is at capacity")
	}

	heap.Push(&q.items, task)
	q.counters.submitted.Add(1)
	q.cond.Signal()
	q.mu.Unlock()

	q.log.Debug("task submitted", zap.String("task_id", task.ID), zap.Int("priority", int(task.Priority)))
	return task.ID, nil
}

// BatchItem is one entry of a SubmitBatch call.
type BatchItem struct {
	Fn       TaskFunc
	Priority Priority
	Params   map[string]any
}

// SubmitBatch submits each item in order, stopping at the first rejection
// due to a full queue. It returns the IDs of every task accepted.
func (q *Queue) SubmitBatch(items []BatchItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, err := q.Submit(item.Fn, item.Priority, item.Params, nil)
		if err != nil {
			break
		}
		ids = append(ids, id)
	}
	return ids
}

// Clear removes every not-yet-running task and returns how many were
// discarded.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cleared := len(q.items)
	q.items = nil
	q.log.Info("queue cleared", zap.Int("count", cleared))
	return cleared
}

// QueueSize returns the number of tasks waiting to run.
func (q *Queue) QueueSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ActiveCount returns the number of tasks currently executing.
func (q *Queue) ActiveCount() int {
	return int(q.activeN.Load())
}

// QueuedTasks returns a snapshot of up to limit waiting tasks, ordered by
// priority then creation time.
func (q *Queue) QueuedTasks(limit int) []Info {
	if limit <= 0 {
		limit = 100
	}

	q.mu.Lock()
	snapshot := make(taskHeap, len(q.items))
	copy(snapshot, q.items)
	q.mu.Unlock()

	ordered := make([]*Task, len(snapshot))
	copy(ordered, snapshot)
	h := taskHeap(ordered)
	heap.Init(&h)

	out := make([]Info, 0, limit)
	for h.Len() > 0 && len(out) < limit {
		t := heap.Pop(&h).(*Task)
		out = append(out, Info{ID: t.ID, Priority: t.Priority, CreatedAt: t.CreatedAt, Params: t.Params})
	}
	return out
}

// GetMetrics returns a point-in-time snapshot of queue activity.
func (q *Queue) GetMetrics() Metrics {
	completed := q.counters.completed.Load()
	totalNanos := q.counters.totalProcessing.Load()

	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(totalNanos / completed)
	}

	active := int(q.activeN.Load())
	return Metrics{
		Submitted:      q.counters.submitted.Load(),
		Completed:      completed,
		Failed:         q.counters.failed.Load(),
		Retried:        q.counters.retried.Load(),
		Cancelled:      q.counters.cancelled.Load(),
		AvgProcessingTime: avg,
		QueueSize:      q.QueueSize(),
		ActiveCount:    active,
		MaxConcurrent:  q.cfg.MaxConcurrent,
		AvailableSlots: q.cfg.MaxConcurrent - active,
	}
}

// WaitForCompletion blocks until the queue is empty and no tasks are
// active, or until timeout elapses (zero means wait forever). It reports
// whether completion was reached.
func (q *Queue) WaitForCompletion(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if q.QueueSize() == 0 && q.ActiveCount() == 0 {
			return true
		}
		if timeout > 0 && time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (q *Queue) processLoop() {
	defer close(q.stopped)

	for {
		// Take a concurrency slot before popping, so a waiting task stays in
		// the heap (where a higher-priority arrival can overtake it) until
		// it can actually run.
		q.sem <- struct{}{}

		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed && len(q.items) == 0 {
			q.mu.Unlock()
			<-q.sem
			return
		}
		task := heap.Pop(&q.items).(*Task)
		q.mu.Unlock()

		q.active.Add(1)
		q.activeN.Add(1)
		go func(t *Task) {
			defer func() {
				<-q.sem
				q.active.Done()
				q.activeN.Add(-1)
			}()
			q.runTask(t)
		}(task)
	}
}

func (q *Queue) runTask(task *Task) {
	start := time.Now()

	ctx := q.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := task.Fn(ctx, task.Params)
	if err == nil {
		elapsed := time.Since(start)
		q.counters.completed.Add(1)
		q.counters.totalProcessing.Add(int64(elapsed))
		q.log.Debug("task completed", zap.String("task_id", task.ID), zap.Duration("elapsed", elapsed))

		q.callbacksMu.RLock()
		cb := q.callbacks.OnComplete
		q.callbacksMu.RUnlock()
		if cb != nil {
			q.safeCallback("OnComplete", func() { cb(task.ID, result) })
		}
		return
	}

	if task.Retries < task.MaxRetries {
		task.Retries++
		q.counters.retried.Add(1)
		q.log.Warn("task failed, retrying",
			zap.String("task_id", task.ID),
			zap.Int("attempt", task.Retries),
			zap.Int("max_attempts", task.MaxRetries),
			zap.Error(err),
		)

		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			q.counters.failed.Add(1)
			return
		}
		if q.cfg.MaxSize > 0 && len(q.items) >= q.cfg.MaxSize {
			q.mu.Unlock()
			q.counters.failed.Add(1)
			q.log.Error("queue full, retried task dropped", zap.String("task_id", task.ID))

			q.callbacksMu.RLock()
			cb := q.callbacks.OnError
			q.callbacksMu.RUnlock()
			if cb != nil {
				fullErr := apperrors.TransientQueueFull(apperrors.CodeQueueFull, "task queue is at capacity")
				q.safeCallback("OnError", func() { cb(task.ID, fullErr) })
			}
			return
		}
		heap.Push(&q.items, task)
		q.cond.Signal()
		q.mu.Unlock()
		return
	}

	q.counters.failed.Add(1)
	q.log.Error("task failed permanently", zap.String("task_id", task.ID), zap.Error(err))

	q.callbacksMu.RLock()
	cb := q.callbacks.OnError
	q.callbacksMu.RUnlock()
	if cb != nil {
		q.safeCallback("OnError", func() { cb(task.ID, err) })
	}
}
