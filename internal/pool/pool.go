package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Config controls pool sizing and scaling behavior.
type Config struct {
	MinWorkers        int
	MaxWorkers        int
	MaxTasksPerWorker int
	ScaleUpThreshold  float64
	ScaleDownThreshold float64
	ScaleInterval     time.Duration
	MaxQueueSize      int
}

func (c Config) withDefaults() Config {
	if c.MinWorkers <= 0 {
		c.MinWorkers = 2
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 10
	}
	if c.MaxTasksPerWorker <= 0 {
		c.MaxTasksPerWorker = 100
	}
	if c.ScaleUpThreshold <= 0 {
		c.ScaleUpThreshold = 0.8
	}
	if c.ScaleDownThreshold <= 0 {
		c.ScaleDownThreshold = 0.3
	}
	if c.ScaleInterval <= 0 {
		c.ScaleInterval = 30 * time.Second
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 1000
	}
	return c
}

// TaskProcessor executes one unit of work assigned to a worker.
type TaskProcessor func(ctx context.Context, taskID string, taskData any) error

// Callbacks observe pool lifecycle events. All fields are optional.
type Callbacks struct {
	OnWorkerStart   func(w *Worker)
	OnWorkerStop    func(w *Worker)
	OnWorkerFailure func(workerID string, err error)
	OnTaskAssigned  func(workerID, taskID string)
	OnTaskCompleted func(workerID, taskID string)
	OnTaskFailed    func(workerID, taskID string, err error)
}

type queuedItem struct {
	taskID   string
	data     any
	priority int
}

type poolCounters struct {
	totalTasks, completedTasks, failedTasks   atomic.Int64
	totalWorkersCreated, totalWorkersFailed   atomic.Int64
}

// Metrics is a point-in-time snapshot of pool activity.
type Metrics struct {
	TotalTasks          int64   `json:"total_tasks"`
	CompletedTasks      int64   `json:"completed_tasks"`
	FailedTasks         int64   `json:"failed_tasks"`
	SuccessRate         float64 `json:"success_rate"`
	WorkerCount         int     `json:"worker_count"`
	HealthyWorkers      int     `json:"healthy_workers"`
	BusyWorkers         int     `json:"busy_workers"`
	IdleWorkers         int     `json:"idle_workers"`
	QueueSize           int     `json:"queue_size"`
	TotalWorkersCreated int64   `json:"total_workers_created"`
	TotalWorkersFailed  int64   `json:"total_workers_failed"`
}

// Pool is a self-scaling group of workers consuming tasks from an
// internal FIFO channel and executing them through an ants-backed
// goroutine substrate.
type Pool struct {
	cfg Config
	log *zap.Logger
	ex  *ants.Pool

	mu      sync.RWMutex
	workers map[string]*Worker
	cancels map[string]context.CancelFunc

	assignments sync.Map // taskID -> workerID

	taskCh chan queuedItem

	counters poolCounters

	callbacksMu sync.RWMutex
	callbacks   Callbacks

	processorMu sync.RWMutex
	processor   TaskProcessor

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	loopsWg sync.WaitGroup
}

// New constructs a Pool. The pool does not start workers or background
// loops until Start is called.
func New(cfg Config, log *zap.Logger) (*Pool, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	p := &Pool{
		cfg:     cfg,
		log:     log,
		workers: make(map[string]*Worker),
		cancels: make(map[string]context.CancelFunc),
		taskCh:  make(chan queuedItem, cfg.MaxQueueSize),
	}

	ex, err := ants.NewPool(cfg.MaxWorkers,
		ants.WithPanicHandler(func(r any) {
			log.Error("worker pool task panicked", zap.Any("panic", r))
		}),
		ants.WithNonblocking(false),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker execution pool: %w", err)
	}
	p.ex = ex

	return p, nil
}

// SetCallbacks installs pool lifecycle callbacks.
func (p *Pool) SetCallbacks(cb Callbacks) {
	p.callbacksMu.Lock()
	p.callbacks = cb
	p.callbacksMu.Unlock()
}

// SetTaskProcessor installs the function used to execute assigned tasks.
func (p *Pool) SetTaskProcessor(proc TaskProcessor) {
	p.processorMu.Lock()
	p.processor = proc
	p.processorMu.Unlock()
}

// Start brings the pool to MinWorkers, and launches the supervisor and
// scaler background loops under ctx.
func (p *Pool) Start(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.log.Info("starting worker pool", zap.Int("min_workers", p.cfg.MinWorkers), zap.Int("max_workers", p.cfg.MaxWorkers))

	p.loopsWg.Add(2)
	go p.supervisorLoop()
	go p.scalerLoop()

	for i := 0; i < p.cfg.MinWorkers; i++ {
		p.createWorker(fmt.Sprintf("worker-%d", i+1))
	}

	p.log.Info("worker pool started", zap.Int("worker_count", p.WorkerCount()))
}

// Stop halts the pool. If graceful, it waits for the task channel to
// drain before tearing down workers.
func (p *Pool) Stop(graceful bool) {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	p.log.Info("stopping worker pool", zap.Bool("graceful", graceful))

	if graceful {
		for len(p.taskCh) > 0 {
			time.Sleep(50 * time.Millisecond)
		}
	}

	p.cancel()
	p.loopsWg.Wait()

	p.mu.Lock()
	ids := make([]string, 0, len(p.workers))
	for id := range p.workers {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.stopWorker(id, graceful)
	}

	p.ex.Release()
	p.log.Info("worker pool stopped")
}

// Submit enqueues a task for execution. It returns false if the pool is
// not running or the internal queue is full.
func (p *Pool) Submit(taskID string, data any, priority int) bool {
	if !p.running.Load() {
		return false
	}

	p.counters.totalTasks.Add(1)
	select {
	case p.taskCh <- queuedItem{taskID: taskID, data: data, priority: priority}:
		return true
	default:
		p.log.Warn("task queue full, task rejected", zap.String("task_id", taskID))
		return false
	}
}

// WorkerCount returns the number of tracked workers.
func (p *Pool) WorkerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.workers)
}

// Workers returns a snapshot of tracked workers.
func (p *Pool) Workers() []*Worker {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Worker, 0, len(p.workers))
	for _, w := range p.workers {
		out = append(out, w)
	}
	return out
}

// GetWorker returns the worker with the given ID, if tracked.
func (p *Pool) GetWorker(id string) (*Worker, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	w, ok := p.workers[id]
	return w, ok
}

// GetMetrics returns a point-in-time snapshot of pool activity.
func (p *Pool) GetMetrics() Metrics {
	p.mu.RLock()
	healthy, busy := 0, 0
	for _, w := range p.workers {
		if w.IsHealthy() {
			healthy++
		}
		if w.GetStatus() == StatusBusy {
			busy++
		}
	}
	count := len(p.workers)
	p.mu.RUnlock()

	total := p.counters.totalTasks.Load()
	completed := p.counters.completedTasks.Load()

	var successRate float64
	if total > 0 {
		successRate = float64(completed) / float64(total)
	}

	return Metrics{
		TotalTasks:          total,
		CompletedTasks:      completed,
		FailedTasks:         p.counters.failedTasks.Load(),
		SuccessRate:         successRate,
		WorkerCount:         count,
		HealthyWorkers:      healthy,
		BusyWorkers:         busy,
		IdleWorkers:         healthy - busy,
		QueueSize:           len(p.taskCh),
		TotalWorkersCreated: p.counters.totalWorkersCreated.Load(),
		TotalWorkersFailed:  p.counters.totalWorkersFailed.Load(),
	}
}

func (p *Pool) createWorker(name string) string {
	id := uuid.NewString()
	w := newWorker(id, name)

	ctx, cancel := context.WithCancel(p.ctx)

	p.mu.Lock()
	p.workers[id] = w
	p.cancels[id] = cancel
	p.mu.Unlock()

	p.counters.totalWorkersCreated.Add(1)

	if err := p.ex.Submit(func() { p.workerLoop(ctx, w) }); err != nil {
		p.log.Error("failed to submit worker loop", zap.String("worker_id", id), zap.Error(err))
		p.mu.Lock()
		delete(p.workers, id)
		delete(p.cancels, id)
		p.mu.Unlock()
		cancel()
		return ""
	}

	p.log.Info("worker created", zap.String("worker_id", id), zap.String("name", name))

	p.callbacksMu.RLock()
	cb := p.callbacks.OnWorkerStart
	p.callbacksMu.RUnlock()
	if cb != nil {
		cb(w)
	}

	return id
}

func (p *Pool) stopWorker(id string, graceful bool) {
	p.mu.Lock()
	w, ok := p.workers[id]
	cancel, hasCancel := p.cancels[id]
	if ok {
		w.setStatus(StatusStopping)
	}
	delete(p.workers, id)
	delete(p.cancels, id)
	p.mu.Unlock()

	if !ok {
		return
	}

	p.log.Info("stopping worker", zap.String("worker_id", id), zap.String("name", w.Name))
	if hasCancel {
		cancel()
	}

	p.callbacksMu.RLock()
	cb := p.callbacks.OnWorkerStop
	p.callbacksMu.RUnlock()
	if cb != nil {
		cb(w)
	}
}

// ForceScale sets the worker count to target, clamped to [MinWorkers,
// MaxWorkers], and returns the resulting worker count.
func (p *Pool) ForceScale(target int) int {
	if target < p.cfg.MinWorkers {
		target = p.cfg.MinWorkers
	}
	if target > p.cfg.MaxWorkers {
		target = p.cfg.MaxWorkers
	}

	current := p.WorkerCount()
	if target > current {
		for i := 0; i < target-current; i++ {
			p.createWorker(fmt.Sprintf("worker-force-%d", i+1))
		}
	} else if target < current {
		for i := 0; i < current-target; i++ {
			if idle := p.firstIdleWorker(); idle != "" {
				p.stopWorker(idle, true)
			} else {
				break
			}
		}
	}

	return p.WorkerCount()
}

func (p *Pool) firstIdleWorker() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, w := range p.workers {
		if w.GetStatus() == StatusIdle {
			return id
		}
	}
	return ""
}

// CleanupStaleTasks marks as failed any in-flight assignment whose
// worker has not heartbeated within timeout, freeing the worker back to
// idle. It returns the number of tasks cleaned up.
func (p *Pool) CleanupStaleTasks(timeout time.Duration) int {
	cleaned := 0

	p.assignments.Range(func(key, value any) bool {
		taskID := key.(string)
		workerID := value.(string)

		w, ok := p.GetWorker(workerID)
		if !ok {
			return true
		}
		if cur, _ := w.CurrentTaskID.Load().(string); cur != taskID {
			return true
		}
		if time.Since(w.lastHeartbeatAt()) <= timeout {
			return true
		}

		w.tasksFailed.Add(1)
		p.counters.failedTasks.Add(1)
		w.CurrentTaskID.Store("")
		w.setStatus(StatusIdle)
		p.assignments.Delete(taskID)
		cleaned++

		p.log.Warn("stale task cleaned up", zap.String("task_id", taskID), zap.String("worker_id", workerID))
		return true
	})

	return cleaned
}
