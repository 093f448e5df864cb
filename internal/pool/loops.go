package pool

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const taskPollTimeout = 5 * time.Second

// workerLoop pulls tasks off the shared channel and executes them
// through the installed TaskProcessor until ctx is cancelled or the
// worker is retired.
func (p *Pool) workerLoop(ctx context.Context, w *Worker) {
	w.setStatus(StatusIdle)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case item := <-p.taskCh:
			p.runAssignedTask(ctx, w, item)

			total := w.TasksCompleted() + w.TasksFailed()
			if total >= int64(p.cfg.MaxTasksPerWorker) {
				p.log.Info("worker max tasks reached, restarting",
					zap.String("worker_id", w.ID), zap.String("name", w.Name))
				go func() {
					p.stopWorker(w.ID, false)
					p.createWorker(w.Name + "-restarted")
				}()
				return
			}
		case <-time.After(taskPollTimeout):
			continue
		}
	}
}

func (p *Pool) runAssignedTask(ctx context.Context, w *Worker, item queuedItem) {
	w.setStatus(StatusBusy)
	w.CurrentTaskID.Store(item.taskID)
	w.touchHeartbeat()
	p.assignments.Store(item.taskID, w.ID)

	p.callbacksMu.RLock()
	assigned := p.callbacks.OnTaskAssigned
	p.callbacksMu.RUnlock()
	if assigned != nil {
		assigned(w.ID, item.taskID)
	}

	p.processorMu.RLock()
	proc := p.processor
	p.processorMu.RUnlock()

	var err error
	if proc != nil {
		err = proc(ctx, item.taskID, item.data)
	}

	p.callbacksMu.RLock()
	defer p.callbacksMu.RUnlock()

	if err == nil {
		w.tasksDone.Add(1)
		p.counters.completedTasks.Add(1)
		if cb := p.callbacks.OnTaskCompleted; cb != nil {
			cb(w.ID, item.taskID)
		}
	} else {
		w.tasksFailed.Add(1)
		p.counters.failedTasks.Add(1)
		p.log.Error("task failed", zap.String("worker_id", w.ID), zap.String("task_id", item.taskID), zap.Error(err))
		if cb := p.callbacks.OnTaskFailed; cb != nil {
			cb(w.ID, item.taskID, err)
		}
	}

	p.assignments.Delete(item.taskID)
	w.CurrentTaskID.Store("")
	w.setStatus(StatusIdle)
	w.touchHeartbeat()
}

// supervisorLoop restarts workers that stop heartbeating.
func (p *Pool) supervisorLoop() {
	defer p.loopsWg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			for _, w := range p.Workers() {
				if w.IsHealthy() {
					continue
				}
				p.log.Warn("worker unhealthy, restarting",
					zap.String("worker_id", w.ID), zap.String("name", w.Name), zap.String("status", string(w.GetStatus())))
				p.counters.totalWorkersFailed.Add(1)

				p.callbacksMu.RLock()
				cb := p.callbacks.OnWorkerFailure
				p.callbacksMu.RUnlock()
				if cb != nil {
					cb(w.ID, fmt.Errorf("worker unhealthy: status=%s", w.GetStatus()))
				}

				p.stopWorker(w.ID, false)
				p.createWorker(w.Name + "-health")
			}
		}
	}
}

// scalerLoop periodically adjusts worker count to queue load, using the
// same threshold-scaled step sizes as the system this pool is modeled on:
// scale up by max(1, floor(usage*5)), scale down by
// max(1, floor((downThreshold-usage)*10)).
func (p *Pool) scalerLoop() {
	defer p.loopsWg.Done()

	ticker := time.NewTicker(p.cfg.ScaleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.scaleOnce()
		}
	}
}

func (p *Pool) scaleOnce() {
	queueUsage := float64(len(p.taskCh)) / float64(p.cfg.MaxQueueSize)
	current := p.WorkerCount()

	switch {
	case queueUsage > p.cfg.ScaleUpThreshold && current < p.cfg.MaxWorkers:
		step := int(queueUsage * 5)
		if step < 1 {
			step = 1
		}
		if room := p.cfg.MaxWorkers - current; step > room {
			step = room
		}
		for i := 0; i < step; i++ {
			p.createWorker(fmt.Sprintf("worker-scaleup-%d", i+1))
		}
		p.log.Info("scaled up workers", zap.Int("added", step), zap.Int("total", current+step))

	case queueUsage < p.cfg.ScaleDownThreshold && current > p.cfg.MinWorkers:
		step := int((p.cfg.ScaleDownThreshold - queueUsage) * 10)
		if step < 1 {
			step = 1
		}
		if room := current - p.cfg.MinWorkers; step > room {
			step = room
		}
		removed := 0
		for i := 0; i < step; i++ {
			idle := p.firstIdleWorker()
			if idle == "" {
				break
			}
			p.stopWorker(idle, true)
			removed++
		}
		p.log.Info("scaled down workers", zap.Int("removed", removed), zap.Int("total", current-removed))
	}
}
