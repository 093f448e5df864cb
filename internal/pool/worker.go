// Package pool implements a self-scaling pool of workers that execute Git
// operations pulled off an internal task channel, with health supervision
// and load-based scaling, wrapping panjf2000/ants as the goroutine
// execution substrate the way the rest of this codebase does.
//
// Import Path: kv-shepherd.io/shepherd/internal/pool
package pool

import (
	"sync/atomic"
	"time"
)

// Status is a Worker's lifecycle state.
type Status string

const (
	StatusStarting Status = "starting"
	StatusIdle     Status = "idle"
	StatusBusy     Status = "busy"
	StatusStopping Status = "stopping"
	StatusFailed   Status = "failed"
)

const healthyHeartbeatWindow = 30 * time.Second

// Worker tracks one logical worker slot: its lifecycle state, current
// assignment, and lifetime task counters.
type Worker struct {
	ID            string
	Name          string
	StartedAt     time.Time
	CurrentTaskID atomic.Value // string

	status        atomic.Value // Status
	lastHeartbeat atomic.Value // time.Time
	tasksDone     atomic.Int64
	tasksFailed   atomic.Int64
}

func newWorker(id, name string) *Worker {
	w := &Worker{ID: id, Name: name, StartedAt: time.Now()}
	w.setStatus(StatusStarting)
	w.touchHeartbeat()
	w.CurrentTaskID.Store("")
	return w
}

func (w *Worker) setStatus(s Status) { w.status.Store(s) }

// GetStatus returns the worker's current lifecycle state.
func (w *Worker) GetStatus() Status {
	if v, ok := w.status.Load().(Status); ok {
		return v
	}
	return StatusStarting
}

func (w *Worker) touchHeartbeat() { w.lastHeartbeat.Store(time.Now()) }

func (w *Worker) lastHeartbeatAt() time.Time {
	if v, ok := w.lastHeartbeat.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}

// IsHealthy reports whether the worker is in a running state and has
// heartbeated within the health window.
func (w *Worker) IsHealthy() bool {
	switch w.GetStatus() {
	case StatusIdle, StatusBusy:
	default:
		return false
	}
	return time.Since(w.lastHeartbeatAt()) < healthyHeartbeatWindow
}

// TasksCompleted returns the lifetime completed-task count.
func (w *Worker) TasksCompleted() int64 { return w.tasksDone.Load() }

// TasksFailed returns the lifetime failed-task count.
func (w *Worker) TasksFailed() int64 { return w.tasksFailed.Load() }
