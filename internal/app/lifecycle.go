package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kv-shepherd.io/shepherd/internal/audit"
)

const gaugeRefreshInterval = 15 * time.Second

// Start starts the queue, the worker pool, and the background gauge
// refresh loop. ctx governs all three.
func (a *Application) Start(ctx context.Context) error {
	a.Queue.Start(ctx)
	a.Pool.Start(ctx)

	go a.runGaugeRefreshLoop(ctx) //nolint:naked-goroutine // dedicated background lifecycle loop.

	a.AuditLog.LogEvent(audit.NewEvent(audit.EventSystemStart, audit.SeverityInfo, "", "", nil))
	a.Log.Info("application started")
	return nil
}

// Shutdown stops the worker pool and queue, draining in-flight work.
func (a *Application) Shutdown() {
	a.AuditLog.LogEvent(audit.NewEvent(audit.EventSystemStop, audit.SeverityInfo, "", "", nil))

	a.Pool.Stop(true)
	a.Queue.Stop()
}

func (a *Application) runGaugeRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(gaugeRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refreshGauges()
		}
	}
}

func (a *Application) refreshGauges() {
	qm := a.Queue.GetMetrics()
	a.Collector.UpdateQueueSize(qm.QueueSize)

	pm := a.Pool.GetMetrics()
	a.Collector.UpdateWorkerCount(pm.WorkerCount)

	a.Log.Debug("gauge refresh",
		zap.Int("queue_size", qm.QueueSize),
		zap.Int("active_count", qm.ActiveCount),
		zap.Int("worker_count", pm.WorkerCount),
	)
}
