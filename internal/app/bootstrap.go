// Package app is the composition root: it wires config, logging, the
// audit log, the metrics registry, the task queue, and the worker pool
// into a gin router for the admin surface.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kv-shepherd.io/shepherd/internal/api/handlers"
	"kv-shepherd.io/shepherd/internal/api/middleware"
	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/config"
	"kv-shepherd.io/shepherd/internal/dispatch"
	"kv-shepherd.io/shepherd/internal/gitops"
	"kv-shepherd.io/shepherd/internal/metrics"
	"kv-shepherd.io/shepherd/internal/pool"
	"kv-shepherd.io/shepherd/internal/queue"
)

// Application holds the composed, running dependencies of the process.
type Application struct {
	Config     *config.Config
	Router     *gin.Engine
	Log        *zap.Logger
	AuditLog   *audit.Logger
	Metrics    *metrics.Registry
	Collector  *metrics.Collector
	Queue      *queue.Queue
	Pool       *pool.Pool
	Dispatcher *dispatch.Dispatcher
}

// Bootstrap constructs every component from cfg without starting any
// background goroutine; call Start to begin serving.
func Bootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Application, error) {
	auditLog, err := audit.NewLogger(audit.Config{
		LogPath:          cfg.Audit.LogPath,
		MaxFileSizeBytes: cfg.Audit.MaxFileSizeBytes,
		BackupCount:      cfg.Audit.BackupCount,
		MaxMemoryEvents:  cfg.Audit.MaxMemoryEvents,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init audit log: %w", err)
	}

	metricsReg := metrics.NewRegistry(nil)
	collector := metrics.NewCollector(metricsReg)

	q := queue.New(queue.Config{
		MaxSize:       cfg.Queue.MaxSize,
		MaxConcurrent: cfg.Queue.MaxConcurrent,
		MaxRetries:    cfg.Queue.MaxRetries,
	}, log)
	q.SetCallbacks(queue.Callbacks{
		OnComplete: func(taskID string, result any) {
			log.Debug("task completed", zap.String("task_id", taskID))
		},
		OnError: func(taskID string, err error) {
			log.Warn("task failed", zap.String("task_id", taskID), zap.Error(err))
		},
	})

	p, err := pool.New(pool.Config{
		MinWorkers:         cfg.Pool.MinWorkers,
		MaxWorkers:         cfg.Pool.MaxWorkers,
		MaxTasksPerWorker:  cfg.Pool.MaxTasksPerWorker,
		ScaleUpThreshold:   cfg.Pool.ScaleUpThreshold,
		ScaleDownThreshold: cfg.Pool.ScaleDownThreshold,
		ScaleInterval:      cfg.Pool.ScaleInterval,
		MaxQueueSize:       cfg.Pool.MaxQueueSize,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init worker pool: %w", err)
	}
	p.SetCallbacks(pool.Callbacks{
		OnTaskAssigned: func(workerID, taskID string) {
			collector.RecordTaskStart(taskID, taskID)
		},
		OnTaskCompleted: func(workerID, taskID string) {
			collector.RecordTaskComplete(taskID, true)
		},
		OnTaskFailed: func(workerID, taskID string, err error) {
			collector.RecordTaskComplete(taskID, false)
		},
	})

	dispatcher := dispatch.New(log, auditLog, collector, gitops.NewNoopTracer(), cfg.Sanitize.WorkspaceRoot)
	gitAdapter := gitops.NewExecGitAdapter("")
	workspaceAllocator := gitops.NewDiskWorkspaceAllocator(cfg.Sanitize.WorkspaceRoot)
	dispatch.RegisterOperations(dispatcher, gitAdapter, workspaceAllocator, q)

	operators := handlers.NewOperatorStore(cfg.Security.Operators)
	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.SessionSecret),
		ExpiresIn:  cfg.Security.JWTExpiresIn,
	}
	server := handlers.NewServer(log, auditLog, metricsReg, q, p, operators, jwtCfg, dispatcher)

	return &Application{
		Config:     cfg,
		Router:     newRouter(cfg, server, jwtCfg),
		Log:        log,
		AuditLog:   auditLog,
		Metrics:    metricsReg,
		Collector:  collector,
		Queue:      q,
		Pool:       p,
		Dispatcher: dispatcher,
	}, nil
}
