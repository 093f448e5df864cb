// Package handlers implements the admin surface's HTTP handlers: login,
// health, and read-only introspection over the audit log, task queue, and
// worker pool. This is an operational surface, not the tool-protocol
// façade the dispatcher serves.
//
// Import Path: kv-shepherd.io/shepherd/internal/api/handlers
package handlers

import (
	"go.uber.org/zap"

	"kv-shepherd.io/shepherd/internal/api/middleware"
	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/dispatch"
	"kv-shepherd.io/shepherd/internal/metrics"
	"kv-shepherd.io/shepherd/internal/pool"
	"kv-shepherd.io/shepherd/internal/queue"
)

// Server holds the dependencies every admin-surface handler needs.
type Server struct {
	log        *zap.Logger
	auditLog   *audit.Logger
	metrics    *metrics.Registry
	queue      *queue.Queue
	pool       *pool.Pool
	operators  *OperatorStore
	jwtCfg     middleware.JWTConfig
	dispatcher *dispatch.Dispatcher
}

// NewServer constructs a Server from its composed dependencies.
func NewServer(log *zap.Logger, auditLog *audit.Logger, metricsReg *metrics.Registry, q *queue.Queue, p *pool.Pool, operators *OperatorStore, jwtCfg middleware.JWTConfig, dispatcher *dispatch.Dispatcher) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:        log,
		auditLog:   auditLog,
		metrics:    metricsReg,
		queue:      q,
		pool:       p,
		operators:  operators,
		jwtCfg:     jwtCfg,
		dispatcher: dispatcher,
	}
}
