package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueueStatus handles GET /api/v1/queue/status.
func (s *Server) QueueStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.queue.GetMetrics())
}

// QueueTasks handles GET /api/v1/queue/tasks: a snapshot of pending tasks
// sorted by the queue's priority/creation ordering, for introspection.
func (s *Server) QueueTasks(c *gin.Context) {
	limit := 100
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	c.JSON(http.StatusOK, gin.H{"tasks": s.queue.QueuedTasks(limit)})
}

// PoolStatus handles GET /api/v1/pool/status.
func (s *Server) PoolStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.pool.GetMetrics())
}

// PoolWorkers handles GET /api/v1/pool/workers.
func (s *Server) PoolWorkers(c *gin.Context) {
	workers := s.pool.Workers()
	out := make([]gin.H, 0, len(workers))
	for _, w := range workers {
		out = append(out, gin.H{
			"id":              w.ID,
			"name":            w.Name,
			"status":          w.GetStatus(),
			"healthy":         w.IsHealthy(),
			"tasks_completed": w.TasksCompleted(),
			"tasks_failed":    w.TasksFailed(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"workers": out})
}

type scaleRequest struct {
	Target int `json:"target" binding:"required"`
}

// ScalePool handles POST /api/v1/pool/scale: force the pool to a target
// worker count, clamped to [MinWorkers, MaxWorkers].
func (s *Server) ScalePool(c *gin.Context) {
	var req scaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST"})
		return
	}
	actual := s.pool.ForceScale(req.Target)
	c.JSON(http.StatusOK, gin.H{"worker_count": actual})
}
