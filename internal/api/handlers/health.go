package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Live handles GET /api/v1/health/live: the process is up and serving.
func (s *Server) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "live"})
}

// Ready handles GET /api/v1/health/ready: the server has both a queue and
// a pool configured. Whether they are running is not checked.
func (s *Server) Ready(c *gin.Context) {
	if s.queue == nil || s.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
