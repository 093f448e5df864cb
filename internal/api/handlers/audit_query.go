package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/audit"
)

// ListEvents handles GET /api/v1/audit/events, optionally filtered by
// event_type, severity, user_id, or workspace_id, and bounded by limit.
func (s *Server) ListEvents(c *gin.Context) {
	filter := audit.QueryFilter{
		EventType:   audit.EventType(c.Query("event_type")),
		Severity:    audit.Severity(c.Query("severity")),
		UserID:      c.Query("user_id"),
		WorkspaceID: c.Query("workspace_id"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	c.JSON(http.StatusOK, gin.H{"events": s.auditLog.QueryEvents(filter)})
}

// RecentEvents handles GET /api/v1/audit/recent.
func (s *Server) RecentEvents(c *gin.Context) {
	count := 50
	if v, err := strconv.Atoi(c.Query("count")); err == nil && v > 0 {
		count = v
	}
	c.JSON(http.StatusOK, gin.H{"events": s.auditLog.GetRecentEvents(count)})
}

// SecurityEvents handles GET /api/v1/audit/security-events?since=1h.
func (s *Server) SecurityEvents(c *gin.Context) {
	since := 24 * time.Hour
	if v, err := time.ParseDuration(c.Query("since")); err == nil {
		since = v
	}
	c.JSON(http.StatusOK, gin.H{"events": s.auditLog.GetSecurityEvents(since)})
}

// Statistics handles GET /api/v1/audit/statistics.
func (s *Server) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, s.auditLog.GetStatistics())
}
