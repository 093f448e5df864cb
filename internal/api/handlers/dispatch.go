package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/api/middleware"
)

type dispatchRequest struct {
	Operation   string         `json:"operation" binding:"required"`
	WorkspaceID string         `json:"workspace_id"`
	Params      map[string]any `json:"params"`
}

// Execute handles POST /api/v1/operations/execute: the single HTTP
// entrypoint into the dispatcher's operation registry.
func (s *Server) Execute(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST"})
		return
	}

	userID := middleware.GetUserID(c.Request.Context())
	result, err := s.dispatcher.Dispatch(c.Request.Context(), req.Operation, userID, req.WorkspaceID, req.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
