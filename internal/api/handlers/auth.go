package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kv-shepherd.io/shepherd/internal/api/middleware"
	"kv-shepherd.io/shepherd/internal/audit"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login handles POST /api/v1/auth/login.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "username and password are required"})
		return
	}

	permissions, err := s.operators.Authenticate(req.Username, req.Password)
	if err != nil {
		if s.auditLog != nil {
			s.auditLog.LogSecurityEvent(audit.EventAuthFailed, audit.SeverityWarning, req.Username, map[string]any{
				"reason": "invalid credentials",
			})
		}
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"code": "INVALID_CREDENTIALS"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(s.jwtCfg, req.Username, req.Username, nil, permissions)
	if err != nil {
		s.log.Error("generate token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR"})
		return
	}

	if s.auditLog != nil {
		s.auditLog.LogSecurityEvent(audit.EventAuthSucceeded, audit.SeverityInfo, req.Username, nil)
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00")})
}
