package app

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/api/handlers"
	"kv-shepherd.io/shepherd/internal/api/middleware"
	"kv-shepherd.io/shepherd/internal/config"
)

// Public routes that do NOT require JWT authentication.
var publicPrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/health/",
}

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(buildCORSConfig(cfg)))
	router.Use(jwtSkipPublic(jwtCfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health/live", server.Live)
		v1.GET("/health/ready", server.Ready)
		v1.POST("/auth/login", server.Login)

		v1.GET("/audit/events", server.ListEvents)
		v1.GET("/audit/recent", server.RecentEvents)
		v1.GET("/audit/security-events", server.SecurityEvents)
		v1.GET("/audit/statistics", server.Statistics)

		v1.GET("/queue/status", server.QueueStatus)
		v1.GET("/queue/tasks", server.QueueTasks)

		v1.GET("/pool/status", server.PoolStatus)
		v1.GET("/pool/workers", server.PoolWorkers)
		v1.POST("/pool/scale", middleware.RequirePermission("pool:scale"), server.ScalePool)

		v1.POST("/operations/execute", middleware.RequirePermission("operations:execute"), server.Execute)
	}

	return router
}

func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}

	allowedOrigins := sanitizeAllowedOrigins(cfg.Server.AllowedOrigins)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	corsCfg.AllowOrigins = allowedOrigins
	return corsCfg
}

func sanitizeAllowedOrigins(origins []string) []string {
	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		cleaned = append(cleaned, origin)
	}
	return slices.Compact(cleaned)
}

// jwtSkipPublic returns middleware that applies JWT auth only on non-public routes.
func jwtSkipPublic(jwtCfg middleware.JWTConfig) gin.HandlerFunc {
	jwtMw := middleware.JWTAuthWithConfig(jwtCfg)
	return func(c *gin.Context) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}
