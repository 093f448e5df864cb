package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kv-shepherd.io/shepherd/internal/config"
	"kv-shepherd.io/shepherd/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Log:      config.LogConfig{Level: "error", Format: "json"},
		Security: config.SecurityConfig{SessionSecret: "0123456789abcdef0123456789abcdef"},
		Queue:    config.QueueConfig{MaxSize: 100, MaxConcurrent: 4, MaxRetries: 3},
		Pool: config.PoolConfig{
			MinWorkers: 1, MaxWorkers: 2, MaxTasksPerWorker: 10,
			ScaleUpThreshold: 0.8, ScaleDownThreshold: 0.3, ScaleInterval: time.Minute,
			MaxQueueSize: 100,
		},
		Audit:    config.AuditConfig{MaxMemoryEvents: 100},
		Sanitize: config.SanitizeConfig{WorkspaceRoot: "/tmp/workspaces"},
	}
}

func TestBootstrap_ConstructsApplication(t *testing.T) {
	app, err := Bootstrap(context.Background(), testConfig(), logger.L())
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Queue)
	assert.NotNil(t, app.Pool)
	assert.NotNil(t, app.AuditLog)
	assert.NotNil(t, app.Dispatcher)
}

func TestApplication_StartAndShutdown(t *testing.T) {
	app, err := Bootstrap(context.Background(), testConfig(), logger.L())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx))
	assert.NotPanics(t, func() {
		app.Shutdown()
	})
}
