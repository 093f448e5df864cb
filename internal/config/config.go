// Package config provides configuration management for the Git
// operations service.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like SERVER_PORT, LOG_LEVEL)
// 3. Default values
//
// Import Path: kv-shepherd.io/shepherd/internal/config
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Pool     PoolConfig     `mapstructure:"pool"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Sanitize SanitizeConfig `mapstructure:"sanitize"`
}

// ServerConfig contains HTTP server settings for the admin surface.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// SecurityConfig contains security-related settings.
// Secrets are auto-generated on first boot if missing.
type SecurityConfig struct {
	SessionSecret       string         `mapstructure:"session_secret"`
	JWTVerificationKeys []string       `mapstructure:"jwt_verification_keys"`
	JWTExpiresIn        time.Duration  `mapstructure:"jwt_expires_in"`
	PasswordPolicy      PasswordPolicy `mapstructure:"password_policy"`
	Operators           []OperatorConfig `mapstructure:"operators"`
}

// OperatorConfig is one admin-surface login account. PasswordHash is a
// bcrypt hash, never a plaintext password.
type OperatorConfig struct {
	Username     string   `mapstructure:"username"`
	PasswordHash string   `mapstructure:"password_hash"`
	Permissions  []string `mapstructure:"permissions"`
}

// PasswordPolicy defines password validation rules for the admin login
// surface. Default mode is "nist" (NIST 800-63B compliant).
type PasswordPolicy struct {
	Mode             string `mapstructure:"mode"` // "nist" (default) or "legacy"
	RequireUppercase bool   `mapstructure:"require_uppercase"`
	RequireLowercase bool   `mapstructure:"require_lowercase"`
	RequireDigit     bool   `mapstructure:"require_digit"`
	RequireSpecial   bool   `mapstructure:"require_special"`
}

// QueueConfig mirrors internal/queue.Config.
type QueueConfig struct {
	MaxSize       int `mapstructure:"max_size"`
	MaxConcurrent int `mapstructure:"max_concurrent"`
	MaxRetries    int `mapstructure:"max_retries"`
}

// PoolConfig mirrors internal/pool.Config.
type PoolConfig struct {
	MinWorkers         int           `mapstructure:"min_workers"`
	MaxWorkers         int           `mapstructure:"max_workers"`
	MaxTasksPerWorker  int           `mapstructure:"max_tasks_per_worker"`
	ScaleUpThreshold   float64       `mapstructure:"scale_up_threshold"`
	ScaleDownThreshold float64       `mapstructure:"scale_down_threshold"`
	ScaleInterval      time.Duration `mapstructure:"scale_interval"`
	MaxQueueSize       int           `mapstructure:"max_queue_size"`
}

// AuditConfig mirrors internal/audit.Config.
type AuditConfig struct {
	LogPath          string `mapstructure:"log_path"`
	MaxFileSizeBytes int64  `mapstructure:"max_file_size_bytes"`
	BackupCount      int    `mapstructure:"backup_count"`
	MaxMemoryEvents  int    `mapstructure:"max_memory_events"`
}

// SanitizeConfig controls the filesystem boundary sanitized paths are
// anchored to.
type SanitizeConfig struct {
	WorkspaceRoot string `mapstructure:"workspace_root"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
// No prefix: uses standard names like SERVER_PORT, LOG_LEVEL.
// Maps nested config: queue.max_size → QUEUE_MAX_SIZE.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shepherd")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ensureSecrets(); err != nil {
		return nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Security.SessionSecret == "" {
		return fmt.Errorf("security.session_secret must not be empty")
	}
	if len(c.Security.SessionSecret) < 32 {
		return fmt.Errorf("security.session_secret must be at least 32 characters")
	}
	if c.Sanitize.WorkspaceRoot == "" {
		return fmt.Errorf("sanitize.workspace_root must not be empty")
	}
	if c.Pool.MinWorkers > c.Pool.MaxWorkers {
		return fmt.Errorf("pool.min_workers must not exceed pool.max_workers")
	}
	return nil
}

// ensureSecrets auto-generates missing secrets on first boot.
func (c *Config) ensureSecrets() error {
	if c.Security.SessionSecret == "" {
		secret, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate session secret: %w", err)
		}
		c.Security.SessionSecret = secret
		logBootstrapWarn(
			"auto-generated session_secret; set SECURITY_SESSION_SECRET env var for persistence",
			zap.Int("length", len(secret)),
		)
	}
	return nil
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

// generateSecureRandomHex produces a hex-encoded string of n random bytes.
func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Security
	v.SetDefault("security.password_policy.mode", "nist")
	v.SetDefault("security.jwt_verification_keys", []string{})
	v.SetDefault("security.jwt_expires_in", "8h")

	// Queue
	v.SetDefault("queue.max_size", 1000)
	v.SetDefault("queue.max_concurrent", 10)
	v.SetDefault("queue.max_retries", 3)

	// Pool
	v.SetDefault("pool.min_workers", 2)
	v.SetDefault("pool.max_workers", 10)
	v.SetDefault("pool.max_tasks_per_worker", 100)
	v.SetDefault("pool.scale_up_threshold", 0.8)
	v.SetDefault("pool.scale_down_threshold", 0.3)
	v.SetDefault("pool.scale_interval", "30s")
	v.SetDefault("pool.max_queue_size", 1000)

	// Audit
	v.SetDefault("audit.log_path", "")
	v.SetDefault("audit.max_file_size_bytes", 10*1024*1024)
	v.SetDefault("audit.backup_count", 5)
	v.SetDefault("audit.max_memory_events", 1000)

	// Sanitize
	v.SetDefault("sanitize.workspace_root", "/var/lib/shepherd/workspaces")
}
