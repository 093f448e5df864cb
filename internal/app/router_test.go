package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kv-shepherd.io/shepherd/internal/config"
)

func TestSanitizeAllowedOrigins(t *testing.T) {
	got := sanitizeAllowedOrigins([]string{
		"  http://localhost:3000  ",
		"",
		"*",
		"http://localhost:3000",
		"https://example.com",
	})

	require.Equal(t, []string{
		"http://localhost:3000",
		"https://example.com",
	}, got)
}

func TestBuildCORSConfig_UsesDefaultOriginsWhenEmpty(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"", "*", "   "},
		},
	}

	corsCfg := buildCORSConfig(cfg)
	require.Equal(t, []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}, corsCfg.AllowOrigins)
}

func TestBuildCORSConfig_UsesConfiguredOrigins(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"https://admin.example.com"},
		},
	}

	corsCfg := buildCORSConfig(cfg)
	require.Equal(t, []string{"https://admin.example.com"}, corsCfg.AllowOrigins)
}
