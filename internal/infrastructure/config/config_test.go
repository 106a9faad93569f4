package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "5099", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Server.PopupIdle.Duration)

	// Backend config
	assert.Equal(t, []string{
		"http://localhost:5057",
		"http://127.0.0.1:5057",
		"http://localhost:5060",
		"http://127.0.0.1:5060",
	}, cfg.Backend.Candidates)
	assert.Equal(t, "gpt-4o-mini", cfg.Backend.Model)
	assert.Equal(t, 1500*time.Millisecond, cfg.Backend.ProbeTimeout.Duration)
	assert.Equal(t, 45*time.Second, cfg.Backend.RequestTimeout.Duration)

	// Storage and session config
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 200, cfg.Storage.MaxPages)
	assert.Equal(t, 3, cfg.Session.AlternativeLimit)
	assert.True(t, cfg.Session.Previews)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"ECOSWIPE_SERVER_PORT":                    "6000",
		"ECOSWIPE_BACKEND_CANDIDATES":             "http://a:1,http://b:2",
		"ECOSWIPE_BACKEND_PROBE_TIMEOUT":          "250ms",
		"ECOSWIPE_BACKEND_REQUESTS_PER_SECOND":    "2.5",
		"ECOSWIPE_STORAGE_DRIVER":                 "sqlite",
		"ECOSWIPE_STORAGE_MAX_PAGES":              "10",
		"ECOSWIPE_SESSION_ALTERNATIVE_LIMIT":      "5",
		"ECOSWIPE_LOGGING_LEVEL":                  "debug",
		"ECOSWIPE_LOGGING_DEVELOPMENT":            "true",
		"ECOSWIPE_RATE_LIMIT_ENABLED":             "false",
		"ECOSWIPE_RATE_LIMIT_REQUESTS_PER_SECOND": "7",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, cfg.Backend.Candidates)
	assert.Equal(t, 250*time.Millisecond, cfg.Backend.ProbeTimeout.Duration)
	assert.Equal(t, 2.5, cfg.Backend.RequestsPerSecond)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.Storage.MaxPages)
	assert.Equal(t, 5, cfg.Session.AlternativeLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 7, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadIgnoresUnprefixedVariables(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("HOST", "somewhere")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Storage.Path, cfg.Storage.Path)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecoswipe.yaml")
	content := `
server:
  port: "7000"
backend:
  candidates:
    - http://localhost:9000
  request_timeout: 5s
storage:
  driver: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:9000"}, cfg.Backend.Candidates)
	assert.Equal(t, 5*time.Second, cfg.Backend.RequestTimeout.Duration)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	// Untouched keys keep defaults
	assert.Equal(t, "gpt-4o-mini", cfg.Backend.Model)
}

func TestLoadTOMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecoswipe.toml")
	content := `
[backend]
model = "gpt-4o"
probe_timeout = "2s"

[session]
alternative_limit = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ECOSWIPE_BACKEND_MODEL", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Backend.Model)
	assert.Equal(t, 2*time.Second, cfg.Backend.ProbeTimeout.Duration)
	assert.Equal(t, 2, cfg.Session.AlternativeLimit)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"ECOSWIPE_STORAGE_DRIVER": "redis"}},
		{"zero limit", map[string]string{"ECOSWIPE_SESSION_ALTERNATIVE_LIMIT": "0"}},
		{"bad duration", map[string]string{"ECOSWIPE_BACKEND_PROBE_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecoswipe.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	cfg := LoadOrDefault(path)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}
