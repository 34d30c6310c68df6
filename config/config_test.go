package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, DefaultEventBufferSize, cfg.EventBufferSize)
	assert.Equal(t, DefaultRedisPoolSize, cfg.Storage.Redis.PoolSize)
	assert.Equal(t, DefaultRedisIdle, cfg.Storage.Redis.IdleTimeout)
	assert.Empty(t, cfg.Alerts)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: redis
  redis:
    addr: "localhost:6379"
    password_env: PIPELINE_REDIS_PASSWORD
    db: 2
    pool_size: 20
    idle_timeout: 10m
event_buffer_size: 500
alerts:
  - name: high-risk
    condition: "overall >= 0.7"
    severity: critical
  - name: bottleneck-pileup
    condition: "bottlenecks > 2 && timing > 0.5"
    severity: warning
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, 20, cfg.Storage.Redis.PoolSize)
	assert.Equal(t, Duration(10*time.Minute), cfg.Storage.Redis.IdleTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Storage.Redis.IdleTimeout.Std())
	assert.Equal(t, 500, cfg.EventBufferSize)
	assert.Len(t, cfg.Alerts, 2)
	assert.Equal(t, "high-risk", cfg.Alerts[0].Name)
	assert.Equal(t, "critical", cfg.Alerts[0].Severity)
}

func TestLoad_PasswordFromEnv(t *testing.T) {
	t.Setenv("PIPELINE_REDIS_PASSWORD", "hunter2")

	r := RedisConfig{PasswordEnv: "PIPELINE_REDIS_PASSWORD"}
	assert.Equal(t, "hunter2", r.Password())

	r = RedisConfig{}
	assert.Equal(t, "", r.Password())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown backend",
			content: "storage:\n  backend: postgres\n",
			wantErr: "storage.backend",
		},
		{
			name:    "redis without addr",
			content: "storage:\n  backend: redis\n",
			wantErr: "storage.redis.addr",
		},
		{
			name:    "non-positive buffer",
			content: "event_buffer_size: 0\n",
			wantErr: "event_buffer_size",
		},
		{
			name:    "alert without name",
			content: "alerts:\n  - condition: \"overall > 0.5\"\n",
			wantErr: "name is required",
		},
		{
			name:    "alert without condition",
			content: "alerts:\n  - name: half\n",
			wantErr: "condition is required",
		},
		{
			name:    "alert with unknown severity",
			content: "alerts:\n  - name: half\n    condition: \"overall > 0.5\"\n    severity: loud\n",
			wantErr: "severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  redis:\n    idle_timeout: fast\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "storage: [not: a: mapping\n"))
	assert.Error(t, err)
}
