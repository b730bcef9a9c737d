package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadWorkerConfig(t *testing.T) {
	path := writeConfig(t, `
redis:
  url: redis://localhost:6380/2
queues:
  candidates: in
  poll_timeout: 250ms
validation:
  strict_dates: true
  preview: 3
concurrency: 4
`)

	cfg, err := LoadWorkerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6380/2", cfg.Redis.URL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "in", cfg.Queues.Candidates)
	assert.Equal(t, DefaultVerdictsQueue, cfg.Queues.Verdicts)
	assert.Equal(t, 250*time.Millisecond, cfg.Queues.PollTimeout)
	assert.True(t, cfg.Validation.StrictDates)
	assert.Equal(t, 3, cfg.Validation.Preview)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestLoadWorkerConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad yaml", body: "queues: [", want: "failed to parse YAML config"},
		{name: "same queues", body: "queues: {candidates: q, verdicts: q}", want: "must differ"},
		{name: "preview out of range", body: "validation: {preview: 500}", want: "preview must be between"},
		{name: "negative db", body: "redis: {db: -1}", want: "redis db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWorkerConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadWorkerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDefaultWorkerConfig(t *testing.T) {
	cfg := DefaultWorkerConfig()

	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, DefaultCandidatesQueue, cfg.Queues.Candidates)
	assert.Equal(t, DefaultVerdictsQueue, cfg.Queues.Verdicts)
	assert.Equal(t, DefaultPollTimeout, cfg.Queues.PollTimeout)
	assert.Equal(t, 1, cfg.Concurrency)
	require.NoError(t, ValidateWorkerConfig(cfg))
}
