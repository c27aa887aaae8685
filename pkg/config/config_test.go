package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.MaxQueryInterests)
	assert.Equal(t, 40, cfg.CandidateFetchLimit)
	assert.Equal(t, 5*time.Second, cfg.QueueWriteInterval)
	assert.Zero(t, cfg.QueueAutoReleaseAfter)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_INTERESTS", "12")
	t.Setenv("QUEUE_WRITE_INTERVAL", "250ms")
	t.Setenv("QUEUE_AUTO_RELEASE_AFTER", "2h")
	t.Setenv("TX_MAX_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.MaxInterests)
	assert.Equal(t, 250*time.Millisecond, cfg.QueueWriteInterval)
	assert.Equal(t, 2*time.Hour, cfg.QueueAutoReleaseAfter)
	assert.Equal(t, 5, cfg.TransactionMaxAttempts)
}
