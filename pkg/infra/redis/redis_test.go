package redis_wrapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	cfg := &RedisConfig{
		ConnectionURL:      "redis://localhost:6379/2",
		PoolSize:           7,
		ReadTimeoutSeconds: 3,
		SnapshotTTLSeconds: 30,
	}

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.SnapshotTTL())
}

func TestOptionsBadURL(t *testing.T) {
	_, err := (&RedisConfig{ConnectionURL: "http://nope"}).Options()
	require.Error(t, err)
}
