package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recomlite/recomlite-server/internal/config"
)

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("REDIS_URL", "redis://localhost:6380")
	os.Setenv("RECOMLITE_TCR_PREFIX", "Q2")
	os.Setenv("RECOMLITE_ALREADY_BOUGHT_WEIGHT", "7")
	defer func() {
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("RECOMLITE_TCR_PREFIX")
		os.Unsetenv("RECOMLITE_ALREADY_BOUGHT_WEIGHT")
	}()

	cfg := config.Load()
	require.NotNil(t, cfg)
	assert.Equal(t, "redis://localhost:6380", cfg.RedisURL)
	assert.Equal(t, "Q2", cfg.TCRPrefix)
	assert.Equal(t, 7.0, cfg.AlreadyBoughtWeight)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("RECOMLITE_NEIGHBOR_CAP")
	cfg := config.Load()
	assert.Equal(t, 100, cfg.NeighborCap)
	assert.Equal(t, 10, cfg.InLoopCap)
	assert.Equal(t, 1.25, cfg.EpsilonDefault)
	assert.Equal(t, "P", cfg.InternerPrefix)
}
