package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/countryrates/country-service/internal/config"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store:    config.StoreConfig{Driver: "memory"},
		Upstream: config.UpstreamConfig{CountriesURL: "http://127.0.0.1:1", ExchangeURL: "http://127.0.0.1:1", Timeout: time.Second, FlagTimeout: time.Second},
		GDP:      config.GDPConfig{MinMultiplier: 1000, MaxMultiplier: 2000},
		Storage:  config.StorageConfig{Driver: "file", CacheDir: filepath.Join(t.TempDir(), "cache"), ImageName: "summary.png"},
		Redis:    config.RedisConfig{Port: "6379", HistorySize: 5},
	}
}

func TestNewWithRedisJournal(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	cfg := memoryConfig(t)
	cfg.Redis.Host = m.Host()
	cfg.Redis.Port = m.Port()

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.Contains(t, a.Checks, "journal")
	require.True(t, a.DurableJournal())
	require.NoError(t, a.Checks["journal"](context.Background()))

	// both upstreams are unreachable, so the refresh fails and is journaled in Redis
	_, err = a.Service.Refresh(context.Background())
	require.Error(t, err)
	runs, err := a.Service.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	keys := m.Keys()
	require.Len(t, keys, 1)
}

func TestNewFallsBackToMemoryJournal(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = "1"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotContains(t, a.Checks, "journal")
	require.False(t, a.DurableJournal())
	_, err = a.Service.RecentRuns(context.Background(), 5)
	require.Error(t, err)
}
