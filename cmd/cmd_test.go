package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/anicoll/fleetsync/internal/pkg/auth"
	"github.com/anicoll/fleetsync/internal/pkg/config"
	"github.com/anicoll/fleetsync/pkg/sealer"
)

func TestApplyFlags(t *testing.T) {
	tests := map[string]struct {
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		"no flags keeps environment": {
			args: []string{"fleetsync"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "env-host", cfg.ServerCfg.Host)
				assert.True(t, cfg.ServerCfg.Ssl)
				assert.Equal(t, "INFO", cfg.LogLevel)
			},
		},
		"flags override": {
			args: []string{"fleetsync", "--host", "flag-host", "--ssl=false", "--show-errors", "--log-level", "debug", "--redis-addr", "redis:6379"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "flag-host", cfg.ServerCfg.Host)
				assert.False(t, cfg.ServerCfg.Ssl)
				assert.True(t, cfg.ShowErrors)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "redis:6379", cfg.RedisCfg.Addr)
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := &config.Config{
				ServerCfg: config.ServerConfig{Host: "env-host", Ssl: true},
				LogLevel:  "INFO",
			}
			app := &cli.App{
				Flags: Flags(),
				Action: func(c *cli.Context) error {
					applyFlags(c, cfg)
					return nil
				},
			}
			require.NoError(t, app.Run(tt.args))
			tt.check(t, cfg)
		})
	}
}

func TestTokenStore(t *testing.T) {
	store, err := tokenStore(config.ServerConfig{})
	require.NoError(t, err)
	assert.IsType(t, &auth.MemoryStore{}, store)

	_, err = tokenStore(config.ServerConfig{TokenCachePath: "/tmp/x", TokenCacheKey: "nothex"})
	assert.Error(t, err)

	key, err := sealer.GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "token")
	store, err = tokenStore(config.ServerConfig{TokenCachePath: path, TokenCacheKey: key})
	require.NoError(t, err)
	require.NoError(t, store.Save("T1"))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "T1", got)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("chatty")
	assert.Error(t, err)

	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}

type fakeCleaner struct {
	mu    sync.Mutex
	calls []time.Duration
	err   error
}

func (f *fakeCleaner) Cleanup(_ context.Context, retention time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, retention)
	return f.err
}

func TestCronDbCleanup(t *testing.T) {
	t.Run("runs once then waits for cancel", func(t *testing.T) {
		db := &fakeCleaner{}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- cronDbCleanup(ctx, db, 48*time.Hour, make(chan error, 1))
		}()

		require.Eventually(t, func() bool {
			db.mu.Lock()
			defer db.mu.Unlock()
			return len(db.calls) == 1
		}, time.Second, 10*time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("cleanup did not stop")
		}
		assert.Equal(t, []time.Duration{48 * time.Hour}, db.calls)
	})

	t.Run("initial failure", func(t *testing.T) {
		db := &fakeCleaner{err: errors.New("db down")}
		err := cronDbCleanup(context.Background(), db, time.Hour, make(chan error, 1))
		assert.EqualError(t, err, "db down")
	})
}
