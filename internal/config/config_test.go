package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":8080", cfg.Port)
	req.Equal(15*time.Second, cfg.ReadTimeout)
	req.Equal(HistoryBackendPostgres, cfg.HistoryBackend)
	req.Equal(25, cfg.FeedSize)
	req.Equal(256, cfg.SendBufferSize)
	req.Equal(24*time.Hour, cfg.JWTExpiresIn)
	req.Equal([]string{"*"}, cfg.Origins())
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HISTORY_BACKEND", "badger")
	t.Setenv("FEED_SIZE", "10")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:8080, https://chat.example.com ,")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(HistoryBackendBadger, cfg.HistoryBackend)
	req.Equal(10, cfg.FeedSize)
	req.Equal(250*time.Millisecond, cfg.StoreTimeout)
	req.Equal([]string{"http://localhost:8080", "https://chat.example.com"}, cfg.Origins())
}

func TestLoad_MissingSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:      "s",
		HistoryBackend: HistoryBackendPostgres,
		FeedSize:       25,
		SendBufferSize: 256,
		MaxMessageSize: 4096,
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base
		cfg.HistoryBackend = "mongo"
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive feed size", func(t *testing.T) {
		cfg := base
		cfg.FeedSize = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("feed size above 25", func(t *testing.T) {
		cfg := base
		cfg.FeedSize = 100
		require.Error(t, cfg.Validate())

		cfg.FeedSize = 25
		require.NoError(t, cfg.Validate())
	})
}

func TestLoad_RejectsOversizedFeed(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("FEED_SIZE", "100")

	_, err := Load()
	require.Error(t, err)
}
