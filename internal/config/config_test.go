package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixelka/photoadmin/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PHOTOADMIN_AUTHORITY_URL", "https://photos.example.com")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "https://photos.example.com", cfg.AuthorityURL)
		assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, "./data/photoadmin.db", cfg.DatabasePath)
		assert.Equal(t, "2006/01/02", cfg.DefaultFolderFormat)
		assert.Equal(t, 10, cfg.DefaultConcurrency)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("authority url is required", func(t *testing.T) {
		t.Setenv("PHOTOADMIN_AUTHORITY_URL", "")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("invalid authority url", func(t *testing.T) {
		t.Setenv("PHOTOADMIN_AUTHORITY_URL", "not a url")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("non-positive default concurrency", func(t *testing.T) {
		t.Setenv("PHOTOADMIN_AUTHORITY_URL", "https://photos.example.com")
		t.Setenv("PHOTOADMIN_CONCURRENCY", "0")

		_, err := config.Load()
		assert.Error(t, err)
	})
}
