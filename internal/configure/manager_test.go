package configure_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixelka/photoadmin/internal/configure"
	"github.com/mixelka/photoadmin/internal/database"
	"github.com/mixelka/photoadmin/internal/gateway"
	"github.com/mixelka/photoadmin/pkg/models"
)

var ctx = context.Background()

var defaults = configure.Defaults{
	FolderFormat: "2006/01/02",
	Concurrency:  10,
}

type fakeSaver struct {
	calls   atomic.Int64
	block   chan struct{}
	fail    error
	lastCfg *models.AccountConfig
}

func (f *fakeSaver) SaveConfig(_ context.Context, cfg *models.AccountConfig) error {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.fail != nil {
		return f.fail
	}
	saved := *cfg
	f.lastCfg = &saved
	return nil
}

type fakeStore struct {
	configs map[string]models.AccountConfig
}

func newFakeStore() *fakeStore {
	return &fakeStore{configs: map[string]models.AccountConfig{}}
}

func (f *fakeStore) GetConfigByEmail(_ context.Context, email string) (*models.AccountConfig, error) {
	cfg, ok := f.configs[email]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &cfg, nil
}

func (f *fakeStore) UpsertConfig(_ context.Context, cfg *models.AccountConfig) error {
	stored := *cfg
	stored.Password = "" // the store never sees a password either way
	f.configs[cfg.Email] = stored
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_Load(t *testing.T) {
	t.Parallel()

	t.Run("defaults for a never configured account", func(t *testing.T) {
		t.Parallel()

		manager := configure.NewManager(&fakeSaver{}, newFakeStore(), defaults, testLogger())

		cfg, err := manager.Load(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", cfg.Email)
		assert.Equal(t, "2006/01/02", cfg.FolderFormat)
		assert.False(t, cfg.RemoveDeleted)
		assert.Equal(t, 10, cfg.Concurrency)
		assert.Empty(t, cfg.Password)
	})

	t.Run("saved values win over defaults, password stays empty", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.configs["a@x.com"] = models.AccountConfig{
			Email:         "a@x.com",
			FolderFormat:  "2006-01",
			RemoveDeleted: true,
			Concurrency:   3,
		}
		manager := configure.NewManager(&fakeSaver{}, store, defaults, testLogger())

		cfg, err := manager.Load(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "2006-01", cfg.FolderFormat)
		assert.True(t, cfg.RemoveDeleted)
		assert.Equal(t, 3, cfg.Concurrency)
		assert.Empty(t, cfg.Password, "password is write-only")
	})
}

func TestManager_SaveValidation(t *testing.T) {
	t.Parallel()

	for _, concurrency := range []int{0, -3} {
		t.Run(fmt.Sprintf("rejects concurrency %d before any network call", concurrency), func(t *testing.T) {
			t.Parallel()

			gw := &fakeSaver{}
			manager := configure.NewManager(gw, newFakeStore(), defaults, testLogger())

			err := manager.Save(ctx, &models.AccountConfig{
				Email:        "a@x.com",
				FolderFormat: "2006/01/02",
				Concurrency:  concurrency,
			})

			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
			assert.Zero(t, gw.calls.Load(), "invalid input must not reach the transport")
		})
	}

	t.Run("rejects a missing identity", func(t *testing.T) {
		t.Parallel()

		gw := &fakeSaver{}
		manager := configure.NewManager(gw, newFakeStore(), defaults, testLogger())

		err := manager.Save(ctx, &models.AccountConfig{
			FolderFormat: "2006/01/02",
			Concurrency:  1,
		})
		assert.Error(t, err)
		assert.Zero(t, gw.calls.Load())
	})
}

func TestManager_Save(t *testing.T) {
	t.Parallel()

	t.Run("transmits the whole configuration and mirrors it", func(t *testing.T) {
		t.Parallel()

		gw := &fakeSaver{}
		store := newFakeStore()
		manager := configure.NewManager(gw, store, defaults, testLogger())

		cfg := &models.AccountConfig{
			Email:         "a@x.com",
			Password:      "secret",
			FolderFormat:  "2006/01",
			RemoveDeleted: true,
			Concurrency:   4,
		}
		require.NoError(t, manager.Save(ctx, cfg))

		require.NotNil(t, gw.lastCfg)
		assert.Equal(t, "secret", gw.lastCfg.Password, "the gateway gets the full object")

		stored := store.configs["a@x.com"]
		assert.Equal(t, "2006/01", stored.FolderFormat)
		assert.Empty(t, stored.Password)

		// a later Load reflects the save
		loaded, err := manager.Load(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, 4, loaded.Concurrency)
		assert.Empty(t, loaded.Password)
	})

	t.Run("transport failure clears the busy flag", func(t *testing.T) {
		t.Parallel()

		gw := &fakeSaver{fail: &gateway.TransportError{Op: "/api/config", Err: errors.New("timeout")}}
		store := newFakeStore()
		manager := configure.NewManager(gw, store, defaults, testLogger())

		cfg := &models.AccountConfig{Email: "a@x.com", FolderFormat: "2006", Concurrency: 1}
		err := manager.Save(ctx, cfg)
		assert.True(t, gateway.IsTransportError(err))
		assert.Empty(t, store.configs, "failed saves are not mirrored")

		// the manager must accept a retry immediately
		gw.fail = nil
		assert.NoError(t, manager.Save(ctx, cfg))
	})

	t.Run("rejects a second save while one is in flight", func(t *testing.T) {
		t.Parallel()

		gw := &fakeSaver{block: make(chan struct{})}
		manager := configure.NewManager(gw, newFakeStore(), defaults, testLogger())

		cfg := &models.AccountConfig{Email: "a@x.com", FolderFormat: "2006", Concurrency: 1}

		done := make(chan error, 1)
		go func() {
			done <- manager.Save(ctx, cfg)
		}()

		for gw.calls.Load() == 0 {
			runtime.Gosched()
		}

		err := manager.Save(ctx, cfg)
		assert.ErrorIs(t, err, configure.ErrBusy)

		close(gw.block)
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("first save did not settle")
		}
	})
}

func TestManager_Cancel(t *testing.T) {
	t.Parallel()

	manager := configure.NewManager(&fakeSaver{}, newFakeStore(), defaults, testLogger())

	cfg, err := manager.Load(ctx, "a@x.com")
	require.NoError(t, err)

	// the operator edits, then changes their mind
	cfg.FolderFormat = "scrambled"
	cfg.Concurrency = 42

	reverted := manager.Cancel()
	require.NotNil(t, reverted)
	assert.Equal(t, "2006/01/02", reverted.FolderFormat)
	assert.Equal(t, 10, reverted.Concurrency)
}
