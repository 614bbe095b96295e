package configure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mixelka/photoadmin/internal/database"
	"github.com/mixelka/photoadmin/pkg/models"
)

// ErrBusy is returned when a save is already in flight
var ErrBusy = errors.New("a save is already in progress")

// Saver is the slice of the credential gateway used to persist settings
type Saver interface {
	SaveConfig(ctx context.Context, cfg *models.AccountConfig) error
}

// Store keeps a local copy of saved configurations
type Store interface {
	GetConfigByEmail(ctx context.Context, email string) (*models.AccountConfig, error)
	UpsertConfig(ctx context.Context, cfg *models.AccountConfig) error
}

// Defaults for accounts that have never been configured
type Defaults struct {
	FolderFormat  string
	RemoveDeleted bool
	Concurrency   int
}

// Manager edits the download configuration of one account at a time.
// Save always transmits the whole configuration; there is no partial
// update. The password is write-only: it goes out with the save but is
// never stored and never comes back from Load.
type Manager struct {
	mu       sync.Mutex
	busy     bool
	gw       Saver
	store    Store // optional
	validate *validator.Validate
	defaults Defaults
	logger   *slog.Logger
	baseline *models.AccountConfig
}

// NewManager creates a configuration manager. The store may be nil.
func NewManager(gw Saver, store Store, defaults Defaults, logger *slog.Logger) *Manager {
	return &Manager{
		gw:       gw,
		store:    store,
		validate: validator.New(),
		defaults: defaults,
		logger:   logger.With("component", "configure"),
	}
}

// Load returns a working copy for the account: defaults overlaid with the
// previously saved values, if any. The copy is the caller's to edit;
// Cancel returns to this baseline.
func (m *Manager) Load(ctx context.Context, email string) (*models.AccountConfig, error) {
	cfg := &models.AccountConfig{
		Email:         email,
		FolderFormat:  m.defaults.FolderFormat,
		RemoveDeleted: m.defaults.RemoveDeleted,
		Concurrency:   m.defaults.Concurrency,
	}

	if m.store != nil {
		saved, err := m.store.GetConfigByEmail(ctx, email)
		switch {
		case errors.Is(err, database.ErrNotFound):
			// first time, defaults stand
		case err != nil:
			return nil, err
		default:
			cfg.FolderFormat = saved.FolderFormat
			cfg.RemoveDeleted = saved.RemoveDeleted
			cfg.Concurrency = saved.Concurrency
			cfg.UpdatedAt = saved.UpdatedAt
		}
	}

	m.mu.Lock()
	baseline := *cfg
	m.baseline = &baseline
	m.mu.Unlock()

	return cfg, nil
}

// Save validates and persists the full configuration. Validation runs
// strictly before any network traffic: an invalid concurrency or a
// missing identity never reaches the gateway.
func (m *Manager) Save(ctx context.Context, cfg *models.AccountConfig) error {
	if err := m.validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	m.busy = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.busy = false
		m.mu.Unlock()
	}()

	if err := m.gw.SaveConfig(ctx, cfg); err != nil {
		return err
	}

	if m.store != nil {
		if err := m.store.UpsertConfig(ctx, cfg); err != nil {
			return fmt.Errorf("failed to mirror config: %w", err)
		}
	}

	m.mu.Lock()
	baseline := *cfg
	baseline.Password = ""
	m.baseline = &baseline
	m.mu.Unlock()

	m.logger.Info("configuration saved",
		"email", cfg.Email,
		"folder_format", cfg.FolderFormat,
		"remove_deleted", cfg.RemoveDeleted,
		"concurrency", cfg.Concurrency,
	)
	return nil
}

// Cancel discards in-progress edits and returns a fresh copy of the last
// loaded or saved configuration. No network traffic.
func (m *Manager) Cancel() *models.AccountConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baseline == nil {
		return nil
	}
	cfg := *m.baseline
	return &cfg
}
