package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mixelka/photoadmin/pkg/models"
)

// UpsertConfig saves the full configuration for an account, replacing any
// previous one. The password field is never written to the database.
func (db *DB) UpsertConfig(ctx context.Context, cfg *models.AccountConfig) error {
	query := `
		INSERT INTO account_configs (email, folder_format, remove_deleted, concurrency, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			folder_format = excluded.folder_format,
			remove_deleted = excluded.remove_deleted,
			concurrency = excluded.concurrency,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, cfg.Email, cfg.FolderFormat, cfg.RemoveDeleted, cfg.Concurrency, now)
	if err != nil {
		return fmt.Errorf("failed to save account config: %w", err)
	}
	cfg.UpdatedAt = now
	return nil
}

// GetConfigByEmail returns the saved configuration for an account
func (db *DB) GetConfigByEmail(ctx context.Context, email string) (*models.AccountConfig, error) {
	var cfg models.AccountConfig
	query := `SELECT email, folder_format, remove_deleted, concurrency, updated_at FROM account_configs WHERE email = ?`
	err := db.GetContext(ctx, &cfg, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account config: %w", err)
	}
	return &cfg, nil
}
