package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/mixelka/photoadmin/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when trying to insert a duplicate record
var ErrAlreadyExists = errors.New("record already exists")

// CreateAccount creates a new provisioned account at the end of the list
func (db *DB) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (email, total_photos, downloaded_photos, last_sync, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM accounts), ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		account.Email,
		account.TotalPhotos,
		account.DownloadedPhotos,
		account.LastSync,
		now,
		now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetAccountByEmail returns an account by email
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	query := `SELECT * FROM accounts WHERE email = ?`
	err := db.GetContext(ctx, &account, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListAccounts returns all accounts in insertion order
func (db *DB) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM accounts ORDER BY position ASC`
	err := db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccountSync updates the sync counters reported by the download service
func (db *DB) UpdateAccountSync(ctx context.Context, email string, total, downloaded int, lastSync time.Time) error {
	query := `UPDATE accounts SET total_photos = ?, downloaded_photos = ?, last_sync = ?, updated_at = ? WHERE email = ?`
	_, err := db.ExecContext(ctx, query, total, downloaded, lastSync, time.Now(), email)
	if err != nil {
		return fmt.Errorf("failed to update account sync state: %w", err)
	}
	return nil
}

// DeleteAccountByEmail deletes an account and its saved configuration
func (db *DB) DeleteAccountByEmail(ctx context.Context, email string) error {
	query := `DELETE FROM accounts WHERE email = ?`
	if _, err := db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	query = `DELETE FROM account_configs WHERE email = ?`
	if _, err := db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("failed to delete account config: %w", err)
	}
	return nil
}
