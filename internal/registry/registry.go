package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mixelka/photoadmin/internal/gateway"
	"github.com/mixelka/photoadmin/pkg/models"
)

var (
	// ErrDuplicateIdentity is returned when adding an identity that is
	// already registered
	ErrDuplicateIdentity = errors.New("account identity already registered")

	// ErrNotFound is returned when the identity is not in the registry
	ErrNotFound = errors.New("account not found")

	// ErrDeleteRejected means the authority refused to delete the
	// account; the local registry is left untouched
	ErrDeleteRejected = errors.New("account deletion rejected")
)

// Deleter is the slice of the credential gateway used for removal
type Deleter interface {
	DeleteAccount(ctx context.Context, account string) (*gateway.DeleteResult, error)
}

// Store mirrors registry mutations to durable storage
type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	DeleteAccountByEmail(ctx context.Context, email string) error
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

// Registry is the ordered collection of provisioned accounts, keyed by
// their unique email identity. All reads go through value snapshots, so
// callers can never mutate registry state behind its back.
type Registry struct {
	mu       sync.Mutex
	gw       Deleter
	store    Store // optional
	logger   *slog.Logger
	accounts []models.Account
	index    map[string]struct{}
}

// New creates an empty registry. The store may be nil for a purely
// in-memory registry.
func New(gw Deleter, store Store, logger *slog.Logger) *Registry {
	return &Registry{
		gw:     gw,
		store:  store,
		logger: logger.With("component", "registry"),
		index:  make(map[string]struct{}),
	}
}

// Restore replaces the in-memory state with the mirrored accounts,
// preserving their stored order. Called once at startup.
func (r *Registry) Restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	stored, err := r.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = r.accounts[:0]
	r.index = make(map[string]struct{}, len(stored))
	for _, account := range stored {
		r.accounts = append(r.accounts, *account)
		r.index[account.Email] = struct{}{}
	}
	r.logger.Info("registry restored", "count", len(r.accounts))
	return nil
}

// List returns a snapshot of all accounts in insertion order
func (r *Registry) List() []models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]models.Account, len(r.accounts))
	copy(snapshot, r.accounts)
	return snapshot
}

// Add appends a newly provisioned account. Fails with
// ErrDuplicateIdentity if the email is already registered.
func (r *Registry) Add(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[account.Email]; exists {
		return ErrDuplicateIdentity
	}

	if r.store != nil {
		if err := r.store.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to mirror account: %w", err)
		}
	}

	r.accounts = append(r.accounts, *account)
	r.index[account.Email] = struct{}{}
	r.logger.Info("account registered", "email", account.Email)
	return nil
}

// RemoveByIdentity deletes the account remotely, then locally. If the
// authority does not confirm the deletion, or the call fails, the
// registry is left exactly as it was.
func (r *Registry) RemoveByIdentity(ctx context.Context, email string) error {
	r.mu.Lock()
	if _, exists := r.index[email]; !exists {
		r.mu.Unlock()
		return ErrNotFound
	}
	r.mu.Unlock()

	result, err := r.gw.DeleteAccount(ctx, email)
	if err != nil {
		return err
	}
	if !result.Success {
		r.logger.Warn("account deletion rejected", "email", email)
		return ErrDeleteRejected
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		if err := r.store.DeleteAccountByEmail(ctx, email); err != nil {
			return fmt.Errorf("failed to unmirror account: %w", err)
		}
	}

	for i, account := range r.accounts {
		if account.Email == email {
			r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
			break
		}
	}
	delete(r.index, email)
	r.logger.Info("account removed", "email", email)
	return nil
}
