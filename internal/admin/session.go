package admin

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mixelka/photoadmin/internal/gateway"
)

var (
	// ErrBusy is returned when the previous call has not settled yet
	ErrBusy = errors.New("an authentication call is already in progress")

	// ErrInvalidCredentials means the authority rejected the login
	ErrInvalidCredentials = errors.New("invalid admin credentials")

	// ErrDuplicateAdmin means the admin identity is already registered
	ErrDuplicateAdmin = errors.New("admin identity already registered")

	// ErrRegistrationRejected means the authority refused the registration
	ErrRegistrationRejected = errors.New("admin registration rejected")
)

// Authority is the slice of the credential gateway used by admin flows
type Authority interface {
	Login(ctx context.Context, account, password string) (*gateway.LoginResult, error)
	RegisterAdmin(ctx context.Context, account, password string) (*gateway.RegisterResult, error)
}

// Session runs the admin login and registration flows. One call per
// session may be outstanding at a time; the busy flag is always cleared
// when the call settles, whatever the outcome.
type Session struct {
	mu     sync.Mutex
	busy   bool
	gw     Authority
	logger *slog.Logger
}

// NewSession creates an admin session
func NewSession(gw Authority, logger *slog.Logger) *Session {
	return &Session{
		gw:     gw,
		logger: logger.With("component", "admin"),
	}
}

// Login authenticates the administrator. A rejection surfaces as
// ErrInvalidCredentials; transport failures pass through untouched.
func (s *Session) Login(ctx context.Context, account, password string) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	result, err := s.gw.Login(ctx, account, password)
	if err != nil {
		return err
	}
	if !result.Success {
		s.logger.Warn("login rejected", "account", account)
		return ErrInvalidCredentials
	}

	s.logger.Info("admin logged in", "account", account)
	return nil
}

// Register creates a new administrator. After a successful registration
// the same credentials are valid for Login.
func (s *Session) Register(ctx context.Context, account, password string) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	result, err := s.gw.RegisterAdmin(ctx, account, password)
	if err != nil {
		return err
	}
	if result.Duplicate {
		return ErrDuplicateAdmin
	}
	if !result.Success {
		return ErrRegistrationRejected
	}

	s.logger.Info("admin registered", "account", account)
	return nil
}

func (s *Session) acquire() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, ErrBusy
	}
	s.busy = true
	return func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}, nil
}
