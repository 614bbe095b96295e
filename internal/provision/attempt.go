package provision

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mixelka/photoadmin/internal/gateway"
	"github.com/mixelka/photoadmin/internal/registry"
	"github.com/mixelka/photoadmin/pkg/models"
)

// Phase is the state of one add-account attempt
type Phase string

const (
	// CollectingPrimary is the initial phase: account and password are
	// being gathered, no call has gone out yet
	CollectingPrimary Phase = "collecting_primary"
	// AwaitingTwoFactor means the authority asked for a 2FA code
	AwaitingTwoFactor Phase = "awaiting_two_factor"
	// Submitting means a call is in flight; further submits are rejected
	Submitting Phase = "submitting"
	// Succeeded is terminal: the account was linked and registered
	Succeeded Phase = "succeeded"
	// Failed is terminal: the attempt was rejected or the call failed
	Failed Phase = "failed"
)

var (
	// ErrSubmissionInFlight is returned when Submit is called while a
	// previous submission has not settled yet
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrAttemptFinished is returned when Submit is called on a terminal
	// attempt; start over with Reset
	ErrAttemptFinished = errors.New("attempt already finished")

	// ErrMissingCredentials is returned when account or password is empty
	ErrMissingCredentials = errors.New("account and password are required")

	// ErrMissingTwoFactorCode is returned when the authority asked for a
	// code and none was supplied. An empty code means "not supplied yet",
	// it is never sent as a deliberate value.
	ErrMissingTwoFactorCode = errors.New("two-factor code is required")

	// ErrRejected means the authority answered with an explicit refusal
	ErrRejected = errors.New("account provisioning rejected")

	// ErrStaleResult means the attempt was reset while a call was in
	// flight; the late result was discarded
	ErrStaleResult = errors.New("result discarded, attempt was reset")
)

// Gateway is the slice of the credential gateway used by provisioning
type Gateway interface {
	AddAccount(ctx context.Context, account, password, twoFactorCode string) (*gateway.AddAccountResult, error)
}

// Registrar receives successfully provisioned accounts
type Registrar interface {
	Add(ctx context.Context, account *models.Account) error
}

// Attempt drives one add-account interaction through its phases:
//
//	CollectingPrimary -> Submitting -> AwaitingTwoFactor | Succeeded | Failed
//	AwaitingTwoFactor -> Submitting -> Succeeded | Failed
//
// Succeeded and Failed are terminal; Reset starts a fresh attempt.
type Attempt struct {
	mu         sync.Mutex
	gw         Gateway
	reg        Registrar
	logger     *slog.Logger
	phase      Phase
	generation uint64

	email         string
	password      string
	twoFactorCode string
}

// NewAttempt creates an attempt in CollectingPrimary
func NewAttempt(gw Gateway, reg Registrar, logger *slog.Logger) *Attempt {
	return &Attempt{
		gw:     gw,
		reg:    reg,
		logger: logger.With("component", "provision"),
		phase:  CollectingPrimary,
	}
}

// Phase returns the current phase
func (a *Attempt) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// SetCredentials sets the primary credentials. Only valid before the
// first submission.
func (a *Attempt) SetCredentials(email, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase != CollectingPrimary {
		return ErrAttemptFinished
	}
	a.email = email
	a.password = password
	return nil
}

// SetTwoFactorCode records the code for the follow-up submission
func (a *Attempt) SetTwoFactorCode(code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase != AwaitingTwoFactor {
		return ErrAttemptFinished
	}
	a.twoFactorCode = code
	return nil
}

// Submit sends the current credentials (and code, if any) to the
// authority and settles the attempt into its next phase. At most one
// submission is in flight at a time; re-entrant calls fail with
// ErrSubmissionInFlight and do not touch the attempt.
func (a *Attempt) Submit(ctx context.Context) (Phase, error) {
	a.mu.Lock()
	switch a.phase {
	case Submitting:
		a.mu.Unlock()
		return Submitting, ErrSubmissionInFlight
	case Succeeded, Failed:
		phase := a.phase
		a.mu.Unlock()
		return phase, ErrAttemptFinished
	case CollectingPrimary:
		if a.email == "" || a.password == "" {
			a.mu.Unlock()
			return CollectingPrimary, ErrMissingCredentials
		}
	case AwaitingTwoFactor:
		if a.twoFactorCode == "" {
			a.mu.Unlock()
			return AwaitingTwoFactor, ErrMissingTwoFactorCode
		}
	}

	from := a.phase
	gen := a.generation
	email, password, code := a.email, a.password, a.twoFactorCode
	a.phase = Submitting
	a.mu.Unlock()

	result, err := a.gw.AddAccount(ctx, email, password, code)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.generation != gen {
		// The attempt was reset while the call was out. The interaction
		// that produced this result no longer exists, so drop it.
		a.logger.Debug("discarding stale provisioning result", "email", email)
		return a.phase, ErrStaleResult
	}

	switch {
	case err != nil:
		a.phase = Failed
		a.logger.Warn("provisioning failed", "email", email, "error", err)
		return Failed, err

	case result.NeedsTwoFactor:
		a.phase = AwaitingTwoFactor
		a.logger.Info("two-factor code required", "email", email)
		return AwaitingTwoFactor, nil

	case result.Success:
		a.phase = Succeeded
		a.logger.Info("account provisioned", "email", email)
		if addErr := a.register(ctx, email); addErr != nil {
			return Succeeded, addErr
		}
		return Succeeded, nil

	default:
		a.phase = Failed
		a.logger.Warn("provisioning rejected", "email", email, "from_phase", string(from))
		return Failed, ErrRejected
	}
}

// register appends the fresh account to the registry. An account that is
// already present is not an error here: the remote authority accepted the
// link either way.
func (a *Attempt) register(ctx context.Context, email string) error {
	err := a.reg.Add(ctx, &models.Account{Email: email})
	if err != nil && !errors.Is(err, registry.ErrDuplicateIdentity) {
		return err
	}
	return nil
}

// Reset discards the attempt and starts a new one in CollectingPrimary.
// A submission still in flight is orphaned: its result will be discarded
// when it arrives.
func (a *Attempt) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.phase = CollectingPrimary
	a.email = ""
	a.password = ""
	a.twoFactorCode = ""
}
