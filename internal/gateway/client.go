package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mixelka/photoadmin/pkg/models"
)

const (
	pathLogin      = "/api/login"
	pathRegister   = "/api/register"
	pathAddAccount = "/api/addAccount"
	pathDelAccount = "/api/delAccount"
	pathConfig     = "/api/config"
)

// Client is the credential gateway to the photo download backend. All
// operations are plain request/response round trips; the client holds no
// session state and is safe to share.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config for the gateway client
type Config struct {
	BaseURL string // e.g., https://photos.example.com
	Timeout time.Duration
}

// NewClient creates a new gateway client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LoginResult is the outcome of an admin login attempt
type LoginResult struct {
	Success bool `json:"success"`
}

// RegisterResult is the outcome of an admin registration attempt.
// Duplicate means the admin identity is already taken.
type RegisterResult struct {
	Success   bool `json:"success"`
	Duplicate bool `json:"duplicate"`
}

// AddAccountResult is the outcome of an account provisioning attempt.
// NeedsTwoFactor and Success are mutually exclusive in one response.
type AddAccountResult struct {
	Success        bool `json:"success"`
	NeedsTwoFactor bool `json:"needsTwoFactor"`
}

// DeleteResult is the outcome of an account deletion
type DeleteResult struct {
	Success bool `json:"success"`
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type addAccountRequest struct {
	Account       string `json:"account"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode"`
}

type delAccountRequest struct {
	Account string `json:"account"`
}

// Login submits admin credentials. Success=false means the credentials
// were rejected; transport problems are returned as a TransportError.
func (c *Client) Login(ctx context.Context, account, password string) (*LoginResult, error) {
	result := &LoginResult{}
	if err := c.post(ctx, pathLogin, loginRequest{Account: account, Password: password}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// RegisterAdmin registers a new admin identity
func (c *Client) RegisterAdmin(ctx context.Context, account, password string) (*RegisterResult, error) {
	result := &RegisterResult{}
	if err := c.post(ctx, pathRegister, loginRequest{Account: account, Password: password}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AddAccount links a third-party account. An empty twoFactorCode is the
// first-attempt signal; the authority answers NeedsTwoFactor=true when a
// code must be supplied on a follow-up call.
func (c *Client) AddAccount(ctx context.Context, account, password, twoFactorCode string) (*AddAccountResult, error) {
	result := &AddAccountResult{}
	req := addAccountRequest{Account: account, Password: password, TwoFactorCode: twoFactorCode}
	if err := c.post(ctx, pathAddAccount, req, result); err != nil {
		return nil, err
	}
	if result.Success && result.NeedsTwoFactor {
		return nil, &TransportError{
			Op:  pathAddAccount,
			Err: fmt.Errorf("malformed response: success and needsTwoFactor are both set"),
		}
	}
	return result, nil
}

// DeleteAccount unlinks a third-party account
func (c *Client) DeleteAccount(ctx context.Context, account string) (*DeleteResult, error) {
	result := &DeleteResult{}
	if err := c.post(ctx, pathDelAccount, delAccountRequest{Account: account}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveConfig persists the full per-account configuration remotely. The
// ack body is implementation defined, so only the status is checked.
func (c *Client) SaveConfig(ctx context.Context, cfg *models.AccountConfig) error {
	return c.post(ctx, pathConfig, cfg, nil)
}

// post runs one JSON round trip. Any connectivity failure, non-2xx status
// or unparseable body comes back as a *TransportError.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &TransportError{Op: path, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &TransportError{Op: path, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}
