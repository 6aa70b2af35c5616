package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client talks to an identity-toolkit style REST API. All verbs are POSTs
// against /v1/accounts:<verb>?key=<apiKey>.
type Client struct {
	endpoint  string
	apiKey    string
	statePath string
	httpc     *http.Client
	logger    *zap.Logger

	mu      sync.Mutex
	uid     string
	email   string
	idToken string
}

// NewClient creates a provider client for the given endpoint and API key.
// A non-empty statePath makes the signed-in identity survive process
// restarts: it is restored here and rewritten on every identity change.
func NewClient(endpoint, apiKey, statePath string, logger *zap.Logger) *Client {
	c := &Client{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		apiKey:    apiKey,
		statePath: statePath,
		httpc:     &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
	c.restoreState()
	return c
}

type persistedState struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

func (c *Client) restoreState() {
	if c.statePath == "" {
		return
	}
	data, err := os.ReadFile(c.statePath)
	if err != nil {
		return
	}
	var st persistedState
	if err := json.Unmarshal(data, &st); err != nil || st.UID == "" {
		c.logger.Warn("discarding unreadable identity state", zap.String("path", c.statePath))
		_ = os.Remove(c.statePath)
		return
	}
	c.uid, c.email, c.idToken = st.UID, st.Email, st.IDToken
	c.logger.Info("identity restored", zap.String("uid", st.UID))
}

// saveStateLocked persists the current identity. Caller holds c.mu.
func (c *Client) saveStateLocked() {
	if c.statePath == "" {
		return
	}
	data, err := json.Marshal(persistedState{UID: c.uid, Email: c.email, IDToken: c.idToken})
	if err != nil {
		c.logger.Warn("encode identity state", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.statePath), 0700); err != nil {
		c.logger.Warn("persist identity state", zap.Error(err))
		return
	}
	if err := os.WriteFile(c.statePath, data, 0600); err != nil {
		c.logger.Warn("persist identity state", zap.Error(err))
	}
}

type accountRequest struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	IDToken           string `json:"idToken,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates a new account and stores the resulting identity.
func (c *Client) SignUp(ctx context.Context, email, password string) (Identity, error) {
	var resp accountResponse
	err := c.post(ctx, "signUp", accountRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}
	c.setIdentity(resp)
	c.logger.Info("account created", zap.String("uid", resp.LocalID))
	return Identity{UID: resp.LocalID, Email: resp.Email}, nil
}

// SignIn authenticates an existing account and stores the resulting identity.
func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	var resp accountResponse
	err := c.post(ctx, "signInWithPassword", accountRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}
	c.setIdentity(resp)
	return Identity{UID: resp.LocalID, Email: resp.Email}, nil
}

// SignOut drops the current identity and its persisted state.
func (c *Client) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uid, c.email, c.idToken = "", "", ""
	if c.statePath != "" {
		_ = os.Remove(c.statePath)
	}
}

// Reauthenticate re-checks the current identity's password without
// replacing the session on failure.
func (c *Client) Reauthenticate(ctx context.Context, currentPassword string) error {
	c.mu.Lock()
	email := c.email
	c.mu.Unlock()
	if email == "" {
		return ErrNotSignedIn
	}

	var resp accountResponse
	err := c.post(ctx, "signInWithPassword", accountRequest{
		Email:             email,
		Password:          currentPassword,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return err
	}
	c.setIdentity(resp)
	return nil
}

// UpdatePassword replaces the current identity's password.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	c.mu.Lock()
	token := c.idToken
	c.mu.Unlock()
	if token == "" {
		return ErrNotSignedIn
	}

	var resp accountResponse
	err := c.post(ctx, "update", accountRequest{
		IDToken:           token,
		Password:          newPassword,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.IDToken != "" {
		c.mu.Lock()
		c.idToken = resp.IDToken
		c.saveStateLocked()
		c.mu.Unlock()
	}
	return nil
}

// Current returns the active identity, if any.
func (c *Client) Current() (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid == "" {
		return Identity{}, false
	}
	return Identity{UID: c.uid, Email: c.email}, true
}

func (c *Client) setIdentity(resp accountResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uid = resp.LocalID
	if resp.Email != "" {
		c.email = resp.Email
	}
	c.idToken = resp.IDToken
	c.saveStateLocked()
}

func (c *Client) post(ctx context.Context, verb string, payload accountRequest, out *accountResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/accounts:%s?key=%s", c.endpoint, verb, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return mapProviderError(errResp.Error.Message, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapProviderError translates the provider's error codes. The message may
// carry a human-readable suffix ("WEAK_PASSWORD : Password should ..."),
// so only the leading token is matched.
func mapProviderError(message string, status int) error {
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "INVALID_EMAIL", "EMAIL_EXISTS", "EMAIL_NOT_FOUND",
		"INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "":
		return fmt.Errorf("auth provider returned status %d", status)
	default:
		return fmt.Errorf("auth provider rejected request: %s", code)
	}
}
