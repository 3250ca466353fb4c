// Package auth manages the local session: which account (guest or
// authenticated) owns the cache, the bearer credential attached to outbound
// calls, and the one-shot token refresh performed when the credential is
// about to expire.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/gateway"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// CredentialStore persists the session credential across restarts.
type CredentialStore interface {
	SaveCredentials(c *models.Credentials) error
	LoadCredentials() (*models.Credentials, error)
	ClearCredentials() error
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*gateway.TokenPair, error)
}

// Manager holds the current session credential. It implements
// gateway.TokenProvider; the refresher is attached after the gateway client
// is built since the client in turn needs the manager for its bearer token.
type Manager struct {
	store  CredentialStore
	logger *zap.Logger

	mu        sync.RWMutex
	creds     *models.Credentials
	refresher Refresher

	now func() time.Time
}

// NewManager creates a session manager, restoring any persisted credential.
func NewManager(store CredentialStore, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		store:  store,
		logger: logger.Named("auth"),
		now:    time.Now,
	}
	creds, err := store.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	m.creds = creds
	if creds != nil {
		m.logger.Info("session restored",
			zap.String("username", creds.Username),
			zap.Bool("guest", creds.IsGuest()))
	}
	return m, nil
}

// SetRefresher attaches the token refresh backend.
func (m *Manager) SetRefresher(r Refresher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresher = r
}

// Token returns the current bearer credential, or empty for an anonymous or
// guest session.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil || m.creds.IsGuest() {
		return ""
	}
	return m.creds.Token
}

// Current returns a copy of the active credential, or nil when signed out.
func (m *Manager) Current() *models.Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil {
		return nil
	}
	c := *m.creds
	return &c
}

// IsAuthenticated reports whether a non-guest account is signed in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds != nil && !m.creds.IsGuest()
}

// SignIn stores the credential for the signed-in account and persists it.
func (m *Manager) SignIn(creds *models.Credentials) error {
	if creds == nil || creds.Username == "" {
		return fmt.Errorf("%w: credentials missing username", apperrors.ErrValidation)
	}
	creds.SavedAt = m.now().UTC()
	if err := m.store.SaveCredentials(creds); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()

	m.logger.Info("signed in",
		zap.String("username", creds.Username),
		zap.Bool("guest", creds.IsGuest()))
	return nil
}

// SignOut drops the in-memory credential and clears the persisted copy.
// Purging cached records and notifying the remote side belong to the
// migration coordinator, which calls this last.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()

	if err := m.store.ClearCredentials(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	m.logger.Info("signed out")
	return nil
}

// EnsureFresh refreshes the access token when it is expired or about to
// expire. The refresh is attempted once; on failure the session downgrades
// to signed-out and ErrAuthExpired is returned so callers re-authenticate
// instead of retrying with a dead credential.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	m.mu.RLock()
	creds := m.creds
	m.mu.RUnlock()

	if creds == nil || creds.IsGuest() {
		return nil
	}
	if !expiresSoon(creds.Token, m.now()) {
		return nil
	}
	return m.Refresh(ctx)
}

// Refresh forces a token exchange regardless of the current token's expiry.
// The gateway calls this when the remote store rejects a bearer that still
// looked valid locally. Failure downgrades the session to signed-out.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	creds := m.creds
	refresher := m.refresher
	m.mu.RUnlock()

	if creds == nil || creds.IsGuest() {
		return fmt.Errorf("%w: no authenticated session", apperrors.ErrNotAuthenticated)
	}
	if refresher == nil || creds.RefreshToken == "" {
		return m.downgrade("no refresh token available")
	}

	pair, err := refresher.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		return m.downgrade(fmt.Sprintf("refresh failed: %v", err))
	}

	updated := *creds
	updated.Token = pair.Token
	if pair.RefreshToken != "" {
		updated.RefreshToken = pair.RefreshToken
	}
	updated.SavedAt = m.now().UTC()

	if err := m.store.SaveCredentials(&updated); err != nil {
		return fmt.Errorf("persist refreshed credentials: %w", err)
	}

	m.mu.Lock()
	m.creds = &updated
	m.mu.Unlock()

	m.logger.Info("access token refreshed", zap.String("username", updated.Username))
	return nil
}

// downgrade drops to a signed-out session after a failed refresh.
func (m *Manager) downgrade(cause string) error {
	m.logger.Warn("session downgraded to signed-out", zap.String("cause", cause))
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()
	if err := m.store.ClearCredentials(); err != nil {
		m.logger.Warn("clear stale credentials", zap.Error(err))
	}
	return fmt.Errorf("%w: %s", apperrors.ErrAuthExpired, cause)
}
