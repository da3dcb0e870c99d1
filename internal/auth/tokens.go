package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/models"
	"github.com/jerilmartin/infini8graph/pkg/logging"
)

// ErrReauthRequired signals that no currently-valid token exists for the
// account. The caller must send the user back through the OAuth flow; no
// internal retry or refresh is attempted here.
var ErrReauthRequired = errors.New("access token missing or expired, re-authentication required")

// AccountStore is the subset of account persistence the resolver needs
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	ListExpiringTokens(ctx context.Context, deadline time.Time) ([]*models.SocialAccount, error)
}

// TokenSource resolves stored credentials for connected accounts
type TokenSource struct {
	accounts AccountStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewTokenSource creates a token source over the account store
func NewTokenSource(accounts AccountStore) *TokenSource {
	return &TokenSource{
		accounts: accounts,
		now:      time.Now,
		logger:   logging.GetLogger().With(zap.String("component", "token-source")),
	}
}

// Resolve returns a currently-valid bearer token for the account, or
// ErrReauthRequired when none exists
func (t *TokenSource) Resolve(ctx context.Context, accountID string) (string, error) {
	account, err := t.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	if account == nil || !account.Connected {
		return "", ErrReauthRequired
	}
	if !account.TokenValidAt(t.now()) {
		t.logger.Info("Stored token expired",
			zap.String("account_id", accountID),
			zap.Time("expired_at", account.TokenExpiresAt))
		return "", ErrReauthRequired
	}
	return account.AccessToken, nil
}

// ExpiringWithin lists connected accounts whose token expires within the
// window, so callers can surface re-authentication prompts ahead of time
func (t *TokenSource) ExpiringWithin(ctx context.Context, window time.Duration) ([]*models.SocialAccount, error) {
	return t.accounts.ListExpiringTokens(ctx, t.now().Add(window))
}
