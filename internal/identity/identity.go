// Package identity resolves the session a page runs under.
//
// A [Provider] either returns a session, asks the caller to send the user to a login page
// ([LoginRequiredError]), or fails with an [InitError]. Only the last one is a failure: a login
// redirect is ordinary navigation.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/repositories"
	"github.com/desertthunder/wardrobe/internal/shared"
)

// Provider resolves the active session.
type Provider interface {
	Initialize(ctx context.Context) (*models.Session, error)
}

// TokenStore is the session store plus the auxiliary values a provider caches.
type TokenStore interface {
	models.SessionStore
	SetValue(key, value string) error
	Value(key string) (string, bool, error)
	DeleteValue(key string) error
}

// LoginRequiredError asks the caller to navigate to AuthURL. It matches [shared.ErrLoginRequired].
//
// AuthURL is empty when the provider has no interactive login, e.g. [StoredProvider].
type LoginRequiredError struct {
	AuthURL string
	State   string
}

func (e *LoginRequiredError) Error() string {
	if e.AuthURL == "" {
		return shared.ErrLoginRequired.Error()
	}
	return fmt.Sprintf("%s: visit %s", shared.ErrLoginRequired, e.AuthURL)
}

func (e *LoginRequiredError) Is(target error) bool { return target == shared.ErrLoginRequired }

// InitError reports a provider or network failure while resolving the session. It matches [shared.ErrInitFailed].
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s: %v", shared.ErrInitFailed, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func (e *InitError) Is(target error) bool { return target == shared.ErrInitFailed }

// AsLoginRequired extracts a [LoginRequiredError] from err.
func AsLoginRequired(err error) (*LoginRequiredError, bool) {
	var lr *LoginRequiredError
	if errors.As(err, &lr) {
		return lr, true
	}
	return nil, false
}

// StoredProvider resolves the session from the session store alone.
//
// It serves setups without a LINE channel and sessions set manually with `auth use`.
type StoredProvider struct {
	store models.SessionStore
}

// NewStoredProvider creates a [StoredProvider] reading from store
func NewStoredProvider(store models.SessionStore) *StoredProvider {
	return &StoredProvider{store: store}
}

// Initialize returns the stored session or a [LoginRequiredError] when none exists.
func (p *StoredProvider) Initialize(ctx context.Context) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &InitError{Err: err}
	}

	session, err := p.store.Get()
	if errors.Is(err, models.ErrNoSession) {
		return nil, &LoginRequiredError{}
	}
	if err != nil {
		return nil, &InitError{Err: err}
	}
	if err := session.Validate(); err != nil {
		return nil, &InitError{Err: err}
	}
	return session, nil
}

// NewProvider picks the LINE provider when a channel is configured and the stored provider otherwise.
//
// A session stored without a provider token was set manually and keeps using the stored provider.
func NewProvider(cfg shared.LineConfig, store TokenStore, logger *log.Logger) Provider {
	if !cfg.Enabled() || manualSession(store) {
		return NewStoredProvider(store)
	}
	return NewLineProvider(cfg, store, logger)
}

func manualSession(store TokenStore) bool {
	if _, err := store.Get(); err != nil {
		return false
	}
	_, hasToken, err := store.Value(repositories.KeyProviderToken)
	return err == nil && !hasToken
}
