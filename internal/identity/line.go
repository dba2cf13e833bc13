package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/repositories"
	"github.com/desertthunder/wardrobe/internal/shared"
	"golang.org/x/oauth2"
)

const (
	lineAuthURL    = "https://access.line.me/oauth2/v2.1/authorize"
	lineTokenURL   = "https://api.line.me/oauth2/v2.1/token"
	lineProfileURL = "https://api.line.me/v2/profile"
)

// LineProfile is the subset of the LINE profile response the client uses.
type LineProfile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

// LineProvider resolves sessions through LINE Login (OAuth2 authorization code flow).
//
// The token is cached in the session store under [repositories.KeyProviderToken]. Refreshed tokens
// are written back; a rejected token is removed and the caller is sent to login again.
type LineProvider struct {
	config     *oauth2.Config
	store      TokenStore
	profileURL string
	httpClient *http.Client
	logger     *log.Logger
}

// NewLineProvider creates a [LineProvider] for the configured LINE channel.
func NewLineProvider(cfg shared.LineConfig, store TokenStore, logger *log.Logger) *LineProvider {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     cfg.ChannelID,
		ClientSecret: cfg.ChannelSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"profile", "openid"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   lineAuthURL,
			TokenURL:  lineTokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &LineProvider{
		config:     config,
		store:      store,
		profileURL: lineProfileURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// WithEndpoints points the provider at different authorize, token and profile URLs.
func (p *LineProvider) WithEndpoints(authURL, tokenURL, profileURL string) *LineProvider {
	p.config.Endpoint.AuthURL = authURL
	p.config.Endpoint.TokenURL = tokenURL
	p.profileURL = profileURL
	return p
}

// WithHTTPClient sets the client used for token and profile requests.
func (p *LineProvider) WithHTTPClient(c *http.Client) *LineProvider {
	p.httpClient = c
	return p
}

// AuthURL returns the LINE authorization URL for the given state token.
func (p *LineProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Initialize resolves the session from the cached token.
//
// Without a usable token it returns a [LoginRequiredError] carrying a fresh state token.
func (p *LineProvider) Initialize(ctx context.Context) (*models.Session, error) {
	token, err := p.cachedToken()
	if err != nil {
		return nil, &InitError{Err: err}
	}
	if token == nil {
		return nil, p.loginRequired()
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	fresh, err := p.config.TokenSource(ctx, token).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < 500 {
			p.logger.Warn("cached LINE token rejected", "status", re.Response.StatusCode)
			return nil, p.forget()
		}
		return nil, &InitError{Err: fmt.Errorf("token refresh failed: %w", err)}
	}

	if fresh.AccessToken != token.AccessToken {
		if err := p.saveToken(fresh); err != nil {
			return nil, &InitError{Err: err}
		}
		p.logger.Debug("refreshed LINE token persisted")
	}

	profile, err := p.profile(ctx, fresh.AccessToken)
	if err != nil {
		if errors.Is(err, shared.ErrLoginRequired) {
			return nil, p.forget()
		}
		return nil, &InitError{Err: err}
	}

	session := models.Session{UserID: profile.UserID, DisplayName: profile.DisplayName}
	if err := p.store.Set(session); err != nil {
		return nil, &InitError{Err: err}
	}

	return &session, nil
}

// Exchange completes a login with the authorization code from the callback and resolves the session.
func (p *LineProvider) Exchange(ctx context.Context, code string) (*models.Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, &InitError{Err: fmt.Errorf("token exchange failed: %w", err)}
	}

	if err := p.saveToken(token); err != nil {
		return nil, &InitError{Err: err}
	}

	return p.Initialize(ctx)
}

func (p *LineProvider) profile(ctx context.Context, accessToken string) (*LineProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, shared.ErrLoginRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("LINE profile error: status %d", resp.StatusCode)
	}

	var profile LineProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if profile.UserID == "" {
		return nil, models.ErrMissingUserID
	}

	return &profile, nil
}

func (p *LineProvider) cachedToken() (*oauth2.Token, error) {
	raw, ok, err := p.store.Value(repositories.KeyProviderToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil || token.AccessToken == "" {
		p.logger.Warn("discarding unreadable cached token")
		return nil, p.store.DeleteValue(repositories.KeyProviderToken)
	}
	return &token, nil
}

func (p *LineProvider) saveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return p.store.SetValue(repositories.KeyProviderToken, string(data))
}

// forget drops the cached token and returns the login redirect.
func (p *LineProvider) forget() error {
	if err := p.store.DeleteValue(repositories.KeyProviderToken); err != nil {
		return &InitError{Err: err}
	}
	return p.loginRequired()
}

func (p *LineProvider) loginRequired() *LoginRequiredError {
	state := shared.GenerateID()
	return &LoginRequiredError{AuthURL: p.AuthURL(state), State: state}
}
