package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/repositories"
	"github.com/desertthunder/wardrobe/internal/shared"
	"golang.org/x/oauth2"
)

func newStore(t *testing.T) *repositories.SessionStore {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return repositories.NewSessionStore(db)
}

// lineServer fakes the LINE token and profile endpoints.
type lineServer struct {
	*httptest.Server
	profileStatus int
	tokenCalls    atomic.Int32
	profileCalls  atomic.Int32
	lastBearer    atomic.Value
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()

	ls := &lineServer{profileStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		ls.tokenCalls.Add(1)
		_ = r.ParseForm()
		access := "access-from-code"
		if r.Form.Get("grant_type") == "refresh_token" {
			access = "access-refreshed"
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"`+access+`","token_type":"Bearer","refresh_token":"refresh-2","expires_in":3600}`)
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		ls.profileCalls.Add(1)
		ls.lastBearer.Store(r.Header.Get("Authorization"))
		if ls.profileStatus != http.StatusOK {
			w.WriteHeader(ls.profileStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"userId":"U123","displayName":"Aiko"}`)
	})

	ls.Server = httptest.NewServer(mux)
	t.Cleanup(ls.Close)
	return ls
}

func newTestProvider(ls *lineServer, store TokenStore) *LineProvider {
	cfg := shared.LineConfig{ChannelID: "1234", ChannelSecret: "secret", RedirectURI: "http://localhost:3000/callback"}
	return NewLineProvider(cfg, store, shared.NewLogger(io.Discard)).
		WithEndpoints(ls.URL+"/authorize", ls.URL+"/token", ls.URL+"/profile").
		WithHTTPClient(ls.Client())
}

func cacheToken(t *testing.T, store TokenStore, token *oauth2.Token) {
	t.Helper()
	data, err := json.Marshal(token)
	if err != nil {
		t.Fatalf("marshal token: %v", err)
	}
	if err := store.SetValue(repositories.KeyProviderToken, string(data)); err != nil {
		t.Fatalf("cache token: %v", err)
	}
}

func TestStoredProvider(t *testing.T) {
	t.Run("No Session Requires Login", func(t *testing.T) {
		_, err := NewStoredProvider(newStore(t)).Initialize(context.Background())
		if !errors.Is(err, shared.ErrLoginRequired) {
			t.Fatalf("expected ErrLoginRequired, got %v", err)
		}
		if errors.Is(err, shared.ErrInitFailed) {
			t.Error("login required must not read as an init failure")
		}
	})

	t.Run("Returns Stored Session", func(t *testing.T) {
		store := newStore(t)
		_ = store.Set(models.Session{UserID: "U123", DisplayName: "Aiko"})

		session, err := NewStoredProvider(store).Initialize(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.UserID != "U123" {
			t.Errorf("expected U123, got %s", session.UserID)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewStoredProvider(newStore(t)).Initialize(ctx)
		if !errors.Is(err, shared.ErrInitFailed) {
			t.Errorf("expected ErrInitFailed, got %v", err)
		}
	})
}

func TestLineProvider(t *testing.T) {
	t.Run("No Token Requires Login", func(t *testing.T) {
		ls := newLineServer(t)
		_, err := newTestProvider(ls, newStore(t)).Initialize(context.Background())

		lr, ok := AsLoginRequired(err)
		if !ok {
			t.Fatalf("expected LoginRequiredError, got %v", err)
		}
		if !strings.Contains(lr.AuthURL, "client_id=1234") || !strings.Contains(lr.AuthURL, "state="+lr.State) {
			t.Errorf("unexpected auth url %s", lr.AuthURL)
		}
		if ls.profileCalls.Load() != 0 {
			t.Error("profile must not be requested without a token")
		}
	})

	t.Run("Cached Token Resolves Session", func(t *testing.T) {
		ls := newLineServer(t)
		store := newStore(t)
		cacheToken(t, store, &oauth2.Token{AccessToken: "cached", TokenType: "Bearer"})

		session, err := newTestProvider(ls, store).Initialize(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.UserID != "U123" || session.DisplayName != "Aiko" {
			t.Errorf("unexpected session %+v", session)
		}
		if got := ls.lastBearer.Load(); got != "Bearer cached" {
			t.Errorf("expected cached bearer token, got %v", got)
		}

		stored, err := store.Get()
		if err != nil || stored.UserID != "U123" {
			t.Errorf("session should be persisted, got %+v, %v", stored, err)
		}
	})

	t.Run("Expired Token Is Refreshed And Persisted", func(t *testing.T) {
		ls := newLineServer(t)
		store := newStore(t)
		cacheToken(t, store, &oauth2.Token{
			AccessToken:  "stale",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-time.Hour),
		})

		if _, err := newTestProvider(ls, store).Initialize(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ls.tokenCalls.Load() != 1 {
			t.Errorf("expected one refresh call, got %d", ls.tokenCalls.Load())
		}

		raw, ok, _ := store.Value(repositories.KeyProviderToken)
		if !ok || !strings.Contains(raw, "access-refreshed") {
			t.Errorf("refreshed token should be persisted, got %q", raw)
		}
	})

	t.Run("Unauthorized Profile Clears Token", func(t *testing.T) {
		ls := newLineServer(t)
		ls.profileStatus = http.StatusUnauthorized
		store := newStore(t)
		cacheToken(t, store, &oauth2.Token{AccessToken: "revoked"})

		_, err := newTestProvider(ls, store).Initialize(context.Background())
		if !errors.Is(err, shared.ErrLoginRequired) {
			t.Fatalf("expected ErrLoginRequired, got %v", err)
		}
		if _, ok, _ := store.Value(repositories.KeyProviderToken); ok {
			t.Error("rejected token should be removed")
		}
	})

	t.Run("Profile Server Error Is Init Failure", func(t *testing.T) {
		ls := newLineServer(t)
		ls.profileStatus = http.StatusBadGateway
		store := newStore(t)
		cacheToken(t, store, &oauth2.Token{AccessToken: "cached"})

		_, err := newTestProvider(ls, store).Initialize(context.Background())
		if !errors.Is(err, shared.ErrInitFailed) {
			t.Fatalf("expected ErrInitFailed, got %v", err)
		}
		if _, ok, _ := store.Value(repositories.KeyProviderToken); !ok {
			t.Error("token should be kept on a server error")
		}
	})

	t.Run("Unreachable Provider Is Init Failure", func(t *testing.T) {
		ls := newLineServer(t)
		store := newStore(t)
		cacheToken(t, store, &oauth2.Token{AccessToken: "cached"})
		p := newTestProvider(ls, store)
		ls.Close()

		_, err := p.Initialize(context.Background())
		if !errors.Is(err, shared.ErrInitFailed) {
			t.Errorf("expected ErrInitFailed, got %v", err)
		}
	})

	t.Run("Garbage Token Requires Login", func(t *testing.T) {
		ls := newLineServer(t)
		store := newStore(t)
		_ = store.SetValue(repositories.KeyProviderToken, "not json")

		_, err := newTestProvider(ls, store).Initialize(context.Background())
		if !errors.Is(err, shared.ErrLoginRequired) {
			t.Errorf("expected ErrLoginRequired, got %v", err)
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		ls := newLineServer(t)
		store := newStore(t)

		session, err := newTestProvider(ls, store).Exchange(context.Background(), "auth-code")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.UserID != "U123" {
			t.Errorf("expected U123, got %s", session.UserID)
		}
		if got := ls.lastBearer.Load(); got != "Bearer access-from-code" {
			t.Errorf("expected exchanged token to be used, got %v", got)
		}
	})
}

func TestNewProvider(t *testing.T) {
	store := newStore(t)

	if _, ok := NewProvider(shared.LineConfig{}, store, nil).(*StoredProvider); !ok {
		t.Error("expected StoredProvider without channel credentials")
	}

	cfg := shared.LineConfig{ChannelID: "id", ChannelSecret: "secret"}
	if _, ok := NewProvider(cfg, store, nil).(*LineProvider); !ok {
		t.Error("expected LineProvider with channel credentials")
	}

	if err := store.Set(models.Session{UserID: "U999"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := NewProvider(cfg, store, nil).(*StoredProvider); !ok {
		t.Error("expected StoredProvider for a manually set session")
	}

	if err := store.SetValue(repositories.KeyProviderToken, `{"access_token":"a"}`); err != nil {
		t.Fatal(err)
	}
	if _, ok := NewProvider(cfg, store, nil).(*LineProvider); !ok {
		t.Error("expected LineProvider once a token is cached")
	}
}
