package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Dispatches By Method", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/items", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("get"))
		})
		r.HandleFunc(http.MethodPost, "/items", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("post"))
		})

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/items", nil))
			if got := rec.Body.String(); got != strings.ToLower(method) {
				t.Errorf("%s: body = %q", method, got)
			}
		}
	})

	t.Run("Unknown Method Is Rejected", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/items", func(w http.ResponseWriter, _ *http.Request) {})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})

	t.Run("Middleware Runs In Registration Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("order = %s", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging Records Status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		if !strings.Contains(out, "/brew") || !strings.Contains(out, "418") {
			t.Errorf("log output = %q", out)
		}
	})

	t.Run("Request ID Is Generated", func(t *testing.T) {
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("Request ID Is Echoed", func(t *testing.T) {
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "abc" {
			t.Errorf("request id = %q", got)
		}
	})

	t.Run("Recover Returns 500", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recover(shared.NewLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("panic not logged: %q", buf.String())
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	exchange := func(_ context.Context, code string) (*models.Session, error) {
		if code != "good" {
			return nil, errors.New("bad code")
		}
		return &models.Session{UserID: "U123", DisplayName: "Aya"}, nil
	}

	serve := func(h *OAuthHandler, query string) *httptest.ResponseRecorder {
		r := NewBasicRouter()
		r.Handler(h)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+query, nil))
		return rec
	}

	receive := func(t *testing.T, h *OAuthHandler) OAuthResult {
		t.Helper()
		select {
		case res := <-h.Result():
			return res
		case <-time.After(time.Second):
			t.Fatal("no result delivered")
			return OAuthResult{}
		}
	}

	t.Run("Successful Exchange", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1", "")
		rec := serve(h, "state=s1&code=good")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Aya") {
			t.Errorf("body missing display name: %s", rec.Body.String())
		}

		res := receive(t, h)
		if res.Error() != nil {
			t.Fatalf("unexpected error: %v", res.Error())
		}
		if res.Session.UserID != "U123" {
			t.Errorf("user id = %q", res.Session.UserID)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1", "")
		rec := serve(h, "state=other&code=good")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
		if res := receive(t, h); res.Error() == nil {
			t.Error("expected error")
		}
	})

	t.Run("Provider Denied", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1", "")
		serve(h, "state=s1&error=access_denied&error_description=cancelled")

		res := receive(t, h)
		if res.Error() == nil || !strings.Contains(res.Error().Error(), "access_denied") {
			t.Errorf("error = %v", res.Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1", "")
		rec := serve(h, "state=s1&code=bad")

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
		if res := receive(t, h); res.Error() == nil {
			t.Error("expected error")
		}
	})

	t.Run("Second Callback Refused", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1", "/auth/callback")
		r := NewBasicRouter()
		r.Handler(h)

		first := httptest.NewRecorder()
		r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1&code=good", nil))
		second := httptest.NewRecorder()
		r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1&code=good", nil))

		if first.Code != http.StatusOK || second.Code != http.StatusBadRequest {
			t.Errorf("codes = %d, %d", first.Code, second.Code)
		}
	})
}

func TestListenAndServe(t *testing.T) {
	t.Run("Stops When Context Is Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler(), shared.NewLogger(&bytes.Buffer{}))
		}()

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(6 * time.Second):
			t.Fatal("server did not stop")
		}
	})
}
