package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
)

// FakeItem is one image held by [FakeBackend].
type FakeItem struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Tags     string `json:"tags,omitempty"`
}

type fakeStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// FakeBackend is an in-memory wardrobe server speaking the canonical endpoints.
//
// Items are kept per user and per collection in insertion order.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	main        map[string][]FakeItem
	wannabe     map[string][]FakeItem
	failFiles   map[string]string
	invalidJSON bool
	listStatus  int
	calls       map[string]int
	seq         int
}

// NewFakeBackend starts a fake server that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		main:      map[string][]FakeItem{},
		wannabe:   map[string][]FakeItem{},
		failFiles: map[string]string{},
		calls:     map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /wardrobe", f.handleList(models.PageMain))
	mux.HandleFunc("GET /wannabe_wardrobe", f.handleList(models.PageWannabe))
	mux.HandleFunc("POST /upload", f.handleUpload(models.PageMain))
	mux.HandleFunc("POST /upload_wannabe", f.handleUpload(models.PageWannabe))
	mux.HandleFunc("POST /delete", f.handleDelete(models.PageMain))
	mux.HandleFunc("POST /delete_wannabe", f.handleDelete(models.PageWannabe))
	mux.HandleFunc("GET /uploads/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff, 0xd9})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base URL.
func (f *FakeBackend) URL() string { return f.Server.URL }

// Config returns the default configuration pointed at the fake server with retries disabled.
func (f *FakeBackend) Config() *shared.Config {
	cfg := shared.DefaultConfig()
	cfg.Backend.BaseURL = f.URL()
	cfg.Backend.ListRetries = 0
	cfg.Backend.UploadsPerSecond = 0
	cfg.Database.Path = ":memory:"
	return cfg
}

// Seed stores items for userID in the collection of kind.
func (f *FakeBackend) Seed(userID string, kind models.PageKind, items ...FakeItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	store := f.collection(kind)
	store[userID] = append(store[userID], items...)
}

// Items returns a copy of what the server holds for userID.
func (f *FakeBackend) Items(userID string, kind models.PageKind) []FakeItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeItem(nil), f.collection(kind)[userID]...)
}

// FailUpload makes uploads of the named file answer {"status":"error","message":message}.
func (f *FakeBackend) FailUpload(name, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFiles[name] = message
}

// SetInvalidJSON makes list endpoints answer with a non-JSON body.
func (f *FakeBackend) SetInvalidJSON(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidJSON = v
}

// SetListStatus forces the list endpoints to answer with code. 0 restores normal behavior.
func (f *FakeBackend) SetListStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listStatus = code
}

// Calls returns how many requests reached the named route, e.g. "list", "upload_wannabe".
func (f *FakeBackend) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *FakeBackend) collection(kind models.PageKind) map[string][]FakeItem {
	if kind == models.PageWannabe {
		return f.wannabe
	}
	return f.main
}

func route(op string, kind models.PageKind) string {
	if kind == models.PageWannabe {
		return op + "_wannabe"
	}
	return op
}

func (f *FakeBackend) handleList(kind models.PageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls[route("list", kind)]++

		if f.listStatus != 0 {
			writeJSON(w, f.listStatus, fakeStatus{Status: "error", Message: "forced failure"})
			return
		}
		if f.invalidJSON {
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html>502 Bad Gateway</html>")
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, fakeStatus{Status: "error", Message: "missing user_id"})
			return
		}

		category := r.URL.Query().Get("category")
		images := []FakeItem{}
		for _, item := range f.collection(kind)[userID] {
			if kind == models.PageMain && category != "" && category != "all" && item.Category != category {
				continue
			}
			images = append(images, item)
		}

		writeJSON(w, http.StatusOK, map[string]any{"images": images})
	}
}

func (f *FakeBackend) handleUpload(kind models.PageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[route("upload", kind)]++
		f.mu.Unlock()

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, fakeStatus{Status: "error", Message: "bad form"})
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, fakeStatus{Status: "error", Message: "missing image"})
			return
		}
		defer file.Close()

		userID := r.FormValue("user_id")
		category := r.FormValue("category")
		if kind == models.PageWannabe {
			category = "wannabe"
		}
		if userID == "" || category == "" {
			writeJSON(w, http.StatusBadRequest, fakeStatus{Status: "error", Message: "missing parameters"})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		if msg, ok := f.failFiles[header.Filename]; ok {
			writeJSON(w, http.StatusOK, fakeStatus{Status: "error", Message: msg})
			return
		}

		f.seq++
		path := fmt.Sprintf("/uploads/%s/%d_%s", userID, f.seq, header.Filename)
		store := f.collection(kind)
		store[userID] = append(store[userID], FakeItem{Path: path, Category: category})

		writeJSON(w, http.StatusOK, fakeStatus{Status: "ok", Filename: path})
	}
}

func (f *FakeBackend) handleDelete(kind models.PageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls[route("delete", kind)]++

		var req struct {
			UserID string   `json:"user_id"`
			Paths  []string `json:"paths"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.Paths) == 0 {
			writeJSON(w, http.StatusBadRequest, fakeStatus{Status: "error", Message: "missing user_id or paths"})
			return
		}

		drop := make(map[string]bool, len(req.Paths))
		for _, p := range req.Paths {
			drop[p] = true
		}

		store := f.collection(kind)
		kept := store[req.UserID][:0]
		for _, item := range store[req.UserID] {
			if !drop[item.Path] {
				kept = append(kept, item)
			}
		}
		store[req.UserID] = kept

		writeJSON(w, http.StatusOK, fakeStatus{Status: "ok"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
