// Package web serves the wardrobe and wannabe boards as server-rendered HTML pages.
//
// Each board is backed by one [controller.Controller]. The first request for a board
// bootstraps it; a board that ended in a login redirect or an init failure is rebuilt on the
// next request, the way reloading the page would. Mutations use POST and redirect back to
// the board, which then shows the controller's status line.
//
// Routes:
//
//	GET  /                main board, ?category= filters, ?refresh=1 re-fetches
//	GET  /wannabe         wannabe board
//	POST /upload          multipart "image" files plus "category"
//	POST /wannabe/upload  multipart "image" files
//	POST /delete          form "path" values
//	POST /wannabe/delete  form "path" values
//	GET  /auth/login      redirect to LINE Login
//	GET  <callback>       LINE Login callback, path taken from the configured redirect URI
//	GET  /healthz
//	GET  /metrics         Prometheus
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/controller"
	"github.com/desertthunder/wardrobe/internal/identity"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/server"
	"github.com/desertthunder/wardrobe/internal/services"
	"github.com/desertthunder/wardrobe/internal/shared"
	"github.com/desertthunder/wardrobe/internal/tasks"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxUploadMemory is the multipart size kept in memory; larger parts spill to temp files.
const maxUploadMemory = 32 << 20

var funcs = template.FuncMap{
	"level": func(l controller.Level) string { return l.String() },
}

// Login is the part of the LINE provider the web pages drive.
type Login interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*models.Session, error)
}

// Options wires a [Server].
type Options struct {
	Provider identity.Provider
	// Login is nil when no LINE channel is configured.
	Login        Login
	CallbackPath string
	Client       *services.WardrobeClient
	Engine       *tasks.UploadEngine
	Logger       *log.Logger
}

// Server holds one controller per board.
type Server struct {
	provider     identity.Provider
	login        Login
	callbackPath string
	client       *services.WardrobeClient
	engine       *tasks.UploadEngine
	logger       *log.Logger
	tmpl         *template.Template

	mu     sync.Mutex
	pages  map[models.PageKind]*controller.Controller
	states map[string]struct{}
}

// New creates a [Server] and parses the embedded templates.
func New(opts Options) (*Server, error) {
	if opts.Provider == nil || opts.Client == nil || opts.Engine == nil {
		return nil, errors.New("web: provider, client and engine are required")
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.CallbackPath == "" {
		opts.CallbackPath = "/auth/callback"
	}

	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		provider:     opts.Provider,
		login:        opts.Login,
		callbackPath: opts.CallbackPath,
		client:       opts.Client,
		engine:       opts.Engine,
		logger:       opts.Logger.WithPrefix("web"),
		tmpl:         tmpl,
		pages:        make(map[models.PageKind]*controller.Controller),
		states:       make(map[string]struct{}),
	}, nil
}

// Handler returns the routed handler with request id, logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	r := server.NewBasicRouter()
	r.Use(server.RequestID(), server.Logging(s.logger), server.Recover(s.logger))

	r.HandleFunc(http.MethodGet, "/{$}", s.board(models.PageMain))
	r.HandleFunc(http.MethodGet, "/wannabe", s.board(models.PageWannabe))
	r.HandleFunc(http.MethodPost, "/upload", s.upload(models.PageMain))
	r.HandleFunc(http.MethodPost, "/wannabe/upload", s.upload(models.PageWannabe))
	r.HandleFunc(http.MethodPost, "/delete", s.remove(models.PageMain))
	r.HandleFunc(http.MethodPost, "/wannabe/delete", s.remove(models.PageWannabe))

	r.HandleFunc(http.MethodGet, "/auth/login", s.startLogin)
	r.HandleFunc(http.MethodGet, s.callbackPath, s.callback)

	r.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// page returns the controller for kind, bootstrapping a fresh one when there is none or the last one is terminal.
//
// Bootstrap runs without holding mu, so one slow sign-in does not stall the other board.
// When two requests race to rebuild the same board, the first published controller wins.
func (s *Server) page(ctx context.Context, kind models.PageKind) *controller.Controller {
	if ctrl, ok := s.current(kind); ok {
		return ctrl
	}

	variant := controller.VariantFor(kind, s.client.Categories())
	logger := s.logger.With("page", kind.String())
	fresh := controller.New(variant, s.provider, s.client.Collection(kind), s.engine, logger)

	if err := fresh.Bootstrap(ctx); err != nil && !errors.Is(err, shared.ErrLoginRequired) {
		logger.Warn("bootstrap", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.pages[kind]; ok && !ctrl.State().Terminal() {
		return ctrl
	}
	s.pages[kind] = fresh
	return fresh
}

func (s *Server) current(kind models.PageKind) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.pages[kind]
	if !ok || ctrl.State().Terminal() {
		return nil, false
	}
	return ctrl, true
}

// reset drops every board so the next request bootstraps with the new session.
func (s *Server) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.pages)
}
