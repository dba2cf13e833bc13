package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/controller"
	"github.com/desertthunder/wardrobe/internal/identity"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/repositories"
	"github.com/desertthunder/wardrobe/internal/services"
	"github.com/desertthunder/wardrobe/internal/shared"
	"github.com/desertthunder/wardrobe/internal/tasks"
	"github.com/urfave/cli/v3"
)

// loginHint is appended to login-required errors on the command line.
const loginHint = "run `wardrobe auth login` or `wardrobe auth use <user-id>`"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and wardrobe client are created on first use so commands that need neither
// (setup config, --help) work without a reachable backend or a writable database path.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	client     *services.WardrobeClient
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, wardrobeCommand, wannabeCommand, historyCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure resolves the configuration file, .env file and WARDROBE_* variables.
func (r *Runner) configure(_ context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	config, err := shared.ResolveConfig(r.configPath, cmd.String("env-file"))
	if err != nil {
		return err
	}
	r.config = config
	r.client = nil
	return nil
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database connection if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) sessionStore() (*repositories.SessionStore, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewSessionStore(db), nil
}

func (r *Runner) uploadLog() (*repositories.UploadLogRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewUploadLogRepository(db), nil
}

func (r *Runner) provider() (identity.Provider, error) {
	store, err := r.sessionStore()
	if err != nil {
		return nil, err
	}
	return identity.NewProvider(r.config.Line, store, r.logger), nil
}

func (r *Runner) wardrobeClient() (*services.WardrobeClient, error) {
	if r.client != nil {
		return r.client, nil
	}

	client, err := services.NewWardrobeClient(r.config, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

func (r *Runner) uploadEngine() (*tasks.UploadEngine, error) {
	repo, err := r.uploadLog()
	if err != nil {
		return nil, err
	}
	return tasks.NewUploadEngine(r.config.Backend.UploadsPerSecond, repositories.NewUploadRecorder(repo), r.logger), nil
}

// controller builds an unbootstrapped page controller for kind.
func (r *Runner) controller(kind models.PageKind) (*controller.Controller, error) {
	provider, err := r.provider()
	if err != nil {
		return nil, err
	}
	client, err := r.wardrobeClient()
	if err != nil {
		return nil, err
	}
	engine, err := r.uploadEngine()
	if err != nil {
		return nil, err
	}

	variant := controller.VariantFor(kind, client.Categories())
	return controller.New(variant, provider, client.Collection(kind), engine, r.logger), nil
}

// page builds and bootstraps a controller. Login redirects carry a hint for the command line.
func (r *Runner) page(ctx context.Context, kind models.PageKind) (*controller.Controller, error) {
	ctrl, err := r.controller(kind)
	if err != nil {
		return nil, err
	}

	if err := ctrl.Bootstrap(ctx); err != nil {
		if ctrl.State() == controller.LoginRedirected {
			return nil, fmt.Errorf("%w: %s", err, loginHint)
		}
		return nil, err
	}
	return ctrl, nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeStatus prints the controller's status line.
func (r *Runner) writeStatus(ctrl *controller.Controller) error {
	status := ctrl.Status()
	mark := "•"
	switch status.Level {
	case controller.LevelSuccess:
		mark = "✓"
	case controller.LevelWarn, controller.LevelError:
		mark = "✗"
	}
	return r.writePlain("%s %s\n", mark, status.Message)
}
