// Package controller wires identity, the wardrobe client and the gallery into one page.
//
// A [Controller] is created per page load with a [Variant] chosen once, bootstrapped, and then
// driven by user actions. Every operation leaves a visible [Status]; none of them panic.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/gallery"
	"github.com/desertthunder/wardrobe/internal/identity"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/services"
	"github.com/desertthunder/wardrobe/internal/shared"
	"github.com/desertthunder/wardrobe/internal/tasks"
)

// Variant is the page kind together with its presentation.
type Variant struct {
	Kind         models.PageKind
	Title        string
	Buckets      []models.Category
	EmptyMessage string
}

// MainVariant is the categorized wardrobe page.
func MainVariant(categories []models.Category) Variant {
	return Variant{Kind: models.PageMain, Title: "My Wardrobe", Buckets: categories, EmptyMessage: gallery.NoMatches}
}

// WannabeVariant is the single-bucket "who I want to be" board.
func WannabeVariant() Variant {
	return Variant{
		Kind:         models.PageWannabe,
		Title:        "Who I Want To Be",
		Buckets:      []models.Category{models.CategoryWannabe},
		EmptyMessage: gallery.NoImages,
	}
}

// VariantFor selects the variant for kind.
func VariantFor(kind models.PageKind, categories []models.Category) Variant {
	if kind == models.PageWannabe {
		return WannabeVariant()
	}
	return MainVariant(categories)
}

// Controller is one page: its session, the last listing and the current view.
type Controller struct {
	variant    Variant
	provider   identity.Provider
	collection services.Collection
	engine     *tasks.UploadEngine
	renderer   *gallery.Renderer
	logger     *log.Logger

	mu         sync.Mutex
	state      State
	session    *models.Session
	items      []models.WardrobeItem
	filter     models.Category
	view       *gallery.View
	status     Status
	loginURL   string
	loginState string
}

// New creates a controller in the [Unauthenticated] state.
func New(variant Variant, provider identity.Provider, collection services.Collection, engine *tasks.UploadEngine, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = logger.With("page", variant.Kind)

	renderer := gallery.NewRenderer(variant.Buckets, variant.EmptyMessage, logger)
	return &Controller{
		variant:    variant,
		provider:   provider,
		collection: collection,
		engine:     engine,
		renderer:   renderer,
		logger:     logger,
		state:      Unauthenticated,
		filter:     models.CategoryAll,
		view:       renderer.Render(nil, models.CategoryAll),
	}
}

// Bootstrap resolves the session and loads the first listing.
//
// A login redirect leaves the page in [LoginRedirected] and returns an error matching
// [shared.ErrLoginRequired]; a provider failure leaves it in [InitFailed]. When the session
// resolves but the listing fails, the page is still [Ready] and the load error is returned.
func (c *Controller) Bootstrap(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Unauthenticated {
		c.mu.Unlock()
		return fmt.Errorf("%w: page already bootstrapped (%s)", shared.ErrNotReady, c.state)
	}
	c.state = Authenticating
	c.status = Status{LevelInfo, "Signing in..."}
	c.mu.Unlock()

	session, err := c.provider.Initialize(ctx)
	if err == nil {
		err = session.Validate()
	}

	c.mu.Lock()
	if lr, ok := identity.AsLoginRequired(err); ok {
		c.state = LoginRedirected
		c.loginURL = lr.AuthURL
		c.loginState = lr.State
		c.status = Status{LevelInfo, "Please log in to continue."}
		c.logger.Info("login required")
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.state = InitFailed
		c.status = Status{LevelError, fmt.Sprintf("Could not sign in: %v. Reload to try again.", err)}
		c.mu.Unlock()
		c.logger.Error("initialization failed", "error", err)
		if !errors.Is(err, shared.ErrInitFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrInitFailed, err)
		}
		return err
	}

	c.session = session
	c.state = Loading
	c.status = Status{LevelSuccess, fmt.Sprintf("Logged in as %s", session.Name())}
	c.logger.Info("session ready", "user", session.UserID)
	c.mu.Unlock()

	items, err := c.fetch(ctx, session.UserID)

	c.mu.Lock()
	c.apply(items)
	c.state = Ready
	if err != nil {
		c.status = Status{LevelError, loadMessage(err)}
	}
	c.mu.Unlock()
	return err
}

// Refresh re-fetches the whole collection and re-renders.
//
// The page is [Loading] while the request is in flight; readers see the previous view until it returns.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireReady(); err != nil {
		c.mu.Unlock()
		return err
	}
	userID := c.session.UserID
	c.state = Loading
	c.status = Status{LevelInfo, "Loading images..."}
	c.mu.Unlock()

	items, err := c.fetch(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(items)
	c.state = Ready

	if err != nil {
		c.status = Status{LevelError, loadMessage(err)}
		return err
	}
	c.status = Status{LevelInfo, fmt.Sprintf("Loaded %d item(s)", len(c.items))}
	return nil
}

// SetFilter re-renders the last listing for category. No request is made.
func (c *Controller) SetFilter(category models.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return c.terminalErr()
	}

	if category == "" {
		category = models.CategoryAll
	}
	if category != models.CategoryAll && !category.In(c.variant.Buckets) {
		err := fmt.Errorf("%w: %w: %q", shared.ErrValidation, models.ErrInvalidCategory, category)
		c.status = Status{LevelWarn, fmt.Sprintf("Unknown category %q", category)}
		return err
	}

	c.filter = category
	c.view = c.renderer.Render(c.items, c.filter)
	return nil
}

// Upload sends files one by one into category and reloads the listing.
//
// The wannabe board ignores category. The returned tally is always accurate; the error matches
// [shared.ErrUploadFailed] when any file failed and is the context's error when the batch was cancelled.
func (c *Controller) Upload(ctx context.Context, category models.Category, files []models.UploadFile, progress chan<- tasks.ProgressUpdate) (models.UploadTally, error) {
	c.mu.Lock()
	if err := c.requireReady(); err != nil {
		c.mu.Unlock()
		return models.UploadTally{}, err
	}

	if c.variant.Kind == models.PageWannabe {
		category = models.CategoryWannabe
	} else if category == "" || !category.In(c.variant.Buckets) {
		c.status = Status{LevelWarn, "Please choose a category before uploading."}
		c.mu.Unlock()
		return models.UploadTally{}, fmt.Errorf("%w: missing or unknown category %q", shared.ErrValidation, category)
	}
	if len(files) == 0 {
		c.status = Status{LevelWarn, "Please choose at least one image."}
		c.mu.Unlock()
		return models.UploadTally{}, fmt.Errorf("%w: no files selected", shared.ErrValidation)
	}

	userID := c.session.UserID
	c.state = Uploading
	c.status = Status{LevelInfo, fmt.Sprintf("Uploading %d file(s)...", len(files))}
	c.mu.Unlock()

	batch := tasks.UploadBatch{UserID: userID, Category: category, Files: files}
	tally, runErr := c.engine.Run(ctx, progress, c.collection, batch)

	var items []models.WardrobeItem
	var loadErr error
	reload := tally.Succeeded+tally.Failed() > 0
	if reload {
		items, loadErr = c.fetch(context.WithoutCancel(ctx), userID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Ready
	if reload {
		c.apply(items)
	}

	switch {
	case runErr != nil && tally.Succeeded+tally.Failed()+tally.Cancelled == 0:
		c.status = Status{LevelWarn, tasks.Reason(runErr)}
	case runErr != nil:
		c.status = Status{LevelWarn, "Upload cancelled: " + tally.Summary()}
	case tally.Failed() > 0 && tally.Succeeded == 0:
		c.status = Status{LevelError, "Upload failed: " + tally.Summary() + failureDetail(tally)}
		runErr = fmt.Errorf("%w: %s", shared.ErrUploadFailed, tally.Summary())
	case tally.Failed() > 0:
		c.status = Status{LevelWarn, "Upload finished: " + tally.Summary() + failureDetail(tally)}
		runErr = fmt.Errorf("%w: %s", shared.ErrUploadFailed, tally.Summary())
	default:
		c.status = Status{LevelSuccess, "Upload finished: " + tally.Summary()}
	}

	if loadErr != nil {
		c.status = Status{LevelError, c.status.Message + "; " + loadMessage(loadErr)}
	}

	return tally, runErr
}

// Delete removes paths and reloads the listing. An empty selection is reported without a request.
func (c *Controller) Delete(ctx context.Context, paths []string) error {
	c.mu.Lock()
	if err := c.requireReady(); err != nil {
		c.mu.Unlock()
		return err
	}

	if len(paths) == 0 {
		c.status = Status{LevelWarn, "Please select the items to delete."}
		c.mu.Unlock()
		return fmt.Errorf("%w: no items selected", shared.ErrValidation)
	}

	userID := c.session.UserID
	c.state = Deleting
	c.status = Status{LevelInfo, fmt.Sprintf("Deleting %d item(s)...", len(paths))}
	c.mu.Unlock()

	err := c.collection.Delete(ctx, userID, paths)

	var items []models.WardrobeItem
	var loadErr error
	if err == nil {
		items, loadErr = c.fetch(context.WithoutCancel(ctx), userID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Ready

	if err != nil {
		c.status = Status{LevelError, "Delete failed: " + tasks.Reason(err)}
		c.logger.Error("delete failed", "error", err)
		return err
	}

	c.apply(items)
	c.status = Status{LevelSuccess, fmt.Sprintf("Deleted %d item(s)", len(paths))}
	if loadErr != nil {
		c.status = Status{LevelError, c.status.Message + "; " + loadMessage(loadErr)}
	}
	return nil
}

// DeleteSelected deletes the cards selected in the current view.
func (c *Controller) DeleteSelected(ctx context.Context) error {
	c.mu.Lock()
	paths := c.view.SelectedPaths()
	c.mu.Unlock()

	return c.Delete(ctx, paths)
}

// Toggle flips the selection of the card at path in the current view.
func (c *Controller) Toggle(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Toggle(path)
}

// Select sets the selection of the card at path in the current view.
func (c *Controller) Select(path string, selected bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Select(path, selected)
}

// SelectAll marks every card in the current view, or clears the selection when selected is false.
func (c *Controller) SelectAll(selected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if selected {
		c.view.SelectAll()
	} else {
		c.view.ClearSelection()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// View returns the current render pass. It is replaced, not mutated, by the next load or filter change.
func (c *Controller) View() *gallery.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) Filter() models.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Items returns a copy of the last listing, unfiltered.
func (c *Controller) Items() []models.WardrobeItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.WardrobeItem(nil), c.items...)
}

// Session returns the page's session, nil before it is [Ready].
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// LoginURL returns where the user has to log in after a [LoginRedirected] bootstrap.
func (c *Controller) LoginURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginURL
}

// LoginState returns the state token embedded in [Controller.LoginURL].
func (c *Controller) LoginState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginState
}

func (c *Controller) Variant() Variant { return c.variant }

// fetch lists the whole collection for userID. Callers must not hold mu.
func (c *Controller) fetch(ctx context.Context, userID string) ([]models.WardrobeItem, error) {
	items, err := c.collection.List(ctx, userID, models.CategoryAll)
	if err != nil {
		c.logger.Error("load failed", "error", err)
		return nil, err
	}
	return items, nil
}

// apply replaces the listing and re-renders it with the current filter. Callers hold mu.
//
// A failed fetch applies an empty listing so the page never shows stale items next to an error.
func (c *Controller) apply(items []models.WardrobeItem) {
	c.items = items
	c.view = c.renderer.Render(c.items, c.filter)
	if c.view.Skipped > 0 {
		c.logger.Warn("items not shown", "skipped", c.view.Skipped)
	}
}

func (c *Controller) requireReady() error {
	if c.state.Terminal() {
		return c.terminalErr()
	}
	if c.state != Ready {
		return fmt.Errorf("%w: %s", shared.ErrNotReady, c.state)
	}
	return nil
}

func (c *Controller) terminalErr() error {
	if c.state == LoginRedirected {
		return fmt.Errorf("%w: %w", shared.ErrNotReady, shared.ErrLoginRequired)
	}
	return fmt.Errorf("%w: %w", shared.ErrNotReady, shared.ErrInitFailed)
}

func loadMessage(err error) string {
	return "Could not load images: " + tasks.Reason(err)
}

func failureDetail(tally models.UploadTally) string {
	if len(tally.Failures) == 0 {
		return ""
	}
	f := tally.Failures[0]
	detail := fmt.Sprintf(" (%s: %s", f.File, f.Reason)
	if len(tally.Failures) > 1 {
		detail += fmt.Sprintf(", +%d more", len(tally.Failures)-1)
	}
	return detail + ")"
}
