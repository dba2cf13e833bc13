package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
)

const statusOK = "ok"

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Endpoints are the server paths of one collection.
type Endpoints struct {
	List   string
	Upload string
	Delete string
}

// Collection is the remote collection a page works against. [WardrobeClient.Collection] returns one per [models.PageKind].
type Collection interface {
	Kind() models.PageKind
	// List returns the items matching filter. On failure it returns an empty slice and a [*RequestError].
	List(ctx context.Context, userID string, filter models.Category) ([]models.WardrobeItem, error)
	Upload(ctx context.Context, userID string, category models.Category, file models.UploadFile) error
	Delete(ctx context.Context, userID string, paths []string) error
}

// listResponse is the list payload. Some server revisions send the bare array instead.
type listResponse struct {
	Images []rawItem `json:"images"`
}

type rawItem struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Tags     string `json:"tags"`
}

type mutationResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

type deleteRequest struct {
	UserID string   `json:"user_id"`
	Paths  []string `json:"paths"`
}

// WardrobeClient talks to the wardrobe server.
//
// The client holds no item state. Every call goes to the server and every list is a fresh snapshot.
type WardrobeClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	main       Endpoints
	wannabe    Endpoints
	categories []models.Category
	retries    int
	images     *ImagePreparer
	logger     *log.Logger
	newBackOff func() backoff.BackOff
}

// NewWardrobeClient builds a client from configuration.
//
// The base URL must be absolute; every relative image path is resolved against it.
func NewWardrobeClient(cfg *shared.Config, client *http.Client, logger *log.Logger) (*WardrobeClient, error) {
	base, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: backend base url %q", shared.ErrInvalidConfig, cfg.Backend.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	categories, err := ParseCategories(cfg.Wardrobe.Categories)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Backend.Timeout()}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	ep := cfg.Backend.Endpoints
	return &WardrobeClient{
		baseURL:    base,
		httpClient: client,
		main:       Endpoints{List: ep.List, Upload: ep.Upload, Delete: ep.Delete},
		wannabe:    Endpoints{List: ep.WannabeList, Upload: ep.WannabeUpload, Delete: ep.WannabeDelete},
		categories: categories,
		retries:    cfg.Backend.ListRetries,
		images:     NewImagePreparer(cfg.Images.MaxDimension, cfg.Images.JPEGQuality, logger),
		logger:     logger,
		newBackOff: newBackOff,
	}, nil
}

// ParseCategories converts configured category names to the main board's bucket list.
func ParseCategories(names []string) ([]models.Category, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no categories configured", shared.ErrInvalidConfig)
	}

	categories := make([]models.Category, 0, len(names))
	for _, name := range names {
		c, err := models.ParseCategory(name)
		if err != nil || c == models.CategoryAll {
			return nil, fmt.Errorf("%w: category %q", shared.ErrInvalidConfig, name)
		}
		if c.In(categories) {
			continue
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// Categories returns the main board's buckets in display order.
func (c *WardrobeClient) Categories() []models.Category {
	return append([]models.Category(nil), c.categories...)
}

// Collection returns the collection strategy for kind.
func (c *WardrobeClient) Collection(kind models.PageKind) Collection {
	return &collection{client: c, kind: kind}
}

// List fetches the main wardrobe, optionally narrowed to one category.
func (c *WardrobeClient) List(ctx context.Context, userID string, category models.Category) ([]models.WardrobeItem, error) {
	return c.Collection(models.PageMain).List(ctx, userID, category)
}

// Upload stores one file in the main wardrobe under category.
func (c *WardrobeClient) Upload(ctx context.Context, userID string, category models.Category, file models.UploadFile) error {
	return c.Collection(models.PageMain).Upload(ctx, userID, category, file)
}

// Delete removes paths from the main wardrobe.
func (c *WardrobeClient) Delete(ctx context.Context, userID string, paths []string) error {
	return c.Collection(models.PageMain).Delete(ctx, userID, paths)
}

// ListWannabe fetches the wannabe board.
func (c *WardrobeClient) ListWannabe(ctx context.Context, userID string) ([]models.WardrobeItem, error) {
	return c.Collection(models.PageWannabe).List(ctx, userID, models.CategoryAll)
}

// UploadWannabe stores one file on the wannabe board.
func (c *WardrobeClient) UploadWannabe(ctx context.Context, userID string, file models.UploadFile) error {
	return c.Collection(models.PageWannabe).Upload(ctx, userID, models.CategoryWannabe, file)
}

// DeleteWannabe removes paths from the wannabe board.
func (c *WardrobeClient) DeleteWannabe(ctx context.Context, userID string, paths []string) error {
	return c.Collection(models.PageWannabe).Delete(ctx, userID, paths)
}

// collection binds a [WardrobeClient] to one page kind's endpoints.
type collection struct {
	client *WardrobeClient
	kind   models.PageKind
}

func (col *collection) Kind() models.PageKind { return col.kind }

func (col *collection) endpoints() Endpoints {
	if col.kind == models.PageWannabe {
		return col.client.wannabe
	}
	return col.client.main
}

func (col *collection) List(ctx context.Context, userID string, filter models.Category) (items []models.WardrobeItem, err error) {
	start := time.Now()
	defer func() { observe(col.kind.String(), OpList, start, err) }()

	items = []models.WardrobeItem{}
	if err := requireUser(userID); err != nil {
		return items, err
	}
	if filter == "" {
		filter = models.CategoryAll
	}
	if col.kind == models.PageMain && filter != models.CategoryAll && !filter.In(col.client.categories) {
		return items, validationErr("unknown category %q", filter)
	}

	q := url.Values{"user_id": {userID}}
	if col.kind == models.PageMain {
		q.Set("category", string(filter))
	}
	target := col.client.resolve(col.endpoints().List)
	target.RawQuery = q.Encode()

	var raw []rawItem
	op := func() error {
		var fetchErr error
		raw, fetchErr = col.client.fetchList(ctx, target.String())
		if fetchErr == nil {
			return nil
		}
		var re *RequestError
		if errors.As(fetchErr, &re) && re.Retryable() {
			col.client.logger.Warn("list failed, retrying", "page", col.kind, "kind", re.Kind, "status", re.StatusCode)
			return fetchErr
		}
		return backoff.Permanent(fetchErr)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(col.client.newBackOff(), uint64(col.client.retries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		var re *RequestError
		if !errors.As(err, &re) {
			err = &RequestError{Op: OpList, Kind: KindTransport, Err: err}
		}
		col.client.logger.Error("list failed", "page", col.kind, "error", err)
		return items, err
	}

	for _, r := range raw {
		item := col.client.normalize(r, col.kind)
		if col.kind == models.PageMain && filter != models.CategoryAll && item.Category != filter {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (col *collection) Upload(ctx context.Context, userID string, category models.Category, file models.UploadFile) (err error) {
	start := time.Now()
	defer func() { observe(col.kind.String(), OpUpload, start, err) }()

	if err := requireUser(userID); err != nil {
		return err
	}
	if col.kind == models.PageMain {
		if category == "" {
			return validationErr("missing category")
		}
		if !category.In(col.client.categories) {
			return validationErr("unknown category %q", category)
		}
	}
	if file.Name == "" || len(file.Data) == 0 {
		return validationErr("empty file %q", file.Name)
	}

	file, _ = col.client.images.Prepare(file)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", file.Name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if col.kind == models.PageMain {
		if err := mw.WriteField("category", string(category)); err != nil {
			return fmt.Errorf("failed to write category: %w", err)
		}
	}
	if err := mw.WriteField("user_id", userID); err != nil {
		return fmt.Errorf("failed to write user id: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	target := col.client.resolve(col.endpoints().Upload).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := col.client.mutate(req, OpUpload)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) {
			re.File = file.Name
		}
		return err
	}

	col.client.logger.Info("uploaded", "page", col.kind, "file", file.Name, "stored_as", resp.Filename)
	return nil
}

func (col *collection) Delete(ctx context.Context, userID string, paths []string) (err error) {
	start := time.Now()
	defer func() { observe(col.kind.String(), OpDelete, start, err) }()

	if err := requireUser(userID); err != nil {
		return err
	}
	if len(paths) == 0 {
		return validationErr("no items selected")
	}

	payload, err := json.Marshal(deleteRequest{UserID: userID, Paths: paths})
	if err != nil {
		return fmt.Errorf("failed to encode delete request: %w", err)
	}

	target := col.client.resolve(col.endpoints().Delete).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := col.client.mutate(req, OpDelete); err != nil {
		return err
	}

	col.client.logger.Info("deleted", "page", col.kind, "count", len(paths))
	return nil
}

// fetchList performs one list request and decodes either payload shape.
func (c *WardrobeClient) fetchList(ctx context.Context, target string) ([]rawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: OpList, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: OpList, Kind: KindTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Op: OpList, Kind: KindStatus, StatusCode: resp.StatusCode, Reason: messageOf(body)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []rawItem
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, &RequestError{Op: OpList, Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
		}
		return raw, nil
	}

	var payload listResponse
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, &RequestError{Op: OpList, Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return payload.Images, nil
}

// mutate sends an upload or delete request and checks the {status, message} envelope.
func (c *WardrobeClient) mutate(req *http.Request, op Op) (*mutationResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, &RequestError{Op: op, Kind: KindTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Op: op, Kind: KindStatus, StatusCode: resp.StatusCode, Reason: messageOf(body)}
	}

	var result mutationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &RequestError{Op: op, Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	if result.Status != statusOK {
		return nil, &RequestError{Op: op, Kind: KindRejected, StatusCode: resp.StatusCode, Reason: result.Message}
	}

	return &result, nil
}

// resolve joins an endpoint path onto the base URL, keeping any base path prefix.
func (c *WardrobeClient) resolve(endpoint string) *url.URL {
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	return c.baseURL.ResolveReference(ref)
}

// normalize picks the server identifier and makes the image location absolute.
func (c *WardrobeClient) normalize(r rawItem, kind models.PageKind) models.WardrobeItem {
	id := r.Path
	if id == "" {
		id = r.URL
	}

	category := models.Category(strings.ToLower(strings.TrimSpace(r.Category)))
	if kind == models.PageWannabe {
		category = models.CategoryWannabe
	}

	return models.WardrobeItem{
		Path:     id,
		URL:      c.absolute(id),
		Category: category,
		Tags:     strings.TrimSpace(r.Tags),
	}
}

// absolute keeps absolute URLs and resolves anything else against the base URL.
func (c *WardrobeClient) absolute(location string) string {
	if location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	if u.IsAbs() {
		return u.String()
	}
	return c.baseURL.ResolveReference(u).String()
}

func requireUser(userID string) error {
	if err := (&models.Session{UserID: userID}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	return nil
}

// messageOf extracts "message" from a JSON error body, if there is one.
func messageOf(body []byte) string {
	var m mutationResponse
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	return m.Message
}

func newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.Multiplier = 2
	exp.MaxInterval = 2 * time.Second
	exp.MaxElapsedTime = 0
	return exp
}
