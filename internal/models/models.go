package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PendingCaption is shown for items whose tags have not been generated yet.
const PendingCaption = "description pending"

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPageKind = errors.New("invalid page kind")
	ErrMissingUserID   = errors.New("missing user id")
	ErrNoSession       = errors.New("no stored session")
)

// Category is a clothing bucket. The zero value is not a valid category.
type Category string

const (
	CategoryAll     Category = "all"
	CategoryTop     Category = "top"
	CategoryBottom  Category = "bottom"
	CategorySkirt   Category = "skirt"
	CategoryDress   Category = "dress"
	CategoryShoes   Category = "shoes"
	CategoryWannabe Category = "wannabe"
)

// Categories lists the main wardrobe buckets in display order.
var Categories = []Category{CategoryTop, CategoryBottom, CategorySkirt, CategoryDress, CategoryShoes}

// ParseCategory maps user input to a [Category]. It accepts the main buckets and "all".
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryAll || c.Known() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Known reports whether c is one of the main wardrobe buckets.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// In reports whether c is contained in set.
func (c Category) In(set []Category) bool {
	for _, k := range set {
		if c == k {
			return true
		}
	}
	return false
}

// Label is the human readable bucket name.
func (c Category) Label() string {
	switch c {
	case CategoryAll:
		return "All"
	case CategoryTop:
		return "Tops"
	case CategoryBottom:
		return "Bottoms"
	case CategorySkirt:
		return "Skirts"
	case CategoryDress:
		return "Dresses"
	case CategoryShoes:
		return "Shoes"
	case CategoryWannabe:
		return "Wannabe"
	default:
		if c == "" {
			return "Unknown"
		}
		return strings.ToUpper(string(c[:1])) + string(c[1:])
	}
}

func (c Category) String() string { return string(c) }

// WardrobeItem is one image stored by the wardrobe server.
//
// Path is the identifier the server returned and the value delete requests send back.
// URL is the absolute location of the image, resolved at the client boundary.
type WardrobeItem struct {
	Path     string   `json:"path" yaml:"path"`
	URL      string   `json:"url" yaml:"url"`
	Category Category `json:"category" yaml:"category"`
	Tags     string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasTags reports whether the server has produced a description for the item.
func (i WardrobeItem) HasTags() bool { return strings.TrimSpace(i.Tags) != "" }

// Caption returns the item's tags or [PendingCaption] when none exist yet.
func (i WardrobeItem) Caption() string {
	if !i.HasTags() {
		return PendingCaption
	}
	return i.Tags
}

// Session is the identity a page runs under. UserID never changes for the lifetime of a page.
type Session struct {
	UserID      string
	DisplayName string
}

// Validate checks that the session carries a user id.
func (s *Session) Validate() error {
	if s == nil || strings.TrimSpace(s.UserID) == "" {
		return ErrMissingUserID
	}
	return nil
}

// Name returns the display name, falling back to the user id.
func (s *Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}

// SessionStore persists the active session across page loads. Entries never expire on their own.
type SessionStore interface {
	Set(session Session) error // Set replaces the stored session
	Get() (*Session, error)    // Get returns the stored session or [ErrNoSession]
	Clear() error              // Clear removes the stored session and related values
}

// PageKind selects which remote collection a page works against.
type PageKind int

const (
	PageMain PageKind = iota
	PageWannabe
)

// ParsePageKind maps "wardrobe"/"main" and "wannabe" to a [PageKind].
func ParsePageKind(s string) (PageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "main", "wardrobe", "index":
		return PageMain, nil
	case "wannabe":
		return PageWannabe, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageKind, s)
	}
}

func (k PageKind) String() string {
	switch k {
	case PageMain:
		return "wardrobe"
	case PageWannabe:
		return "wannabe"
	default:
		return fmt.Sprintf("PageKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k PageKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PageKind) UnmarshalText(b []byte) error {
	parsed, err := ParsePageKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// UploadFile is one file selected for upload.
type UploadFile struct {
	Name string
	Data []byte
}

// UploadFailure records why a single file in a batch was not stored.
type UploadFailure struct {
	File   string
	Reason string
}

// UploadTally is the per-file outcome of an upload batch.
type UploadTally struct {
	Total     int
	Succeeded int
	Failures  []UploadFailure
	Cancelled int
}

// Failed returns the number of files the server did not store.
func (t UploadTally) Failed() int { return len(t.Failures) }

// Summary renders the tally as a status line, e.g. "3 succeeded, 1 failed".
func (t UploadTally) Summary() string {
	s := fmt.Sprintf("%d succeeded, %d failed", t.Succeeded, t.Failed())
	if t.Cancelled > 0 {
		s += fmt.Sprintf(", %d cancelled", t.Cancelled)
	}
	return s
}

// UploadRecord is the local history entry for one file of an upload batch.
type UploadRecord struct {
	ID        string    `json:"id" yaml:"id"`
	BatchID   string    `json:"batch_id" yaml:"batch_id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Page      PageKind  `json:"page" yaml:"page"`
	Category  Category  `json:"category" yaml:"category"`
	FileName  string    `json:"file_name" yaml:"file_name"`
	Succeeded bool      `json:"succeeded" yaml:"succeeded"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
