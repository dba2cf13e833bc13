package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/wardrobe/internal/models"
)

// Keys used in the session_store table.
const (
	KeyUserID        = "user_id"
	KeyDisplayName   = "display_name"
	KeyProviderToken = "provider_token"
)

// ErrKeyNotFound is returned by [SessionRepository.Get] for keys that were never set or were deleted.
var ErrKeyNotFound = errors.New("key not found")

// SessionRepository is a string key/value table in SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Set inserts or replaces the value stored under key
func (r *SessionRepository) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("validation failed: empty key")
	}

	query := `
		INSERT INTO session_store (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now()
	if _, err := r.db.Exec(query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key or [ErrKeyNotFound]
func (r *SessionRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM session_store WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SessionRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM session_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Clear removes every stored key
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM session_store`); err != nil {
		return fmt.Errorf("failed to clear session store: %w", err)
	}
	return nil
}

// SessionStore implements [models.SessionStore] on top of a [SessionRepository].
//
// Entries have no expiry and stay valid until [SessionStore.Clear].
type SessionStore struct {
	repo *SessionRepository
}

// NewSessionStore creates a [SessionStore] backed by db
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{repo: NewSessionRepository(db)}
}

// Set replaces the stored session. The user id is validated before anything is written.
func (s *SessionStore) Set(session models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Set(KeyUserID, session.UserID); err != nil {
		return err
	}
	if session.DisplayName == "" {
		return s.repo.Delete(KeyDisplayName)
	}
	return s.repo.Set(KeyDisplayName, session.DisplayName)
}

// Get returns the stored session or [models.ErrNoSession]
func (s *SessionStore) Get() (*models.Session, error) {
	userID, err := s.repo.Get(KeyUserID)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, models.ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	name, err := s.repo.Get(KeyDisplayName)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	return &models.Session{UserID: userID, DisplayName: name}, nil
}

// Clear removes the session and the cached provider token
func (s *SessionStore) Clear() error {
	return s.repo.Clear()
}

// SetValue stores an auxiliary value such as the provider token
func (s *SessionStore) SetValue(key, value string) error { return s.repo.Set(key, value) }

// Value returns an auxiliary value; ok is false when the key is absent
func (s *SessionStore) Value(key string) (value string, ok bool, err error) {
	value, err = s.repo.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// DeleteValue removes an auxiliary value
func (s *SessionStore) DeleteValue(key string) error { return s.repo.Delete(key) }
