package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
)

// UploadLogRepository persists per-file upload outcomes.
//
// The log is local history only. The wardrobe server remains the authority on what is stored.
type UploadLogRepository struct {
	db *sql.DB
}

// NewUploadLogRepository creates a new [UploadLogRepository] with the given database connection
func NewUploadLogRepository(db *sql.DB) *UploadLogRepository {
	return &UploadLogRepository{db: db}
}

// Record inserts one outcome, generating an ID and timestamp when unset.
func (r *UploadLogRepository) Record(rec *models.UploadRecord) error {
	if rec.BatchID == "" || rec.FileName == "" {
		return fmt.Errorf("validation failed: batch id and file name are required")
	}
	if err := (&models.Session{UserID: rec.UserID}).Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO upload_log (id, batch_id, user_id, page, category, file_name, succeeded, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, rec.ID, rec.BatchID, rec.UserID, rec.Page.String(), string(rec.Category),
		rec.FileName, rec.Succeeded, rec.Reason, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}

	return nil
}

// ListBatch returns the records of one batch in insertion order
func (r *UploadLogRepository) ListBatch(batchID string) ([]models.UploadRecord, error) {
	query := `
		SELECT id, batch_id, user_id, page, category, file_name, succeeded, reason, created_at
		FROM upload_log
		WHERE batch_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	return r.query(query, batchID)
}

// Recent returns the newest records for userID, newest first
func (r *UploadLogRepository) Recent(userID string, limit int) ([]models.UploadRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, batch_id, user_id, page, category, file_name, succeeded, reason, created_at
		FROM upload_log
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	return r.query(query, userID, limit)
}

func (r *UploadLogRepository) query(query string, args ...any) ([]models.UploadRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload log: %w", err)
	}
	defer rows.Close()

	var records []models.UploadRecord
	for rows.Next() {
		var (
			rec      models.UploadRecord
			page     string
			category string
		)
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.UserID, &page, &category, &rec.FileName,
			&rec.Succeeded, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}

		kind, err := models.ParsePageKind(page)
		if err != nil {
			return nil, err
		}
		rec.Page = kind
		rec.Category = models.Category(category)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload log: %w", err)
	}

	return records, nil
}

// UploadRecorder adapts [UploadLogRepository] to the upload engine's recorder hook.
//
// Recording failures are returned to the engine, which logs them without failing the batch.
type UploadRecorder struct {
	repo *UploadLogRepository
}

// NewUploadRecorder creates a new UploadRecorder with the given repository
func NewUploadRecorder(repo *UploadLogRepository) *UploadRecorder {
	return &UploadRecorder{repo: repo}
}

// RecordUpload stores the outcome of one file
func (a *UploadRecorder) RecordUpload(rec models.UploadRecord) error {
	return a.repo.Record(&rec)
}
