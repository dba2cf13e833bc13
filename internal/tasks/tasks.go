// package tasks implements upload batches against a wardrobe collection.
//
// Batches run sequentially, one request per file, and emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
	"golang.org/x/time/rate"
)

// Uploader stores one file. services.Collection implements it.
type Uploader interface {
	Kind() models.PageKind
	Upload(ctx context.Context, userID string, category models.Category, file models.UploadFile) error
}

// UploadRecorder persists per-file outcomes. Recording failures are logged and never fail a batch.
type UploadRecorder interface {
	RecordUpload(rec models.UploadRecord) error
}

// UploadBatch is one user-initiated upload of several files into one category.
type UploadBatch struct {
	UserID   string
	Category models.Category
	Files    []models.UploadFile
}

// UploadEngine runs upload batches.
type UploadEngine struct {
	limiter  *rate.Limiter
	recorder UploadRecorder
	logger   *log.Logger
}

// NewUploadEngine creates an engine pacing uploads at perSecond files per second (0 disables pacing).
//
// recorder may be nil.
func NewUploadEngine(perSecond float64, recorder UploadRecorder, logger *log.Logger) *UploadEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	return &UploadEngine{limiter: limiter, recorder: recorder, logger: logger}
}

// Run uploads every file of batch to dst, one at a time.
//
// A failed file does not stop the batch. The returned tally is complete once Run returns: when ctx
// is cancelled between files, the files not attempted are counted as cancelled and ctx's error is
// returned alongside the tally.
func (e *UploadEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, dst Uploader, batch UploadBatch) (models.UploadTally, error) {
	total := len(batch.Files)
	tally := models.UploadTally{Total: total}

	if err := (&models.Session{UserID: batch.UserID}).Validate(); err != nil {
		return tally, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	if total == 0 {
		return tally, fmt.Errorf("%w: no files selected", shared.ErrValidation)
	}

	batchID := shared.GenerateID()
	logger := e.logger.With("batch", batchID, "page", dst.Kind(), "files", total)
	logger.Info("upload batch started", "category", batch.Category)

	for i, file := range batch.Files {
		if err := e.wait(ctx, i); err != nil {
			tally.Cancelled = total - i
			logger.Warn("upload batch cancelled", "remaining", tally.Cancelled)
			e.sendProgress(progress, batchDoneUpdate(tally))
			return tally, err
		}

		e.sendProgress(progress, uploadingUpdate(i+1, total, file.Name))

		err := dst.Upload(ctx, batch.UserID, batch.Category, file)
		if err != nil && ctx.Err() != nil {
			tally.Cancelled = total - i
			logger.Warn("upload batch cancelled mid-file", "file", file.Name, "remaining", tally.Cancelled)
			e.sendProgress(progress, batchDoneUpdate(tally))
			return tally, ctx.Err()
		}

		rec := models.UploadRecord{
			BatchID:   batchID,
			UserID:    batch.UserID,
			Page:      dst.Kind(),
			Category:  batch.Category,
			FileName:  file.Name,
			Succeeded: err == nil,
		}

		if err != nil {
			failure := models.UploadFailure{File: file.Name, Reason: Reason(err)}
			tally.Failures = append(tally.Failures, failure)
			rec.Reason = failure.Reason
			logger.Warn("upload failed", "file", file.Name, "error", err)
			e.sendProgress(progress, uploadFailedUpdate(i+1, total, failure))
		} else {
			tally.Succeeded++
			e.sendProgress(progress, uploadedUpdate(i+1, total, file.Name))
		}

		e.record(logger, rec)
	}

	logger.Info("upload batch finished", "succeeded", tally.Succeeded, "failed", tally.Failed())
	e.sendProgress(progress, batchDoneUpdate(tally))
	return tally, nil
}

// wait checks for cancellation and paces every file after the first.
func (e *UploadEngine) wait(ctx context.Context, i int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.limiter == nil || i == 0 {
		return nil
	}
	return e.limiter.Wait(ctx)
}

func (e *UploadEngine) record(logger *log.Logger, rec models.UploadRecord) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordUpload(rec); err != nil {
		logger.Warn("failed to record upload outcome", "file", rec.FileName, "error", err)
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *UploadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Reason returns the short user-facing reason for a failed upload.
func Reason(err error) string {
	var detailed interface{ Detail() string }
	if errors.As(err, &detailed) {
		return detailed.Detail()
	}
	if errors.Is(err, shared.ErrValidation) {
		return strings.TrimPrefix(err.Error(), shared.ErrValidation.Error()+": ")
	}
	return err.Error()
}
