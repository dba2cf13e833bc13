package tasks

import (
	"fmt"

	"github.com/desertthunder/wardrobe/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	UploadFile Phase = iota
	UploadFileFailed
	UploadFileDone
	UploadBatchDone
)

func (p Phase) String() string {
	switch p {
	case UploadFile:
		return "upload_file"
	case UploadFileFailed:
		return "upload_file_failed"
	case UploadFileDone:
		return "upload_file_done"
	case UploadBatchDone:
		return "upload_batch_done"
	default:
		return ""
	}
}

func uploadingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %s...", step, total, name),
	}
}

func uploadedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFileDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

func uploadFailedUpdate(step, total int, failure models.UploadFailure) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFileFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, failure.File, failure.Reason),
		Data:    failure,
	}
}

func batchDoneUpdate(tally models.UploadTally) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadBatchDone,
		Step:    tally.Total,
		Total:   tally.Total,
		Message: "Upload finished: " + tally.Summary(),
		Data:    tally,
	}
}
