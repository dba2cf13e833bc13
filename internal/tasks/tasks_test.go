package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
)

type mockUploader struct {
	kind     models.PageKind
	fail     map[string]error
	uploaded []string
	onUpload func(name string)
}

func (m *mockUploader) Kind() models.PageKind { return m.kind }

func (m *mockUploader) Upload(ctx context.Context, userID string, category models.Category, file models.UploadFile) error {
	if m.onUpload != nil {
		m.onUpload(file.Name)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err, ok := m.fail[file.Name]; ok {
		return err
	}
	m.uploaded = append(m.uploaded, file.Name)
	return nil
}

type mockRecorder struct {
	records []models.UploadRecord
	err     error
}

func (m *mockRecorder) RecordUpload(rec models.UploadRecord) error {
	m.records = append(m.records, rec)
	return m.err
}

type detailedErr struct{ detail string }

func (d *detailedErr) Error() string  { return "upload failed: " + d.detail }
func (d *detailedErr) Detail() string { return d.detail }

func files(names ...string) []models.UploadFile {
	out := make([]models.UploadFile, len(names))
	for i, n := range names {
		out[i] = models.UploadFile{Name: n, Data: []byte(n)}
	}
	return out
}

func newEngine(recorder UploadRecorder) *UploadEngine {
	return NewUploadEngine(0, recorder, shared.NewLogger(io.Discard))
}

func TestUploadEngine(t *testing.T) {
	t.Run("Partial Failure Tally", func(t *testing.T) {
		dst := &mockUploader{fail: map[string]error{"d.jpg": &detailedErr{"file too large"}}}
		batch := UploadBatch{UserID: "U123", Category: models.CategoryTop, Files: files("a.jpg", "b.jpg", "c.jpg", "d.jpg")}

		tally, err := newEngine(nil).Run(context.Background(), nil, dst, batch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if tally.Total != 4 || tally.Succeeded != 3 || tally.Failed() != 1 {
			t.Errorf("unexpected tally %+v", tally)
		}
		if tally.Summary() != "3 succeeded, 1 failed" {
			t.Errorf("unexpected summary %q", tally.Summary())
		}
		if tally.Failures[0].File != "d.jpg" || tally.Failures[0].Reason != "file too large" {
			t.Errorf("unexpected failure %+v", tally.Failures[0])
		}
		if len(dst.uploaded) != 3 {
			t.Errorf("expected 3 uploads, got %v", dst.uploaded)
		}
	})

	t.Run("Sequential Order", func(t *testing.T) {
		dst := &mockUploader{}
		batch := UploadBatch{UserID: "U123", Category: models.CategoryTop, Files: files("1", "2", "3")}

		if _, err := newEngine(nil).Run(context.Background(), nil, dst, batch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(dst.uploaded, ",") != "1,2,3" {
			t.Errorf("expected files in order, got %v", dst.uploaded)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		dst := &mockUploader{}

		if _, err := newEngine(nil).Run(context.Background(), nil, dst, UploadBatch{UserID: "U123"}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for empty batch, got %v", err)
		}
		if _, err := newEngine(nil).Run(context.Background(), nil, dst, UploadBatch{Files: files("a")}); !errors.Is(err, models.ErrMissingUserID) {
			t.Errorf("expected ErrMissingUserID, got %v", err)
		}
		if len(dst.uploaded) != 0 {
			t.Error("nothing should be uploaded")
		}
	})

	t.Run("Cancelled Between Files", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dst := &mockUploader{onUpload: func(name string) {
			if name == "b.jpg" {
				cancel()
			}
		}}
		batch := UploadBatch{UserID: "U123", Category: models.CategoryTop, Files: files("a.jpg", "b.jpg", "c.jpg", "d.jpg")}

		tally, err := newEngine(nil).Run(ctx, nil, dst, batch)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if tally.Succeeded != 1 || tally.Cancelled != 3 || tally.Failed() != 0 {
			t.Errorf("unexpected tally %+v", tally)
		}
		if tally.Succeeded+tally.Failed()+tally.Cancelled != tally.Total {
			t.Errorf("tally does not add up: %+v", tally)
		}
	})

	t.Run("Already Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dst := &mockUploader{}
		tally, err := newEngine(nil).Run(ctx, nil, dst, UploadBatch{UserID: "U123", Files: files("a", "b")})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if tally.Cancelled != 2 || len(dst.uploaded) != 0 {
			t.Errorf("unexpected tally %+v", tally)
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 16)
		dst := &mockUploader{fail: map[string]error{"b": errors.New("boom")}}

		if _, err := newEngine(nil).Run(context.Background(), progress, dst, UploadBatch{UserID: "U123", Files: files("a", "b")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var phases []Phase
		var last ProgressUpdate
		for u := range progress {
			phases = append(phases, u.Phase)
			last = u
		}

		want := []Phase{UploadFile, UploadFileDone, UploadFile, UploadFileFailed, UploadBatchDone}
		if len(phases) != len(want) {
			t.Fatalf("expected %v, got %v", want, phases)
		}
		for i := range want {
			if phases[i] != want[i] {
				t.Errorf("phase %d: expected %s, got %s", i, want[i], phases[i])
			}
		}
		if last.Message != "Upload finished: 1 succeeded, 1 failed" {
			t.Errorf("unexpected final message %q", last.Message)
		}
	})

	t.Run("Progress Never Blocks", func(t *testing.T) {
		progress := make(chan ProgressUpdate)
		dst := &mockUploader{}

		tally, err := newEngine(nil).Run(context.Background(), progress, dst, UploadBatch{UserID: "U123", Files: files("a", "b")})
		if err != nil || tally.Succeeded != 2 {
			t.Errorf("expected batch to finish with an unread channel, got %+v, %v", tally, err)
		}
	})

	t.Run("Records Outcomes", func(t *testing.T) {
		recorder := &mockRecorder{err: errors.New("disk full")}
		dst := &mockUploader{kind: models.PageWannabe, fail: map[string]error{"b": fmt.Errorf("%w: empty file", shared.ErrValidation)}}

		tally, err := newEngine(recorder).Run(context.Background(), nil, dst, UploadBatch{UserID: "U123", Category: models.CategoryWannabe, Files: files("a", "b")})
		if err != nil {
			t.Fatalf("recorder errors must not fail the batch: %v", err)
		}
		if tally.Succeeded != 1 {
			t.Errorf("unexpected tally %+v", tally)
		}

		if len(recorder.records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(recorder.records))
		}
		if recorder.records[0].BatchID == "" || recorder.records[0].BatchID != recorder.records[1].BatchID {
			t.Error("records should share one batch id")
		}
		if recorder.records[1].Succeeded || recorder.records[1].Reason != "empty file" {
			t.Errorf("unexpected failure record %+v", recorder.records[1])
		}
		if recorder.records[0].Page != models.PageWannabe {
			t.Errorf("expected wannabe page, got %v", recorder.records[0].Page)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		dst := &mockUploader{}
		engine := NewUploadEngine(1000, nil, shared.NewLogger(io.Discard))

		tally, err := engine.Run(context.Background(), nil, dst, UploadBatch{UserID: "U123", Files: files("a", "b", "c")})
		if err != nil || tally.Succeeded != 3 {
			t.Errorf("unexpected result %+v, %v", tally, err)
		}
	})
}

func TestReason(t *testing.T) {
	if got := Reason(&detailedErr{"server rejected"}); got != "server rejected" {
		t.Errorf("unexpected reason %q", got)
	}
	if got := Reason(fmt.Errorf("%w: missing category", shared.ErrValidation)); got != "missing category" {
		t.Errorf("unexpected reason %q", got)
	}
	if got := Reason(errors.New("plain")); got != "plain" {
		t.Errorf("unexpected reason %q", got)
	}
}
