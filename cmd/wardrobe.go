package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/wardrobe/internal/formatter"
	"github.com/desertthunder/wardrobe/internal/gallery"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
	"github.com/desertthunder/wardrobe/internal/tasks"
	"github.com/urfave/cli/v3"
)

// BoardList prints the board, grouped by category in text mode.
func (r *Runner) BoardList(kind models.PageKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}

		ctrl, err := r.page(ctx, kind)
		if err != nil {
			return err
		}

		if raw := cmd.String("category"); raw != "" {
			category, err := models.ParseCategory(raw)
			if err != nil {
				return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
			}
			if err := ctrl.SetFilter(category); err != nil {
				return err
			}
		}

		view := ctrl.View()
		if out := cmd.String("output"); out != "" {
			path, err := formatter.WriteExport(visibleItems(view), format, kind, out)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Wrote %d item(s) to %s\n", view.Len(), path)
		}

		if format == formatter.FormatText {
			r.writePlain("%s\n\n", ctrl.Variant().Title)
			return gallery.WriteText(r.output, view)
		}
		return formatter.WriteItems(r.output, visibleItems(view), format)
	}
}

// BoardUpload uploads the files given as arguments, printing progress per file.
func (r *Runner) BoardUpload(kind models.PageKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		paths := cmd.Args().Slice()
		if len(paths) == 0 {
			return fmt.Errorf("%w: at least one file", shared.ErrMissingArgument)
		}

		var category models.Category
		if kind == models.PageMain {
			c, err := models.ParseCategory(cmd.String("category"))
			if err != nil || c == models.CategoryAll {
				return fmt.Errorf("%w: --category must be one of top, bottom, skirt, dress, shoes", shared.ErrInvalidArgument)
			}
			category = c
		}

		files, err := readUploadFiles(paths)
		if err != nil {
			return err
		}

		ctrl, err := r.page(ctx, kind)
		if err != nil {
			return err
		}

		progress := make(chan tasks.ProgressUpdate, 50)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for update := range progress {
				if update.Phase == tasks.UploadBatchDone {
					continue
				}
				r.writePlain("%s\n", update.Message)
			}
		}()

		_, uploadErr := ctrl.Upload(ctx, category, files, progress)
		close(progress)
		wg.Wait()

		r.writeStatus(ctrl)
		return uploadErr
	}
}

// BoardDelete deletes the paths given as arguments.
func (r *Runner) BoardDelete(kind models.PageKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		paths := cmd.Args().Slice()
		if len(paths) == 0 {
			return fmt.Errorf("%w: at least one path", shared.ErrMissingArgument)
		}

		ctrl, err := r.page(ctx, kind)
		if err != nil {
			return err
		}

		err = ctrl.Delete(ctx, paths)
		r.writeStatus(ctrl)
		return err
	}
}

// History prints recent uploads recorded by the upload engine.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.uploadLog()
	if err != nil {
		return err
	}

	var records []models.UploadRecord
	if batch := cmd.String("batch"); batch != "" {
		records, err = repo.ListBatch(batch)
	} else {
		store, serr := r.sessionStore()
		if serr != nil {
			return serr
		}
		session, serr := store.Get()
		if serr != nil {
			return fmt.Errorf("%w: %w: %s", shared.ErrLoginRequired, serr, loginHint)
		}
		records, err = repo.Recent(session.UserID, int(cmd.Int("limit")))
	}
	if err != nil {
		return err
	}

	if len(records) == 0 && format == formatter.FormatText {
		return r.writePlain("No uploads yet\n")
	}
	return formatter.WriteHistory(r.output, records, format)
}

func visibleItems(v *gallery.View) []models.WardrobeItem {
	items := make([]models.WardrobeItem, 0, v.Len())
	for _, c := range v.Cards() {
		items = append(items, c.Item)
	}
	return items
}

func readUploadFiles(paths []string) ([]models.UploadFile, error) {
	files := make([]models.UploadFile, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: could not read %s: %w", shared.ErrInvalidArgument, p, err)
		}
		files = append(files, models.UploadFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}
