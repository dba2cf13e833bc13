package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
	tu "github.com/desertthunder/wardrobe/internal/testing"
)

type harness struct {
	runner     *Runner
	output     *bytes.Buffer
	backend    *tu.FakeBackend
	dir        string
	configPath string
}

// newHarness writes a config pointing at a fake backend and a temporary database.
func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	fb := tu.NewFakeBackend(t)

	config := fb.Config()
	config.Database.Path = filepath.Join(dir, "wardrobe.db")
	configPath := filepath.Join(dir, "config.toml")
	if err := shared.SaveConfig(configPath, config); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
	t.Cleanup(func() { runner.Close() })

	return &harness{runner: runner, output: output, backend: fb, dir: dir, configPath: configPath}
}

func (h *harness) run(args ...string) error {
	h.output.Reset()
	base := []string{"wardrobe", "--config", h.configPath, "--env-file", filepath.Join(h.dir, ".env")}
	return newApp(h.runner).Run(context.Background(), append(base, args...))
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := h.run(args...); err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	return h.output.String()
}

func (h *harness) writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, []byte("img-"+name), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello %s\n", "world"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "Hello world\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for _, c := range commands {
			names = append(names, c.Name)
		}
		want := "setup,auth,wardrobe,wannabe,history,tui,serve"
		if got := strings.Join(names, ","); got != want {
			t.Errorf("commands = %s, want %s", got, want)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		h := newHarness(t)
		h.configPath = filepath.Join(h.dir, "fresh.toml")

		out := h.mustRun(t, "setup", "config")
		tu.AssertFileExists(t, h.configPath)
		if !strings.Contains(out, "fresh.toml") {
			t.Errorf("unexpected output: %s", out)
		}

		if err := h.run("setup", "config"); err == nil {
			t.Error("expected error for existing config file")
		}
	})

	t.Run("database", func(t *testing.T) {
		h := newHarness(t)

		h.mustRun(t, "setup", "database")
		tu.AssertFileExists(t, filepath.Join(h.dir, "wardrobe.db"))
	})
}

func TestAuth(t *testing.T) {
	t.Run("use, status and logout", func(t *testing.T) {
		h := newHarness(t)

		if out := h.mustRun(t, "auth", "use", "U123", "Aiko"); !strings.Contains(out, "✓ Using Aiko") {
			t.Errorf("unexpected use output: %s", out)
		}

		out := h.mustRun(t, "auth", "status")
		for _, want := range []string{"User: U123", "Name: Aiko", "Provider: stored session"} {
			if !strings.Contains(out, want) {
				t.Errorf("status missing %q: %s", want, out)
			}
		}

		if out := h.mustRun(t, "auth", "status", "--check"); !strings.Contains(out, "✓ Session valid for Aiko") {
			t.Errorf("unexpected check output: %s", out)
		}

		h.mustRun(t, "auth", "logout")
		if out := h.mustRun(t, "auth", "status"); !strings.Contains(out, "Not logged in") {
			t.Errorf("expected logged out status: %s", out)
		}
	})

	t.Run("use without user id", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("auth", "use")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("login needs a LINE channel", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("auth", "login", "--no-browser")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestBoard(t *testing.T) {
	seed := func(h *harness) {
		h.backend.Seed("U123", models.PageMain,
			tu.FakeItem{Path: "/a.jpg", Category: "top", Tags: "red"},
			tu.FakeItem{Path: "/b.jpg", Category: "shoes"},
		)
	}

	t.Run("list requires a session", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("wardrobe", "list")
		if !errors.Is(err, shared.ErrLoginRequired) {
			t.Errorf("expected ErrLoginRequired, got %v", err)
		}
		if h.backend.Calls("list") != 0 {
			t.Error("no request expected before login")
		}
	})

	t.Run("list as text", func(t *testing.T) {
		h := newHarness(t)
		seed(h)
		h.mustRun(t, "auth", "use", "U123")

		out := h.mustRun(t, "wardrobe", "list")
		for _, want := range []string{"My Wardrobe", "Tops (1)", "Shoes (1)", "red", models.PendingCaption} {
			if !strings.Contains(out, want) {
				t.Errorf("list missing %q: %s", want, out)
			}
		}
	})

	t.Run("list filtered as JSON", func(t *testing.T) {
		h := newHarness(t)
		seed(h)
		h.mustRun(t, "auth", "use", "U123")

		out := h.mustRun(t, "wardrobe", "list", "--category", "shoes", "--format", "json")

		var items []models.WardrobeItem
		if err := json.Unmarshal([]byte(out), &items); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, out)
		}
		if len(items) != 1 || items[0].Path != "/b.jpg" {
			t.Errorf("unexpected items: %+v", items)
		}
	})

	t.Run("list to file", func(t *testing.T) {
		h := newHarness(t)
		seed(h)
		h.mustRun(t, "auth", "use", "U123")

		path := filepath.Join(h.dir, "out.csv")
		h.mustRun(t, "wardrobe", "list", "--format", "csv", "--output", path)

		if content := tu.MustReadFile(t, path); !strings.Contains(content, "/a.jpg") {
			t.Errorf("unexpected export: %s", content)
		}
	})

	t.Run("list with unknown format", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("wardrobe", "list", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("upload and history", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "auth", "use", "U123")
		one, two := h.writeFile(t, "one.png"), h.writeFile(t, "two.png")

		out := h.mustRun(t, "wardrobe", "upload", "--category", "top", one, two)
		if !strings.Contains(out, "[1/2] Uploading one.png...") {
			t.Errorf("missing progress: %s", out)
		}
		if !strings.Contains(out, "✓ Upload finished: 2 succeeded, 0 failed") {
			t.Errorf("missing summary: %s", out)
		}
		if got := len(h.backend.Items("U123", models.PageMain)); got != 2 {
			t.Errorf("uploaded = %d, want 2", got)
		}

		out = h.mustRun(t, "history")
		if !strings.Contains(out, "✓ one.png (wardrobe/top)") || !strings.Contains(out, "two.png") {
			t.Errorf("unexpected history: %s", out)
		}
	})

	t.Run("partial upload failure", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "auth", "use", "U123")
		h.backend.FailUpload("bad.png", "not an image")
		good, bad := h.writeFile(t, "good.png"), h.writeFile(t, "bad.png")

		err := h.run("wardrobe", "upload", "--category", "dress", good, bad)
		if !errors.Is(err, shared.ErrUploadFailed) {
			t.Errorf("expected ErrUploadFailed, got %v", err)
		}
		if !strings.Contains(h.output.String(), "1 succeeded, 1 failed") {
			t.Errorf("unexpected output: %s", h.output.String())
		}
	})

	t.Run("upload needs a category", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "auth", "use", "U123")

		if err := h.run("wardrobe", "upload", h.writeFile(t, "one.png")); err == nil {
			t.Error("expected error without --category")
		}
		if h.backend.Calls("upload") != 0 {
			t.Error("no request expected")
		}
	})

	t.Run("wannabe upload", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "auth", "use", "U123")

		h.mustRun(t, "wannabe", "upload", h.writeFile(t, "dream.png"))

		items := h.backend.Items("U123", models.PageWannabe)
		if len(items) != 1 || items[0].Category != "wannabe" {
			t.Errorf("unexpected wannabe items: %+v", items)
		}
	})

	t.Run("delete", func(t *testing.T) {
		h := newHarness(t)
		seed(h)
		h.mustRun(t, "auth", "use", "U123")

		out := h.mustRun(t, "wardrobe", "delete", "/a.jpg")
		if !strings.Contains(out, "✓ Deleted 1 item(s)") {
			t.Errorf("unexpected output: %s", out)
		}

		items := h.backend.Items("U123", models.PageMain)
		if len(items) != 1 || items[0].Path != "/b.jpg" {
			t.Errorf("unexpected remaining items: %+v", items)
		}
	})

	t.Run("delete without paths", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("wardrobe", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
