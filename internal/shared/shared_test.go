package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger Writes To Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "user", "U123")

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "U123") {
			t.Errorf("expected message and key-value pair in output, got %q", buf.String())
		}
	})

	t.Run("WithLogger Adds Fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "page", "wannabe")
		logger.Info("loaded")

		if !strings.Contains(buf.String(), "wannabe") {
			t.Errorf("expected child field in output, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel Filters Debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger Creates File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("written")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("expected log line in file, got %q", string(data))
		}
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected valid uuid, got %q: %v", id, err)
	}
	if GenerateID() == id {
		t.Error("expected unique ids")
	}
}

func TestBrowser(t *testing.T) {
	t.Run("Command Per Platform", func(t *testing.T) {
		for goos, want := range map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "rundll32"} {
			cmd, err := browserCommand(goos, "https://example.com")
			if err != nil {
				t.Fatalf("%s: unexpected error %v", goos, err)
			}
			if filepath.Base(cmd.Args[0]) != want || cmd.Args[len(cmd.Args)-1] != "https://example.com" {
				t.Errorf("%s: args = %v", goos, cmd.Args)
			}
		}

		if _, err := browserCommand("plan9", "https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("PresentURL Opens Without Printing", func(t *testing.T) {
		var out bytes.Buffer
		var opened string
		open := func(url string) error { opened = url; return nil }

		if err := PresentURL(&out, "https://example.com/login", open, NewLogger(&bytes.Buffer{})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opened != "https://example.com/login" || out.Len() != 0 {
			t.Errorf("opened = %q, output = %q", opened, out.String())
		}
	})

	t.Run("PresentURL Prints When Opener Fails", func(t *testing.T) {
		var out, logs bytes.Buffer
		open := func(string) error { return errors.New("no display") }

		if err := PresentURL(&out, "https://example.com/login", open, NewLogger(&logs)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "https://example.com/login") {
			t.Errorf("url not printed: %q", out.String())
		}
		if !strings.Contains(logs.String(), "no display") {
			t.Errorf("failure not logged: %q", logs.String())
		}
	})

	t.Run("PresentURL Prints Without Opener", func(t *testing.T) {
		var out bytes.Buffer

		if err := PresentURL(&out, "https://example.com/login", nil, NewLogger(&bytes.Buffer{})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.String() != "Open this URL to log in:\nhttps://example.com/login\n" {
			t.Errorf("unexpected output %q", out.String())
		}
	})
}
