package shared

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/log"
)

// Opener shows url to the user, usually in a browser.
type Opener func(url string) error

// OpenBrowser starts the platform's URL handler for url without waiting for it.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func browserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// PresentURL hands url to open and prints it to w when open is nil or fails.
//
// A nil open is the --no-browser path. The login keeps waiting for its callback either way.
func PresentURL(w io.Writer, url string, open Opener, logger *log.Logger) error {
	if open != nil {
		err := open(url)
		if err == nil {
			return nil
		}
		logger.Warn("failed to open browser", "error", err)
	}

	if _, err := fmt.Fprintf(w, "Open this URL to log in:\n%s\n", url); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
