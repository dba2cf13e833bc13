package gallery

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	bucketStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
	selectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// WriteText prints v as a plain listing: one heading per non-empty bucket, one line per card.
func WriteText(w io.Writer, v *View) error {
	if v.Empty() {
		_, err := fmt.Fprintln(w, mutedStyle.Render(v.EmptyMessage))
		return err
	}

	n := 0
	for _, b := range v.Buckets {
		if len(b.Cards) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, bucketStyle.Render(fmt.Sprintf("%s (%d)", b.Label, len(b.Cards)))); err != nil {
			return err
		}

		for _, c := range b.Cards {
			n++
			if _, err := fmt.Fprintf(w, "  %s %2d. %s  %s\n", checkbox(c), n, c.Item.URL, caption(c)); err != nil {
				return err
			}
		}
	}

	if v.Skipped > 0 {
		if _, err := fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d item(s) with an unknown category not shown", v.Skipped))); err != nil {
			return err
		}
	}

	return nil
}

func checkbox(c *Card) string {
	if c.Selected {
		return selectStyle.Render("[x]")
	}
	return "[ ]"
}

func caption(c *Card) string {
	if c.Pending {
		return pendingStyle.Render(c.Caption)
	}
	return c.Caption
}
