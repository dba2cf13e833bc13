package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/wardrobe/internal/controller"
)

var styles = NewPalette("#06C755", "#04B575", "#FF5F56", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// Status renders a controller status line in the color of its level.
func (p *Palette) Status(s controller.Status) string {
	switch s.Level {
	case controller.LevelSuccess:
		return p.ok.Render(s.Message)
	case controller.LevelWarn:
		return p.warn.Render(s.Message)
	case controller.LevelError:
		return p.err.Render(s.Message)
	default:
		return s.Message
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
