package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/controller"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
	"github.com/desertthunder/wardrobe/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BoardView ViewState = iota
	UploadView
	UploadingView
	ConfirmDeleteView
	LoginView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	ctrl         *controller.Controller
	view         ViewState
	width        int
	height       int
	gallery      list.Model
	input        textinput.Model
	categories   []models.Category
	category     int
	note         string
	progressChan chan tasks.ProgressUpdate
	done         chan uploadResult
	progress     tasks.ProgressUpdate
	help         help.Model
	keys         keyMap
	readFile     func(string) ([]byte, error)
	logger       *log.Logger
}

// NewModel creates a TUI model for a controller that has not been bootstrapped yet.
//
// logger must not write to the terminal the program draws on; nil discards.
func NewModel(ctx context.Context, ctrl *controller.Controller, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	variant := ctrl.Variant()

	gl := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	gl.Title = variant.Title
	gl.SetFilteringEnabled(false)
	gl.SetShowHelp(false)
	gl.SetStatusBarItemName("item", "items")

	in := textinput.New()
	in.Placeholder = "~/photos/shirt.jpg, ~/photos/skirt.png"
	in.Prompt = "Files: "

	var categories []models.Category
	if variant.Kind == models.PageMain {
		categories = variant.Buckets
	}

	return &Model{
		ctx:        ctx,
		ctrl:       ctrl,
		view:       BoardView,
		gallery:    gl,
		input:      in,
		categories: categories,
		help:       help.New(),
		keys:       newKeyMap(),
		readFile:   os.ReadFile,
		logger:     logger,
	}
}

// Init signs in and loads the board.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return bootstrappedMsg(m.ctrl.Bootstrap(m.ctx))
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.gallery.SetSize(msg.Width-4, msg.Height-8)
		m.input.Width = msg.Width - 12
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BoardView:
			return m.handleBoardKeys(msg)
		case UploadView:
			return m.handleUploadKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case LoginView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		case UploadingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == BoardView {
		m.gallery, cmd = m.gallery.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	if err := msg.errOf(); err != nil {
		m.logRequest(msg.kind, err)
	}

	switch msg.kind {
	case MsgBootstrapped:
		if m.ctrl.State().Terminal() {
			m.view = LoginView
			return m, nil
		}
		m.rebuild()
		m.view = BoardView

	case MsgReloaded, MsgDeleted:
		m.rebuild()
		m.view = BoardView

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgUploadComplete:
		if res := msg.data.(uploadResult); res.err != nil {
			m.logRequest(msg.kind, res.err)
		}
		m.progressChan = nil
		m.done = nil
		m.rebuild()
		m.view = BoardView
	}
	return m, nil
}

func (m *Model) logRequest(kind MsgKind, err error) {
	if errors.Is(err, shared.ErrLoginRequired) {
		m.logger.Info("login required", "board", m.ctrl.Variant().Kind)
		return
	}
	m.logger.Warn("request failed", "board", m.ctrl.Variant().Kind, "kind", kind, "error", err)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case UploadView:
		return m.renderUpload()
	case UploadingView:
		return m.renderUploading()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return m.renderBoard()
	}
}

func (m *Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.gallery.SelectedItem().(cardItem); ok {
			m.ctrl.Toggle(item.card.Item.Path)
			m.rebuild()
		}
		return m, nil

	case key.Matches(msg, m.keys.all):
		v := m.ctrl.View()
		m.ctrl.SelectAll(len(v.SelectedPaths()) < v.Len())
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.filter):
		if len(m.categories) > 0 {
			m.ctrl.SetFilter(m.nextFilter())
			m.rebuild()
		}
		return m, nil

	case key.Matches(msg, m.keys.upload):
		m.note = ""
		m.input.Reset()
		m.input.Focus()
		m.view = UploadView
		return m, nil

	case key.Matches(msg, m.keys.delete):
		if len(m.ctrl.View().SelectedPaths()) == 0 {
			return m, m.deleteSelected()
		}
		m.view = ConfirmDeleteView
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		return m, func() tea.Msg {
			return reloadedMsg(m.ctrl.Refresh(m.ctx))
		}
	}

	var cmd tea.Cmd
	m.gallery, cmd = m.gallery.Update(msg)
	return m, cmd
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.input.Blur()
		m.view = BoardView
		return m, nil

	case key.Matches(msg, m.keys.category):
		if len(m.categories) > 0 {
			m.category = (m.category + 1) % len(m.categories)
		}
		return m, nil

	case key.Matches(msg, m.keys.enter):
		files, err := m.readFiles(splitPaths(m.input.Value()))
		if err != nil {
			m.note = err.Error()
			return m, nil
		}
		m.input.Blur()
		return m, m.startUpload(m.selectedCategory(), files)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.deleteSelected()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = BoardView
	}
	return m, nil
}

func (m *Model) deleteSelected() tea.Cmd {
	return func() tea.Msg {
		return deletedMsg(m.ctrl.DeleteSelected(m.ctx))
	}
}

func (m *Model) startUpload(category models.Category, files []models.UploadFile) tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan uploadResult, 1)
	m.progress = tasks.ProgressUpdate{Total: len(files), Message: "Starting upload..."}
	m.view = UploadingView

	progress, done := m.progressChan, m.done
	go func() {
		tally, err := m.ctrl.Upload(m.ctx, category, files, progress)
		close(progress)
		done <- uploadResult{tally: tally, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return uploadCompleteMsg(<-done)
	}
}

// rebuild replaces the list items with the controller's current view.
func (m *Model) rebuild() {
	m.gallery.SetItems(cardItems(m.ctrl.View()))

	title := m.ctrl.Variant().Title
	if f := m.ctrl.Filter(); f != models.CategoryAll && f != "" {
		title = fmt.Sprintf("%s · %s", title, f.Label())
	}
	m.gallery.Title = title
}

func (m *Model) nextFilter() models.Category {
	options := append([]models.Category{models.CategoryAll}, m.categories...)
	current := m.ctrl.Filter()
	for i, c := range options {
		if c == current {
			return options[(i+1)%len(options)]
		}
	}
	return models.CategoryAll
}

func (m *Model) selectedCategory() models.Category {
	if len(m.categories) == 0 {
		return ""
	}
	return m.categories[m.category]
}

func (m *Model) readFiles(paths []string) ([]models.UploadFile, error) {
	files := make([]models.UploadFile, 0, len(paths))
	for _, p := range paths {
		data, err := m.readFile(expandHome(p))
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", p, err)
		}
		files = append(files, models.UploadFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// splitPaths splits a comma separated path list, dropping blanks.
func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return home + p[1:]
}

func (m *Model) statusLine() string {
	return styles.Status(m.ctrl.Status())
}

func (m *Model) renderBoard() string {
	body := m.gallery.View()
	if v := m.ctrl.View(); v.Empty() && v.EmptyMessage != "" {
		body = fmt.Sprintf("%s\n\n%s", styles.title.Render(m.gallery.Title), styles.help.Render(v.EmptyMessage))
	}

	keys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.upload, m.keys.delete, m.keys.refresh, m.keys.quit}
	if len(m.categories) > 0 {
		keys = append([]key.Binding{m.keys.filter}, keys...)
	}
	return fmt.Sprintf("%s\n\n%s\n%s", body, m.statusLine(), m.help.ShortHelpView(keys))
}

func (m *Model) renderUpload() string {
	title := styles.title.Render("Upload to " + m.ctrl.Variant().Title)

	var category string
	if len(m.categories) > 0 {
		category = fmt.Sprintf("Category: %s\n\n", styles.ok.Render(m.selectedCategory().Label()))
	}

	var note string
	if m.note != "" {
		note = "\n\n" + styles.err.Render(m.note)
	}

	keys := []key.Binding{m.keys.enter, m.keys.back}
	if len(m.categories) > 0 {
		keys = append(keys, m.keys.category)
	}
	return fmt.Sprintf("%s\n%s%s%s\n\n%s", title, category, m.input.View(), note, m.help.ShortHelpView(keys))
}

func (m *Model) renderUploading() string {
	title := styles.title.Render("Uploading")
	return fmt.Sprintf("%s\n\n%s\n", title, m.progress.Message)
}

func (m *Model) renderConfirm() string {
	n := len(m.ctrl.View().SelectedPaths())
	title := styles.title.Render(fmt.Sprintf("Delete %d selected item(s)?", n))
	return fmt.Sprintf("%s\n%s", title, m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
}

func (m *Model) renderLogin() string {
	title := styles.title.Render(m.ctrl.Variant().Title)

	var hint string
	switch {
	case m.ctrl.State() == controller.InitFailed:
		hint = "Restart to try again."
	case m.ctrl.LoginURL() != "":
		hint = "Run `wardrobe auth login` to sign in with LINE."
	default:
		hint = "Run `wardrobe auth use <user-id>` to choose an account."
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, m.statusLine(), styles.help.Render(hint), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}
