package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgBootstrapped MsgKind = iota
	MsgReloaded
	MsgProgressUpdate
	MsgUploadComplete
	MsgDeleted
)

func (k MsgKind) String() string {
	switch k {
	case MsgBootstrapped:
		return "bootstrapped"
	case MsgReloaded:
		return "reloaded"
	case MsgProgressUpdate:
		return "progress"
	case MsgUploadComplete:
		return "upload_complete"
	case MsgDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// uploadResult is the payload of [MsgUploadComplete]
type uploadResult struct {
	tally models.UploadTally
	err   error
}

// bootstrappedMsg is the constructor for [MsgBootstrapped]
func bootstrappedMsg(err error) Msg {
	return Msg{kind: MsgBootstrapped, data: err}
}

// reloadedMsg is the constructor for [MsgReloaded]
func reloadedMsg(err error) Msg {
	return Msg{kind: MsgReloaded, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// uploadCompleteMsg is the constructor for [MsgUploadComplete]
func uploadCompleteMsg(res uploadResult) Msg {
	return Msg{kind: MsgUploadComplete, data: res}
}

// deletedMsg is the constructor for [MsgDeleted]
func deletedMsg(err error) Msg {
	return Msg{kind: MsgDeleted, data: err}
}

// errOf returns the error carried by messages whose payload is an error.
func (m Msg) errOf() error {
	if err, ok := m.data.(error); ok {
		return err
	}
	return nil
}
