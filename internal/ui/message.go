package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotshuffle/internal/tasks"
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
	MsgAuthorized MsgKind = iota
	MsgProgressUpdate
	MsgShuffleComplete
)

type shuffleOutcome struct {
	result *tasks.ShuffleResult
	err    error
}

// authorizedMsg is the constructor for [MsgAuthorized]
func authorizedMsg(err error) Msg {
	return Msg{kind: MsgAuthorized, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// shuffleCompleteMsg is the constructor for [MsgShuffleComplete]
func shuffleCompleteMsg(result *tasks.ShuffleResult, err error) Msg {
	return Msg{kind: MsgShuffleComplete, data: shuffleOutcome{result, err}}
}
