package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/local2stream/internal/tasks"
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
	MsgJobStarted MsgKind = iota
	MsgProgressEvent
	MsgTransferComplete
)

type jobStarted struct {
	job *tasks.Job
	err error
}

// jobStartedMsg is the constructor for [MsgJobStarted]
func jobStartedMsg(job *tasks.Job, err error) Msg {
	return Msg{kind: MsgJobStarted, data: jobStarted{job, err}}
}

// progressEventMsg is the constructor for [MsgProgressEvent]
func progressEventMsg(ev tasks.ProgressEvent) Msg {
	return Msg{kind: MsgProgressEvent, data: ev}
}

// transferCompleteMsg is the constructor for [MsgTransferComplete]
func transferCompleteMsg(summary *tasks.Summary) Msg {
	return Msg{kind: MsgTransferComplete, data: summary}
}
