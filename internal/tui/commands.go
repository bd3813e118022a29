package tui

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/session"
	"github.com/jmallet/capgen/internal/workflow"
)

// Message types
type draftMsg struct {
	draft *workflow.ImageDraft
	err   error
}

type generateDoneMsg struct {
	outcome workflow.Outcome
	err     error
}

type historyMsg struct {
	gen   string
	items []api.HistoryItem
	err   error
}

type copiedMsg struct{ err error }

// validateCmd runs the upload gate on the picked file
func validateCmd(path string) tea.Cmd {
	return func() tea.Msg {
		draft, err := workflow.Validate(path)
		return draftMsg{draft: draft, err: err}
	}
}

// generateCmd submits the draft through the orchestrator
func generateCmd(orch *workflow.Orchestrator, sess session.Session, draft *workflow.ImageDraft) tea.Cmd {
	return func() tea.Msg {
		outcome, err := orch.Generate(context.Background(), sess, draft)
		return generateDoneMsg{outcome: outcome, err: err}
	}
}

// refreshHistoryCmd fetches the recent list; gen orders it against any
// refresh issued later so the slower response cannot win.
func refreshHistoryCmd(history *workflow.RecentHistory, sess session.Session, gen string) tea.Cmd {
	return func() tea.Msg {
		items, err := history.Refresh(context.Background(), sess, gen)
		return historyMsg{gen: gen, items: items, err: err}
	}
}

// copyCmd puts a caption on the system clipboard
func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}
