// Package tui provides the interactive caption generator screen using
// Bubble Tea. All shared state is mutated from the single Update loop;
// network calls run as commands and come back as messages.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/session"
	"github.com/jmallet/capgen/internal/workflow"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	captionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	warningStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("220")).
			Foreground(lipgloss.Color("220")).
			Padding(0, 1)

	quotaStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// View represents the current view mode
type View int

const (
	ViewHome View = iota
	ViewPicker
)

// Model is the caption generator TUI model
type Model struct {
	// Collaborators
	sess    session.Session
	orch    *workflow.Orchestrator
	history *workflow.RecentHistory
	workDir string

	// Workflow state
	view       View
	draft      *workflow.ImageDraft
	outcome    *workflow.Outcome
	submitting bool
	recent     []api.HistoryItem

	// Preview modal: purely local, nil when closed
	selected    *api.HistoryItem
	selectedIdx int

	// Chrome
	picker   *ImagePicker
	spinner  spinner.Model
	notice   string
	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the home screen model.
func New(sess session.Session, orch *workflow.Orchestrator, history *workflow.RecentHistory, workDir string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		sess:    sess,
		orch:    orch,
		history: history,
		workDir: workDir,
		view:    ViewHome,
		spinner: s,
	}
}

// Init starts the spinner and, for an authenticated user, the initial
// history fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.sess.Authenticated() {
		cmds = append(cmds, refreshHistoryCmd(m.history, m.sess, workflow.NewGeneration()))
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if m.picker != nil {
			m.picker.SetSize(msg.Width-4, msg.Height-6)
		}

	case draftMsg:
		if msg.err != nil {
			// Rejection: notice only, previous draft stays.
			m.notice = msg.err.Error()
			break
		}
		// A new upload replaces the draft and invalidates the result.
		m.draft = msg.draft
		m.outcome = nil
		m.notice = ""

	case generateDoneMsg:
		m.submitting = false
		if msg.err != nil {
			if errors.Is(msg.err, workflow.ErrBusy) || errors.Is(msg.err, workflow.ErrNoDraft) {
				m.notice = msg.err.Error()
			} else {
				m.notice = "Warning: " + msg.err.Error()
			}
			break
		}
		outcome := msg.outcome
		m.outcome = &outcome
		if outcome.Kind == workflow.OutcomeSuccess && m.sess.Authenticated() {
			cmds = append(cmds, refreshHistoryCmd(m.history, m.sess, workflow.NewGeneration()))
		}

	case historyMsg:
		// A failed refresh already kept the previous list; items always
		// reflect what should be displayed.
		m.recent = msg.items
		if m.selectedIdx >= len(m.recent) {
			m.selectedIdx = 0
		}

	case copiedMsg:
		if msg.err != nil {
			m.notice = "Failed to copy caption."
		} else {
			m.notice = "Caption copied to clipboard."
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.view == ViewPicker && m.picker != nil {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes key presses; handled is false when the key should
// fall through to the focused component.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	key := msg.String()

	// Preview modal swallows everything except close and copy.
	if m.selected != nil {
		switch key {
		case "esc", "q", "enter":
			m.selected = nil
			return m, nil, true
		case "c":
			return m, copyCmd(m.selected.CaptionText), true
		}
		return m, nil, true
	}

	if m.view == ViewPicker {
		switch key {
		case "esc":
			m.view = ViewHome
			return m, nil, true
		case "enter":
			if path, ok := m.picker.SelectedPath(); ok {
				m.view = ViewHome
				return m, validateCmd(path), true
			}
			return m, nil, true
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit, true
		}
		return m, nil, false
	}

	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit, true

	case "u":
		picker := NewImagePicker(m.workDir, m.width-4, m.height-6)
		if err := picker.LoadFiles(); err != nil {
			m.notice = fmt.Sprintf("Cannot scan %s: %v", m.workDir, err)
			return m, nil, true
		}
		m.picker = picker
		m.view = ViewPicker
		return m, nil, true

	case "enter", "g":
		// The trigger is disabled while a generation is in flight.
		if m.submitting {
			return m, nil, true
		}
		if m.draft == nil {
			m.notice = "Pick an image first (press u)."
			return m, nil, true
		}
		m.submitting = true
		m.outcome = nil
		m.notice = ""
		return m, generateCmd(m.orch, m.sess, m.draft), true

	case "r":
		if m.sess.Authenticated() {
			return m, refreshHistoryCmd(m.history, m.sess, workflow.NewGeneration()), true
		}
		return m, nil, true

	case "c":
		if m.outcome != nil && m.outcome.Kind == workflow.OutcomeSuccess {
			return m, copyCmd(m.outcome.Caption), true
		}
		return m, nil, true

	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil, true

	case "down", "j":
		if m.selectedIdx < len(m.recent)-1 {
			m.selectedIdx++
		}
		return m, nil, true

	case "o":
		if len(m.recent) > 0 && m.selectedIdx < len(m.recent) {
			item := m.recent[m.selectedIdx]
			m.selected = &item
		}
		return m, nil, true
	}

	return m, nil, false
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s Loading...", m.spinner.View())
	}
	if m.selected != nil {
		return m.viewModal()
	}
	if m.view == ViewPicker {
		return m.picker.View()
	}
	return m.viewHome()
}

func (m Model) viewHome() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Image Caption Generator") + "\n")
	if m.sess.Authenticated() && m.sess.User != nil {
		b.WriteString(infoStyle.Render("  Logged in as "+m.sess.User.Name) + "\n\n")
	} else {
		b.WriteString(infoStyle.Render("  Guest mode: one free generation, login for more") + "\n\n")
	}

	// Draft slot
	if m.draft != nil {
		b.WriteString(fmt.Sprintf("  Image: %s (%s, %d bytes)\n", m.draft.Name, m.draft.MIME, m.draft.Size))
	} else {
		b.WriteString(infoStyle.Render("  No image selected. Press u to pick one.") + "\n")
	}

	if m.submitting {
		b.WriteString(fmt.Sprintf("\n  %s Generating...\n", m.spinner.View()))
	}

	if m.outcome != nil {
		b.WriteString("\n" + m.renderOutcome(*m.outcome) + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n  " + infoStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.renderSidebar() + "\n")
	b.WriteString(helpStyle.Render("  u: pick image │ enter: generate │ j/k: select │ o: preview │ c: copy │ r: refresh │ q: quit"))

	return b.String()
}

// renderOutcome draws the result slot. Warning and generic errors share
// the warning slot (errors carry a "Warning:" prefix); quota exhaustion
// is a hard stop rendered on its own.
func (m Model) renderOutcome(out workflow.Outcome) string {
	width := m.width - 6
	switch out.Kind {
	case workflow.OutcomeSuccess:
		body := fmt.Sprintf("Generated Caption:\n%q", out.Caption)
		return captionStyle.Width(width).Render(body)
	case workflow.OutcomeWarning:
		return warningStyle.Width(width).Render("⚠ " + out.Message)
	case workflow.OutcomeQuotaExceeded:
		return quotaStyle.Width(width).Render("Guest limit reached.\n" + out.Message)
	default:
		return warningStyle.Width(width).Render("⚠ Warning: " + out.Message)
	}
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString("Recent Captions\n")

	if !m.sess.Authenticated() {
		b.WriteString(infoStyle.Render("Login to see your recent captions."))
		return sidebarStyle.Render(b.String())
	}
	if len(m.recent) == 0 {
		b.WriteString(infoStyle.Render("No recent captions."))
		return sidebarStyle.Render(b.String())
	}

	for i, item := range m.recent {
		line := fmt.Sprintf("%d. %s", i+1, truncate(item.CaptionText, 48))
		if i == m.selectedIdx {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return sidebarStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewModal() string {
	item := m.selected
	var b strings.Builder
	b.WriteString("Image Preview\n\n")
	b.WriteString(item.ImageURL + "\n\n")
	b.WriteString(fmt.Sprintf("Caption:\n%q\n\n", item.CaptionText))
	b.WriteString(infoStyle.Render("c: copy │ esc: close"))

	modal := modalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
