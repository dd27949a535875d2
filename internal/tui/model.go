package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"orchd/internal/app"
	"orchd/internal/domain"
	"orchd/internal/usecase"
)

// refreshInterval is how often the dashboard reloads tasks and sessions.
const refreshInterval = 2 * time.Second

// Messages.
type (
	tickMsg      time.Time
	refreshedMsg struct {
		tasks      []*domain.Task
		activities map[string]domain.Activity // keyed by task id
	}
	previewMsg struct{ content string }
	errMsg     struct{ err error }
	actionMsg  struct{ note string }
)

// Model is the bubbletea model for the dashboard.
// Fields are ordered to minimize memory padding.
type Model struct {
	container  *app.Container
	activities map[string]domain.Activity
	tasks      []*domain.Task
	note       string
	preview    string
	keys       KeyMap
	help       help.Model
	cursor     int
	width      int
	height     int
	showPeek   bool
}

// New creates a dashboard model.
func New(c *app.Container) Model {
	return Model{
		container:  c,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		activities: make(map[string]domain.Activity),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh loads tasks and the activity of their sessions.
func (m Model) refresh() tea.Cmd {
	c := m.container
	return func() tea.Msg {
		out, err := c.ListTasks().Execute(usecase.ListTasksInput{})
		if err != nil {
			return errMsg{err}
		}
		activities := make(map[string]domain.Activity)
		for _, t := range out.Tasks {
			if !t.HasSession() {
				continue
			}
			if session, err := c.Supervisor.Get(t.SessionID); err == nil {
				activities[t.ID] = session.Activity
			}
		}
		return refreshedMsg{tasks: out.Tasks, activities: activities}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case refreshedMsg:
		m.tasks = msg.tasks
		m.activities = msg.activities
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case previewMsg:
		m.preview = msg.content
		return m, nil

	case actionMsg:
		m.note = msg.note
		return m, m.refresh()

	case errMsg:
		m.note = errorStyle.Render(msg.err.Error())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.peekIfOpen()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, m.peekIfOpen()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Launch):
		if t := m.selected(); t != nil {
			return m, m.launchTask(t.ID)
		}

	case key.Matches(msg, m.keys.Kill):
		if t := m.selected(); t != nil {
			return m, m.killSession(t.ID)
		}

	case key.Matches(msg, m.keys.Peek):
		m.showPeek = !m.showPeek
		if !m.showPeek {
			m.preview = ""
			return m, nil
		}
		return m, m.peekIfOpen()
	}
	return m, nil
}

func (m Model) selected() *domain.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

func (m Model) launchTask(taskID string) tea.Cmd {
	c := m.container
	return func() tea.Msg {
		out, err := c.LaunchTask().Execute(context.Background(), usecase.LaunchTaskInput{TaskID: taskID})
		if err != nil {
			return errMsg{err}
		}
		return actionMsg{note: fmt.Sprintf("launched %s", out.Session.ID)}
	}
}

func (m Model) killSession(taskID string) tea.Cmd {
	c := m.container
	return func() tea.Msg {
		if _, err := c.KillSession().Execute(usecase.KillSessionInput{TaskID: taskID}); err != nil {
			return errMsg{err}
		}
		return actionMsg{note: "session killed"}
	}
}

func (m Model) peekIfOpen() tea.Cmd {
	if !m.showPeek {
		return nil
	}
	t := m.selected()
	if t == nil || !t.HasSession() {
		return func() tea.Msg { return previewMsg{content: ""} }
	}
	c := m.container
	ref := t.ID
	return func() tea.Msg {
		out, err := c.PeekSession().Execute(usecase.PeekSessionInput{Ref: ref, Lines: 15})
		if err != nil {
			return previewMsg{content: mutedStyle.Render(err.Error())}
		}
		return previewMsg{content: out.Content}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("orchd dashboard"))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(mutedStyle.Render("No tasks."))
		b.WriteString("\n")
	}

	for i, t := range m.tasks {
		line := fmt.Sprintf("%-10s %-4s %-32s %s",
			StateStyle(t.State).Render(t.State.Display()),
			t.Priority,
			truncate(t.Title, 32),
			mutedStyle.Render(humanize.Time(t.Updated)))
		if activity, ok := m.activities[t.ID]; ok {
			line += "  " + ActivityStyle(activity).Render(activity.Display())
		}
		if i == m.cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.showPeek && m.preview != "" {
		b.WriteString("\n")
		b.WriteString(previewStyle.Width(max(20, m.width-4)).Render(strings.TrimRight(m.preview, "\n")))
		b.WriteString("\n")
	}

	if m.note != "" {
		b.WriteString("\n")
		b.WriteString(m.note)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
