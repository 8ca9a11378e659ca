package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/gatehouse-io/gatehouse/internal/audit"
	"github.com/gatehouse-io/gatehouse/internal/hook"
)

// Model is the bubbletea model for the tail viewer: a viewport over the
// branch's recent audit events with an optional follow mode that sticks
// to the bottom as new events arrive.
type Model struct {
	logRoot string
	branch  string
	limit   int

	viewport viewport.Model
	events   []audit.Event
	follow   bool
	loaded   bool
	err      error

	width  int
	height int
	ready  bool
}

// NewModel creates a tail viewer for one branch.
func NewModel(logRoot, branch string, limit int) *Model {
	return &Model{
		logRoot: logRoot,
		branch:  branch,
		limit:   limit,
		follow:  true,
	}
}

// Init loads the initial batch of events.
func (m *Model) Init() tea.Cmd {
	return m.loadEvents
}

func (m *Model) loadEvents() tea.Msg {
	events, err := audit.ReadEvents(m.logRoot, m.branch, m.limit)
	if err != nil {
		return LoadErrMsg{Err: err}
	}
	return EventsLoadedMsg{Events: events}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Header and status bar take one line each.
		vpHeight := msg.Height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refreshContent()
		return m, nil

	case EventsLoadedMsg:
		m.events = msg.Events
		m.loaded = true
		m.err = nil
		m.refreshContent()
		return m, nil

	case LoadErrMsg:
		m.err = msg.Err
		m.loaded = true
		return m, nil

	case WatchStoppedMsg:
		if msg.Err != nil {
			m.err = msg.Err
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, tailKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, tailKeys.Follow):
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
		case key.Matches(msg, tailKeys.Up):
			m.follow = false
			m.viewport.LineUp(1)
		case key.Matches(msg, tailKeys.Down):
			m.viewport.LineDown(1)
		case key.Matches(msg, tailKeys.PgUp):
			m.follow = false
			m.viewport.HalfViewUp()
		case key.Matches(msg, tailKeys.PgDown):
			m.viewport.HalfViewDown()
		case key.Matches(msg, tailKeys.Top):
			m.follow = false
			m.viewport.GotoTop()
		case key.Matches(msg, tailKeys.Bottom):
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	var lines []string
	for _, ev := range m.events {
		lines = append(lines, m.renderEvent(ev))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderEvent(ev audit.Event) string {
	ts := ev.Timestamp
	if t, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err == nil {
		ts = t.Local().Format("15:04:05")
	}

	style := eventInfoStyle
	switch {
	case ev.Decision == hook.DecisionDeny:
		style = eventDenyStyle
	case ev.Error != "":
		style = eventErrorStyle
	case ev.Decision == hook.DecisionAllow:
		style = eventAllowStyle
	}

	detail := ev.Command
	if detail == "" {
		detail = ev.FilePath
	}
	if detail == "" {
		detail = ev.PromptPreview
	}
	if detail == "" {
		detail = ev.WorktreePath
	}

	line := fmt.Sprintf("%s %s %s",
		dimStyle.Render(ts),
		style.Render(fmt.Sprintf("%-16s", ev.Event)),
		detail)
	if ev.Reason != "" {
		line += "  " + eventDenyStyle.Render(ev.Reason)
	}
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return line
}

// View renders the viewer.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("gatehouse tail") + dimStyle.Render(" — "+m.branch)

	var body string
	switch {
	case m.err != nil:
		body = dimStyle.Render("Error: " + m.err.Error())
	case m.loaded && len(m.events) == 0:
		body = dimStyle.Render("No audit events yet. Waiting for activity...")
	default:
		body = m.viewport.View()
	}

	return header + "\n" + body + "\n" + m.statusBar()
}

func (m *Model) statusBar() string {
	follow := followOffStyle.Render("follow off")
	if m.follow {
		follow = followOnStyle.Render("follow on")
	}

	hints := strings.Join([]string{
		keyStyle.Render("f") + hintStyle.Render(" follow"),
		keyStyle.Render("j/k") + hintStyle.Render(" scroll"),
		keyStyle.Render("g/G") + hintStyle.Render(" top/bottom"),
		keyStyle.Render("q") + hintStyle.Render(" quit"),
	}, "  ")

	bar := fmt.Sprintf(" %d events  %s  %s", len(m.events), follow, hints)
	if m.width > 0 {
		bar = ansi.Truncate(bar, m.width, "")
	}
	return statusBarStyle.Width(m.width).Render(bar)
}
