// Package watch is the live terminal view of the reminder daemon.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	api "github.com/oshokin/reminder/internal/api/grpc/reminder"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// DefaultInterval is how often the view polls the daemon.
const DefaultInterval = time.Second

// Source is the daemon as seen by the view.
type Source interface {
	Status(ctx context.Context) (*api.StatusResponse, error)
	List(ctx context.Context) ([]domain.Record, error)
	StopCurrentAlarm(ctx context.Context) error
}

// keyMap holds the key bindings of the view.
type keyMap struct {
	// Stop silences the firing alarm.
	Stop key.Binding
	// Refresh polls the daemon at once.
	Refresh key.Binding
	// Quit leaves the view.
	Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop alarm"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// styles of the view.
type styles struct {
	title   lipgloss.Style
	firing  lipgloss.Style
	idle    lipgloss.Style
	when    lipgloss.Style
	muted   lipgloss.Style
	errLine lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		firing:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		idle:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		when:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		errLine: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

type (
	// tickMsg asks for a poll.
	tickMsg time.Time
	// snapshotMsg carries one poll result.
	snapshotMsg struct {
		status *api.StatusResponse
		alarms []domain.Record
		err    error
	}
	// stoppedMsg reports the result of a stop request.
	stoppedMsg struct {
		err error
	}
)

// Model is the bubbletea model of the view.
type Model struct {
	// ctx bounds the daemon calls.
	ctx context.Context //nolint:containedctx // bubbletea commands have no context parameter.
	// source is the daemon.
	source Source
	// interval is the poll period.
	interval time.Duration
	// now returns the current time.
	now func() time.Time
	// keys are the key bindings.
	keys keyMap
	// help renders the key hints.
	help help.Model
	// styles render the view.
	styles styles
	// status is the last trigger handler state.
	status *api.StatusResponse
	// alarms are the last listed alarms.
	alarms []domain.Record
	// err is the last poll error.
	err error
	// loaded is true after the first poll.
	loaded bool
}

// New creates the view model.
func New(ctx context.Context, source Source, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return Model{
		ctx:      ctx,
		source:   source,
		interval: interval,
		now:      time.Now,
		keys:     newKeyMap(),
		help:     help.New(),
		styles:   newStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.poll()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Stop):
			return m, m.stop()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.poll()
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tickMsg:
		return m, m.poll()
	case snapshotMsg:
		m.loaded = true
		m.err = msg.err

		if msg.err == nil {
			m.status = msg.status
			m.alarms = msg.alarms
		}

		return m, m.tick()
	case stoppedMsg:
		if msg.err != nil {
			m.err = msg.err

			return m, nil
		}

		return m, m.poll()
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("reminder"))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(m.styles.muted.Render("Connecting..."))
	case m.status != nil && m.status.Alarm != nil:
		b.WriteString(m.renderFiring())
	default:
		b.WriteString(m.styles.idle.Render("Idle"))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderAlarms())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.errLine.Render("Error: " + m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderFiring() string {
	alarm := m.status.Alarm

	title := alarm.Title
	if title == "" {
		title = domain.DefaultTitle
	}

	line := m.styles.firing.Render("FIRING  " + title)
	if alarm.Body != "" {
		line += "  " + alarm.Body
	}

	if m.status.StopsAt > 0 {
		left := time.UnixMilli(m.status.StopsAt).Sub(m.now())
		line += "\n" + m.styles.muted.Render("stops by itself in "+formatDuration(left))
	}

	if !m.status.Playing {
		line += "\n" + m.styles.muted.Render("sound is off")
	}

	return line
}

func (m Model) renderAlarms() string {
	if len(m.alarms) == 0 {
		return m.styles.muted.Render("No alarms scheduled.")
	}

	now := m.now()

	var b strings.Builder

	for i, alarm := range m.alarms {
		if i > 0 {
			b.WriteString("\n")
		}

		title := alarm.Title
		if title == "" {
			title = domain.DefaultTitle
		}

		when := alarm.Time().Local().Format("Mon 02 Jan 15:04")
		if alarm.IsFuture(now) {
			when += " (in " + formatDuration(alarm.Time().Sub(now)) + ")"
		} else {
			when += " (due)"
		}

		fmt.Fprintf(&b, "%s  %s  %s", m.styles.when.Render(when), title, m.styles.muted.Render(alarm.ID))
	}

	return b.String()
}

func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		status, err := m.source.Status(m.ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}

		alarms, err := m.source.List(m.ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}

		return snapshotMsg{status: status, alarms: alarms}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) stop() tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg{err: m.source.StopCurrentAlarm(m.ctx)}
	}
}

// formatDuration rounds d to seconds below a minute and to minutes above.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	if d < time.Minute {
		return d.Round(time.Second).String()
	}

	return d.Round(time.Minute).String()
}

// Run shows the view until the user quits or ctx is done.
func Run(ctx context.Context, source Source, interval time.Duration) error {
	_, err := tea.NewProgram(New(ctx, source, interval), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run watch view: %w", err)
	}

	return nil
}
