package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/weftworks/weft/internal/orchestrator"
	"github.com/weftworks/weft/pkg/models"
)

// EngineEventMsg wraps an engine event for the TUI.
type EngineEventMsg struct {
	Event orchestrator.Event
}

// StreamClosedMsg signals that the engine's event stream has ended.
type StreamClosedMsg struct{}

// Listen returns a command that waits for the next engine event.
func Listen(events <-chan orchestrator.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamClosedMsg{}
		}
		return EngineEventMsg{Event: ev}
	}
}

// taskLine is one tracked task's display state.
type taskLine struct {
	id     string
	wave   int
	status models.TaskStatus
	detail string
}

// Progress is the bubbletea model showing live run progress.
type Progress struct {
	header  *Header
	spin    spinner.Model
	events  <-chan orchestrator.Event
	tasks   map[string]*taskLine
	metrics models.RunMetrics
	wave    int
	width   int
	done    bool
	aborted bool
	summary string
	err     error

	statusStyles map[models.TaskStatus]lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewProgress creates a progress model consuming the given event stream.
func NewProgress(events <-chan orchestrator.Event) *Progress {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#45B7D1"))

	return &Progress{
		header: NewHeader(),
		spin:   s,
		events: events,
		tasks:  make(map[string]*taskLine),
		width:  80,
		statusStyles: map[models.TaskStatus]lipgloss.Style{
			models.TaskStatusRunning:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			models.TaskStatusSucceeded:  lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
			models.TaskStatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			models.TaskStatusRolledBack: lipgloss.NewStyle().Foreground(lipgloss.Color("133")),
			models.TaskStatusSkipped:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
		dimStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

// Init implements tea.Model.
func (p *Progress) Init() tea.Cmd {
	return tea.Batch(p.spin.Tick, Listen(p.events))
}

// Update implements tea.Model.
func (p *Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return p, tea.Quit
		}

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.header.SetWidth(msg.Width)

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd

	case EngineEventMsg:
		p.apply(msg.Event)
		if p.done {
			return p, tea.Quit
		}
		return p, Listen(p.events)

	case StreamClosedMsg:
		p.done = true
		return p, tea.Quit
	}

	return p, nil
}

// apply folds one engine event into the display state.
func (p *Progress) apply(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventWaveStarted:
		p.wave = ev.Wave
	case orchestrator.EventTaskStarted:
		p.setTask(ev, models.TaskStatusRunning, ev.Message)
	case orchestrator.EventTaskSucceeded:
		p.setTask(ev, models.TaskStatusSucceeded, "")
	case orchestrator.EventTaskFailed:
		p.setTask(ev, models.TaskStatusFailed, errDetail(ev))
	case orchestrator.EventTaskRolledBack:
		p.setTask(ev, models.TaskStatusRolledBack, errDetail(ev))
	case orchestrator.EventTaskSkipped:
		p.setTask(ev, models.TaskStatusSkipped, "dependency failed")
	case orchestrator.EventMetricsUpdated, orchestrator.EventWaveCompleted:
		if ev.Metrics != nil {
			p.metrics = *ev.Metrics
		}
	case orchestrator.EventRunCompleted, orchestrator.EventRunAborted:
		if ev.Metrics != nil {
			p.metrics = *ev.Metrics
		}
		p.done = true
		p.aborted = ev.Type == orchestrator.EventRunAborted
		p.summary = ev.Message
		p.err = ev.Err
	}
}

func (p *Progress) setTask(ev orchestrator.Event, status models.TaskStatus, detail string) {
	line, ok := p.tasks[ev.TaskID]
	if !ok {
		line = &taskLine{id: ev.TaskID, wave: ev.Wave}
		p.tasks[ev.TaskID] = line
	}
	line.status = status
	line.detail = detail
}

// View implements tea.Model.
func (p *Progress) View() string {
	var b strings.Builder

	b.WriteString(p.header.View())
	b.WriteString("\n")

	if !p.done {
		b.WriteString(fmt.Sprintf(" %s wave %d\n\n", p.spin.View(), p.wave))
	} else {
		b.WriteString("\n")
	}

	for _, line := range p.sortedTasks() {
		style, ok := p.statusStyles[line.status]
		if !ok {
			style = p.dimStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s", style.Render(statusIcon(line.status)), line.id))
		if line.detail != "" {
			b.WriteString(" " + p.dimStyle.Render("("+line.detail+")"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.dimStyle.Render(fmt.Sprintf(
		"  files: %d  lines: %d  ok: %d  failed: %d  rolled back: %d  skipped: %d",
		p.metrics.FilesGenerated, p.metrics.LinesOfCode,
		p.metrics.TasksSucceeded, p.metrics.TasksFailed,
		p.metrics.TasksRolledBack, p.metrics.TasksSkipped)))
	b.WriteString("\n")

	if p.done {
		b.WriteString("\n  " + p.summary + "\n")
		if p.err != nil {
			b.WriteString("  " + p.statusStyles[models.TaskStatusFailed].Render(p.err.Error()) + "\n")
		}
	} else {
		b.WriteString("\n" + p.dimStyle.Render("  q to quit") + "\n")
	}

	return b.String()
}

// Done reports whether the run finished.
func (p *Progress) Done() bool {
	return p.done
}

// Aborted reports whether the run ended on a fatal error or stop request.
func (p *Progress) Aborted() bool {
	return p.aborted
}

func (p *Progress) sortedTasks() []*taskLine {
	lines := make([]*taskLine, 0, len(p.tasks))
	for _, l := range p.tasks {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].wave != lines[j].wave {
			return lines[i].wave < lines[j].wave
		}
		return lines[i].id < lines[j].id
	})
	return lines
}

func statusIcon(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusRunning:
		return "●"
	case models.TaskStatusSucceeded:
		return "✓"
	case models.TaskStatusFailed:
		return "✗"
	case models.TaskStatusRolledBack:
		return "↩"
	case models.TaskStatusSkipped:
		return "−"
	default:
		return "·"
	}
}

func errDetail(ev orchestrator.Event) string {
	if ev.Err == nil {
		return ""
	}
	return ev.Err.Error()
}
