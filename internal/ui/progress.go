// Package ui renders the --ui progress view of a check run.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"ocahooks/internal/module"
)

// row is one module line of the view.
type row struct {
	name    string
	label   string
	stage   module.Stage
	elapsed time.Duration
	err     error
}

// share is how far a module in a stage counts toward the bar.
var share = map[module.Stage]float64{
	module.StageManifest: 0.2,
	module.StageCheck:    0.5,
	module.StageDone:     1.0,
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	labelStyle = map[string]lipgloss.Style{
		"done":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"error":    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"loading":  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"checking": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
	idleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

const labelWidth = 10

type progressModel struct {
	title   string
	events  <-chan module.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []row
	byName  map[string]int
	width   int
	closed  bool
}

type eventMsg module.Event
type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model showing one row per module.
// Rows appear as discovery queues them; the model quits when events is
// closed.
func NewProgressModel(title string, events <-chan module.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = labelStyle["checking"]

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		byName:  make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(module.Event(msg)), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// next waits for the following event of the run.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev module.Event) tea.Cmd {
	if ev.Module == "" {
		return nil
	}
	idx, ok := m.byName[ev.Module]
	if !ok {
		idx = len(m.rows)
		m.byName[ev.Module] = idx
		m.rows = append(m.rows, row{name: ev.Module})
	}
	r := &m.rows[idx]
	if l := label(ev.Stage, ev.Status); l != "" {
		r.label = l
		r.stage = ev.Stage
	}
	if ev.Stage == module.StageDone {
		r.elapsed = ev.Elapsed
		r.err = ev.Err
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range m.rows {
		sum += share[r.stage]
	}
	return sum / float64(len(m.rows))
}

func (m *progressModel) finished() int {
	n := 0
	for _, r := range m.rows {
		if r.stage == module.StageDone {
			n++
		}
	}
	return n
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	header := fmt.Sprintf("%s (%d/%d)", m.title, m.finished(), len(m.rows))
	if m.closed {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-labelWidth-16, 20)
	var failed []row
	for _, r := range m.rows {
		style, ok := labelStyle[r.label]
		if !ok {
			style = idleStyle
		}
		fmt.Fprintf(&b, "  %s %s", style.Render(fmt.Sprintf("%*s", labelWidth, r.label)), truncate(r.name, nameWidth))
		if r.stage == module.StageDone && r.elapsed > 0 {
			fmt.Fprintf(&b, "  %s", r.elapsed.Round(time.Millisecond))
		}
		b.WriteString("\n")
		if r.err != nil {
			failed = append(failed, r)
		}
	}
	for _, r := range failed {
		b.WriteString(labelStyle["error"].Render(fmt.Sprintf("  %s: %v", r.name, r.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// label is the status column text, empty when the event does not change it.
func label(stage module.Stage, status module.Status) string {
	switch status {
	case module.StatusQueued:
		return "queued"
	case module.StatusDone:
		return "done"
	case module.StatusError:
		return "error"
	case module.StatusWorking:
		switch stage {
		case module.StageManifest:
			return "loading"
		case module.StageCheck:
			return "checking"
		}
	}
	return ""
}

func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width-3, "...")
	}
}
