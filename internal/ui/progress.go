// Package ui renders the progress of a workspace analysis in the terminal.
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

	"dftemplate/internal/workspace"
)

type progressModel struct {
	title      string
	events     <-chan workspace.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []fileItem
	index      map[string]int
	stageLabel string
	width      int
	done       bool
}

type fileItem struct {
	path    string
	status  string
	stage   workspace.Stage
	elapsed time.Duration
}

type eventMsg workspace.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders analysis progress
// of files until events is closed.
func NewProgressModel(title string, files []string, events <-chan workspace.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(workspace.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		// анализ продолжается, прерывание обрабатывает вызывающий через контекст
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth, timeWidth = 10, 9
	nameWidth := max(m.width-statusWidth-timeWidth-6, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		elapsed := ""
		if item.elapsed > 0 {
			elapsed = item.elapsed.Round(time.Millisecond).String()
		}
		fmt.Fprintf(&b, "  %s %-*s %s\n", status, nameWidth, truncate(item.path, nameWidth), elapsed)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev workspace.Event) tea.Cmd {
	label := statusLabel(ev.Stage, ev.Status)
	if ev.File == "" {
		m.stageLabel = label
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok || label == "" {
		return nil
	}
	m.items[idx].status = label
	m.items[idx].stage = ev.Stage
	if ev.Elapsed > 0 {
		m.items[idx].elapsed = ev.Elapsed
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		total += progressOf(item)
	}
	return total / float64(len(m.items))
}

func progressOf(item fileItem) float64 {
	switch item.status {
	case "done", "cached", "error":
		return 1
	}
	switch item.stage {
	case workspace.StageParse:
		return 0.3
	case workspace.StageLint:
		return 0.6
	}
	return 0
}

func statusLabel(stage workspace.Stage, status workspace.Status) string {
	switch status {
	case workspace.StatusQueued:
		return "queued"
	case workspace.StatusDone:
		if stage == workspace.StageQuests {
			return ""
		}
		return "done"
	case workspace.StatusCached:
		return "cached"
	case workspace.StatusError:
		return "error"
	case workspace.StatusWorking:
		return stageLabel(stage)
	}
	return ""
}

func stageLabel(stage workspace.Stage) string {
	switch stage {
	case workspace.StageLoad:
		return "loading"
	case workspace.StageParse:
		return "parsing"
	case workspace.StageLint:
		return "linting"
	case workspace.StageQuests:
		return "linking quests"
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "loading", "parsing", "linting":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// ширина хвоста входит в width
	return runewidth.Truncate(value, width, "...")
}
