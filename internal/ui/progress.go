// Package ui renders directory-run progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"portlint/internal/analyzer"
)

type progressModel struct {
	title    string
	events   <-chan analyzer.Event
	spinner  spinner.Model
	prog     progress.Model
	items    []fileItem
	index    map[string]int
	width    int
	findings int
	done     bool
}

type fileItem struct {
	path     string
	status   string
	stage    analyzer.Stage
	finished bool
}

type eventMsg analyzer.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file status
// until events is closed.
func NewProgressModel(title string, files []string, events <-chan analyzer.Event) tea.Model {
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
		cmd := m.applyEvent(analyzer.Event(msg))
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
		if msg.String() == "ctrl+c" {
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
	finished := m.finishedCount()
	header := fmt.Sprintf("%s (%d/%d files, %d finding(s))", m.title, finished, len(m.items), m.findings)
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 12
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(item.path, nameWidth))
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

func (m *progressModel) applyEvent(ev analyzer.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.stage = ev.Stage
	item.status = statusLabel(ev)
	if ev.Status == analyzer.StatusDone || ev.Status == analyzer.StatusError {
		if !item.finished {
			m.findings += ev.Findings
		}
		item.finished = true
	}

	total := 0.0
	for _, it := range m.items {
		if it.finished {
			total += 1.0
			continue
		}
		total += progressFromStage(it.stage)
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func (m *progressModel) finishedCount() int {
	n := 0
	for _, it := range m.items {
		if it.finished {
			n++
		}
	}
	return n
}

func progressFromStage(stage analyzer.Stage) float64 {
	switch stage {
	case analyzer.StageLoad:
		return 0.2
	case analyzer.StageAnalyze:
		return 0.6
	}
	return 0
}

func statusLabel(ev analyzer.Event) string {
	switch ev.Status {
	case analyzer.StatusQueued:
		return "queued"
	case analyzer.StatusError:
		return "error"
	case analyzer.StatusWorking:
		if ev.Stage == analyzer.StageLoad {
			return "loading"
		}
		return "analyzing"
	case analyzer.StatusDone:
		switch {
		case ev.Findings > 0:
			return fmt.Sprintf("%d issue(s)", ev.Findings)
		case ev.Cached:
			return "cached"
		}
		return "clean"
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	switch {
	case status == "clean" || status == "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case status == "error" || strings.HasSuffix(status, "issue(s)"):
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case status == "loading" || status == "analyzing":
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
	return runewidth.Truncate(value, width-3, "...")
}
