// Package progress shows a batch run while its input files are parsed.
package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/Digital-Shane/quickfill/internal/batch"
	"github.com/Digital-Shane/quickfill/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type fileDoneMsg struct {
	result batch.FileResult
	closed bool
}

const errorBaseLines = 8

// Model displays a progress bar fed by finished batch files. The channel
// is closed by the producer once every file has been handled.
type Model struct {
	results <-chan batch.FileResult
	cancel  context.CancelFunc

	total     int
	processed int
	entries   int
	errors    []string
	last      string
	workers   int

	width  int
	height int

	progress progress.Model
	theme    theme.Theme

	done     bool
	canceled bool
}

// New returns a progress screen for total files. cancel, which may be nil,
// is called when the user aborts.
func New(total, workers int, results <-chan batch.FileResult, cancel context.CancelFunc, th theme.Theme) *Model {
	colors := th.Colors()
	prog := progress.New(progress.WithGradient(string(colors.Primary), string(colors.Accent)))
	prog.Width = 50

	return &Model{
		results:  results,
		cancel:   cancel,
		total:    total,
		workers:  workers,
		width:    80,
		height:   12,
		progress: prog,
		theme:    th,
	}
}

func (m *Model) Init() tea.Cmd {
	if m.total == 0 {
		m.done = true
		return tea.Quit
	}
	return m.waitForFile()
}

func (m *Model) waitForFile() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.results
		if !ok {
			return fileDoneMsg{closed: true}
		}
		return fileDoneMsg{result: res}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = max(msg.Width-4, 10)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if m.cancel != nil {
				m.cancel()
			}
			m.canceled = true
			return m, tea.Quit
		}
	case fileDoneMsg:
		return m.handleFile(msg)
	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleFile(msg fileDoneMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		m.done = true
		return m, tea.Quit
	}

	res := msg.result
	m.processed++
	m.last = res.Path
	switch {
	case res.Err != nil:
		m.errors = append(m.errors, fmt.Sprintf("%s: %v", res.Path, res.Err))
	case res.Model != nil:
		m.entries += res.Model.Len()
	}

	cmd := m.progress.SetPercent(float64(m.processed) / float64(m.total))
	return m, tea.Batch(cmd, m.waitForFile())
}

// Processed reports how many files have finished.
func (m *Model) Processed() int { return m.processed }

// Done reports whether every file was handled before the screen closed.
func (m *Model) Done() bool { return m.done }

// Canceled reports whether the user aborted the run.
func (m *Model) Canceled() bool { return m.canceled }

func (m *Model) View() string {
	if m.total == 0 {
		return "No input files to parse.\n"
	}

	percent := 100 * m.processed / m.total
	header := fmt.Sprintf("%s Parsing inputs", m.theme.Icon("folder"))

	stats := []string{
		fmt.Sprintf("Files: %d/%d", m.processed, m.total),
		fmt.Sprintf("Entries found: %d", m.entries),
		fmt.Sprintf("Progress: %d%%", percent),
		fmt.Sprintf("Workers: %d", m.workers),
	}

	status := "Parsing files in parallel... please wait"
	if m.last != "" {
		status = runewidth.Truncate(m.last, max(m.width-2, 10), "…")
	}

	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render(header),
		m.progress.View(),
		m.renderStats(stats),
		m.theme.StatusBarStyle().Width(m.width).Render(status),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderStats(stats []string) string {
	panel := m.theme.PanelStyle()
	panelWidth := max(m.width-panel.GetHorizontalFrameSize(), 0)

	blocks := []string{strings.Join(stats, "\n")}
	if errBlock := m.renderErrors(); errBlock != "" {
		blocks = append(blocks, errBlock)
	}
	return panel.Width(panelWidth).Render(strings.Join(blocks, "\n"))
}

// renderErrors shows the most recent errors that fit the window.
func (m *Model) renderErrors() string {
	if len(m.errors) == 0 {
		return ""
	}

	maxLines := max(m.height-errorBaseLines, 1)
	shown := min(len(m.errors), maxLines)
	width := max(m.width-6, 10)

	lines := []string{fmt.Sprintf("Errors: %d", len(m.errors))}
	for _, msg := range m.errors[len(m.errors)-shown:] {
		lines = append(lines, "• "+runewidth.Truncate(msg, width, "..."))
	}
	if len(m.errors) > shown {
		lines = append(lines, fmt.Sprintf("... and %d more", len(m.errors)-shown))
	}
	return lipgloss.NewStyle().Foreground(m.theme.Colors().Error).Render(strings.Join(lines, "\n"))
}
