package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/Digital-Shane/quickfill/internal/script"
	"github.com/Digital-Shane/quickfill/internal/tui/components"
	"github.com/Digital-Shane/quickfill/internal/tui/theme"
	"github.com/Digital-Shane/treeview"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

const statusTTL = 4 * time.Second

// Exporter writes the script for a single entry and returns its path.
type Exporter interface {
	WriteEpisode(ctx context.Context, ep *quickfill.Episode) (string, error)
}

type exportResult struct {
	node *treeview.Node[components.Entry]
	path string
	err  error
}

// ExportDoneMsg carries the outcome of an export started with Enter or 'a'.
type ExportDoneMsg struct{ results []exportResult }

// Model is the browse screen: parsed entries on the left, details or the
// rendered script of the focused entry on the right.
type Model struct {
	*treeview.TuiTreeModel[components.Entry]
	exporter   Exporter
	scriptOpts script.Options
	theme      theme.Theme

	width      int
	height     int
	splitRatio float64

	details        *viewport.Model
	detailsFocused bool
	showScript     bool

	exporting bool
	written   int
	failed    int
	status    string
	statusSeq int
}

type Option func(*Model)

func WithTheme(th theme.Theme) Option {
	return func(m *Model) { m.theme = th }
}

// WithExporter enables Enter and 'a'. Without one the screen is read-only.
func WithExporter(e Exporter) Option {
	return func(m *Model) { m.exporter = e }
}

// WithScriptOptions sets the options used for the script preview.
func WithScriptOptions(opts script.Options) Option {
	return func(m *Model) { m.scriptOpts = opts }
}

// NewTree lays a parsed model out for browsing. Series models get one
// expanded group per series; movie models are a flat list.
func NewTree(model *quickfill.Model, th theme.Theme) *treeview.Tree[components.Entry] {
	var nodes []*treeview.Node[components.Entry]

	if model.IsMovie() {
		for _, ep := range model.Sorted() {
			nodes = append(nodes, entryNode(ep, components.EntryMovie))
		}
	} else {
		groups := lo.GroupBy(model.Sorted(), func(ep *quickfill.Episode) string { return ep.SeriesName })
		order := lo.Uniq(lo.Map(model.Sorted(), func(ep *quickfill.Episode, _ int) string { return ep.SeriesName }))
		for _, series := range order {
			group := treeview.NewNode("series:"+series, series, components.Entry{Kind: components.EntrySeries})
			group.SetChildren(lo.Map(groups[series], func(ep *quickfill.Episode, _ int) *treeview.Node[components.Entry] {
				return entryNode(ep, components.EntryEpisode)
			}))
			group.SetExpanded(true)
			nodes = append(nodes, group)
		}
	}

	return treeview.NewTree(nodes,
		treeview.WithExpandAll[components.Entry](),
		treeview.WithProvider(components.NewEntryProvider(th)),
	)
}

func entryNode(ep *quickfill.Episode, kind components.EntryKind) *treeview.Node[components.Entry] {
	return treeview.NewNode(ep.Key(), components.EntryLabel(ep), components.Entry{Kind: kind, Episode: ep})
}

// New wraps tree in a browse screen.
func New(tree *treeview.Tree[components.Entry], opts ...Option) *Model {
	m := &Model{
		width:      80,
		height:     24,
		splitRatio: 0.45,
		theme:      theme.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	// Emoji icons are drawn two cells wide regardless of locale.
	runewidth.DefaultCondition.EastAsianWidth = false
	runewidth.DefaultCondition.StrictEmojiNeutral = true

	keyMap := treeview.DefaultKeyMap()
	keyMap.SearchStart = []string{}
	keyMap.Reset = []string{}

	treeWidth := m.treeWidth()
	m.TuiTreeModel = treeview.NewTuiTreeModel(tree,
		treeview.WithTuiWidth[components.Entry](treeWidth),
		treeview.WithTuiHeight[components.Entry](m.height-4),
		treeview.WithTuiAllowResize[components.Entry](true),
		treeview.WithTuiDisableNavBar[components.Entry](true),
		treeview.WithTuiKeyMap[components.Entry](keyMap),
	)
	m.details = components.NewViewport(m.width-treeWidth-6, m.height-8, m.theme)
	return m
}

func (m *Model) treeWidth() int {
	return int(float64(m.width)*m.splitRatio) - 2
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Written and Failed count export outcomes for the session.
func (m *Model) Written() int { return m.written }
func (m *Model) Failed() int  { return m.failed }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		treeWidth := m.treeWidth()
		treeModel, cmd := m.TuiTreeModel.Update(tea.WindowSizeMsg{Width: treeWidth, Height: m.height - 4})
		m.TuiTreeModel = treeModel.(*treeview.TuiTreeModel[components.Entry])
		m.details.Width = m.width - treeWidth - 6
		m.details.Height = m.height - 8
		return m, cmd

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "esc", "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.detailsFocused = !m.detailsFocused
			return m, nil
		case "s":
			m.showScript = !m.showScript
			m.details.GotoTop()
			return m, nil
		case "enter":
			return m, m.startExport(m.focusedLeaves())
		case "a":
			return m, m.startExport(m.allLeaves())
		}
		if m.detailsFocused && components.ScrollKey(m.details, key) {
			return m, nil
		}

	case ExportDoneMsg:
		return m, m.finishExport(msg)

	case components.StatusExpiredMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}

	if m.detailsFocused {
		return m, nil
	}
	treeModel, cmd := m.TuiTreeModel.Update(msg)
	m.TuiTreeModel = treeModel.(*treeview.TuiTreeModel[components.Entry])
	return m, cmd
}

// focusedLeaves is the focused entry, or every entry of a focused series.
func (m *Model) focusedLeaves() []*treeview.Node[components.Entry] {
	node := m.TuiTreeModel.Tree.GetFocusedNode()
	if node == nil {
		return nil
	}
	if node.Data().Episode != nil {
		return []*treeview.Node[components.Entry]{node}
	}
	return lo.Filter(node.Children(), func(n *treeview.Node[components.Entry], _ int) bool {
		return n.Data().Episode != nil
	})
}

func (m *Model) allLeaves() []*treeview.Node[components.Entry] {
	var out []*treeview.Node[components.Entry]
	for info, err := range m.TuiTreeModel.Tree.All(context.Background()) {
		if err != nil {
			break
		}
		if info.Node.Data().Episode != nil {
			out = append(out, info.Node)
		}
	}
	return out
}

func (m *Model) startExport(nodes []*treeview.Node[components.Entry]) tea.Cmd {
	if m.exporter == nil {
		return m.setStatus("Export is disabled")
	}
	if m.exporting || len(nodes) == 0 {
		return nil
	}
	m.exporting = true
	exporter := m.exporter
	eps := lo.Map(nodes, func(n *treeview.Node[components.Entry], _ int) *quickfill.Episode { return n.Data().Episode })

	return func() tea.Msg {
		results := make([]exportResult, len(nodes))
		for i, ep := range eps {
			path, err := exporter.WriteEpisode(context.Background(), ep)
			results[i] = exportResult{node: nodes[i], path: path, err: err}
		}
		return ExportDoneMsg{results: results}
	}
}

func (m *Model) finishExport(msg ExportDoneMsg) tea.Cmd {
	m.exporting = false
	written, failed := 0, 0
	for _, r := range msg.results {
		entry := r.node.Data()
		if r.err != nil {
			entry.State, entry.Err = components.ExportFailed, r.err.Error()
			failed++
			continue
		}
		entry.State, entry.Path, entry.Err = components.ExportWritten, r.path, ""
		written++
	}
	m.written += written
	m.failed += failed

	text := fmt.Sprintf("Wrote %d %s", written, plural(written, "script"))
	if failed > 0 {
		text += fmt.Sprintf(", %d failed", failed)
	}
	return m.setStatus(text)
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusSeq++
	m.status = text
	return components.ExpireStatus(statusTTL, m.statusSeq)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func (m *Model) View() string {
	var b strings.Builder

	entries := len(m.allLeaves())
	title := fmt.Sprintf("quickfill · %d entries", entries)
	if entries == 1 {
		title = "quickfill · 1 entry"
	}
	b.WriteString(m.theme.HeaderStyle().Width(m.width).Render(title))
	b.WriteByte('\n')

	leftWidth := int(float64(m.width) * m.splitRatio)
	left := m.renderTree(leftWidth, m.height-3)
	right := m.renderDetails(m.width-leftWidth, m.height-3)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteByte('\n')

	if m.status != "" {
		b.WriteString(m.theme.StatusBarStyle().Width(m.width).Render(m.status))
		return b.String()
	}

	focus := "Tab: Details"
	if m.detailsFocused {
		focus = "Tab: Entries"
	}
	help := focus + " | s: Script/Details | Enter: Export | a: Export all | q: Quit"
	if m.exporting {
		help = "Writing scripts..."
	}
	b.WriteString(m.theme.HintStyle().Width(m.width).Align(lipgloss.Center).Render(help))
	return b.String()
}

func (m *Model) renderTree(width, height int) string {
	colors := m.theme.Colors()
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(colors.Primary).
		Width(max(width-4, 0)).
		Align(lipgloss.Center).
		Render("Entries")
	return components.SizedPanel(m.theme, width, height, colors.Primary).
		Render(title + "\n" + m.TuiTreeModel.View())
}

func (m *Model) renderDetails(width, height int) string {
	colors := m.theme.Colors()
	node := m.TuiTreeModel.Tree.GetFocusedNode()

	heading := "Details"
	switch {
	case node == nil:
		m.details.SetContent(m.theme.HintStyle().Render("Nothing parsed"))
	case m.showScript:
		heading = "Script"
		m.details.SetContent(m.scriptPreview(node))
	default:
		m.details.SetContent(m.formatDetails(node))
	}
	if m.details.TotalLineCount() > m.details.Height {
		heading += " [Tab to scroll]"
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(colors.Secondary).
		Width(max(width-4, 0)).
		Align(lipgloss.Center).
		Render(heading)
	return components.SizedPanel(m.theme, width, height, colors.Secondary).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.details.View()))
}

func (m *Model) scriptPreview(node *treeview.Node[components.Entry]) string {
	ep := node.Data().Episode
	if ep == nil {
		return m.theme.HintStyle().Render("Select an entry to preview its script")
	}
	out, err := script.Render(context.Background(), ep, m.scriptOpts)
	if err != nil {
		return lipgloss.NewStyle().Foreground(m.theme.Colors().Error).Render(err.Error())
	}
	return out
}

func (m *Model) formatDetails(node *treeview.Node[components.Entry]) string {
	entry := node.Data()
	label, value := m.theme.LabelStyle(), m.theme.ValueStyle()
	row := func(b *strings.Builder, k, v string) {
		b.WriteString(label.Render(k + ": "))
		b.WriteString(value.Render(v))
		b.WriteByte('\n')
	}

	var b strings.Builder
	if entry.Episode == nil {
		row(&b, "Series", node.Name())
		row(&b, "Episodes", fmt.Sprint(len(node.Children())))
		return b.String()
	}

	ep := entry.Episode
	if ep.IsMovie() {
		row(&b, "Movie", ep.SeriesName)
	} else {
		row(&b, "Series", ep.SeriesName)
		row(&b, "Episode", ep.Number)
		if ep.Season != "" {
			row(&b, "Season", ep.Season)
		}
	}
	if ep.Year != "" {
		row(&b, "Year", ep.Year)
	}
	switch entry.State {
	case components.ExportWritten:
		row(&b, "Script", entry.Path)
	case components.ExportFailed:
		row(&b, "Error", entry.Err)
	}

	b.WriteByte('\n')
	b.WriteString(label.Render(fmt.Sprintf("%s Embeds (%d)", m.theme.Icon("embed"), len(ep.Embeds))))
	b.WriteByte('\n')
	for _, e := range ep.Embeds {
		b.WriteString("  " + value.Render(e.Hostname) + "\n")
	}

	b.WriteByte('\n')
	b.WriteString(label.Render(fmt.Sprintf("%s Downloads (%d)", m.theme.Icon("download"), ep.LinkCount())))
	b.WriteByte('\n')
	for _, res := range ep.Resolutions() {
		b.WriteString("  " + m.theme.ResolutionBadge(res) + "\n")
		for _, link := range ep.Downloads[res] {
			room := m.details.Width - runewidth.StringWidth(link.Provider) - 6
			b.WriteString(fmt.Sprintf("    %s %s\n", value.Render(link.Provider), runewidth.Truncate(link.URL, max(room, 8), "…")))
		}
	}
	return b.String()
}
