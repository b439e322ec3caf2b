package components

import (
	"fmt"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/Digital-Shane/quickfill/internal/tui/theme"

	"github.com/Digital-Shane/treeview"
	"github.com/charmbracelet/lipgloss"
)

// EntryKind tells group rows apart from the entries under them.
type EntryKind int

const (
	EntrySeries EntryKind = iota
	EntryEpisode
	EntryMovie
)

// ExportState tracks what happened to an entry's script in this session.
type ExportState int

const (
	ExportPending ExportState = iota
	ExportWritten
	ExportFailed
)

// Entry is the payload of one browse tree node. Series rows carry a nil
// Episode.
type Entry struct {
	Kind    EntryKind
	Episode *quickfill.Episode
	State   ExportState
	Path    string
	Err     string
}

func entryRule(cond func(*Entry) bool) func(*treeview.Node[Entry]) bool {
	return func(n *treeview.Node[Entry]) bool {
		if e := n.Data(); e != nil {
			return cond(e)
		}
		return false
	}
}

func stateIs(s ExportState) func(*treeview.Node[Entry]) bool {
	return entryRule(func(e *Entry) bool { return e.State == s })
}

func kindIs(k EntryKind) func(*treeview.Node[Entry]) bool {
	return entryRule(func(e *Entry) bool { return e.Kind == k })
}

// NewEntryProvider builds the icon, style and label rules for the browse
// tree. Export state wins over kind for both icons and styles.
func NewEntryProvider(th theme.Theme) *treeview.DefaultNodeProvider[Entry] {
	colors := th.Colors()

	return treeview.NewDefaultNodeProvider(
		treeview.WithIconRule(stateIs(ExportWritten), th.Icon("success")),
		treeview.WithIconRule(stateIs(ExportFailed), th.Icon("error")),
		treeview.WithIconRule(kindIs(EntrySeries), th.Icon("series")),
		treeview.WithIconRule(kindIs(EntryMovie), th.Icon("movie")),
		treeview.WithIconRule(kindIs(EntryEpisode), th.Icon("episode")),
		treeview.WithDefaultIcon[Entry](th.Icon("unknown")),

		treeview.WithStyleRule(
			stateIs(ExportWritten),
			lipgloss.NewStyle().Foreground(colors.Success),
			lipgloss.NewStyle().Foreground(colors.Success).Background(colors.Background),
		),
		treeview.WithStyleRule(
			stateIs(ExportFailed),
			lipgloss.NewStyle().Foreground(colors.Error),
			lipgloss.NewStyle().Foreground(colors.Error).Background(colors.Background),
		),
		treeview.WithStyleRule(
			kindIs(EntrySeries),
			lipgloss.NewStyle().Foreground(colors.Primary).Bold(true),
			lipgloss.NewStyle().Foreground(colors.Background).Bold(true).Background(colors.Secondary).PaddingRight(1),
		),
		treeview.WithStyleRule(
			func(*treeview.Node[Entry]) bool { return true },
			lipgloss.NewStyle().Foreground(colors.Primary),
			lipgloss.NewStyle().Foreground(colors.Background).Background(colors.Primary),
		),

		treeview.WithFormatter(EntryFormatter),
	)
}

// EntryFormatter labels a node:
//
//   - series rows show the name and episode count,
//   - entries show their number (or title for movies) with link counts,
//   - written entries show the script path, failed ones the error.
func EntryFormatter(node *treeview.Node[Entry]) (string, bool) {
	e := node.Data()
	if e == nil || e.Episode == nil {
		if e != nil && e.Kind == EntrySeries {
			return fmt.Sprintf("%s (%d)", node.Name(), len(node.Children())), true
		}
		return node.Name(), true
	}

	switch e.State {
	case ExportWritten:
		return fmt.Sprintf("%s → %s", node.Name(), e.Path), true
	case ExportFailed:
		return fmt.Sprintf("%s: %s", node.Name(), e.Err), true
	}

	ep := e.Episode
	return fmt.Sprintf("%s  %d embeds, %d links", node.Name(), len(ep.Embeds), ep.LinkCount()), true
}

// EntryLabel is the node name used for an entry.
func EntryLabel(ep *quickfill.Episode) string {
	if ep.IsMovie() {
		if ep.Year != "" {
			return fmt.Sprintf("%s (%s)", ep.SeriesName, ep.Year)
		}
		return ep.SeriesName
	}
	if ep.Season != "" {
		return fmt.Sprintf("S%s E%s", ep.Season, ep.Number)
	}
	return "E" + ep.Number
}
