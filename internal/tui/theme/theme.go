package theme

import (
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

// IconSet maps a semantic name ("series", "embed", ...) to the glyph drawn for it.
type IconSet map[string]string

func (s IconSet) clone() IconSet {
	if s == nil {
		return nil
	}
	return lo.Assign(IconSet{}, s)
}

// Colors holds the palette shared by every screen.
type Colors struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

type Borders struct {
	Panel lipgloss.Border
}

type Spacing struct {
	PanelPadding   int
	StatusHPadding int
}

// BadgeKind selects a badge variant.
type BadgeKind int

const (
	BadgeInfo BadgeKind = iota
	BadgeSuccess
	BadgeWarning
	BadgeError
	BadgeMuted
)

// Theme bundles palette, borders, spacing and icons.
type Theme struct {
	colors   Colors
	borders  Borders
	spacing  Spacing
	icons    IconSet
	fallback IconSet
}

type Option func(*Theme)

// WithIconSet replaces the icon set. A nil set falls back to the terminal default.
func WithIconSet(set IconSet) Option {
	return func(t *Theme) { t.icons = set.clone() }
}

func WithColors(colors Colors) Option {
	return func(t *Theme) { t.colors = colors }
}

func WithSpacing(spacing Spacing) Option {
	return func(t *Theme) { t.spacing = spacing }
}

func WithBorders(borders Borders) Option {
	return func(t *Theme) { t.borders = borders }
}

// New builds a Theme from the quickfill defaults with opts applied on top.
func New(opts ...Option) Theme {
	t := Theme{
		colors: Colors{
			Primary:    lipgloss.Color("#2b5f8a"),
			Secondary:  lipgloss.Color("#4f86b0"),
			Accent:     lipgloss.Color("#f2a541"),
			Background: lipgloss.Color("#fafafa"),
			Muted:      lipgloss.Color("#8e99ab"),
			Success:    lipgloss.Color("#4fb286"),
			Warning:    lipgloss.Color("#e0b33a"),
			Error:      lipgloss.Color("#e5484d"),
		},
		borders:  Borders{Panel: lipgloss.RoundedBorder()},
		spacing:  Spacing{PanelPadding: 1, StatusHPadding: 1},
		icons:    defaultIconSet(),
		fallback: asciiIcons.clone(),
	}
	for _, opt := range opts {
		opt(&t)
	}
	if t.icons == nil {
		t.icons = defaultIconSet()
	}
	return t
}

func Default() Theme {
	return New()
}

func (t Theme) Colors() Colors   { return t.colors }
func (t Theme) Borders() Borders { return t.borders }
func (t Theme) Spacing() Spacing { return t.spacing }

// Icon returns the glyph for name, the ASCII glyph when the active set
// lacks it, or "" when neither knows the name.
func (t Theme) Icon(name string) string {
	if icon, ok := t.icons[name]; ok {
		return icon
	}
	return t.fallback[name]
}

// IconSet returns a copy of the active icons.
func (t Theme) IconSet() IconSet {
	return t.icons.clone()
}

func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Background(t.colors.Primary).
		Foreground(t.colors.Background).
		Align(lipgloss.Center)
}

func (t Theme) StatusBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.colors.Secondary).
		Foreground(t.colors.Background).
		Padding(0, t.spacing.StatusHPadding)
}

func (t Theme) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(t.borders.Panel).
		BorderForeground(t.colors.Secondary).
		Padding(t.spacing.PanelPadding)
}

// LabelStyle is used for the "Key:" half of detail rows.
func (t Theme) LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.colors.Accent)
}

func (t Theme) ValueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.colors.Primary)
}

func (t Theme) HintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Italic(true).Foreground(t.colors.Muted)
}

func (t Theme) BadgeStyle(kind BadgeKind) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(t.colors.Background)
	switch kind {
	case BadgeSuccess:
		return base.Background(t.colors.Success)
	case BadgeWarning:
		return base.Background(t.colors.Warning)
	case BadgeError:
		return base.Background(t.colors.Error)
	case BadgeMuted:
		return base.Background(t.colors.Muted)
	default:
		return base.Background(t.colors.Secondary)
	}
}

// ResolutionBadge renders a resolution label, highlighting HD and above.
func (t Theme) ResolutionBadge(res string) string {
	kind := BadgeMuted
	switch strings.ToLower(res) {
	case "720p":
		kind = BadgeInfo
	case "1080p", "1440p", "2160p":
		kind = BadgeSuccess
	}
	return t.BadgeStyle(kind).Render(res)
}

func defaultIconSet() IconSet {
	if isLimitedTerminal() {
		return asciiIcons.clone()
	}
	return emojiIcons.clone()
}

// isLimitedTerminal reports terminals that tend to mangle emoji: remote
// shells, dumb terminals and Windows consoles.
func isLimitedTerminal() bool {
	if os.Getenv("QUICKFILL_ASCII") != "" || os.Getenv("TERM") == "dumb" {
		return true
	}
	if os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "" {
		return true
	}
	return runtime.GOOS == "windows"
}

var emojiIcons = IconSet{
	"series":   "📺",
	"movie":    "🎬",
	"episode":  "🎞",
	"embed":    "▶️",
	"download": "⬇️",
	"script":   "📜",
	"shorten":  "🔗",
	"lookup":   "🔎",
	"folder":   "📁",
	"success":  "✅",
	"error":    "❌",
	"warning":  "⚠️",
	"unknown":  "❓",
	"calendar": "📅",
	"arrows":   "↑↓",
}

var asciiIcons = IconSet{
	"series":   "[TV]",
	"movie":    "[M]",
	"episode":  "[E]",
	"embed":    "[>]",
	"download": "[v]",
	"script":   "[S]",
	"shorten":  "[~]",
	"lookup":   "[?]",
	"folder":   "[D]",
	"success":  "[ok]",
	"error":    "[!]",
	"warning":  "[w]",
	"unknown":  "[?]",
	"calendar": "[C]",
	"arrows":   "^v",
}
