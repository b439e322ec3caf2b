package theme

import (
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
)

func clearTerminalEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"QUICKFILL_ASCII", "SSH_CLIENT", "SSH_TTY", "SSH_CONNECTION"} {
		t.Setenv(key, "")
	}
	t.Setenv("TERM", "xterm-256color")
}

func TestWithIconSetCopiesInput(t *testing.T) {
	icons := IconSet{"series": "S"}
	th := New(WithIconSet(icons))

	icons["series"] = "mutated"
	if got := th.Icon("series"); got != "S" {
		t.Errorf("Icon(series) after caller mutation = %q, want %q", got, "S")
	}

	exposed := th.IconSet()
	exposed["series"] = "changed"
	if got := th.Icon("series"); got != "S" {
		t.Errorf("Icon(series) after IconSet() mutation = %q, want %q", got, "S")
	}
}

func TestIconFallsBackToASCII(t *testing.T) {
	th := New(WithIconSet(IconSet{"series": "S"}))

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "Active", key: "series", want: "S"},
		{name: "Fallback", key: "script", want: asciiIcons["script"]},
		{name: "Missing", key: "no-such-icon", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := th.Icon(tc.key); got != tc.want {
				t.Errorf("Icon(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestNewAppliesOptions(t *testing.T) {
	colors := Colors{
		Primary:    lipgloss.Color("#111111"),
		Secondary:  lipgloss.Color("#222222"),
		Accent:     lipgloss.Color("#333333"),
		Background: lipgloss.Color("#444444"),
		Muted:      lipgloss.Color("#555555"),
		Success:    lipgloss.Color("#666666"),
		Warning:    lipgloss.Color("#777777"),
		Error:      lipgloss.Color("#888888"),
	}
	spacing := Spacing{PanelPadding: 3, StatusHPadding: 2}
	borders := Borders{Panel: lipgloss.ThickBorder()}

	th := New(WithColors(colors), WithSpacing(spacing), WithBorders(borders))

	if diff := cmp.Diff(colors, th.Colors()); diff != "" {
		t.Errorf("Colors() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(spacing, th.Spacing()); diff != "" {
		t.Errorf("Spacing() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(borders, th.Borders()); diff != "" {
		t.Errorf("Borders() mismatch (-want +got):\n%s", diff)
	}
}

func TestNilIconSetRestoresDefault(t *testing.T) {
	clearTerminalEnv(t)
	th := New(WithIconSet(nil))
	if got, want := th.Icon("movie"), defaultIconSet()["movie"]; got != want {
		t.Errorf("Icon(movie) = %q, want %q", got, want)
	}
}

func TestDefaultIconSet(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want IconSet
	}{
		{name: "SSH", key: "SSH_CLIENT", val: "10.0.0.1 22 22", want: asciiIcons},
		{name: "DumbTerminal", key: "TERM", val: "dumb", want: asciiIcons},
		{name: "Forced", key: "QUICKFILL_ASCII", val: "1", want: asciiIcons},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearTerminalEnv(t)
			t.Setenv(tc.key, tc.val)
			if diff := cmp.Diff(tc.want, defaultIconSet()); diff != "" {
				t.Errorf("defaultIconSet() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("Emoji", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("Windows always uses ASCII icons")
		}
		clearTerminalEnv(t)
		if diff := cmp.Diff(emojiIcons, defaultIconSet()); diff != "" {
			t.Errorf("defaultIconSet() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestIconSetsCoverSameNames(t *testing.T) {
	for name := range emojiIcons {
		if _, ok := asciiIcons[name]; !ok {
			t.Errorf("asciiIcons lacks %q", name)
		}
	}
	for name := range asciiIcons {
		if _, ok := emojiIcons[name]; !ok {
			t.Errorf("emojiIcons lacks %q", name)
		}
	}
}

func TestResolutionBadge(t *testing.T) {
	th := Default()
	for _, res := range []string{"360p", "720p", "1080p"} {
		if got := th.ResolutionBadge(res); !strings.Contains(got, res) {
			t.Errorf("ResolutionBadge(%q) = %q, want it to contain the label", res, got)
		}
	}
}
