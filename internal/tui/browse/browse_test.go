package browse

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/Digital-Shane/quickfill/internal/tui/components"
	"github.com/Digital-Shane/quickfill/internal/tui/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/google/go-cmp/cmp"
)

type fakeExporter struct {
	mu     sync.Mutex
	fail   map[string]bool
	called []string
}

func (f *fakeExporter) WriteEpisode(_ context.Context, ep *quickfill.Episode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = append(f.called, ep.Key())
	if f.fail[ep.Key()] {
		return "", errors.New("disk full")
	}
	return "/out/" + ep.Number + ".js", nil
}

func seriesModel() *quickfill.Model {
	return quickfill.Parse(strings.Join([]string{
		"[X] My Show (2024) E02",
		`<iframe src="https://x.example/2"></iframe>`,
		"[X] My Show (2024) E01",
		`<iframe src="https://x.example/1"></iframe>`,
	}, "\n"), quickfill.DefaultOptions())
}

func newTestModel(t *testing.T, model *quickfill.Model, focusID string, opts ...Option) *Model {
	t.Helper()
	tree := NewTree(model, theme.Default())
	if _, err := tree.SetFocusedID(context.Background(), focusID); err != nil {
		t.Fatalf("SetFocusedID(%q) error = %v", focusID, err)
	}
	return New(tree, opts...)
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

// runExport presses k and feeds the resulting export message back.
func runExport(t *testing.T, m *Model, k tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(k)
	if cmd == nil {
		t.Fatalf("Update(%q) returned no command", k.String())
	}
	msg, ok := cmd().(ExportDoneMsg)
	if !ok {
		t.Fatalf("Update(%q) command did not produce ExportDoneMsg", k.String())
	}
	m.Update(msg)
}

func TestNewTree(t *testing.T) {
	t.Run("SeriesGroupsSortedEpisodes", func(t *testing.T) {
		tree := NewTree(seriesModel(), theme.Default())

		var names []string
		for info, err := range tree.All(context.Background()) {
			if err != nil {
				t.Fatalf("All() error = %v", err)
			}
			names = append(names, info.Node.Name())
		}
		want := []string{"My Show", "E01", "E02"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Errorf("tree node names mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("MoviesAreFlat", func(t *testing.T) {
		input := "[T] My Movie (2023) 1080p\n<iframe src=\"https://x.example/m\"></iframe>"
		tree := NewTree(quickfill.Parse(input, quickfill.DefaultOptions()), theme.Default())

		var kinds []components.EntryKind
		for info, err := range tree.All(context.Background()) {
			if err != nil {
				t.Fatalf("All() error = %v", err)
			}
			kinds = append(kinds, info.Node.Data().Kind)
		}
		if diff := cmp.Diff([]components.EntryKind{components.EntryMovie}, kinds); diff != "" {
			t.Errorf("movie tree kinds mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestExport(t *testing.T) {
	model := seriesModel()
	first := model.Sorted()[0]

	t.Run("EnterOnEntryWritesIt", func(t *testing.T) {
		exp := &fakeExporter{}
		m := newTestModel(t, model, first.Key(), WithExporter(exp))

		runExport(t, m, key(tea.KeyEnter))

		if diff := cmp.Diff([]string{first.Key()}, exp.called); diff != "" {
			t.Errorf("exported keys mismatch (-want +got):\n%s", diff)
		}
		entry := m.TuiTreeModel.Tree.GetFocusedNode().Data()
		if entry.State != components.ExportWritten || entry.Path != "/out/01.js" {
			t.Errorf("focused entry = %+v, want written to /out/01.js", *entry)
		}
		if m.Written() != 1 || m.Failed() != 0 {
			t.Errorf("Written()/Failed() = %d/%d, want 1/0", m.Written(), m.Failed())
		}
		if m.status != "Wrote 1 script" {
			t.Errorf("status = %q, want %q", m.status, "Wrote 1 script")
		}
	})

	t.Run("EnterOnSeriesWritesEveryEpisode", func(t *testing.T) {
		exp := &fakeExporter{}
		m := newTestModel(t, model, "series:My Show", WithExporter(exp))

		runExport(t, m, key(tea.KeyEnter))

		if len(exp.called) != 2 {
			t.Errorf("exported %d entries, want 2", len(exp.called))
		}
		if m.status != "Wrote 2 scripts" {
			t.Errorf("status = %q, want %q", m.status, "Wrote 2 scripts")
		}
	})

	t.Run("FailuresAreMarked", func(t *testing.T) {
		exp := &fakeExporter{fail: map[string]bool{first.Key(): true}}
		m := newTestModel(t, model, first.Key(), WithExporter(exp))

		runExport(t, m, runeKey('a'))

		if m.Written() != 1 || m.Failed() != 1 {
			t.Errorf("Written()/Failed() = %d/%d, want 1/1", m.Written(), m.Failed())
		}
		entry := m.TuiTreeModel.Tree.GetFocusedNode().Data()
		if entry.State != components.ExportFailed || entry.Err != "disk full" {
			t.Errorf("focused entry = %+v, want failed with disk full", *entry)
		}
		if !strings.Contains(m.View(), "1 failed") {
			t.Error("View() does not report the failure")
		}
	})

	t.Run("NoExporterIsReadOnly", func(t *testing.T) {
		m := newTestModel(t, model, first.Key())

		m.Update(key(tea.KeyEnter))

		if m.status != "Export is disabled" {
			t.Errorf("status = %q, want %q", m.status, "Export is disabled")
		}
		if m.exporting {
			t.Error("exporting = true without an exporter")
		}
	})
}

func TestStatusExpiry(t *testing.T) {
	m := newTestModel(t, seriesModel(), "series:My Show")
	m.setStatus("old")
	m.setStatus("new")

	m.Update(components.StatusExpiredMsg{Seq: m.statusSeq - 1})
	if m.status != "new" {
		t.Fatalf("stale expiry cleared status, got %q", m.status)
	}
	m.Update(components.StatusExpiredMsg{Seq: m.statusSeq})
	if m.status != "" {
		t.Errorf("status = %q after expiry, want empty", m.status)
	}
}

func TestDetailsPanel(t *testing.T) {
	model := seriesModel()
	first := model.Sorted()[0]
	m := newTestModel(t, model, first.Key())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	if view := m.View(); !strings.Contains(view, "Embeds (1)") {
		t.Errorf("details view lacks the embed count:\n%s", view)
	}

	m.Update(runeKey('s'))
	if !m.showScript {
		t.Fatal("showScript = false after 's'")
	}
	if view := m.View(); !strings.Contains(view, "EPISODE_DATA") {
		t.Errorf("script view does not show the rendered script:\n%s", view)
	}
}

func TestFocusAndScroll(t *testing.T) {
	model := seriesModel()
	first, second := model.Sorted()[0], model.Sorted()[1]
	m := newTestModel(t, model, first.Key())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 12})

	m.Update(key(tea.KeyTab))
	if !m.detailsFocused {
		t.Fatal("detailsFocused = false after Tab")
	}
	m.Update(key(tea.KeyDown))
	if got := m.TuiTreeModel.Tree.GetFocusedNode().ID(); got != first.Key() {
		t.Errorf("tree focus moved to %s while details focused", got)
	}

	m.Update(key(tea.KeyTab))
	m.Update(key(tea.KeyDown))
	if got := m.TuiTreeModel.Tree.GetFocusedNode().ID(); got != second.Key() {
		t.Errorf("tree focus after Down = %s, want %s", got, second.Key())
	}
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t, seriesModel(), "series:My Show")

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if diff := cmp.Diff(100-43-6, m.details.Width); diff != "" {
		t.Errorf("details width mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(32, m.details.Height); diff != "" {
		t.Errorf("details height mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramExportAndQuit(t *testing.T) {
	exp := &fakeExporter{}
	m := newTestModel(t, seriesModel(), "series:My Show", WithExporter(exp))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 20))

	tm.Send(key(tea.KeyEnter))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Wrote 2 scripts"))
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(25*time.Millisecond))

	tm.Send(runeKey('q'))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := tm.FinalModel(t).(*Model)
	if !ok {
		t.Fatalf("FinalModel() type = %T, want *Model", tm.FinalModel(t))
	}
	if final.Written() != 2 {
		t.Errorf("Written() = %d, want 2", final.Written())
	}
}
