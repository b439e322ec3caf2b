package progress

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Digital-Shane/quickfill/internal/batch"
	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/Digital-Shane/quickfill/internal/tui/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/google/go-cmp/cmp"
)

func parsedResult(path string) batch.FileResult {
	model := quickfill.Parse("[X] My Show E01\n<iframe src=\"https://x.example/1\"></iframe>", quickfill.DefaultOptions())
	return batch.FileResult{Path: path, Stem: batch.Stem(path), Model: model}
}

func finalModel(t *testing.T, tm *teatest.TestModel) *Model {
	t.Helper()
	final := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second))
	m, ok := final.(*Model)
	if !ok {
		t.Fatalf("FinalModel() type = %T, want *Model", final)
	}
	return m
}

func TestProgressCompletes(t *testing.T) {
	results := make(chan batch.FileResult, 3)
	results <- parsedResult("/in/a.txt")
	results <- batch.FileResult{Path: "/in/b.txt", Stem: "b", Err: errors.New("permission denied")}
	results <- parsedResult("/in/c.txt")
	close(results)

	m := New(3, 2, results, nil, theme.Default())
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 24))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := finalModel(t, tm)
	if !final.Done() || final.Canceled() {
		t.Errorf("Done()/Canceled() = %v/%v, want true/false", final.Done(), final.Canceled())
	}
	if diff := cmp.Diff(3, final.Processed()); diff != "" {
		t.Errorf("processed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, final.entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/in/b.txt: permission denied"}, final.errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}

	out, err := io.ReadAll(tm.FinalOutput(t, teatest.WithFinalTimeout(2*time.Second)))
	if err != nil {
		t.Fatalf("FinalOutput read error = %v", err)
	}
	if !strings.Contains(string(out), "Parsing inputs") {
		t.Errorf("output lacks the header:\n%s", out)
	}
}

func TestProgressCancel(t *testing.T) {
	results := make(chan batch.FileResult)
	canceled := false
	m := New(2, 1, results, func() { canceled = true }, theme.Default())

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if !m.Canceled() || !canceled {
		t.Errorf("Canceled() = %v, cancel called = %v, want both true", m.Canceled(), canceled)
	}
	if m.Done() {
		t.Error("Done() = true after cancel")
	}
}

func TestProgressView(t *testing.T) {
	t.Run("NoFiles", func(t *testing.T) {
		m := New(0, 1, nil, nil, theme.Default())
		if cmd := m.Init(); cmd == nil {
			t.Fatal("Init() with no files returned nil, want quit")
		}
		if got := m.View(); got != "No input files to parse.\n" {
			t.Errorf("View() = %q", got)
		}
	})

	t.Run("ErrorsAreCapped", func(t *testing.T) {
		m := New(20, 1, nil, nil, theme.Default())
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
		for i := 0; i < 5; i++ {
			m.handleFile(fileDoneMsg{result: batch.FileResult{Path: "/in/x.txt", Err: errors.New("boom")}})
		}

		view := m.View()
		for _, want := range []string{"Files: 5/20", "Progress: 25%", "Errors: 5", "... and 3 more"} {
			if !strings.Contains(view, want) {
				t.Errorf("View() lacks %q:\n%s", want, view)
			}
		}
	})
}
