package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

const twoEpisodes = "[X] My Show (2024) E02\n" +
	`<iframe src="https://x.example/2"></iframe>` + "\n" +
	"[X] My Show (2024) E01\n" +
	`<iframe src="https://x.example/1"></iframe>` + "\n"

func resetFlags() {
	logLevel, forceMovie, seriesOverride, lookup = "", false, "", false
	parseJSON = false
	scriptStdout, scriptOut, scriptShorten = false, "", false
	batchWorkers, batchOut, batchShorten, batchTUI = 4, "", false, false
	configForce = false
	logsLimit = 10
}

// isolate points HOME at a temp dir, clears key overrides and swaps appFs.
func isolate(t *testing.T, fs afero.Fs) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"QUICKFILL_OUO_API_KEY", "OUO_API_KEY", "TMDB_API_KEY", "OMDB_API_KEY"} {
		t.Setenv(key, "")
	}
	original := appFs
	appFs = fs
	t.Cleanup(func() {
		appFs = original
		resetFlags()
	})
	resetFlags()
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	resetFlags()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	t.Run("SummaryFromStdin", func(t *testing.T) {
		isolate(t, afero.NewMemMapFs())

		out, err := run(t, twoEpisodes, "parse")
		if err != nil {
			t.Fatalf("parse error = %v", err)
		}
		for _, want := range []string{"My Show E01", "My Show E02", "2 episodes"} {
			if !strings.Contains(out, want) {
				t.Errorf("parse output lacks %q:\n%s", want, out)
			}
		}
		if strings.Index(out, "E01") > strings.Index(out, "E02") {
			t.Errorf("parse output is not sorted by episode:\n%s", out)
		}
	})

	t.Run("JSONFromFile", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		isolate(t, fs)
		if err := afero.WriteFile(fs, "/in/paste.txt", []byte(twoEpisodes), 0o644); err != nil {
			t.Fatal(err)
		}

		out, err := run(t, "", "parse", "--json", "/in/paste.txt")
		if err != nil {
			t.Fatalf("parse --json error = %v", err)
		}
		var got []quickfill.Episode
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		numbers := []string{}
		for _, ep := range got {
			numbers = append(numbers, ep.SeriesName+"#"+ep.Number)
		}
		if diff := cmp.Diff([]string{"My Show#01", "My Show#02"}, numbers); diff != "" {
			t.Errorf("parsed entries mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("SeriesOverride", func(t *testing.T) {
		isolate(t, afero.NewMemMapFs())

		out, err := run(t, twoEpisodes, "parse", "--series", "Other Name")
		if err != nil {
			t.Fatalf("parse error = %v", err)
		}
		if !strings.Contains(out, "Other Name E01") || strings.Contains(out, "My Show") {
			t.Errorf("series override not applied:\n%s", out)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		isolate(t, afero.NewMemMapFs())

		if _, err := run(t, "", "parse", "/nope.txt"); err == nil {
			t.Error("parse of a missing file succeeded, want error")
		}
	})
}

func TestScriptCommand(t *testing.T) {
	t.Run("Stdout", func(t *testing.T) {
		isolate(t, afero.NewMemMapFs())

		out, err := run(t, twoEpisodes, "script", "--stdout")
		if err != nil {
			t.Fatalf("script --stdout error = %v", err)
		}
		if got := strings.Count(out, "const EPISODE_DATA"); got != 2 {
			t.Errorf("script --stdout printed %d scripts, want 2", got)
		}
	})

	t.Run("WritesFiles", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		isolate(t, fs)

		out, err := run(t, twoEpisodes, "script", "--out", "/out")
		if err != nil {
			t.Fatalf("script error = %v", err)
		}
		for _, name := range []string{"quickfill_My Show_E01.js", "quickfill_My Show_E02.js"} {
			path := filepath.Join("/out", name)
			if ok, _ := afero.Exists(fs, path); !ok {
				t.Errorf("%s was not written", path)
			}
			if !strings.Contains(out, "Wrote "+path) {
				t.Errorf("output does not report %s:\n%s", path, out)
			}
		}
	})

	t.Run("NothingParsed", func(t *testing.T) {
		isolate(t, afero.NewMemMapFs())

		_, err := run(t, "just some words\n", "script", "--stdout")
		if !errors.Is(err, errNothingParsed) {
			t.Errorf("script error = %v, want %v", err, errNothingParsed)
		}
	})
}

func TestBatchCommand(t *testing.T) {
	fs := afero.NewMemMapFs()
	isolate(t, fs)
	for _, name := range []string{"/in/first.txt", "/in/second.txt"} {
		if err := afero.WriteFile(fs, name, []byte(twoEpisodes), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := run(t, "", "batch", "/in", "--out", "/out")
	if err != nil {
		t.Fatalf("batch error = %v\n%s", err, out)
	}
	for _, dir := range []string{"first", "second"} {
		path := filepath.Join("/out", dir, "quickfill_My Show_E01.js")
		if ok, _ := afero.Exists(fs, path); !ok {
			t.Errorf("%s was not written", path)
		}
	}
	if !strings.Contains(out, "/in/first.txt: 2 scripts") {
		t.Errorf("batch output lacks the per-file report:\n%s", out)
	}

	if _, err := run(t, "", "batch", "/missing/*.txt"); err == nil {
		t.Error("batch with no matching inputs succeeded, want error")
	}
}

func TestConfigCommands(t *testing.T) {
	isolate(t, afero.NewMemMapFs())

	if _, err := run(t, "", "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := run(t, "", "config", "init"); err == nil {
		t.Error("second config init succeeded without --force")
	}
	if _, err := run(t, "", "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	t.Setenv("OUO_API_KEY", "abcdef123456")
	out, err := run(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(out, "abcdef123456") || !strings.Contains(out, `"ouo_api_key": "****3456"`) {
		t.Errorf("config show does not mask the key:\n%s", out)
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "****",
		"abcdef123456": "****3456",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogsAndRevert(t *testing.T) {
	isolate(t, afero.NewOsFs())
	outDir := t.TempDir()

	if _, err := run(t, twoEpisodes, "script", "--out", outDir); err != nil {
		t.Fatalf("script error = %v", err)
	}
	written := filepath.Join(outDir, "quickfill_My Show_E01.js")
	if _, err := os.Stat(written); err != nil {
		t.Fatalf("script was not written: %v", err)
	}

	out, err := run(t, "", "logs")
	if err != nil {
		t.Fatalf("logs error = %v", err)
	}
	if !strings.Contains(out, "script") || !strings.Contains(out, "2 ops") {
		t.Errorf("logs output does not list the script session:\n%s", out)
	}

	out, err = run(t, "", "logs", "revert")
	if err != nil {
		t.Fatalf("logs revert error = %v\n%s", err, out)
	}
	if _, err := os.Stat(written); !os.IsNotExist(err) {
		t.Errorf("reverted script still exists (stat err = %v)", err)
	}
	if !strings.Contains(out, "2 operations reversed") {
		t.Errorf("revert output = %q, want a count of 2", out)
	}
}

func TestWriteSummary(t *testing.T) {
	movie := quickfill.Parse("[T] My Movie (2023) 1080p\n<iframe src=\"https://x.example/m\"></iframe>", quickfill.DefaultOptions())

	var b bytes.Buffer
	writeSummary(&b, movie)
	if !strings.Contains(b.String(), "My Movie") || !strings.Contains(b.String(), "1 movie\n") {
		t.Errorf("writeSummary() =\n%s", b.String())
	}

	b.Reset()
	writeSummary(&b, quickfill.Parse("", quickfill.DefaultOptions()))
	if b.String() != "No episodes found.\n" {
		t.Errorf("writeSummary(empty) = %q", b.String())
	}
}
