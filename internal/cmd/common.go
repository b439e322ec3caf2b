package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/quickfill/internal/config"
	"github.com/Digital-Shane/quickfill/internal/export"
	"github.com/Digital-Shane/quickfill/internal/log"
	"github.com/Digital-Shane/quickfill/internal/metadata"
	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/Digital-Shane/quickfill/internal/script"
	"github.com/Digital-Shane/quickfill/internal/shortener"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs is where inputs are read and scripts written. Tests swap in a
// memory filesystem.
var appFs afero.Fs = afero.NewOsFs()

// env is what every command needs once the config is loaded.
type env struct {
	cfg  *config.Config
	diag *logrus.Logger
}

// loadEnv loads the config, builds the diagnostic logger and prepares the
// operation log.
func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	diag, err := log.NewDiagnostics(level, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	log.Initialize(cfg.EnableLogging, cfg.LogRetentionDays)
	return &env{cfg: cfg, diag: diag}, nil
}

// session opens an operation log session and returns its closer.
func (e *env) session(cmd *cobra.Command, args []string) func() {
	if err := log.StartSession(cmd.Name(), args); err != nil {
		e.diag.WithError(err).Warn("operation log disabled for this run")
	}
	return func() {
		if err := log.EndSession(); err != nil {
			e.diag.WithError(err).Warn("failed to write operation log")
		}
	}
}

func (e *env) parserOptions() quickfill.Options {
	opts := e.cfg.ParserOptions()
	opts.Logger = e.diag
	return opts
}

// readInput returns the text of the named file, or of stdin when no file
// or "-" is given, along with a name for it.
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := afero.ReadFile(appFs, args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}

// parseFunc picks the pipeline the --movie flag asks for.
func parseFunc() func(string, quickfill.Options) *quickfill.Model {
	if forceMovie {
		return quickfill.ParseMovies
	}
	return quickfill.Parse
}

// parse runs the parser over text, then the series override and the
// optional lookup.
func (e *env) parse(ctx context.Context, text string) *quickfill.Model {
	model := parseFunc()(text, e.parserOptions())
	e.finish(ctx, model)
	return model
}

func (e *env) finish(ctx context.Context, model *quickfill.Model) {
	model.OverrideSeries(seriesOverride)

	engine := e.engine()
	if engine == nil {
		return
	}
	report := engine.Enrich(ctx, model)
	e.diag.WithFields(logrus.Fields{
		"queries":  report.Queries,
		"resolved": report.Resolved,
		"renamed":  report.Renamed,
		"filled":   report.Filled,
		"failed":   len(report.Failures),
	}).Info("metadata lookup finished")
}

// engine returns the metadata engine when lookups are enabled and at
// least one key is configured.
func (e *env) engine() *metadata.Engine {
	if !lookup && !e.cfg.EnableMetadataLookup {
		return nil
	}

	var lookups []metadata.Lookup
	if e.cfg.TMDBAPIKey != "" {
		lookups = append(lookups, metadata.NewTMDB(e.cfg.TMDBAPIKey, "en-US"))
	}
	if e.cfg.OMDBAPIKey != "" {
		lookups = append(lookups, metadata.NewOMDB(e.cfg.OMDBAPIKey, nil))
	}
	if len(lookups) == 0 {
		e.diag.Warn("metadata lookup enabled but no TMDB or OMDb key is configured")
		return nil
	}

	engine := metadata.NewEngine(lookups, e.cfg.MetadataWorkerCount, e.diag)
	engine.OnLookup = func(q metadata.Query, m *metadata.Match, err error) {
		title := ""
		if m != nil {
			title = m.Title
		}
		log.LogLookup(q.Name, title, err)
	}
	return engine
}

// scriptOptions returns the emitter options. With shorten set and a key
// configured it attaches a shortener backed by the on-disk memo; the
// returned func persists the memo and must run before exit.
func (e *env) scriptOptions(shorten bool) (script.Options, func()) {
	opts := e.cfg.ScriptOptions()
	if !shorten {
		return opts, func() {}
	}

	sopts := e.cfg.ShortenerOptions()
	sopts.Logger = e.diag
	sopts.OnResult = func(original, short string, err error) {
		log.LogShorten(original, short, err)
	}
	client := shortener.New(sopts)
	if !client.Enabled() {
		e.diag.Warn("shortening requested but no ouo.io API key is configured")
		return opts, func() {}
	}
	if len(opts.ShortenHosts) == 0 {
		e.diag.Warn("shortening requested but shorten_hosts is empty")
	}

	path, err := config.ShortenerCachePath()
	if err != nil {
		e.diag.WithError(err).Warn("short link cache disabled")
		opts.Shortener = client
		return opts, func() {}
	}
	if err := client.LoadCache(path); err != nil {
		e.diag.WithError(err).Warn("ignoring unreadable short link cache")
	}

	opts.Shortener = client
	return opts, func() {
		dir, err := config.Dir()
		if err == nil {
			err = appFs.MkdirAll(dir, 0o755)
		}
		if err == nil {
			err = client.SaveCache(path)
		}
		if err != nil {
			e.diag.WithError(err).Warn("failed to persist short link cache")
		}
	}
}

// newWriter returns an export writer on appFs. The output directory is
// made absolute so logged paths stay revertible from any directory.
func (e *env) newWriter(opts script.Options, dir, source string) *export.Writer {
	w := export.NewWriter(e.cfg, opts)
	w.Fs = appFs
	w.Source = source
	w.Logger = e.diag
	if dir != "" {
		w.Dir = dir
	}
	if abs, err := filepath.Abs(w.Dir); err == nil {
		w.Dir = abs
	}
	return w
}

// writeSummary prints one row per entry in sorted order.
func writeSummary(w io.Writer, model *quickfill.Model) {
	entries := model.Sorted()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No episodes found.")
		return
	}

	header := []string{"Entry", "Year", "Embeds", "Links", "Resolutions"}
	rows := [][]string{header}
	for _, ep := range entries {
		name := ep.SeriesName
		if !ep.IsMovie() {
			name = fmt.Sprintf("%s E%s", ep.SeriesName, ep.Number)
			if ep.Season != "" {
				name = fmt.Sprintf("%s S%sE%s", ep.SeriesName, ep.Season, ep.Number)
			}
		}
		rows = append(rows, []string{
			name,
			ep.Year,
			fmt.Sprint(len(ep.Embeds)),
			fmt.Sprint(ep.LinkCount()),
			strings.Join(ep.Resolutions(), ","),
		})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}

	kind := "episode"
	if model.IsMovie() {
		kind = "movie"
	}
	if len(entries) != 1 {
		kind += "s"
	}
	fmt.Fprintf(w, "\n%d %s\n", len(entries), kind)
}
