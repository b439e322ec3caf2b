// Package batch parses several pasted input files concurrently.
package batch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/mhmtszr/concurrent-swiss-map"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ParseFunc turns input text into a model. quickfill.Parse,
// quickfill.ParseSeries and quickfill.ParseMovies all fit.
type ParseFunc func(text string, opts quickfill.Options) *quickfill.Model

type Options struct {
	Parser  quickfill.Options
	Parse   ParseFunc
	Workers int
	Logger  logrus.FieldLogger

	// OnFile, when set, is called from the worker goroutines as each
	// file finishes. It must be safe for concurrent use.
	OnFile func(FileResult)
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path  string
	Stem  string
	Model *quickfill.Model
	Err   error
}

// Stem is the file name without directory and extension, used to name the
// per-file output directory.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run reads and parses every path on fs with a bounded worker pool.
// Results come back in input order; a file that cannot be read carries
// its error.
func Run(ctx context.Context, fs afero.Fs, paths []string, opts Options) []FileResult {
	if opts.Parse == nil {
		opts.Parse = quickfill.Parse
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	log := opts.Logger.WithField("component", "batch")

	results := csmap.Create[int, FileResult]()
	workCh := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < min(opts.Workers, len(paths)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				res := parseFile(ctx, fs, paths[idx], opts)
				if res.Err != nil {
					log.WithError(res.Err).WithField("file", res.Path).Warn("skipping input file")
				} else {
					log.WithFields(logrus.Fields{"file": res.Path, "entries": res.Model.Len()}).Debug("parsed input file")
				}
				results.Store(idx, res)
				if opts.OnFile != nil {
					opts.OnFile(res)
				}
			}
		}()
	}

feed:
	for idx := range paths {
		select {
		case workCh <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(workCh)
	wg.Wait()

	out := make([]FileResult, 0, len(paths))
	for idx, path := range paths {
		res, ok := results.Load(idx)
		if !ok {
			res = FileResult{Path: path, Stem: Stem(path), Err: ctx.Err()}
		}
		out = append(out, res)
	}
	return out
}

func parseFile(ctx context.Context, fs afero.Fs, path string, opts Options) FileResult {
	res := FileResult{Path: path, Stem: Stem(path)}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return res
	}

	parserOpts := opts.Parser
	parserOpts.Logger = opts.Logger.WithField("file", path)
	res.Model = opts.Parse(string(data), parserOpts)
	return res
}

// Expand resolves glob patterns and directories into a sorted list of
// .txt files. Plain file paths are kept as given.
func Expand(fs afero.Fs, args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		if info, err := fs.Stat(arg); err == nil && info.IsDir() {
			matches, err := afero.Glob(fs, filepath.Join(arg, "*.txt"))
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", arg, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(m)
			}
			continue
		}

		if strings.ContainsAny(arg, "*?[") {
			matches, err := afero.Glob(fs, arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(m)
			}
			continue
		}

		add(arg)
	}
	return paths, nil
}
