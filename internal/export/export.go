// Package export writes rendered quickfill scripts to disk.
package export

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Digital-Shane/quickfill/internal/config"
	"github.com/Digital-Shane/quickfill/internal/log"
	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/Digital-Shane/quickfill/internal/script"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Writer renders one script per entry into Dir.
type Writer struct {
	Fs       afero.Fs
	Dir      string
	Template string
	Script   script.Options
	// Source names the input in the operation log.
	Source string
	Logger logrus.FieldLogger
}

// NewWriter returns a writer on the OS filesystem using the configured
// output directory and filename template.
func NewWriter(cfg *config.Config, opts script.Options) *Writer {
	return &Writer{
		Fs:       afero.NewOsFs(),
		Dir:      cfg.OutputDir,
		Template: cfg.ScriptFilename,
		Script:   opts,
	}
}

func (w *Writer) logger() logrus.FieldLogger {
	if w.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return w.Logger
}

// Write renders every entry of model, sorted by series and number, and
// returns the written paths. It stops at the first failure.
func (w *Writer) Write(ctx context.Context, model *quickfill.Model) ([]string, error) {
	if err := w.ensureDir(); err != nil {
		return nil, err
	}

	used := make(map[string]bool)
	written := make([]string, 0, model.Len())
	for _, ep := range model.Sorted() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := w.write(ctx, ep, used)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteEpisode renders a single entry.
func (w *Writer) WriteEpisode(ctx context.Context, ep *quickfill.Episode) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	return w.write(ctx, ep, map[string]bool{})
}

func (w *Writer) ensureDir() error {
	if w.Dir == "" {
		return nil
	}
	if exists, err := afero.DirExists(w.Fs, w.Dir); err == nil && exists {
		return nil
	}
	err := w.Fs.MkdirAll(w.Dir, 0755)
	log.LogCreateDir(w.Dir, err == nil, err)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func (w *Writer) write(ctx context.Context, ep *quickfill.Episode, used map[string]bool) (string, error) {
	name, err := config.ResolveFilename(w.Template, config.VarsFor(ep, script.Title(ep)))
	if err != nil {
		return "", fmt.Errorf("failed to name script for %s: %w", ep.Key(), err)
	}
	path := w.unique(filepath.Join(w.Dir, name), used)

	content, err := script.Render(ctx, ep, w.Script)
	if err != nil {
		return "", fmt.Errorf("failed to render script for %s: %w", ep.Key(), err)
	}

	err = afero.WriteFile(w.Fs, path, []byte(content), 0644)
	log.LogWriteScript(w.Source, path, err == nil, err)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.logger().WithFields(logrus.Fields{"episode": ep.Key(), "path": path}).Debug("wrote script")
	return path, nil
}

// unique suffixes path with _2, _3... when an earlier entry of the same
// run already took it.
func (w *Writer) unique(path string, used map[string]bool) string {
	candidate := path
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 2; used[candidate]; n++ {
		candidate = stem + "_" + strconv.Itoa(n) + ext
	}
	used[candidate] = true
	return candidate
}

// Subdir returns a copy of w writing into Dir/name.
func (w *Writer) Subdir(name string) *Writer {
	clone := *w
	clone.Dir = filepath.Join(w.Dir, name)
	return &clone
}

