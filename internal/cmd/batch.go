package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Digital-Shane/quickfill/internal/batch"
	"github.com/Digital-Shane/quickfill/internal/tui/progress"
	"github.com/Digital-Shane/quickfill/internal/tui/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	batchWorkers int
	batchOut     string
	batchShorten bool
	batchTUI     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file|dir|glob>...",
	Short: "Parse several listings and write their scripts",
	Long: `Parse several pasted listings concurrently and write the scripts of each
into its own directory, <output_dir>/<input name without extension>.

Directories contribute every .txt file they contain. A file that cannot be
read is reported and the others are still written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatchCommand,
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.session(cmd, args)()

	paths, err := batch.Expand(appFs, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files match %v", args)
	}

	opts, persist := e.scriptOptions(batchShorten)
	defer persist()

	base := e.newWriter(opts, batchOut, "")

	bopts := batch.Options{
		Parser:  e.parserOptions(),
		Parse:   parseFunc(),
		Workers: batchWorkers,
		Logger:  e.diag,
	}
	var results []batch.FileResult
	if batchTUI {
		results, err = runBatchWithProgress(cmd.Context(), paths, bopts)
		if err != nil {
			return err
		}
	} else {
		results = batch.Run(cmd.Context(), appFs, paths, bopts)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", res.Path, res.Err)
			continue
		}
		e.finish(cmd.Context(), res.Model)
		if res.Model.Len() == 0 {
			failed++
			fmt.Fprintf(out, "%s: %v\n", res.Path, errNothingParsed)
			continue
		}

		w := base.Subdir(res.Stem)
		w.Source = res.Path
		written, err := w.Write(cmd.Context(), res.Model)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", res.Path, err)
			continue
		}
		fmt.Fprintf(out, "%s: %d scripts in %s\n", res.Path, len(written), w.Dir)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(results))
	}
	return nil
}

// runBatchWithProgress parses paths while the progress screen follows
// along. Quitting the screen cancels the files not yet started.
func runBatchWithProgress(ctx context.Context, paths []string, opts batch.Options) ([]batch.FileResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so workers never block on a screen that already quit.
	files := make(chan batch.FileResult, len(paths))
	opts.OnFile = func(res batch.FileResult) { files <- res }
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	done := make(chan []batch.FileResult, 1)
	go func() {
		res := batch.Run(ctx, appFs, paths, opts)
		close(files)
		done <- res
	}()

	model := progress.New(len(paths), min(opts.Workers, len(paths)), files, cancel, theme.Default())
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("progress screen failed: %w", err)
	}

	results := <-done
	if model.Canceled() {
		return nil, fmt.Errorf("batch canceled after %d of %d files", model.Processed(), len(paths))
	}
	return results, nil
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 4, "Number of files parsed concurrently")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Output directory (defaults to output_dir from the config)")
	batchCmd.Flags().BoolVar(&batchTUI, "tui", false, "Show a progress screen while the inputs are parsed")
	batchCmd.Flags().BoolVar(&batchShorten, "shorten", false, "Shorten download links of the configured hosts through ouo.io")
	rootCmd.AddCommand(batchCmd)
}
