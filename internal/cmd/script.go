package cmd

import (
	"errors"
	"fmt"

	"github.com/Digital-Shane/quickfill/internal/script"
	"github.com/spf13/cobra"
)

var (
	scriptStdout  bool
	scriptOut     string
	scriptShorten bool
)

var errNothingParsed = errors.New("no episodes or movies found in input")

var scriptCmd = &cobra.Command{
	Use:   "script [file]",
	Short: "Render the autofill script for every parsed entry",
	Long: `Parse a pasted listing and render one browser-console script per episode
or movie. Scripts are written to the configured output directory, named by
the script_filename template, unless --stdout is given.

With --shorten, download links from the hosts listed in shorten_hosts are
replaced by ouo.io short links. A link that cannot be shortened is kept as is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScriptCommand,
}

func runScriptCommand(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.session(cmd, args)()

	text, source, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	model := e.parse(cmd.Context(), text)
	if model.Len() == 0 {
		return errNothingParsed
	}

	opts, persist := e.scriptOptions(scriptShorten)
	defer persist()

	out := cmd.OutOrStdout()
	if scriptStdout {
		for i, ep := range model.Sorted() {
			rendered, err := script.Render(cmd.Context(), ep, opts)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, rendered)
		}
		return nil
	}

	w := e.newWriter(opts, scriptOut, source)
	paths, err := w.Write(cmd.Context(), model)
	for _, p := range paths {
		fmt.Fprintf(out, "Wrote %s\n", p)
	}
	return err
}

func init() {
	scriptCmd.Flags().BoolVar(&scriptStdout, "stdout", false, "Print the scripts instead of writing files")
	scriptCmd.Flags().StringVarP(&scriptOut, "out", "o", "", "Output directory (defaults to output_dir from the config)")
	scriptCmd.Flags().BoolVar(&scriptShorten, "shorten", false, "Shorten download links of the configured hosts through ouo.io")
	rootCmd.AddCommand(scriptCmd)
}
