package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a pasted listing and print what was recovered",
	Long: `Parse a pasted listing (from a file, or stdin when no file or "-" is given)
and print one row per episode or movie with its embed and link counts.

With --json the full model is printed instead: every entry with its embeds
and its download links grouped by resolution.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParseCommand,
}

func runParseCommand(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.session(cmd, args)()

	text, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	model := e.parse(cmd.Context(), text)

	if !parseJSON {
		writeSummary(cmd.OutOrStdout(), model)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(model.Sorted()); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the parsed model as JSON")
	rootCmd.AddCommand(parseCmd)
}
