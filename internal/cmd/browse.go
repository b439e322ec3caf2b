package cmd

import (
	"fmt"

	"github.com/Digital-Shane/quickfill/internal/tui/browse"
	"github.com/Digital-Shane/quickfill/internal/tui/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [file]",
	Short: "Browse parsed entries and export scripts interactively",
	Long: `Parse a pasted listing and open it in a terminal browser: entries on the
left, their embeds and download links (or the rendered script, with 's') on
the right. Enter writes the script of the focused entry, 'a' writes all.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowseCommand,
}

func runBrowseCommand(cmd *cobra.Command, args []string) error {
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

	opts, persist := e.scriptOptions(false)
	defer persist()

	w := e.newWriter(opts, "", source)

	th := theme.Default()
	ui := browse.New(browse.NewTree(model, th),
		browse.WithTheme(th),
		browse.WithExporter(w),
		browse.WithScriptOptions(opts),
	)
	if _, err := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	if ui.Written() > 0 || ui.Failed() > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d written, %d failed\n", ui.Written(), ui.Failed())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
