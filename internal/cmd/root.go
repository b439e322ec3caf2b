package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quickfill",
	Short: "Turn pasted episode listings into publishing scripts",
	Long: `quickfill reads text pasted from a release post (streaming iframes, a
"Download Link" block, BBCode and bare URLs) and rebuilds one record per
episode or movie: its embeds and its download links grouped by resolution.

Each record can be printed, browsed interactively, or rendered into a
browser-console script that fills the publishing form of the site.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	logLevel       string
	forceMovie     bool
	seriesOverride string
	lookup         bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error); overrides the config")
	rootCmd.PersistentFlags().BoolVar(&forceMovie, "movie", false, "Parse the input as a movie listing instead of detecting it")
	rootCmd.PersistentFlags().StringVar(&seriesOverride, "series", "", "Use this series name for every parsed episode")
	rootCmd.PersistentFlags().BoolVar(&lookup, "lookup", false, "Correct names and fill years through TMDB/OMDb")
}
