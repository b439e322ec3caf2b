package cmd

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/quickfill/internal/log"
	"github.com/spf13/cobra"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List recent operation sessions",
	Long: `List the sessions recorded in ~/.quickfill/logs, newest first. Each
session is one command run that wrote scripts, shortened links or looked
up metadata.`,
	Args: cobra.NoArgs,
	RunE: runLogsCommand,
}

var logsRevertCmd = &cobra.Command{
	Use:   "revert [session-id]",
	Short: "Remove the scripts written by a session",
	Long: `Remove the script files a session wrote, and the directories it created
when they are empty. Without a session id the newest session is reverted.
Shortening and lookup operations have nothing on disk and are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogsRevertCommand,
}

func runLogsCommand(cmd *cobra.Command, args []string) error {
	summaries, err := log.GetSessionSummaries(logsLimit)
	if err != nil {
		return fmt.Errorf("failed to read log sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No operation sessions found.")
		return nil
	}
	for _, s := range summaries {
		meta := s.Session.Metadata
		fmt.Fprintf(out, "%s %s  %-16s %s (%d ops, %d failed)\n",
			s.Icon, meta.SessionID, s.RelativeTime, strings.Join(meta.CommandArgs, " "), meta.TotalOps, meta.FailedOps)
	}
	return nil
}

func runLogsRevertCommand(cmd *cobra.Command, args []string) error {
	session, err := findSession(args)
	if err != nil {
		return err
	}

	successful, failed, errs := log.RevertSession(session)
	out := cmd.OutOrStdout()
	for _, err := range errs {
		fmt.Fprintf(out, "  %v\n", err)
	}
	fmt.Fprintf(out, "Reverted %s: %d operations reversed, %d failed\n", session.Metadata.SessionID, successful, failed)
	if failed > 0 {
		return fmt.Errorf("%d operations could not be reverted", failed)
	}
	return nil
}

func findSession(args []string) (*log.LogSession, error) {
	if len(args) == 0 {
		session, _, err := log.FindLatestSession()
		return session, err
	}

	summaries, err := log.GetSessionSummaries(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read log sessions: %w", err)
	}
	for _, s := range summaries {
		if s.Session.Metadata.SessionID == args[0] {
			return s.Session, nil
		}
	}
	return nil, fmt.Errorf("no session with id %s", args[0])
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 10, "Number of sessions to list (0 for all)")
	logsCmd.AddCommand(logsRevertCmd)
	rootCmd.AddCommand(logsCmd)
}
