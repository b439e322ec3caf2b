package log

import (
	"fmt"
	"time"
)

type SessionSummary struct {
	Session      *LogSession
	FilePath     string
	RelativeTime string
	Icon         string
}

// GetSessionSummaries describes up to limit sessions, newest first.
func GetSessionSummaries(limit int) ([]SessionSummary, error) {
	files, err := logFiles()
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(files))
	for _, file := range files {
		if limit > 0 && len(summaries) == limit {
			break
		}
		session, err := ReadSession(file)
		if err != nil {
			continue
		}
		summaries = append(summaries, SessionSummary{
			Session:      session,
			FilePath:     file,
			RelativeTime: formatRelativeTime(session.Metadata.Timestamp),
			Icon:         commandIcon(session.Metadata.CommandArgs),
		})
	}

	return summaries, nil
}

// FindLatestSession returns the newest session and its file.
func FindLatestSession() (*LogSession, string, error) {
	summaries, err := GetSessionSummaries(1)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read sessions: %w", err)
	}
	if len(summaries) == 0 {
		return nil, "", fmt.Errorf("no sessions found")
	}
	return summaries[0].Session, summaries[0].FilePath, nil
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)
	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		mins := int(duration.Minutes())
		return fmt.Sprintf("%d minute%s ago", mins, plural(mins))
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func commandIcon(args []string) string {
	if len(args) == 0 {
		return "❓"
	}

	switch args[0] {
	case "script":
		return "📜"
	case "batch":
		return "📦"
	case "browse":
		return "🔍"
	default:
		return "📝"
	}
}
