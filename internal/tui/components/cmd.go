package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusExpiredMsg tells a screen that the status line with sequence Seq
// has been shown long enough.
type StatusExpiredMsg struct{ Seq int }

// ExpireStatus emits a StatusExpiredMsg for seq after d. Screens ignore
// the message when a newer status replaced seq in the meantime.
func ExpireStatus(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return StatusExpiredMsg{Seq: seq} })
}
