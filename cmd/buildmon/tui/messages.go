// Package tui provides the terminal user interface for buildmon.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// tickMsg drives one poll of the monitoring session.
type tickMsg time.Time

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
