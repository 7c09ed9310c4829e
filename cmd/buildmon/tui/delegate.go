package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tuanbt/buildmon/internal/buildlog"
)

// EdgeDelegate renders one edge per line.
type EdgeDelegate struct{}

func (d EdgeDelegate) Height() int                               { return 1 }
func (d EdgeDelegate) Spacing() int                              { return 0 }
func (d EdgeDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d EdgeDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(EdgeItem)
	if !ok {
		return
	}

	// Leave room for the selection marker and padding.
	text := truncate(it.Line(), m.Width()-4)

	style := StyleStatusSucceeded
	switch it.Record.Outcome {
	case buildlog.OutcomeFailed:
		style = StyleStatusFailed
	case buildlog.OutcomeRunning:
		style = StyleStatusRunning
	}

	if index == m.Index() {
		fmt.Fprint(w, StyleEdgeSelected.Render(style.Bold(true).Render(text)))
		return
	}
	fmt.Fprint(w, StyleEdgeNormal.Render(style.Render(text)))
}

func truncate(s string, width int) string {
	if width <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
