package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	if m.Width == 0 || !m.Ready {
		return "Initialising..."
	}

	contentHeight := m.Height - 2
	leftWidth := m.Width * 70 / 100
	rightWidth := m.Width - leftWidth
	listHeight := contentHeight / 2
	outputHeight := contentHeight - listHeight

	listBorder, outputBorder := StylePaneBorderFocus, StylePaneBorder
	if m.FocusArea == FocusOutput {
		listBorder, outputBorder = StylePaneBorder, StylePaneBorderFocus
	}

	edges := listBorder.Width(leftWidth - 2).Height(listHeight - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			StyleGridLabel.Background(ColorBlue).Render(" EDGES "),
			m.EdgeList.View(),
		),
	)
	output := outputBorder.Width(leftWidth - 2).Height(outputHeight - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			StyleGridLabel.Render(" OUTPUT "),
			m.OutputView.View(),
		),
	)
	deps := StylePaneBorder.Width(rightWidth - 2).Height(contentHeight - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			StyleGridLabel.Render(" DEPENDENCIES "),
			m.DepsView.View(),
		),
	)

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, edges, output),
		deps,
	)

	help := StyleDimmed.Render(" [j/k] Nav [pgup/pgdn] Page [g/G] First/Last [f] Next failed [tab] Output [q] Quit")

	ui := lipgloss.JoinVertical(lipgloss.Left, main, m.statusBar(), help)

	if m.ShowModal && m.Err != nil {
		return m.overlay(ui, StyleModal.Render(m.modalText()))
	}
	return ui
}

// StatusLine is the plain status text: " <phase> - <entries> / <total>".
func (m Model) StatusLine() string {
	s := m.Session.Summary()
	return fmt.Sprintf(" %s - %d / %d", s.Phase(), s.Len(), s.Total())
}

func (m Model) statusBar() string {
	s := m.Session.Summary()
	counts := s.Counts()

	left := StyleStatusBar.Render(m.StatusLine() + " ")
	tally := lipgloss.JoinHorizontal(lipgloss.Top,
		StyleCountSucceeded.Render(fmt.Sprintf(" ok %d", counts.Succeeded)),
		StyleCountFailed.Render(fmt.Sprintf(" failed %d", counts.Failed)),
		StyleCountRunning.Render(fmt.Sprintf(" running %d ", counts.Running)),
	)
	bar := " " + m.Progress.ViewAs(s.Progress()) + " "

	source := m.Source
	if m.Err != nil {
		source = "stopped: " + m.Err.Error()
	}
	used := lipgloss.Width(left) + lipgloss.Width(tally) + lipgloss.Width(bar)
	right := StyleStatusBar.Width(max(m.Width-used, 0)).Render(truncate(source, m.Width-used))

	return lipgloss.JoinHorizontal(lipgloss.Top, left, tally, bar, right)
}

func (m Model) modalText() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		StyleStatusFailed.Bold(true).Render("Monitoring stopped"),
		"",
		truncate(m.Err.Error(), max(m.Width-12, 20)),
		"",
		StyleDimmed.Render("[enter] dismiss  [q] quit"),
	)
}

func (m Model) overlay(base, overlay string) string {
	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		overlay,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorBorder),
	)
}
