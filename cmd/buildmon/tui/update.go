package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tuanbt/buildmon/internal/buildlog"
	"github.com/tuanbt/buildmon/internal/report"
)

func (m Model) Init() tea.Cmd {
	return tick(m.PollInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ShowModal {
			switch {
			case key.Matches(msg, m.Keys.Dismiss), msg.String() == "esc":
				m.ShowModal = false
				return m, nil
			case key.Matches(msg, m.Keys.Quit):
				return m.quit()
			}
			return m, nil
		}

		if key.Matches(msg, m.Keys.Quit) {
			return m.quit()
		}

		if key.Matches(msg, m.Keys.Focus) {
			if m.FocusArea == FocusList {
				m.FocusArea = FocusOutput
			} else {
				m.FocusArea = FocusList
			}
			return m, nil
		}

		if m.FocusArea == FocusOutput {
			var cmd tea.Cmd
			m.OutputView, cmd = m.OutputView.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.Keys.Down):
			m.Session.Select(1)
		case key.Matches(msg, m.Keys.Up):
			m.Session.Select(-1)
		case key.Matches(msg, m.Keys.PageDown):
			m.Session.Select(m.pageSize())
		case key.Matches(msg, m.Keys.PageUp):
			m.Session.Select(-m.pageSize())
		case key.Matches(msg, m.Keys.Home):
			m.Session.Home()
		case key.Matches(msg, m.Keys.End):
			m.Session.End()
		case key.Matches(msg, m.Keys.NextFailed):
			m.Session.NextFailed()
		}
		m.syncSelection()

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		m.shown = shownEdge{}
		m.syncSelection()

	case tickMsg:
		applied, err := m.Session.Poll()
		if err != nil && m.Err == nil {
			m.Err = err
			m.ShowModal = true
		}
		if applied > 0 {
			m.refreshItems()
		}
		m.syncSelection()

		// A failed session will not change again; an ended one has nothing
		// left to drain.
		if m.Session.Ended() {
			m.Polling = false
		} else {
			cmds = append(cmds, tick(m.PollInterval))
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.Cancel != nil {
		m.Cancel()
	}
	m.Quitting = true
	return m, tea.Quit
}

func (m Model) pageSize() int {
	if h := m.EdgeList.Height(); h > 0 {
		return h
	}
	return 10
}

// refreshItems rebuilds the list items from the summary.
func (m *Model) refreshItems() {
	entries := m.Session.Summary().Entries()
	items := make([]list.Item, len(entries))
	for i, rec := range entries {
		items[i] = EdgeItem{Index: i, Record: rec}
	}
	m.EdgeList.SetItems(items)
}

// syncSelection mirrors the session cursor into the list and refreshes the
// detail panes when the selected edge changed.
func (m *Model) syncSelection() {
	idx, ok := m.Session.SelectedIndex()
	if !ok {
		m.OutputView.SetContent(StyleDimmed.Render("Waiting for the first edge..."))
		m.DepsView.SetContent("")
		m.shown = shownEdge{}
		return
	}
	m.EdgeList.Select(idx)

	rec, _ := m.Session.Selected()
	if m.shown.valid && m.shown.index == idx && m.shown.outcome == rec.Outcome {
		return
	}
	m.shown = shownEdge{valid: true, index: idx, outcome: rec.Outcome}

	m.OutputView.SetContent(wrap(outputText(rec), m.OutputView.Width))
	m.OutputView.GotoTop()
	m.DepsView.SetContent(wrap(dependencyText(rec), m.DepsView.Width))
	m.DepsView.GotoTop()
}

func outputText(rec buildlog.EdgeRecord) string {
	switch {
	case !rec.Finished():
		return StyleDimmed.Render("Running...")
	case rec.CapturedOutput() == "":
		return StyleDimmed.Render("(no output)")
	}
	return strings.TrimRight(rec.CapturedOutput(), "\n")
}

func dependencyText(rec buildlog.EdgeRecord) string {
	var b strings.Builder

	section := func(title string, lines []string) {
		b.WriteString(StyleSectionTitle.Render(title) + "\n")
		if len(lines) == 0 {
			b.WriteString(StyleDimmed.Render("  (none)") + "\n")
		}
		for _, l := range lines {
			b.WriteString("  " + l + "\n")
		}
		b.WriteString("\n")
	}

	section("Command", []string{rec.Command})
	section("Explicit inputs", rec.Inputs)
	section("Implicit inputs", rec.ImplicitInputs)
	section("Order-only inputs", rec.OrderOnlyInputs)
	section("Outputs", rec.Outputs)

	status := rec.Outcome.String()
	if rec.Finished() {
		status = fmt.Sprintf("%s in %s", status, report.FormatMillis(int64(rec.Duration())))
	}
	b.WriteString(StyleSectionTitle.Render("Status") + "\n  " + status)
	return b.String()
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	// status bar + help line
	contentHeight := m.Height - 2
	leftWidth := m.Width * 70 / 100
	rightWidth := m.Width - leftWidth

	listHeight := contentHeight / 2
	outputHeight := contentHeight - listHeight

	// Borders take two rows and columns, labels one row.
	m.EdgeList.SetSize(max(leftWidth-2, 0), max(listHeight-3, 0))
	m.OutputView.Width = max(leftWidth-2, 0)
	m.OutputView.Height = max(outputHeight-3, 0)
	m.DepsView.Width = max(rightWidth-2, 0)
	m.DepsView.Height = max(contentHeight-3, 0)
	m.Progress.Width = max(min(m.Width/5, 30), 10)
}
