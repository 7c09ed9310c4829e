package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/tuanbt/buildmon/internal/buildlog"
	"github.com/tuanbt/buildmon/internal/monitor"
	"github.com/tuanbt/buildmon/internal/report"
)

type FocusArea int

const (
	FocusList FocusArea = iota
	FocusOutput
)

// KeyMap holds the bindings the model reacts to.
type KeyMap struct {
	Quit       key.Binding
	Dismiss    key.Binding
	Down       key.Binding
	Up         key.Binding
	PageDown   key.Binding
	PageUp     key.Binding
	Home       key.Binding
	End        key.Binding
	NextFailed key.Binding
	Focus      key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Dismiss:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "dismiss")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "nav")),
		Up:         key.NewBinding(key.WithKeys("k", "up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgup/pgdn", "page")),
		PageUp:     key.NewBinding(key.WithKeys("pgup")),
		Home:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/G", "first/last")),
		End:        key.NewBinding(key.WithKeys("G", "end")),
		NextFailed: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next failed")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus output")),
	}
}

// Options configures a Model.
type Options struct {
	Session      *monitor.Session
	Source       string
	PollInterval time.Duration
	// Cancel stops ingestion when the user quits.
	Cancel context.CancelFunc
}

type Model struct {
	Session      *monitor.Session
	Source       string
	PollInterval time.Duration
	Cancel       context.CancelFunc

	// Models
	EdgeList   list.Model
	OutputView viewport.Model
	DepsView   viewport.Model
	Progress   progress.Model
	Keys       KeyMap

	// State
	Width     int
	Height    int
	Ready     bool
	FocusArea FocusArea
	Err       error
	ShowModal bool
	Quitting  bool
	Polling   bool

	// shown tracks what the detail panes were last rendered from.
	shown shownEdge
}

type shownEdge struct {
	valid   bool
	index   int
	outcome buildlog.Outcome
}

// EdgeItem implements list.Item.
type EdgeItem struct {
	Index  int
	Record buildlog.EdgeRecord
}

func (i EdgeItem) FilterValue() string { return i.Record.Command }

// Line is the one-line summary shown in the edge list.
func (i EdgeItem) Line() string {
	return report.EdgeLine(i.Record.Compiler, i.Record.Inputs, i.Record.Outputs)
}

// New builds a model over an already started session.
func New(opts Options) Model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = monitor.DefaultPollInterval
	}

	l := list.New(nil, EdgeDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()

	return Model{
		Session:      opts.Session,
		Source:       opts.Source,
		PollInterval: opts.PollInterval,
		Cancel:       opts.Cancel,
		EdgeList:     l,
		OutputView:   viewport.New(0, 0),
		DepsView:     viewport.New(0, 0),
		Progress:     progress.New(progress.WithSolidFill(string(ColorNeon)), progress.WithoutPercentage()),
		Keys:         DefaultKeyMap(),
		Polling:      true,
	}
}
