package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tuanbt/buildmon/cmd/buildmon/tui"
	"github.com/tuanbt/buildmon/internal/logger"
	"github.com/tuanbt/buildmon/internal/report"
)

// NewRootCommand creates the buildmon command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(stdoutIsTerminal)
}

func newRootCommand(isTerminal func() bool) *cobra.Command {
	opts := &sourceOptions{}

	cmd := &cobra.Command{
		Use:   "buildmon [flags] [-- ninja-args...]",
		Short: "Live monitor for ninja builds",
		Long: `buildmon runs ninja with structured event logging (or replays a saved
event log) and shows every build edge as it starts and finishes.

When stdout is not a terminal the final state is printed as a text report.

Example:
  buildmon -C out/debug -- -j8 all
  buildmon --log-file build.jsonl
  buildmon --log-file build.jsonl --follow`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return runReport(cmd, opts, report.FormatText, args)
			}
			return runTUI(cmd, opts, args)
		},
	}

	opts.register(cmd)

	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runTUI(cmd *cobra.Command, opts *sourceOptions, ninjaArgs []string) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs only go to file.
	log, cleanup, err := logger.NewEmbeddedLogger(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "error initializing logger", err)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	src, err := opts.openSource(ctx, cfg, ninjaArgs, log)
	if err != nil {
		return err
	}

	p := newPipeline(cfg, log)
	done := p.ingestor.Start(ctx, src)

	model := tui.New(tui.Options{
		Session:      p.session,
		Source:       src.Name,
		PollInterval: cfg.PollInterval(),
		Cancel:       cancel,
	})
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	final, runErr := program.Run()

	cancel()
	<-done
	closeSource(src)

	if runErr != nil {
		return WrapExitError(ExitFailure, "terminal UI failed", runErr)
	}
	if m, ok := final.(tui.Model); ok && m.Err != nil {
		return WrapExitError(ExitFailure, "monitoring stopped", m.Err)
	}
	return nil
}
