package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tuanbt/buildmon/internal/logger"
	"github.com/tuanbt/buildmon/internal/report"
)

func newReportCommand(opts *sourceOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report [flags] [-- ninja-args...]",
		Short: "Monitor a build without the UI and print the final state",
		Long: `Consume build events until the stream ends, then print every edge with
its outcome. Failed edges are followed by their captured output.

Exit status is 1 when any edge failed or monitoring stopped on an error.

Example:
  buildmon report --log-file build.jsonl --format json
  buildmon report -C out/release -- -k 0`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid flag", err)
			}
			return runReport(cmd, opts, f, args)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(report.FormatText), "output format (text|json|yaml)")

	return cmd
}

// runReport drives ingestion and the session to completion, then writes the
// resulting snapshot to stdout. Logs go to stderr.
func runReport(cmd *cobra.Command, opts *sourceOptions, format report.Format, ninjaArgs []string) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.NewConsoleLogger(cfg, cmd.ErrOrStderr())

	g, ctx := errgroup.WithContext(cmd.Context())

	src, err := opts.openSource(ctx, cfg, ninjaArgs, log)
	if err != nil {
		return err
	}

	p := newPipeline(cfg, log)

	// Ingestion failures reach the session through the bridge.
	g.Go(func() error {
		err := p.ingestor.Run(ctx, src)
		p.bridge.Close(err)
		return nil
	})
	// A fatal session error cancels ctx, which stops the producer.
	g.Go(func() error {
		return p.session.Run(ctx, cfg.PollInterval())
	})

	runErr := g.Wait()
	closeSource(src)

	snap := report.Capture(p.session.Summary(), p.session.Err())
	if err := report.Write(cmd.OutOrStdout(), snap, format); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	switch {
	case p.session.Err() != nil:
		return WrapExitError(ExitFailure, "monitoring stopped", p.session.Err())
	case runErr != nil:
		return WrapExitError(ExitFailure, "monitoring interrupted", runErr)
	case snap.Counts.Failed > 0:
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("build failed: %d edge(s) failed", snap.Counts.Failed)}
	}
	return nil
}
