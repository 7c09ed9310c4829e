package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tuanbt/buildmon/internal/bridge"
	"github.com/tuanbt/buildmon/internal/config"
	"github.com/tuanbt/buildmon/internal/ingest"
	"github.com/tuanbt/buildmon/internal/monitor"
)

// sourceOptions are the flags shared by every command that monitors a build.
type sourceOptions struct {
	ConfigPath  string
	LogFile     string
	Follow      bool
	NinjaBinary string
	BuildDir    string
	LogLevel    string
}

func (o *sourceOptions) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.ConfigPath, "config", "", "path to config file (json, yaml or toml)")
	flags.StringVarP(&o.LogFile, "log-file", "l", "", "replay a saved structlog file instead of running ninja")
	flags.BoolVar(&o.Follow, "follow", false, "keep reading --log-file as it grows")
	flags.StringVar(&o.NinjaBinary, "ninja-binary", "", "build engine executable (default from config)")
	flags.StringVarP(&o.BuildDir, "build-dir", "C", "", "directory to run the build in (default from config)")
	flags.StringVar(&o.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads the config file and environment, then applies flags that
// were set explicitly.
func (o *sourceOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error loading config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("ninja-binary") {
		cfg.NinjaBinary = o.NinjaBinary
	}
	if flags.Changed("build-dir") {
		cfg.BuildDir = o.BuildDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	if o.Follow && o.LogFile == "" {
		return nil, &ExitError{Code: ExitCommandError, Message: "--follow requires --log-file"}
	}

	// Resolve paths
	pwd, _ := os.Getwd()
	if !filepath.IsAbs(cfg.LogDirectory) {
		cfg.LogDirectory = filepath.Join(pwd, cfg.LogDirectory)
	}

	return cfg, nil
}

// openSource opens the configured event stream. Processes and followers are
// bound to ctx.
func (o *sourceOptions) openSource(ctx context.Context, cfg *config.Config, ninjaArgs []string, logger *slog.Logger) (*ingest.Source, error) {
	var (
		src *ingest.Source
		err error
	)
	switch {
	case o.LogFile != "" && o.Follow:
		src, err = ingest.OpenFollow(ctx, o.LogFile, cfg.FollowPollInterval(), logger)
	case o.LogFile != "":
		src, err = ingest.OpenFile(o.LogFile)
	default:
		src, err = ingest.SpawnNinja(ctx, ingest.NinjaOptions{
			Binary:   cfg.NinjaBinary,
			BuildDir: cfg.BuildDir,
			Args:     ninjaArgs,
		}, logger)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot open build events", err)
	}
	logger.Info("monitoring build", "source", src.Name)
	return src, nil
}

// pipeline is one producer/consumer pair wired through a bridge.
type pipeline struct {
	bridge   *bridge.Bridge
	session  *monitor.Session
	ingestor *ingest.Ingestor
}

func newPipeline(cfg *config.Config, logger *slog.Logger) *pipeline {
	b := bridge.New()
	return &pipeline{
		bridge:   b,
		session:  monitor.NewSession(b, logger),
		ingestor: ingest.New(b, logger, cfg.MaxLineBytes),
	}
}

// closeSource releases the stream and reaps the producer behind it. The
// build engine's own exit status is logged by the source; a failed build
// exits non-zero and is reported through the summary instead.
func closeSource(src *ingest.Source) {
	src.Close()
	_ = src.Wait()
}
