package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// SourceUnavailableError reports that a log file or build process could not
// be opened. It is raised before a monitoring session begins.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsSourceUnavailable returns true if err is or wraps a *SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var se *SourceUnavailableError
	return errors.As(err, &se)
}

// Source is an opened event stream.
type Source struct {
	io.ReadCloser

	// Name describes the stream for logs and the status bar.
	Name string

	wait func() error
}

// Wait blocks until the producer behind the source has exited. For files it
// returns immediately.
func (s *Source) Wait() error {
	if s.wait == nil {
		return nil
	}
	return s.wait()
}

// OpenFile opens a saved build log to be read once to completion.
func OpenFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceUnavailableError{Source: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &SourceUnavailableError{Source: path, Err: err}
	}
	if info.IsDir() {
		f.Close()
		return nil, &SourceUnavailableError{Source: path, Err: errors.New("is a directory")}
	}
	return &Source{ReadCloser: f, Name: path}, nil
}

// NinjaOptions describes how to launch the build engine.
type NinjaOptions struct {
	// Binary is the ninja executable; "ninja" when empty.
	Binary string

	// BuildDir is the working directory; the current directory when empty.
	BuildDir string

	// Args are passed through after the structured log flags.
	Args []string
}

// StructLogArgs returns the full argument list for the build engine.
func (o NinjaOptions) StructLogArgs() []string {
	return append([]string{"-d", "structlog"}, o.Args...)
}

// SpawnNinja starts the build engine with structured logging on stdout.
// stdin is /dev/null and stderr lines are forwarded to logger. Cancelling ctx
// kills the process.
func SpawnNinja(ctx context.Context, opts NinjaOptions, logger *slog.Logger) (*Source, error) {
	bin := opts.Binary
	if bin == "" {
		bin = "ninja"
	}

	if opts.BuildDir != "" {
		info, err := os.Stat(opts.BuildDir)
		if err != nil {
			return nil, &SourceUnavailableError{Source: opts.BuildDir, Err: err}
		}
		if !info.IsDir() {
			return nil, &SourceUnavailableError{Source: opts.BuildDir, Err: errors.New("not a directory")}
		}
	}

	cmd := exec.CommandContext(ctx, bin, opts.StructLogArgs()...)
	cmd.Dir = opts.BuildDir
	cmd.Env = os.Environ()
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SourceUnavailableError{Source: bin, Err: fmt.Errorf("failed to create stdout: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, &SourceUnavailableError{Source: bin, Err: fmt.Errorf("failed to create stderr: %w", err)}
	}

	logger.Info("starting build engine", "command", cmd.String(), "dir", opts.BuildDir)
	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, &SourceUnavailableError{Source: bin, Err: err}
	}
	logger.Info("build engine started", "pid", cmd.Process.Pid)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		forwardStderr(stderr, logger)
	}()

	var once sync.Once
	var waitErr error
	wait := func() error {
		once.Do(func() {
			wg.Wait()
			waitErr = cmd.Wait()
			if waitErr != nil {
				logger.Warn("build engine exited", "error", waitErr)
			} else {
				logger.Info("build engine exited normally")
			}
		})
		return waitErr
	}

	return &Source{ReadCloser: stdout, Name: cmd.String(), wait: wait}, nil
}

// forwardStderr logs stderr line by line. Once a line outgrows the scanner
// the rest is discarded so the build engine never blocks on a full pipe.
func forwardStderr(r io.Reader, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logger.Warn("build engine stderr", "line", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("build engine stderr no longer forwarded", "error", err)
		_, _ = io.Copy(io.Discard, r)
	}
}
