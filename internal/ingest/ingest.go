// Package ingest turns a raw build event stream into decoded messages.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tuanbt/buildmon/internal/buildlog"
)

// DefaultMaxLineBytes bounds a single event line. Captured compiler output
// travels inside one line, so this is far above bufio's default.
const DefaultMaxLineBytes = 16 * 1024 * 1024

// ErrSinkClosed is returned when the sink stops accepting messages before
// the stream ended.
var ErrSinkClosed = errors.New("ingest: sink closed")

// Sink receives decoded messages in arrival order.
type Sink interface {
	Push(msg buildlog.Message) bool
	Close(err error)
}

// Ingestor reads one message per line from a source and pushes each one to
// a sink before reading the next line.
type Ingestor struct {
	sink         Sink
	logger       *slog.Logger
	maxLineBytes int
}

// New creates an Ingestor writing into sink. maxLineBytes <= 0 selects
// DefaultMaxLineBytes.
func New(sink Sink, logger *slog.Logger, maxLineBytes int) *Ingestor {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &Ingestor{
		sink:         sink,
		logger:       logger,
		maxLineBytes: maxLineBytes,
	}
}

// Run ingests r until end of stream, a decode failure or ctx cancellation.
//
// End of stream returns nil. A line that does not decode returns a
// *buildlog.DecodeError with its line number; messages pushed before it stay
// pushed. Blank lines are skipped.
func (i *Ingestor) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, i.maxLineBytes)), i.maxLineBytes)

	lineNo := 0
	pushed := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		msg, err := buildlog.Decode(line)
		if err != nil {
			var de *buildlog.DecodeError
			if errors.As(err, &de) {
				de.Line = lineNo
			}
			i.logger.Error("failed to decode build log line", "line", lineNo, "error", err)
			return err
		}

		if !i.sink.Push(msg) {
			return ErrSinkClosed
		}
		pushed++
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return &buildlog.DecodeError{
				Line:   lineNo + 1,
				Reason: fmt.Sprintf("line exceeds %d bytes", i.maxLineBytes),
				Err:    err,
			}
		}
		return fmt.Errorf("failed to read build log: %w", err)
	}

	i.logger.Info("build log stream ended", "lines", lineNo, "messages", pushed)
	return nil
}

// Start runs the ingestor on its own goroutine and closes the sink with the
// result once the stream ends. The returned channel receives that result.
func (i *Ingestor) Start(ctx context.Context, r io.Reader) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := i.Run(ctx, r)
		i.sink.Close(err)
		done <- err
		close(done)
	}()
	return done
}
