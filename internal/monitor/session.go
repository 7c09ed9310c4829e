// Package monitor owns the build summary on the consumer side and applies
// messages delivered through the bridge.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/tuanbt/buildmon/internal/bridge"
	"github.com/tuanbt/buildmon/internal/buildlog"
)

// DefaultPollInterval bounds how long a consumer waits between polls.
const DefaultPollInterval = 100 * time.Millisecond

// Session is the consumer side of a monitoring run. It is not safe for
// concurrent use: create it, poll it and read it from one goroutine.
type Session struct {
	summary *buildlog.Summary
	bridge  *bridge.Bridge
	logger  *slog.Logger

	cursor int
	ended  bool
	err    error
}

// NewSession creates a session consuming from b.
func NewSession(b *bridge.Bridge, logger *slog.Logger) *Session {
	return &Session{
		summary: buildlog.NewSummary(),
		bridge:  b,
		logger:  logger,
	}
}

// Poll applies every message currently pending on the bridge, in order,
// without blocking. It returns how many messages were applied.
//
// A reducer or ingestion failure is latched: it is returned from this and
// every later call, and nothing more is applied. A clean end of stream is not
// an error; see Ended.
func (s *Session) Poll() (int, error) {
	if s.err != nil {
		return 0, s.err
	}

	msgs := s.bridge.Drain()
	for i, msg := range msgs {
		if err := s.summary.Apply(msg); err != nil {
			s.fail(err)
			return i, err
		}
	}

	if done, err := s.bridge.Closed(); done && !s.ended {
		if err != nil {
			s.fail(err)
			return len(msgs), err
		}
		s.ended = true
		s.logger.Info("build log supply ended",
			"entries", s.summary.Len(),
			"total_hint", s.summary.Total(),
			"phase", string(s.summary.Phase()),
		)
	}

	return len(msgs), nil
}

func (s *Session) fail(err error) {
	s.err = err
	s.ended = true
	s.logger.Error("monitoring session failed", "error", err, "entries", s.summary.Len())
}

// Run polls until the supply has ended and been applied, a fatal error
// occurs, or ctx is done. Between polls it waits at most interval.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Poll(); err != nil {
			return err
		}
		if s.ended {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.bridge.Wait():
		case <-ticker.C:
		}
	}
}

// Err returns the fatal error that stopped the session, if any.
func (s *Session) Err() error {
	return s.err
}

// Ended reports whether no further messages will be applied.
func (s *Session) Ended() bool {
	return s.ended
}

// Summary returns the build summary. Callers must treat it as read-only.
func (s *Session) Summary() *buildlog.Summary {
	return s.summary
}

// Select moves the selection by offset relative to the current index,
// clamped to the available entries. It returns false when there are none.
func (s *Session) Select(offset int) (int, bool) {
	n := s.summary.Len()
	if n == 0 {
		s.cursor = 0
		return 0, false
	}
	s.cursor = clamp(s.cursor+offset, 0, n-1)
	return s.cursor, true
}

// SelectedIndex returns the current selection, or false when empty.
func (s *Session) SelectedIndex() (int, bool) {
	n := s.summary.Len()
	if n == 0 {
		return 0, false
	}
	return clamp(s.cursor, 0, n-1), true
}

// Selected returns a copy of the selected edge.
func (s *Session) Selected() (buildlog.EdgeRecord, bool) {
	idx, ok := s.SelectedIndex()
	if !ok {
		return buildlog.EdgeRecord{}, false
	}
	return s.summary.Entry(idx)
}

// Home selects the first edge.
func (s *Session) Home() (int, bool) {
	s.cursor = 0
	return s.SelectedIndex()
}

// End selects the most recently started edge.
func (s *Session) End() (int, bool) {
	return s.Select(s.summary.Len())
}

// NextFailed selects the next failed edge after the current one, wrapping
// around. It returns false and leaves the selection alone when nothing has
// failed.
func (s *Session) NextFailed() (int, bool) {
	from, _ := s.SelectedIndex()
	idx, ok := s.summary.NextFailed(from)
	if !ok {
		return from, false
	}
	s.cursor = idx
	return idx, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
