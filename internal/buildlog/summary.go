package buildlog

// Summary is the in-memory reconstruction of one monitored build.
//
// A Summary has a single owner: Apply must only be called from one goroutine,
// and reads must happen on that same goroutine. Entries are append-only.
type Summary struct {
	entries []EdgeRecord
	total   int
	phase   Phase
	counts  Counts

	// open maps each running edge id to its position in entries.
	open map[EdgeID]int

	err error
}

// NewSummary returns an empty summary for a build that has not started.
func NewSummary() *Summary {
	return &Summary{
		phase: PhaseNotStarted,
		open:  make(map[EdgeID]int),
	}
}

// Apply merges one message into the summary.
//
// A *ProtocolViolation is returned for a finish without a running start or a
// start for an id that is still running; the message is not applied. After
// any error the summary is frozen and every later call returns that error.
func (s *Summary) Apply(msg Message) error {
	if s.err != nil {
		return s.err
	}

	switch m := msg.(type) {
	case EdgeStarted:
		if _, running := s.open[m.ID]; running {
			s.err = &ProtocolViolation{Code: ViolationDuplicateStart, ID: m.ID}
			return s.err
		}
		s.open[m.ID] = len(s.entries)
		s.entries = append(s.entries, EdgeRecord{
			ID:              m.ID,
			Command:         m.Command,
			Compiler:        CompilerName(m.Command),
			Inputs:          ExplicitInputs(m.Inputs),
			ImplicitInputs:  ImplicitInputs(m.Inputs),
			OrderOnlyInputs: OrderOnlyInputs(m.Inputs),
			Outputs:         OutputPaths(m.Outputs),
			StartTime:       m.StartTime,
			Outcome:         OutcomeRunning,
		})
		s.counts.Running++

	case EdgeFinished:
		idx, running := s.open[m.ID]
		if !running {
			s.err = &ProtocolViolation{Code: ViolationFinishWithoutStart, ID: m.ID}
			return s.err
		}
		delete(s.open, m.ID)

		rec := &s.entries[idx]
		end, output := m.EndTime, m.Output
		rec.EndTime = &end
		rec.Output = &output
		s.counts.Running--
		if m.Success {
			rec.Outcome = OutcomeSucceeded
			s.counts.Succeeded++
		} else {
			rec.Outcome = OutcomeFailed
			s.counts.Failed++
		}

	case TotalEdgesHint:
		s.total = m.Total

	case StatusChanged:
		s.phase = m.Status
	}

	return nil
}

// Err returns the error that froze the summary, if any.
func (s *Summary) Err() error {
	return s.err
}

// Len returns the number of edges seen so far.
func (s *Summary) Len() int {
	return len(s.entries)
}

// Entry returns a copy of the i-th edge in start order.
func (s *Summary) Entry(i int) (EdgeRecord, bool) {
	if i < 0 || i >= len(s.entries) {
		return EdgeRecord{}, false
	}
	return s.entries[i].clone(), true
}

// Entries returns a copy of all edges in start order.
func (s *Summary) Entries() []EdgeRecord {
	out := make([]EdgeRecord, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}

// Total returns the producer's latest estimate of the total edge count. It is
// advisory and need not match Len.
func (s *Summary) Total() int {
	return s.total
}

// Phase returns the last reported build phase.
func (s *Summary) Phase() Phase {
	return s.phase
}

// Counts returns the per-outcome edge counters.
func (s *Summary) Counts() Counts {
	return s.counts
}

// Progress returns finished edges over the total hint, clamped to [0, 1].
func (s *Summary) Progress() float64 {
	if s.total <= 0 {
		return 0
	}
	p := float64(s.counts.Finished()) / float64(s.total)
	if p > 1 {
		return 1
	}
	return p
}

// NextFailed returns the index of the first failed edge after from, wrapping
// around to the start. It returns false when no edge has failed.
func (s *Summary) NextFailed(from int) (int, bool) {
	n := len(s.entries)
	if n == 0 || s.counts.Failed == 0 {
		return 0, false
	}
	for step := 1; step <= n; step++ {
		i := ((from+step)%n + n) % n
		if s.entries[i].Outcome == OutcomeFailed {
			return i, true
		}
	}
	return 0, false
}
