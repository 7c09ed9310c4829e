// Package buildlog provides the structured build event protocol and the
// reducer that reconstructs build progress from it.
package buildlog

import "slices"

// EdgeID identifies one build step. It is assigned by the producer and is
// only unique among edges that are running at the same time.
type EdgeID int64

// Millis is a timestamp in milliseconds since an arbitrary reference point.
type Millis int64

// InputKind tags how an edge depends on an input path.
type InputKind string

const (
	// InputExplicit is named directly on the command line.
	InputExplicit InputKind = "explicit"

	// InputImplicit is a discovered dependency (e.g. from a depfile).
	InputImplicit InputKind = "implicit"

	// InputOrderOnly is an ordering constraint, not a data dependency.
	InputOrderOnly InputKind = "order_only"
)

// Valid reports whether k is a known input kind.
func (k InputKind) Valid() bool {
	switch k {
	case InputExplicit, InputImplicit, InputOrderOnly:
		return true
	}
	return false
}

// OutputKind tags how an edge produces an output path.
type OutputKind string

const (
	OutputExplicit OutputKind = "explicit"
	OutputImplicit OutputKind = "implicit"
)

// Valid reports whether k is a known output kind.
func (k OutputKind) Valid() bool {
	return k == OutputExplicit || k == OutputImplicit
}

// InputBinding associates an edge with a path it reads.
type InputBinding struct {
	Path string    `json:"path"`
	Kind InputKind `json:"kind"`
}

// OutputBinding associates an edge with a path it produces.
type OutputBinding struct {
	Path string     `json:"path"`
	Kind OutputKind `json:"kind"`
}

// Phase is the overall status of a monitored build.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhaseFinished   Phase = "finished"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseNotStarted, PhaseRunning, PhaseFinished:
		return true
	}
	return false
}

// String returns the human readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "Not started"
	case PhaseRunning:
		return "Running"
	case PhaseFinished:
		return "Finished"
	}
	return string(p)
}

// Outcome is the state of a single edge.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// String returns the lower-case outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// IsTerminal returns true once the edge has finished.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed
}

// EdgeRecord is the reconstructed state of one build step.
//
// ID, Command, Compiler, the input and output lists and StartTime never change
// after the record is appended. EndTime, Output and a terminal Outcome are set
// together, exactly once.
type EdgeRecord struct {
	ID       EdgeID
	Command  string
	Compiler string

	// Inputs holds the explicit inputs only, in producer order.
	Inputs          []string
	ImplicitInputs  []string
	OrderOnlyInputs []string
	Outputs         []string

	StartTime Millis
	EndTime   *Millis
	Outcome   Outcome

	// Output is the combined stdout/stderr captured once the edge finished.
	Output *string
}

// Finished returns true if the edge has a terminal outcome.
func (r EdgeRecord) Finished() bool {
	return r.Outcome.IsTerminal()
}

// Duration returns the elapsed milliseconds for a finished edge. It is 0
// while the edge runs or when the producer's end time precedes its start.
func (r EdgeRecord) Duration() Millis {
	if r.EndTime == nil || *r.EndTime < r.StartTime {
		return 0
	}
	return *r.EndTime - r.StartTime
}

// CapturedOutput returns the captured output, or "" while the edge runs.
func (r EdgeRecord) CapturedOutput() string {
	if r.Output == nil {
		return ""
	}
	return *r.Output
}

// clone returns a copy that shares no mutable state with r.
func (r EdgeRecord) clone() EdgeRecord {
	c := r
	c.Inputs = slices.Clone(r.Inputs)
	c.ImplicitInputs = slices.Clone(r.ImplicitInputs)
	c.OrderOnlyInputs = slices.Clone(r.OrderOnlyInputs)
	c.Outputs = slices.Clone(r.Outputs)
	if r.EndTime != nil {
		end := *r.EndTime
		c.EndTime = &end
	}
	if r.Output != nil {
		out := *r.Output
		c.Output = &out
	}
	return c
}

// Counts aggregates edge outcomes.
type Counts struct {
	Running   int `json:"running" yaml:"running"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Finished returns the number of edges with a terminal outcome.
func (c Counts) Finished() int {
	return c.Succeeded + c.Failed
}
