// Package report renders a build summary for headless use.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tuanbt/buildmon/internal/buildlog"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ValidFormats lists the accepted formats.
var ValidFormats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range ValidFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: must be one of %v", s, ValidFormats)
}

// Entry is the serialisable form of one edge.
type Entry struct {
	ID              int64    `json:"id" yaml:"id"`
	Compiler        string   `json:"compiler" yaml:"compiler"`
	Command         string   `json:"command" yaml:"command"`
	Inputs          []string `json:"inputs" yaml:"inputs"`
	ImplicitInputs  []string `json:"implicit_inputs,omitempty" yaml:"implicit_inputs,omitempty"`
	OrderOnlyInputs []string `json:"order_only_inputs,omitempty" yaml:"order_only_inputs,omitempty"`
	Outputs         []string `json:"outputs" yaml:"outputs"`
	StartMillis     int64    `json:"start_time_millis" yaml:"start_time_millis"`
	EndMillis       *int64   `json:"end_time_millis,omitempty" yaml:"end_time_millis,omitempty"`
	DurationMillis  *int64   `json:"duration_millis,omitempty" yaml:"duration_millis,omitempty"`
	Outcome         string   `json:"outcome" yaml:"outcome"`
	Output          *string  `json:"output,omitempty" yaml:"output,omitempty"`
}

// Snapshot is a point-in-time copy of a build summary.
type Snapshot struct {
	Phase     buildlog.Phase  `json:"phase" yaml:"phase"`
	TotalHint int             `json:"total_edges_hint" yaml:"total_edges_hint"`
	Counts    buildlog.Counts `json:"counts" yaml:"counts"`
	Entries   []Entry         `json:"entries" yaml:"entries"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Capture copies the current state of s. sessionErr, if set, is recorded as
// the reason the session stopped.
func Capture(s *buildlog.Summary, sessionErr error) Snapshot {
	snap := Snapshot{
		Phase:     s.Phase(),
		TotalHint: s.Total(),
		Counts:    s.Counts(),
		Entries:   make([]Entry, 0, s.Len()),
	}
	if sessionErr != nil {
		snap.Error = sessionErr.Error()
	}

	for _, rec := range s.Entries() {
		e := Entry{
			ID:              int64(rec.ID),
			Compiler:        rec.Compiler,
			Command:         rec.Command,
			Inputs:          rec.Inputs,
			ImplicitInputs:  rec.ImplicitInputs,
			OrderOnlyInputs: rec.OrderOnlyInputs,
			Outputs:         rec.Outputs,
			StartMillis:     int64(rec.StartTime),
			Outcome:         rec.Outcome.String(),
			Output:          rec.Output,
		}
		if rec.EndTime != nil {
			end, dur := int64(*rec.EndTime), int64(rec.Duration())
			e.EndMillis, e.DurationMillis = &end, &dur
		}
		snap.Entries = append(snap.Entries, e)
	}
	return snap
}

// Failed reports whether the session errored or any edge failed.
func (s Snapshot) Failed() bool {
	return s.Error != "" || s.Counts.Failed > 0
}

// Write renders snap to w in the given format.
func Write(w io.Writer, snap Snapshot, format Format) error {
	switch format {
	case FormatText:
		return writeText(w, snap)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}

const outputIndent = "          "

func writeText(w io.Writer, snap Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s - %d / %d edges (%d succeeded, %d failed, %d running)\n",
		snap.Phase, len(snap.Entries), snap.TotalHint,
		snap.Counts.Succeeded, snap.Counts.Failed, snap.Counts.Running)

	for _, e := range snap.Entries {
		fmt.Fprintf(&b, "%-9s %s", outcomeTag(e.Outcome), EdgeLine(e.Compiler, e.Inputs, e.Outputs))
		if e.DurationMillis != nil {
			fmt.Fprintf(&b, " (%s)", FormatMillis(*e.DurationMillis))
		}
		b.WriteString("\n")

		if e.Outcome == buildlog.OutcomeFailed.String() && e.Output != nil {
			out := strings.TrimRight(*e.Output, "\n")
			if out != "" {
				for _, line := range strings.Split(out, "\n") {
					b.WriteString(outputIndent + line + "\n")
				}
			}
		}
	}

	if snap.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", snap.Error)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func outcomeTag(outcome string) string {
	switch outcome {
	case buildlog.OutcomeSucceeded.String():
		return "[ok]"
	case buildlog.OutcomeFailed.String():
		return "[FAILED]"
	}
	return "[" + outcome + "]"
}

// EdgeLine formats an edge as "compiler: inputs -> outputs" using file
// names only.
func EdgeLine(compiler string, inputs, outputs []string) string {
	return fmt.Sprintf("%s: %s -> %s", compiler, joinBaseNames(inputs), joinBaseNames(outputs))
}

func joinBaseNames(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		name := buildlog.BaseName(p)
		if name == "" {
			name = p
		}
		names[i] = name
	}
	return strings.Join(names, ", ")
}

// FormatMillis renders a millisecond count as a short duration.
func FormatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
