package buildlog

import (
	"encoding/json"
	"fmt"
	"strings"
)

var (
	messageKeys = []string{
		"type", "edge_id", "command", "start_time_millis", "end_time_millis",
		"inputs", "outputs", "success", "output", "total", "status",
	}
	bindingKeys = []string{"path", "kind"}
)

// wireBinding is the on-the-wire shape of an input or output binding.
type wireBinding struct {
	Path *string `json:"path,omitempty"`
	Kind *string `json:"kind,omitempty"`
}

// wireMessage is the union of all fields any message type may carry.
// Pointers distinguish a missing field from its zero value.
type wireMessage struct {
	Type      *string        `json:"type,omitempty"`
	EdgeID    *int64         `json:"edge_id,omitempty"`
	Command   *string        `json:"command,omitempty"`
	StartTime *int64         `json:"start_time_millis,omitempty"`
	EndTime   *int64         `json:"end_time_millis,omitempty"`
	Inputs    *[]wireBinding `json:"inputs,omitempty"`
	Outputs   *[]wireBinding `json:"outputs,omitempty"`
	Success   *bool          `json:"success,omitempty"`
	Output    *string        `json:"output,omitempty"`
	Total     *int           `json:"total,omitempty"`
	Status    *string        `json:"status,omitempty"`
}

// Decode parses one line of the event stream into a Message.
// Keys are matched exactly and unknown extra fields are ignored; anything
// else that does not match a known message shape returns a *DecodeError.
func Decode(line []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, &DecodeError{Reason: "invalid json", Err: err}
	}
	if err := checkKeys(line); err != nil {
		return nil, err
	}
	if w.Type == nil {
		return nil, &DecodeError{Reason: `missing field "type"`}
	}

	typ := *w.Type
	missing := func(field string) error {
		return &DecodeError{Type: typ, Reason: fmt.Sprintf("missing field %q", field)}
	}

	switch typ {
	case TypeEdgeStarted:
		switch {
		case w.EdgeID == nil:
			return nil, missing("edge_id")
		case w.Command == nil:
			return nil, missing("command")
		case w.StartTime == nil:
			return nil, missing("start_time_millis")
		case w.Inputs == nil:
			return nil, missing("inputs")
		case w.Outputs == nil:
			return nil, missing("outputs")
		}
		inputs, err := decodeInputs(typ, *w.Inputs)
		if err != nil {
			return nil, err
		}
		outputs, err := decodeOutputs(typ, *w.Outputs)
		if err != nil {
			return nil, err
		}
		return EdgeStarted{
			ID:        EdgeID(*w.EdgeID),
			Command:   *w.Command,
			StartTime: Millis(*w.StartTime),
			Inputs:    inputs,
			Outputs:   outputs,
		}, nil

	case TypeEdgeFinished:
		switch {
		case w.EdgeID == nil:
			return nil, missing("edge_id")
		case w.EndTime == nil:
			return nil, missing("end_time_millis")
		case w.Success == nil:
			return nil, missing("success")
		case w.Output == nil:
			return nil, missing("output")
		}
		return EdgeFinished{
			ID:      EdgeID(*w.EdgeID),
			EndTime: Millis(*w.EndTime),
			Success: *w.Success,
			Output:  *w.Output,
		}, nil

	case TypeTotalEdges:
		if w.Total == nil {
			return nil, missing("total")
		}
		if *w.Total < 0 {
			return nil, &DecodeError{Type: typ, Reason: fmt.Sprintf("negative total %d", *w.Total)}
		}
		return TotalEdgesHint{Total: *w.Total}, nil

	case TypeStatusChanged:
		if w.Status == nil {
			return nil, missing("status")
		}
		status := Phase(*w.Status)
		if !status.Valid() {
			return nil, &DecodeError{Type: typ, Reason: fmt.Sprintf("unknown status %q", *w.Status)}
		}
		return StatusChanged{Status: status}, nil
	}

	return nil, &DecodeError{Type: typ, Reason: "unknown message type"}
}

// checkKeys rejects keys that json.Unmarshal would have matched to a field
// only by folding case.
func checkKeys(line []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(line, &obj); err != nil {
		return &DecodeError{Reason: "invalid json", Err: err}
	}
	for k, v := range obj {
		if want, ok := miscased(k, messageKeys); ok {
			return &DecodeError{Reason: fmt.Sprintf("field %q must be spelled %q", k, want)}
		}
		if k != "inputs" && k != "outputs" {
			continue
		}
		var bindings []map[string]json.RawMessage
		if json.Unmarshal(v, &bindings) != nil {
			continue
		}
		for i, b := range bindings {
			for bk := range b {
				if want, ok := miscased(bk, bindingKeys); ok {
					return &DecodeError{Reason: fmt.Sprintf("%s[%d]: field %q must be spelled %q", k, i, bk, want)}
				}
			}
		}
	}
	return nil
}

func miscased(key string, known []string) (string, bool) {
	for _, name := range known {
		if key != name && strings.EqualFold(key, name) {
			return name, true
		}
	}
	return "", false
}

func decodeInputs(typ string, in []wireBinding) ([]InputBinding, error) {
	out := make([]InputBinding, 0, len(in))
	for i, b := range in {
		if b.Path == nil || b.Kind == nil {
			return nil, &DecodeError{Type: typ, Reason: fmt.Sprintf("inputs[%d]: path and kind are required", i)}
		}
		kind := InputKind(*b.Kind)
		if !kind.Valid() {
			return nil, &DecodeError{Type: typ, Reason: fmt.Sprintf("inputs[%d]: unknown kind %q", i, *b.Kind)}
		}
		out = append(out, InputBinding{Path: *b.Path, Kind: kind})
	}
	return out, nil
}

func decodeOutputs(typ string, in []wireBinding) ([]OutputBinding, error) {
	out := make([]OutputBinding, 0, len(in))
	for i, b := range in {
		if b.Path == nil || b.Kind == nil {
			return nil, &DecodeError{Type: typ, Reason: fmt.Sprintf("outputs[%d]: path and kind are required", i)}
		}
		kind := OutputKind(*b.Kind)
		if !kind.Valid() {
			return nil, &DecodeError{Type: typ, Reason: fmt.Sprintf("outputs[%d]: unknown kind %q", i, *b.Kind)}
		}
		out = append(out, OutputBinding{Path: *b.Path, Kind: kind})
	}
	return out, nil
}

// Encode serializes msg as a single line of the event stream, without the
// trailing newline.
func Encode(msg Message) ([]byte, error) {
	typ := msg.Type()
	w := wireMessage{Type: &typ}

	switch m := msg.(type) {
	case EdgeStarted:
		id, start, cmd := int64(m.ID), int64(m.StartTime), m.Command
		inputs := make([]wireBinding, len(m.Inputs))
		for i, b := range m.Inputs {
			path, kind := b.Path, string(b.Kind)
			inputs[i] = wireBinding{Path: &path, Kind: &kind}
		}
		outputs := make([]wireBinding, len(m.Outputs))
		for i, b := range m.Outputs {
			path, kind := b.Path, string(b.Kind)
			outputs[i] = wireBinding{Path: &path, Kind: &kind}
		}
		w.EdgeID, w.StartTime, w.Command = &id, &start, &cmd
		w.Inputs, w.Outputs = &inputs, &outputs
	case EdgeFinished:
		id, end, success, output := int64(m.ID), int64(m.EndTime), m.Success, m.Output
		w.EdgeID, w.EndTime, w.Success, w.Output = &id, &end, &success, &output
	case TotalEdgesHint:
		total := m.Total
		w.Total = &total
	case StatusChanged:
		status := string(m.Status)
		w.Status = &status
	default:
		return nil, fmt.Errorf("cannot encode message of type %T", msg)
	}

	return json.Marshal(w)
}
