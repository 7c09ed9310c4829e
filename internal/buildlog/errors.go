package buildlog

import (
	"errors"
	"fmt"
)

// DecodeError reports a line that does not match any known message shape.
// It is fatal to ingestion.
type DecodeError struct {
	// Line is the 1-based line number in the stream, or 0 if unknown.
	Line int

	// Type is the discriminant, if one could be read.
	Type string

	// Reason is a short human-readable description.
	Reason string

	// Err is the underlying parse error, if any.
	Err error
}

func (e *DecodeError) Error() string {
	msg := "decode error"
	if e.Line > 0 {
		msg = fmt.Sprintf("decode error at line %d", e.Line)
	}
	if e.Type != "" {
		msg = fmt.Sprintf("%s (type=%s)", msg, e.Type)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ViolationCode categorizes protocol violations.
type ViolationCode string

const (
	// ViolationFinishWithoutStart is a finish with no running edge of that id.
	ViolationFinishWithoutStart ViolationCode = "FINISH_WITHOUT_START"

	// ViolationDuplicateStart re-opens an id that is still running.
	ViolationDuplicateStart ViolationCode = "DUPLICATE_START"
)

// ProtocolViolation reports a message that breaks the start/finish pairing
// contract. The offending message is never applied.
type ProtocolViolation struct {
	Code ViolationCode
	ID   EdgeID
}

func (e *ProtocolViolation) Error() string {
	switch e.Code {
	case ViolationFinishWithoutStart:
		return fmt.Sprintf("protocol violation: edge %d finished without a running start", e.ID)
	case ViolationDuplicateStart:
		return fmt.Sprintf("protocol violation: edge %d started while already running", e.ID)
	}
	return fmt.Sprintf("protocol violation: %s (edge=%d)", e.Code, e.ID)
}

// IsDecodeError returns true if err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsProtocolViolation returns true if err is or wraps a *ProtocolViolation.
func IsProtocolViolation(err error) bool {
	var pv *ProtocolViolation
	return errors.As(err, &pv)
}
