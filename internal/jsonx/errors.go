package jsonx

import "fmt"

// ParseError reports that structured data could not be recovered from
// collaborator text after the full repair/extraction ladder. It carries the
// raw text and the collaborator's stop reason so the failure can be
// diagnosed; callers must treat it as a hard stage failure and never
// substitute partial data.
type ParseError struct {
	Stage      string // pipeline stage that failed (e.g., "research")
	StopReason string // collaborator stop reason, if known
	Raw        string // raw collaborator text
	Err        error  // underlying parse error, if any
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: unable to recover JSON (stop reason %q, %d bytes)",
		e.Stage, e.StopReason, len(e.Raw))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
