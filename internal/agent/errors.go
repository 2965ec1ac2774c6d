package agent

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID does not exist in the
// checkpoint store. Checkpointer implementations must return it (or
// wrap it) from Load.
var ErrRunNotFound = errors.New("run not found")

// ErrRunExists is returned by Start when a caller-supplied run ID
// already has a checkpoint. Ingestion uses this to skip threads it has
// already processed.
var ErrRunExists = errors.New("run already exists")

// InvalidClassificationError reports a classifier verdict outside the
// closed set {ignore, notify, respond}. It is fatal to the run and is
// never retried: a model that cannot produce a valid category must not
// silently default to one.
type InvalidClassificationError struct {
	Classification string
}

func (e *InvalidClassificationError) Error() string {
	return fmt.Sprintf("invalid classification: %q", e.Classification)
}

// ProtocolViolationError reports a review response that is not valid
// for the pending request: a response type the request's config does
// not allow, a malformed payload, or an edit of a tool that cannot be
// edited. The resume call fails and the run stays suspended with its
// original pending request intact.
type ProtocolViolationError struct {
	Response string
	Reason   string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("invalid response %q: %s", e.Response, e.Reason)
}

// InvalidResumeError reports a resume (or abort) directed at a run
// that cannot accept it: the run does not exist, or it is not awaiting
// input. Only the call fails; whatever state the run is in is
// preserved.
type InvalidResumeError struct {
	RunID  string
	Reason string
	Err    error
}

func (e *InvalidResumeError) Error() string {
	return fmt.Sprintf("run %s: %s", e.RunID, e.Reason)
}

func (e *InvalidResumeError) Unwrap() error {
	return e.Err
}
