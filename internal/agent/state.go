package agent

import (
	"time"

	"github.com/teemow/inboxagent/internal/email"
	"github.com/teemow/inboxagent/internal/llm"
)

// Status is the lifecycle state of a run.
type Status string

const (
	// StatusRunning is transient: the orchestrator is driving the run.
	StatusRunning Status = "running"
	// StatusAwaitingInput means the run is suspended on a pending
	// review request and can only make progress through Resume.
	StatusAwaitingInput Status = "awaiting_input"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusAborted       Status = "aborted"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAborted
}

// Node identifies where in the workflow a run currently is, or where
// it was suspended.
type Node string

const (
	NodeTriage          Node = "triage_router"
	NodeTriageInterrupt Node = "triage_interrupt"
	NodeAgent           Node = "response_agent"
	NodeAgentInterrupt  Node = "response_interrupt"
	NodeDone            Node = "done"
)

// Classification is the triage verdict for an email.
type Classification string

const (
	ClassifyIgnore  Classification = "ignore"
	ClassifyNotify  Classification = "notify"
	ClassifyRespond Classification = "respond"
)

// ParseClassification validates a raw model verdict against the closed
// category set. Anything else is fatal, never coerced to a default.
func ParseClassification(raw string) (Classification, error) {
	switch c := Classification(raw); c {
	case ClassifyIgnore, ClassifyNotify, ClassifyRespond:
		return c, nil
	default:
		return "", &InvalidClassificationError{Classification: raw}
	}
}

// Run is the durable state of one email workflow. It is the unit the
// Checkpointer persists, so every field must round-trip through JSON.
type Run struct {
	ID             string         `json:"run_id"`
	Status         Status         `json:"status"`
	Node           Node           `json:"node"`
	Email          email.Record   `json:"email"`
	Messages       []llm.Message  `json:"messages,omitempty"`
	Classification Classification `json:"classification,omitempty"`

	// Pending is the review request a suspended run is waiting on.
	// PendingCall keeps the tool call under review so accept and edit
	// can execute it after the fact.
	Pending     *ReviewRequest `json:"pending_request,omitempty"`
	PendingCall *llm.ToolCall  `json:"pending_call,omitempty"`

	// Iterations counts generator turns in the response agent loop.
	Iterations int    `json:"iterations"`
	Failure    string `json:"failure,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Run) clearPending() {
	r.Pending = nil
	r.PendingCall = nil
}

func (r *Run) suspend(node Node, req *ReviewRequest, call *llm.ToolCall) {
	r.Node = node
	r.Status = StatusAwaitingInput
	r.Pending = req
	r.PendingCall = call
}

func (r *Run) complete() {
	r.clearPending()
	r.Node = NodeDone
	r.Status = StatusCompleted
}
