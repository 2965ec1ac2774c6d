// Package agent implements the email triage and response workflow.
//
// Every inbound email becomes a run: a durable state machine that
// classifies the email (ignore, notify or respond), drafts a response
// with an LLM-driven tool loop, and suspends whenever a human has to
// review something. Suspended runs are checkpointed through a
// Checkpointer and can be resumed in a different process, which makes
// the human-in-the-loop step survive restarts.
//
// The Orchestrator is the public surface:
//
//	orc := agent.NewOrchestrator(deps, agent.DefaultConfig())
//	run, err := orc.Start(ctx, rawEmail)
//	if run.Status == agent.StatusAwaitingInput {
//	    // show run.Pending to a human, then:
//	    run, err = orc.Resume(ctx, run.ID, agent.ReviewResponse{Type: agent.ResponseAccept})
//	}
//
// Tool executions that need sign-off (sending email, scheduling
// meetings, asking the user a question) go through a review request
// describing the proposed action and the allowed response types.
// Review outcomes feed the preference store so the assistant's triage
// and drafting behavior adapts over time.
package agent
