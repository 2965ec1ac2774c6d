package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teemow/inboxagent/internal/email"
	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/memory"
)

// agentStep runs one iteration of the response loop: ask the
// generator for the next action, then execute it, gate it behind
// review, or finish the run when it calls done.
func (o *Orchestrator) agentStep(ctx context.Context, run *Run) error {
	if run.Iterations >= o.cfg.MaxIterations {
		return fmt.Errorf("response agent gave up after %d iterations without calling done", o.cfg.MaxIterations)
	}
	run.Iterations++

	prompt, err := o.agentPrompt(ctx)
	if err != nil {
		return err
	}

	msg, err := o.generator.Generate(ctx, prompt, run.Messages, ToolSchemas(o.cfg.HITL, o.cfg.CalendarTools))
	if err != nil {
		return fmt.Errorf("response generation: %w", err)
	}
	run.Messages = append(run.Messages, msg)

	if len(msg.ToolCalls) == 0 {
		// Shouldn't happen with required tool choice. The turn still
		// counts against the iteration bound so a chatty model cannot
		// loop forever.
		o.logger.Debug("assistant turn without tool call", logging.RunID(run.ID))
		return nil
	}

	call := msg.ToolCalls[0]
	o.logger.Debug("tool call proposed", logging.RunID(run.ID), logging.Tool(call.Name))

	switch {
	case call.Name == ToolDone:
		run.complete()
	case o.cfg.HITL && Gated(call.Name):
		req, err := o.toolReviewRequest(run, call)
		if err != nil {
			return err
		}
		pending := call
		run.suspend(NodeAgentInterrupt, req, &pending)
	default:
		observation := o.execute(ctx, run, call)
		run.Messages = append(run.Messages, llm.ToolMessage(call.ID, observation))
	}
	return nil
}

// agentPrompt assembles the response agent system prompt from the
// current preference profiles.
func (o *Orchestrator) agentPrompt(ctx context.Context) (string, error) {
	responsePrefs := memory.DefaultResponsePreferences
	calPrefs := memory.DefaultCalendarPreferences
	background := memory.DefaultBackground
	if o.cfg.Memory {
		var err error
		if responsePrefs, err = o.prefs.Get(ctx, memory.NamespaceResponse); err != nil {
			return "", fmt.Errorf("load response preferences: %w", err)
		}
		if calPrefs, err = o.prefs.Get(ctx, memory.NamespaceCalendar); err != nil {
			return "", fmt.Errorf("load calendar preferences: %w", err)
		}
		if background, err = o.prefs.Get(ctx, memory.NamespaceBackground); err != nil {
			return "", fmt.Errorf("load background: %w", err)
		}
	}
	return agentSystem(responsePrefs, calPrefs, background, o.cfg.HITL, o.cfg.CalendarTools, time.Now()), nil
}

// toolReviewRequest builds the review request for a gated tool call.
// Drafts can be accepted or edited; a question can only be answered
// or dismissed, there is nothing to accept.
func (o *Orchestrator) toolReviewRequest(run *Run, call llm.ToolCall) (*ReviewRequest, error) {
	var cfg ReviewConfig
	switch call.Name {
	case ToolWriteEmail, ToolScheduleMeeting:
		cfg = ReviewConfig{AllowIgnore: true, AllowRespond: true, AllowEdit: true, AllowAccept: true}
	case ToolQuestion:
		cfg = ReviewConfig{AllowIgnore: true, AllowRespond: true, AllowEdit: false, AllowAccept: false}
	default:
		return nil, fmt.Errorf("tool %q cannot be reviewed", call.Name)
	}
	args := argsMap(call.Arguments)
	return &ReviewRequest{
		ActionRequest: ActionRequest{Action: call.Name, Args: args},
		Config:        cfg,
		Description:   email.Markdown(run.Email) + email.FormatToolCall(call.Name, args),
	}, nil
}

// resumeTool applies the reviewer's decision to the gated tool call a
// run is suspended on.
func (o *Orchestrator) resumeTool(ctx context.Context, run *Run, resp ReviewResponse) error {
	if run.PendingCall == nil {
		return fmt.Errorf("run %s: suspended without a pending tool call", run.ID)
	}
	call := *run.PendingCall

	switch resp.Type {
	case ResponseAccept:
		run.clearPending()
		observation := o.execute(ctx, run, call)
		run.Messages = append(run.Messages, llm.ToolMessage(call.ID, observation))
		run.Node = NodeAgent
		run.Status = StatusRunning

	case ResponseEdit:
		edited, err := editedArgs(resp)
		if err != nil {
			return err
		}
		return o.applyEdit(ctx, run, call, edited)

	case ResponseIgnore:
		run.clearPending()
		run.Messages = append(run.Messages, llm.ToolMessage(call.ID, ignoreObservation(call.Name)))
		o.mergePreferences(ctx, run, memory.NamespaceTriage,
			append(slices.Clone(run.Messages), llm.UserMessage(ignoreFeedback(call.Name))))
		run.complete()

	case ResponseFeedback:
		feedback, err := feedbackText(resp)
		if err != nil {
			return err
		}
		run.clearPending()
		run.Messages = append(run.Messages, llm.ToolMessage(call.ID, feedbackObservation(call.Name, feedback)))
		if ns, instruction, ok := feedbackMergeTarget(call.Name); ok {
			o.mergePreferences(ctx, run, ns,
				append(slices.Clone(run.Messages), llm.UserMessage(instruction)))
		}
		run.Node = NodeAgent
		run.Status = StatusRunning
	}
	return nil
}

// applyEdit swaps the reviewer's arguments into the proposed tool
// call, executes it, and distills the delta into the matching
// preference profile. The conversation history is rewritten so it
// shows what actually ran, not what the model first proposed.
func (o *Orchestrator) applyEdit(ctx context.Context, run *Run, call llm.ToolCall, edited json.RawMessage) error {
	var ns memory.Namespace
	switch call.Name {
	case ToolWriteEmail:
		ns = memory.NamespaceResponse
	case ToolScheduleMeeting:
		ns = memory.NamespaceCalendar
	default:
		return &ProtocolViolationError{Response: ResponseEdit, Reason: fmt.Sprintf("tool %q cannot be edited", call.Name)}
	}

	initial := call.Name + ": " + string(call.Arguments)
	rewriteToolCall(run, call.ID, edited)
	run.clearPending()

	observation := o.execute(ctx, run, llm.ToolCall{ID: call.ID, Name: call.Name, Arguments: edited})
	run.Messages = append(run.Messages, llm.ToolMessage(call.ID, observation))

	switch call.Name {
	case ToolWriteEmail:
		o.mergePreferences(ctx, run, ns, []llm.Message{llm.UserMessage(fmt.Sprintf(
			"User edited the email response. Here is the initial email generated by the assistant: %s. Here is the edited email: %s. Follow all instructions above, and remember: %s.",
			initial, string(edited), strings.TrimSpace(memory.UpdateInstructionsReinforcement)))})
	case ToolScheduleMeeting:
		o.mergePreferences(ctx, run, ns, []llm.Message{llm.UserMessage(fmt.Sprintf(
			"User edited the calendar invitation. Here is the initial calendar invitation generated by the assistant: %s. Here is the edited calendar invitation: %s. Follow all instructions above, and remember: %s.",
			initial, string(edited), strings.TrimSpace(memory.UpdateInstructionsReinforcement)))})
	}

	run.Node = NodeAgent
	run.Status = StatusRunning
	return nil
}

// rewriteToolCall replaces the arguments of a proposed tool call in
// the conversation history.
func rewriteToolCall(run *Run, callID string, args json.RawMessage) {
	for i := len(run.Messages) - 1; i >= 0; i-- {
		msg := &run.Messages[i]
		if msg.Role != llm.RoleAssistant {
			continue
		}
		for j := range msg.ToolCalls {
			if msg.ToolCalls[j].ID == callID {
				msg.ToolCalls[j].Arguments = args
				return
			}
		}
	}
}

// ignoreObservation is the tool result recorded when the reviewer
// discards a proposed action.
func ignoreObservation(tool string) string {
	switch tool {
	case ToolScheduleMeeting:
		return "User ignored this calendar meeting draft. Ignore this email and end the workflow."
	case ToolQuestion:
		return "User ignored this question. Ignore this email and end the workflow."
	default:
		return "User ignored this email draft. Ignore this email and end the workflow."
	}
}

// ignoreFeedback is the distillation instruction after the reviewer
// discarded a proposed action: the email should not have been
// classified respond in the first place.
func ignoreFeedback(tool string) string {
	var decision string
	switch tool {
	case ToolScheduleMeeting:
		decision = "The user ignored the calendar meeting draft. That means they did not want to schedule a meeting for this email."
	case ToolQuestion:
		decision = "The user ignored the question. That means they did not want to answer the question or deal with this email."
	default:
		decision = "The user ignored the email draft. That means they did not want to respond to the email."
	}
	return decision + " Update the triage preferences to ensure emails of this type are not classified as respond. Follow all instructions above, and remember: " +
		strings.TrimSpace(memory.UpdateInstructionsReinforcement) + "."
}

// feedbackObservation is the tool result recorded when the reviewer
// answers with guidance instead of a decision.
func feedbackObservation(tool, feedback string) string {
	switch tool {
	case ToolScheduleMeeting:
		return "User gave feedback, which can we incorporate into the meeting request. Feedback: " + feedback
	case ToolQuestion:
		return "User answered the question, which can we can use for any follow up actions. Feedback: " + feedback
	default:
		return "User gave feedback, which can we incorporate into the email. Feedback: " + feedback
	}
}

// feedbackMergeTarget maps a gated tool to the preference profile its
// feedback refines. Question answers are context for the current run
// only and are not distilled.
func feedbackMergeTarget(tool string) (memory.Namespace, string, bool) {
	switch tool {
	case ToolWriteEmail:
		return memory.NamespaceResponse,
			"User gave feedback, which we can use to update the response preferences. Follow all instructions above, and remember: " +
				strings.TrimSpace(memory.UpdateInstructionsReinforcement) + ".",
			true
	case ToolScheduleMeeting:
		return memory.NamespaceCalendar,
			"User gave feedback, which we can use to update the calendar preferences. Follow all instructions above, and remember: " +
				strings.TrimSpace(memory.UpdateInstructionsReinforcement) + ".",
			true
	}
	return nil, "", false
}
