package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/inboxagent/internal/email"
	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/memory"
)

// triage classifies the email and routes the run: ignore ends it,
// respond hands it to the response agent, notify suspends for human
// review (or just records the notification when review is disabled).
func (o *Orchestrator) triage(ctx context.Context, run *Run) error {
	background := memory.DefaultBackground
	triageInstructions := memory.DefaultTriageInstructions
	if o.cfg.Memory {
		var err error
		if background, err = o.prefs.Get(ctx, memory.NamespaceBackground); err != nil {
			return fmt.Errorf("load background: %w", err)
		}
		if triageInstructions, err = o.prefs.Get(ctx, memory.NamespaceTriage); err != nil {
			return fmt.Errorf("load triage preferences: %w", err)
		}
	}

	verdict, err := o.classifier.Classify(ctx, triageSystem(background, triageInstructions), triageUser(run.Email))
	if err != nil {
		return fmt.Errorf("triage classification: %w", err)
	}

	classification, err := ParseClassification(verdict.Classification)
	if err != nil {
		return err
	}
	run.Classification = classification

	o.logger.Info("email classified",
		logging.RunID(run.ID),
		logging.Classification(string(classification)))
	o.logger.Debug("classification rationale",
		logging.RunID(run.ID),
		slog.String("rationale", verdict.Rationale))
	o.metrics.RecordTriage(ctx, string(classification))

	markdown := email.Markdown(run.Email)
	switch classification {
	case ClassifyRespond:
		run.Messages = append(run.Messages, llm.UserMessage("Respond to the email: "+markdown))
		run.Node = NodeAgent
	case ClassifyIgnore:
		run.complete()
	case ClassifyNotify:
		run.Messages = append(run.Messages, llm.UserMessage("Email to notify user about: "+markdown))
		if !o.cfg.HITL {
			run.complete()
			return nil
		}
		run.suspend(NodeTriageInterrupt, &ReviewRequest{
			ActionRequest: ActionRequest{
				Action: "Email Assistant: " + string(classification),
				Args:   map[string]any{},
			},
			Config: ReviewConfig{
				AllowIgnore:  true,
				AllowRespond: true,
				AllowEdit:    false,
				AllowAccept:  false,
			},
			Description: markdown,
		}, nil)
	}
	return nil
}

// resumeNotify applies the reviewer's decision at a notify
// checkpoint. Feedback means the user wants a reply after all; ignore
// confirms no action. Both outcomes are distilled into the triage
// preferences since the classifier's notify verdict was second-guessed
// either way.
func (o *Orchestrator) resumeNotify(ctx context.Context, run *Run, resp ReviewResponse) error {
	switch resp.Type {
	case ResponseFeedback:
		feedback, err := feedbackText(resp)
		if err != nil {
			return err
		}
		run.clearPending()
		run.Messages = append(run.Messages, llm.UserMessage(
			"User wants to reply to the email. Use this feedback to respond: "+feedback))
		o.mergePreferences(ctx, run, memory.NamespaceTriage, append(
			[]llm.Message{llm.UserMessage("The user decided to respond to the email, so update the triage preferences to capture this.")},
			run.Messages...))
		run.Node = NodeAgent
		run.Status = StatusRunning

	case ResponseIgnore:
		run.clearPending()
		run.Messages = append(run.Messages, llm.UserMessage(
			"The user decided to ignore the email even though it was classified as notify. Update triage preferences to capture this."))
		o.mergePreferences(ctx, run, memory.NamespaceTriage, run.Messages)
		run.complete()

	default:
		return &ProtocolViolationError{Response: resp.Type, Reason: "not valid for a notify checkpoint"}
	}
	return nil
}
