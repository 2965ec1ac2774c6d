package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/teemow/inboxagent/internal/llm"
)

// Tool names exposed to the generator.
const (
	ToolWriteEmail      = "write_email"
	ToolScheduleMeeting = "schedule_meeting"
	ToolCheckCalendar   = "check_calendar_availability"
	ToolQuestion        = "question"
	ToolDone            = "done"
)

// WriteEmailArgs are the arguments of the write_email tool.
type WriteEmailArgs struct {
	To      string `json:"to" jsonschema_description:"Recipient email address"`
	Subject string `json:"subject" jsonschema_description:"Email subject line"`
	Content string `json:"content" jsonschema_description:"Full body of the email"`
}

// ScheduleMeetingArgs are the arguments of the schedule_meeting tool.
type ScheduleMeetingArgs struct {
	Attendees       []string `json:"attendees" jsonschema_description:"Email addresses of all attendees"`
	Subject         string   `json:"subject" jsonschema_description:"Meeting subject"`
	DurationMinutes int      `json:"duration_minutes" jsonschema_description:"Meeting length in minutes"`
	PreferredDay    string   `json:"preferred_day" jsonschema_description:"Preferred day as a YYYY-MM-DD date"`
	StartTime       int      `json:"start_time" jsonschema_description:"Start hour in 24 hour time, for example 14 for 2pm"`
}

// CheckCalendarArgs are the arguments of check_calendar_availability.
type CheckCalendarArgs struct {
	Day string `json:"day" jsonschema_description:"Day to check as a YYYY-MM-DD date"`
}

// QuestionArgs are the arguments of the question tool.
type QuestionArgs struct {
	Content string `json:"content" jsonschema_description:"Question to ask the user"`
}

// DoneArgs are the arguments of the terminal done tool.
type DoneArgs struct {
	Done bool `json:"done"`
}

var (
	writeEmailSchema      = llm.GenerateSchema[WriteEmailArgs]()
	scheduleMeetingSchema = llm.GenerateSchema[ScheduleMeetingArgs]()
	checkCalendarSchema   = llm.GenerateSchema[CheckCalendarArgs]()
	questionSchema        = llm.GenerateSchema[QuestionArgs]()
	doneSchema            = llm.GenerateSchema[DoneArgs]()
)

// ToolSchemas returns the tool set exposed to the generator. The
// question tool is only offered when a human is around to answer it;
// the calendar tools only when calendar tooling is enabled.
func ToolSchemas(includeQuestion, includeCalendar bool) []llm.ToolSchema {
	schemas := []llm.ToolSchema{
		{Name: ToolWriteEmail, Description: "Write and send an email.", Parameters: writeEmailSchema},
	}
	if includeCalendar {
		schemas = append(schemas,
			llm.ToolSchema{Name: ToolScheduleMeeting, Description: "Schedule a calendar meeting.", Parameters: scheduleMeetingSchema},
			llm.ToolSchema{Name: ToolCheckCalendar, Description: "Check calendar availability for a given day.", Parameters: checkCalendarSchema})
	}
	if includeQuestion {
		schemas = append(schemas, llm.ToolSchema{Name: ToolQuestion, Description: "Question to ask user.", Parameters: questionSchema})
	}
	return append(schemas, llm.ToolSchema{Name: ToolDone, Description: "E-mail has been sent.", Parameters: doneSchema})
}

// Gated reports whether a tool needs human review before executing.
// check_calendar_availability is read-only and runs unreviewed; done
// is terminal and never executes at all.
func Gated(name string) bool {
	switch name {
	case ToolWriteEmail, ToolScheduleMeeting, ToolQuestion:
		return true
	}
	return false
}

// Executor performs the real-world side effects behind the agent's
// tools. Implementations return a human-readable observation string.
// Errors never fail a run: the orchestrator absorbs them into the
// conversation as observations so the model can react.
type Executor interface {
	WriteEmail(ctx context.Context, args WriteEmailArgs) (string, error)
	ScheduleMeeting(ctx context.Context, args ScheduleMeetingArgs) (string, error)
	CheckCalendar(ctx context.Context, args CheckCalendarArgs) (string, error)
}

// dispatch decodes a tool call's arguments and routes it to the
// executor. The question and done tools are intentionally absent:
// neither ever executes.
func dispatch(ctx context.Context, exec Executor, name string, raw json.RawMessage) (string, error) {
	switch name {
	case ToolWriteEmail:
		var args WriteEmailArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return exec.WriteEmail(ctx, args)
	case ToolScheduleMeeting:
		var args ScheduleMeetingArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return exec.ScheduleMeeting(ctx, args)
	case ToolCheckCalendar:
		var args CheckCalendarArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return exec.CheckCalendar(ctx, args)
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

// argsMap decodes raw tool arguments for display in review requests.
func argsMap(raw json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return m
}

// StubExecutor returns canned observations without touching any
// external system. It is the default executor for local runs and
// tests.
type StubExecutor struct{}

func (StubExecutor) WriteEmail(_ context.Context, args WriteEmailArgs) (string, error) {
	return fmt.Sprintf("Email sent to %s with subject '%s' and content: %s", args.To, args.Subject, args.Content), nil
}

func (StubExecutor) ScheduleMeeting(_ context.Context, args ScheduleMeetingArgs) (string, error) {
	return fmt.Sprintf("Meeting '%s' scheduled on %s at %d for %d minutes with %d attendees",
		args.Subject, args.PreferredDay, args.StartTime, args.DurationMinutes, len(args.Attendees)), nil
}

func (StubExecutor) CheckCalendar(_ context.Context, args CheckCalendarArgs) (string, error) {
	return fmt.Sprintf("Available times on %s: 9:00 AM, 2:00 PM, 4:00 PM", args.Day), nil
}
