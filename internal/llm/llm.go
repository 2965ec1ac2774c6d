package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Role tags a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single tool invocation proposed by the model.
// Arguments hold the raw JSON argument object as returned by the model;
// typed decoding happens at dispatch time.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one role-tagged entry of a conversation. Assistant
// messages may carry tool calls; tool messages carry the ID of the call
// they answer.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolMessage builds a tool-result message answering callID.
func ToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Verdict is the raw triage outcome. Classification is not validated
// here; the router rejects values outside its closed category set.
type Verdict struct {
	Classification string `json:"classification"`
	Rationale      string `json:"rationale"`
}

// ProfileUpdate is the structured result of a preference distillation.
type ProfileUpdate struct {
	Preferences   string `json:"preferences" jsonschema_description:"The complete updated preference profile as plain text"`
	Justification string `json:"justification" jsonschema_description:"Why these specific changes were made"`
}

// ToolSchema describes one callable tool offered to the Generator.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Classifier produces a triage verdict for a rendered email prompt.
type Classifier interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (Verdict, error)
}

// Generator produces the next assistant message given the full ordered
// message history and the available tool schemas. The returned message
// contains at most one tool call.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, msgs []Message, tools []ToolSchema) (Message, error)
}

// Distiller rewrites a preference profile from feedback messages. The
// system prompt carries the current profile and the update rules.
type Distiller interface {
	Distill(ctx context.Context, systemPrompt string, msgs []Message) (ProfileUpdate, error)
}

// GenerationError wraps a failed model call. The core does not retry
// these; retry policy lives inside the port implementation.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
