package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/memory"
)

// Canonical test emails.
var (
	marketingEmail = map[string]any{
		"author":       "Marketing Team <marketing@company.com>",
		"to":           "All Staff <all-staff@company.com>",
		"subject":      "New Company Newsletter Available",
		"email_thread": "The latest edition of our company newsletter is now available on the intranet.",
	}
	apiQuestionEmail = map[string]any{
		"author":       "Alice Smith <alice.smith@company.com>",
		"to":           "John Doe <john.doe@company.com>",
		"subject":      "Quick question about API documentation",
		"email_thread": "I noticed a few endpoints seem to be missing from the specs. Could you help clarify?",
	}
	maintenanceEmail = map[string]any{
		"author":       "System Admin <sysadmin@company.com>",
		"to":           "Development Team <dev@company.com>",
		"subject":      "Scheduled maintenance - database downtime",
		"email_thread": "We'll be performing scheduled maintenance on the production database tonight from 2AM to 4AM EST.",
	}
)

// stubClassifier returns a fixed verdict.
type stubClassifier struct {
	classification string
	err            error
}

func (c stubClassifier) Classify(context.Context, string, string) (llm.Verdict, error) {
	if c.err != nil {
		return llm.Verdict{}, c.err
	}
	return llm.Verdict{Classification: c.classification, Rationale: "stubbed rationale"}, nil
}

// scriptGenerator plays back a fixed sequence of assistant messages.
type scriptGenerator struct {
	script []llm.Message
	turn   int

	// lastTools captures the schemas offered on the most recent turn.
	lastTools []llm.ToolSchema
}

func (g *scriptGenerator) Generate(_ context.Context, _ string, _ []llm.Message, tools []llm.ToolSchema) (llm.Message, error) {
	g.lastTools = tools
	if g.turn >= len(g.script) {
		return llm.Message{}, &llm.GenerationError{Op: "generate", Err: fmt.Errorf("script exhausted after %d turns", g.turn)}
	}
	msg := g.script[g.turn]
	g.turn++
	return msg, nil
}

// loopGenerator returns the same tool call forever; used to prove the
// loop terminates through review outcomes or the iteration bound, not
// through the generator giving up.
type loopGenerator struct {
	call  llm.ToolCall
	turns int
}

func (g *loopGenerator) Generate(context.Context, string, []llm.Message, []llm.ToolSchema) (llm.Message, error) {
	g.turns++
	call := g.call
	call.ID = fmt.Sprintf("%s-%d", g.call.ID, g.turns)
	return llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}}, nil
}

// recordDistiller appends each feedback batch as one profile line and
// records which namespaces were merged.
type recordDistiller struct {
	mu     sync.Mutex
	merged []string
	err    error
}

func (d *recordDistiller) Distill(_ context.Context, systemPrompt string, msgs []llm.Message) (llm.ProfileUpdate, error) {
	if d.err != nil {
		return llm.ProfileUpdate{}, d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	current := extractProfile(systemPrompt)
	line := msgs[len(msgs)-1].Content
	d.merged = append(d.merged, line)
	return llm.ProfileUpdate{Preferences: current + "\n- " + line, Justification: "appended"}, nil
}

func (d *recordDistiller) mergeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.merged)
}

// extractProfile pulls the current profile out of the rendered update
// prompt (the last memory_profile block; the first one is the example).
func extractProfile(systemPrompt string) string {
	start := strings.LastIndex(systemPrompt, "<memory_profile>")
	end := strings.LastIndex(systemPrompt, "</memory_profile>")
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(systemPrompt[start+len("<memory_profile>") : end])
}

// failWriteExecutor fails email sends; everything else behaves like
// the stub.
type failWriteExecutor struct {
	StubExecutor
}

func (failWriteExecutor) WriteEmail(context.Context, WriteEmailArgs) (string, error) {
	return "", fmt.Errorf("smtp relay unavailable")
}

func rawArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func assistantToolCall(id, name string, args json.RawMessage) llm.Message {
	return llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: args}},
	}
}

func doneMessage(t *testing.T, id string) llm.Message {
	return assistantToolCall(id, ToolDone, rawArgs(t, DoneArgs{Done: true}))
}

// newTestOrchestrator wires an orchestrator over in-memory stores.
func newTestOrchestrator(t *testing.T, classifier llm.Classifier, generator llm.Generator, distiller llm.Distiller, cfg Config, opts ...func(*Deps)) (*Orchestrator, *memory.Store) {
	t.Helper()
	store := memory.New(memory.NewMemoryBacking(), distiller)
	deps := Deps{
		Classifier: classifier,
		Generator:  generator,
		Store:      store,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewOrchestrator(deps, cfg), store
}
