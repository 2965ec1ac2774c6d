package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/memory"
)

type fixedClassifier struct {
	classification string
}

func (c fixedClassifier) Classify(context.Context, string, string) (llm.Verdict, error) {
	return llm.Verdict{Classification: c.classification, Rationale: "stubbed"}, nil
}

// scriptedGenerator returns one scripted tool call per turn.
type scriptedGenerator struct {
	calls []llm.ToolCall
	turn  int
}

func (g *scriptedGenerator) Generate(context.Context, string, []llm.Message, []llm.ToolSchema) (llm.Message, error) {
	if g.turn >= len(g.calls) {
		return llm.Message{}, fmt.Errorf("generator script exhausted after %d turns", g.turn)
	}
	call := g.calls[g.turn]
	g.turn++
	return llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}}, nil
}

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// A run suspended on a gated tool call must be resumable by a fresh
// orchestrator over a reopened checkpoint database, as happens after a
// process restart.
func TestSuspendedRunSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	gen := &scriptedGenerator{calls: []llm.ToolCall{
		{ID: "call-1", Name: agent.ToolWriteEmail, Arguments: mustArgs(t, agent.WriteEmailArgs{
			To: "alice@example.com", Subject: "Re: API question", Content: "Here is the endpoint.",
		})},
		{ID: "call-2", Name: agent.ToolDone, Arguments: mustArgs(t, agent.DoneArgs{Done: true})},
	}}

	store, err := Open(path)
	require.NoError(t, err)

	orc := agent.NewOrchestrator(agent.Deps{
		Classifier:  fixedClassifier{classification: "respond"},
		Generator:   gen,
		Store:       memory.New(memory.NewMemoryBacking(), nil),
		Checkpoints: store,
	}, agent.Config{HITL: true, MaxIterations: 5})

	run, err := orc.Start(ctx, map[string]any{
		"author":       "alice@example.com",
		"to":           "me@example.com",
		"subject":      "API question",
		"email_thread": "Which endpoint returns the usage stats?",
	})
	require.NoError(t, err)
	require.Equal(t, agent.StatusAwaitingInput, run.Status)
	require.NotNil(t, run.Pending)
	assert.Equal(t, agent.ToolWriteEmail, run.Pending.ActionRequest.Action)
	require.NoError(t, store.Close())

	// Simulate a restart: new store handle, new orchestrator, same
	// scripted generator continuing where it left off.
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	fresh := agent.NewOrchestrator(agent.Deps{
		Classifier:  fixedClassifier{classification: "respond"},
		Generator:   gen,
		Store:       memory.New(memory.NewMemoryBacking(), nil),
		Checkpoints: reopened,
	}, agent.Config{HITL: true, MaxIterations: 5})

	resumed, err := fresh.Resume(ctx, run.ID, agent.ReviewResponse{Type: agent.ResponseAccept})
	require.NoError(t, err)
	assert.Equal(t, agent.StatusCompleted, resumed.Status)

	// The audit trail accumulated before the restart is intact.
	loaded, err := fresh.GetState(ctx, run.ID)
	require.NoError(t, err)
	require.NotEmpty(t, loaded.Messages)
	assert.Equal(t, agent.ClassifyRespond, loaded.Classification)
	var observation string
	for _, msg := range loaded.Messages {
		if msg.Role == llm.RoleTool && msg.ToolCallID == "call-1" {
			observation = msg.Content
		}
	}
	assert.Contains(t, observation, "alice@example.com")
}
