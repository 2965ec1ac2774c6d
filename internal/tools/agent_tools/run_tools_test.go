package agent_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/memory"
	"github.com/teemow/inboxagent/internal/server"
)

type stubClassifier struct {
	verdict string
}

func (s stubClassifier) Classify(context.Context, string, string) (llm.Verdict, error) {
	return llm.Verdict{Classification: s.verdict, Rationale: "stub"}, nil
}

// scriptGenerator replays a fixed sequence of assistant messages and
// repeats the last one when the script runs out.
type scriptGenerator struct {
	script []llm.Message
	turns  int
}

func (g *scriptGenerator) Generate(context.Context, string, []llm.Message, []llm.ToolSchema) (llm.Message, error) {
	idx := g.turns
	if idx >= len(g.script) {
		idx = len(g.script) - 1
	}
	g.turns++
	return g.script[idx], nil
}

func toolCall(id, name, args string) llm.Message {
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: id, Name: name, Arguments: json.RawMessage(args)},
		},
	}
}

func newTestContext(t *testing.T, classifier llm.Classifier, generator llm.Generator) *server.ServerContext {
	t.Helper()
	store := memory.New(memory.NewMemoryBacking(), nil)
	orc := agent.NewOrchestrator(agent.Deps{
		Classifier: classifier,
		Generator:  generator,
		Store:      store,
	}, agent.Config{HITL: true, Memory: false, MaxIterations: 5})
	sc := server.NewServerContext(context.Background(),
		server.WithOrchestrator(orc),
		server.WithPreferences(store),
	)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

func emailArgs() map[string]interface{} {
	return map[string]interface{}{
		"author":       "Alice Smith <alice@example.com>",
		"to":           "Jane Doe <jane@example.com>",
		"subject":      "Quick question about the API",
		"email_thread": "Hi Jane, does the batch endpoint support pagination?",
	}
}

func TestTriageEmailIgnoreCompletes(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	result, err := handleTriageEmail(context.Background(), callRequest("triage_email", emailArgs()), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var handle runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &handle))
	assert.Equal(t, agent.StatusCompleted, handle.Status)
	assert.Equal(t, agent.ClassifyIgnore, handle.Classification)
	assert.NotEmpty(t, handle.RunID)
}

func TestTriageEmailRespondSuspends(t *testing.T) {
	gen := &scriptGenerator{script: []llm.Message{
		toolCall("call-1", agent.ToolWriteEmail, `{"to":"alice@example.com","subject":"Re: Quick question","content":"Yes, it does."}`),
		toolCall("call-2", agent.ToolDone, `{"done":true}`),
	}}
	sc := newTestContext(t, stubClassifier{verdict: "respond"}, gen)

	result, err := handleTriageEmail(context.Background(), callRequest("triage_email", emailArgs()), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var handle runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &handle))
	assert.Equal(t, agent.StatusAwaitingInput, handle.Status)
	require.NotNil(t, handle.Pending)
	assert.Equal(t, agent.ToolWriteEmail, handle.Pending.ActionRequest.Action)
}

func TestTriageEmailRawRecordString(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	raw := `{"author":"bob@example.com","to":"jane@example.com","subject":"FYI","email_thread":"See attached."}`
	result, err := handleTriageEmail(context.Background(),
		callRequest("triage_email", map[string]interface{}{"email": raw}), sc)
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestTriageEmailNoFields(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	result, err := handleTriageEmail(context.Background(),
		callRequest("triage_email", map[string]interface{}{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestTriageEmailDuplicateRunID(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	args := emailArgs()
	args["run_id"] = "gmail-feedbeef00000001"
	result, err := handleTriageEmail(context.Background(), callRequest("triage_email", args), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	result, err = handleTriageEmail(context.Background(), callRequest("triage_email", args), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "already exists")
}

func TestResumeRunAcceptCompletes(t *testing.T) {
	gen := &scriptGenerator{script: []llm.Message{
		toolCall("call-1", agent.ToolWriteEmail, `{"to":"alice@example.com","subject":"Re: Quick question","content":"Yes."}`),
		toolCall("call-2", agent.ToolDone, `{"done":true}`),
	}}
	sc := newTestContext(t, stubClassifier{verdict: "respond"}, gen)

	start, err := handleTriageEmail(context.Background(), callRequest("triage_email", emailArgs()), sc)
	require.NoError(t, err)
	var handle runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, start)), &handle))

	result, err := handleResumeRun(context.Background(), callRequest("resume_run", map[string]interface{}{
		"run_id":        handle.RunID,
		"response_type": "accept",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resumed runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resumed))
	assert.Equal(t, agent.StatusCompleted, resumed.Status)
}

func TestResumeRunEditPassesArguments(t *testing.T) {
	gen := &scriptGenerator{script: []llm.Message{
		toolCall("call-1", agent.ToolWriteEmail, `{"to":"alice@example.com","subject":"Re: Quick question","content":"Yes."}`),
		toolCall("call-2", agent.ToolDone, `{"done":true}`),
	}}
	sc := newTestContext(t, stubClassifier{verdict: "respond"}, gen)

	start, err := handleTriageEmail(context.Background(), callRequest("triage_email", emailArgs()), sc)
	require.NoError(t, err)
	var handle runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, start)), &handle))

	edited := `{"to":"alice@example.com","subject":"Re: Quick question","content":"Yes, with cursor-based pagination."}`
	result, err := handleResumeRun(context.Background(), callRequest("resume_run", map[string]interface{}{
		"run_id":        handle.RunID,
		"response_type": "edit",
		"args":          edited,
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	run, err := sc.Orchestrator().GetState(context.Background(), handle.RunID)
	require.NoError(t, err)
	assert.Equal(t, agent.StatusCompleted, run.Status)

	// The edited content must be in the recorded tool call.
	var found bool
	for _, msg := range run.Messages {
		for _, call := range msg.ToolCalls {
			if call.ID == "call-1" {
				assert.Contains(t, string(call.Arguments), "cursor-based pagination")
				found = true
			}
		}
	}
	assert.True(t, found, "edited tool call not found in history")
}

func TestResumeRunRejectedResponseLeavesRunSuspended(t *testing.T) {
	gen := &scriptGenerator{script: []llm.Message{
		toolCall("call-1", agent.ToolWriteEmail, `{"to":"a@example.com","subject":"s","content":"c"}`),
	}}
	sc := newTestContext(t, stubClassifier{verdict: "respond"}, gen)

	start, err := handleTriageEmail(context.Background(), callRequest("triage_email", emailArgs()), sc)
	require.NoError(t, err)
	var handle runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, start)), &handle))

	result, err := handleResumeRun(context.Background(), callRequest("resume_run", map[string]interface{}{
		"run_id":        handle.RunID,
		"response_type": "approve",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	run, err := sc.Orchestrator().GetState(context.Background(), handle.RunID)
	require.NoError(t, err)
	assert.Equal(t, agent.StatusAwaitingInput, run.Status)
}

func TestResumeRunMissingFields(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	result, err := handleResumeRun(context.Background(), callRequest("resume_run", map[string]interface{}{
		"response_type": "accept",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "run_id")

	result, err = handleResumeRun(context.Background(), callRequest("resume_run", map[string]interface{}{
		"run_id": "run-1",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "response_type")
}

func TestResumeRunUnknownRun(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	result, err := handleResumeRun(context.Background(), callRequest("resume_run", map[string]interface{}{
		"run_id":        "no-such-run",
		"response_type": "accept",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "does not exist")
}

func TestGetRunReturnsFullState(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	start, err := handleTriageEmail(context.Background(), callRequest("triage_email", emailArgs()), sc)
	require.NoError(t, err)
	var handle runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, start)), &handle))

	result, err := handleGetRun(context.Background(), callRequest("get_run", map[string]interface{}{
		"run_id": handle.RunID,
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var run agent.Run
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &run))
	assert.Equal(t, handle.RunID, run.ID)
	assert.Equal(t, "Quick question about the API", run.Email.Subject)
}

func TestGetRunUnknown(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	result, err := handleGetRun(context.Background(), callRequest("get_run", map[string]interface{}{
		"run_id": "missing",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestListRunsWithStatusFilter(t *testing.T) {
	sc := newTestContext(t, stubClassifier{verdict: "ignore"}, &scriptGenerator{})

	for _, id := range []string{"run-a", "run-b"} {
		args := emailArgs()
		args["run_id"] = id
		_, err := handleTriageEmail(context.Background(), callRequest("triage_email", args), sc)
		require.NoError(t, err)
	}

	result, err := handleListRuns(context.Background(), callRequest("list_runs", map[string]interface{}{
		"status": "completed",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var handles []runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &handles))
	assert.Len(t, handles, 2)

	result, err = handleListRuns(context.Background(), callRequest("list_runs", map[string]interface{}{
		"status": "failed",
	}), sc)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &handles))
	assert.Empty(t, handles)
}

func TestAbortRunSingle(t *testing.T) {
	gen := &scriptGenerator{script: []llm.Message{
		toolCall("call-1", agent.ToolWriteEmail, `{"to":"a@example.com","subject":"s","content":"c"}`),
	}}
	sc := newTestContext(t, stubClassifier{verdict: "respond"}, gen)

	start, err := handleTriageEmail(context.Background(), callRequest("triage_email", emailArgs()), sc)
	require.NoError(t, err)
	var handle runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, start)), &handle))

	result, err := handleAbortRun(context.Background(), callRequest("abort_run", map[string]interface{}{
		"run_id": handle.RunID,
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var aborted runHandle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &aborted))
	assert.Equal(t, agent.StatusAborted, aborted.Status)
}

func TestAbortRunBatchPartialFailure(t *testing.T) {
	gen := &scriptGenerator{script: []llm.Message{
		toolCall("call-1", agent.ToolWriteEmail, `{"to":"a@example.com","subject":"s","content":"c"}`),
	}}
	sc := newTestContext(t, stubClassifier{verdict: "respond"}, gen)

	args := emailArgs()
	args["run_id"] = "run-alive"
	_, err := handleTriageEmail(context.Background(), callRequest("triage_email", args), sc)
	require.NoError(t, err)

	result, err := handleAbortRun(context.Background(), callRequest("abort_run", map[string]interface{}{
		"run_id": []interface{}{"run-alive", "run-missing"},
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, `"successful": 1`)
	assert.Contains(t, text, `"failed": 1`)
}
