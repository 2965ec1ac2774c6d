package agent_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/server"
	"github.com/teemow/inboxagent/internal/tools/batch"
	"github.com/teemow/inboxagent/internal/tools/common"
)

// runHandle is the compact run representation the workflow tools
// return. get_run returns the full checkpointed state instead.
type runHandle struct {
	RunID          string               `json:"run_id"`
	Status         agent.Status         `json:"status"`
	Node           agent.Node           `json:"node"`
	Classification agent.Classification `json:"classification,omitempty"`
	Iterations     int                  `json:"iterations,omitempty"`
	Failure        string               `json:"failure,omitempty"`
	Pending        *agent.ReviewRequest `json:"pending_request,omitempty"`
}

func handleOf(run *agent.Run) runHandle {
	return runHandle{
		RunID:          run.ID,
		Status:         run.Status,
		Node:           run.Node,
		Classification: run.Classification,
		Iterations:     run.Iterations,
		Failure:        run.Failure,
		Pending:        run.Pending,
	}
}

func formatHandle(run *agent.Run) string {
	data, err := json.MarshalIndent(handleOf(run), "", "  ")
	if err != nil {
		return fmt.Sprintf("run %s: %s", run.ID, run.Status)
	}
	return string(data)
}

// RegisterRunTools registers the run lifecycle tools with the MCP server.
func RegisterRunTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	triageTool := mcp.NewTool("triage_email",
		mcp.WithDescription("Triage an email: classify it as ignore, notify or respond and, for respond, draft a reply. "+
			"Returns the run handle; a suspended run carries the pending review request."),
		mcp.WithString("author",
			mcp.Description("Sender of the email"),
		),
		mcp.WithString("to",
			mcp.Description("Recipient of the email"),
		),
		mcp.WithString("subject",
			mcp.Description("Email subject"),
		),
		mcp.WithString("email_thread",
			mcp.Description("Email body or rendered thread"),
		),
		mcp.WithString("email",
			mcp.Description("Alternatively, the whole raw email record as a JSON object string"),
		),
		mcp.WithString("run_id",
			mcp.Description("Fix the run ID instead of generating one; starting an existing ID fails"),
		),
	)
	s.AddTool(triageTool, common.InstrumentedToolHandler("triage_email", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTriageEmail(ctx, request, sc)
		}))

	resumeTool := mcp.NewTool("resume_run",
		mcp.WithDescription("Apply a review response to a suspended run. "+
			"Types: accept, edit (args carry the replacement arguments), ignore, response (args carry free-text feedback)."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("ID of the suspended run"),
		),
		mcp.WithString("response_type",
			mcp.Required(),
			mcp.Description("One of: accept, edit, ignore, response"),
		),
		mcp.WithString("args",
			mcp.Description("Edited arguments (JSON object) for edit, feedback text for response"),
		),
	)
	s.AddTool(resumeTool, common.InstrumentedToolHandler("resume_run", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResumeRun(ctx, request, sc)
		}))

	getTool := mcp.NewTool("get_run",
		mcp.WithDescription("Get the full checkpointed state of a run, including its message history"),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("ID of the run"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandler("get_run", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetRun(ctx, request, sc)
		}))

	listTool := mcp.NewTool("list_runs",
		mcp.WithDescription("List all runs, newest first"),
		mcp.WithString("status",
			mcp.Description("Only return runs with this status (running, awaiting_input, completed, failed, aborted)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("list_runs", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListRuns(ctx, request, sc)
		}))

	abortTool := mcp.NewTool("abort_run",
		mcp.WithDescription("Abort one or many runs. Accepts a single run ID or an array of run IDs."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID or array of run IDs to abort"),
		),
	)
	s.AddTool(abortTool, common.InstrumentedToolHandler("abort_run", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAbortRun(ctx, request, sc)
		}))

	return nil
}

// rawEmailFromArgs builds the raw email record from tool arguments:
// either the "email" JSON object string or the individual fields.
// Missing fields are fine; the normalizer substitutes placeholders.
func rawEmailFromArgs(args map[string]interface{}) (map[string]any, error) {
	if encoded, ok := args["email"].(string); ok && encoded != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
			return nil, fmt.Errorf("'email' is not a JSON object: %w", err)
		}
		return raw, nil
	}
	if obj, ok := args["email"].(map[string]interface{}); ok {
		return obj, nil
	}

	raw := make(map[string]any)
	for _, key := range []string{"author", "to", "subject", "email_thread"} {
		if v, ok := args[key].(string); ok && v != "" {
			raw[key] = v
		}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("provide 'email' or at least one of author, to, subject, email_thread")
	}
	return raw, nil
}

func handleTriageEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	raw, err := rawEmailFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var opts []agent.StartOption
	if runID, ok := args["run_id"].(string); ok && runID != "" {
		opts = append(opts, agent.WithRunID(runID))
	}

	run, err := sc.Orchestrator().Start(ctx, raw, opts...)
	if err != nil {
		if errors.Is(err, agent.ErrRunExists) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if run != nil {
			// The run failed but its state is checkpointed; surface both.
			return mcp.NewToolResultError(fmt.Sprintf("run %s failed: %v", run.ID, err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to start run: %v", err)), nil
	}

	return mcp.NewToolResultText(formatHandle(run)), nil
}

// reviewArgs converts the tool-level args value into the review
// response payload. Edit payloads arrive as JSON object strings,
// feedback as plain text; both are passed through as raw JSON.
func reviewArgs(responseType string, value interface{}) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		if responseType != agent.ResponseFeedback && json.Valid([]byte(v)) {
			return json.RawMessage(v), nil
		}
		return json.Marshal(v)
	default:
		return json.Marshal(v)
	}
}

func handleResumeRun(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	runID, ok := args["run_id"].(string)
	if !ok || runID == "" {
		return mcp.NewToolResultError("'run_id' field is required"), nil
	}
	responseType, ok := args["response_type"].(string)
	if !ok || responseType == "" {
		return mcp.NewToolResultError("'response_type' field is required"), nil
	}

	payload, err := reviewArgs(responseType, args["args"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid 'args' payload: %v", err)), nil
	}

	run, err := sc.Orchestrator().Resume(ctx, runID, agent.ReviewResponse{
		Type: responseType,
		Args: payload,
	})
	if err != nil {
		var violation *agent.ProtocolViolationError
		var invalid *agent.InvalidResumeError
		switch {
		case errors.As(err, &violation):
			// The run stays suspended; only this response was rejected.
			return mcp.NewToolResultError(violation.Error()), nil
		case errors.As(err, &invalid):
			return mcp.NewToolResultError(invalid.Error()), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("resume failed: %v", err)), nil
		}
	}

	return mcp.NewToolResultText(formatHandle(run)), nil
}

func handleGetRun(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	runID, ok := args["run_id"].(string)
	if !ok || runID == "" {
		return mcp.NewToolResultError("'run_id' field is required"), nil
	}

	run, err := sc.Orchestrator().GetState(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode run: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleListRuns(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	statusFilter, _ := args["status"].(string)

	runs, err := sc.Orchestrator().ListRuns(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	handles := make([]runHandle, 0, len(runs))
	for _, run := range runs {
		if statusFilter != "" && run.Status != agent.Status(statusFilter) {
			continue
		}
		handles = append(handles, handleOf(run))
	}

	data, err := json.MarshalIndent(handles, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleAbortRun(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseStringOrArray(args["run_id"], "run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(ids) == 1 {
		run, err := sc.Orchestrator().Abort(ctx, ids[0])
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatHandle(run)), nil
	}

	results := batch.ProcessBatch(ids, func(id string) (string, error) {
		run, err := sc.Orchestrator().Abort(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("run is %s", run.Status), nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
