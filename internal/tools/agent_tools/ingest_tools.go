package agent_tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/google"
	"github.com/teemow/inboxagent/internal/server"
	"github.com/teemow/inboxagent/internal/tools/batch"
	"github.com/teemow/inboxagent/internal/tools/common"
)

// DefaultIngestWindow is how far back ingest_inbox looks when the
// caller gives no cutoff.
const DefaultIngestWindow = 24 * time.Hour

// RegisterIngestTools registers the Gmail ingestion tool with the MCP server.
func RegisterIngestTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	ingestTool := mcp.NewTool("ingest_inbox",
		mcp.WithDescription("Fetch recent Gmail threads addressed to the user and start a triage run per thread. "+
			"Threads already ingested or already answered by the user are skipped."),
		mcp.WithNumber("hours",
			mcp.Description("How many hours back to look (default 24)"),
		),
		mcp.WithString("since",
			mcp.Description("Explicit RFC3339 cutoff; overrides 'hours'"),
		),
		mcp.WithString("address",
			mcp.Description("Mailbox address to ingest; only needed when the server has no configured inbox"),
		),
	)
	s.AddTool(ingestTool, common.InstrumentedToolHandlerWithService("ingest_inbox", "gmail", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleIngestInbox(ctx, request, sc)
		}))

	return nil
}

// inboxClient returns the configured Gmail client, creating one on the
// fly when credentials are available and the caller supplied a mailbox
// address.
func inboxClient(ctx context.Context, sc *server.ServerContext, address string) (*gmail.Client, error) {
	if client := sc.Inbox(); client != nil {
		return client, nil
	}
	if !google.HasToken() {
		return nil, fmt.Errorf("no Google credentials configured: set %s or run 'inboxagent auth'", google.EnvStaticToken)
	}
	if address == "" {
		return nil, fmt.Errorf("no inbox configured: pass 'address' or start the server with a mailbox address")
	}
	client, err := gmail.NewClient(ctx, address, sc.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client: %w", err)
	}
	sc.SetInbox(client)
	return client, nil
}

func ingestCutoff(args map[string]interface{}, now time.Time) (time.Time, error) {
	if raw, ok := args["since"].(string); ok && raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("'since' must be RFC3339: %w", err)
		}
		return since, nil
	}
	window := DefaultIngestWindow
	if hours, ok := args["hours"].(float64); ok && hours > 0 {
		window = time.Duration(hours * float64(time.Hour))
	}
	return now.Add(-window), nil
}

func handleIngestInbox(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	address, _ := args["address"].(string)
	client, err := inboxClient(ctx, sc, address)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	since, err := ingestCutoff(args, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	emails, err := client.FetchSince(ctx, since)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch inbox: %v", err)), nil
	}

	results := ingestEmails(ctx, sc.Orchestrator(), emails)
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

// ingestEmails starts one run per actionable thread. The thread-derived
// run ID makes ingestion idempotent: a thread that already has a run is
// reported as skipped, not an error.
func ingestEmails(ctx context.Context, orc *agent.Orchestrator, emails []gmail.InboundEmail) []batch.Result {
	results := make([]batch.Result, 0, len(emails))
	for _, e := range emails {
		runID := gmail.RunID(e.ThreadID)
		if e.UserReplied {
			results = append(results, batch.NewSuccessResult(runID, "skipped: user already replied"))
			continue
		}
		run, err := orc.Start(ctx, e.Raw(), agent.WithRunID(runID))
		switch {
		case errors.Is(err, agent.ErrRunExists):
			results = append(results, batch.NewSuccessResult(runID, "skipped: already ingested"))
		case err != nil:
			results = append(results, batch.NewErrorResult(runID, err))
		default:
			results = append(results, batch.NewSuccessResult(runID, fmt.Sprintf("run is %s", run.Status)))
		}
	}
	return results
}
