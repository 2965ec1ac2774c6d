package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxagent/internal/memory"
	"github.com/teemow/inboxagent/internal/server"
)

// preferenceResources maps the exposed resource URIs to store
// namespaces. The short name in the URI matches what the preference
// tools accept.
var preferenceResources = []struct {
	uri  string
	name string
	ns   memory.Namespace
}{
	{"inboxagent://preferences/triage", "Triage Preferences", memory.NamespaceTriage},
	{"inboxagent://preferences/response", "Response Preferences", memory.NamespaceResponse},
	{"inboxagent://preferences/calendar", "Calendar Preferences", memory.NamespaceCalendar},
	{"inboxagent://preferences/background", "User Background", memory.NamespaceBackground},
}

// runsListURI is the resource listing all checkpointed runs.
const runsListURI = "inboxagent://runs"

// runURIPrefix addresses one run by ID.
const runURIPrefix = "inboxagent://runs/"

// RegisterAgentResources registers the preference profiles and run
// snapshots as MCP resources.
func RegisterAgentResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Preferences() == nil || sc.Orchestrator() == nil {
		return fmt.Errorf("agent resources require a preference store and an orchestrator")
	}

	for _, pr := range preferenceResources {
		ns := pr.ns
		resource := mcp.NewResource(
			pr.uri,
			pr.name,
			mcp.WithResourceDescription(fmt.Sprintf("Learned preference profile %s", ns)),
			mcp.WithMIMEType("text/plain"),
		)
		s.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return handlePreferences(ctx, request, sc, ns)
		})
	}

	runsResource := mcp.NewResource(
		runsListURI,
		"Triage Runs",
		mcp.WithResourceDescription("All checkpointed triage runs, newest first"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(runsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleRunsList(ctx, request, sc)
	})

	runTemplate := mcp.NewResourceTemplate(
		runURIPrefix+"{run_id}",
		"Triage Run",
		mcp.WithTemplateDescription("Full checkpointed state of one run, including its message history"),
		mcp.WithTemplateMIMEType("application/json"),
	)
	s.AddResourceTemplate(runTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleRunSnapshot(ctx, request, sc)
	})

	return nil
}

func handlePreferences(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext, ns memory.Namespace) ([]mcp.ResourceContents, error) {
	content, err := sc.Preferences().Get(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ns, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     content,
		},
	}, nil
}

func handleRunsList(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	runs, err := sc.Orchestrator().ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	type runEntry struct {
		RunID   string `json:"run_id"`
		Status  string `json:"status"`
		Node    string `json:"node"`
		Subject string `json:"subject"`
	}
	entries := make([]runEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, runEntry{
			RunID:   run.ID,
			Status:  string(run.Status),
			Node:    string(run.Node),
			Subject: run.Email.Subject,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal runs: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func handleRunSnapshot(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	runID := strings.TrimPrefix(request.Params.URI, runURIPrefix)
	if runID == "" || strings.Contains(runID, "/") {
		return nil, fmt.Errorf("invalid run resource URI: %s", request.Params.URI)
	}

	run, err := sc.Orchestrator().GetState(ctx, runID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
