package agent_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxagent/internal/memory"
	"github.com/teemow/inboxagent/internal/server"
	"github.com/teemow/inboxagent/internal/tools/common"
)

// ResolveNamespace maps a tool-level namespace name to a store
// namespace. Short names address the built-in profiles; a "/"-joined
// key addresses any namespace directly.
func ResolveNamespace(name string) (memory.Namespace, error) {
	switch name {
	case "triage":
		return memory.NamespaceTriage, nil
	case "response":
		return memory.NamespaceResponse, nil
	case "calendar":
		return memory.NamespaceCalendar, nil
	case "background":
		return memory.NamespaceBackground, nil
	}
	if strings.Contains(name, "/") {
		return memory.ParseNamespace(name), nil
	}
	return nil, fmt.Errorf("unknown namespace %q: use triage, response, calendar, background or a full key", name)
}

// RegisterPreferenceTools registers the preference profile tools with
// the MCP server.
func RegisterPreferenceTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Preferences() == nil {
		return fmt.Errorf("preference tools require a preference store")
	}

	getTool := mcp.NewTool("get_preferences",
		mcp.WithDescription("Read a preference profile, or all profiles when no namespace is given"),
		mcp.WithString("namespace",
			mcp.Description("Profile to read: triage, response, calendar, background, or a full key"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandler("get_preferences", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetPreferences(ctx, request, sc)
		}))

	updateTool := mcp.NewTool("update_preferences",
		mcp.WithDescription("Overwrite a preference profile with new content. "+
			"This replaces the profile; review feedback merges happen automatically during runs."),
		mcp.WithString("namespace",
			mcp.Required(),
			mcp.Description("Profile to overwrite: triage, response, calendar, background, or a full key"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The new profile text"),
		),
	)
	s.AddTool(updateTool, common.InstrumentedToolHandler("update_preferences", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdatePreferences(ctx, request, sc)
		}))

	return nil
}

func handleGetPreferences(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, _ := args["namespace"].(string)
	if name == "" {
		profiles, err := sc.Preferences().List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list preferences: %v", err)), nil
		}
		data, err := json.MarshalIndent(profiles, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode preferences: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	ns, err := ResolveNamespace(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := sc.Preferences().Get(ctx, ns)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", ns, err)), nil
	}
	return mcp.NewToolResultText(content), nil
}

func handleUpdatePreferences(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, ok := args["namespace"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("'namespace' field is required"), nil
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return mcp.NewToolResultError("'content' field is required"), nil
	}

	ns, err := ResolveNamespace(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sc.Preferences().Put(ctx, ns, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update %s: %v", ns, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated preferences for %s", ns)), nil
}
