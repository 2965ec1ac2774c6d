package agent_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxagent/internal/server"
)

// RegisterAgentTools registers all workflow tools with the MCP server.
func RegisterAgentTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Orchestrator() == nil {
		return fmt.Errorf("agent tools require an orchestrator")
	}

	if err := RegisterRunTools(s, sc); err != nil {
		return fmt.Errorf("failed to register run tools: %w", err)
	}

	if err := RegisterIngestTools(s, sc); err != nil {
		return fmt.Errorf("failed to register ingest tools: %w", err)
	}

	if err := RegisterPreferenceTools(s, sc); err != nil {
		return fmt.Errorf("failed to register preference tools: %w", err)
	}

	return nil
}
