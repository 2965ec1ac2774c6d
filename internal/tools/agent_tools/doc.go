// Package agent_tools exposes the triage workflow over MCP: starting
// runs, resuming suspended ones, inspecting and aborting them,
// ingesting the Gmail inbox, and reading or overwriting preference
// profiles.
package agent_tools
