// Package resources provides MCP resources for exposing agent state.
// Resources are read-only data sources that MCP clients can fetch: the
// preference profiles the agent learns from review feedback, and the
// checkpointed triage runs.
package resources
