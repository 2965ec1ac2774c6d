// Package server provides the MCP server context and the operational
// HTTP endpoints of the inboxagent application.
//
// ServerContext carries the shared dependencies every MCP tool handler
// needs: the run orchestrator, the preference store, the Gmail
// ingestion client, and the instrumentation sinks. MetricsServer
// serves Prometheus metrics and health probes on a dedicated port so
// operational traffic never mixes with the stdio MCP transport.
package server
