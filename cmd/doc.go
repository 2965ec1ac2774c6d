// Package cmd implements the command-line interface for inboxagent.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the triage workflow to AI assistants
//   - triage: Run a single email through the workflow and print the run handle
//   - resume: Apply a review response to a suspended run
//   - runs: List runs or show the full state of one run
//   - ingest: Fetch recent Gmail threads and start a run per thread
//   - auth: Authorize Gmail and Calendar access
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
