// Package common provides the shared instrumentation wrapper for MCP
// tool handlers: every registered tool reports invocation metrics and
// audit log entries through it, tagged with the run it operated on.
package common
