// Package instrumentation provides comprehensive OpenTelemetry instrumentation
// for the inboxagent MCP server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for triage runs, LLM requests, and Google API calls
//   - Distributed tracing for workflow nodes, LLM requests, and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Triage Run Metrics:
//   - agent_runs_started_total: Counter of started triage runs
//   - agent_runs_finished_total: Counter of finished runs by terminal status
//   - triage_classifications_total: Counter of triage verdicts by classification
//   - agent_run_suspensions_total: Counter of human-review suspensions by node
//   - agent_run_resumes_total: Counter of resumes by response type
//   - agent_tool_executions_total: Counter of agent tool executions by tool and status
//   - preference_merges_total: Counter of preference merges by namespace and status
//
// LLM Metrics:
//   - llm_requests_total: Counter of LLM requests by operation, model, status
//   - llm_request_duration_seconds: Histogram of LLM request durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Workflow node execution (run.<node>)
//   - LLM requests (llm.<operation>)
//   - Google API calls (google.<service>.<operation>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxagent)
//
// # Example Usage
//
//	// Initialize instrumentation
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "inboxagent",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Get metrics recorder
//	recorder := provider.Metrics()
//
//	// Record a triage verdict
//	recorder.RecordTriage(ctx, "respond")
//
//	// Record an LLM request
//	recorder.RecordLLMRequest(ctx, "classify", "gpt-4o", "success", time.Since(start))
//
//	// Record an MCP tool invocation
//	recorder.RecordToolInvocation(ctx, "triage_email", "success", time.Since(start))
package instrumentation
