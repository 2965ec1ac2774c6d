package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod         = "method"
	attrPath           = "path"
	attrStatus         = "status"
	attrOperation      = "operation"
	attrService        = "service"
	attrTool           = "tool"
	attrRunID          = "run_id"
	attrClassification = "classification"
	attrNode           = "node"
	attrResponseType   = "response_type"
	attrNamespace      = "namespace"
	attrModel          = "model"
)

// Metrics provides methods for recording observability metrics. All
// record methods are safe on a nil receiver so callers can run without
// instrumentation.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Agent workflow metrics
	runsStartedTotal          metric.Int64Counter
	runsFinishedTotal         metric.Int64Counter
	triageClassificationTotal metric.Int64Counter
	runSuspensionsTotal       metric.Int64Counter
	runResumesTotal           metric.Int64Counter
	toolExecutionsTotal       metric.Int64Counter
	preferenceMergesTotal     metric.Int64Counter

	// LLM metrics
	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Configuration
	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Agent workflow metrics
	m.runsStartedTotal, err = meter.Int64Counter(
		"agent_runs_started_total",
		metric.WithDescription("Total number of triage runs started"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_runs_started_total counter: %w", err)
	}

	m.runsFinishedTotal, err = meter.Int64Counter(
		"agent_runs_finished_total",
		metric.WithDescription("Total number of triage runs reaching a terminal status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_runs_finished_total counter: %w", err)
	}

	m.triageClassificationTotal, err = meter.Int64Counter(
		"triage_classifications_total",
		metric.WithDescription("Total number of triage classifications by category"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_classifications_total counter: %w", err)
	}

	m.runSuspensionsTotal, err = meter.Int64Counter(
		"agent_run_suspensions_total",
		metric.WithDescription("Total number of runs suspended for human review"),
		metric.WithUnit("{suspension}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_run_suspensions_total counter: %w", err)
	}

	m.runResumesTotal, err = meter.Int64Counter(
		"agent_run_resumes_total",
		metric.WithDescription("Total number of review responses applied to suspended runs"),
		metric.WithUnit("{resume}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_run_resumes_total counter: %w", err)
	}

	m.toolExecutionsTotal, err = meter.Int64Counter(
		"agent_tool_executions_total",
		metric.WithDescription("Total number of agent tool executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_tool_executions_total counter: %w", err)
	}

	m.preferenceMergesTotal, err = meter.Int64Counter(
		"preference_merges_total",
		metric.WithDescription("Total number of preference profile merges"),
		metric.WithUnit("{merge}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create preference_merges_total counter: %w", err)
	}

	// LLM Metrics
	m.llmRequestsTotal, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Total number of LLM API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_requests_total counter: %w", err)
	}

	m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("LLM API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_request_duration_seconds histogram: %w", err)
	}

	// Google API Metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// statusString converts a success flag to the status label values used
// across all metrics.
func statusString(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRunStarted records the start of a triage run.
func (m *Metrics) RecordRunStarted(ctx context.Context) {
	if m == nil || m.runsStartedTotal == nil {
		return // Instrumentation not initialized
	}

	m.runsStartedTotal.Add(ctx, 1)
}

// RecordRunFinished records a run reaching a terminal status
// ("completed", "failed" or "aborted").
func (m *Metrics) RecordRunFinished(ctx context.Context, status string) {
	if m == nil || m.runsFinishedTotal == nil {
		return // Instrumentation not initialized
	}

	m.runsFinishedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStatus, status),
	))
}

// RecordTriage records a triage classification
// ("ignore", "notify" or "respond").
func (m *Metrics) RecordTriage(ctx context.Context, classification string) {
	if m == nil || m.triageClassificationTotal == nil {
		return // Instrumentation not initialized
	}

	m.triageClassificationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrClassification, classification),
	))
}

// RecordSuspension records a run suspending for human review at the
// given workflow node.
func (m *Metrics) RecordSuspension(ctx context.Context, node string) {
	if m == nil || m.runSuspensionsTotal == nil {
		return // Instrumentation not initialized
	}

	m.runSuspensionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrNode, node),
	))
}

// RecordResume records a review response applied to a suspended run
// ("accept", "edit", "ignore" or "response").
func (m *Metrics) RecordResume(ctx context.Context, responseType string) {
	if m == nil || m.runResumesTotal == nil {
		return // Instrumentation not initialized
	}

	m.runResumesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResponseType, responseType),
	))
}

// RecordToolExecution records an agent tool execution and whether it
// produced an observation or an absorbed error.
func (m *Metrics) RecordToolExecution(ctx context.Context, tool string, success bool) {
	if m == nil || m.toolExecutionsTotal == nil {
		return // Instrumentation not initialized
	}

	m.toolExecutionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, statusString(success)),
	))
}

// RecordPreferenceMerge records a preference profile merge attempt for
// a namespace.
func (m *Metrics) RecordPreferenceMerge(ctx context.Context, namespace string, success bool) {
	if m == nil || m.preferenceMergesTotal == nil {
		return // Instrumentation not initialized
	}

	m.preferenceMergesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrNamespace, namespace),
		attribute.String(attrStatus, statusString(success)),
	))
}

// RecordLLMRequest records an LLM API request with operation
// ("classify", "generate" or "distill"), model, status, and duration.
func (m *Metrics) RecordLLMRequest(ctx context.Context, operation, model, status string, duration time.Duration) {
	if m == nil || m.llmRequestsTotal == nil || m.llmRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	}

	m.llmRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.llmRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (gmail, calendar)
//   - operation: Operation type (list, get, send, insert, freebusy, etc.)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
//
// Parameters:
//   - toolName: Name of the MCP tool (e.g., "triage_email", "resume_run")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the tool execution
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocationWithRun records an MCP tool invocation tagged with
// the run it touched. The run_id label is high-cardinality, so it is only
// emitted when detailedLabels is enabled.
func (m *Metrics) RecordToolInvocationWithRun(ctx context.Context, toolName, status, runID string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && runID != "" {
		attrs = append(attrs, attribute.String(attrRunID, runID))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
