package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/memory"
)

// ServerContext holds the shared dependencies of the MCP server.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	orchestrator *agent.Orchestrator
	prefs        *memory.Store
	inbox        *gmail.Client
	metrics      *instrumentation.Metrics
	audit        *instrumentation.AuditLogger
	logger       *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithOrchestrator sets the run orchestrator.
func WithOrchestrator(o *agent.Orchestrator) Option {
	return func(sc *ServerContext) { sc.orchestrator = o }
}

// WithPreferences sets the preference store.
func WithPreferences(s *memory.Store) Option {
	return func(sc *ServerContext) { sc.prefs = s }
}

// WithInbox sets the Gmail ingestion client. It is optional: without
// Google credentials the ingest tool reports a configuration error and
// everything else keeps working.
func WithInbox(c *gmail.Client) Option {
	return func(sc *ServerContext) { sc.inbox = c }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the audit logger.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.audit = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// NewServerContext creates a server context wired with the given
// dependencies.
func NewServerContext(ctx context.Context, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Orchestrator returns the run orchestrator.
func (sc *ServerContext) Orchestrator() *agent.Orchestrator {
	return sc.orchestrator
}

// Preferences returns the preference store.
func (sc *ServerContext) Preferences() *memory.Store {
	return sc.prefs
}

// Inbox returns the Gmail client, or nil when no Google credentials
// are configured.
func (sc *ServerContext) Inbox() *gmail.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.inbox
}

// SetInbox replaces the Gmail client.
func (sc *ServerContext) SetInbox(c *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.inbox = c
}

// Metrics returns the metrics sink, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// SetAuditLogger replaces the audit logger.
func (sc *ServerContext) SetAuditLogger(a *instrumentation.AuditLogger) {
	sc.audit = a
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is idempotent.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
