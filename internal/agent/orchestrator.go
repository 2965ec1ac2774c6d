package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/inboxagent/internal/email"
	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/memory"
)

// Deps are the collaborators an Orchestrator needs. Classifier,
// Generator and Store are required; Executor defaults to the stub,
// Checkpoints to an in-memory store, Logger to slog.Default(), and
// Metrics may be nil.
type Deps struct {
	Classifier  llm.Classifier
	Generator   llm.Generator
	Store       *memory.Store
	Executor    Executor
	Checkpoints Checkpointer
	Logger      *slog.Logger
	Metrics     *instrumentation.Metrics
}

// Orchestrator owns the run lifecycle: it starts runs, drives them
// between checkpoints, and applies review responses to suspended ones.
// All operations on the same run are serialized.
type Orchestrator struct {
	classifier  llm.Classifier
	generator   llm.Generator
	prefs       *memory.Store
	executor    Executor
	checkpoints Checkpointer
	cfg         Config
	logger      *slog.Logger
	metrics     *instrumentation.Metrics

	mu    sync.Mutex
	locks map[string]*runLock
}

// runLock serializes operations on one run. Entries are refcounted so
// the map does not accumulate a mutex for every run ever touched.
type runLock struct {
	mu   sync.Mutex
	refs int
}

// NewOrchestrator wires the workflow together.
func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	if deps.Executor == nil {
		deps.Executor = StubExecutor{}
	}
	if deps.Checkpoints == nil {
		deps.Checkpoints = NewMemoryCheckpointer()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Orchestrator{
		classifier:  deps.Classifier,
		generator:   deps.Generator,
		prefs:       deps.Store,
		executor:    deps.Executor,
		checkpoints: deps.Checkpoints,
		cfg:         cfg,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		locks:       make(map[string]*runLock),
	}
}

// StartOption customizes Start.
type StartOption func(*startOptions)

type startOptions struct {
	runID string
}

// WithRunID fixes the run ID instead of generating one. Starting a
// second run with an ID that already has a checkpoint fails with
// ErrRunExists, which makes ingestion from external sources
// idempotent.
func WithRunID(id string) StartOption {
	return func(o *startOptions) { o.runID = id }
}

// Start normalizes a raw email and drives a new run until it
// completes, fails, or suspends for human input.
func (o *Orchestrator) Start(ctx context.Context, raw map[string]any, opts ...StartOption) (*Run, error) {
	var options startOptions
	for _, opt := range opts {
		opt(&options)
	}
	id := options.runID
	if id == "" {
		id = uuid.NewString()
	}

	unlock := o.lockRun(id)
	defer unlock()

	if options.runID != "" {
		if _, err := o.checkpoints.Load(ctx, id); err == nil {
			return nil, fmt.Errorf("start run %s: %w", id, ErrRunExists)
		} else if !errors.Is(err, ErrRunNotFound) {
			return nil, fmt.Errorf("start run %s: %w", id, err)
		}
	}

	rec := email.Normalize(raw)
	now := time.Now().UTC()
	run := &Run{
		ID:        id,
		Status:    StatusRunning,
		Node:      NodeTriage,
		Email:     rec,
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.logger.Info("run started",
		logging.RunID(id),
		slog.String("from", logging.AnonymizeEmail(rec.Author)))
	o.metrics.RecordRunStarted(ctx)

	if err := o.checkpoint(ctx, run); err != nil {
		return nil, err
	}
	return o.drive(ctx, run)
}

// Resume applies a review response to a suspended run and drives it
// forward. Validation is strict and happens before any state changes:
// a bad response fails only this call and leaves the run suspended
// with its pending request intact.
func (o *Orchestrator) Resume(ctx context.Context, runID string, resp ReviewResponse) (*Run, error) {
	unlock := o.lockRun(runID)
	defer unlock()

	run, err := o.checkpoints.Load(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return nil, &InvalidResumeError{RunID: runID, Reason: "run does not exist", Err: err}
		}
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if run.Status != StatusAwaitingInput {
		return run, &InvalidResumeError{RunID: runID, Reason: fmt.Sprintf("run is %s, not awaiting input", run.Status)}
	}
	if run.Pending == nil {
		return run, &InvalidResumeError{RunID: runID, Reason: "run has no pending request"}
	}
	if err := validateResponse(run.Pending, resp); err != nil {
		return run, err
	}

	o.logger.Info("run resumed",
		logging.RunID(runID),
		logging.Node(string(run.Node)),
		slog.String("response_type", resp.Type))
	o.metrics.RecordResume(ctx, resp.Type)

	switch run.Node {
	case NodeTriageInterrupt:
		err = o.resumeNotify(ctx, run, resp)
	case NodeAgentInterrupt:
		err = o.resumeTool(ctx, run, resp)
	default:
		err = fmt.Errorf("run %s: suspended at unexpected node %q", runID, run.Node)
	}
	if err != nil {
		// Payload-level violations leave the run suspended; anything
		// else is a real workflow failure.
		var violation *ProtocolViolationError
		if errors.As(err, &violation) {
			return run, err
		}
		o.fail(ctx, run, err)
		return run, err
	}

	// The handler may have finished the run; persist its transition
	// before driving further nodes.
	if err := o.checkpoint(ctx, run); err != nil {
		return run, err
	}
	return o.drive(ctx, run)
}

// GetState returns the checkpointed state of a run.
func (o *Orchestrator) GetState(ctx context.Context, runID string) (*Run, error) {
	run, err := o.checkpoints.Load(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all checkpointed runs, newest first.
func (o *Orchestrator) ListRuns(ctx context.Context) ([]*Run, error) {
	return o.checkpoints.List(ctx)
}

// Abort terminally cancels a run. Aborting an already aborted run is
// a no-op; completed and failed runs cannot be aborted.
func (o *Orchestrator) Abort(ctx context.Context, runID string) (*Run, error) {
	unlock := o.lockRun(runID)
	defer unlock()

	run, err := o.checkpoints.Load(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	switch run.Status {
	case StatusAborted:
		return run, nil
	case StatusCompleted, StatusFailed:
		return run, &InvalidResumeError{RunID: runID, Reason: fmt.Sprintf("run is %s and cannot be aborted", run.Status)}
	}

	run.clearPending()
	run.Status = StatusAborted
	if err := o.checkpoint(ctx, run); err != nil {
		return run, err
	}
	o.logger.Info("run aborted", logging.RunID(runID))
	o.metrics.RecordRunFinished(ctx, string(StatusAborted))
	return run, nil
}

// drive advances the run until it suspends or terminates,
// checkpointing after every node transition.
func (o *Orchestrator) drive(ctx context.Context, run *Run) (*Run, error) {
	for run.Status == StatusRunning {
		err := o.step(ctx, run)
		if err != nil {
			o.fail(ctx, run, err)
			return run, err
		}
		if err := o.checkpoint(ctx, run); err != nil {
			return run, err
		}
	}

	switch run.Status {
	case StatusAwaitingInput:
		o.logger.Info("run awaiting input",
			logging.RunID(run.ID),
			logging.Node(string(run.Node)),
			slog.String("action", run.Pending.ActionRequest.Action))
		o.metrics.RecordSuspension(ctx, string(run.Node))
	case StatusCompleted:
		o.logger.Info("run completed",
			logging.RunID(run.ID),
			logging.Classification(string(run.Classification)),
			slog.Int("iterations", run.Iterations))
		o.metrics.RecordRunFinished(ctx, string(StatusCompleted))
	}
	return run, nil
}

// step executes the node the run is currently at.
func (o *Orchestrator) step(ctx context.Context, run *Run) error {
	ctx, span := instrumentation.StartRunSpan(ctx, run.ID, string(run.Node))
	defer span.End()

	var err error
	switch run.Node {
	case NodeTriage:
		err = o.triage(ctx, run)
	case NodeAgent:
		err = o.agentStep(ctx, run)
	default:
		err = fmt.Errorf("run %s: cannot advance from node %q", run.ID, run.Node)
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, run *Run, cause error) {
	run.clearPending()
	run.Status = StatusFailed
	run.Failure = cause.Error()
	if err := o.checkpoint(ctx, run); err != nil {
		o.logger.Error("checkpoint after failure", logging.RunID(run.ID), logging.Err(err))
	}
	o.logger.Error("run failed", logging.RunID(run.ID), logging.Err(cause))
	o.metrics.RecordRunFinished(ctx, string(StatusFailed))
}

func (o *Orchestrator) checkpoint(ctx context.Context, run *Run) error {
	run.UpdatedAt = time.Now().UTC()
	if err := o.checkpoints.Save(ctx, run); err != nil {
		return fmt.Errorf("checkpoint run %s: %w", run.ID, err)
	}
	return nil
}

// mergePreferences distills review feedback into a preference
// profile. Merge failures are logged and absorbed: losing one
// feedback signal must not take down the run.
func (o *Orchestrator) mergePreferences(ctx context.Context, run *Run, ns memory.Namespace, feedback []llm.Message) {
	if !o.cfg.Memory {
		return
	}
	_, err := o.prefs.Merge(ctx, ns, feedback)
	o.metrics.RecordPreferenceMerge(ctx, ns.String(), err == nil)
	if err != nil {
		o.logger.Warn("preference merge failed",
			logging.RunID(run.ID),
			logging.Namespace(ns.String()),
			logging.Err(err))
	}
}

// execute runs a tool call against the executor. Failures come back
// as observation strings so the conversation can continue.
func (o *Orchestrator) execute(ctx context.Context, run *Run, call llm.ToolCall) string {
	observation, err := dispatch(ctx, o.executor, call.Name, call.Arguments)
	o.metrics.RecordToolExecution(ctx, call.Name, err == nil)
	if err != nil {
		o.logger.Warn("tool execution failed",
			logging.RunID(run.ID),
			logging.Tool(call.Name),
			logging.Err(err))
		return fmt.Sprintf("Error executing %s: %v", call.Name, err)
	}
	o.logger.Debug("tool executed", logging.RunID(run.ID), logging.Tool(call.Name))
	return observation
}

// lockRun serializes operations on one run and returns the release
// function. The map entry is dropped once the last holder releases.
func (o *Orchestrator) lockRun(id string) func() {
	o.mu.Lock()
	lock, ok := o.locks[id]
	if !ok {
		lock = &runLock{}
		o.locks[id] = lock
	}
	lock.refs++
	o.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		o.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(o.locks, id)
		}
		o.mu.Unlock()
	}
}
