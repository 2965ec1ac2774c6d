package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/calendar"
	"github.com/teemow/inboxagent/internal/executor"
	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/google"
	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/llm"
	"github.com/teemow/inboxagent/internal/memory"
	"github.com/teemow/inboxagent/internal/runstore"
	"github.com/teemow/inboxagent/internal/server"
)

// Environment fallbacks for the agent flags. Flags win; a .env file is
// loaded before flag resolution.
const (
	envDataDir      = "INBOXAGENT_DATA_DIR"
	envMailbox      = "INBOXAGENT_MAILBOX"
	envModel        = "INBOXAGENT_MODEL"
	envDistillModel = "INBOXAGENT_DISTILL_MODEL"
	envOpenAIKey    = "INBOXAGENT_OPENAI_API_KEY"
	envMetricsAddr  = "INBOXAGENT_METRICS_ADDR"
	envDebug        = "INBOXAGENT_DEBUG"
)

// agentOptions holds the flags shared by every command that drives the
// workflow.
type agentOptions struct {
	dataDir       string
	mailbox       string
	model         string
	distillModel  string
	debug         bool
	noReview      bool
	noMemory      bool
	noCalendar    bool
	maxIterations int
}

// registerAgentFlags wires the shared workflow flags onto a command.
func registerAgentFlags(cmd *cobra.Command, o *agentOptions) {
	cmd.Flags().StringVar(&o.dataDir, "data-dir", "", "Directory for the run and preference databases. Can also use "+envDataDir+" env var. Default: ~/.local/share/inboxagent")
	cmd.Flags().StringVar(&o.mailbox, "mailbox", "", "Gmail address the agent acts for. Can also use "+envMailbox+" env var. Without it (or without Google credentials) tool actions run against the stub executor.")
	cmd.Flags().StringVar(&o.model, "model", "", "OpenAI model for triage and response generation. Can also use "+envModel+" env var. Default: "+llm.DefaultModel)
	cmd.Flags().StringVar(&o.distillModel, "distill-model", "", "OpenAI model for preference distillation. Can also use "+envDistillModel+" env var. Default: "+llm.DefaultDistillModel)
	cmd.Flags().BoolVar(&o.debug, "debug", false, "Enable debug logging. Can also use "+envDebug+"=true env var.")
	cmd.Flags().BoolVar(&o.noReview, "no-review", false, "Disable human review: gated tools execute immediately and notify classifications complete without a checkpoint")
	cmd.Flags().BoolVar(&o.noMemory, "no-memory", false, "Disable preference memory: prompts use built-in defaults and review feedback is discarded")
	cmd.Flags().BoolVar(&o.noCalendar, "no-calendar", false, "Disable calendar tooling: the agent cannot check availability or schedule meetings, only draft emails")
	cmd.Flags().IntVar(&o.maxIterations, "max-iterations", agent.DefaultMaxIterations, "Maximum generator turns in the response loop before the run fails")
}

// resolve applies environment fallbacks and defaults.
func (o *agentOptions) resolve() error {
	if o.dataDir == "" {
		o.dataDir = os.Getenv(envDataDir)
	}
	if o.dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory, set --data-dir or %s: %w", envDataDir, err)
		}
		o.dataDir = filepath.Join(home, ".local", "share", "inboxagent")
	}
	if o.mailbox == "" {
		o.mailbox = os.Getenv(envMailbox)
	}
	if o.model == "" {
		o.model = os.Getenv(envModel)
	}
	if o.distillModel == "" {
		o.distillModel = os.Getenv(envDistillModel)
	}
	if !o.debug && os.Getenv(envDebug) == "true" {
		o.debug = true
	}
	return nil
}

func (o *agentOptions) agentConfig() agent.Config {
	cfg := agent.DefaultConfig()
	cfg.HITL = !o.noReview
	cfg.Memory = !o.noMemory
	cfg.CalendarTools = !o.noCalendar
	if o.maxIterations > 0 {
		cfg.MaxIterations = o.maxIterations
	}
	return cfg
}

// newLogger builds the process logger. Logs go to stderr: stdout is
// reserved for the stdio MCP transport and for command output.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openAIKey resolves the OpenAI API key from the environment.
func openAIKey() string {
	if key := os.Getenv(envOpenAIKey); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}

// buildStack assembles the full workflow: sqlite-backed checkpoints and
// preferences, the OpenAI client, the executor, and the orchestrator,
// wrapped in a server context. The returned cleanup closes the
// databases; call it after shutting down the context.
func buildStack(ctx context.Context, o *agentOptions, logger *slog.Logger, metrics *instrumentation.Metrics) (*server.ServerContext, func(), error) {
	if err := os.MkdirAll(o.dataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory %s: %w", o.dataDir, err)
	}

	runs, err := runstore.Open(filepath.Join(o.dataDir, "runs.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run store: %w", err)
	}
	backing, err := memory.NewSQLiteBacking(filepath.Join(o.dataDir, "preferences.db"))
	if err != nil {
		_ = runs.Close()
		return nil, nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	cleanup := func() {
		_ = backing.Close()
		_ = runs.Close()
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:       openAIKey(),
		Model:        o.model,
		DistillModel: o.distillModel,
	}, logger).WithMetrics(metrics)

	store := memory.New(backing, llmClient, memory.WithLogger(logger))

	opts := []server.Option{
		server.WithPreferences(store),
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	}

	// Without Google credentials the orchestrator falls back to the
	// stub executor: drafts are recorded in the run log but nothing is
	// sent. That is also the right mode for development.
	var exec agent.Executor
	if google.HasToken() && o.mailbox != "" {
		mail, err := gmail.NewClient(ctx, o.mailbox, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create Gmail client: %w", err)
		}
		cal, err := calendar.NewClient(ctx, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create Calendar client: %w", err)
		}
		exec = executor.NewLive(mail, cal, logger)
		opts = append(opts, server.WithInbox(mail))
	} else {
		logger.Info("no Google credentials or mailbox configured, tool actions run against the stub executor")
	}

	orc := agent.NewOrchestrator(agent.Deps{
		Classifier:  llmClient,
		Generator:   llmClient,
		Store:       store,
		Executor:    exec,
		Checkpoints: runs,
		Logger:      logger,
		Metrics:     metrics,
	}, o.agentConfig())
	opts = append(opts, server.WithOrchestrator(orc))

	return server.NewServerContext(ctx, opts...), cleanup, nil
}
