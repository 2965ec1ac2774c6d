package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agent"
)

// runView is the compact run representation the CLI prints. The show
// subcommand prints the full checkpointed state instead.
type runView struct {
	RunID          string               `json:"run_id"`
	Status         agent.Status         `json:"status"`
	Node           agent.Node           `json:"node"`
	Classification agent.Classification `json:"classification,omitempty"`
	Iterations     int                  `json:"iterations,omitempty"`
	Failure        string               `json:"failure,omitempty"`
	Pending        *agent.ReviewRequest `json:"pending_request,omitempty"`
}

func viewOf(run *agent.Run) runView {
	return runView{
		RunID:          run.ID,
		Status:         run.Status,
		Node:           run.Node,
		Classification: run.Classification,
		Iterations:     run.Iterations,
		Failure:        run.Failure,
		Pending:        run.Pending,
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect triage runs",
	}
	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var (
		opts   agentOptions
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				return err
			}
			sc, cleanup, err := buildStack(cmd.Context(), &opts, newLogger(opts.debug), nil)
			if err != nil {
				return err
			}
			defer cleanup()
			defer func() { _ = sc.Shutdown() }()

			runs, err := sc.Orchestrator().ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			views := make([]runView, 0, len(runs))
			for _, run := range runs {
				if status != "" && run.Status != agent.Status(status) {
					continue
				}
				views = append(views, viewOf(run))
			}
			return printJSON(views)
		},
	}

	registerAgentFlags(cmd, &opts)
	cmd.Flags().StringVar(&status, "status", "", "Only list runs with this status (running, awaiting_input, completed, failed, aborted)")

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	var opts agentOptions

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the full checkpointed state of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				return err
			}
			sc, cleanup, err := buildStack(cmd.Context(), &opts, newLogger(opts.debug), nil)
			if err != nil {
				return err
			}
			defer cleanup()
			defer func() { _ = sc.Shutdown() }()

			run, err := sc.Orchestrator().GetState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(run)
		},
	}

	registerAgentFlags(cmd, &opts)

	return cmd
}
