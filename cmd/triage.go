package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agent"
)

func newTriageCmd() *cobra.Command {
	var (
		opts  agentOptions
		runID string
	)

	cmd := &cobra.Command{
		Use:   "triage [file]",
		Short: "Triage a single email",
		Long: `Run one email through the triage workflow and print the run handle.

The email is read as a JSON object from the given file, or from stdin
when no file is given. Both the standard schema (author, to, subject,
email_thread) and the Gmail export schema (from, to, subject, page_content)
are accepted; missing fields get placeholders.

A run that needs review suspends and prints the pending request; apply
the review with 'inboxagent resume'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				return err
			}

			raw, err := readEmail(args)
			if err != nil {
				return err
			}

			sc, cleanup, err := buildStack(cmd.Context(), &opts, newLogger(opts.debug), nil)
			if err != nil {
				return err
			}
			defer cleanup()
			defer func() { _ = sc.Shutdown() }()

			var startOpts []agent.StartOption
			if runID != "" {
				startOpts = append(startOpts, agent.WithRunID(runID))
			}

			run, err := sc.Orchestrator().Start(cmd.Context(), raw, startOpts...)
			if err != nil {
				if run != nil {
					// The failure is checkpointed; show the handle alongside.
					_ = printJSON(viewOf(run))
				}
				return err
			}
			return printJSON(viewOf(run))
		},
	}

	registerAgentFlags(cmd, &opts)
	cmd.Flags().StringVar(&runID, "run-id", "", "Fix the run ID instead of generating one")

	return cmd
}

// readEmail reads the raw email record from the file argument or stdin.
func readEmail(args []string) (map[string]any, error) {
	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
		}
	} else {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("email must be a JSON object: %w", err)
	}
	return raw, nil
}
