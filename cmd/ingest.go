package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/google"
	"github.com/teemow/inboxagent/internal/tools/batch"
)

func newIngestCmd() *cobra.Command {
	var (
		opts  agentOptions
		hours float64
		since string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch recent Gmail threads and start a triage run per thread",
		Long: `Fetch the threads that arrived in the mailbox since the cutoff and
start a triage run for each one.

Run IDs are derived from the Gmail thread ID, so ingesting twice is
safe: threads that already have a run are skipped, as are threads the
user has already answered.

Requires Google credentials (run 'inboxagent auth' first) and a
mailbox address (--mailbox or ` + envMailbox + `).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				return err
			}
			if !google.HasToken() {
				return fmt.Errorf("no Google credentials configured: set %s or run 'inboxagent auth'", google.EnvStaticToken)
			}
			if opts.mailbox == "" {
				return fmt.Errorf("no mailbox configured: pass --mailbox or set %s", envMailbox)
			}

			cutoff := time.Now().Add(-time.Duration(hours * float64(time.Hour)))
			if since != "" {
				parsed, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("--since must be RFC3339: %w", err)
				}
				cutoff = parsed
			}

			sc, cleanup, err := buildStack(cmd.Context(), &opts, newLogger(opts.debug), nil)
			if err != nil {
				return err
			}
			defer cleanup()
			defer func() { _ = sc.Shutdown() }()

			emails, err := sc.Inbox().FetchSince(cmd.Context(), cutoff)
			if err != nil {
				return fmt.Errorf("failed to fetch inbox: %w", err)
			}

			results := make([]batch.Result, 0, len(emails))
			for _, e := range emails {
				runID := gmail.RunID(e.ThreadID)
				if e.UserReplied {
					results = append(results, batch.NewSuccessResult(runID, "skipped: user already replied"))
					continue
				}
				run, err := sc.Orchestrator().Start(cmd.Context(), e.Raw(), agent.WithRunID(runID))
				switch {
				case errors.Is(err, agent.ErrRunExists):
					results = append(results, batch.NewSuccessResult(runID, "skipped: already ingested"))
				case err != nil:
					results = append(results, batch.NewErrorResult(runID, err))
				default:
					results = append(results, batch.NewSuccessResult(runID, fmt.Sprintf("run is %s", run.Status)))
				}
			}

			fmt.Println(batch.FormatResults(results))
			return nil
		},
	}

	registerAgentFlags(cmd, &opts)
	cmd.Flags().Float64Var(&hours, "hours", 24, "How many hours back to look")
	cmd.Flags().StringVar(&since, "since", "", "Explicit RFC3339 cutoff; overrides --hours")

	return cmd
}
