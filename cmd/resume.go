package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agent"
)

func newResumeCmd() *cobra.Command {
	var (
		opts         agentOptions
		responseType string
		rawArgs      string
		feedback     string
	)

	cmd := &cobra.Command{
		Use:   "resume <run-id>",
		Short: "Apply a review response to a suspended run",
		Long: `Apply a human review response to a run that is awaiting input.

Response types:
  accept    execute the pending action as proposed
  edit      execute with replacement arguments (--args '{"to": ...}')
  ignore    drop the action and end the run
  response  give free-text feedback instead (--feedback "...")

A response the pending request does not allow fails the command and
leaves the run suspended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				return err
			}

			payload, err := resumePayload(responseType, rawArgs, feedback)
			if err != nil {
				return err
			}

			sc, cleanup, err := buildStack(cmd.Context(), &opts, newLogger(opts.debug), nil)
			if err != nil {
				return err
			}
			defer cleanup()
			defer func() { _ = sc.Shutdown() }()

			run, err := sc.Orchestrator().Resume(cmd.Context(), args[0], agent.ReviewResponse{
				Type: responseType,
				Args: payload,
			})
			if err != nil {
				return err
			}
			return printJSON(viewOf(run))
		},
	}

	registerAgentFlags(cmd, &opts)
	cmd.Flags().StringVar(&responseType, "type", "", "Response type: accept, edit, ignore or response")
	cmd.Flags().StringVar(&rawArgs, "args", "", "Replacement arguments for edit, as a JSON object")
	cmd.Flags().StringVar(&feedback, "feedback", "", "Free-text feedback for the response type")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// resumePayload builds the response payload from the two flag forms.
func resumePayload(responseType, rawArgs, feedback string) (json.RawMessage, error) {
	if rawArgs != "" && feedback != "" {
		return nil, fmt.Errorf("--args and --feedback are mutually exclusive")
	}
	if feedback != "" {
		return json.Marshal(feedback)
	}
	if rawArgs == "" {
		return nil, nil
	}
	if responseType == agent.ResponseFeedback {
		return json.Marshal(rawArgs)
	}
	if !json.Valid([]byte(rawArgs)) {
		return nil, fmt.Errorf("--args must be a JSON object")
	}
	return json.RawMessage(rawArgs), nil
}
