package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail and Calendar access",
		Long: `Run the Google OAuth flow and cache the resulting token on disk.

Requires an OAuth client: set ` + google.EnvClientID + ` and
` + google.EnvClientSecret + ` before running. Visit the printed URL,
grant access, and paste the authorization code back here.

For headless deployments a static access token can be supplied via
` + google.EnvStaticToken + ` instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := google.GetAuthURL()
			if err != nil {
				return err
			}

			fmt.Printf("Visit the following URL and grant access:\n\n  %s\n\n", url)
			fmt.Print("Authorization code: ")

			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() {
				return fmt.Errorf("no authorization code provided")
			}
			code := strings.TrimSpace(scanner.Text())
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			if err := google.SaveToken(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Println("Token saved.")
			return nil
		},
	}

	return cmd
}
