package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/spf13/cobra"
)

const defaultCodeTimeout = 2 * time.Minute

func newMailCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Mailbox helpers for profile logins",
	}

	var (
		profileID    string
		timeout      time.Duration
		skipExisting bool
	)

	codeCmd := &cobra.Command{
		Use:   "code",
		Short: "Wait for a login verification code in the profile mailbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, err := app.mailReader(cmd.Context(), domain.ProfileID(profileID), skipExisting)
			if err != nil {
				return err
			}

			code, err := reader.AwaitCode(cmd.Context(), timeout)
			if err != nil {
				return fmt.Errorf("await verification code: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), code)
			return err
		},
	}

	codeCmd.Flags().StringVar(&profileID, "profile", "", "profile whose mailbox to poll")
	codeCmd.Flags().DurationVar(&timeout, "timeout", defaultCodeTimeout, "how long to wait for the code")
	codeCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "mark unread matching mail as seen before polling")
	_ = codeCmd.MarkFlagRequired("profile")

	cmd.AddCommand(codeCmd)
	return cmd
}
