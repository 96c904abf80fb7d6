package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/spf13/cobra"
)

func newProfilesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage chat profiles",
	}

	cmd.AddCommand(
		newProfilesListCmd(app),
		newProfilesSetSessionCmd(app),
		newProfilesSetCredentialsCmd(app),
		newProfilesDeleteCmd(app),
	)

	return cmd
}

func newProfilesListCmd(app *app) *cobra.Command {
	var filter domain.ProfileFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.profileService().List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			for _, profile := range profiles {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					profile.ID,
					profile.DisplayName(),
					profile.Character,
					strings.Join(profile.Tags, ","),
				)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Tag, "tag", "", "only profiles carrying this tag")
	cmd.Flags().StringVar(&filter.Character, "character", "", "only profiles with this character")

	return cmd
}

func newProfilesSetSessionCmd(app *app) *cobra.Command {
	var storage, credentials string

	cmd := &cobra.Command{
		Use:   "set-session PROFILE_ID",
		Short: "Point a profile at its browser session directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ProfileID(args[0])
			if err := app.profileService().SetSessionLocator(cmd.Context(), id, storage, credentials); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "updated session for %s\n", id)
			return err
		},
	}

	cmd.Flags().StringVar(&storage, "storage", "", "browser user data directory")
	cmd.Flags().StringVar(&credentials, "credentials", "", "credential store reference")
	_ = cmd.MarkFlagRequired("storage")

	return cmd
}

func newProfilesSetCredentialsCmd(app *app) *cobra.Command {
	var creds domain.Credentials

	cmd := &cobra.Command{
		Use:   "set-credentials PROFILE_ID",
		Short: "Store mailbox credentials for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ProfileID(args[0])
			if err := app.profileService().SetCredentials(cmd.Context(), id, creds); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "stored credentials for %s\n", id)
			return err
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "mailbox address")
	cmd.Flags().StringVar(&creds.Password, "password", "", "mailbox password or app password")
	cmd.Flags().StringVar(&creds.IMAPServer, "imap-server", "", "IMAP host[:port]")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newProfilesDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PROFILE_ID",
		Short: "Delete a profile and its stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.profileService().Delete(cmd.Context(), domain.ProfileID(args[0])); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted profile %s\n", args[0])
			return err
		},
	}
}
