package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCaptchaCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captcha",
		Short: "Captcha solving helpers",
	}

	var siteKey, pageURL string

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a captcha through the configured solving service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := app.captchaSolver().Solve(cmd.Context(), siteKey, pageURL)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	solveCmd.Flags().StringVar(&siteKey, "site-key", "", "captcha site key")
	solveCmd.Flags().StringVar(&pageURL, "url", "", "page url hosting the captcha")
	_ = solveCmd.MarkFlagRequired("site-key")
	_ = solveCmd.MarkFlagRequired("url")

	cmd.AddCommand(solveCmd)
	return cmd
}
