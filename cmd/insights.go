package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/spf13/cobra"
)

func newInsightsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Inspect the insight store",
	}

	cmd.AddCommand(
		newInsightsCountCmd(app),
		newInsightsShowCmd(app),
		newInsightsDeleteCmd(app),
	)

	return cmd
}

func newInsightsCountCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print how many insights are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.draftService()
			if err != nil {
				return err
			}

			count, err := svc.CountInsights(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
			return err
		},
	}
}

func newInsightsShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show INSIGHT_ID",
		Short: "Print an insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.draftService()
			if err != nil {
				return err
			}

			insight, err := svc.Insight(cmd.Context(), domain.InsightID(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "id:\t%s\n", insight.ID)
			if insight.PostID != "" {
				_, _ = fmt.Fprintf(out, "post:\t%s\n", insight.PostID)
			}
			if !insight.GeneratedAt.IsZero() {
				_, _ = fmt.Fprintf(out, "generated:\t%s\n", insight.GeneratedAt.Format(time.RFC3339))
			}
			if len(insight.Images) > 0 {
				_, _ = fmt.Fprintf(out, "images:\t%s\n", strings.Join(insight.Images, ", "))
			}
			_, err = fmt.Fprintf(out, "\n%s\n", insight.Content)
			return err
		},
	}
}

func newInsightsDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete INSIGHT_ID",
		Short: "Delete an insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.draftService()
			if err != nil {
				return err
			}

			if err := svc.DeleteInsight(cmd.Context(), domain.InsightID(args[0])); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted insight %s\n", args[0])
			return err
		},
	}
}
