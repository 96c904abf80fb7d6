package cmd

import (
	"context"
	"fmt"
	"strings"

	draftsrender "github.com/bnema/crowdcast/internal/adapters/render/drafts"
	"github.com/bnema/crowdcast/internal/application"
	"github.com/bnema/crowdcast/internal/domain"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *app) *cobra.Command {
	var (
		insightID  string
		profileIDs []string
		groupTag   string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Prepare a discussion draft from an insight",
		Long:  "Pick a chat target from the group, a main poster and a set of responders, generate persona-styled responses and save the result as a draft.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			planner, err := app.planner(cmd.Context())
			if err != nil {
				return err
			}

			req := application.PlanRequest{
				InsightID:  domain.InsightID(strings.TrimSpace(insightID)),
				ProfileIDs: toProfileIDs(profileIDs),
				GroupTag:   groupTag,
			}

			var result application.PlanResult
			plan := func(ctx context.Context, progress func(application.PlanProgress)) error {
				req.Progress = progress
				var planErr error
				result, planErr = planner.Plan(ctx, req)
				return planErr
			}

			if quiet {
				err = plan(cmd.Context(), nil)
			} else {
				err = runPlanWithSpinner(cmd.Context(), cmd.ErrOrStderr(), plan)
			}
			if err != nil {
				return fmt.Errorf("plan discussion: %w", err)
			}

			rendered, err := app.render.plan(result, draftsrender.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render plan: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&insightID, "insight", "", "insight id (random when omitted)")
	cmd.Flags().StringSliceVar(&profileIDs, "profiles", nil, "comma-separated responder profile ids")
	cmd.Flags().StringVar(&groupTag, "group", "", "chat group tag (defaults to the settings group tag)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable the progress spinner")

	return cmd
}

func toProfileIDs(values []string) []domain.ProfileID {
	ids := make([]domain.ProfileID, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			ids = append(ids, domain.ProfileID(trimmed))
		}
	}
	return ids
}
