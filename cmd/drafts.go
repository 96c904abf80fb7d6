package cmd

import (
	"encoding/json"
	"fmt"

	draftsrender "github.com/bnema/crowdcast/internal/adapters/render/drafts"
	"github.com/bnema/crowdcast/internal/domain"
	"github.com/spf13/cobra"
)

func newDraftsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and remove saved discussion drafts",
	}

	cmd.AddCommand(
		newDraftsListCmd(app),
		newDraftsShowCmd(app),
		newDraftsDeleteCmd(app),
	)

	return cmd
}

func newDraftsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.draftService()
			if err != nil {
				return err
			}

			summaries, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			rendered, err := app.render.list(summaries, draftsrender.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render drafts: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}

func newDraftsShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show DRAFT_ID",
		Short: "Show a draft with its responses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.draftService()
			if err != nil {
				return err
			}

			draft, err := svc.Get(cmd.Context(), domain.DraftID(args[0]))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(draft)
			}

			rendered, err := app.render.draft(draft, draftsrender.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render draft: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the draft as JSON")

	return cmd
}

func newDraftsDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete DRAFT_ID",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.draftService()
			if err != nil {
				return err
			}

			if err := svc.Delete(cmd.Context(), domain.DraftID(args[0])); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted draft %s\n", args[0])
			return err
		},
	}
}
