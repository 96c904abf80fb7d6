package cmd

import (
	"fmt"

	"github.com/bnema/crowdcast/internal/application"
	"github.com/bnema/crowdcast/internal/domain"
	"github.com/spf13/cobra"
)

func newPublishCmd(app *app) *cobra.Command {
	var (
		keepDraft bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "publish DRAFT_ID",
		Short: "Publish a saved discussion draft",
		Long:  "Post the main insight, then each response after its delay. Failed responses are reported and do not stop the run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer app.close()

			publisher, err := app.publisher()
			if err != nil {
				return err
			}

			result, err := publisher.Publish(cmd.Context(), domain.DraftID(args[0]), application.PublishOptions{
				DeleteAfter: !keepDraft,
				DryRun:      dryRun,
			})
			if err != nil {
				return fmt.Errorf("publish draft %s: %w", args[0], err)
			}

			rendered, err := app.render.publish(result)
			if err != nil {
				return fmt.Errorf("render publish result: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&keepDraft, "keep-draft", false, "keep the draft and insight after publishing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log what would be posted without opening a browser")

	return cmd
}
