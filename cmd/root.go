package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "crowdcast",
		Short:         "Plan and publish multi-profile chat discussions",
		Long:          "crowdcast turns stored insights into discussion drafts with persona-styled responses from several chat profiles, then publishes them with staggered delays.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}

		logger, err := config.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		app.logger = logger
		return nil
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newPlanCmd(app),
		newPublishCmd(app),
		newDraftsCmd(app),
		newInsightsCmd(app),
		newProfilesCmd(app),
		newPersonasCmd(app),
		newMailCmd(app),
		newCaptchaCmd(app),
	)

	return rootCmd
}
