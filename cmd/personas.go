package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPersonasCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "Inspect persona definitions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List loaded persona usernames",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				catalog, err := app.personaCatalog(cmd.Context())
				if err != nil {
					return err
				}

				personas := catalog.List()
				names := make([]string, 0, len(personas))
				for _, persona := range personas {
					names = append(names, persona.Username)
				}
				sort.Strings(names)

				for _, name := range names {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "main",
			Short: "Show the main persona definition",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				catalog, err := app.personaCatalog(cmd.Context())
				if err != nil {
					return err
				}

				persona, err := catalog.Main()
				if err != nil {
					return err
				}

				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(persona.Descriptor); err != nil {
					return fmt.Errorf("encode persona %s: %w", persona.Username, err)
				}
				return enc.Close()
			},
		},
	)

	return cmd
}
