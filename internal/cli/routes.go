package cli

import (
	"github.com/spf13/cobra"

	"infinite-experiment/flightlog/internal/db/repositories"
)

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect and rebuild the routes table",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Recompute every route from the logged flights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			set, err := a.routes.RebuildRoutes(cmd.Context())
			if err != nil {
				return err
			}
			routes, err := repositories.NewRouteRepository(a.store.DB()).All(cmd.Context())
			if err != nil {
				return err
			}
			renderRoutes(cmd.OutOrStdout(), routes)
			renderSkipped(cmd.ErrOrStderr(), set)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the routes as last rebuilt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			routes, err := repositories.NewRouteRepository(appFrom(cmd).store.DB()).All(cmd.Context())
			if err != nil {
				return err
			}
			renderRoutes(cmd.OutOrStdout(), routes)
			return nil
		},
	})
	return cmd
}
