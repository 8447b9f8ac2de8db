package main

import (
	"context"
	"fmt"

	"github.com/RestinGreen/fee-forwarder/pkg/database"
	"github.com/RestinGreen/fee-forwarder/pkg/general"
	"github.com/RestinGreen/fee-forwarder/pkg/memory"
	"github.com/RestinGreen/fee-forwarder/pkg/peek"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) routesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage the configured conversion routes",
	}

	var importFile string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a routes file and store it in the route database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.config()
			if err != nil {
				return err
			}
			routes, err := general.LoadRoutesFile(importFile)
			if err != nil {
				return err
			}
			for _, route := range routes {
				if err := memory.ValidateRoute(g.Underlying, route); err != nil {
					return err
				}
			}
			store, err := c.openStore(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer store.Close()
			for _, route := range routes {
				if err := store.SaveRoute(cmd.Context(), route); err != nil {
					return err
				}
			}
			c.logger.Info("Routes imported", zap.Int("routes", len(routes)), zap.String("file", importFile))
			fmt.Fprintf(c.out, "imported %d routes\n", len(routes))
			return nil
		},
	}
	importCmd.Flags().StringVarP(&importFile, "file", "f", "configs/routes.toml", "routes file")

	var listFile string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the routes of a routes file or of the route database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var routes []types.Route
			var err error
			if listFile != "" {
				routes, err = general.LoadRoutesFile(listFile)
			} else {
				routes, err = c.storedRoutes(cmd.Context())
			}
			if err != nil {
				return err
			}
			peek.NewPeek(c.out, 18).Routes(routes)
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listFile, "file", "f", "", "routes file, the route database when empty")

	var deleteToken string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the route of a token from the route database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := general.ParseAddress(deleteToken)
			if err != nil {
				return err
			}
			g, err := c.config()
			if err != nil {
				return err
			}
			store, err := c.openStore(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeleteRoute(cmd.Context(), token)
		},
	}
	deleteCmd.Flags().StringVar(&deleteToken, "token", "", "fee token address")

	cmd.AddCommand(importCmd, listCmd, deleteCmd)
	return cmd
}

func (c *cli) openStore(ctx context.Context, g *general.General) (*database.RouteStore, error) {
	if !g.HasDatabase() {
		return nil, fmt.Errorf("PGSQL_DBNAME is not set")
	}
	store, err := database.Open(ctx, g.ConnString(), c.logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// storedRoutes loads routes from ROUTES_FILE when set, else from the database.
func (c *cli) storedRoutes(ctx context.Context) ([]types.Route, error) {
	g, err := c.config()
	if err != nil {
		return nil, err
	}
	if g.RoutesFile != "" {
		return general.LoadRoutesFile(g.RoutesFile)
	}
	store, err := c.openStore(ctx, g)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadRoutes(ctx)
}
