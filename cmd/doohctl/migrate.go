package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/config"
	"github.com/dooh-ops/backend/pkg/database"
)

func newMigrateCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := database.Migrate(ctx, pool, logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return err
			}
			for _, name := range applied {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
