package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/config"
	"github.com/dooh-ops/backend/pkg/database"
)

func newRootCmd(logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "doohctl",
		Short:         "Operator tools for the DOOH scheduling backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newValidateCmd(logger),
		newOccupancyCmd(logger),
		newMigrateCmd(logger),
		newUserCmd(logger),
	)
	return root
}

func openPool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	return database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
