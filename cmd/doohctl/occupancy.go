package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/config"
	"github.com/dooh-ops/backend/internal/assets"
	"github.com/dooh-ops/backend/internal/playlist"
	"github.com/dooh-ops/backend/internal/quotes"
	"github.com/dooh-ops/backend/internal/schedule"
)

func newOccupancyCmd(logger *zap.Logger) *cobra.Command {
	var assetID, start, end string
	cmd := &cobra.Command{
		Use:   "occupancy",
		Short: "Report a panel's occupancy and soft-conflict warning over a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(assetID)
			if err != nil {
				return fmt.Errorf("invalid --asset: %w", err)
			}
			today := schedule.DateKey(time.Now())
			if start == "" {
				start = today
			}
			if end == "" {
				end = start
			}

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

			svc := assets.NewService(
				assets.NewRepository(pool),
				playlist.NewRepository(pool),
				quotes.NewRepository(pool),
				schedule.NewEngine(cfg.Scheduling.Rules()),
			)
			report, err := svc.Occupancy(ctx, id, start, end)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&assetID, "asset", "", "panel id")
	cmd.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default start)")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}
