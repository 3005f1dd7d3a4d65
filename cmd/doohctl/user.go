package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/config"
	"github.com/dooh-ops/backend/internal/auth"
	"github.com/dooh-ops/backend/pkg/utils"
)

func newUserCmd(logger *zap.Logger) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard accounts",
	}

	var email, password, name, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account; use it to bootstrap the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			if err := utils.ValidatePassword(password); err != nil {
				return err
			}
			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
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

			u, err := auth.NewRepository(pool).Create(ctx, email, hash, name, r)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u.ToPublic())
		},
	}
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "initial password")
	create.Flags().StringVar(&name, "name", "", "full name")
	create.Flags().StringVar(&role, "role", "admin", "admin, operator or viewer")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	user.AddCommand(create)
	return user
}
