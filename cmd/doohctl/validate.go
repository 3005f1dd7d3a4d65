package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/config"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/pkg/storage"
)

var errNotApproved = errors.New("creative did not pass validation")

func newValidateCmd(logger *zap.Logger) *cobra.Command {
	var target, contentType string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a creative against a panel resolution without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path := args[0]
			f := mediaval.File{
				Path:        path,
				Name:        filepath.Base(path),
				ContentType: storage.ContentTypeFor(contentType, path),
			}
			v := mediaval.NewValidator(mediaval.NewFallbackDecoder(cfg.Media.FFProbePath), cfg.Scheduling.Rules())
			res := v.Validate(cmd.Context(), f, target)
			logger.Info("validated", zap.String("file", path), zap.Bool("approved", res.Approved))

			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			if !res.Approved {
				return errNotApproved
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "panel resolution WxH (default from DEFAULT_TARGET_RESOLUTION)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type; guessed from the extension when empty")
	return cmd
}
