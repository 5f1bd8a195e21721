package commands

import (
	"github.com/rs/zerolog"
	"github.com/schemini/refsync/cmd/refsync/opts"
	"github.com/schemini/refsync/pkg/log"
	"github.com/schemini/refsync/pkg/operation"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewScanCmd creates a new scan command
func NewScanCmd(factory opts.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <reference-folder> <target-folder>",
		Short: "Compare the folders without changing anything",
		Long: `Scan indexes both folders by code identity and reports, per code,
whether the reference copy is current, outdated, missing or ambiguous.
Nothing on disk is modified.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "scan").Logger().WithContext(ctx)

			o, err := factory(ctx)
			if err != nil {
				return err
			}
			o.UserLogger.Header("scanning folders")
			o.UserLogger.StartRun(ctx, log.RunBanner{
				Type:            operation.KeyScan,
				ReferenceFolder: args[0],
				TargetFolder:    args[1],
			})
			defer o.UserLogger.EndRun(ctx)

			if err := o.Service.StartScan(ctx, args[0], args[1]); err != nil {
				return errors.Errorf("starting scan: %w", err)
			}
			return follow(ctx, o, operation.KeyScan)
		},
	}

	return cmd
}
