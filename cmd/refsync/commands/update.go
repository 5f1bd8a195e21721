package commands

import (
	"github.com/rs/zerolog"
	"github.com/schemini/refsync/cmd/refsync/opts"
	"github.com/schemini/refsync/pkg/log"
	"github.com/schemini/refsync/pkg/operation"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewUpdateCmd creates a new update command
func NewUpdateCmd(factory opts.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <reference-folder> <target-folder>",
		Short: "Replace outdated reference copies with the target's newest",
		Long: `Update backs up every outdated reference copy under the configured
backup suffix, then overwrites it with the target folder's newest copy,
preserving the source's modified time. Target-only codes are reported
but never copied in; use integrate for that.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "update").Logger().WithContext(ctx)

			o, err := factory(ctx)
			if err != nil {
				return err
			}
			o.UserLogger.Header("updating reference folder")
			o.UserLogger.StartRun(ctx, log.RunBanner{
				Type:            operation.KeyUpdate,
				ReferenceFolder: args[0],
				TargetFolder:    args[1],
			})
			defer o.UserLogger.EndRun(ctx)

			if err := o.Service.StartUpdate(ctx, args[0], args[1]); err != nil {
				return errors.Errorf("starting update: %w", err)
			}
			return follow(ctx, o, operation.KeyUpdate)
		},
	}

	return cmd
}
