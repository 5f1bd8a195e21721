package commands

import (
	"github.com/rs/zerolog"
	"github.com/schemini/refsync/cmd/refsync/opts"
	"github.com/schemini/refsync/pkg/log"
	"github.com/schemini/refsync/pkg/operation"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewIntegrateCmd creates a new integrate command
func NewIntegrateCmd(factory opts.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrate <reference-folder> <target-folder> <code>...",
		Short: "Copy selected codes from the target into the reference folder",
		Long: `Integrate copies the newest target file of each selected code into the
reference folder, honoring the configured folder-organization
convention, and refreshes outdated reference copies of those codes.
Codes are matched case-insensitively and the I-prefix is ignored.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "integrate").Logger().WithContext(ctx)

			o, err := factory(ctx)
			if err != nil {
				return err
			}
			o.UserLogger.Header("integrating files")
			o.UserLogger.StartRun(ctx, log.RunBanner{
				Type:            operation.KeyFileAdd,
				ReferenceFolder: args[0],
				TargetFolder:    args[1],
			})
			defer o.UserLogger.EndRun(ctx)

			if err := o.Service.StartFileAdd(ctx, args[0], args[1], args[2:]); err != nil {
				return errors.Errorf("starting file integration: %w", err)
			}
			return follow(ctx, o, operation.KeyFileAdd)
		},
	}

	return cmd
}
