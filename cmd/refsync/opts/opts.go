package opts

import (
	"context"

	"github.com/schemini/refsync/pkg/config"
	"github.com/schemini/refsync/pkg/log"
	"github.com/schemini/refsync/pkg/operation"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config     *config.Config
	Service    *operation.Service
	UserLogger *log.Logger
}

// Factory builds the RootOpts after flags have been parsed
type Factory func(ctx context.Context) (*RootOpts, error)
