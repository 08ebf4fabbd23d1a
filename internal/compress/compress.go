// Package compress minifies inline scripts lifted out of templates.
//
// Two engines exist: Exec pipes the script through an external compiler
// process, and Esbuild minifies in process. When neither is configured the
// Unavailable compressor fails every call, so a template asking for
// compression never loses its script silently.
package compress

import (
	"context"

	"github.com/conneroisu/cachebust/internal/config"
	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/logging"
)

// Compressor turns script source into its compressed form.
type Compressor interface {
	Compress(ctx context.Context, script string) (string, error)
}

// New picks the compressor described by cfg.
func New(cfg config.CompressorConfig, logger logging.Logger) Compressor {
	switch {
	case cfg.Engine == config.EngineEsbuild:
		return NewEsbuild(logger)
	case cfg.Command != "":
		return NewExec(cfg.Command, cfg.Args, logger)
	case cfg.Jar != "":
		return NewJar(cfg.Jar, cfg.Args, logger)
	default:
		return Unavailable{}
	}
}

// Unavailable is the compressor used when none is configured.
type Unavailable struct{}

// Compress always fails with errs.ErrCompressorUnavailable.
func (Unavailable) Compress(context.Context, string) (string, error) {
	return "", errs.ErrCompressorUnavailable
}
