package compress

import (
	"context"
	"errors"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/logging"
)

// Esbuild minifies scripts in process.
type Esbuild struct {
	logger logging.Logger
}

// NewEsbuild creates an in-process minifier.
func NewEsbuild(logger logging.Logger) *Esbuild {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Esbuild{logger: logger.WithComponent("esbuild")}
}

// Compress implements Compressor.
func (e *Esbuild) Compress(ctx context.Context, script string) (string, error) {
	result := api.Transform(script, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})

	for _, w := range result.Warnings {
		e.logger.Warn(ctx, nil, "esbuild warning", "text", w.Text)
	}

	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return "", errs.NewCompressionError(
			errs.ErrCodeCompressorFailed,
			"esbuild failed",
			errors.New(strings.Join(msgs, "; ")),
		)
	}

	return strings.TrimSpace(string(result.Code)), nil
}
