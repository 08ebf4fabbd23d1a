package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/cachebust/internal/build"
	"github.com/conneroisu/cachebust/internal/compress"
	"github.com/conneroisu/cachebust/internal/config"
	"github.com/conneroisu/cachebust/internal/logging"
)

// Build modes.
const (
	modeStatic    = "static"
	modeTemplates = "templates"
)

// pipeline is the resolved configuration of one command invocation.
type pipeline struct {
	mode     string
	cfg      *config.Config
	patterns *config.Patterns
	logger   logging.Logger
}

// loadPipeline loads the merged configuration and compiles the pattern
// tables. Nothing touches the filesystem before this succeeds.
func loadPipeline(cmd *cobra.Command, mode string, flags *pipelineFlags) (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)

	patterns, err := cfg.Compile()
	if err != nil {
		return nil, err
	}

	// Load already validated the level.
	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	return &pipeline{mode: mode, cfg: cfg, patterns: patterns, logger: logger}, nil
}

func (p *pipeline) staticBuilder() *build.StaticBuilder {
	return build.NewStaticBuilder(build.StaticOptions{
		Src:      p.cfg.Static.Src,
		Dst:      p.cfg.Static.Dst,
		Ignore:   p.patterns.Ignore,
		SkipHash: p.patterns.SkipHash,
		Cleanup:  p.cfg.Build.Cleanup,
		Brotli:   p.cfg.Build.Brotli,
		Logger:   p.logger,
	})
}

// builder returns a fresh builder for the pipeline mode. Builders memoize
// their manifests, so long-running commands ask for a new one per run.
func (p *pipeline) builder() build.Builder {
	static := p.staticBuilder()
	if p.mode == modeStatic {
		return static
	}

	return build.NewTemplateBuilder(build.TemplateOptions{
		Src:        p.cfg.Templates.Src,
		Dst:        p.cfg.Templates.Dst,
		Ignore:     p.patterns.Ignore,
		Static:     static,
		Attribute:  p.cfg.Rewrite.Attribute,
		RemoveTags: p.cfg.Rewrite.RemoveTags,
		Compressor: compress.New(p.cfg.Compressor, p.logger),
		Logger:     p.logger,
	})
}

// sourceRoots returns the trees a watch covers.
func (p *pipeline) sourceRoots() []string {
	if p.mode == modeStatic {
		return []string{p.cfg.Static.Src}
	}
	return []string{p.cfg.Static.Src, p.cfg.Templates.Src}
}

// buildRoots returns the trees a build writes.
func (p *pipeline) buildRoots() []string {
	if p.mode == modeStatic {
		return []string{p.cfg.Static.Dst}
	}
	return []string{p.cfg.Static.Dst, p.cfg.Templates.Dst}
}
