package cmd

import (
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/cachebust/internal/config"
	errs "github.com/conneroisu/cachebust/internal/errors"
)

// regexList is a repeatable flag holding regular expressions. Each value is
// compiled as it is parsed, so a malformed pattern fails flag parsing.
type regexList struct {
	exprs []string
}

var _ pflag.Value = (*regexList)(nil)

func (v *regexList) Set(s string) error {
	if _, err := regexp.Compile(s); err != nil {
		return errs.InvalidPattern(s, err)
	}
	v.exprs = append(v.exprs, s)
	return nil
}

func (v *regexList) Type() string { return "regex" }

func (v *regexList) String() string {
	return "[" + strings.Join(v.exprs, ",") + "]"
}

// pipelineFlags holds the flags that do not map one to one onto a config key.
type pipelineFlags struct {
	ignore    regexList
	skipHash  regexList
	noCleanup bool
}

// apply merges the flags into a loaded configuration.
func (f *pipelineFlags) apply(cfg *config.Config) {
	cfg.Ignore = append(cfg.Ignore, f.ignore.exprs...)
	cfg.SkipHash = append(cfg.SkipHash, f.skipHash.exprs...)
	if f.noCleanup {
		cfg.Build.Cleanup = false
	}
}

func addTreeFlags(cmd *cobra.Command, f *pipelineFlags, mode string) {
	defaults := config.Default()
	fs := cmd.PersistentFlags()

	fs.String("static-src", defaults.Static.Src, "static assets source root")
	fs.String("static-dst", defaults.Static.Dst, "static assets build root")
	if mode == modeTemplates {
		fs.String("templates-src", defaults.Templates.Src, "templates source root")
		fs.String("templates-dst", defaults.Templates.Dst, "templates build root")
		fs.String("compressor", "", "external script compressor executable")
		fs.String("compiler-jar", "", "compiler jar run with java -jar")
		fs.String("compressor-engine", defaults.Compressor.Engine, "script compressor engine (exec, esbuild)")
	}
	fs.Var(&f.ignore, "ignore", "extra ignore pattern (repeatable)")
	fs.Var(&f.skipHash, "skip-hash", "extra pattern of assets copied without a hash (repeatable)")
}

func addBuildFlags(cmd *cobra.Command, f *pipelineFlags) {
	cmd.Flags().BoolVar(&f.noCleanup, "no-cleanup", false, "keep stale hashed variants")
	cmd.Flags().Bool("brotli", false, "write .br siblings for text assets")
}
