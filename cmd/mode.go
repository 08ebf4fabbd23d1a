package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/cachebust/internal/build"
	errs "github.com/conneroisu/cachebust/internal/errors"
)

var modeDescriptions = map[string]string{
	modeStatic:    "Build static assets under content-hashed names",
	modeTemplates: "Build static assets, then rewrite templates to reference them",
}

// newModeCommand builds the command group of one build mode.
func newModeCommand(mode string) *cobra.Command {
	flags := &pipelineFlags{}

	modeCmd := &cobra.Command{
		Use:   mode,
		Short: modeDescriptions[mode],
		Long: modeDescriptions[mode] + `.

Examples:
  cachebust ` + mode + ` manifest > manifest.json
  cachebust ` + mode + ` check || echo "rebuild needed"
  cachebust ` + mode + ` build --no-cleanup
  cachebust ` + mode + ` watch --ignore '\.map$'`,
	}
	addTreeFlags(modeCmd, flags, mode)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Copy changed assets" + templatesSuffix(mode),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, mode, flags)
		},
	}
	addBuildFlags(buildCmd, flags)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever a source changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, mode, flags)
		},
	}
	addBuildFlags(watchCmd, flags)
	watchCmd.Flags().Duration("debounce", defaultDebounce, "quiet period before a batch of changes triggers a build")

	modeCmd.AddCommand(
		&cobra.Command{
			Use:   "manifest",
			Short: "Print the manifest as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runManifest(cmd, mode, flags)
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "List sources whose build output is missing or out of date",
			Long: `List sources whose build output is missing or out of date.

Each changed source is printed to stderr prefixed with "** " and the command
exits non-zero if there is at least one.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheck(cmd, mode, flags)
			},
		},
		buildCmd,
		watchCmd,
	)

	return modeCmd
}

func templatesSuffix(mode string) string {
	if mode == modeTemplates {
		return " and rewrite changed templates"
	}
	return ""
}

func runManifest(cmd *cobra.Command, mode string, flags *pipelineFlags) error {
	p, err := loadPipeline(cmd, mode, flags)
	if err != nil {
		return err
	}

	m, err := p.builder().Manifest(cmd.Context())
	if err != nil {
		return err
	}

	return m.Write(cmd.OutOrStdout())
}

func runCheck(cmd *cobra.Command, mode string, flags *pipelineFlags) error {
	p, err := loadPipeline(cmd, mode, flags)
	if err != nil {
		return err
	}

	changed, err := p.builder().Changed(cmd.Context())
	if err != nil {
		return err
	}

	for _, path := range changed {
		fmt.Fprintf(cmd.ErrOrStderr(), "** %s\n", path)
	}
	if len(changed) > 0 {
		return errs.ErrChangesDetected
	}

	return nil
}

func runBuild(cmd *cobra.Command, mode string, flags *pipelineFlags) error {
	p, err := loadPipeline(cmd, mode, flags)
	if err != nil {
		return err
	}

	return buildOnce(cmd.Context(), cmd.ErrOrStderr(), p)
}

// buildOnce runs one build with a fresh builder and reports a failed outcome.
func buildOnce(ctx context.Context, stderr io.Writer, p *pipeline) error {
	outcome, err := p.builder().Build(ctx)
	if outcome == build.Failed {
		fmt.Fprintln(stderr, "** Build failed")
		if err == nil {
			return errs.NewBuildError(errs.ErrCodeBuildFailed, p.mode+" build failed", nil)
		}
		return errs.Wrap(err, errs.ErrorTypeBuild, errs.ErrCodeBuildFailed, p.mode+" build failed")
	}

	p.logger.Info(ctx, "build finished", "mode", p.mode, "outcome", outcome.String())
	return nil
}
