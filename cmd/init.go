package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/cachebust/internal/config"
	errs "github.com/conneroisu/cachebust/internal/errors"
)

func newInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file holding every default value, ready to edit.

Examples:
  cachebust init                       # Write .cachebust.yml
  cachebust init --path build/cb.yml   # Write somewhere else
  cachebust init --force               # Overwrite an existing file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := config.Default().YAML()
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := os.WriteFile(path, body, 0o644); err != nil {
				return errs.WriteFailed(path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	initCmd.Flags().StringVar(&path, "path", config.DefaultConfigName+".yml", "file to write")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return initCmd
}
