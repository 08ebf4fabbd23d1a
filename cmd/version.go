package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/cachebust/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		format   string
		short    bool
		detailed bool
	)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for cachebust.

Examples:
  cachebust version              # Show version
  cachebust version --detailed   # Show detailed version info
  cachebust version --format json # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			case "text":
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
			}

			switch {
			case short:
				fmt.Fprintln(out, info.Short())
			case detailed:
				fmt.Fprintln(out, info.Detailed())
				if info.IsRelease() {
					fmt.Fprintln(out, "Build type: release")
				} else {
					fmt.Fprintln(out, "Build type: development")
				}
			default:
				fmt.Fprintf(out, "cachebust %s\n", info.Short())
				fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
				fmt.Fprintf(out, "Platform: %s\n", info.Platform)
			}
			return nil
		},
	}

	versionCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&short, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed version information")

	return versionCmd
}
