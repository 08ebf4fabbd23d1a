// Package cmd provides the cachebust command line.
//
// Configuration is read, highest priority first, from command-line flags,
// CACHEBUST_* environment variables (a .env file is loaded into the
// environment first), and a YAML config file: the --config flag, else
// CACHEBUST_CONFIG_FILE, else .cachebust.yml in the working directory.
//
// Environment variables follow the CACHEBUST_<SECTION>_<OPTION> pattern, e.g.
// CACHEBUST_STATIC_SRC or CACHEBUST_COMPRESSOR_JAR.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/cachebust/internal/config"
)

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "cachebust",
		Short: "Cache-busting build pipeline for static assets and templates",
		Long: `cachebust copies static assets into a build tree under content-hashed
names (js/app.js becomes js/app_<hash>.js) and rewrites HTML templates so
they reference the hashed files.

Templates are also rewritten through data-build directives:

  data-build="remove"       drop the element and its content
  data-build="compress"     compress an inline <script> body
  data-build="tr:/a/b.css"  point src/href at the hashed /a/b.css

Commands:
  cachebust static manifest     Print the asset manifest as JSON
  cachebust static check        List assets whose build output is stale
  cachebust static build        Build assets
  cachebust templates build     Build assets, then templates
  cachebust templates watch     Rebuild on every change
  cachebust init                Write a default .cachebust.yml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Init(cfgFile); err != nil {
				return err
			}
			SetViperBindings(cmd, flagBindings)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .cachebust.yml, can also use CACHEBUST_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(
		newModeCommand(modeStatic),
		newModeCommand(modeTemplates),
		newInitCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the command line.
func Execute() error {
	return NewRootCommand().Execute()
}

// flagBindings maps flag names to the config keys they override.
var flagBindings = map[string]string{
	"log-level":         "log.level",
	"log-format":        "log.format",
	"static-src":        "static.src",
	"static-dst":        "static.dst",
	"templates-src":     "templates.src",
	"templates-dst":     "templates.dst",
	"compressor":        "compressor.command",
	"compiler-jar":      "compressor.jar",
	"compressor-engine": "compressor.engine",
	"brotli":            "build.brotli",
}

// SetViperBindings binds the flags of cmd, including inherited ones, to
// viper configuration keys. Flags cmd does not have are skipped.
func SetViperBindings(cmd *cobra.Command, bindings map[string]string) {
	for flagName, configKey := range bindings {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			_ = viper.BindPFlag(configKey, flag)
		}
	}
}
