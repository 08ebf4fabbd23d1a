// Package config provides configuration management for cachebust using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration names the static asset and template source/destination
// roots, the ignore and skip-hash pattern tables, the markup directive
// attribute used by the template rewriter, and the script compressor. Pattern
// tables are plain data: defaults live here and user patterns are appended to
// them, and nothing is compiled until Compile is called.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "CACHEBUST"

// DefaultConfigName is the config file searched for in the working directory.
const DefaultConfigName = ".cachebust"

// DefaultCompressorArgs is the fixed argument template handed to an external
// compressor.
var DefaultCompressorArgs = []string{"--compilation_level=ADVANCED_OPTIMIZATIONS"}

type Config struct {
	Static     TreeConfig       `mapstructure:"static" yaml:"static"`
	Templates  TreeConfig       `mapstructure:"templates" yaml:"templates"`
	Ignore     []string         `mapstructure:"ignore" yaml:"ignore"`
	SkipHash   []string         `mapstructure:"skip_hash" yaml:"skip_hash"`
	Rewrite    RewriteConfig    `mapstructure:"rewrite" yaml:"rewrite"`
	Compressor CompressorConfig `mapstructure:"compressor" yaml:"compressor"`
	Build      BuildConfig      `mapstructure:"build" yaml:"build"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// TreeConfig is a source root and the destination root it is built into.
type TreeConfig struct {
	Src string `mapstructure:"src" yaml:"src"`
	Dst string `mapstructure:"dst" yaml:"dst"`
}

type RewriteConfig struct {
	// Attribute is the markup attribute carrying directives.
	Attribute string `mapstructure:"attribute" yaml:"attribute"`
	// RemoveTags lists the paired elements whose content is stripped with
	// the remove directive.
	RemoveTags []string `mapstructure:"remove_tags" yaml:"remove_tags"`
}

type CompressorConfig struct {
	// Engine is "exec" (external process) or "esbuild" (in-process).
	Engine  string   `mapstructure:"engine" yaml:"engine"`
	Command string   `mapstructure:"command" yaml:"command,omitempty"`
	Jar     string   `mapstructure:"jar" yaml:"jar,omitempty"`
	Args    []string `mapstructure:"args" yaml:"args"`
}

type BuildConfig struct {
	Cleanup bool `mapstructure:"cleanup" yaml:"cleanup"`
	Brotli  bool `mapstructure:"brotli" yaml:"brotli"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Static:    TreeConfig{Src: "assets", Dst: ".assets-build"},
		Templates: TreeConfig{Src: "templates", Dst: ".templates-build"},
		Ignore:    []string{},
		SkipHash:  []string{},
		Rewrite: RewriteConfig{
			Attribute:  "data-build",
			RemoveTags: []string{"script", "a", "div"},
		},
		Compressor: CompressorConfig{
			Engine: EngineExec,
			Args:   append([]string(nil), DefaultCompressorArgs...),
		},
		Build: BuildConfig{Cleanup: true},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Compressor engines.
const (
	EngineExec    = "exec"
	EngineEsbuild = "esbuild"
)

// Init wires viper to the config file and the environment. cfgFile, when
// non-empty, wins over CACHEBUST_CONFIG_FILE, which wins over .cachebust.yml in
// the working directory. A .env file, if present, is loaded into the process
// environment first. It returns the config file in use, if any.
func Init(cfgFile string) (string, error) {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("loading .env: %w", err)
	}

	explicit := true
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(DefaultConfigName)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}

	return viper.ConfigFileUsed(), nil
}

// Load builds a Config from viper, applying defaults for anything unset, and
// validates it.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Viper leaves slices from env vars as a single space-separated string.
	if viper.IsSet("ignore") && len(config.Ignore) == 0 {
		config.Ignore = viper.GetStringSlice("ignore")
	}
	if viper.IsSet("skip_hash") && len(config.SkipHash) == 0 {
		config.SkipHash = viper.GetStringSlice("skip_hash")
	}

	defaults := Default()
	if config.Static.Src == "" {
		config.Static.Src = defaults.Static.Src
	}
	if config.Static.Dst == "" {
		config.Static.Dst = defaults.Static.Dst
	}
	if config.Templates.Src == "" {
		config.Templates.Src = defaults.Templates.Src
	}
	if config.Templates.Dst == "" {
		config.Templates.Dst = defaults.Templates.Dst
	}
	if config.Ignore == nil {
		config.Ignore = defaults.Ignore
	}
	if config.SkipHash == nil {
		config.SkipHash = defaults.SkipHash
	}
	if config.Rewrite.Attribute == "" {
		config.Rewrite.Attribute = defaults.Rewrite.Attribute
	}
	if len(config.Rewrite.RemoveTags) == 0 {
		config.Rewrite.RemoveTags = defaults.Rewrite.RemoveTags
	}
	if config.Compressor.Engine == "" {
		config.Compressor.Engine = defaults.Compressor.Engine
	}
	if len(config.Compressor.Args) == 0 {
		config.Compressor.Args = defaults.Compressor.Args
	}
	if !viper.IsSet("build.cleanup") {
		config.Build.Cleanup = defaults.Build.Cleanup
	}
	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = defaults.Log.Format
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// YAML renders the configuration as a config file body.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
