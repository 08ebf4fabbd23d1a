package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/logging"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
	if len(ve.Suggestions) > 0 {
		msg += " (" + strings.Join(ve.Suggestions, "; ") + ")"
	}
	return msg
}

var (
	attributeNameRe = regexp.MustCompile(`^[a-zA-Z_:][-a-zA-Z0-9_:.]*$`)
	tagNameRe       = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)
)

// validateConfig validates configuration values for correctness. Pattern
// compilation is checked as well so that a bad pattern from a config file
// fails here, before any traversal.
func validateConfig(config *Config) error {
	checks := []func(*Config) *ValidationError{
		validateTrees,
		validateRewrite,
		validateCompressor,
		validateLog,
	}

	for _, check := range checks {
		if ve := check(config); ve != nil {
			return errs.NewConfigError(errs.ErrCodeInvalidConfig, "invalid configuration", ve)
		}
	}

	if _, err := config.Compile(); err != nil {
		return err
	}

	return nil
}

func validateTrees(config *Config) *ValidationError {
	trees := []struct {
		name string
		tree TreeConfig
	}{
		{"static", config.Static},
		{"templates", config.Templates},
	}

	for _, t := range trees {
		if strings.TrimSpace(t.tree.Src) == "" {
			return &ValidationError{Field: t.name + ".src", Value: t.tree.Src, Message: "source root cannot be empty"}
		}
		if strings.TrimSpace(t.tree.Dst) == "" {
			return &ValidationError{Field: t.name + ".dst", Value: t.tree.Dst, Message: "destination root cannot be empty"}
		}
		if filepath.Clean(t.tree.Src) == filepath.Clean(t.tree.Dst) {
			return &ValidationError{
				Field:       t.name + ".dst",
				Value:       t.tree.Dst,
				Message:     "destination root must differ from source root",
				Suggestions: []string{"builds never write into the source tree"},
			}
		}
	}

	return nil
}

func validateRewrite(config *Config) *ValidationError {
	if !attributeNameRe.MatchString(config.Rewrite.Attribute) {
		return &ValidationError{
			Field:       "rewrite.attribute",
			Value:       config.Rewrite.Attribute,
			Message:     "not a valid markup attribute name",
			Suggestions: []string{`use something like "data-build"`},
		}
	}

	for _, tag := range config.Rewrite.RemoveTags {
		if !tagNameRe.MatchString(tag) {
			return &ValidationError{Field: "rewrite.remove_tags", Value: tag, Message: "not a valid element name"}
		}
	}

	return nil
}

func validateCompressor(config *Config) *ValidationError {
	switch config.Compressor.Engine {
	case EngineExec, EngineEsbuild:
	default:
		return &ValidationError{
			Field:       "compressor.engine",
			Value:       config.Compressor.Engine,
			Message:     "unknown compressor engine",
			Suggestions: []string{EngineExec, EngineEsbuild},
		}
	}

	if config.Compressor.Command != "" && config.Compressor.Jar != "" {
		return &ValidationError{
			Field:   "compressor.command",
			Value:   config.Compressor.Command,
			Message: "set either compressor.command or compressor.jar, not both",
		}
	}

	return nil
}

func validateLog(config *Config) *ValidationError {
	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return &ValidationError{
			Field:       "log.level",
			Value:       config.Log.Level,
			Message:     err.Error(),
			Suggestions: []string{"debug", "info", "warn", "error"},
		}
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return &ValidationError{
			Field:       "log.format",
			Value:       config.Log.Format,
			Message:     "unknown log format",
			Suggestions: []string{"text", "json"},
		}
	}

	return nil
}
