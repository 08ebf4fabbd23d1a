package config

import (
	"regexp"

	errs "github.com/conneroisu/cachebust/internal/errors"
)

// DefaultIgnore returns the ignore patterns applied to every walk. Patterns
// are searched (not anchored) in the slash-separated path relative to the
// walked root.
func DefaultIgnore() []string {
	return []string{
		`^(.*/)?\.`,
		`\.gss$`,
		`js/cssmap`,
		`\.soy$`,
		`^(.*/)?soyutils.*\.js`,
		`^(.*/)?deps\.js`,
		`_tests?\.(html|js)$`,
		`_debug\.(html|js|css)$`,
		`closure(-lib)?`,
	}
}

// DefaultSkipHash returns the patterns of static assets that are copied under
// their plain name because their URL must stay stable.
func DefaultSkipHash() []string {
	return []string{
		`^(.*/)?favicon.*\..+$`,
		`^(.*/)?apple-touch-.*\.png$`,
	}
}

// Patterns holds the compiled pattern tables handed to builders at
// construction time.
type Patterns struct {
	Ignore   []*regexp.Regexp
	SkipHash []*regexp.Regexp
}

// Compile compiles the default pattern tables followed by the user supplied
// ones. The first malformed pattern aborts with a config error.
func (c *Config) Compile() (*Patterns, error) {
	ignore, err := CompilePatterns(append(DefaultIgnore(), c.Ignore...))
	if err != nil {
		return nil, err
	}

	skip, err := CompilePatterns(append(DefaultSkipHash(), c.SkipHash...))
	if err != nil {
		return nil, err
	}

	return &Patterns{Ignore: ignore, SkipHash: skip}, nil
}

// CompilePatterns compiles every expression in order.
func CompilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, errs.InvalidPattern(expr, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
