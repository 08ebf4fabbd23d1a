package rewrite

import (
	"fmt"
	"strings"
)

// Kind identifies what a directive asks the rewriter to do.
type Kind int

const (
	// Remove strips the element, including its content.
	Remove Kind = iota
	// Compress replaces an inline script body with its compressed form.
	Compress
	// Translate points the element's src or href at the hashed URL of
	// another asset.
	Translate
)

func (k Kind) String() string {
	switch k {
	case Remove:
		return "remove"
	case Compress:
		return "compress"
	case Translate:
		return "tr"
	default:
		return "unknown"
	}
}

const translatePrefix = "tr:"

// Directive is a parsed directive attribute value.
type Directive struct {
	Kind Kind
	// Target is the asset URL of a Translate directive.
	Target string
}

// ParseDirective parses the value of a directive attribute: "remove",
// "compress" or "tr:<url>".
func ParseDirective(value string) (Directive, error) {
	switch {
	case value == "remove":
		return Directive{Kind: Remove}, nil
	case value == "compress":
		return Directive{Kind: Compress}, nil
	case strings.HasPrefix(value, translatePrefix):
		target := strings.TrimPrefix(value, translatePrefix)
		if target == "" {
			return Directive{}, fmt.Errorf("directive %q has no target", value)
		}
		return Directive{Kind: Translate, Target: target}, nil
	default:
		return Directive{}, fmt.Errorf("unknown directive %q", value)
	}
}

func (d Directive) String() string {
	if d.Kind == Translate {
		return translatePrefix + d.Target
	}
	return d.Kind.String()
}
