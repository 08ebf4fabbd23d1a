// Package rewrite applies the template passes that make markup reference
// cache-busted assets.
//
// Passes run in a fixed order over the whole document:
//
//  1. elements and void tags marked remove, then every comment, are stripped
//  2. every asset URL is replaced by its hashed URL, anywhere in the text
//  3. inline scripts marked compress are run through the compressor
//  4. src/href of elements marked tr:<url> are pointed at the hashed <url>
//
// Matching is textual. Directives are expected to be the last attribute of
// their tag.
package rewrite

import (
	"context"
	"fmt"
	"regexp"

	"github.com/conneroisu/cachebust/internal/compress"
	"github.com/conneroisu/cachebust/internal/logging"
	"github.com/conneroisu/cachebust/internal/manifest"
	"github.com/conneroisu/cachebust/internal/textedit"
)

// DefaultAttribute is the attribute carrying directives.
const DefaultAttribute = "data-build"

// Options configures a Rewriter.
type Options struct {
	Attribute  string
	RemoveTags []string
	// Assets is the asset manifest used for URL substitution and tr targets.
	Assets     manifest.Manifest
	Compressor compress.Compressor
	Logger     logging.Logger
}

// Rewriter rewrites template documents. It only reads the asset manifest.
type Rewriter struct {
	removals   []*regexp.Regexp
	compressRe *regexp.Regexp
	trRe       *regexp.Regexp
	leftoverRe *regexp.Regexp

	pairs      []textedit.Pair
	assets     manifest.Manifest
	hashedURLs map[string]bool
	compressor compress.Compressor
	logger     logging.Logger
}

// New compiles the passes for opts.
func New(opts Options) (*Rewriter, error) {
	attr := opts.Attribute
	if attr == "" {
		attr = DefaultAttribute
	}
	a := regexp.QuoteMeta(attr)

	var removals []*regexp.Regexp
	for _, tag := range opts.RemoveTags {
		t := regexp.QuoteMeta(tag)
		re, err := regexp.Compile(fmt.Sprintf(`(?s)\s*<%s\s[^>]*%s="remove"[^>]*>.*?</%s>`, t, a, t))
		if err != nil {
			return nil, fmt.Errorf("remove pattern for <%s>: %w", tag, err)
		}
		removals = append(removals, re)
	}
	removals = append(removals,
		regexp.MustCompile(fmt.Sprintf(`\s*<[a-z0-9]+\s[^>]*%s="remove"[^>]*/?>`, a)),
		regexp.MustCompile(`(?s)\s*<!--.*?-->`),
	)

	compressor := opts.Compressor
	if compressor == nil {
		compressor = compress.Unavailable{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	mappings := opts.Assets.URLMappings()
	pairs := make([]textedit.Pair, 0, len(mappings))
	hashed := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		pairs = append(pairs, textedit.Pair{Old: m.Original, New: m.Hashed})
		hashed[m.Hashed] = true
	}

	return &Rewriter{
		removals:   removals,
		compressRe: regexp.MustCompile(fmt.Sprintf(`(?s)<script\b([^>]*?)\s*%s="compress"([^>]*)>(.*?)</script>`, a)),
		trRe:       regexp.MustCompile(fmt.Sprintf(`(?s)(<[a-z0-9]+\s(?:[^>]*?\s)?)(src|href)="[^"]*"([^>]*?)\s*%s="tr:([^"]+)"`, a)),
		leftoverRe: regexp.MustCompile(fmt.Sprintf(`\s%s="([^"]*)"`, a)),
		pairs:      pairs,
		assets:     opts.Assets,
		hashedURLs: hashed,
		compressor: compressor,
		logger:     logger.WithComponent("rewrite"),
	}, nil
}

// Rewrite runs every pass over text.
func (r *Rewriter) Rewrite(ctx context.Context, text string) (string, error) {
	doc := textedit.New(text)

	doc.Remove(r.removals...)
	doc.Replace(r.pairs)

	err := doc.Transform(r.compressRe, 3, "<script${1}${2}>"+textedit.ResultMarker+"</script>",
		func(script string) (string, error) {
			return r.compressor.Compress(ctx, script)
		})
	if err != nil {
		return "", err
	}

	err = doc.Transform(r.trRe, 4, `${1}${2}="`+textedit.ResultMarker+`"${3}`,
		func(target string) (string, error) {
			return r.resolve(ctx, target), nil
		})
	if err != nil {
		return "", err
	}

	r.reportLeftovers(ctx, doc.String())
	return doc.String(), nil
}

// resolve maps a tr target to the URL of its hashed copy. Targets already
// rewritten by URL substitution are kept, as are unknown targets.
func (r *Rewriter) resolve(ctx context.Context, target string) string {
	if e, ok := r.assets.Lookup(target); ok && e.Hashed() {
		return manifest.Hashify(target, e.Hash)
	}
	if r.hashedURLs[target] {
		return target
	}
	r.logger.Warn(ctx, nil, "tr target not in asset manifest", "target", target)
	return target
}

// reportLeftovers logs directives no pass consumed, e.g. remove on a tag
// outside the allow-list or a directive that is not the last attribute.
func (r *Rewriter) reportLeftovers(ctx context.Context, text string) {
	for _, m := range r.leftoverRe.FindAllStringSubmatch(text, -1) {
		d, err := ParseDirective(m[1])
		if err != nil {
			r.logger.Warn(ctx, err, "invalid directive left in output")
			continue
		}
		r.logger.Warn(ctx, nil, "directive left in output", "directive", d.String())
	}
}
