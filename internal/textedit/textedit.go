// Package textedit provides the small set of regex-driven edits the template
// rewriter applies to a document held in memory.
package textedit

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ResultMarker marks where a Transform callback's result goes in the output
// template. The rest of the template is expanded like regexp.Expand, so ${1}
// refers to the first capture group of the match.
const ResultMarker = "{{.}}"

// Pair is one literal substitution.
type Pair struct {
	Old string
	New string
}

// Document is a mutable text buffer.
type Document struct {
	text string
}

// New creates a document holding text.
func New(text string) *Document {
	return &Document{text: text}
}

// String returns the current contents.
func (d *Document) String() string {
	return d.text
}

// Remove deletes every match of every pattern, one pattern after another.
func (d *Document) Remove(patterns ...*regexp.Regexp) {
	for _, re := range patterns {
		d.text = re.ReplaceAllLiteralString(d.text, "")
	}
}

// Replace substitutes every literal occurrence of the pairs' Old texts in a
// single pass. Old is never interpreted as a pattern. Where several pairs
// match at the same position the earlier pair wins, and substituted text is
// never scanned again. Pairs with an empty Old are skipped.
func (d *Document) Replace(pairs []Pair) {
	oldnew := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		if p.Old == "" {
			continue
		}
		oldnew = append(oldnew, p.Old, p.New)
	}
	if len(oldnew) == 0 {
		return
	}
	d.text = strings.NewReplacer(oldnew...).Replace(d.text)
}

// TransformFunc maps a captured group to the text spliced into the output
// template.
type TransformFunc func(captured string) (string, error)

// Transform repeatedly replaces the first remaining match of re. For each
// match, fn receives the text of capture group group and its result is placed
// at ResultMarker in template; the expanded template replaces the whole match.
// A template without the marker discards the result.
//
// The search resumes right after the inserted text, so output produced by one
// substitution is never matched again and the loop always terminates. A
// callback error stops the transform and leaves the document unchanged.
func (d *Document) Transform(re *regexp.Regexp, group int, template string, fn TransformFunc) error {
	if group < 0 || group > re.NumSubexp() {
		return fmt.Errorf("capture group %d out of range for %s", group, re)
	}

	before, after, marked := strings.Cut(template, ResultMarker)

	text := d.text
	pos := 0
	for pos <= len(text) {
		rest := text[pos:]
		loc := re.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}

		var captured string
		if start := loc[2*group]; start >= 0 {
			captured = rest[start:loc[2*group+1]]
		}

		result, err := fn(captured)
		if err != nil {
			return err
		}

		var repl []byte
		repl = re.ExpandString(repl, before, rest, loc)
		if marked {
			repl = append(repl, result...)
			repl = re.ExpandString(repl, after, rest, loc)
		}

		start, end := pos+loc[0], pos+loc[1]
		text = text[:start] + string(repl) + text[end:]
		pos = start + len(repl)

		// An empty match would be found again at the same place.
		if loc[0] == loc[1] {
			if pos == len(text) {
				break
			}
			_, size := utf8.DecodeRuneInString(text[pos:])
			pos += size
		}
	}

	d.text = text
	return nil
}
