// Package subject strips boilerplate from recruitment subject lines.
package subject

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder replaces a subject that was stripped down to nothing.
const Placeholder = "Deleted whole subjectline"

// wordChar is \w extended to non-ASCII letters and digits so that stems
// reach across ä and ö in compound words.
const wordChar = `[\p{L}\p{N}_]`

// Built-in pattern groups. Each group is a single expression.
const (
	NewlinePattern = `\n`
	TagPattern     = `\[athene-yrityssuhteet\]|\[atalent recruiting\]|avoin työpaikka|re:`
	FillerPattern  = `valmistu` + wordChar + `*|opiskeli` + wordChar + `*|mahdol` + wordChar + `*|` +
		`loppuv` + wordChar + `*|miele` + wordChar + `*|kiinnost` + wordChar + `*|työmahdoll` + wordChar + `*` +
		`|työpaikk` + wordChar + `*|rekrytoint` + wordChar + `*|kaks` + wordChar + `*|` + wordChar + `*paik` + wordChar + `*`
	SymbolPattern = `^(:|,|\?)|(/)`
)

// DefaultPatterns returns the built-in groups in the order they are applied.
func DefaultPatterns() []string {
	return []string{NewlinePattern, TagPattern, FillerPattern, SymbolPattern}
}

// Normalizer removes every match of its patterns from a subject.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	patterns []*regexp.Regexp
}

// New compiles patterns case-insensitively.
func New(patterns ...string) (*Normalizer, error) {
	n := &Normalizer{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("subject pattern %d: %w", i, err)
		}
		n.patterns = append(n.patterns, re)
	}
	return n, nil
}

// Default returns a Normalizer for DefaultPatterns.
func Default() *Normalizer {
	n, err := New(DefaultPatterns()...)
	if err != nil {
		panic(err)
	}
	return n
}

// Strip removes all pattern matches and collapses whitespace. Passes repeat
// until the text is stable, so Strip(Strip(s)) == Strip(s).
func (n *Normalizer) Strip(text string) string {
	cur := text
	for {
		next := n.pass(cur)
		if next == cur {
			return next
		}
		cur = next
	}
}

// Normalize is Strip with Placeholder for an empty result.
func (n *Normalizer) Normalize(text string) string {
	if s := n.Strip(text); s != "" {
		return s
	}
	return Placeholder
}

func (n *Normalizer) pass(s string) string {
	for _, re := range n.patterns {
		s = re.ReplaceAllString(s, "")
	}
	return cleanText(s)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
