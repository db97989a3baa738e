// Package deadline guesses the application deadline of a recruitment message.
//
// The heuristic is line oriented: find the first line that looks like it talks
// about a deadline ("dl", "appl...", "deadline") and the first line that looks
// like it holds a date ("15.3.", "1st", "asap"), then decide between them.
package deadline

import (
	"regexp"
	"strings"
)

const (
	// CuePattern matches "dl", any word starting with "appl" and "deadline".
	CuePattern = `(?i)(dl|appl\w*\b|deadline)`

	// DatePattern matches "1.1.", "01.01.", "1st", "2nd", "3rd", "4th" and "asap".
	// The trailing "?" only makes the final "p" optional.
	DatePattern = `(?i)((\d{1,2}\.\d{1,2}\.)|(\d{1,2}(st|nd|rd|th)))|(asap?)`

	// NotFoundText is what a NotFound result renders as.
	NotFoundText = "Couldn't find deadline"

	asapText = "ASAP"
)

// Kind tells which shape a Result has.
type Kind int

const (
	NotFound Kind = iota
	Found
	Asap
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case Asap:
		return "asap"
	default:
		return "not_found"
	}
}

// ParseKind is the inverse of Kind.String. Unknown values map to NotFound.
func ParseKind(s string) Kind {
	switch s {
	case "found":
		return Found
	case "asap":
		return Asap
	default:
		return NotFound
	}
}

// Result is the outcome of one extraction.
type Result struct {
	Kind Kind
	// Text is the matched line for Found results and empty otherwise.
	Text string
}

func (r Result) String() string {
	switch r.Kind {
	case Found:
		return r.Text
	case Asap:
		return asapText
	default:
		return NotFoundText
	}
}

// Patterns is the pair of expressions an Extractor works with.
type Patterns struct {
	Cue  *regexp.Regexp
	Date *regexp.Regexp
}

// DefaultPatterns compiles CuePattern and DatePattern.
func DefaultPatterns() Patterns {
	return Patterns{
		Cue:  regexp.MustCompile(CuePattern),
		Date: regexp.MustCompile(DatePattern),
	}
}

// CompilePatterns compiles caller supplied expressions. Empty strings fall
// back to the built-in ones.
func CompilePatterns(cue, date string) (Patterns, error) {
	if strings.TrimSpace(cue) == "" {
		cue = CuePattern
	}
	if strings.TrimSpace(date) == "" {
		date = DatePattern
	}
	c, err := regexp.Compile(cue)
	if err != nil {
		return Patterns{}, err
	}
	d, err := regexp.Compile(date)
	if err != nil {
		return Patterns{}, err
	}
	return Patterns{Cue: c, Date: d}, nil
}

// Extractor is safe for concurrent use.
type Extractor struct {
	cue  *regexp.Regexp
	date *regexp.Regexp
}

// New returns an Extractor for p. Nil expressions are replaced by the defaults.
func New(p Patterns) *Extractor {
	def := DefaultPatterns()
	if p.Cue == nil {
		p.Cue = def.Cue
	}
	if p.Date == nil {
		p.Date = def.Date
	}
	return &Extractor{cue: p.Cue, date: p.Date}
}

// Default returns an Extractor using the built-in patterns.
func Default() *Extractor {
	return New(DefaultPatterns())
}

// Extract returns a best-effort deadline for body. It never fails: a body with
// nothing recognizable yields a NotFound result.
func (e *Extractor) Extract(body string) Result {
	cueLine := firstMatchingLine(body, e.cue)
	dateLine := firstMatchingLine(body, e.date)

	switch {
	case cueLine == "" && dateLine == "":
		return Result{Kind: NotFound}

	// Same line carries both the cue and the date.
	case cueLine == dateLine:
		return found(cueLine)

	case strings.Contains(strings.ToLower(cueLine), "asap"):
		return Result{Kind: Asap}

	case containsAny(strings.ToLower(dateLine), "dl", "deadline"):
		return found(dateLine)

	// Cross-check each candidate against the other pattern.
	case e.cue.MatchString(dateLine):
		return found(dateLine)
	case e.date.MatchString(cueLine):
		return found(cueLine)
	}

	return Result{Kind: NotFound}
}

func found(line string) Result {
	return Result{Kind: Found, Text: format(line)}
}

// format trims the line; an all-blank line is returned as is.
func format(line string) string {
	if s := strings.TrimSpace(line); s != "" {
		return s
	}
	return line
}

func firstMatchingLine(body string, re *regexp.Regexp) string {
	for _, line := range strings.Split(body, "\n") {
		if re.MatchString(line) {
			return line
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
