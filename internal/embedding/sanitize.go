package embedding

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	tripleNewlines = regexp.MustCompile(`\n{3,}`)
	horizontalRuns = regexp.MustCompile(`[ \t]{2,}`)
)

// Sanitize prepares raw forum text for embedding: control characters are
// dropped, runs of three or more newlines collapse to two, horizontal
// whitespace runs collapse to one space, and anything outside the
// letter/number/punctuation/space/symbol categories is stripped.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case unicode.IsControl(r):
			// dropped
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsPunct(r),
			unicode.IsSpace(r), unicode.IsSymbol(r):
			b.WriteRune(r)
		}
	}

	out := tripleNewlines.ReplaceAllString(b.String(), "\n\n")
	out = horizontalRuns.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Truncate hard-cuts text at max characters. The cut is not aware of token
// boundaries.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
