package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDropsControlCharacters(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("hel\x00lo\x07 world\x1b"))
}

func TestSanitizeCollapsesNewlines(t *testing.T) {
	assert.Equal(t, "a\n\nb", Sanitize("a\n\n\n\n\nb"))
	assert.Equal(t, "a\nb", Sanitize("a\nb"))
}

func TestSanitizeCollapsesHorizontalWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Sanitize("a   b\t\tc"))
}

func TestSanitizeTrims(t *testing.T) {
	assert.Equal(t, "text", Sanitize("  \n text \n  "))
}

func TestSanitizeKeepsUnicodeText(t *testing.T) {
	assert.Equal(t, "résumé 数学 f(x) = x²", Sanitize("résumé 数学 f(x) = x²"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestTruncateRuneBoundary(t *testing.T) {
	assert.Equal(t, "数学", Truncate("数学の森", 2))
}
