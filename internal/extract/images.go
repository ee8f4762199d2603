// Package extract holds pure helpers that normalize raw forum payloads into
// persistence-ready values.
package extract

import (
	"regexp"
	"sort"
)

var (
	htmlImagePattern     = regexp.MustCompile(`(?i)<img[^>]*\ssrc\s*=\s*["']([^"']+)["']`)
	markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)`)
)

// ImageURLs returns the URLs of images embedded in rich text, in document
// order. Both HTML <img> tags and markdown image syntax are recognized.
// Duplicates are kept.
func ImageURLs(richText string) []string {
	if richText == "" {
		return nil
	}

	type match struct {
		pos int
		url string
	}

	var matches []match
	for _, m := range htmlImagePattern.FindAllStringSubmatchIndex(richText, -1) {
		matches = append(matches, match{pos: m[0], url: richText[m[2]:m[3]]})
	}
	for _, m := range markdownImagePattern.FindAllStringSubmatchIndex(richText, -1) {
		matches = append(matches, match{pos: m[0], url: richText[m[2]:m[3]]})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m.url)
	}
	return urls
}
