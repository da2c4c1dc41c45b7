package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// Text strips every tag and returns trimmed plain text. Entities escaped by
// the policy are decoded again so "Rock & Roll" survives unchanged.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// HTML keeps basic formatting (paragraphs, emphasis, links, lists) and drops
// scripts, frames, styles and event handler attributes.
func HTML(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}

// Terms cleans a list of short labels: each entry is stripped of markup and
// trimmed, and empty entries are dropped. Order is preserved.
func Terms(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if cleaned := Text(input); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
