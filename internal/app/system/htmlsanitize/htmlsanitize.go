// Package htmlsanitize strips HTML from user-generated text.
// Customer messages are plain text only, so the strict bluemonday policy is
// used: every element and attribute is removed, leaving only the text
// content.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy is the shared bluemonday policy for stripping markup.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Strip removes all HTML markup from input and returns the remaining text
// with entities decoded and surrounding whitespace trimmed.
func Strip(input string) string {
	if input == "" {
		return ""
	}
	stripped := getPolicy().Sanitize(input)
	// bluemonday entity-escapes the survivors; decode so the stored text is
	// what the customer typed.
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// ContainsMarkup reports whether input carries anything the strict policy
// would remove.
func ContainsMarkup(input string) bool {
	return Strip(input) != strings.TrimSpace(html.UnescapeString(input))
}
