// Package subject derives the thread-matching key from an email subject line.
package subject

import (
	"regexp"
	"strings"
)

// Reply and forward markers accumulate as a conversation bounces around, so
// the pattern is applied repeatedly from the left.
var replyPrefix = regexp.MustCompile(`(?i)^(re|fwd|fw):\s*`)

// Normalize strips leading reply/forward markers and surrounding whitespace.
// The result is used only as a matching key; recipients always see the
// verbatim subject stored on the message. Normalize is idempotent.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := replyPrefix.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = strings.TrimSpace(stripped)
	}
}
