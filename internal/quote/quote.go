// Package quote turns a stored HTML email body into a short plain-text
// excerpt suitable for embedding in a quoted-history block.
package quote

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultMaxSentences = 3
	DefaultMaxChars     = 250

	ellipsis = "..."
)

// stripPolicy removes all markup and keeps text content, inserting a space
// where a tag stood so adjacent blocks don't run together.
var stripPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// signatureMarker matches the start of common sign-off boilerplate. The
// excerpt is cut at the earliest occurrence; everything from the marker to
// the end of the text is treated as signature.
var signatureMarker = regexp.MustCompile(`(?i)(?:^|\s)(--\s|best regards\b|sincerely\b|thanks\b|regards\b|sent from\b)`)

// whitespace collapses runs of spaces, tabs and newlines.
var whitespace = regexp.MustCompile(`\s+`)

// Excerpt produces an excerpt with the default sentence and length limits.
func Excerpt(htmlContent string) string {
	return ExcerptN(htmlContent, DefaultMaxSentences, DefaultMaxChars)
}

// ExcerptN strips markup, decodes entities, collapses whitespace, drops
// trailing signature boilerplate, keeps at most maxSentences sentences and
// maxChars characters (cutting at a word boundary), and HTML-escapes the
// result. Output is deterministic for a given input; empty input yields an
// empty string.
func ExcerptN(htmlContent string, maxSentences, maxChars int) string {
	text := html.UnescapeString(stripPolicy.Sanitize(htmlContent))
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if text == "" {
		return ""
	}

	if loc := signatureMarker.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[:loc[0]])
	}
	if text == "" {
		return ""
	}

	truncated := false
	sentences := splitSentences(text)
	if maxSentences > 0 && len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
		truncated = true
	}
	text = strings.Join(sentences, " ")

	if maxChars > 0 {
		if cut, didCut := truncateAtWord(text, maxChars); didCut {
			text = cut
			truncated = true
		}
	}

	if truncated {
		text = strings.TrimRight(text, ".!? ") + ellipsis
	}

	return html.EscapeString(text)
}

// splitSentences breaks text on ., ! and ? boundaries, keeping the
// terminator with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		// Consume a run of terminators ("!?", "...").
		for i+1 < len(runes) && (runes[i+1] == '.' || runes[i+1] == '!' || runes[i+1] == '?') {
			i++
		}
		if i+1 == len(runes) || runes[i+1] == ' ' {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// truncateAtWord cuts text to at most maxChars runes, preferring the last
// space before the limit so words stay whole.
func truncateAtWord(text string, maxChars int) (string, bool) {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, false
	}
	cut := string(runes[:maxChars])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut), true
}
