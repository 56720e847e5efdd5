// Package sanitize makes free-form text safe for embedding into upstream
// query-string APIs. The transformation order is load-bearing: truncation
// happens before blacklist stripping, so stripped characters are not refunded
// into the length budget. Downstream callers rely on that exact behavior.
package sanitize

import (
	"regexp"
	"strings"
)

// DefaultMaxLength is the truncation limit applied by Clean.
const DefaultMaxLength = 200

var (
	// Curly/smart quotes to straight quotes.
	quoteReplacer = strings.NewReplacer(
		"“", `"`, // left double
		"”", `"`, // right double
		"‘", "'", // left single
		"’", "'", // right single
	)

	// Non-breaking space variants, line breaks, and tabs to plain spaces.
	spaceReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		" ", " ",
		"\n", " ",
		"\r", " ",
		"\t", " ",
	)

	// Characters that commonly break URL encoding, removed outright.
	blacklistReplacer = strings.NewReplacer(
		"<", "", ">", "",
		"{", "", "}", "",
		"|", "", `\`, "",
		"^", "", "`", "",
		"[", "", "]", "",
	)

	// Punctuation that upstream query parsers choke on.
	punctReplacer = strings.NewReplacer(
		";", ",",
		"?", "",
		"!", "",
		"#", "",
		"%", "",
	)

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Clean sanitizes text with the default length limit.
func Clean(text string) string {
	return CleanMax(text, DefaultMaxLength)
}

// CleanMax sanitizes text for use in API query strings, truncating to
// maxLength characters. It is pure and total: empty input is returned
// unchanged and no input can make it fail.
//
// Truncation keeps maxLength-3 characters and appends "...", and runs before
// the character blacklist is stripped. Stripping only removes characters, so
// output never exceeds maxLength, but the characters surviving truncation are
// chosen before stripping. Preserved for compatibility with existing callers.
func CleanMax(text string, maxLength int) string {
	if text == "" {
		return text
	}

	cleaned := quoteReplacer.Replace(text)
	cleaned = spaceReplacer.Replace(cleaned)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if runes := []rune(cleaned); maxLength > 3 && len(runes) > maxLength {
		cleaned = string(runes[:maxLength-3]) + "..."
	}

	cleaned = blacklistReplacer.Replace(cleaned)

	// Colons break the OSF query API.
	cleaned = strings.ReplaceAll(cleaned, ":", " -")
	cleaned = punctReplacer.Replace(cleaned)

	// Replacements above can introduce doubled spaces.
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
