// Package sanitize cleans user-supplied scenario text before it reaches a
// terminal, a browser, or an MCP client. It strips control characters and
// escape sequences, XML/HTML tags, and oversize values.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the maximum length, in runes, of a scenario or body name.
const MaxNameLength = 40

// MaxDescriptionLength is the maximum length, in runes, of a scenario description.
const MaxDescriptionLength = 500

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reANSIEscape matches CSI and OSC terminal escape sequences.
	reANSIEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)

	// reSpaces matches runs of horizontal whitespace.
	reSpaces = regexp.MustCompile(`[ \t]+`)

	// reExcessiveNewlines matches 3 or more consecutive newlines.
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)

	// reHexColor matches #rgb and #rrggbb colors.
	reHexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

	// reColorName matches named colors such as "cornflowerblue".
	reColorName = regexp.MustCompile(`^[a-zA-Z]{1,32}$`)
)

// Name sanitizes a single-line name: escape sequences, control characters,
// and tags are removed, whitespace runs collapse to one space, and the
// result is truncated to MaxNameLength runes.
func Name(input string) string {
	if input == "" {
		return ""
	}

	s := reANSIEscape.ReplaceAllString(input, "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = stripControlChars(s)
	s = reXMLTag.ReplaceAllString(s, "")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))

	return truncateRunes(s, MaxNameLength, "")
}

// Description sanitizes free text. Newlines survive but runs of three or
// more collapse to two; the result is truncated to MaxDescriptionLength
// runes with a trailing ellipsis.
//
// The pipeline runs in this order:
//  1. Strip terminal escape sequences
//  2. Strip ASCII control characters (except \n, \t)
//  3. Strip XML/HTML tags
//  4. Collapse excessive newlines (3+ -> 2)
//  5. Trim leading/trailing whitespace
//  6. Truncate to MaxDescriptionLength
func Description(input string) string {
	if input == "" {
		return ""
	}

	s := reANSIEscape.ReplaceAllString(input, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = stripControlChars(s)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	return truncateRunes(s, MaxDescriptionLength, "...")
}

// Color returns input trimmed when it is a hex color (#rgb, #rrggbb) or a
// plain color name, and "" otherwise.
func Color(input string) string {
	s := strings.TrimSpace(input)
	if reHexColor.MatchString(s) || reColorName.MatchString(s) {
		return s
	}
	return ""
}

// stripControlChars removes ASCII control characters (0x00-0x1F, 0x7F) from
// the string, except for newline (0x0A) and tab (0x09) which are preserved.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncateRunes(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + suffix
}
