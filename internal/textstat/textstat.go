// Package textstat derives the word count and preview stored with every
// document version. Both are computed from content, never edited directly.
package textstat

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultPreviewLength is the preview size in runes when none is configured.
const DefaultPreviewLength = 200

var (
	fencedCode = regexp.MustCompile("(?s)```.*?```")
	link       = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	listMarker = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	space      = regexp.MustCompile(`\s+`)
)

// Words counts the words in markdown, ignoring syntax such as heading
// markers, emphasis, list bullets, link targets and fenced code.
func Words(markdown string) int {
	return len(strings.FieldsFunc(plain(markdown), unicode.IsSpace))
}

// Preview returns the first n runes of the plain text, collapsed onto one
// line. Truncated previews end with "...".
func Preview(markdown string, n int) string {
	if n <= 0 {
		n = DefaultPreviewLength
	}
	text := strings.TrimSpace(space.ReplaceAllString(plain(markdown), " "))
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// Lines counts lines the way the section parser numbers them.
func Lines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

func plain(markdown string) string {
	text := fencedCode.ReplaceAllString(markdown, " ")
	text = link.ReplaceAllString(text, "$1")

	r := strings.NewReplacer("`", "", "**", "", "__", "", "~~", "", "*", "", "#", "", ">", "")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = listMarker.ReplaceAllString(line, "")
		lines[i] = r.Replace(line)
	}
	return strings.Join(lines, "\n")
}
