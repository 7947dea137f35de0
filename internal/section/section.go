// Package section parses markdown heading structure into line ranges.
//
// Sections let an edit target "the Benefits section" instead of a line
// number or a quoted snippet. The parser is purely structural: a section
// runs from its heading to the next heading of the same or a higher level.
package section

import (
	"regexp"
	"strings"
)

var heading = regexp.MustCompile(`^(#{1,6})[ \t]+(.+?)[ \t]*$`)

// Section is a heading and the half-open line range [LineStart, LineEnd)
// it spans. Lines are 0-indexed; LineStart is the heading line.
type Section struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	LineStart int    `json:"lineStart"`
	LineEnd   int    `json:"lineEnd"`
}

// Lines splits content the way section line numbers count it.
func Lines(content string) []string {
	return strings.Split(content, "\n")
}

// Parse returns every heading in document order. Lines inside fenced code
// blocks are never headings.
func Parse(content string) []Section {
	lines := Lines(content)

	var sections []Section
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if f := fenceMarker(trimmed); f != "" {
			switch {
			case fence == "":
				fence = f
			case strings.HasPrefix(trimmed, fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		m := heading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(strings.TrimRight(m[2], "#"))
		if title == "" {
			continue
		}
		sections = append(sections, Section{
			Level:     len(m[1]),
			Title:     title,
			LineStart: i,
			LineEnd:   len(lines),
		})
	}

	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			if sections[j].Level <= sections[i].Level {
				sections[i].LineEnd = sections[j].LineStart
				break
			}
		}
	}
	return sections
}

func fenceMarker(line string) string {
	switch {
	case strings.HasPrefix(line, "```"):
		return "```"
	case strings.HasPrefix(line, "~~~"):
		return "~~~"
	default:
		return ""
	}
}

// Find returns the first section whose title contains title, ignoring case.
func Find(sections []Section, title string) (Section, bool) {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return Section{}, false
	}
	for _, s := range sections {
		if strings.Contains(strings.ToLower(s.Title), needle) {
			return s, true
		}
	}
	return Section{}, false
}

// Title returns the text of the first level-1 heading, if any.
func Title(sections []Section) (string, bool) {
	for _, s := range sections {
		if s.Level == 1 {
			return s.Title, true
		}
	}
	return "", false
}
