// Package edit applies edit operations to markdown documents.
//
// Operations select their target by search text, section title or line
// range and replace, delete or insert content there. Failures are returned
// as wrapped sentinel errors so batch callers can record them and carry on.
package edit

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jpl-au/quill/internal/diff"
	"github.com/jpl-au/quill/internal/match"
	"github.com/jpl-au/quill/internal/section"
)

var (
	// ErrTextNotFound is returned when search text is not in the document,
	// exactly or fuzzily.
	ErrTextNotFound = errors.New("text not found")
	// ErrSectionNotFound is returned when no heading matches the title.
	ErrSectionNotFound = errors.New("section not found")
	// ErrMissingParameter is returned when the operation lacks a field its
	// type and mode require.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrInvalidLineRange is returned when a line range is malformed or out
	// of bounds.
	ErrInvalidLineRange = errors.New("invalid line range")
	// ErrInvalidOperation is returned for an unknown type or mode.
	ErrInvalidOperation = errors.New("invalid operation")
)

// snippetLen is how much of the attempted text failure messages quote.
const snippetLen = 60

// Locator finds a snippet in a document. *match.Matcher implements it.
type Locator interface {
	Locate(haystack, needle string) (match.Match, bool)
}

// Apply applies op to content and returns the updated content.
// A nil Locator uses the default fuzzy matcher.
func Apply(content string, op Operation, loc Locator) (string, error) {
	if !op.Type.valid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, op.Type)
	}
	if !op.Selection.Mode.valid() {
		return "", fmt.Errorf("%w: unknown selection mode %q", ErrInvalidOperation, op.Selection.Mode)
	}
	if err := op.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingParameter, err)
	}
	if loc == nil {
		loc = match.New(0)
	}

	switch op.Selection.Mode {
	case Search:
		return applySearch(content, op, loc)
	case Section:
		return applySection(content, op)
	default:
		return applyRange(content, op)
	}
}

func applySearch(content string, op Operation, loc Locator) (string, error) {
	text := op.Selection.SearchText
	newContent := deref(op.NewContent)

	if strings.Contains(content, text) {
		switch op.Type {
		case Replace:
			return strings.ReplaceAll(content, text, newContent), nil
		case Delete:
			return strings.ReplaceAll(content, text, ""), nil
		default:
			return strings.ReplaceAll(content, text, text+newContent), nil
		}
	}

	m, ok := loc.Locate(content, text)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTextNotFound, snippet(text))
	}
	switch op.Type {
	case Replace:
		return content[:m.Index] + newContent + content[m.End():], nil
	case Delete:
		return content[:m.Index] + content[m.End():], nil
	default:
		return content[:m.End()] + newContent + content[m.End():], nil
	}
}

func applySection(content string, op Operation) (string, error) {
	title := op.Selection.SectionTitle
	s, ok := section.Find(section.Parse(content), title)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSectionNotFound, title)
	}
	lines := splitLines(content)
	newContent := deref(op.NewContent)

	switch op.Type {
	case Replace:
		// Body-only replacements keep the original heading line.
		repl := contentLines(newContent)
		if len(repl) == 0 || !isHeading(repl[0]) {
			repl = append([]string{lines[s.LineStart]}, repl...)
		}
		return splice(lines, s.LineStart, s.LineEnd, keepGap(lines[s.LineStart:s.LineEnd], repl)), nil
	case Delete:
		return splice(lines, s.LineStart, s.LineEnd, nil), nil
	default:
		return splice(lines, s.LineStart, s.LineStart, contentLines(newContent)), nil
	}
}

func applyRange(content string, op Operation) (string, error) {
	lines := splitLines(content)
	start := *op.Selection.StartLine
	newContent := deref(op.NewContent)

	if op.Type == Insert {
		if start < 0 || start > len(lines) {
			return "", fmt.Errorf("%w: insert line %d outside 0-%d", ErrInvalidLineRange, start, len(lines))
		}
		return splice(lines, start, start, contentLines(newContent)), nil
	}

	end := *op.Selection.EndLine
	if start < 0 || end < start || end > len(lines) {
		return "", fmt.Errorf("%w: [%d, %d) outside document of %d lines", ErrInvalidLineRange, start, end, len(lines))
	}
	if op.Type == Delete {
		return splice(lines, start, end, nil), nil
	}
	return splice(lines, start, end, contentLines(newContent)), nil
}

// ReplaceResult reports how a Replace call matched its text.
type ReplaceResult struct {
	Content    string
	Count      int
	Stage      match.Stage
	Similarity float64
}

// ReplaceText replaces oldText with newText. Exact occurrences are replaced
// directly (the first, or all of them with replaceAll). Otherwise the fuzzy
// span is located and a patch built from oldText and newText is applied to
// it, so small differences between what the caller quoted and what the
// document says survive the edit. If the patch does not apply cleanly the
// whole span is replaced with newText.
func ReplaceText(content, oldText, newText string, replaceAll bool, loc Locator) (ReplaceResult, error) {
	if oldText == "" {
		return ReplaceResult{}, fmt.Errorf("%w: old text is required", ErrMissingParameter)
	}
	if loc == nil {
		loc = match.New(0)
	}

	if n := strings.Count(content, oldText); n > 0 {
		r := ReplaceResult{Stage: match.StageExact, Similarity: 1, Count: 1}
		if replaceAll {
			r.Content = strings.ReplaceAll(content, oldText, newText)
			r.Count = n
		} else {
			r.Content = strings.Replace(content, oldText, newText, 1)
		}
		return r, nil
	}

	m, ok := loc.Locate(content, oldText)
	if !ok {
		return ReplaceResult{}, fmt.Errorf("%w: %q", ErrTextNotFound, snippet(oldText))
	}

	patched, flags := diff.MakePatch(oldText, newText).Apply(m.Text(content))
	if !diff.AllApplied(flags) {
		patched = newText
	}
	return ReplaceResult{
		Content:    content[:m.Index] + patched + content[m.End():],
		Count:      1,
		Stage:      m.Stage,
		Similarity: m.Similarity,
	}, nil
}

// splitLines splits content into lines; an empty document has none.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// contentLines splits replacement text, dropping one trailing newline.
func contentLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// splice replaces lines[start:end] with repl.
func splice(lines []string, start, end int, repl []string) string {
	out := make([]string, 0, len(lines)-(end-start)+len(repl))
	out = append(out, lines[:start]...)
	out = append(out, repl...)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n")
}

// keepGap carries the blank lines that end old over to repl, unless repl
// already ends with one, so the following heading stays its own block.
// old[0] is the heading and is never counted.
func keepGap(old, repl []string) []string {
	if len(repl) > 0 && strings.TrimSpace(repl[len(repl)-1]) == "" {
		return repl
	}
	n := len(old)
	for n > 1 && strings.TrimSpace(old[n-1]) == "" {
		n--
	}
	return append(repl, old[n:]...)
}

func isHeading(line string) bool {
	return len(section.Parse(line)) == 1
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// snippet shortens text for error messages.
func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLen {
		return text
	}
	return string([]rune(text)[:snippetLen]) + "..."
}
