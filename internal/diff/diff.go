// Package diff computes and renders differences between document versions.
//
// Diffs are semantically cleaned so a reviewer sees whole-word changes rather
// than a minimal but noisy character diff. The same engine produces the inline
// markup stored on every version, the line-oriented view used by the CLI, and
// reusable patches that can be applied to a base text that has drifted from
// the one the patch was made against.
package diff

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept beside a change.
const contextLines = 3

// Op is the kind of a diff fragment.
type Op int8

const (
	Equal Op = iota
	Delete
	Insert
)

func (o Op) String() string {
	switch o {
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	default:
		return "equal"
	}
}

// Diff is one fragment of a diff, in left-to-right document order.
type Diff struct {
	Op   Op
	Text string
}

// Compute returns the semantically cleaned diff between two texts.
func Compute(oldText, newText string) []Diff {
	dmp := diffmatchpatch.New()
	d := dmp.DiffMain(oldText, newText, false)
	d = dmp.DiffCleanupSemantic(d)

	out := make([]Diff, 0, len(d))
	for _, f := range d {
		out = append(out, Diff{Op: op(f.Type), Text: f.Text})
	}
	return out
}

func op(t diffmatchpatch.Operation) Op {
	switch t {
	case diffmatchpatch.DiffDelete:
		return Delete
	case diffmatchpatch.DiffInsert:
		return Insert
	default:
		return Equal
	}
}

// RenderHTML renders diffs as escaped text with <del> and <ins> markup.
func RenderHTML(diffs []Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		text := html.EscapeString(d.Text)
		switch d.Op {
		case Delete:
			b.WriteString("<del>" + text + "</del>")
		case Insert:
			b.WriteString("<ins>" + text + "</ins>")
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

// Changed reports whether any fragment is an insertion or deletion.
func Changed(diffs []Diff) bool {
	for _, d := range diffs {
		if d.Op != Equal {
			return true
		}
	}
	return false
}

// Result holds a line-oriented diff with its labels.
type Result struct {
	Old     string // old label
	New     string // new label
	Diff    string // plain diff text
	Added   int    // lines only in the new side
	Removed int    // lines only in the old side
}

// run is a stretch of whole lines sharing one Op.
type run struct {
	op    Op
	lines []string
}

// Unified returns a line-oriented diff between old and new content. Lines
// are compared whole, so an edited line shows as one removal and one
// addition.
func Unified(oldContent, newContent, oldLabel, newLabel string) Result {
	r := Result{Old: oldLabel, New: newLabel}
	runs := lineRuns(oldContent, newContent)

	var b strings.Builder
	for i, rn := range runs {
		switch rn.op {
		case Delete:
			r.Removed += len(rn.lines)
			writeLines(&b, "- ", rn.lines)
		case Insert:
			r.Added += len(rn.lines)
			writeLines(&b, "+ ", rn.lines)
		default:
			writeContext(&b, rn.lines, i == 0, i == len(runs)-1)
		}
	}
	r.Diff = b.String()
	return r
}

func lineRuns(oldText, newText string) []run {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(oldText, newText)
	d := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	out := make([]run, 0, len(d))
	for _, f := range d {
		if f.Text == "" {
			continue
		}
		lines := strings.Split(strings.TrimSuffix(f.Text, "\n"), "\n")
		out = append(out, run{op: op(f.Type), lines: lines})
	}
	return out
}

func writeLines(b *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		b.WriteString(prefix + l + "\n")
	}
}

// writeContext prints unchanged lines, keeping contextLines beside each
// neighbouring change and folding the rest into a count. A run that opens
// the document has no change above it, and one that closes it none below.
func writeContext(b *strings.Builder, lines []string, first, last bool) {
	head, tail := contextLines, contextLines
	if first {
		head = 0
	}
	if last {
		tail = 0
	}
	if first && last {
		head = contextLines
	}
	if len(lines) <= head+tail+1 {
		writeLines(b, "  ", lines)
		return
	}
	writeLines(b, "  ", lines[:head])
	fmt.Fprintf(b, "  ... %d unchanged\n", len(lines)-head-tail)
	writeLines(b, "  ", lines[len(lines)-tail:])
}

// Format returns the diff under a header naming both sides and the
// size of the change. With colour set, removals are red and additions
// green.
func (r Result) Format(colour bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", r.Old, r.New)
	fmt.Fprintf(&b, "# %d removed, %d added\n", r.Removed, r.Added)
	for _, line := range strings.SplitAfter(r.Diff, "\n") {
		if line == "" {
			continue
		}
		if colour {
			line = paint(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func paint(line string) string {
	const reset = "\033[0m"
	switch {
	case strings.HasPrefix(line, "- "):
		return "\033[31m" + strings.TrimSuffix(line, "\n") + reset + "\n"
	case strings.HasPrefix(line, "+ "):
		return "\033[32m" + strings.TrimSuffix(line, "\n") + reset + "\n"
	default:
		return line
	}
}

// ParseVersionRange parses a version range string like "3:5" into two integers.
func ParseVersionRange(s string) (v1, v2 int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid version range %q (expected v1:v2)", s)
	}
	if parts[0] == "" || parts[1] == "" {
		return 0, 0, fmt.Errorf("invalid version range %q: both versions required", s)
	}
	v1, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start version: %w", err)
	}
	v2, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end version: %w", err)
	}
	if v1 < 1 {
		return 0, 0, fmt.Errorf("start version must be >= 1, got %d", v1)
	}
	if v2 < 1 {
		return 0, 0, fmt.Errorf("end version must be >= 1, got %d", v2)
	}
	return v1, v2, nil
}
