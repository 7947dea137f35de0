package edit

import (
	"regexp"
	"strings"
)

var (
	// A marker swallows the whitespace before it so "grew [1] last" reads
	// "grew last" and "fact [2]." reads "fact.". Linked markers like
	// [3](https://...) go with it.
	citation   = regexp.MustCompile(`[ \t]*\[\d+\](?:\([^)\s]*\))?`)
	references = regexp.MustCompile(`(?im)^#{1,6}[ \t]+references[ \t]*#*[ \t]*$`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// CitationResult is the outcome of RemoveCitations.
type CitationResult struct {
	Content           string `json:"-"`
	CitationsRemoved  int    `json:"citationsRemoved"`
	ReferencesRemoved bool   `json:"referencesRemoved"`
}

// RemoveCitations strips numeric citation markers such as [1] and, when
// removeReferences is set, the first "References" heading and everything
// after it. The reference list is cut first so its own [n] entries are not
// counted as markers.
func RemoveCitations(content string, removeReferences bool) CitationResult {
	var r CitationResult
	out := content

	if removeReferences {
		if loc := references.FindStringIndex(out); loc != nil {
			out = strings.TrimRight(out[:loc[0]], " \t\n")
			r.ReferencesRemoved = true
		}
	}

	r.CitationsRemoved = len(citation.FindAllStringIndex(out, -1))
	if r.CitationsRemoved > 0 {
		out = citation.ReplaceAllString(out, "")
		out = blankRuns.ReplaceAllString(out, "\n\n")
	}

	r.Content = out
	return r
}
