// Package match locates model-authored snippets inside a document.
//
// A language model describing "the text to change" rarely reproduces the
// document byte for byte. Matching therefore runs in stages: an exact
// substring search, a whitespace-normalised search, and finally a fuzzy
// search built on diff-match-patch's bitap matcher. Fuzzy candidates are
// scored by edit distance and rejected below a similarity threshold, so a
// near miss is reported as not found instead of editing the wrong text.
package match

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultThreshold is the minimum similarity a fuzzy candidate needs.
const DefaultThreshold = 0.8

// maxProbe is the longest pattern bitap handles in one pass. Longer needles
// are located by their head and tail.
const maxProbe = 32

// refine is how far the fuzzy span edges are nudged when scoring.
const refine = 2

// Stage identifies which matching strategy produced a match.
type Stage int

const (
	StageExact      Stage = iota // byte-for-byte substring
	StageWhitespace              // equal after collapsing whitespace runs
	StageFuzzy                   // bitap candidate above the threshold
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageWhitespace:
		return "whitespace"
	case StageFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// Match is a located span of the haystack.
type Match struct {
	Index      int     // byte offset of the span
	Length     int     // span length in bytes
	Similarity float64 // 1.0 for exact matches
	Stage      Stage
}

// End returns the byte offset just past the span.
func (m Match) End() int { return m.Index + m.Length }

// Text returns the matched span of haystack.
func (m Match) Text(haystack string) string { return haystack[m.Index:m.End()] }

// Matcher locates snippets using a fixed similarity threshold.
type Matcher struct {
	threshold float64
}

// New returns a Matcher. A threshold outside (0, 1] selects DefaultThreshold.
func New(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold reports the configured similarity threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Locate finds needle in haystack, searching from the start of the document.
func (m *Matcher) Locate(haystack, needle string) (Match, bool) {
	return m.LocateFrom(haystack, needle, 0)
}

// LocateFrom finds needle in haystack. The hint is the byte offset where the
// fuzzy stage expects the match; exact and whitespace stages always return
// the first occurrence.
func (m *Matcher) LocateFrom(haystack, needle string, hint int) (Match, bool) {
	if needle == "" || haystack == "" {
		return Match{}, false
	}
	if i := strings.Index(haystack, needle); i >= 0 {
		return Match{Index: i, Length: len(needle), Similarity: 1, Stage: StageExact}, true
	}
	if mt, ok := whitespace(haystack, needle); ok {
		return mt, true
	}
	return m.fuzzy(haystack, needle, hint)
}

// All returns the offsets of every non-overlapping exact occurrence.
func All(haystack, needle string) []int {
	if needle == "" {
		return nil
	}
	var idx []int
	for off := 0; off <= len(haystack); {
		i := strings.Index(haystack[off:], needle)
		if i < 0 {
			break
		}
		idx = append(idx, off+i)
		off += i + len(needle)
	}
	return idx
}

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) in runes.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n == 0 {
		return 1
	}
	dmp := diffmatchpatch.New()
	d := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
	return 1 - float64(d)/float64(n)
}

func whitespace(haystack, needle string) (Match, bool) {
	fields := strings.Fields(needle)
	if len(fields) == 0 {
		return Match{}, false
	}
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	re, err := regexp.Compile(strings.Join(fields, `\s+`))
	if err != nil {
		return Match{}, false
	}
	loc := re.FindStringIndex(haystack)
	if loc == nil {
		return Match{}, false
	}
	return Match{
		Index:      loc[0],
		Length:     loc[1] - loc[0],
		Similarity: Similarity(needle, haystack[loc[0]:loc[1]]),
		Stage:      StageWhitespace,
	}, true
}

func (m *Matcher) fuzzy(haystack, needle string, hint int) (Match, bool) {
	dmp := diffmatchpatch.New()
	// Bitap only proposes candidates; the similarity score decides. A wide
	// distance keeps position from outweighing content.
	dmp.MatchThreshold = 0.6
	dmp.MatchDistance = 10*len(haystack) + 1000

	head := prefix(needle, maxProbe)
	tail := suffix(needle, maxProbe)
	tailOff := len(needle) - len(tail)

	hint = clamp(hint, 0, len(haystack))
	headIdx := dmp.MatchMain(haystack, head, hint)
	var tailIdx int
	if tail == needle {
		tailIdx = headIdx
	} else {
		from := hint + tailOff
		if headIdx >= 0 {
			from = headIdx + tailOff
		}
		tailIdx = dmp.MatchMain(haystack, tail, clamp(from, 0, len(haystack)))
	}

	var start, end int
	switch {
	case headIdx >= 0 && tailIdx >= 0 && tailIdx+len(tail) > headIdx && tailIdx+len(tail)-headIdx <= 2*len(needle):
		start, end = headIdx, tailIdx+len(tail)
	case headIdx >= 0:
		start, end = headIdx, headIdx+len(needle)
	case tailIdx >= 0:
		start, end = tailIdx-tailOff, tailIdx+len(tail)
	default:
		return Match{}, false
	}

	best, ok := m.best(haystack, needle, start, end)
	if !ok || best.Similarity < m.threshold {
		return Match{}, false
	}
	return best, true
}

// best scores spans around [start, end) and keeps the most similar one.
// Ties prefer the earliest start, then the longer span.
func (m *Matcher) best(haystack, needle string, start, end int) (Match, bool) {
	var best Match
	found := false
	for ds := -refine; ds <= refine; ds++ {
		for de := -refine; de <= refine; de++ {
			s := runeStart(haystack, clamp(start+ds, 0, len(haystack)))
			e := runeStart(haystack, clamp(end+de, 0, len(haystack)))
			if e <= s {
				continue
			}
			c := Match{Index: s, Length: e - s, Stage: StageFuzzy}
			c.Similarity = Similarity(needle, haystack[s:e])
			if !found || better(c, best) {
				best, found = c, true
			}
		}
	}
	return best, found
}

func better(a, b Match) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return a.Length > b.Length
}

// prefix returns at most n bytes from the start of s, cut on a rune boundary.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// suffix returns at most n bytes from the end of s, cut on a rune boundary.
func suffix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// runeStart moves i forward to the next rune boundary.
func runeStart(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
