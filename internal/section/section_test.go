package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleSection(t *testing.T) {
	got := Parse("Remote work is good.\n\n## Benefits\nIt saves time.")

	require.Len(t, got, 1)
	assert.Equal(t, Section{Level: 2, Title: "Benefits", LineStart: 2, LineEnd: 4}, got[0])

	_, ok := Title(got)
	assert.False(t, ok, "no level-1 heading present")
}

func TestParse_Nested(t *testing.T) {
	doc := `# Report
Intro text.
## Background
Some history.
### Detail
Deep dive.
## Findings
Results.
# Appendix
Extra.`

	got := Parse(doc)
	want := []Section{
		{Level: 1, Title: "Report", LineStart: 0, LineEnd: 8},
		{Level: 2, Title: "Background", LineStart: 2, LineEnd: 6},
		{Level: 3, Title: "Detail", LineStart: 4, LineEnd: 6},
		{Level: 2, Title: "Findings", LineStart: 6, LineEnd: 8},
		{Level: 1, Title: "Appendix", LineStart: 8, LineEnd: 10},
	}
	assert.Equal(t, want, got)

	title, ok := Title(got)
	require.True(t, ok)
	assert.Equal(t, "Report", title)
}

func TestParse_IgnoresNonHeadings(t *testing.T) {
	doc := "#hashtag\n####### seven\n   \n## Real ##\ntext"

	got := Parse(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "Real", got[0].Title)
	assert.Equal(t, 3, got[0].LineStart)
}

func TestParse_SkipsFencedCode(t *testing.T) {
	doc := "## Usage\n```sh\n# not a heading\n```\n## Next\nbody"

	got := Parse(doc)
	require.Len(t, got, 2)
	assert.Equal(t, "Usage", got[0].Title)
	assert.Equal(t, 4, got[0].LineEnd)
	assert.Equal(t, "Next", got[1].Title)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("plain text\nno headings"))
}

func TestFind(t *testing.T) {
	sections := Parse("# Intro\n## Key Benefits\n## Benefits Overview\n")

	tests := []struct {
		name  string
		query string
		want  string
		found bool
	}{
		{"exact", "Intro", "Intro", true},
		{"case insensitive", "key benefits", "Key Benefits", true},
		{"substring first wins", "benefits", "Key Benefits", true},
		{"missing", "Conclusion", "", false},
		{"blank", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Find(sections, tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}
