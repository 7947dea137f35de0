package tools_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/quill/internal/blob"
	"github.com/jpl-au/quill/internal/document"
	"github.com/jpl-au/quill/internal/edit"
	"github.com/jpl-au/quill/internal/lock"
	"github.com/jpl-au/quill/internal/section"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/tools"
)

func setupToolkit(t *testing.T) (*tools.Toolkit, service.Service) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "quill.db"))
	require.NoError(t, err)
	require.NoError(t, st.Init())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := document.New(st, blob.NewMemStore(), lock.NewLocal(), logger, document.Options{})
	t.Cleanup(func() { svc.Close() })
	return tools.New(svc, nil, logger), svc
}

// newDocument creates a document through write_to_editor and returns the
// session pointing at it.
func newDocument(t *testing.T, k *tools.Toolkit, content string) *tools.Session {
	t.Helper()
	s := &tools.Session{UserID: "alice", ChatID: "chat-1"}
	r := k.WriteToEditor(context.Background(), s, tools.WriteInput{Content: content})
	require.True(t, r.Success, r.Message)
	return s
}

func current(t *testing.T, svc service.Service, s *tools.Session) *service.DocumentWithContent {
	t.Helper()
	doc, err := svc.Get(context.Background(), s.DocumentID, s.UserID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func versions(t *testing.T, svc service.Service, s *tools.Session) int {
	t.Helper()
	vs, err := svc.ListVersions(context.Background(), s.DocumentID, s.UserID, 0)
	require.NoError(t, err)
	return len(vs)
}

func ptr[T any](v T) *T { return &v }

// --- Scenario ---

func TestToolkit_DraftScenario(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()
	s := &tools.Session{UserID: "alice", ChatID: "chat-1"}

	w := k.WriteToEditor(ctx, s, tools.WriteInput{
		Title:   "Draft",
		Content: "Remote work is good.\n\n## Benefits\nIt saves time.",
	})
	require.True(t, w.Success, w.Message)
	assert.True(t, w.Created)
	assert.Equal(t, tools.KindWrite, w.Kind)
	assert.Equal(t, 1, w.VersionNumber)
	assert.Equal(t, s.DocumentID, w.DocumentID, "session now points at the new document")

	r := k.ReplaceContent(ctx, s, tools.ReplaceInput{
		OldText: "Remote work is good.",
		NewText: "Remote work is excellent.",
	})
	require.True(t, r.Success, r.Message)
	assert.Equal(t, 2, r.VersionNumber)
	assert.Equal(t, "exact", r.Match)

	doc := current(t, svc, s)
	assert.True(t, strings.HasPrefix(doc.Content, "Remote work is excellent."))
	v, err := svc.GetVersion(ctx, r.VersionID, s.UserID)
	require.NoError(t, err)
	assert.Contains(t, v.Diff, "<del>good</del>")
	assert.Contains(t, v.Diff, "<ins>excellent</ins>")

	st := k.DocumentStructure(ctx, s)
	require.True(t, st.Success, st.Message)
	assert.Equal(t, []section.Section{{Level: 2, Title: "Benefits", LineStart: 2, LineEnd: 4}}, st.Sections)
	assert.Empty(t, st.Title, "Draft is metadata, not a level-1 heading")

	raw, err := json.Marshal(st)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "title")
	assert.Equal(t, "document_structure", fields["kind"])
}

// --- Guidance ---

func TestToolkit_NoDocumentGuidance(t *testing.T) {
	k, _ := setupToolkit(t)
	ctx := context.Background()
	s := &tools.Session{UserID: "alice"}

	results := []tools.Result{
		k.ReplaceContent(ctx, s, tools.ReplaceInput{OldText: "a", NewText: "b"}),
		k.BatchEdit(ctx, s, tools.BatchInput{Edits: []edit.Operation{edit.SearchOp(edit.Delete, "a", "")}}),
		k.RemoveCitations(ctx, s, tools.CitationInput{}),
		k.InsertContent(ctx, s, tools.InsertInput{Content: "x", Position: tools.AtEnd}),
		k.DocumentStructure(ctx, s),
	}
	for _, r := range results {
		assert.False(t, r.Status().Success)
		assert.Equal(t, tools.MsgNoDocument, r.Status().Message)
	}
}

func TestToolkit_InvalidInput(t *testing.T) {
	k, _ := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "text")

	assert.False(t, k.WriteToEditor(ctx, s, tools.WriteInput{}).Success)
	assert.False(t, k.ReplaceContent(ctx, s, tools.ReplaceInput{NewText: "x"}).Success)
	assert.False(t, k.BatchEdit(ctx, s, tools.BatchInput{}).Success)
	assert.False(t, k.InsertContent(ctx, s, tools.InsertInput{Content: "x", Position: "middle"}).Success)
	assert.False(t, k.InsertContent(ctx, s, tools.InsertInput{Content: "x", Position: tools.AfterText}).Success)

	w := k.WriteToEditor(ctx, &tools.Session{}, tools.WriteInput{Content: "x"})
	assert.False(t, w.Success, "a user is required")
}

// --- write_to_editor ---

func TestToolkit_WriteUpdates(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "first")

	r := k.WriteToEditor(ctx, s, tools.WriteInput{Content: "second", Title: "Named"})
	require.True(t, r.Success, r.Message)
	assert.False(t, r.Created)
	assert.Equal(t, 2, r.VersionNumber)
	assert.Equal(t, "Named", r.Title)

	vs, err := svc.ListVersions(ctx, s.DocumentID, s.UserID, 0)
	require.NoError(t, err)
	assert.Equal(t, store.AuthorAssistant, vs[0].CreatedBy)
}

func TestToolkit_ForeignDocument(t *testing.T) {
	k, _ := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "private")

	bob := &tools.Session{UserID: "bob", DocumentID: s.DocumentID}
	r := k.ReplaceContent(ctx, bob, tools.ReplaceInput{OldText: "private", NewText: "mine"})
	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "not found")

	st := k.DocumentStructure(ctx, bob)
	assert.False(t, st.Success)
}

// --- replace_content ---

func TestToolkit_ReplaceContent(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()

	t.Run("replace all", func(t *testing.T) {
		s := newDocument(t, k, "cat and cat and cat")
		r := k.ReplaceContent(ctx, s, tools.ReplaceInput{OldText: "cat", NewText: "dog", ReplaceAll: true})
		require.True(t, r.Success, r.Message)
		assert.Equal(t, 3, r.Replacements)
		assert.Equal(t, "dog and dog and dog", current(t, svc, s).Content)
	})

	t.Run("first only", func(t *testing.T) {
		s := newDocument(t, k, "cat and cat")
		r := k.ReplaceContent(ctx, s, tools.ReplaceInput{OldText: "cat", NewText: "dog"})
		require.True(t, r.Success, r.Message)
		assert.Equal(t, "dog and cat", current(t, svc, s).Content)
	})

	t.Run("fuzzy", func(t *testing.T) {
		s := newDocument(t, k, "Remote work improves focus for most teams.\n")
		r := k.ReplaceContent(ctx, s, tools.ReplaceInput{
			OldText: "Remote work improves Focus for most teams.",
			NewText: "Remote work improves focus for many teams.",
		})
		require.True(t, r.Success, r.Message)
		assert.Equal(t, "fuzzy", r.Match)
		assert.Less(t, r.Similarity, 1.0)
		assert.Contains(t, current(t, svc, s).Content, "many teams")
	})

	t.Run("not found writes nothing", func(t *testing.T) {
		s := newDocument(t, k, "Remote work is good.")
		r := k.ReplaceContent(ctx, s, tools.ReplaceInput{OldText: "The quarterly budget was approved", NewText: "x"})
		assert.False(t, r.Success)
		assert.Contains(t, r.Message, "text not found")
		assert.Equal(t, 1, versions(t, svc, s))
	})

	t.Run("no-op writes nothing", func(t *testing.T) {
		s := newDocument(t, k, "same")
		r := k.ReplaceContent(ctx, s, tools.ReplaceInput{OldText: "same", NewText: "same"})
		assert.False(t, r.Success)
		assert.Equal(t, 1, versions(t, svc, s))
	})
}

// --- batch_edit ---

func TestToolkit_BatchPartialFailure(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "alpha beta gamma delta epsilon")

	r := k.BatchEdit(ctx, s, tools.BatchInput{Edits: []edit.Operation{
		edit.SearchOp(edit.Replace, "alpha", "ALPHA"),
		edit.SearchOp(edit.Replace, "zzzzzzzzzzzzzzzzzzzzzzzz", "x"),
		edit.SearchOp(edit.Replace, "gamma", "GAMMA"),
		edit.SectionOp(edit.Replace, "Missing Section", "x"),
		edit.SearchOp(edit.Replace, "epsilon", "EPSILON"),
	}})
	require.True(t, r.Success, r.Message)
	assert.Len(t, r.AppliedEdits, 3)
	assert.Len(t, r.FailedEdits, 2)
	assert.Equal(t, 2, r.VersionNumber)
	assert.Equal(t, 2, versions(t, svc, s), "one version for the whole batch")
	assert.Equal(t, "ALPHA beta GAMMA delta EPSILON", current(t, svc, s).Content)
}

func TestToolkit_BatchNothingApplied(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "unchanged text")

	r := k.BatchEdit(ctx, s, tools.BatchInput{Edits: []edit.Operation{
		edit.SectionOp(edit.Delete, "Nope", ""),
		{Type: edit.Replace, Selection: edit.Selection{Mode: edit.Range}},
	}})
	assert.False(t, r.Success)
	assert.Empty(t, r.AppliedEdits)
	assert.Len(t, r.FailedEdits, 2)
	assert.Equal(t, 1, versions(t, svc, s))

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"appliedEdits":[]`)
}

func TestToolkit_BatchDecodesJSON(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "# Title\n\n## Intro\nold intro\n\n## Body\ntext")

	var in tools.BatchInput
	require.NoError(t, json.Unmarshal([]byte(`{"edits":[
		{"type":"replace","selection":{"mode":"section","sectionTitle":"intro"},"newContent":"new intro\n"},
		{"type":"delete","selection":{"mode":"range","startLine":0,"endLine":1}}
	]}`), &in))

	r := k.BatchEdit(ctx, s, in)
	require.True(t, r.Success, r.Message)
	assert.Equal(t, "\n## Intro\nnew intro\n\n## Body\ntext", current(t, svc, s).Content)
}

// --- remove_citations ---

func TestToolkit_RemoveCitations(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "Sales grew [1] [2] last year.\n## References\n[1] Report\n[2] Survey")

	r := k.RemoveCitations(ctx, s, tools.CitationInput{RemoveReferencesSection: true})
	require.True(t, r.Success, r.Message)
	assert.Equal(t, 2, r.CitationsRemoved)
	assert.True(t, r.ReferencesRemoved)

	content := current(t, svc, s).Content
	assert.False(t, regexp.MustCompile(`\[\d+\]`).MatchString(content))
	assert.NotContains(t, content, "References")

	again := k.RemoveCitations(ctx, s, tools.CitationInput{})
	assert.True(t, again.Success)
	assert.Empty(t, again.VersionID, "nothing to remove, no new version")
	assert.Equal(t, 2, versions(t, svc, s))
}

// --- insert_content ---

func TestToolkit_InsertContent(t *testing.T) {
	k, svc := setupToolkit(t)
	ctx := context.Background()
	base := "# Essay\nIntro line.\n## Benefits\nIt saves time.\n## Costs\nIt is lonely."

	tests := []struct {
		name string
		in   tools.InsertInput
		want string
	}{
		{
			name: "start",
			in:   tools.InsertInput{Content: "Preface.", Position: tools.AtStart},
			want: "Preface.\n\n" + base,
		},
		{
			name: "end",
			in:   tools.InsertInput{Content: "Conclusion.", Position: tools.AtEnd},
			want: base + "\n\nConclusion.",
		},
		{
			name: "after text",
			in:   tools.InsertInput{Content: "Second intro line.", Position: tools.AfterText, Anchor: "Intro line."},
			want: "# Essay\nIntro line.\nSecond intro line.\n## Benefits\nIt saves time.\n## Costs\nIt is lonely.",
		},
		{
			name: "end of section",
			in:   tools.InsertInput{Content: "It saves money.", Position: tools.EndOfSection, Anchor: "benefits"},
			want: "# Essay\nIntro line.\n## Benefits\nIt saves time.\nIt saves money.\n## Costs\nIt is lonely.",
		},
		{
			name: "line",
			in:   tools.InsertInput{Content: "Subtitle", Position: tools.AtLine, Line: ptr(1)},
			want: "# Essay\nSubtitle\nIntro line.\n## Benefits\nIt saves time.\n## Costs\nIt is lonely.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newDocument(t, k, base)
			r := k.InsertContent(ctx, s, tt.in)
			require.True(t, r.Success, r.Message)
			assert.Equal(t, tt.in.Position, r.Position)
			assert.Equal(t, tt.want, current(t, svc, s).Content)
		})
	}

	t.Run("line out of range", func(t *testing.T) {
		s := newDocument(t, k, base)
		r := k.InsertContent(ctx, s, tools.InsertInput{Content: "x", Position: tools.AtLine, Line: ptr(99)})
		assert.False(t, r.Success)
		assert.Contains(t, r.Message, "invalid line range")
	})

	t.Run("missing section", func(t *testing.T) {
		s := newDocument(t, k, base)
		r := k.InsertContent(ctx, s, tools.InsertInput{Content: "x", Position: tools.EndOfSection, Anchor: "Risks"})
		assert.False(t, r.Success)
		assert.Contains(t, r.Message, "section not found")
	})
}

// --- Result union ---

func TestResult_Kinds(t *testing.T) {
	k, _ := setupToolkit(t)
	ctx := context.Background()
	s := newDocument(t, k, "# Doc\ntext [1]")

	results := []tools.Result{
		k.WriteToEditor(ctx, s, tools.WriteInput{Content: "# Doc\ntext [1] more"}),
		k.ReplaceContent(ctx, s, tools.ReplaceInput{OldText: "more", NewText: "less"}),
		k.BatchEdit(ctx, s, tools.BatchInput{Edits: []edit.Operation{edit.SearchOp(edit.Delete, " less", "")}}),
		k.RemoveCitations(ctx, s, tools.CitationInput{}),
		k.InsertContent(ctx, s, tools.InsertInput{Content: "end", Position: tools.AtEnd}),
		k.DocumentStructure(ctx, s),
	}
	var kinds []tools.Kind
	for _, r := range results {
		require.True(t, r.Status().Success, r.Status().Message)
		switch v := r.(type) {
		case *tools.WriteResult:
			kinds = append(kinds, v.Kind)
		case *tools.ReplaceResult:
			kinds = append(kinds, v.Kind)
		case *tools.BatchResult:
			kinds = append(kinds, v.Kind)
		case *tools.CitationResult:
			kinds = append(kinds, v.Kind)
		case *tools.InsertResult:
			kinds = append(kinds, v.Kind)
		case *tools.StructureResult:
			kinds = append(kinds, v.Kind)
			assert.Equal(t, "Doc", v.Title)
		}
	}
	assert.Equal(t, []tools.Kind{
		tools.KindWrite, tools.KindReplace, tools.KindBatch,
		tools.KindCitations, tools.KindInsert, tools.KindStructure,
	}, kinds)
}
