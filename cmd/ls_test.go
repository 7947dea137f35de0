package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lsEntry struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	Title     string `json:"title"`
	WordCount int    `json:"wordCount"`
}

func TestLs_Empty(t *testing.T) {
	env := newTestEnv(t)

	var docs []lsEntry
	env.runJSON(&docs, "ls")
	assert.Empty(t, docs)
}

func TestLs_Text(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	out := env.run("ls")
	env.contains(out, id+"  Tides and the Moon")

	out = env.run("ls", "-l")
	env.contains(out, "WORDS")
	env.contains(out, id)
}

func TestLs_Chat(t *testing.T) {
	env := newTestEnv(t)
	a := env.create("# A\n", "--chat", "c1")
	env.create("# B\n", "--chat", "c2")

	var docs []lsEntry
	env.runJSON(&docs, "ls", "--chat", "c1")
	require.Len(t, docs, 1)
	assert.Equal(t, a, docs[0].ID)
	assert.Equal(t, "c1", docs[0].ChatID)
}

func TestLs_PerUser(t *testing.T) {
	env := newTestEnv(t)
	env.create("# Alice's\n")
	env.create("# Bob's\n", "--user", "bob")

	var docs []lsEntry
	env.runJSON(&docs, "ls", "--user", "bob")
	require.Len(t, docs, 1)
	assert.Equal(t, "Bob's", docs[0].Title)
}

func TestLs_Sort(t *testing.T) {
	env := newTestEnv(t)
	env.create("# Beta\n\none two three\n")
	env.create("# Alpha\n\none\n")

	var docs []lsEntry
	env.runJSON(&docs, "ls", "--sort", "title")
	require.Len(t, docs, 2)
	assert.Equal(t, "Alpha", docs[0].Title)

	// Word count sorts largest first.
	env.runJSON(&docs, "ls", "--sort", "words")
	require.Len(t, docs, 2)
	assert.Equal(t, "Beta", docs[0].Title)

	env.runJSON(&docs, "ls", "--sort", "words", "--reverse")
	require.Len(t, docs, 2)
	assert.Equal(t, "Alpha", docs[0].Title)
}

func TestLs_InvalidSort(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runErr("ls", "--sort", "size")
	assert.Error(t, err)
}
