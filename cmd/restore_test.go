package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestore(t *testing.T) {
	env := newTestEnv(t)
	id := env.create("original\n")
	env.run("write", id, "rewritten\n")

	var versions []versionEntry
	env.runJSON(&versions, "history", id)
	require.Len(t, versions, 2)
	v1 := versions[1].ID

	out := env.run("restore", v1)
	env.contains(out, "Restored "+id+" v3")
	env.equals(env.cat(id), "original")

	// The rewrite is still in history, so the restore can be undone.
	env.runJSON(&versions, "history", id)
	require.Len(t, versions, 3)
	env.equals(env.cat(id, "-v", "2"), "rewritten")
}

func TestRestore_JSON(t *testing.T) {
	env := newTestEnv(t)
	id := env.create("a\n")
	env.run("write", id, "b\n")

	var versions []versionEntry
	env.runJSON(&versions, "history", id)
	require.Len(t, versions, 2)

	var r writeJSON
	env.runJSON(&r, "restore", versions[1].ID)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, 3, r.VersionNumber)
}

func TestRestore_ForeignVersion(t *testing.T) {
	env := newTestEnv(t)
	id := env.create("mine\n")

	var versions []versionEntry
	env.runJSON(&versions, "history", id)
	require.Len(t, versions, 1)

	_, err := env.runErr("restore", versions[0].ID, "--user", "mallory")
	assert.Error(t, err)
}

func TestRestore_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runErr("restore", "no-such-version")
	assert.Error(t, err)
}
