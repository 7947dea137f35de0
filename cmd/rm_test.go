package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRm_Force(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	out := env.run("rm", id, "--force")
	env.contains(out, "Deleted "+id)

	_, err := env.runErr("cat", id)
	assert.Error(t, err)

	var docs []lsEntry
	env.runJSON(&docs, "ls")
	assert.Empty(t, docs)
}

func TestRm_Confirm(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	out := env.runStdin("n\n", "rm", id)
	env.contains(out, "Cancelled")
	env.contains(env.cat(id), "Tides")

	out = env.runStdin("y\n", "rm", id)
	env.contains(out, "Deleted")
	_, err := env.runErr("cat", id)
	assert.Error(t, err)
}

func TestRm_ForeignDocument(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	_, err := env.runErr("rm", id, "--force", "--user", "mallory")
	assert.Error(t, err)
	env.contains(env.cat(id), "Tides")
}
