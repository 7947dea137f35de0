package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	env := newBareEnv(t)

	out := env.run("init")
	env.contains(out, "Initialised quill workspace")

	assert.DirExists(t, filepath.Join(env.dir, ".quill", "blobs"))
	assert.FileExists(t, filepath.Join(env.dir, ".quill", "quill.db"))
	assert.FileExists(t, filepath.Join(env.dir, ".quill", ".gitignore"))
	// init creates structure only; config is written by "quill config".
	assert.NoFileExists(t, filepath.Join(env.dir, ".quill", "config.yaml"))
}

func TestInit_Dir(t *testing.T) {
	env := newBareEnv(t)

	env.run("init", "sub")
	assert.FileExists(t, filepath.Join(env.dir, "sub", ".quill", "quill.db"))
}

func TestInit_AlreadyInitialised(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.runErr("init")
	require.Error(t, err)
	env.contains(out, "already exists")
}

func TestInit_Force(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	env.run("init", "--force")

	_, err := env.runErr("cat", id, "--raw")
	assert.Error(t, err, "documents should be gone after a forced reinit")
}

func TestInit_Local(t *testing.T) {
	env := newBareEnv(t)

	env.run("init", "--local")

	var status struct {
		Local bool `json:"local"`
	}
	env.runJSON(&status, "db")
	assert.True(t, status.Local)
}

func TestCommand_NotInitialised(t *testing.T) {
	env := newBareEnv(t)

	out, err := env.runErr("ls")
	require.Error(t, err)
	env.contains(out, "init")
}

func TestCommand_NoUser(t *testing.T) {
	env := newTestEnv(t)
	env.user = ""

	out, err := env.runErr("ls")
	require.Error(t, err)
	env.contains(out, "no user configured")

	// --user supplies one for a single command.
	env.run("ls", "--user", "bob")
}
