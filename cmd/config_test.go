package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetAndGet(t *testing.T) {
	env := newTestEnv(t)

	env.run("config", "match.threshold", "0.9")

	out := env.run("config", "match.threshold")
	env.equals(out, "0.9")

	// Without a local config file, writes go to the global one.
	_, err := os.Stat(filepath.Join(env.home, ".quill", "config.yaml"))
	require.NoError(t, err)
}

func TestConfig_Local(t *testing.T) {
	env := newTestEnv(t)

	env.run("config", "--local", "log.format", "json")

	assert.FileExists(t, filepath.Join(env.dir, ".quill", "config.yaml"))
	out := env.run("config", "log.format")
	env.equals(out, "json")
}

func TestConfig_List(t *testing.T) {
	env := newTestEnv(t)
	env.run("config", "user.id", "carol")

	var all map[string]string
	env.runJSON(&all, "config")
	assert.Equal(t, "carol", all["user.id"])
}

func TestConfig_InvalidKey(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runErr("config", "no.such.key", "x")
	assert.Error(t, err)
}

func TestConfig_UserIDUsedByCommands(t *testing.T) {
	env := newTestEnv(t)
	env.user = ""
	env.run("config", "user.id", "dave")

	id := env.create("# Dave's notes\n")

	var docs []struct {
		ID string `json:"id"`
	}
	env.runJSON(&docs, "ls")
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
}
