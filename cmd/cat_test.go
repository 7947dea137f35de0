package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCat(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	env.equals(env.cat(id), essay)
}

func TestCat_Version(t *testing.T) {
	env := newTestEnv(t)
	id := env.create("first\n")
	env.run("write", id, "second\n")

	env.equals(env.cat(id), "second")
	env.equals(env.cat(id, "-v", "1"), "first")

	_, err := env.runErr("cat", id, "-v", "9")
	assert.Error(t, err)
}

func TestCat_LineNumbers(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	out := env.run("cat", id, "-n")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "   0\t# Tides and the Moon", lines[0])
}

func TestCat_LineRange(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	out := env.run("cat", id, "-n", "-l", "2:3")
	env.equals(out, "   2\t## Introduction")

	out = env.run("cat", id, "--raw", "-l", ":1")
	env.equals(out, "# Tides and the Moon")
}

func TestCat_InvalidRange(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	_, err := env.runErr("cat", id, "-l", "5:2")
	assert.Error(t, err)
	_, err = env.runErr("cat", id, "-l", "abc")
	assert.Error(t, err)
}

func TestCat_JSON(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)
	env.run("write", id, "# Tides\n")

	var r struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		VersionNumber int    `json:"versionNumber"`
		Content       string `json:"content"`
	}
	env.runJSON(&r, "cat", id, "-v", "1")
	assert.Equal(t, id, r.ID)
	assert.Equal(t, 1, r.VersionNumber)
	assert.Equal(t, essay, r.Content)
}

func TestCat_ForeignDocument(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(essay)

	_, err := env.runErr("cat", id, "--user", "mallory")
	assert.Error(t, err)
}
