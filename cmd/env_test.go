// The cmd/ package holds CLI integration tests that exercise the full
// stack: command parsing -> extension -> service -> store and blobs.
//
// Each test builds the quill binary once, runs it in a temporary workspace
// with HOME pointed at a temporary directory so no global config leaks in,
// and sets QUILL_USER so commands have a user.

package cmd

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// buildBinary compiles the quill binary once for all tests.
func buildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "quill-test-bin-*")
		if err != nil {
			buildErr = err
			return
		}

		binaryName := "quill"
		if os.PathSeparator == '\\' {
			binaryName = "quill.exe"
		}
		binaryPath = filepath.Join(tmpDir, binaryName)

		projectRoot := filepath.Dir(mustGetwd())

		cmd := exec.Command("go", "build", "-o", binaryPath, ".")
		cmd.Dir = projectRoot
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = &buildError{err: err, output: string(out)}
			return
		}
	})

	if buildErr != nil {
		t.Fatalf("failed to build binary: %v", buildErr)
	}
	return binaryPath
}

type buildError struct {
	err    error
	output string
}

func (e *buildError) Error() string {
	return e.err.Error() + "\n" + e.output
}

func mustGetwd() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return dir
}

// testEnv holds test environment state.
type testEnv struct {
	t      *testing.T
	dir    string
	home   string
	binary string
	user   string
}

// newTestEnv creates a temporary directory with an initialised workspace.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newBareEnv(t)
	env.run("init")
	return env
}

// newBareEnv creates a temporary directory without a workspace.
func newBareEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		t:      t,
		dir:    t.TempDir(),
		home:   t.TempDir(),
		binary: buildBinary(t),
		user:   "alice",
	}
}

func (e *testEnv) command(args ...string) *exec.Cmd {
	cmd := exec.Command(e.binary, args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), "HOME="+e.home, "USERPROFILE="+e.home)
	if e.user != "" {
		cmd.Env = append(cmd.Env, "QUILL_USER="+e.user)
	} else {
		cmd.Env = append(cmd.Env, "QUILL_USER=")
	}
	return cmd
}

// run executes quill with the given args and returns combined output.
func (e *testEnv) run(args ...string) string {
	e.t.Helper()
	out, err := e.runErr(args...)
	if err != nil {
		e.t.Fatalf("quill %v failed: %v\noutput: %s", args, err, out)
	}
	return out
}

// runErr executes quill and returns combined output and any error.
func (e *testEnv) runErr(args ...string) (string, error) {
	e.t.Helper()
	out, err := e.command(args...).CombinedOutput()
	return string(out), err
}

// runStdin executes quill with stdin input.
func (e *testEnv) runStdin(input string, args ...string) string {
	e.t.Helper()
	out, err := e.runStdinErr(input, args...)
	if err != nil {
		e.t.Fatalf("quill %v failed: %v\noutput: %s", args, err, out)
	}
	return out
}

// runStdinErr executes quill with stdin input and returns any error.
func (e *testEnv) runStdinErr(input string, args ...string) (string, error) {
	e.t.Helper()
	cmd := e.command(args...)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// runJSON executes quill with -o json and decodes stdout into v.
func (e *testEnv) runJSON(v any, args ...string) {
	e.t.Helper()
	cmd := e.command(append(args, "-o", "json")...)
	out, err := cmd.Output()
	require.NoError(e.t, err, "quill %v: %s", args, out)
	require.NoError(e.t, json.Unmarshal(out, v), "decode %q", out)
}

// runStdinJSON is runJSON with stdin input.
func (e *testEnv) runStdinJSON(v any, input string, args ...string) {
	e.t.Helper()
	cmd := e.command(append(args, "-o", "json")...)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.Output()
	require.NoError(e.t, err, "quill %v: %s", args, out)
	require.NoError(e.t, json.Unmarshal(out, v), "decode %q", out)
}

// create makes a document and returns its id.
func (e *testEnv) create(content string, args ...string) string {
	e.t.Helper()
	var r struct {
		ID string `json:"id"`
	}
	e.runStdinJSON(&r, content, append([]string{"create"}, args...)...)
	require.NotEmpty(e.t, r.ID)
	return r.ID
}

// cat returns a document's raw content.
func (e *testEnv) cat(id string, args ...string) string {
	e.t.Helper()
	return e.run(append([]string{"cat", id, "--raw"}, args...)...)
}

// contains checks if output contains expected string.
func (e *testEnv) contains(output, expected string) {
	e.t.Helper()
	assert.Contains(e.t, output, expected)
}

// equals checks if output equals expected string (trimmed).
func (e *testEnv) equals(output, expected string) {
	e.t.Helper()
	assert.Equal(e.t, strings.TrimSpace(expected), strings.TrimSpace(output))
}

// missingID is a well-formed document id that no test creates.
const missingID = "00000000-0000-4000-8000-000000000000"

// essay is a document an assistant might write: a title, nested sections,
// citations and a references section.
const essay = `# Tides and the Moon

## Introduction

Tides are the regular rise and fall of sea level [1]. They are caused by
the gravitational pull of the Moon and, to a lesser degree, the Sun [2].

## Mechanism

### Lunar gravity

The Moon pulls hardest on the ocean facing it, raising a bulge [1].

### The second bulge

A second bulge forms on the far side of the Earth [3].

## Conclusion

Most coasts see two high tides a day.

## References

1. Smith, Oceans, 2019.
2. Jones, Gravity, 2020.
3. Lee, Tides, 2021.
`
