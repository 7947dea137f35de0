// repo_gitignore.go manages the .gitignore entries that keep workspace data
// local.
//
// Existing gitignore content and formatting are preserved; only the entries
// under the local header are added.

package repo

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const localHeader = "# Local data (not committed)"

// localEntries are the workspace paths ignored by a local workspace.
var localEntries = []string{DBFile, DBFile + "-*", BlobDir + "/"}

// parseGitignore reads a gitignore file and returns its lines (trimmed).
func parseGitignore(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines, nil
}

// Ignore adds the database and blob directory to root's .gitignore.
// Entries already present are left alone.
func Ignore(root string) error {
	gitignore := filepath.Join(root, ".gitignore")

	lines, err := parseGitignore(gitignore)
	if err != nil {
		return err
	}

	var missing []string
	for _, e := range localEntries {
		if !slices.Contains(lines, e) {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	content, err := os.ReadFile(gitignore)
	if err != nil {
		return err
	}
	s := string(content)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if !slices.Contains(lines, localHeader) {
		s += "\n" + localHeader + "\n"
	}
	s += strings.Join(missing, "\n") + "\n"

	return os.WriteFile(gitignore, []byte(s), 0644)
}

// IsIgnored reports whether root's workspace data is gitignored.
func IsIgnored(root string) (bool, error) {
	lines, err := parseGitignore(filepath.Join(root, ".gitignore"))
	if err != nil {
		return false, err
	}
	return slices.Contains(lines, DBFile), nil
}
