package blob

import (
	"fmt"
	"path"
	"strings"
)

// DocumentKey is where a document's current content lives.
func DocumentKey(userID, documentID string) string {
	return path.Join("documents", userID, documentID+".json")
}

// VersionKey is where an immutable version's content lives.
func VersionKey(userID, documentID string, number int) string {
	return path.Join("documents", userID, documentID, "versions", fmt.Sprintf("%d.json", number))
}

// checkKey rejects keys that could escape a backend's namespace.
func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.ContainsRune(key, 0) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return fmt.Errorf("invalid blob key %q", key)
		}
	}
	return nil
}
