// Package history lists a document's versions, optionally with the diff
// each version introduced.
package history

import (
	"context"
	"fmt"
	"io"

	"github.com/jpl-au/quill/internal/format"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
)

// Options configures a history operation.
type Options struct {
	Limit    int  // Maximum versions to return (0 = all)
	ShowDiff bool // Show the diff each version introduced
	Colour   bool // Colourise diff output
}

// Result contains the outcome of a history operation.
type Result struct {
	Versions []store.Version
}

// Run retrieves the history of a document the user owns and writes it to
// w, newest first.
func Run(ctx context.Context, w io.Writer, svc service.Service, documentID, userID string, opts Options) (Result, error) {
	var result Result

	versions, err := svc.ListVersions(ctx, documentID, userID, opts.Limit)
	if err != nil {
		return result, err
	}
	if len(versions) == 0 {
		return result, fmt.Errorf("no history found for %s", documentID)
	}
	result.Versions = versions

	if !opts.ShowDiff {
		return result, format.History(w, versions)
	}

	changes, err := changes(ctx, svc, userID, versions)
	if err != nil {
		return result, err
	}
	return result, format.HistoryDiff(w, changes, opts.Colour)
}

// changes pairs each version with its predecessor's content. Versions are
// newest first; the predecessor of the oldest listed version is fetched
// separately when the list was truncated.
func changes(ctx context.Context, svc service.Service, userID string, versions []store.Version) ([]format.Change, error) {
	contents := make([]string, len(versions))
	for i, v := range versions {
		vc, err := svc.GetVersion(ctx, v.ID, userID)
		if err != nil {
			return nil, err
		}
		if vc == nil {
			return nil, fmt.Errorf("version %d content unavailable", v.VersionNumber)
		}
		contents[i] = vc.Content
	}

	out := make([]format.Change, len(versions))
	for i, v := range versions {
		out[i] = format.Change{Version: v, Content: contents[i]}
		if i+1 < len(versions) {
			out[i].Previous = contents[i+1]
		}
	}

	last := len(versions) - 1
	if oldest := versions[last]; oldest.VersionNumber > 1 {
		prev, err := previous(ctx, svc, userID, oldest)
		if err != nil {
			return nil, err
		}
		out[last].Previous = prev
	}
	return out, nil
}

// previous returns the content of the version before v.
func previous(ctx context.Context, svc service.Service, userID string, v store.Version) (string, error) {
	all, err := svc.ListVersions(ctx, v.DocumentID, userID, 0)
	if err != nil {
		return "", err
	}
	for _, p := range all {
		if p.VersionNumber != v.VersionNumber-1 {
			continue
		}
		vc, err := svc.GetVersion(ctx, p.ID, userID)
		if err != nil {
			return "", err
		}
		if vc != nil {
			return vc.Content, nil
		}
	}
	return "", nil
}
