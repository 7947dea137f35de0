// resources.go implements MCP resource handlers for document access.
//
// Resource URIs follow quill://documents/{id}[/v/{version}]. Omitting the
// version returns the current content. Resources are read as the
// configured user.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	// ErrInvalidURI indicates a malformed resource URI.
	ErrInvalidURI = errors.New("invalid URI")
	// ErrEmptyID indicates a missing document id in a resource URI.
	ErrEmptyID = errors.New("empty document id")
)

const uriPrefix = "quill://documents/"

// readResource handles both document resource templates.
func (h *handlers) readResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.svc == nil {
		return nil, errors.New(ErrNotInitialised)
	}

	id, version, err := parseDocumentURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	user := ""
	if h.cfg != nil {
		user = h.cfg.UserID()
	}

	var content string
	if version > 0 {
		doc, err := h.readVersion(ctx, id, user, version)
		if err != nil {
			return nil, err
		}
		content = doc.Content
	} else {
		doc, err := h.svc.Get(ctx, id, user)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, errDocumentNotFound
		}
		content = doc.Content
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

// parseDocumentURI extracts the document id and optional version number.
func parseDocumentURI(uri string) (id string, version int, err error) {
	if !strings.HasPrefix(uri, uriPrefix) {
		return "", 0, fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}

	rest := strings.TrimPrefix(uri, uriPrefix)
	if rest == "" {
		return "", 0, ErrEmptyID
	}

	id, v, ok := strings.Cut(rest, "/v/")
	if !ok {
		return rest, 0, nil
	}
	if id == "" {
		return "", 0, ErrEmptyID
	}
	version, err = strconv.Atoi(v)
	if err != nil || version < 1 {
		return "", 0, fmt.Errorf("%w: invalid version %s", ErrInvalidURI, v)
	}
	return id, version, nil
}
