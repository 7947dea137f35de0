// Package validate provides input validation for quill's domain types.
//
// This package enforces integrity rules at the boundary between caller input
// (CLI flags, MCP arguments, tool calls) and the document service. Each
// validation function returns nil on success or an error wrapping one of the
// sentinels in errors.go.
//
// # Validation Functions
//
// ID checks that a document, version or plan identifier is a UUID.
// User checks the owner identity attached to every operation.
// Title checks document titles.
// Content checks document body size limits.
//
// Use errors.Is() for type-safe error checking:
//
//	if errors.Is(err, validate.ErrInvalidID) {
//	    // handle invalid id
//	}
package validate
