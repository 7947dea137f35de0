// errors.go defines sentinel errors for validation failures.
//
// Detailed messages are provided by wrapping these with fmt.Errorf in the
// validation functions; callers match the category with errors.Is.

package validate

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidUser     = errors.New("invalid user")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrContentTooLarge = errors.New("content too large")
)
