// content.go implements document content validation.
//
// Only size is checked. Documents are markdown but any UTF-8 text is stored
// as given.

package validate

import "fmt"

// Content validates document content size.
//
// Validation rules:
//   - Max length enforced if maxLen > 0 (0 means no limit)
func Content(content string, maxLen int64) error {
	if maxLen > 0 && int64(len(content)) > maxLen {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrContentTooLarge, len(content), maxLen)
	}
	return nil
}
