package validate

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// MaxUser is the longest accepted user identity.
const MaxUser = 128

// ID validates an identifier issued by the store. kind names the
// identifier in the error ("document", "version", "plan").
func ID(kind, id string) error {
	err := validation.Validate(id, validation.Required, validation.By(isUUID))
	if err != nil {
		return fmt.Errorf("%w: %s id %q: %v", ErrInvalidID, kind, id, err)
	}
	return nil
}

// User validates the identity that owns documents.
//
// Validation rules:
//   - Required (every document belongs to someone)
//   - At most MaxUser bytes
//   - No null bytes or line breaks
func User(id string) error {
	err := validation.Validate(id,
		validation.Required,
		validation.Length(1, MaxUser),
		validation.By(noControl),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	return nil
}

func isUUID(v any) error {
	s, _ := v.(string)
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("must be a UUID")
	}
	return nil
}

func noControl(v any) error {
	s, _ := v.(string)
	if strings.ContainsAny(s, "\x00\r\n") {
		return errors.New("must not contain null bytes or line breaks")
	}
	return nil
}
