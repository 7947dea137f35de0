package validate

import (
	"fmt"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxTitle is the longest accepted title in runes.
const MaxTitle = 200

// Title validates a document title. An empty title is allowed; the service
// derives one from the content's first heading.
func Title(title string) error {
	if utf8.RuneCountInString(title) > MaxTitle {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidTitle, MaxTitle)
	}
	if err := validation.Validate(title, validation.By(noControl)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTitle, err)
	}
	return nil
}
