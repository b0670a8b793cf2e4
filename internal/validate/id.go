package validate

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidEntityID is returned for ids not of the form {kind}-{number}.
var ErrInvalidEntityID = errors.New("invalid entity id")

var entityIDPattern = regexp.MustCompile(`^(node|way|relation)-[0-9]{1,19}$`)

// EntityID checks that id looks like a graph entity id such as "node-42".
func EntityID(id string) error {
	if id == "" {
		return ErrEmpty
	}
	if len(id) > 32 || !entityIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidEntityID, id)
	}
	return nil
}
