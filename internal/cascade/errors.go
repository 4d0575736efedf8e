package cascade

import (
	"errors"
	"fmt"
)

// ErrMalformedEdit reports an Edit that matches neither supported shape.
var ErrMalformedEdit = errors.New("edit must carry either a key path or an extension ID")

// UnknownSubjectError reports an edit against a subject identifier that is
// not present in the current cascade snapshot.
type UnknownSubjectError struct {
	ID string
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("no configuration subject with ID %q", e.ID)
}
