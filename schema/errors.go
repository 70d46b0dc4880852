package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchema reports circular references, function leaves or other
	// values a schema cannot describe.
	ErrInvalidSchema = errors.New("statekit: invalid state schema")
	// ErrReservedKey reports a schema that declares a reserved top-level key.
	ErrReservedKey = errors.New("statekit: reserved state key")
)

// ReservedKeys lists top-level keys a schema must not declare.
var ReservedKeys = []string{"*"}

// PathError carries the operation and path that produced err.
type PathError struct {
	Op   string
	Path Path
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path.String(), e.Err)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalid(path Path, format string, args ...any) error {
	return &PathError{
		Op:   "schema",
		Path: path.Clone(),
		Err:  fmt.Errorf("%w: %s", ErrInvalidSchema, fmt.Sprintf(format, args...)),
	}
}
