package statekit

import (
	"errors"

	"github.com/goliatone/go-statekit/pathtree"
	"github.com/goliatone/go-statekit/schema"
)

var (
	// ErrInvalidStateSchema reports a circular or function-valued schema.
	ErrInvalidStateSchema = schema.ErrInvalidSchema
	// ErrReservedStateKey reports a schema that declares a reserved top-level key.
	ErrReservedStateKey = schema.ErrReservedKey
	// ErrStatePathNotExist reports navigation to an undeclared path.
	ErrStatePathNotExist = pathtree.ErrPathNotExist

	ErrImmutableState     = errors.New("statekit: state is read-only")
	ErrProtectedNamespace = errors.New("statekit: namespace name is protected")
	ErrManagerNotFound    = errors.New("statekit: manager not found")
	ErrAccessorNotFound   = errors.New("statekit: accessor not registered")
	ErrNilUpdater         = errors.New("statekit: updater must not be nil")
	ErrNoEvaluator        = errors.New("statekit: evaluator not configured")
)

// PathError records the operation and state path that failed.
type PathError = schema.PathError
