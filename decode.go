package statekit

import (
	"fmt"

	"github.com/goliatone/go-statekit/internal/hydrate"
)

// DecodeState copies the state under v into a T through its JSON tags.
//
//	type Panel struct {
//		Theme string `json:"theme"`
//	}
//	panel, err := statekit.DecodeState[Panel](m.State())
func DecodeState[T any](v *View) (T, error) {
	return DecodeStateStrict[T](v, false)
}

// DecodeStateStrict is DecodeState failing on keys T does not declare when
// strict is set.
func DecodeStateStrict[T any](v *View, strict bool) (T, error) {
	var zero T
	if v == nil {
		return zero, fmt.Errorf("statekit: decode state: view is nil")
	}
	var opts []hydrate.DecoderOption[T]
	if strict {
		opts = append(opts, hydrate.WithDisallowUnknownFields[T]())
	}
	return hydrate.NewDecoder[T](opts...).Decode(hydrate.Context{Path: v.Path().String()}, v.raw())
}

// Decode copies the current state of m into a T.
func Decode[T any](m *Manager) (T, error) {
	var zero T
	if m == nil {
		return zero, fmt.Errorf("statekit: decode state: manager is nil")
	}
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{ManagerID: m.id}, m.State().raw())
}
