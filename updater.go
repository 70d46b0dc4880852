package statekit

import "github.com/goliatone/go-statekit/schema"

// Updater produces the top-level values merged into state by SetState.
// Patch, UpdateFunc and UpdateFuncWithPaths implement it.
type Updater interface {
	resolve(prev *View) (Patch, []schema.Path, error)
}

// Patch is a partial state merged shallowly at the top level.
type Patch map[string]any

func (p Patch) resolve(*View) (Patch, []schema.Path, error) {
	return p, nil, nil
}

// UpdateFunc derives a patch from the previous state.
type UpdateFunc func(prev *View) (Patch, error)

func (fn UpdateFunc) resolve(prev *View) (Patch, []schema.Path, error) {
	if fn == nil {
		return nil, nil, ErrNilUpdater
	}
	patch, err := fn(prev)
	return patch, nil, err
}

// UpdateFuncWithPaths derives a patch together with the changed paths to
// report. A non-nil path list bypasses change detection.
type UpdateFuncWithPaths func(prev *View) (Patch, []schema.Path, error)

func (fn UpdateFuncWithPaths) resolve(prev *View) (Patch, []schema.Path, error) {
	if fn == nil {
		return nil, nil, ErrNilUpdater
	}
	return fn(prev)
}

// SetOption configures a single SetState call.
type SetOption func(*setConfig)

type setConfig struct {
	paths    []schema.Path
	callback func(*View)
	origin   string
}

// WithPaths reports paths as changed instead of computing them.
func WithPaths(paths ...schema.Path) SetOption {
	return func(cfg *setConfig) {
		cfg.paths = append(cfg.paths, paths...)
	}
}

// WithCallback runs fn with the new state before any listener fires.
func WithCallback(fn func(*View)) SetOption {
	return func(cfg *setConfig) {
		cfg.callback = fn
	}
}

// withOrigin tags updates applied from storage so they are not persisted back.
func withOrigin(origin string) SetOption {
	return func(cfg *setConfig) {
		cfg.origin = origin
	}
}

func applySetOptions(opts []SetOption) setConfig {
	cfg := setConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
