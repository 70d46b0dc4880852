package statekit

import (
	"strings"

	"github.com/goliatone/go-statekit/internal/tree"
)

// Option configures a Manager at construction.
type Option func(*config)

type config struct {
	id              string
	dynamicGetters  bool
	dynamicSetters  bool
	nestedGetters   bool
	nestedSetters   bool
	writeProtection bool
	initialState    map[string]any
	registry        *Registry
	registrySet     bool
	logger          Logger
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evalLogger      EvaluatorLogger
	activity        activityConfig
	errs            []error
}

func defaultConfig() config {
	return config{
		dynamicGetters:  true,
		dynamicSetters:  true,
		nestedGetters:   true,
		nestedSetters:   true,
		writeProtection: true,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithID sets the registry id. Without it a random id is generated.
func WithID(id string) Option {
	return func(cfg *config) {
		cfg.id = strings.TrimSpace(id)
	}
}

// WithDynamicGetters toggles get<Key> accessors for top-level keys.
func WithDynamicGetters(enabled bool) Option {
	return func(cfg *config) {
		cfg.dynamicGetters = enabled
	}
}

// WithDynamicSetters toggles set<Key> accessors for top-level keys.
func WithDynamicSetters(enabled bool) Option {
	return func(cfg *config) {
		cfg.dynamicSetters = enabled
	}
}

// WithNestedGetters toggles getters for nested object paths.
func WithNestedGetters(enabled bool) Option {
	return func(cfg *config) {
		cfg.nestedGetters = enabled
	}
}

// WithNestedSetters toggles setters for nested object paths.
func WithNestedSetters(enabled bool) Option {
	return func(cfg *config) {
		cfg.nestedSetters = enabled
	}
}

// WithWriteProtection toggles rejection of writes through views.
func WithWriteProtection(enabled bool) Option {
	return func(cfg *config) {
		cfg.writeProtection = enabled
	}
}

// WithInitialState deep-merges state over the schema defaults.
func WithInitialState(state map[string]any) Option {
	return func(cfg *config) {
		cfg.initialState = tree.CloneMap(state)
	}
}

// WithRegistry registers the manager in registry instead of DefaultRegistry.
// A nil registry skips registration.
func WithRegistry(registry *Registry) Option {
	return func(cfg *config) {
		cfg.registry = registry
		cfg.registrySet = true
	}
}

// WithLogger routes manager diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithEvaluator configures the evaluator used by computed getters.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}
