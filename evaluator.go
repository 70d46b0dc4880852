package statekit

import "time"

// EvalContext carries the inputs of a computed getter evaluation.
type EvalContext struct {
	State     map[string]any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	ManagerID string
}

func (ctx EvalContext) withDefaults() EvalContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.State == nil {
		ctx.State = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// bindings returns the variables visible to an expression: every top-level
// state key plus state, now, args, metadata and manager. State keys never
// shadow the fixed names.
func (ctx EvalContext) bindings() map[string]any {
	env := make(map[string]any, len(ctx.State)+5)
	for key, value := range ctx.State {
		env[key] = value
	}
	now := time.Now()
	if ctx.Now != nil {
		now = *ctx.Now
	}
	env["state"] = ctx.State
	env["now"] = now
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	env["manager"] = ctx.ManagerID
	return env
}

// Evaluator runs expressions against a state snapshot.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

// CompileOption configures evaluator compile behaviour. No options are
// defined yet; the parameter keeps Compile signatures stable.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// EngineOption configures one of the bundled evaluators.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// EngineCache shares compiled programs through cache.
func EngineCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// EngineFunctions exposes the helpers of registry to expressions. The
// registry is copied.
func EngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		cfg.functions = registry.Clone()
	}
}

func newEngineConfig(opts []EngineOption) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// program returns the cached program for expr or builds and caches it. The
// key is prefixed with engine so one cache can serve several engines.
func program[T any](cfg engineConfig, engine, expr string, build func() (T, error)) (T, error) {
	key := engine + ":" + expr
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(key); ok {
			if typed, ok := cached.(T); ok {
				return typed, nil
			}
		}
	}
	built, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	if cfg.cache != nil {
		cfg.cache.Set(key, built)
	}
	return built, nil
}

type namedEngine interface {
	engineName() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(namedEngine); ok {
		return named.engineName()
	}
	return "custom"
}
