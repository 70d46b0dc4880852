package statekit

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxArity bounds the overloads declared per helper; CEL has no variadic
// functions.
const celMaxArity = 4

// celEvaluator runs github.com/google/cel-go programs. Variables are declared
// from the bindings of the first evaluation, so programs are built lazily and
// cached per variable set.
type celEvaluator struct {
	cfg engineConfig
}

// NewCELEvaluator returns a CEL-backed Evaluator. Registered functions are
// callable by name with up to four arguments.
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{cfg: newEngineConfig(opts)}
}

func (e *celEvaluator) engineName() string { return "cel" }

func (e *celEvaluator) Evaluate(ctx EvalContext, expr string) (any, error) {
	rule, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expr string, _ ...CompileOption) (CompiledRule, error) {
	if expr == "" {
		return nil, evalError("cel", "", "", ErrEmptyExpression)
	}
	return celRule{evaluator: e, expr: expr}, nil
}

func (e *celEvaluator) build(expr string, bindings map[string]any) (celgo.Program, error) {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	key := strings.Join(names, ",") + "|" + expr
	return program(e.cfg, "cel", key, func() (celgo.Program, error) {
		env, err := celgo.NewEnv(e.envOptions(names)...)
		if err != nil {
			return nil, err
		}
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return env.Program(ast)
	})
}

func (e *celEvaluator) envOptions(names []string) []celgo.EnvOption {
	opts := make([]celgo.EnvOption, 0, len(names)+e.cfg.functions.Len())
	for _, name := range names {
		if name == "now" {
			opts = append(opts, celgo.Variable(name, celgo.TimestampType))
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	for _, name := range e.cfg.functions.Names() {
		fn, _ := e.cfg.functions.Lookup(name)
		opts = append(opts, celgo.Function(name, celOverloads(name, fn)...))
	}
	return opts
}

func celOverloads(name string, fn Function) []celgo.FunctionOpt {
	overloads := make([]celgo.FunctionOpt, 0, celMaxArity+1)
	for arity := 0; arity <= celMaxArity; arity++ {
		args := make([]*celgo.Type, arity)
		for i := range args {
			args[i] = celgo.DynType
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("%s_dyn_%d", name, arity),
			args,
			celgo.DynType,
			celgo.FunctionBinding(functions.FunctionOp(celBinding(fn))),
		))
	}
	return overloads
}

func celBinding(fn Function) func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		args := make([]any, len(values))
		for i, value := range values {
			args[i] = value.Value()
		}
		out, err := fn(args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if out == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(out)
	}
}

type celRule struct {
	evaluator *celEvaluator
	expr      string
}

func (r celRule) Evaluate(ctx EvalContext) (any, error) {
	ctx = ctx.withDefaults()
	bindings := ctx.bindings()
	prg, err := r.evaluator.build(r.expr, bindings)
	if err != nil {
		return nil, evalError("cel", r.expr, ctx.ManagerID, err)
	}
	out, _, err := prg.Eval(bindings)
	if err != nil {
		return nil, evalError("cel", r.expr, ctx.ManagerID, err)
	}
	return out.Value(), nil
}
