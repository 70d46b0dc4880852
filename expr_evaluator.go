package statekit

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs github.com/expr-lang/expr programs. It is the default
// engine for computed getters.
type exprEvaluator struct {
	cfg engineConfig
}

// NewExprEvaluator returns an expr-backed Evaluator. Registered functions are
// callable by name, e.g. double(qty), and through call("double", qty).
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{cfg: newEngineConfig(opts)}
}

func (e *exprEvaluator) engineName() string { return "expr" }

func (e *exprEvaluator) Evaluate(ctx EvalContext, expr string) (any, error) {
	rule, err := e.Compile(expr)
	if err != nil {
		return nil, evalError("expr", expr, ctx.ManagerID, err)
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expr string, _ ...CompileOption) (CompiledRule, error) {
	if expr == "" {
		return nil, evalError("expr", "", "", ErrEmptyExpression)
	}
	prog, err := program(e.cfg, "expr", expr, func() (*exprvm.Program, error) {
		return exprlang.Compile(expr, e.compileOptions()...)
	})
	if err != nil {
		return nil, evalError("expr", expr, "", err)
	}
	return exprRule{evaluator: e, expr: expr, program: prog}, nil
}

func (e *exprEvaluator) compileOptions() []exprlang.Option {
	opts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.cfg.functions.Names() {
		fn, _ := e.cfg.functions.Lookup(name)
		opts = append(opts, exprlang.Function(name, fn))
	}
	return opts
}

func (e *exprEvaluator) env(ctx EvalContext) map[string]any {
	env := ctx.bindings()
	if e.cfg.functions != nil {
		env["call"] = e.cfg.functions.Call
	}
	return env
}

type exprRule struct {
	evaluator *exprEvaluator
	expr      string
	program   *exprvm.Program
}

func (r exprRule) Evaluate(ctx EvalContext) (any, error) {
	ctx = ctx.withDefaults()
	out, err := exprlang.Run(r.program, r.evaluator.env(ctx))
	if err != nil {
		return nil, evalError("expr", r.expr, ctx.ManagerID, err)
	}
	return out, nil
}
