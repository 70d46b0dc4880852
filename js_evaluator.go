//go:build js_eval

package statekit

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs expressions as JavaScript with github.com/dop251/goja.
type jsEvaluator struct {
	cfg engineConfig
}

// NewJSEvaluator returns a goja-backed Evaluator. The expression is the body
// of a returned value, e.g. "price * qty". Registered functions are globals.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{cfg: newEngineConfig(opts)}
}

func (e *jsEvaluator) engineName() string { return "js" }

func (e *jsEvaluator) Evaluate(ctx EvalContext, expr string) (any, error) {
	rule, err := e.Compile(expr)
	if err != nil {
		return nil, evalError("js", expr, ctx.ManagerID, err)
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expr string, _ ...CompileOption) (CompiledRule, error) {
	if expr == "" {
		return nil, evalError("js", "", "", ErrEmptyExpression)
	}
	prog, err := program(e.cfg, "js", expr, func() (*goja.Program, error) {
		return goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expr), false)
	})
	if err != nil {
		return nil, evalError("js", expr, "", err)
	}
	return jsRule{evaluator: e, expr: expr, program: prog}, nil
}

type jsRule struct {
	evaluator *jsEvaluator
	expr      string
	program   *goja.Program
}

// Evaluate uses a fresh runtime per call; goja runtimes are not safe for
// concurrent use.
func (r jsRule) Evaluate(ctx EvalContext) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	globals := ctx.bindings()
	functions := r.evaluator.cfg.functions
	for _, name := range functions.Names() {
		fn, _ := functions.Lookup(name)
		globals[name] = fn
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return nil, evalError("js", r.expr, ctx.ManagerID, err)
		}
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, evalError("js", r.expr, ctx.ManagerID, err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool { return true }
