package statekit

import (
	"fmt"
	"sort"
	"time"
)

type computedRule struct {
	expr   string
	engine string
	rule   CompiledRule
}

func (r computedRule) Evaluate(ctx EvalContext) (any, error) {
	return r.rule.Evaluate(ctx)
}

// AddComputedGetters compiles each expression and registers it as a getter
// evaluated against a copy of the state on every call. Either every
// expression compiles and all are registered, or none is.
//
//	m.AddComputedGetters(map[string]string{"getTotal": "price * qty"})
func (m *Manager) AddComputedGetters(exprs map[string]string) error {
	evaluator, err := m.resolveEvaluator()
	if err != nil {
		return err
	}
	engine := evaluatorEngineName(evaluator)

	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	compiled := make(map[string]CompiledRule, len(exprs))
	for _, name := range names {
		expr := exprs[name]
		rule, err := evaluator.Compile(expr)
		if err != nil {
			return fmt.Errorf("statekit: computed getter %q: %w", name, evalError(engine, expr, m.id, err))
		}
		compiled[name] = computedRule{expr: expr, engine: engine, rule: rule}
	}

	m.accessMu.Lock()
	defer m.accessMu.Unlock()
	for name, rule := range compiled {
		m.computed[name] = rule
		m.getters[name] = m.computedGetter(rule)
	}
	return nil
}

func (m *Manager) computedGetter(rule CompiledRule) Getter {
	return func() (any, error) {
		ctx := EvalContext{State: m.State().ToMap(), ManagerID: m.id}.withDefaults()
		start := time.Now()
		value, err := rule.Evaluate(ctx)
		engine, expr := "custom", ""
		if typed, ok := rule.(computedRule); ok {
			engine, expr = typed.engine, typed.expr
		}
		return value, m.logEvaluation(engine, expr, start, err)
	}
}
