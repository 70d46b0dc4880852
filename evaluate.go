package statekit

import "time"

// Evaluate runs expr once against a copy of the current state.
func (m *Manager) Evaluate(expr string) (any, error) {
	return m.EvaluateWith(EvalContext{}, expr)
}

// EvaluateWith runs expr with ctx. A nil ctx.State is replaced by a copy of
// the current state.
func (m *Manager) EvaluateWith(ctx EvalContext, expr string) (any, error) {
	evaluator, err := m.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	if expr == "" {
		return nil, evalError(engine, "", m.id, ErrEmptyExpression)
	}
	if ctx.State == nil {
		ctx.State = m.State().ToMap()
	}
	if ctx.ManagerID == "" {
		ctx.ManagerID = m.id
	}
	start := time.Now()
	value, err := evaluator.Evaluate(ctx.withDefaults(), expr)
	return value, m.logEvaluation(engine, expr, start, err)
}

// logEvaluation reports one evaluation to the evaluator logger and returns
// err as an EvaluationError.
func (m *Manager) logEvaluation(engine, expr string, start time.Time, err error) error {
	err = evalError(engine, expr, m.id, err)
	if logger := m.cfg.evalLogger; logger != nil {
		logger.LogEvaluation(EvaluatorLogEvent{
			Engine:    engine,
			Expr:      expr,
			ManagerID: m.id,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

// resolveEvaluator returns the configured evaluator or, once, builds the expr
// default sharing the manager's program cache and functions.
func (m *Manager) resolveEvaluator() (Evaluator, error) {
	m.evalMu.Lock()
	defer m.evalMu.Unlock()
	if m.evaluator == nil {
		m.evaluator = NewExprEvaluator(EngineCache(m.cfg.programCache), EngineFunctions(m.cfg.functions))
	}
	if m.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return m.evaluator, nil
}
