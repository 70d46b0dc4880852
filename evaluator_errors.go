package statekit

import (
	"errors"
	"fmt"
)

// ErrEmptyExpression is returned for a blank expression.
var ErrEmptyExpression = errors.New("statekit: expression must not be empty")

// EvaluationError is returned by every evaluator failure. It records the
// engine, the expression and the manager the evaluation ran for.
type EvaluationError struct {
	Engine    string
	Expr      string
	ManagerID string
	Err       error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	manager := e.ManagerID
	if manager == "" {
		manager = "unknown"
	}
	if e.Expr == "" {
		return fmt.Sprintf("statekit: %s on %s: %v", e.Engine, manager, e.Err)
	}
	return fmt.Sprintf("statekit: %s %q on %s: %v", e.Engine, e.Expr, manager, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// evalError wraps err in an EvaluationError. An EvaluationError already in
// the chain is reused and only its empty fields are filled.
func evalError(engine, expr, managerID string, err error) error {
	if err == nil {
		return nil
	}
	var existing *EvaluationError
	if errors.As(err, &existing) {
		if existing.Engine == "" {
			existing.Engine = engine
		}
		if existing.Expr == "" {
			existing.Expr = expr
		}
		if existing.ManagerID == "" {
			existing.ManagerID = managerID
		}
		return err
	}
	return &EvaluationError{Engine: engine, Expr: expr, ManagerID: managerID, Err: err}
}
