//go:build !js_eval

package statekit

// NewJSEvaluator returns nil unless built with the js_eval tag. A nil
// evaluator makes the manager fall back to expr.
func NewJSEvaluator(...EngineOption) Evaluator { return nil }

func jsEvaluatorAvailable() bool { return false }
