package statekit

import "time"

// EvaluatorLogEvent describes one computed getter evaluation.
type EvaluatorLogEvent struct {
	Engine    string
	Expr      string
	ManagerID string
	Duration  time.Duration
	Err       error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

// WithEvaluatorLogger reports every computed getter evaluation, with its
// duration and error, to logger. A nil logger disables reporting.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		cfg.evalLogger = logger
	}
}
