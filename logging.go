package xplot

import "time"

// PatchLogEvent describes one patch application.
type PatchLogEvent struct {
	Model    string
	ID       string
	Applied  []string
	Ignored  []string
	Duration time.Duration
	Err      error
}

// PatchLogger records patch applications.
type PatchLogger interface {
	LogPatch(PatchLogEvent)
}

// PatchLoggerFunc adapts a function to PatchLogger.
type PatchLoggerFunc func(PatchLogEvent)

// LogPatch implements PatchLogger.
func (f PatchLoggerFunc) LogPatch(event PatchLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopPatchLogger struct{}

func (noopPatchLogger) LogPatch(PatchLogEvent) {}

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Duration time.Duration
	Err      error
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

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithPatchLogger attaches a patch logger to the model.
func WithPatchLogger(logger PatchLogger) Option {
	return func(cfg *modelConfig) {
		if logger == nil {
			cfg.patchLogger = noopPatchLogger{}
			return
		}
		cfg.patchLogger = logger
	}
}

// WithEvaluatorLogger attaches an evaluator logger to the model.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *modelConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}
