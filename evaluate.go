package xplot

import (
	"errors"
	"strings"
	"time"
)

var errEmptyExpression = errors.New("expression must not be empty")

// Evaluate runs expr against the model's state tree with the configured
// evaluator, or the default expr engine.
func (m *Model) Evaluate(expr string) (any, error) {
	return m.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr using ctx. A nil Snapshot is replaced by the state
// tree and empty Model or ID fields by the model's own.
func (m *Model) EvaluateWith(ctx RuleContext, expr string) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, wrapEvaluatorError("rule", errEmptyExpression)
	}
	evaluator, err := m.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = m.StateTree()
	}
	if ctx.Model == "" {
		ctx.Model = m.spec.ModelName
	}
	if ctx.ID == "" {
		ctx.ID = m.id
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = wrapEvaluationError(engine, expr, ctx.scopeLabel(), evalErr)
	m.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: time.Since(start),
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// resolveEvaluator returns the configured evaluator, building the default expr
// engine with the standard functions on first use.
func (m *Model) resolveEvaluator() (Evaluator, error) {
	if m.cfg.evaluator != nil {
		return m.cfg.evaluator, nil
	}
	functions := StandardFunctions()
	functions.Merge(m.cfg.functions)
	opts := []ExprEvaluatorOption{ExprWithFunctionRegistry(functions)}
	if m.cfg.programCache != nil {
		opts = append(opts, ExprWithProgramCache(m.cfg.programCache))
	}
	evaluator := NewExprEvaluator(opts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	m.cfg.evaluator = evaluator
	return evaluator, nil
}

func (m *Model) evaluatorLogger() EvaluatorLogger {
	if m.cfg.evalLogger != nil {
		return m.cfg.evalLogger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return engineExpr
	case *celEvaluator:
		return engineCEL
	}
	if named, ok := e.(interface{ engine() string }); ok {
		return named.engine()
	}
	return "custom"
}
