package xplot

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const engineExpr = "expr"

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled programs through cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes the registry's functions by name and
// through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// exprEvaluator runs expressions with github.com/expr-lang/expr. Programs are
// compiled against an open environment so one program serves every widget.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs the default Evaluator.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	if expression == "" {
		return nil, wrapEvaluatorError(engineExpr, errEmptyExpression)
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, wrapEvaluationError(engineExpr, expression, cfg.label, err)
	}
	return &exprRule{evaluator: e, program: program, expression: expression, cfg: cfg}, nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey(engineExpr, expression)); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, e.registry.bind(name)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(cacheKey(engineExpr, expression), program)
	}
	return program, nil
}

type exprRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
	cfg        compileConfig
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, wrapEvaluatorError(engineExpr, fmt.Errorf("rule %q was not compiled", r.expression))
	}
	env := newRuleEnv(ctx).withCall(r.evaluator.registry)
	result, err := exprlang.Run(r.program, env.vars)
	if err != nil {
		return nil, wrapEvaluationError(engineExpr, r.expression, r.cfg.scope(ctx), err)
	}
	return result, nil
}
