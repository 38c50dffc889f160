//go:build js_eval

package xplot

import (
	"fmt"

	"github.com/dop251/goja"
)

const engineJS = "js"

type jsEvaluator struct {
	cfg jsEvaluatorConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh runtime; compiled programs are shared.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{cfg: applyJSEvaluatorOptions(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	if expression == "" {
		return nil, wrapEvaluatorError(engineJS, errEmptyExpression)
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, wrapEvaluationError(engineJS, expression, cfg.label, err)
	}
	return &jsRule{evaluator: e, expression: expression, program: program, cfg: cfg}, nil
}

func (e *jsEvaluator) program(expression string) (*goja.Program, error) {
	key := cacheKey(engineJS, expression)
	if e.cfg.cache != nil {
		if cached, ok := e.cfg.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile(e.cfg.sourceName, fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	if err != nil {
		return nil, err
	}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(key, program)
	}
	return program, nil
}

func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	env := newRuleEnv(ctx).withCall(e.cfg.registry)
	for name, value := range env.vars {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	for _, name := range e.cfg.registry.Names() {
		if err := vm.Set(name, e.cfg.registry.bind(name)); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
	cfg        compileConfig
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, wrapEvaluatorError(engineJS, fmt.Errorf("rule %q was not compiled", r.expression))
	}
	vm, err := r.evaluator.runtime(ctx)
	if err != nil {
		return nil, wrapEvaluatorError(engineJS, err)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError(engineJS, r.expression, r.cfg.scope(ctx), err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}

func (e *jsEvaluator) engine() string { return engineJS }
