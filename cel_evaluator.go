package xplot

import (
	"fmt"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

const engineCEL = "cel"

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache shares checked programs through cache.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes the registry through call(name, args...).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// celEvaluator type-checks each expression against the variables a widget
// exposes, so programs are compiled per property set rather than once.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

// Compile parses expression up front; type checking waits for the first
// evaluation, when the widget's property names are known.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	if expression == "" {
		return nil, wrapEvaluatorError(engineCEL, errEmptyExpression)
	}
	env, err := e.environment(nil)
	if err != nil {
		return nil, wrapEvaluatorError(engineCEL, err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(engineCEL, expression, cfg.label, issues.Err())
	}
	return &celRule{evaluator: e, expression: expression, cfg: cfg}, nil
}

func (e *celEvaluator) program(expression string, props []string) (celgo.Program, error) {
	key := cacheKey(engineCEL, expression, strings.Join(props, ","))
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	env, err := e.environment(props)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEvaluator) environment(props []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable(RuleVarState, celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable(RuleVarNow, celgo.TimestampType),
		celgo.Variable(RuleVarArgs, celgo.DynType),
		celgo.Variable(RuleVarMetadata, celgo.DynType),
		celgo.Variable(RuleVarModel, celgo.StringType),
		celgo.Variable(RuleVarID, celgo.StringType),
	}
	if e.registry != nil {
		binding := celgo.FunctionBinding(e.dispatch)
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string", []*celgo.Type{celgo.StringType}, celgo.DynType, binding),
			celgo.Overload("call_string_dyn", []*celgo.Type{celgo.StringType, celgo.DynType}, celgo.DynType, binding),
			celgo.Overload("call_string_dyn_dyn", []*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType}, celgo.DynType, binding),
			celgo.Overload("call_string_dyn_dyn_dyn", []*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType, celgo.DynType}, celgo.DynType, binding),
		))
	}
	for _, name := range props {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

// dispatch implements call(name, args...) over the function registry.
func (e *celEvaluator) dispatch(values ...ref.Val) ref.Val {
	if len(values) == 0 {
		return types.NewErr("xplot: call requires a function name")
	}
	name, ok := values[0].Value().(string)
	if !ok {
		return types.NewErr("xplot: call name must be a string")
	}
	args := make([]any, 0, len(values)-1)
	for _, val := range values[1:] {
		args = append(args, val.Value())
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
	cfg        compileConfig
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError(engineCEL, fmt.Errorf("rule %q was not compiled", r.expression))
	}
	env := newRuleEnv(ctx)
	program, err := r.evaluator.program(r.expression, env.props)
	if err != nil {
		return nil, wrapEvaluationError(engineCEL, r.expression, r.cfg.scope(ctx), err)
	}
	out, _, err := program.Eval(env.vars)
	if err != nil {
		return nil, wrapEvaluationError(engineCEL, r.expression, r.cfg.scope(ctx), err)
	}
	return out.Value(), nil
}
