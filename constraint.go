package xplot

import (
	"fmt"
	"strings"
)

type constraintSpec struct {
	name string
	expr string
}

type compiledConstraint struct {
	name string
	expr string
	rule CompiledRule
}

// WithConstraint attaches a boolean expression every committed state must
// satisfy. The expression sees the candidate state tree as `state` and each
// property as a top-level variable. A patch that makes it false, or fails to
// evaluate, is rejected before anything is written.
func WithConstraint(name, expr string) Option {
	return func(cfg *modelConfig) {
		cfg.constraints = append(cfg.constraints, constraintSpec{
			name: strings.TrimSpace(name),
			expr: strings.TrimSpace(expr),
		})
	}
}

func (m *Model) compileConstraints(specs []constraintSpec) ([]compiledConstraint, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	evaluator, err := m.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	out := make([]compiledConstraint, 0, len(specs))
	for _, spec := range specs {
		if spec.expr == "" {
			return nil, fmt.Errorf("xplot: constraint %q has no expression", spec.name)
		}
		rule, err := evaluator.Compile(spec.expr, WithRuleLabel(m.spec.ModelName+" constraint "+spec.name))
		if err != nil {
			return nil, &ConstraintError{
				Model: m.spec.ModelName,
				ID:    m.id,
				Name:  spec.name,
				Expr:  spec.expr,
				Err:   err,
			}
		}
		out = append(out, compiledConstraint{name: spec.name, expr: spec.expr, rule: rule})
	}
	return out, nil
}

// checkConstraints evaluates every constraint against the state the model
// would have once decoded is committed.
func (m *Model) checkConstraints(decoded map[string]any) error {
	if len(m.constraints) == 0 {
		return nil
	}
	candidate := m.candidateTree(decoded)
	ctx := RuleContext{Snapshot: candidate, Model: m.spec.ModelName, ID: m.id}.withDefaults()
	for _, c := range m.constraints {
		result, err := c.rule.Evaluate(ctx)
		if err != nil {
			return &ConstraintError{Model: m.spec.ModelName, ID: m.id, Name: c.name, Expr: c.expr, Err: err}
		}
		if ok, isBool := result.(bool); !isBool || !ok {
			return &ConstraintError{Model: m.spec.ModelName, ID: m.id, Name: c.name, Expr: c.expr}
		}
	}
	return nil
}

func (m *Model) candidateTree(decoded map[string]any) map[string]any {
	tree := m.StateTree()
	for name, value := range decoded {
		p, ok := m.spec.Schema.Lookup(name)
		if !ok {
			continue
		}
		if w, isWidget := value.(Widget); isWidget {
			if t := asTree(w); t != nil {
				tree[name] = t.stateTree(map[string]bool{m.id: true})
				continue
			}
			tree[name] = w.State()
			continue
		}
		tree[name] = p.encode(value)
	}
	return tree
}
