package xplot

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTypeMismatch reports a patch value of the wrong JSON type.
	ErrTypeMismatch = errors.New("xplot: type mismatch")
	// ErrInvalidEnum reports a string outside a property's declared set.
	ErrInvalidEnum = errors.New("xplot: invalid enum value")
	// ErrUnresolvedReference reports a widget reference no resolver could find.
	ErrUnresolvedReference = errors.New("xplot: unresolved reference")
	// ErrReferenceRejected reports a reference to a widget of the wrong family.
	ErrReferenceRejected = errors.New("xplot: reference rejected")
	// ErrUnknownProperty reports a Get or Set on an undeclared name.
	ErrUnknownProperty = errors.New("xplot: unknown property")
	// ErrConstraintViolation reports a patch that broke a model constraint.
	ErrConstraintViolation = errors.New("xplot: constraint violated")
	// ErrNoEvaluator reports that no evaluator could be configured.
	ErrNoEvaluator = errors.New("xplot: evaluator not configured")
)

// PatchError describes why one key of a patch could not be applied. The model
// is left unchanged when a PatchError is returned.
type PatchError struct {
	Model    string
	ID       string
	Property string
	Value    any
	Err      error
}

func (e *PatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("xplot: patch %s(%s).%s: %v", e.Model, e.ID, e.Property, e.Err)
}

func (e *PatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConstraintError names the constraint a patch violated.
type ConstraintError struct {
	Model string
	ID    string
	Name  string
	Expr  string
	Err   error
}

func (e *ConstraintError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil && !errors.Is(e.Err, ErrConstraintViolation) {
		return fmt.Sprintf("xplot: constraint %q on %s(%s) %s: %v", e.Name, e.Model, e.ID, describeExpression(e.Expr), e.Err)
	}
	return fmt.Sprintf("xplot: constraint %q on %s(%s) violated %s", e.Name, e.Model, e.ID, describeExpression(e.Expr))
}

func (e *ConstraintError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return ErrConstraintViolation
	}
	return e.Err
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("xplot: %s evaluator %s scope=%s: %v", e.Engine, describeExpression(e.Expr), e.Scope, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "xplot:") {
		return err
	}
	return fmt.Errorf("xplot: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Scope == "" {
			evalErr.Scope = scope
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Scope:  scope,
		Err:    err,
	}
}
