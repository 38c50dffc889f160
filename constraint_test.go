package xplot

import (
	"errors"
	"testing"
)

const domainExpr = "state.min == nil || state.max == nil || state.min <= state.max"

func TestConstraintRejectsPatch(t *testing.T) {
	m := newSample(t, WithConstraint("domain", domainExpr))
	if err := m.ApplyPatch(map[string]any{"min": 1, "max": 5}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	err := m.ApplyPatch(map[string]any{"min": 9, "label": "x"})
	var constraintErr *ConstraintError
	if !errors.As(err, &constraintErr) {
		t.Fatalf("expected ConstraintError, got %v", err)
	}
	if constraintErr.Name != "domain" || !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("unexpected constraint error: %+v", constraintErr)
	}
	if v, _ := m.NumberValue("min"); v != 1 {
		t.Fatalf("rejected patch must not commit, min=%v", v)
	}
	if v, _ := m.StringValue("label"); v != "" {
		t.Fatalf("rejected patch must not commit, label=%q", v)
	}

	if err := m.ApplyPatch(map[string]any{"min": nil, "max": 0}); err != nil {
		t.Fatalf("clearing min should satisfy the constraint: %v", err)
	}
}

func TestConstraintSeesCandidateReferences(t *testing.T) {
	child := newChild(t)
	if err := child.Set("reverse", true); err != nil {
		t.Fatalf("child set: %v", err)
	}
	m := newSample(t, WithConstraint("plain-child", "state.child == nil || state.child.reverse == false"))
	err := m.Set("child", child)
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected violation for reversed child, got %v", err)
	}
	if m.Reference("child") != nil {
		t.Fatalf("child must not be committed")
	}
}

func TestConstraintNonBoolFails(t *testing.T) {
	m := newSample(t, WithConstraint("label", "label"))
	if err := m.Set("label", "x"); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected non-bool result to violate, got %v", err)
	}
}

func TestConstraintCompileErrors(t *testing.T) {
	_, err := NewModel(ModelSpec{ModelName: sampleModelName, Schema: sampleSchema()}, WithConstraint("broken", "min <"))
	var constraintErr *ConstraintError
	if !errors.As(err, &constraintErr) || constraintErr.Name != "broken" {
		t.Fatalf("expected compile ConstraintError, got %v", err)
	}
	if _, err := NewModel(ModelSpec{ModelName: sampleModelName, Schema: sampleSchema()}, WithConstraint("empty", " ")); err == nil {
		t.Fatalf("expected empty expression error")
	}
}
