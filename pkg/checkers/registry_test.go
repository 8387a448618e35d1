package checkers

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formvalidator/pkg/formerrors"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	def := Definition{Name: "even", New: constant(func(v string) bool { return len(v)%2 == 0 })}
	if err := r.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(def); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := r.Register(Definition{Name: " "}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := r.Register(Definition{Name: "nofactory"}); err == nil {
		t.Fatalf("expected error for missing factory")
	}

	if !r.Has("even") || r.Has("odd") {
		t.Fatalf("unexpected Has results")
	}
	if _, err := r.Get("odd"); !errors.Is(err, formerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := Default()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	r.MustRegister(Definition{Name: "required", New: constant(func(string) bool { return true })})
}

func TestDefault_ListsBuiltins(t *testing.T) {
	want := []string{
		"alpha", "alpha_dash", "alpha_num", "between", "boolean", "email",
		"gt", "gte", "in", "integer", "lt", "lte", "max", "min", "not_in",
		"numeric", "regex", "required", "size", "url",
	}
	if diff := cmp.Diff(want, Default().List()); diff != "" {
		t.Fatalf("builtins mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Messages(t *testing.T) {
	r := Default()
	cases := []struct {
		spec    string
		message string
		want    string
	}{
		{spec: "required", want: "{{ label }} is required"},
		{spec: "min:3", want: "{{ label }} must be at least 3 characters"},
		{spec: "in:a, b,c", want: "{{ label }} must be one of a, b, c"},
		{spec: "between:2,4", want: "{{ label }} must be between 2 and 4 characters"},
		{spec: "max:5", message: "too long (:param)", want: "too long (5)"},
	}
	for _, tc := range cases {
		rule, err := r.Build(tc.spec, tc.message)
		if err != nil {
			t.Fatalf("build %q: %v", tc.spec, err)
		}
		if rule.Message != tc.want {
			t.Fatalf("build %q message = %q, want %q", tc.spec, rule.Message, tc.want)
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	r := Default()
	cases := []struct {
		spec string
		kind error
	}{
		{spec: "", kind: formerrors.ErrInvalidArgument},
		{spec: "nope", kind: formerrors.ErrNotFound},
		{spec: "min", kind: formerrors.ErrInvalidArgument},
		{spec: "min:", kind: formerrors.ErrInvalidArgument},
		{spec: "min:abc", kind: formerrors.ErrInvalidArgument},
		{spec: "min:-1", kind: formerrors.ErrInvalidArgument},
		{spec: "between:5", kind: formerrors.ErrInvalidArgument},
		{spec: "between:5,2", kind: formerrors.ErrInvalidArgument},
		{spec: "gt:x", kind: formerrors.ErrInvalidArgument},
		{spec: "regex:[", kind: formerrors.ErrInvalidArgument},
		{spec: "in:,", kind: formerrors.ErrInvalidArgument},
	}
	for _, tc := range cases {
		_, err := r.Build(tc.spec, "")
		if err == nil {
			t.Fatalf("build %q: expected error", tc.spec)
		}
		if tc.kind != nil && !errors.Is(err, tc.kind) {
			t.Fatalf("build %q: expected %v, got %v", tc.spec, tc.kind, err)
		}
	}
}

func TestBuild_FeedsRegistry(t *testing.T) {
	r := Default()
	rule, err := r.Build("regex:^a:b$", "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := rule.Checker.(*formstate.PatternChecker); !ok {
		t.Fatalf("expected pattern checker, got %T", rule.Checker)
	}
	if !rule.Checker.Check("a:b") {
		t.Fatalf("colon inside the parameter must be kept")
	}
}
