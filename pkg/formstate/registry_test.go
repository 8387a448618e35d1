package formstate_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/formerrors"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

const formMarkup = `<html><body>
<form id="f">
  <p><input name="email" value=""></p>
  <p><input name="nickname" value="neo"></p>
  <p><input type="radio" name="choice" value="a"><input type="radio" name="choice" value="b"></p>
</form>
</body></html>`

func newRegistry(t *testing.T, markup string, options ...formstate.Option) (*dom.HTMLDocument, *formstate.Registry) {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg, err := formstate.New(doc, dom.Select("#f"), options...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return doc, reg
}

func setValue(t *testing.T, doc *dom.HTMLDocument, name, value string) {
	t.Helper()
	node, err := doc.Query(`[name="` + name + `"]`)
	if err != nil {
		t.Fatalf("query %s: %v", name, err)
	}
	doc.SetValue(node, value)
}

func required(value string) bool { return value != "" }

func checkSummary(results []formstate.Result) map[string][]formstate.CheckResult {
	out := make(map[string][]formstate.CheckResult, len(results))
	for _, result := range results {
		out[result.Field.Name] = result.Checks
	}
	return out
}

func TestNew_Errors(t *testing.T) {
	doc, err := dom.ParseString(formMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if _, err := formstate.New(doc, dom.Select("#missing")); !errors.Is(err, formerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := formstate.New(doc, nil); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for nil ref, got %v", err)
	}
	if _, err := formstate.New(doc, dom.Element(nil)); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for nil element, got %v", err)
	}
	if _, err := formstate.New(nil, dom.Select("#f")); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for nil document, got %v", err)
	}
}

func TestNew_CollectsFieldsInDocumentOrder(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)

	var names []string
	for _, field := range reg.Fields() {
		names = append(names, field.Name)
	}
	want := []string{"email", "nickname", "choice", "choice"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_ExcludesFieldsWithoutRuleTypes(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)
	if err := reg.RegisterFunc("required", required, "required"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if results := reg.Validate(); len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}

	if err := reg.Assign("nickname", "required"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	results := reg.Validate()
	if len(results) != 1 || results[0].Field.Name != "nickname" {
		t.Fatalf("expected only nickname in results, got %+v", results)
	}
}

func TestValidate_RequiredScenario(t *testing.T) {
	doc, reg := newRegistry(t, formMarkup)
	if err := reg.RegisterFunc("required", required, "required"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Assign("email", "required"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	results := reg.Validate()
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	want := []formstate.CheckResult{{RuleType: "required", Passed: false, Message: "required"}}
	if diff := cmp.Diff(want, results[0].Checks); diff != "" {
		t.Fatalf("checks mismatch (-want +got):\n%s", diff)
	}
	if results[0].Valid {
		t.Fatalf("expected empty email to be invalid")
	}

	setValue(t, doc, "email", "x")
	results = reg.Validate()
	if !results[0].Valid {
		t.Fatalf("expected fresh value to be read and pass")
	}
	if results[0].Value != "x" {
		t.Fatalf("expected value x, got %q", results[0].Value)
	}
}

func TestValidate_EvaluationOrder(t *testing.T) {
	doc, reg := newRegistry(t, formMarkup)
	setValue(t, doc, "email", "someone@example.org")

	mustRegister := func(typeName string, checker formstate.Checker, message string) {
		t.Helper()
		if err := reg.Register(typeName, checker, message); err != nil {
			t.Fatalf("register %s: %v", typeName, err)
		}
	}
	mustRegister("format", formstate.Pattern(regexp.MustCompile(`@`)), "needs @")
	mustRegister("format", formstate.Pattern(regexp.MustCompile(`\.com$`)), "needs .com")
	mustRegister("required", formstate.CheckerFunc(required), "required")

	if err := reg.Assign("email", "required", "format"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := reg.Assign("email", "required"); err != nil {
		t.Fatalf("assign duplicate: %v", err)
	}

	want := []formstate.CheckResult{
		{RuleType: "required", Passed: true, Message: "required"},
		{RuleType: "format", Passed: true, Message: "needs @"},
		{RuleType: "format", Passed: false, Message: "needs .com"},
		{RuleType: "required", Passed: true, Message: "required"},
	}
	got := checkSummary(reg.Validate())["email"]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("evaluation order mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_AnyPassIsTheDefault(t *testing.T) {
	doc, reg := newRegistry(t, formMarkup)
	setValue(t, doc, "email", "someone@example.org")

	if err := reg.RegisterFunc("required", required, "required"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterPattern("email-format", `\.com$`, "bad format"); err != nil {
		t.Fatalf("register pattern: %v", err)
	}
	if err := reg.Assign("email", "required", "email-format"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	result := reg.Validate()[0]
	if !result.Valid {
		t.Fatalf("one passing check must make the field valid under AnyPass")
	}
	failure, ok := result.FirstFailure()
	if !ok || failure.Message != "bad format" {
		t.Fatalf("expected the format failure to be recorded, got %+v", failure)
	}

	if err := reg.SetPolicy("email", formstate.AllPass); err != nil {
		t.Fatalf("set policy: %v", err)
	}
	if reg.Validate()[0].Valid {
		t.Fatalf("AllPass must report the field invalid")
	}
}

func TestValidate_ValidIffAnyCheckPassed(t *testing.T) {
	cases := []struct {
		name   string
		checks []bool
		want   bool
	}{
		{name: "all fail", checks: []bool{false, false}, want: false},
		{name: "one passes", checks: []bool{false, true}, want: true},
		{name: "all pass", checks: []bool{true, true}, want: true},
		{name: "no checks", checks: nil, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, reg := newRegistry(t, formMarkup)
			for _, outcome := range tc.checks {
				outcome := outcome
				if err := reg.RegisterFunc("t", func(string) bool { return outcome }, "m"); err != nil {
					t.Fatalf("register: %v", err)
				}
			}
			if err := reg.Assign("nickname", "t"); err != nil {
				t.Fatalf("assign: %v", err)
			}
			result := reg.Validate()[0]
			if result.Valid != tc.want {
				t.Fatalf("valid = %v, want %v", result.Valid, tc.want)
			}
		})
	}
}

func TestWithPolicy_AllPass(t *testing.T) {
	_, reg := newRegistry(t, formMarkup, formstate.WithPolicy(formstate.AllPass))
	if err := reg.RegisterFunc("required", required, "required"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterPattern("short", `^.{0,2}$`, "too long"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Assign("nickname", "required", "short"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if reg.Validate()[0].Valid {
		t.Fatalf("expected AllPass to fail on the length check")
	}
	if got := reg.Policy("nickname"); got != formstate.AllPass {
		t.Fatalf("policy = %v", got)
	}
}

func TestSetPolicy_OverridesDefault(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)
	if err := reg.SetDefaultPolicy(formstate.AllPass); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if err := reg.SetPolicy("email", formstate.AnyPass); err != nil {
		t.Fatalf("set policy: %v", err)
	}
	if got := reg.Policy("email"); got != formstate.AnyPass {
		t.Fatalf("email policy = %v", got)
	}
	if got := reg.Policy("nickname"); got != formstate.AllPass {
		t.Fatalf("nickname policy = %v", got)
	}

	if err := reg.SetPolicy("missing", formstate.AllPass); !errors.Is(err, formerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := reg.SetPolicy("email", formstate.Policy(99)); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := reg.SetDefaultPolicy(formstate.Policy(99)); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAssign_Errors(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)

	if err := reg.Assign("missing", "required"); !errors.Is(err, formerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := reg.Assign("email", "required", " "); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	field, _ := reg.Field("email")
	if len(field.RuleTypes) != 0 {
		t.Fatalf("failed assign must not write, got %v", field.RuleTypes)
	}
}

func TestAssign_TargetsFirstMatch(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)
	if err := reg.Assign("choice", "required"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	fields := reg.Fields()
	if len(fields[2].RuleTypes) != 1 || len(fields[3].RuleTypes) != 0 {
		t.Fatalf("expected only the first radio to receive rule types: %+v", fields[2:])
	}
}

type maxLength struct{ limit int }

func (m *maxLength) Check(value string) bool { return len(value) <= m.limit }

func TestRegister_AcceptsCustomCheckers(t *testing.T) {
	doc, reg := newRegistry(t, formMarkup)
	if err := reg.Register("short", &maxLength{limit: 3}, "too long"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Assign("nickname", "short"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !reg.Validate()[0].Valid {
		t.Fatalf("expected %q to pass", "neo")
	}
	setValue(t, doc, "nickname", "trinity")
	if reg.Validate()[0].Valid {
		t.Fatalf("expected %q to fail", "trinity")
	}
}

func TestRegister_RejectsInvalidCheckers(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)

	cases := []struct {
		name    string
		checker formstate.Checker
	}{
		{name: "nil interface", checker: nil},
		{name: "nil func", checker: formstate.CheckerFunc(nil)},
		{name: "nil pattern", checker: formstate.Pattern(nil)},
		{name: "typed nil custom", checker: (*maxLength)(nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := reg.Register("required", tc.checker, "m"); !errors.Is(err, formerrors.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
	if err := reg.RegisterFunc("required", nil, "m"); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for nil func, got %v", err)
	}
	if err := reg.RegisterPattern("required", "(", "m"); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for bad pattern, got %v", err)
	}
	if err := reg.RegisterFunc(" ", required, "m"); !errors.Is(err, formerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for blank name, got %v", err)
	}
	if got := reg.RuleTypes(); len(got) != 0 {
		t.Fatalf("failed registrations must not create rule types, got %v", got)
	}
}

func TestUnregister_RemovesDefinition(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)
	if err := reg.RegisterFunc("required", required, "required"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Assign("email", "required"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	reg.Unregister("required")
	reg.Unregister("never-registered")

	if got := reg.RuleTypes(); len(got) != 0 {
		t.Fatalf("expected rule type removed, got %v", got)
	}
	results := reg.Validate()
	if len(results) != 1 || len(results[0].Checks) != 0 || results[0].Valid {
		t.Fatalf("undefined rule types contribute no checks: %+v", results)
	}
}

func TestUnassign_RemovesEveryDescriptor(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)
	if err := reg.Assign("choice", "required"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	reg.Unassign("choice")

	for _, field := range reg.Fields() {
		if field.Name == "choice" {
			t.Fatalf("expected every choice descriptor removed")
		}
	}
	if err := reg.Assign("choice", "required"); !errors.Is(err, formerrors.ErrNotFound) {
		t.Fatalf("expected unassigned field to be gone, got %v", err)
	}
}

func TestInitialize_KeepsStateOnFailure(t *testing.T) {
	_, reg := newRegistry(t, formMarkup)
	before := len(reg.Fields())

	if err := reg.Initialize(dom.Select("#nope")); !errors.Is(err, formerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := len(reg.Fields()); got != before {
		t.Fatalf("failed initialize changed fields: %d -> %d", before, got)
	}
}

func TestParsePolicy(t *testing.T) {
	for raw, want := range map[string]formstate.Policy{
		"":         formstate.AnyPass,
		"any":      formstate.AnyPass,
		"ALL":      formstate.AllPass,
		"all-pass": formstate.AllPass,
	} {
		got, err := formstate.ParsePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := formstate.ParsePolicy("most"); err == nil {
		t.Fatalf("expected unknown policy error")
	}
}
