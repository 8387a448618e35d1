package checkers

import "testing"

func TestBuiltins_Check(t *testing.T) {
	r := Default()
	cases := []struct {
		spec  string
		value string
		want  bool
	}{
		{"required", "x", true},
		{"required", "   ", false},
		{"email", "ada@example.com", true},
		{"email", "ada@", false},
		{"url", "https://example.com/a", true},
		{"url", "example", false},
		{"numeric", "-1.5", true},
		{"numeric", "1e", false},
		{"integer", "+42", true},
		{"integer", "4.2", false},
		{"boolean", "Yes", true},
		{"boolean", "maybe", false},
		{"alpha", "abc", true},
		{"alpha", "ab1", false},
		{"alpha_num", "ab1", true},
		{"alpha_num", "ab-1", false},
		{"alpha_dash", "ab-1_c", true},
		{"alpha_dash", "ab 1", false},
		{"min:3", "héé", true},
		{"min:3", "hé", false},
		{"max:3", "abc", true},
		{"max:3", "abcd", false},
		{"size:2", "ab", true},
		{"size:2", "abc", false},
		{"between:2,4", "abc", true},
		{"between:2,4", "a", false},
		{"in:red,green", "green", true},
		{"in:red,green", "blue", false},
		{"not_in:red,green", "blue", true},
		{"not_in:red,green", "red", false},
		{"regex:^[0-9]{3}$", "123", true},
		{"regex:^[0-9]{3}$", "12", false},
		{"gt:10", "11", true},
		{"gt:10", "10", false},
		{"gte:10", "10", true},
		{"lt:10", "9.5", true},
		{"lt:10", "ten", false},
		{"lte:10", "10", true},
		{"lte:10", "10.1", false},
	}
	for _, tc := range cases {
		rule, err := r.Build(tc.spec, "")
		if err != nil {
			t.Fatalf("build %q: %v", tc.spec, err)
		}
		if got := rule.Checker.Check(tc.value); got != tc.want {
			t.Fatalf("%s(%q) = %v, want %v", tc.spec, tc.value, got, tc.want)
		}
	}
}

func TestOneOfAndOptional(t *testing.T) {
	oneOf := OneOf([]string{"a,b", ""})
	optional := Optional(OneOf([]string{"x"}))
	cases := []struct {
		name  string
		check func(string) bool
		value string
		want  bool
	}{
		{"comma member", oneOf.Check, "a,b", true},
		{"split member", oneOf.Check, "a", false},
		{"empty member", oneOf.Check, "", true},
		{"blank passes", optional.Check, " ", true},
		{"filled defers", optional.Check, "y", false},
		{"filled passes", optional.Check, "x", true},
	}
	for _, tc := range cases {
		if got := tc.check(tc.value); got != tc.want {
			t.Fatalf("%s: Check(%q) = %v, want %v", tc.name, tc.value, got, tc.want)
		}
	}
}
