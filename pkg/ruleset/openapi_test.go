package ruleset

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

const signupOpenAPI = `
openapi: 3.0.3
info:
  title: Signup
  version: 1.0.0
paths:
  /signup:
    post:
      operationId: createAccount
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              required: [email, nickname]
              properties:
                email:
                  type: string
                  format: email
                nickname:
                  type: string
                  minLength: 3
                  maxLength: 20
                  pattern: "^[a-z]+$"
                age:
                  type: integer
                  minimum: 18
                  maximum: 130
                  exclusiveMaximum: true
                plan:
                  type: string
                  enum: [free, pro]
                note:
                  type: string
      responses:
        "201":
          description: created
`

func TestFromOpenAPI(t *testing.T) {
	rs, err := FromOpenAPI(context.Background(), []byte(signupOpenAPI), "createAccount")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}

	wantFields := map[string][]string{
		"age":      {"optional:integer", "optional:gte:18", "optional:lt:130"},
		"email":    {"required", "email"},
		"nickname": {"required", "min:3", "max:20", "pattern:nickname"},
		"plan":     {"optional:in:plan"},
	}
	if diff := cmp.Diff(wantFields, rs.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if rs.Policy != "all" {
		t.Fatalf("policy = %q", rs.Policy)
	}
	if got := rs.RuleTypes["pattern:nickname"]; len(got) != 1 || got[0].Pattern != "^[a-z]+$" {
		t.Fatalf("unexpected pattern rule type %+v", got)
	}
	if got := rs.RuleTypes["min:3"]; len(got) != 1 || got[0].Check != "min:3" || got[0].Optional {
		t.Fatalf("unexpected min rule type %+v", got)
	}
	if diff := cmp.Diff([]RuleConfig{{In: []string{"free", "pro"}, Optional: true}}, rs.RuleTypes["optional:in:plan"]); diff != "" {
		t.Fatalf("enum rule type mismatch (-want +got):\n%s", diff)
	}
}

const profileOpenAPI = `
openapi: 3.0.3
info: {title: Profile, version: 1.0.0}
paths:
  /profile:
    post:
      operationId: updateProfile
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              required: [email]
              properties:
                email: {type: string, format: email}
                age: {type: integer, minimum: 18}
                nickname: {type: string, minLength: 3}
                tags: {type: string, enum: ["a,b", "c"]}
                flag: {type: string, enum: [""]}
      responses:
        "204": {description: saved}
`

const profileMarkup = `<form id="profile">
  <input name="email" value="ada@example.com">
  <input name="age"><input name="nickname"><input name="tags"><input name="flag">
</form>`

func TestFromOpenAPI_OptionalConstraints(t *testing.T) {
	rs, err := FromOpenAPI(context.Background(), []byte(profileOpenAPI), "updateProfile")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	doc, err := dom.ParseString(profileMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg, err := formstate.New(doc, dom.Select("#profile"))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := Apply(rs, Target{Document: doc, Registry: reg}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "age", value: "", valid: true},
		{name: "age", value: "  ", valid: true},
		{name: "age", value: "5", valid: false},
		{name: "age", value: "abc", valid: false},
		{name: "age", value: "30", valid: true},
		{name: "nickname", value: "", valid: true},
		{name: "nickname", value: "ab", valid: false},
		{name: "nickname", value: "neo", valid: true},
		{name: "tags", value: "a,b", valid: true},
		{name: "tags", value: "a", valid: false},
		{name: "tags", value: "c", valid: true},
		{name: "flag", value: "", valid: true},
		{name: "flag", value: "x", valid: false},
		{name: "email", value: "", valid: false},
	}
	for _, tc := range cases {
		node, err := doc.Query(`[name="` + tc.name + `"]`)
		if err != nil {
			t.Fatalf("query %s: %v", tc.name, err)
		}
		doc.SetValue(node, tc.value)

		var got *formstate.Result
		results := reg.Validate()
		for idx := range results {
			if results[idx].Field.Name == tc.name {
				got = &results[idx]
			}
		}
		if got == nil {
			t.Fatalf("%s: no result", tc.name)
		}
		if got.Valid != tc.valid {
			t.Fatalf("%s=%q valid = %v, want %v (checks %+v)", tc.name, tc.value, got.Valid, tc.valid, got.Checks)
		}
		doc.SetValue(node, "")
	}
}

func TestFromOpenAPI_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := FromOpenAPI(ctx, nil, "createAccount"); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := FromOpenAPI(ctx, []byte(signupOpenAPI), ""); err == nil {
		t.Fatalf("expected error for empty operation id")
	}
	if _, err := FromOpenAPI(ctx, []byte(signupOpenAPI), "deleteAccount"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := FromOpenAPI(cancelled, []byte(signupOpenAPI), "createAccount"); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
