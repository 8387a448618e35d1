// Package formstate holds the field registry of one form: the named controls
// found in the document, the rule types assigned to each of them and the
// checkers registered under every rule type. Validate evaluates all of it
// against the values currently held by the document.
package formstate

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/formerrors"
)

// Field is the registry record for one named control.
type Field struct {
	Name      string
	Kind      string
	Node      *html.Node
	RuleTypes []string
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	RuleType string
	Passed   bool
	Message  string
}

// Result is the validation outcome for one field with assigned rule types.
type Result struct {
	Field  Field
	Value  string
	Checks []CheckResult
	Valid  bool
}

// FirstFailure returns the first failing check in evaluation order.
func (r Result) FirstFailure() (CheckResult, bool) {
	for _, check := range r.Checks {
		if !check.Passed {
			return check, true
		}
	}
	return CheckResult{}, false
}

// Option configures a Registry.
type Option func(*Registry)

// WithPolicy sets the default aggregation policy.
func WithPolicy(policy Policy) Option {
	return func(r *Registry) {
		if policy.valid() {
			r.policy = policy
		}
	}
}

// WithLogger sets the logger used for skipped rule types.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry owns the field records and rule-type definitions of one form. It
// is not safe for concurrent use.
type Registry struct {
	doc       dom.Document
	form      *html.Node
	fields    []*Field
	ruleTypes map[string][]Rule
	policies  map[string]Policy
	policy    Policy
	logger    *zap.Logger
}

// New resolves form in doc and collects its named controls.
func New(doc dom.Document, form dom.Ref, options ...Option) (*Registry, error) {
	if doc == nil {
		return nil, formerrors.InvalidArgument("formstate.new", "", "document is required")
	}
	r := &Registry{
		doc:       doc,
		ruleTypes: make(map[string][]Rule),
		policies:  make(map[string]Policy),
		policy:    AnyPass,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if err := r.Initialize(form); err != nil {
		return nil, err
	}
	return r, nil
}

// Initialize re-reads the named controls of form, replacing the current
// field records. Rule-type definitions are kept.
func (r *Registry) Initialize(form dom.Ref) error {
	node, err := r.doc.Resolve(form)
	if err != nil {
		return formerrors.Wrap("formstate.initialize", "", err)
	}

	controls := r.doc.Fields(node)
	fields := make([]*Field, 0, len(controls))
	for _, control := range controls {
		fields = append(fields, &Field{
			Name: control.Name,
			Kind: control.Kind,
			Node: control.Node,
		})
	}

	r.form = node
	r.fields = fields
	r.policies = make(map[string]Policy)
	r.logger.Debug("form initialized", zap.Int("fields", len(fields)))
	return nil
}

// Form returns the resolved form container.
func (r *Registry) Form() *html.Node {
	return r.form
}

// Assign appends rule types to the first field named name. Repeated
// assignment duplicates entries and each duplicate is evaluated.
func (r *Registry) Assign(name string, ruleTypes ...string) error {
	for _, ruleType := range ruleTypes {
		if strings.TrimSpace(ruleType) == "" {
			return formerrors.InvalidArgument("formstate.assign", name, "rule type name is empty")
		}
	}
	field := r.lookup(name)
	if field == nil {
		return formerrors.NotFound("formstate.assign", name, "no field with that name")
	}
	field.RuleTypes = append(field.RuleTypes, ruleTypes...)
	return nil
}

// Unassign removes every field named name from the registry.
func (r *Registry) Unassign(name string) {
	kept := r.fields[:0]
	for _, field := range r.fields {
		if field.Name == name {
			continue
		}
		kept = append(kept, field)
	}
	for idx := len(kept); idx < len(r.fields); idx++ {
		r.fields[idx] = nil
	}
	r.fields = kept
	delete(r.policies, name)
}

// Register appends a checker to typeName, creating the rule type when absent.
func (r *Registry) Register(typeName string, checker Checker, message string) error {
	if strings.TrimSpace(typeName) == "" {
		return formerrors.InvalidArgument("formstate.register", typeName, "rule type name is empty")
	}
	if !validChecker(checker) {
		return formerrors.InvalidArgument("formstate.register", typeName, "checker must be a predicate or pattern")
	}
	r.ruleTypes[typeName] = append(r.ruleTypes[typeName], Rule{Checker: checker, Message: message})
	return nil
}

// RegisterFunc registers a predicate checker.
func (r *Registry) RegisterFunc(typeName string, fn func(string) bool, message string) error {
	if fn == nil {
		return formerrors.InvalidArgument("formstate.register", typeName, "checker must be a predicate or pattern")
	}
	return r.Register(typeName, CheckerFunc(fn), message)
}

// RegisterPattern compiles expr and registers it as a pattern checker.
func (r *Registry) RegisterPattern(typeName, expr, message string) error {
	pattern, err := CompilePattern(expr)
	if err != nil {
		return formerrors.Wrap("formstate.register", typeName, err)
	}
	return r.Register(typeName, pattern, message)
}

// Unregister drops a rule type. Fields keep their assignment; an assigned
// but undefined rule type contributes no checks.
func (r *Registry) Unregister(typeName string) {
	delete(r.ruleTypes, typeName)
}

// SetPolicy overrides the aggregation policy for the first field named name.
func (r *Registry) SetPolicy(name string, policy Policy) error {
	if !policy.valid() {
		return formerrors.InvalidArgument("formstate.set_policy", name, "unknown policy %d", int(policy))
	}
	if r.lookup(name) == nil {
		return formerrors.NotFound("formstate.set_policy", name, "no field with that name")
	}
	r.policies[name] = policy
	return nil
}

// SetDefaultPolicy changes the policy of fields without an override.
func (r *Registry) SetDefaultPolicy(policy Policy) error {
	if !policy.valid() {
		return formerrors.InvalidArgument("formstate.set_default_policy", "", "unknown policy %d", int(policy))
	}
	r.policy = policy
	return nil
}

// Policy returns the policy applied to name.
func (r *Registry) Policy(name string) Policy {
	if policy, ok := r.policies[name]; ok {
		return policy
	}
	return r.policy
}

// Fields returns a copy of the field records in document order.
func (r *Registry) Fields() []Field {
	out := make([]Field, 0, len(r.fields))
	for _, field := range r.fields {
		copied := *field
		copied.RuleTypes = append([]string(nil), field.RuleTypes...)
		out = append(out, copied)
	}
	return out
}

// Field returns the first field named name.
func (r *Registry) Field(name string) (Field, bool) {
	field := r.lookup(name)
	if field == nil {
		return Field{}, false
	}
	copied := *field
	copied.RuleTypes = append([]string(nil), field.RuleTypes...)
	return copied, true
}

// RuleTypes lists the registered rule-type names, sorted.
func (r *Registry) RuleTypes() []string {
	names := make([]string, 0, len(r.ruleTypes))
	for name := range r.ruleTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rules returns the checkers registered under typeName in registration order.
func (r *Registry) Rules(typeName string) []Rule {
	rules, ok := r.ruleTypes[typeName]
	if !ok {
		return nil
	}
	return append([]Rule(nil), rules...)
}

// Validate evaluates every field that has rule types assigned. Fields without
// assignments are left out of the result. Every checker runs; nothing short
// circuits.
func (r *Registry) Validate() []Result {
	results := make([]Result, 0, len(r.fields))
	for _, field := range r.fields {
		if len(field.RuleTypes) == 0 {
			continue
		}
		value := r.doc.Value(field.Node)
		checks := r.evaluate(field, value)

		copied := *field
		copied.RuleTypes = append([]string(nil), field.RuleTypes...)
		results = append(results, Result{
			Field:  copied,
			Value:  value,
			Checks: checks,
			Valid:  r.Policy(field.Name).aggregate(checks),
		})
	}
	return results
}

func (r *Registry) evaluate(field *Field, value string) []CheckResult {
	var checks []CheckResult
	for _, ruleType := range field.RuleTypes {
		rules, ok := r.ruleTypes[ruleType]
		if !ok {
			r.logger.Debug("rule type not defined",
				zap.String("field", field.Name),
				zap.String("rule_type", ruleType),
			)
			continue
		}
		for _, rule := range rules {
			checks = append(checks, CheckResult{
				RuleType: ruleType,
				Passed:   rule.Checker.Check(value),
				Message:  rule.Message,
			})
		}
	}
	return checks
}

func (r *Registry) lookup(name string) *Field {
	for _, field := range r.fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}
