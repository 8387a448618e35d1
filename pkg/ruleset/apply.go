package ruleset

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formvalidator/pkg/checkers"
	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/errormsg"
	"github.com/goliatone/go-formvalidator/pkg/formerrors"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

// Target bundles what Apply writes to.
type Target struct {
	Document  dom.Document
	Registry  *formstate.Registry
	Presenter *errormsg.Presenter
	// Checkers resolves check specs. Nil means checkers.Default().
	Checkers *checkers.Registry
}

type plannedRule struct {
	typeName string
	rule     formstate.Rule
}

type plan struct {
	rules         []plannedRule
	fields        []string
	defaultPolicy *formstate.Policy
	policies      map[string]formstate.Policy
	targets       map[string]*html.Node
	template      *errormsg.Template
}

// Apply writes rs into target. Everything is resolved and checked before the
// first write, so an error leaves the registry and presenter untouched.
// Presenter may be nil, in which case targets and template are ignored.
func Apply(rs *Ruleset, target Target) error {
	if rs == nil {
		return formerrors.InvalidArgument("ruleset.apply", "", "rule set is nil")
	}
	if target.Registry == nil {
		return formerrors.InvalidArgument("ruleset.apply", "", "registry is required")
	}
	p, err := rs.plan(target)
	if err != nil {
		return err
	}

	reg := target.Registry
	for _, planned := range p.rules {
		if err := reg.Register(planned.typeName, planned.rule.Checker, planned.rule.Message); err != nil {
			return err
		}
	}
	for _, name := range p.fields {
		if err := reg.Assign(name, rs.Fields[name]...); err != nil {
			return err
		}
	}
	if p.defaultPolicy != nil {
		if err := reg.SetDefaultPolicy(*p.defaultPolicy); err != nil {
			return err
		}
	}
	for name, policy := range p.policies {
		if err := reg.SetPolicy(name, policy); err != nil {
			return err
		}
	}

	if target.Presenter == nil {
		return nil
	}
	if p.template != nil {
		if err := target.Presenter.UseTemplate(*p.template); err != nil {
			return err
		}
	}
	for name, node := range p.targets {
		if err := target.Presenter.SetTarget(name, dom.Element(node)); err != nil {
			return err
		}
	}
	return nil
}

func (rs *Ruleset) plan(target Target) (plan, error) {
	checks := target.Checkers
	if checks == nil {
		checks = checkers.Default()
	}
	p := plan{
		policies: make(map[string]formstate.Policy, len(rs.Policies)),
		targets:  make(map[string]*html.Node, len(rs.Targets)),
	}

	for _, typeName := range rs.RuleTypeNames() {
		for _, cfg := range rs.RuleTypes[typeName] {
			rule, err := buildRule(checks, cfg)
			if err != nil {
				return plan{}, formerrors.Wrap("ruleset.apply", typeName, err)
			}
			p.rules = append(p.rules, plannedRule{typeName: typeName, rule: rule})
		}
	}

	for _, name := range rs.FieldNames() {
		if _, ok := target.Registry.Field(name); !ok {
			return plan{}, formerrors.NotFound("ruleset.apply", name, "no field with that name in the form")
		}
		p.fields = append(p.fields, name)
	}

	if rs.Policy != "" {
		policy, err := formstate.ParsePolicy(rs.Policy)
		if err != nil {
			return plan{}, formerrors.InvalidArgument("ruleset.apply", "", "%v", err)
		}
		p.defaultPolicy = &policy
	}
	for name, raw := range rs.Policies {
		policy, err := formstate.ParsePolicy(raw)
		if err != nil {
			return plan{}, formerrors.InvalidArgument("ruleset.apply", name, "%v", err)
		}
		if _, ok := target.Registry.Field(name); !ok {
			return plan{}, formerrors.NotFound("ruleset.apply", name, "policy for unknown field")
		}
		p.policies[name] = policy
	}

	if target.Presenter == nil {
		return p, nil
	}
	if target.Document == nil {
		return plan{}, formerrors.InvalidArgument("ruleset.apply", "", "document is required to resolve targets")
	}
	for name, selector := range rs.Targets {
		node, err := target.Document.Resolve(dom.Select(selector))
		if err != nil {
			return plan{}, formerrors.Wrap("ruleset.apply", name, err)
		}
		p.targets[name] = node
	}
	if rs.Template != nil {
		tpl := errormsg.Template{Tag: rs.Template.Tag, Attrs: rs.Template.Attrs, Style: rs.Template.Style}
		if _, err := target.Document.CreateElement(tpl.Tag, tpl.Attrs, tpl.Style); err != nil {
			return plan{}, formerrors.Wrap("ruleset.apply", "template", err)
		}
		p.template = &tpl
	}
	return p, nil
}

func buildRule(checks *checkers.Registry, cfg RuleConfig) (formstate.Rule, error) {
	var rule formstate.Rule
	switch {
	case cfg.Pattern != "":
		pattern, err := formstate.CompilePattern(cfg.Pattern)
		if err != nil {
			return formstate.Rule{}, err
		}
		rule = formstate.Rule{Checker: pattern, Message: cfg.Message}
	case len(cfg.In) > 0:
		rule = formstate.Rule{Checker: checkers.OneOf(cfg.In), Message: cfg.Message}
		if rule.Message == "" {
			rule.Message = "{{ label }} must be one of " + strings.Join(cfg.In, ", ")
		}
	default:
		built, err := checks.Build(cfg.Check, cfg.Message)
		if err != nil {
			return formstate.Rule{}, err
		}
		rule = built
	}
	if cfg.Optional {
		rule.Checker = checkers.Optional(rule.Checker)
	}
	return rule, nil
}
