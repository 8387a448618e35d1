// Package ruleset describes form validation declaratively. A rule set names
// the form, its rule types and checkers, the rule types assigned to every
// field, per-field policies and message targets. Rule sets are read from
// YAML or JSON files, or derived from an OpenAPI request body, and applied to
// a formstate.Registry and errormsg.Presenter in one step.
package ruleset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

// Ruleset is the normalised form of one or more rule files.
type Ruleset struct {
	Source    string
	Form      string
	Policy    string
	Template  *TemplateConfig
	RuleTypes map[string][]RuleConfig
	Fields    map[string][]string
	Policies  map[string]string
	Targets   map[string]string
}

// TemplateConfig mirrors errormsg.Template.
type TemplateConfig struct {
	Tag   string            `json:"tag" yaml:"tag"`
	Attrs map[string]string `json:"attrs" yaml:"attrs"`
	Style string            `json:"style" yaml:"style"`
}

// RuleConfig declares one checker. Exactly one of Check, Pattern or In is
// set.
type RuleConfig struct {
	// Check is a checker spec such as "required" or "min:3".
	Check   string `json:"check,omitempty" yaml:"check,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// In lists the accepted values verbatim.
	In       []string `json:"in,omitempty" yaml:"in,omitempty"`
	// Optional lets blank values pass the check.
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
}

type documentFile struct {
	Form      string                  `json:"form" yaml:"form"`
	Policy    string                  `json:"policy" yaml:"policy"`
	Template  *TemplateConfig         `json:"template" yaml:"template"`
	RuleTypes map[string][]RuleConfig `json:"ruleTypes" yaml:"ruleTypes"`
	Fields    map[string][]string     `json:"fields" yaml:"fields"`
	Policies  map[string]string       `json:"policies" yaml:"policies"`
	Targets   map[string]string       `json:"targets" yaml:"targets"`
}

// New returns an empty rule set.
func New() *Ruleset {
	return &Ruleset{
		RuleTypes: make(map[string][]RuleConfig),
		Fields:    make(map[string][]string),
		Policies:  make(map[string]string),
		Targets:   make(map[string]string),
	}
}

// Parse decodes a JSON or YAML rule file. source names the file in errors.
func Parse(data []byte, source string) (*Ruleset, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("ruleset: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("ruleset: parse %s: invalid JSON or YAML: %w", source, yamlErr)
		}
	}
	return normalise(doc, source)
}

func normalise(doc documentFile, source string) (*Ruleset, error) {
	rs := New()
	rs.Source = source
	rs.Form = strings.TrimSpace(doc.Form)

	if _, err := formstate.ParsePolicy(doc.Policy); err != nil {
		return nil, fmt.Errorf("ruleset: file %s: %w", source, err)
	}
	rs.Policy = strings.TrimSpace(doc.Policy)

	if doc.Template != nil {
		tpl := *doc.Template
		tpl.Tag = strings.TrimSpace(tpl.Tag)
		if tpl.Tag == "" {
			return nil, fmt.Errorf("ruleset: file %s template has no tag", source)
		}
		tpl.Attrs = cloneStrings(tpl.Attrs)
		rs.Template = &tpl
	}

	for rawName, rules := range doc.RuleTypes {
		name := strings.TrimSpace(rawName)
		if name == "" {
			return nil, fmt.Errorf("ruleset: file %s defines a rule type with an empty name", source)
		}
		if _, exists := rs.RuleTypes[name]; exists {
			return nil, fmt.Errorf("ruleset: file %s defines rule type %q twice", source, name)
		}
		if len(rules) == 0 {
			return nil, fmt.Errorf("ruleset: file %s rule type %q has no rules", source, name)
		}
		normalised := make([]RuleConfig, len(rules))
		for idx, rule := range rules {
			rule.Check = strings.TrimSpace(rule.Check)
			if kinds(rule) != 1 {
				return nil, fmt.Errorf("ruleset: file %s rule type %q entry %d needs exactly one of check, pattern or in", source, name, idx)
			}
			rule.Message = sanitizeMessage(rule.Message)
			normalised[idx] = rule
		}
		rs.RuleTypes[name] = normalised
	}

	for rawName, types := range doc.Fields {
		name := strings.TrimSpace(rawName)
		if name == "" {
			return nil, fmt.Errorf("ruleset: file %s assigns rule types to an empty field name", source)
		}
		if _, exists := rs.Fields[name]; exists {
			return nil, fmt.Errorf("ruleset: file %s defines field %q twice", source, name)
		}
		cleaned := make([]string, 0, len(types))
		for _, typeName := range types {
			if typeName = strings.TrimSpace(typeName); typeName != "" {
				cleaned = append(cleaned, typeName)
			}
		}
		rs.Fields[name] = cleaned
	}

	for rawName, raw := range doc.Policies {
		name := strings.TrimSpace(rawName)
		if _, err := formstate.ParsePolicy(raw); err != nil {
			return nil, fmt.Errorf("ruleset: file %s field %q: %w", source, name, err)
		}
		rs.Policies[name] = strings.TrimSpace(raw)
	}

	for rawName, selector := range doc.Targets {
		name := strings.TrimSpace(rawName)
		selector = strings.TrimSpace(selector)
		if name == "" || selector == "" {
			return nil, fmt.Errorf("ruleset: file %s has an incomplete target entry %q", source, rawName)
		}
		rs.Targets[name] = selector
	}

	return rs, nil
}

func kinds(rule RuleConfig) int {
	n := 0
	if rule.Check != "" {
		n++
	}
	if rule.Pattern != "" {
		n++
	}
	if len(rule.In) > 0 {
		n++
	}
	return n
}

// Merge folds other into rs. Rule types and fields may only be defined once;
// form, policy and template must agree when both sides set them.
func (rs *Ruleset) Merge(other *Ruleset) error {
	if other == nil {
		return nil
	}
	if err := mergeScalar(&rs.Form, other.Form, "form", other.Source); err != nil {
		return err
	}
	if err := mergeScalar(&rs.Policy, other.Policy, "policy", other.Source); err != nil {
		return err
	}
	if other.Template != nil {
		if rs.Template != nil {
			return fmt.Errorf("ruleset: template defined again in %s", other.Source)
		}
		tpl := *other.Template
		rs.Template = &tpl
	}
	for name, rules := range other.RuleTypes {
		if _, exists := rs.RuleTypes[name]; exists {
			return fmt.Errorf("ruleset: duplicate rule type %q (file %s)", name, other.Source)
		}
		rs.RuleTypes[name] = append([]RuleConfig(nil), rules...)
	}
	for name, types := range other.Fields {
		if _, exists := rs.Fields[name]; exists {
			return fmt.Errorf("ruleset: duplicate field %q (file %s)", name, other.Source)
		}
		rs.Fields[name] = append([]string(nil), types...)
	}
	for name, policy := range other.Policies {
		if err := mergeMapValue(rs.Policies, name, policy, "policy", other.Source); err != nil {
			return err
		}
	}
	for name, target := range other.Targets {
		if err := mergeMapValue(rs.Targets, name, target, "target", other.Source); err != nil {
			return err
		}
	}
	if rs.Source == "" {
		rs.Source = other.Source
	}
	return nil
}

// FieldNames returns the names of fields with assignments, sorted.
func (rs *Ruleset) FieldNames() []string {
	return sortedKeys(rs.Fields)
}

// RuleTypeNames returns the declared rule types, sorted.
func (rs *Ruleset) RuleTypeNames() []string {
	return sortedKeys(rs.RuleTypes)
}

// Empty reports whether the rule set declares nothing.
func (rs *Ruleset) Empty() bool {
	return rs == nil || (len(rs.RuleTypes) == 0 && len(rs.Fields) == 0)
}

func mergeScalar(dst *string, value, label, source string) error {
	if value == "" {
		return nil
	}
	if *dst != "" && *dst != value {
		return fmt.Errorf("ruleset: conflicting %s %q in %s (already %q)", label, value, source, *dst)
	}
	*dst = value
	return nil
}

func mergeMapValue(dst map[string]string, key, value, label, source string) error {
	if existing, ok := dst[key]; ok && existing != value {
		return fmt.Errorf("ruleset: conflicting %s for field %q in %s", label, key, source)
	}
	dst[key] = value
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneStrings(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
