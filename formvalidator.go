// Package formvalidator wires the field registry and the error presenter of
// one form behind a single value. Callers that just want to validate a page
// can use ValidateHTML; callers that drive the document themselves build a
// Validator with New.
package formvalidator

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formvalidator/pkg/checkers"
	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/errormsg"
	"github.com/goliatone/go-formvalidator/pkg/formerrors"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
	"github.com/goliatone/go-formvalidator/pkg/ruleset"
)

// DefaultFormSelector is used when neither the caller nor the rule set names
// a form.
const DefaultFormSelector = "form"

// Policy aliases formstate.Policy so callers need not import formstate for
// the common case.
type Policy = formstate.Policy

const (
	AnyPass = formstate.AnyPass
	AllPass = formstate.AllPass
)

// Option configures a Validator.
type Option func(*config)

type config struct {
	logger   *zap.Logger
	policy   Policy
	ruleset  *ruleset.Ruleset
	checkers *checkers.Registry
	template *errormsg.Template
}

// WithLogger sets the logger shared by the registry and the presenter.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithPolicy sets the default aggregation policy.
func WithPolicy(policy Policy) Option {
	return func(cfg *config) {
		cfg.policy = policy
	}
}

// WithRuleset applies rs once the registry and presenter exist.
func WithRuleset(rs *ruleset.Ruleset) Option {
	return func(cfg *config) {
		cfg.ruleset = rs
	}
}

// WithCheckers replaces the checker registry used to resolve rule-set specs.
func WithCheckers(reg *checkers.Registry) Option {
	return func(cfg *config) {
		cfg.checkers = reg
	}
}

// WithTemplate sets the initial message template.
func WithTemplate(tpl errormsg.Template) Option {
	return func(cfg *config) {
		cfg.template = &tpl
	}
}

// Validator owns the registry and presenter of one form. It is not safe for
// concurrent use.
type Validator struct {
	doc       dom.Document
	registry  *formstate.Registry
	presenter *errormsg.Presenter
	logger    *zap.Logger
}

// New builds a validator for form inside doc. A nil form falls back to the
// rule set's form and then to the first <form> element.
func New(doc dom.Document, form dom.Ref, options ...Option) (*Validator, error) {
	cfg := config{policy: AnyPass}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if form == nil {
		form = dom.Select(formSelector(cfg.ruleset))
	}

	registry, err := formstate.New(doc, form,
		formstate.WithPolicy(cfg.policy),
		formstate.WithLogger(cfg.logger.Named("formstate")),
	)
	if err != nil {
		return nil, err
	}

	presenterOptions := []errormsg.Option{errormsg.WithLogger(cfg.logger.Named("errormsg"))}
	if cfg.template != nil {
		presenterOptions = append(presenterOptions, errormsg.WithTemplate(*cfg.template))
	}
	presenter, err := errormsg.New(doc, presenterOptions...)
	if err != nil {
		return nil, err
	}

	v := &Validator{
		doc:       doc,
		registry:  registry,
		presenter: presenter,
		logger:    cfg.logger,
	}
	if cfg.ruleset != nil {
		err := ruleset.Apply(cfg.ruleset, ruleset.Target{
			Document:  doc,
			Registry:  registry,
			Presenter: presenter,
			Checkers:  cfg.checkers,
		})
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Registry exposes the underlying field registry.
func (v *Validator) Registry() *formstate.Registry { return v.registry }

// Presenter exposes the underlying error presenter.
func (v *Validator) Presenter() *errormsg.Presenter { return v.presenter }

// Assign appends rule types to the first field named name.
func (v *Validator) Assign(name string, ruleTypes ...string) error {
	return v.registry.Assign(name, ruleTypes...)
}

// Register appends checker to typeName.
func (v *Validator) Register(typeName string, checker formstate.Checker, message string) error {
	return v.registry.Register(typeName, checker, message)
}

// RegisterFunc appends a predicate checker to typeName.
func (v *Validator) RegisterFunc(typeName string, fn func(string) bool, message string) error {
	return v.registry.RegisterFunc(typeName, fn, message)
}

// RegisterPattern appends a pattern checker to typeName.
func (v *Validator) RegisterPattern(typeName, expr, message string) error {
	return v.registry.RegisterPattern(typeName, expr, message)
}

// SetPolicy overrides the aggregation policy of one field.
func (v *Validator) SetPolicy(name string, policy Policy) error {
	return v.registry.SetPolicy(name, policy)
}

// SetTarget routes messages for name into target.
func (v *Validator) SetTarget(name string, target dom.Ref) error {
	return v.presenter.SetTarget(name, target)
}

// SetTemplate replaces the message template.
func (v *Validator) SetTemplate(tag string, attrs map[string]string, style string) error {
	return v.presenter.SetTemplate(tag, attrs, style)
}

// Validate evaluates the form without touching the document.
func (v *Validator) Validate() []formstate.Result {
	return v.registry.Validate()
}

// Display validates the form and replaces the messages on the page.
func (v *Validator) Display() (Report, error) {
	results := v.registry.Validate()
	messages, err := v.presenter.Refresh(results)
	report := newReport(results, messages)
	if err != nil {
		return report, err
	}
	v.logger.Debug("form validated",
		zap.Bool("valid", report.Valid),
		zap.Int("fields", len(results)),
		zap.Int("messages", len(messages)),
	)
	return report, nil
}

// Clear removes every message currently on the page.
func (v *Validator) Clear() {
	v.presenter.RemoveAll()
}

// ValidateHTML parses the page read from r, validates the form described by
// rs, writes the page with messages attached to w (when w is non-nil) and
// returns the report.
func ValidateHTML(ctx context.Context, r io.Reader, rs *ruleset.Ruleset, w io.Writer, options ...Option) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	doc, err := dom.Parse(r)
	if err != nil {
		return Report{}, err
	}
	return ValidateDocument(ctx, doc, rs, w, options...)
}

// ValidateDocument is ValidateHTML for an already parsed document.
func ValidateDocument(ctx context.Context, doc *dom.HTMLDocument, rs *ruleset.Ruleset, w io.Writer, options ...Option) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if doc == nil {
		return Report{}, formerrors.InvalidArgument("formvalidator.validate", "", "document is required")
	}
	opts := append([]Option{WithRuleset(rs)}, options...)
	v, err := New(doc, nil, opts...)
	if err != nil {
		return Report{}, err
	}
	report, err := v.Display()
	if err != nil {
		return report, err
	}
	if w != nil {
		if err := doc.Render(w); err != nil {
			return report, err
		}
	}
	return report, nil
}

func formSelector(rs *ruleset.Ruleset) string {
	if rs != nil {
		if form := strings.TrimSpace(rs.Form); form != "" {
			return form
		}
	}
	return DefaultFormSelector
}
