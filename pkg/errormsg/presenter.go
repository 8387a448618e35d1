// Package errormsg turns validation results into error-message nodes placed
// next to invalid fields and manages them as one replaceable batch.
//
// The usual cycle is RemoveAll, Build, AppendAll; Refresh runs the three
// steps in that order. Attached messages stay tracked even when Build
// replaces the pending batch, so RemoveAll always clears what is on the page.
package errormsg

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/formerrors"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

// Message is one built error message and the container it belongs in.
type Message struct {
	Field     string
	Text      string
	Container *html.Node
	Node      *html.Node
}

// Option configures a Presenter.
type Option func(*config)

type config struct {
	template  Template
	logger    *zap.Logger
	formatter *Formatter
}

// WithTemplate sets the initial message template.
func WithTemplate(tpl Template) Option {
	return func(cfg *config) {
		cfg.template = tpl
	}
}

// WithLogger sets the logger used for skipped and absorbed events.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithFormatter replaces the message formatter.
func WithFormatter(formatter *Formatter) Option {
	return func(cfg *config) {
		if formatter != nil {
			cfg.formatter = formatter
		}
	}
}

// Presenter builds, attaches and removes error messages. It is not safe for
// concurrent use.
type Presenter struct {
	doc       dom.Document
	template  *html.Node
	targets   map[string]*html.Node
	pending   []Message
	attached  []Message
	formatter *Formatter
	logger    *zap.Logger
}

// New creates a presenter bound to doc.
func New(doc dom.Document, options ...Option) (*Presenter, error) {
	if doc == nil {
		return nil, formerrors.InvalidArgument("errormsg.new", "", "document is required")
	}
	cfg := config{template: DefaultTemplate()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.formatter == nil {
		cfg.formatter = NewFormatter()
	}

	p := &Presenter{
		doc:       doc,
		targets:   make(map[string]*html.Node),
		formatter: cfg.formatter,
		logger:    cfg.logger,
	}
	if err := p.UseTemplate(cfg.template); err != nil {
		return nil, err
	}
	return p, nil
}

// SetTemplate replaces the template used for messages built from now on.
// Messages already built keep their nodes.
func (p *Presenter) SetTemplate(tag string, attrs map[string]string, style string) error {
	node, err := p.doc.CreateElement(tag, attrs, style)
	if err != nil {
		return formerrors.Wrap("errormsg.set_template", tag, err)
	}
	p.template = node
	return nil
}

// UseTemplate is SetTemplate for a Template value.
func (p *Presenter) UseTemplate(tpl Template) error {
	return p.SetTemplate(tpl.Tag, tpl.Attrs, tpl.Style)
}

// SetTarget routes messages for name into target instead of the field's
// parent. Unresolvable targets are reported as errors; the previous override
// is kept in that case.
func (p *Presenter) SetTarget(name string, target dom.Ref) error {
	node, err := p.doc.Resolve(target)
	if err != nil {
		return formerrors.Wrap("errormsg.set_target", name, err)
	}
	p.targets[name] = node
	return nil
}

// Target returns the override registered for name.
func (p *Presenter) Target(name string) (*html.Node, bool) {
	node, ok := p.targets[name]
	return node, ok
}

// ClearTarget drops the override for name.
func (p *Presenter) ClearTarget(name string) {
	delete(p.targets, name)
}

// Build creates one message per invalid result that has at least one check,
// using the first failing message as text. The batch replaces the pending one
// without touching the document.
func (p *Presenter) Build(results []formstate.Result) []Message {
	messages := make([]Message, 0, len(results))
	for _, result := range results {
		if result.Valid || len(result.Checks) == 0 {
			continue
		}
		failure, ok := result.FirstFailure()
		if !ok {
			continue
		}

		container := p.containerFor(result.Field)
		if container == nil {
			p.logger.Debug("no container for message", zap.String("field", result.Field.Name))
			continue
		}

		text := p.format(result, failure)
		node := p.doc.Clone(p.template)
		p.doc.SetText(node, text)

		messages = append(messages, Message{
			Field:     result.Field.Name,
			Text:      text,
			Container: container,
			Node:      node,
		})
	}
	p.pending = messages
	return append([]Message(nil), messages...)
}

// AppendAll attaches the pending messages in order. It stops at the first
// collaborator failure; messages attached before it stay attached.
func (p *Presenter) AppendAll() error {
	for _, msg := range p.pending {
		if err := p.doc.AppendChild(msg.Container, msg.Node); err != nil {
			return formerrors.Wrap("errormsg.append_all", msg.Field, err)
		}
		p.track(msg)
	}
	return nil
}

// RemoveAll detaches every attached message. Nodes that are no longer under
// their container are skipped.
func (p *Presenter) RemoveAll() {
	for _, msg := range p.attached {
		if !p.doc.RemoveChild(msg.Container, msg.Node) {
			p.logger.Debug("message already detached", zap.String("field", msg.Field))
		}
	}
	p.attached = nil
}

// Refresh removes the current messages, builds a batch from results and
// attaches it.
func (p *Presenter) Refresh(results []formstate.Result) ([]Message, error) {
	p.RemoveAll()
	messages := p.Build(results)
	if err := p.AppendAll(); err != nil {
		return messages, err
	}
	return messages, nil
}

// Pending returns the last built batch.
func (p *Presenter) Pending() []Message {
	return append([]Message(nil), p.pending...)
}

// Attached returns the messages currently attached to the document.
func (p *Presenter) Attached() []Message {
	return append([]Message(nil), p.attached...)
}

func (p *Presenter) containerFor(field formstate.Field) *html.Node {
	if target, ok := p.targets[field.Name]; ok {
		return target
	}
	return p.doc.Parent(field.Node)
}

func (p *Presenter) format(result formstate.Result, failure formstate.CheckResult) string {
	text, err := p.formatter.Format(failure.Message, map[string]any{
		"name":  result.Field.Name,
		"label": humanize(result.Field.Name),
		"kind":  result.Field.Kind,
		"value": result.Value,
		"rule":  failure.RuleType,
	})
	if err != nil {
		p.logger.Debug("message template failed",
			zap.String("field", result.Field.Name),
			zap.Error(err),
		)
		return failure.Message
	}
	return text
}

func (p *Presenter) track(msg Message) {
	for _, existing := range p.attached {
		if existing.Node == msg.Node {
			return
		}
	}
	p.attached = append(p.attached, msg)
}
