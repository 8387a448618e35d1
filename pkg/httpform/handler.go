// Package httpform serves an HTML form over HTTP and validates submissions
// against a rule set. Every request works on its own parsed copy of the page;
// only the page bytes and the rule set are shared.
package httpform

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	formvalidator "github.com/goliatone/go-formvalidator"
	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/ruleset"
)

const maxMemory = 8 << 20

// SuccessFunc handles a valid submission. When it is nil the page is
// re-rendered with status 200.
type SuccessFunc func(w http.ResponseWriter, r *http.Request, values url.Values)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithOnSuccess sets the handler invoked for valid submissions.
func WithOnSuccess(fn SuccessFunc) Option {
	return func(h *Handler) {
		h.onSuccess = fn
	}
}

// WithValidatorOptions forwards options to every per-request validator.
func WithValidatorOptions(options ...formvalidator.Option) Option {
	return func(h *Handler) {
		h.validatorOptions = append(h.validatorOptions, options...)
	}
}

// Handler renders the form on GET and validates it on POST.
type Handler struct {
	page             []byte
	rules            *ruleset.Ruleset
	validatorOptions []formvalidator.Option
	onSuccess        SuccessFunc
	logger           *zap.Logger
}

// New checks that the page parses and that the rule set applies to it.
func New(page []byte, rules *ruleset.Ruleset, options ...Option) (*Handler, error) {
	if len(bytes.TrimSpace(page)) == 0 {
		return nil, errors.New("httpform: page is empty")
	}
	if rules == nil {
		return nil, errors.New("httpform: rule set is required")
	}
	h := &Handler{
		page:   append([]byte(nil), page...),
		rules:  rules,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}

	doc, err := dom.Parse(bytes.NewReader(h.page))
	if err != nil {
		return nil, err
	}
	if _, err := formvalidator.New(doc, nil, h.validatorOptionsFor()...); err != nil {
		return nil, err
	}
	return h, nil
}

// Mount registers the form routes on r at pattern.
func (h *Handler) Mount(r chi.Router, pattern string) {
	r.Get(pattern, h.Show)
	r.Post(pattern, h.Submit)
}

// Routes returns a router serving the form at "/".
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	h.Mount(r, "/")
	return r
}

// Show writes the page unchanged.
func (h *Handler) Show(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.page)
}

// Submit fills the page with the posted values, validates it and answers
// 422 with the messages attached when the form is invalid.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}

	doc, err := dom.Parse(bytes.NewReader(h.page))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := formvalidator.New(doc, nil, h.validatorOptionsFor()...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Fill(doc, v.Registry().Form(), r.PostForm)

	report, err := v.Display()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Debug("form submitted",
		zap.String("path", r.URL.Path),
		zap.Bool("valid", report.Valid),
	)

	if report.Valid && h.onSuccess != nil {
		h.onSuccess(w, r, r.PostForm)
		return
	}

	status := http.StatusOK
	if !report.Valid {
		status = http.StatusUnprocessableEntity
	}
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
		return
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) validatorOptionsFor() []formvalidator.Option {
	options := []formvalidator.Option{
		formvalidator.WithRuleset(h.rules),
		formvalidator.WithLogger(h.logger),
	}
	return append(options, h.validatorOptions...)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("form validation failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
