package errormsg

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/flosch/pongo2/v6"
)

// Formatter renders messages that carry pongo2 markup such as
// "{{ label }} is required". Plain messages are returned untouched.
type Formatter struct {
	mu        sync.RWMutex
	templates map[string]*pongo2.Template
}

// NewFormatter returns a formatter with an empty template cache.
func NewFormatter() *Formatter {
	registerDefaultFilters()
	return &Formatter{templates: make(map[string]*pongo2.Template)}
}

// Format renders message against data.
func (f *Formatter) Format(message string, data map[string]any) (string, error) {
	if !isTemplateContent(message) {
		return message, nil
	}
	tpl, err := f.template(message)
	if err != nil {
		return "", err
	}
	ctx := make(pongo2.Context, len(data))
	for key, value := range data {
		ctx[key] = value
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("errormsg: execute message template: %w", err)
	}
	return out, nil
}

func (f *Formatter) template(message string) (*pongo2.Template, error) {
	f.mu.RLock()
	tpl, ok := f.templates[message]
	f.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if tpl, ok := f.templates[message]; ok {
		return tpl, nil
	}
	// Messages end up in text nodes that the renderer escapes.
	tpl, err := pongo2.FromString("{% autoescape off %}" + message + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("errormsg: parse message template: %w", err)
	}
	f.templates[message] = tpl
	return tpl, nil
}

func isTemplateContent(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

var registerFilters sync.Once

func registerDefaultFilters() {
	registerFilters.Do(func() {
		if !pongo2.FilterExists("humanize") {
			_ = pongo2.RegisterFilter("humanize", filterHumanize)
		}
	})
}

func filterHumanize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(humanize(in.String())), nil
}

// humanize turns field names such as "first_name" or "firstName" into
// "First name".
func humanize(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '_' || r == '-' || r == '.' || r == '[' || r == ']':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
				b.WriteByte(' ')
			}
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return ""
	}
	runes := []rune(out)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
