package errormsg

import (
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Theme token keys read by TemplateFromTheme.
const (
	TokenTag        = "error-msg.tag"
	TokenClass      = "error-msg.class"
	TokenStyle      = "error-msg.style"
	TokenAttrPrefix = "error-msg.attr."
)

// Template describes the element cloned for every message.
type Template struct {
	Tag   string
	Attrs map[string]string
	Style string
}

// DefaultTemplate is a span carrying the error-msg class.
func DefaultTemplate() Template {
	return Template{
		Tag:   "span",
		Attrs: map[string]string{"class": "error-msg"},
	}
}

// TemplateFromTheme resolves a message template from go-theme tokens. Variant
// tokens override manifest tokens; missing tokens fall back to
// DefaultTemplate.
func TemplateFromTheme(selector theme.ThemeSelector, name, variant string) (Template, error) {
	if selector == nil {
		return Template{}, errors.New("errormsg: theme selector is nil")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return Template{}, fmt.Errorf("errormsg: select theme %q: %w", name, err)
	}
	return templateFromTokens(selectionTokens(selection)), nil
}

func selectionTokens(selection *theme.Selection) map[string]string {
	tokens := make(map[string]string)
	if selection == nil || selection.Manifest == nil {
		return tokens
	}
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if selection.Variant == "" {
		return tokens
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}
	return tokens
}

func templateFromTokens(tokens map[string]string) Template {
	tpl := DefaultTemplate()
	if tag := strings.TrimSpace(tokens[TokenTag]); tag != "" {
		tpl.Tag = tag
	}
	if class := strings.TrimSpace(tokens[TokenClass]); class != "" {
		tpl.Attrs["class"] = class
	}
	tpl.Style = strings.TrimSpace(tokens[TokenStyle])
	for key, value := range tokens {
		if !strings.HasPrefix(key, TokenAttrPrefix) {
			continue
		}
		attr := strings.TrimSpace(strings.TrimPrefix(key, TokenAttrPrefix))
		if attr == "" {
			continue
		}
		tpl.Attrs[attr] = value
	}
	return tpl
}
