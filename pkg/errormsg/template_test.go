package errormsg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"
)

type selectorCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     []selectorCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, selectorCall{name: name, variant: variant})
	return s.selection, s.err
}

func acmeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			TokenTag:                 "small",
			TokenClass:               "acme-error",
			TokenAttrPrefix + "role": "alert",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					TokenClass: "acme-error acme-error--dark",
					TokenStyle: "color: #f88",
				},
			},
		},
	}
}

func TestTemplateFromTheme_MergesVariantTokens(t *testing.T) {
	selector := &stubThemeSelector{selection: &theme.Selection{
		Theme:    "acme",
		Variant:  "dark",
		Manifest: acmeManifest(),
	}}

	got, err := TemplateFromTheme(selector, "acme", "dark")
	if err != nil {
		t.Fatalf("template from theme: %v", err)
	}
	want := Template{
		Tag:   "small",
		Attrs: map[string]string{"class": "acme-error acme-error--dark", "role": "alert"},
		Style: "color: #f88",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]selectorCall{{name: "acme", variant: "dark"}}, selector.calls, cmp.AllowUnexported(selectorCall{})); diff != "" {
		t.Fatalf("selector calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateFromTheme_FallsBackToDefault(t *testing.T) {
	selector := &stubThemeSelector{selection: &theme.Selection{
		Theme:    "plain",
		Manifest: &theme.Manifest{Name: "plain", Version: "1.0.0"},
	}}

	got, err := TemplateFromTheme(selector, "plain", "")
	if err != nil {
		t.Fatalf("template from theme: %v", err)
	}
	if diff := cmp.Diff(DefaultTemplate(), got); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateFromTheme_Errors(t *testing.T) {
	if _, err := TemplateFromTheme(nil, "acme", ""); err == nil {
		t.Fatalf("expected error for nil selector")
	}

	boom := errors.New("unknown theme")
	selector := &stubThemeSelector{err: boom}
	if _, err := TemplateFromTheme(selector, "missing", ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped selector error, got %v", err)
	}
}
