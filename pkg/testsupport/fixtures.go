// Package testsupport holds fixture and golden-file helpers shared by the
// package tests and the command tests.
package testsupport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/ruleset"
)

// LoadPage parses an HTML fixture.
func LoadPage(t *testing.T, path string) *dom.HTMLDocument {
	t.Helper()

	doc, err := LoadPageFromPath(path)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	return doc
}

// LoadPageFromPath parses an HTML fixture without requiring testing.T.
func LoadPageFromPath(path string) (*dom.HTMLDocument, error) {
	if path == "" {
		return nil, errors.New("testsupport: page path is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: open page: %w", err)
	}
	defer file.Close()
	return dom.Parse(file)
}

// ParsePage parses inline markup.
func ParsePage(t *testing.T, markup string) *dom.HTMLDocument {
	t.Helper()

	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

// LoadRuleset reads a rule file fixture.
func LoadRuleset(t *testing.T, path string) *ruleset.Ruleset {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ruleset: %v", err)
	}
	rs, err := ruleset.Parse(data, filepath.Base(path))
	if err != nil {
		t.Fatalf("parse ruleset: %v", err)
	}
	return rs
}

// SetValues writes values into the named controls of doc.
func SetValues(t *testing.T, doc *dom.HTMLDocument, values map[string]string) {
	t.Helper()

	for name, value := range values {
		node, err := doc.Query(fmt.Sprintf("[name=%q]", name))
		if err != nil {
			t.Fatalf("set value %s: %v", name, err)
		}
		doc.SetValue(node, value)
	}
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// CompareJSONGolden marshals got, compares it with the golden file at path
// and returns a diff. With UPDATE_GOLDENS set the golden is rewritten first.
func CompareJSONGolden(t *testing.T, path string, got any) string {
	t.Helper()

	WriteGolden(t, path, got)
	payload, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("marshal value: %v", err)
	}
	want := MustReadGolden(t, path)
	return cmp.Diff(string(bytes.TrimSpace(want)), string(bytes.TrimSpace(payload)))
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}
