// Package source reads the page and rule set named by a config.Source. Pages
// and OpenAPI documents may live on disk or behind an http(s) URL; rule files
// are local, either a single file or a directory that is merged.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-formvalidator/internal/config"
	"github.com/goliatone/go-formvalidator/pkg/ruleset"
)

const defaultTimeout = 30 * time.Second

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for http(s) locations.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// Loader resolves locations into bytes and rule sets.
type Loader struct {
	client *http.Client
}

// New returns a Loader. HTTP requests time out after 30s unless a client
// is supplied.
func New(options ...Option) *Loader {
	l := &Loader{client: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Bundle is a page together with the rules that validate it.
type Bundle struct {
	Page  []byte
	Rules *ruleset.Ruleset
}

// Load reads the page and rule set described by src. Form and policy
// overrides in src replace the ones from the rule set.
func (l *Loader) Load(ctx context.Context, src config.Source) (Bundle, error) {
	page, err := l.Read(ctx, src.HTML)
	if err != nil {
		return Bundle{}, err
	}

	var rules *ruleset.Ruleset
	switch {
	case src.OpenAPI != "":
		raw, err := l.Read(ctx, src.OpenAPI)
		if err != nil {
			return Bundle{}, err
		}
		if rules, err = ruleset.FromOpenAPI(ctx, raw, src.Operation); err != nil {
			return Bundle{}, err
		}
	default:
		if rules, err = LoadRules(src.Ruleset); err != nil {
			return Bundle{}, err
		}
	}

	if form := strings.TrimSpace(src.Form); form != "" {
		rules.Form = form
	}
	if policy := strings.TrimSpace(src.Policy); policy != "" {
		rules.Policy = policy
	}
	return Bundle{Page: page, Rules: rules}, nil
}

// Read returns the content at location, fetching http(s) URLs with the
// loader's client.
func (l *Loader) Read(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("source: empty location")
	}
	if !isURL(location) {
		data, err := os.ReadFile(filepath.Clean(location))
		if err != nil {
			return nil, fmt.Errorf("source: read %s: %w", location, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("source: request %s: %w", location, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: fetch %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source: fetch %s: unexpected status %s", location, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: read body %s: %w", location, err)
	}
	return data, nil
}

// LoadRules loads a rule file, or merges every rule file below a directory.
func LoadRules(path string) (*ruleset.Ruleset, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source: rules %s: %w", path, err)
	}
	if info.IsDir() {
		return ruleset.LoadFS(os.DirFS(path))
	}
	return ruleset.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
