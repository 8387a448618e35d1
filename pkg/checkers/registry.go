// Package checkers provides named, parameterised checker factories such as
// "required", "min:3" or "in:a,b,c". Rule sets refer to them by spec string
// and the registry turns each spec into a formstate.Rule.
package checkers

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formvalidator/pkg/formerrors"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

// ParamPlaceholder is replaced by the spec parameter in definition messages.
const ParamPlaceholder = ":param"

// Factory builds a checker from the parameter part of a spec.
type Factory func(param string) (formstate.Checker, error)

// Definition describes one named checker.
type Definition struct {
	Name string
	// Message is the default failure message. It may use pongo2 markup and
	// the ":param" placeholder.
	Message string
	// NeedsParam rejects specs without a parameter.
	NeedsParam bool
	New        Factory
	// Display formats the parameter for messages. Nil joins list items
	// with ", ".
	Display func(param string) string
}

// Registry stores checker definitions by name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// Default returns a registry preloaded with the built-in checkers.
func Default() *Registry {
	r := NewRegistry()
	for _, def := range Builtins() {
		r.MustRegister(def)
	}
	return r
}

// Register adds def. Duplicate names return an error.
func (r *Registry) Register(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return formerrors.InvalidArgument("checkers.register", "", "definition name is required")
	}
	if def.New == nil {
		return formerrors.InvalidArgument("checkers.register", name, "factory is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[name]; exists {
		return formerrors.InvalidArgument("checkers.register", name, "checker already registered")
	}
	def.Name = name
	r.definitions[name] = def
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get retrieves a definition by name.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[name]
	if !ok {
		return Definition{}, formerrors.NotFound("checkers.get", name, "checker not registered")
	}
	return def, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.definitions[name]
	return ok
}

// List returns the registered names sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build parses spec ("name" or "name:param") and returns the rule it
// describes. An empty message falls back to the definition's message.
func (r *Registry) Build(spec, message string) (formstate.Rule, error) {
	name, param, hasParam := strings.Cut(strings.TrimSpace(spec), ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return formstate.Rule{}, formerrors.InvalidArgument("checkers.build", spec, "checker name is required")
	}
	def, err := r.Get(name)
	if err != nil {
		return formstate.Rule{}, err
	}
	if def.NeedsParam && (!hasParam || param == "") {
		return formstate.Rule{}, formerrors.InvalidArgument("checkers.build", spec, "checker %q needs a parameter", name)
	}

	checker, err := def.New(param)
	if err != nil {
		return formstate.Rule{}, formerrors.Wrap("checkers.build", spec, err)
	}
	if checker == nil {
		return formstate.Rule{}, formerrors.InvalidArgument("checkers.build", spec, "factory returned no checker")
	}

	if message == "" {
		message = def.Message
	}
	display := displayParam
	if def.Display != nil {
		display = def.Display
	}
	return formstate.Rule{
		Checker: checker,
		Message: strings.ReplaceAll(message, ParamPlaceholder, display(param)),
	}, nil
}

func displayParam(param string) string {
	parts := splitList(param)
	if len(parts) < 2 {
		return strings.TrimSpace(param)
	}
	return strings.Join(parts, ", ")
}

func splitList(param string) []string {
	raw := strings.Split(param, ",")
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func paramError(name, param string, err error) error {
	return formerrors.InvalidArgument("checkers."+name, param, "invalid parameter: %v", err)
}
