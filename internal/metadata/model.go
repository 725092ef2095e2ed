package metadata

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/toyz/annoscope/internal/errors"
)

// Model is a registry of types by binary name. Loaders populate it; once it is
// handed to the search engine it is treated as immutable.
type Model struct {
	mu    sync.RWMutex      // Protects concurrent access
	types map[string]*Class // Types by binary name
	order []string          // Registration order
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{
		types: make(map[string]*Class),
	}
}

// Register adds a type to the model
func (m *Model) Register(c *Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c == nil || c.name == "" {
		return errors.New(errors.ValidationErrorCode, "type name cannot be empty")
	}

	// Check if already registered
	if _, exists := m.types[c.name]; exists {
		return errors.Newf(errors.ValidationErrorCode, "type %s is already registered", c.name).
			WithLocation(c.location).
			WithContext("type", c.name)
	}

	if c.category == AnnotationCategory {
		if err := validateMembers(c); err != nil {
			return errors.Wrapf(errors.ValidationErrorCode, err, "invalid annotation kind %s", c.name).
				WithLocation(c.location)
		}
	}

	m.types[c.name] = c
	m.order = append(m.order, c.name)
	return nil
}

// MustRegister registers the type and panics on failure; for building fixtures
func (m *Model) MustRegister(c *Class) *Class {
	if err := m.Register(c); err != nil {
		panic(err)
	}
	return c
}

// Define returns the registered type with the given name, creating and
// registering it with category when missing
func (m *Model) Define(name string, category TypeCategory) *Class {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.types[name]; ok {
		return c
	}
	c := NewClass(name, category)
	m.types[name] = c
	m.order = append(m.order, name)
	return c
}

// Lookup returns the type registered under the exact binary name
func (m *Model) Lookup(name string) (*Class, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.types[name]
	return c, ok
}

// LookupKind returns the annotation kind registered under the exact name
func (m *Model) LookupKind(name string) (*Class, bool) {
	c, ok := m.Lookup(name)
	if !ok || c.category != AnnotationCategory {
		return nil, false
	}
	return c, true
}

// Len returns the number of registered types
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.types)
}

// Types returns all registered types sorted by name
func (m *Model) Types() []*Class {
	return m.collect(func(*Class) bool { return true })
}

// Kinds returns all registered annotation kinds sorted by name
func (m *Model) Kinds() []*Class {
	return m.collect(func(c *Class) bool { return c.category == AnnotationCategory })
}

func (m *Model) collect(keep func(*Class) bool) []*Class {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Class, 0, len(m.types))
	for _, c := range m.types {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ResolveType finds a type by exact binary name, by simple name or by a
// qualified suffix. Nested types may be written with '.' or '$'.
func (m *Model) ResolveType(name string) (*Class, error) {
	return m.resolve("type", name, func(*Class) bool { return true })
}

// ResolveKind is ResolveType restricted to annotation kinds
func (m *Model) ResolveKind(name string) (*Class, error) {
	return m.resolve("annotation kind", name, func(c *Class) bool { return c.category == AnnotationCategory })
}

func (m *Model) resolve(what, name string, keep func(*Class) bool) (*Class, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if name == "" {
		return nil, errors.Newf(errors.ResolutionErrorCode, "%s name cannot be empty", what)
	}
	if c, ok := m.Lookup(name); ok && keep(c) {
		return c, nil
	}

	var candidates []*Class
	for _, c := range m.collect(keep) {
		if MatchesTypeName(c.name, name) {
			candidates = append(candidates, c)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, errors.Unresolved(what, name)
	case 1:
		return candidates[0], nil
	default:
		// Declared types win over external placeholders of the same name
		var declared []*Class
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.name
			if !c.external {
				declared = append(declared, c)
			}
		}
		if len(declared) == 1 {
			return declared[0], nil
		}
		return nil, errors.Ambiguous(what, name, names)
	}
}

// MatchesTypeName reports whether the written name refers to the binary name:
// an exact match, a simple name or a qualified suffix
func MatchesTypeName(binaryName, written string) bool {
	full := strings.ReplaceAll(binaryName, "$", ".")
	written = strings.ReplaceAll(written, "$", ".")
	return full == written || strings.HasSuffix(full, "."+written)
}

// validateMembers performs basic validation on annotation members
func validateMembers(c *Class) error {
	seen := make(map[string]bool, len(c.members))
	for _, member := range c.members {
		if member.Name == "" {
			return fmt.Errorf("member name cannot be empty")
		}
		if seen[member.Name] {
			return fmt.Errorf("member %s is declared twice", member.Name)
		}
		seen[member.Name] = true

		if member.Default != nil {
			if err := validateDefault(member); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateDefault checks if the default value matches the member type
func validateDefault(member Member) error {
	def := *member.Default
	if member.Type.Array {
		if def.Kind != ArrayValue {
			return fmt.Errorf("default value for array member %s must be an array, got %s", member.Name, def.Kind)
		}
		for _, elem := range def.Elems {
			if elem.Kind != member.Type.Kind {
				return fmt.Errorf("default value for member %s must hold %s elements, got %s",
					member.Name, member.Type.Kind, elem.Kind)
			}
		}
		return nil
	}
	if def.Kind != member.Type.Kind {
		return fmt.Errorf("default value for %s member %s must be %s, got %s",
			member.Type, member.Name, member.Type.Kind, def.Kind)
	}
	return nil
}
