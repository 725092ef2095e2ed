// Package selector addresses a test class or test method, optionally nested
// inside enclosing classes, and resolves it to a search context.
package selector

import (
	"strings"
)

// Selector is an immutable address of a class or method. Enclosing classes
// are ordered outermost first.
type Selector struct {
	enclosing      []string
	class          string
	method         string
	parameterTypes string
	hasParameters  bool
}

// ForClass selects a top-level class
func ForClass(class string) Selector {
	return Selector{class: class}
}

// ForNestedClass selects a class nested in the given enclosing classes
func ForNestedClass(enclosing []string, class string) Selector {
	return Selector{enclosing: copyNames(enclosing), class: class}
}

// ForMethod selects a method by name
func ForMethod(class, method string) Selector {
	return Selector{class: class, method: method}
}

// ForNestedMethod selects a method of a nested class
func ForNestedMethod(enclosing []string, class, method string) Selector {
	return Selector{enclosing: copyNames(enclosing), class: class, method: method}
}

// ForMethodWithParameters selects an overload by its comma separated
// parameter type names
func ForMethodWithParameters(class, method, parameterTypes string) Selector {
	return Selector{class: class, method: method, parameterTypes: parameterTypes, hasParameters: true}
}

// ForNestedMethodWithParameters selects an overload of a nested class method
func ForNestedMethodWithParameters(enclosing []string, class, method, parameterTypes string) Selector {
	return Selector{
		enclosing:      copyNames(enclosing),
		class:          class,
		method:         method,
		parameterTypes: parameterTypes,
		hasParameters:  true,
	}
}

// EnclosingClasses returns the enclosing class names, outermost first
func (s Selector) EnclosingClasses() []string { return copyNames(s.enclosing) }

func (s Selector) ClassName() string            { return s.class }
func (s Selector) MethodName() string           { return s.method }
func (s Selector) MethodParameterTypes() string { return s.parameterTypes }
func (s Selector) HasParameterTypes() bool      { return s.hasParameters }
func (s Selector) IsMethod() bool               { return s.method != "" }
func (s Selector) IsNested() bool               { return len(s.enclosing) > 0 }

// ParameterTypeNames splits the parameter type signature
func (s Selector) ParameterTypeNames() []string {
	if strings.TrimSpace(s.parameterTypes) == "" {
		return nil
	}
	parts := strings.Split(s.parameterTypes, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// String returns the textual form accepted by Parse
func (s Selector) String() string {
	var b strings.Builder
	for _, outer := range s.enclosing {
		b.WriteString(outer)
		b.WriteString("/")
	}
	b.WriteString(s.class)
	if s.method != "" {
		b.WriteString("#")
		b.WriteString(s.method)
		if s.hasParameters {
			b.WriteString("(")
			b.WriteString(strings.Join(s.ParameterTypeNames(), ", "))
			b.WriteString(")")
		}
	}
	return b.String()
}

func copyNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}
