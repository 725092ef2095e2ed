package search

import "github.com/toyz/annoscope/internal/metadata"

// Context is the element a search starts from: an optional test method and
// the class owning it. Enclosing scopes are reached through the class.
type Context interface {
	// TestMethod returns the method under search, nil for class-level contexts
	TestMethod() metadata.Method
	// TestClass returns the class under search, nil when there is none
	TestClass() metadata.Type
}

type elementContext struct {
	method metadata.Method
	class  metadata.Type
}

func (c elementContext) TestMethod() metadata.Method { return c.method }
func (c elementContext) TestClass() metadata.Type    { return c.class }

// ForMethod creates a context for a method and its declaring type
func ForMethod(method metadata.Method) Context {
	if method == nil {
		return elementContext{}
	}
	return elementContext{method: method, class: method.DeclaringType()}
}

// ForClass creates a class-level context without a method
func ForClass(class metadata.Type) Context {
	return elementContext{class: class}
}
