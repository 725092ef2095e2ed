package metadata

import (
	"fmt"
	"strings"

	"github.com/toyz/annoscope/internal/errors"
)

// Class is the in-memory implementation of Type and Kind
type Class struct {
	annotated
	name       string
	category   TypeCategory
	superclass *Class
	interfaces []*Class
	enclosing  *Class
	methods    []*Func
	location   errors.SourceLocation
	external   bool

	// annotation kind attributes
	inherited bool
	container *Class
	members   []Member
}

// NewClass creates a type with the given binary name (pkg.Outer$Inner)
func NewClass(name string, category TypeCategory) *Class {
	return &Class{name: name, category: category}
}

// NewKind creates an annotation type
func NewKind(name string) *Class {
	return NewClass(name, AnnotationCategory)
}

// NewExternal creates a placeholder for a type referenced but not declared in
// the loaded sources
func NewExternal(name string, category TypeCategory) *Class {
	c := NewClass(name, category)
	c.external = true
	return c
}

func (c *Class) Name() string                       { return c.name }
func (c *Class) Category() TypeCategory             { return c.category }
func (c *Class) Location() errors.SourceLocation    { return c.location }
func (c *Class) DeclaredAnnotations() []*Annotation { return c.declared() }
func (c *Class) Inherited() bool                    { return c.inherited }

// External reports whether the type is a placeholder outside the loaded sources
func (c *Class) External() bool { return c.external }

// SimpleName returns the name without package and enclosing types
func (c *Class) SimpleName() string { return simpleName(c.name) }

// Package returns the package part of the binary name
func (c *Class) Package() string {
	top := c.name
	if i := strings.Index(top, "$"); i >= 0 {
		top = top[:i]
	}
	if i := strings.LastIndex(top, "."); i >= 0 {
		return top[:i]
	}
	return ""
}

// Superclass returns the superclass or nil
func (c *Class) Superclass() Type {
	if c.superclass == nil {
		return nil
	}
	return c.superclass
}

// Interfaces returns the directly implemented (or extended) interfaces
func (c *Class) Interfaces() []Type {
	out := make([]Type, len(c.interfaces))
	for i, iface := range c.interfaces {
		out[i] = iface
	}
	return out
}

// EnclosingType returns the textually enclosing type or nil
func (c *Class) EnclosingType() Type {
	if c.enclosing == nil {
		return nil
	}
	return c.enclosing
}

// RepeatableContainer returns the container kind or nil
func (c *Class) RepeatableContainer() Kind {
	if c.container == nil {
		return nil
	}
	return c.container
}

// Member returns the annotation member with the given name
func (c *Class) Member(name string) (Member, bool) {
	for _, m := range c.members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Members returns all declared annotation members
func (c *Class) Members() []Member {
	out := make([]Member, len(c.members))
	copy(out, c.members)
	return out
}

// Methods returns the declared methods in declaration order
func (c *Class) Methods() []*Func {
	out := make([]*Func, len(c.methods))
	copy(out, c.methods)
	return out
}

// MethodsNamed returns the overloads with the given simple name
func (c *Class) MethodsNamed(name string) []*Func {
	var out []*Func
	for _, m := range c.methods {
		if m.name == name {
			out = append(out, m)
		}
	}
	return out
}

func (c *Class) SetSuperclass(super *Class)                    { c.superclass = super }
func (c *Class) AddInterface(iface *Class)                     { c.interfaces = append(c.interfaces, iface) }
func (c *Class) SetEnclosing(outer *Class)                     { c.enclosing = outer }
func (c *Class) SetLocation(loc errors.SourceLocation)         { c.location = loc }
func (c *Class) SetInherited(inherited bool)                   { c.inherited = inherited }
func (c *Class) SetRepeatableContainer(container *Class)       { c.container = container }
func (c *Class) AddMember(m Member)                            { c.members = append(c.members, m) }
func (c *Class) SetMembers(members []Member)                   { c.members = append([]Member(nil), members...) }
func (c *Class) Annotate(kind Kind, values Values) *Annotation { return c.annotate(c, kind, values) }

// AnnotateRepeated declares one or more instances of a repeatable kind
func (c *Class) AnnotateRepeated(kind Kind, values ...Values) []*Annotation {
	return c.annotateRepeated(c, kind, values)
}

// AddMethod declares a method on the type
func (c *Class) AddMethod(name string) *Func {
	f := &Func{name: name, owner: c}
	c.methods = append(c.methods, f)
	return f
}

func (c *Class) String() string { return c.name }

// Func is the in-memory implementation of Method
type Func struct {
	annotated
	name     string
	owner    *Class
	params   []*Param
	location errors.SourceLocation
}

// Name returns Type#method(paramTypes)
func (f *Func) Name() string {
	return fmt.Sprintf("%s#%s(%s)", f.owner.name, f.name, strings.Join(f.ParameterTypes(), ", "))
}

// SimpleName returns the bare method name
func (f *Func) SimpleName() string                    { return f.name }
func (f *Func) Location() errors.SourceLocation       { return f.location }
func (f *Func) SetLocation(loc errors.SourceLocation) { f.location = loc }
func (f *Func) DeclaredAnnotations() []*Annotation    { return f.declared() }
func (f *Func) DeclaringType() Type                   { return f.owner }

// Owner returns the declaring class
func (f *Func) Owner() *Class { return f.owner }

// Parameters returns the formal parameters in order
func (f *Func) Parameters() []Parameter {
	out := make([]Parameter, len(f.params))
	for i, p := range f.params {
		out[i] = p
	}
	return out
}

// Params returns the concrete parameters in order
func (f *Func) Params() []*Param {
	out := make([]*Param, len(f.params))
	copy(out, f.params)
	return out
}

// ParameterTypes returns the parameter type names as written
func (f *Func) ParameterTypes() []string {
	out := make([]string, len(f.params))
	for i, p := range f.params {
		out[i] = p.typeName
	}
	return out
}

// AddParameter appends a formal parameter
func (f *Func) AddParameter(typeName, name string) *Param {
	p := &Param{method: f, index: len(f.params), typeName: typeName, name: name}
	f.params = append(f.params, p)
	return p
}

func (f *Func) Annotate(kind Kind, values Values) *Annotation { return f.annotate(f, kind, values) }

// AnnotateRepeated declares one or more instances of a repeatable kind
func (f *Func) AnnotateRepeated(kind Kind, values ...Values) []*Annotation {
	return f.annotateRepeated(f, kind, values)
}

func (f *Func) String() string { return f.Name() }

// Param is the in-memory implementation of Parameter
type Param struct {
	annotated
	method   *Func
	index    int
	typeName string
	name     string
	location errors.SourceLocation
}

// Name returns Type#method(paramTypes)[index]
func (p *Param) Name() string                                  { return fmt.Sprintf("%s[%d]", p.method.Name(), p.index) }
func (p *Param) Index() int                                    { return p.index }
func (p *Param) TypeName() string                              { return p.typeName }
func (p *Param) VarName() string                               { return p.name }
func (p *Param) DeclaringMethod() Method                       { return p.method }
func (p *Param) Location() errors.SourceLocation               { return p.location }
func (p *Param) SetLocation(loc errors.SourceLocation)         { p.location = loc }
func (p *Param) DeclaredAnnotations() []*Annotation            { return p.declared() }
func (p *Param) Annotate(kind Kind, values Values) *Annotation { return p.annotate(p, kind, values) }

// AnnotateRepeated declares one or more instances of a repeatable kind
func (p *Param) AnnotateRepeated(kind Kind, values ...Values) []*Annotation {
	return p.annotateRepeated(p, kind, values)
}

func (p *Param) String() string { return p.Name() }
