// Package metadata models annotated program elements: types, annotation
// kinds, methods, parameters and the annotation instances declared on them.
//
// The search engine only depends on the capability interfaces declared here
// (Element, Type, Kind, Method, Parameter). Class, Func and Param are the
// in-memory implementations produced by the Java and YAML loaders.
package metadata

import (
	"fmt"

	"github.com/toyz/annoscope/internal/errors"
)

// ObjectTypeName is the universal base type; superclass recursion stops here
const ObjectTypeName = "java.lang.Object"

// MetaAnnotationPackage holds the platform meta-annotations (Inherited,
// Repeatable, Retention, ...). Meta-present searches never descend into it.
const MetaAnnotationPackage = "java.lang.annotation."

// TypeCategory represents the category of a declared type
type TypeCategory int

const (
	ClassCategory TypeCategory = iota
	InterfaceCategory
	AnnotationCategory
	EnumCategory
	RecordCategory
)

// String returns the string representation of the type category
func (c TypeCategory) String() string {
	switch c {
	case ClassCategory:
		return "class"
	case InterfaceCategory:
		return "interface"
	case AnnotationCategory:
		return "annotation"
	case EnumCategory:
		return "enum"
	case RecordCategory:
		return "record"
	default:
		return "unknown"
	}
}

// ParseTypeCategory converts string to TypeCategory
func ParseTypeCategory(s string) (TypeCategory, error) {
	switch s {
	case "class", "":
		return ClassCategory, nil
	case "interface":
		return InterfaceCategory, nil
	case "annotation":
		return AnnotationCategory, nil
	case "enum":
		return EnumCategory, nil
	case "record":
		return RecordCategory, nil
	default:
		return 0, fmt.Errorf("unknown type category: %s", s)
	}
}

// Element is anything annotations can be declared on
type Element interface {
	// Name is unique within a model
	Name() string
	DeclaredAnnotations() []*Annotation
	Location() errors.SourceLocation
}

// Type is a class, interface, enum, record or annotation kind.
// Absent relations are returned as nil interfaces.
type Type interface {
	Element
	Category() TypeCategory
	Superclass() Type
	Interfaces() []Type
	EnclosingType() Type
}

// Kind is an annotation type
type Kind interface {
	Type
	// Inherited reports whether instances propagate from a class to its subclasses
	Inherited() bool
	// RepeatableContainer returns the container kind aggregating repeated
	// instances of this kind, or nil when the kind is not repeatable
	RepeatableContainer() Kind
	// Member returns the declared annotation member with the given name
	Member(name string) (Member, bool)
}

// Method is a method declared by a type
type Method interface {
	Element
	DeclaringType() Type
	Parameters() []Parameter
}

// Parameter is a formal parameter of a method
type Parameter interface {
	Element
	// Index is the 0-based position in the parameter list
	Index() int
	TypeName() string
	DeclaringMethod() Method
}

// IsUniversalBase reports whether t is the universal base type
func IsUniversalBase(t Type) bool {
	return t != nil && t.Name() == ObjectTypeName
}

// AsKind returns t as a Kind when it is an annotation type
func AsKind(t Type) (Kind, bool) {
	if t == nil || t.Category() != AnnotationCategory {
		return nil, false
	}
	k, ok := t.(Kind)
	return k, ok
}

// IsMetaAnnotationKind reports whether k belongs to the platform
// meta-annotation package
func IsMetaAnnotationKind(k Kind) bool {
	name := k.Name()
	return len(name) > len(MetaAnnotationPackage) && name[:len(MetaAnnotationPackage)] == MetaAnnotationPackage
}

// SameKind compares two kinds by name; nil never matches
func SameKind(a, b Kind) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Name() == b.Name()
}
