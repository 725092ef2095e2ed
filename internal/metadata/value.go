package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind represents the type of an annotation member value
type ValueKind int

const (
	StringValue ValueKind = iota
	IntValue
	BoolValue
	ClassValue
	EnumValue
	AnnotationValue
	ArrayValue
)

// String returns the string representation of the value kind
func (k ValueKind) String() string {
	switch k {
	case StringValue:
		return "string"
	case IntValue:
		return "int"
	case BoolValue:
		return "boolean"
	case ClassValue:
		return "class"
	case EnumValue:
		return "enum"
	case AnnotationValue:
		return "annotation"
	case ArrayValue:
		return "array"
	default:
		return "unknown"
	}
}

// ParseValueKind converts string to ValueKind
func ParseValueKind(s string) (ValueKind, error) {
	switch s {
	case "string", "String":
		return StringValue, nil
	case "int", "long", "short", "byte":
		return IntValue, nil
	case "boolean", "bool":
		return BoolValue, nil
	case "class", "Class":
		return ClassValue, nil
	case "enum":
		return EnumValue, nil
	case "annotation":
		return AnnotationValue, nil
	default:
		return 0, fmt.Errorf("unknown value kind: %s", s)
	}
}

// Value is one annotation member value
type Value struct {
	Kind       ValueKind
	Str        string // string literal, class name or enum constant
	Int        int64
	Bool       bool
	Annotation *Annotation
	Elems      []Value
}

// Values maps member names to values
type Values map[string]Value

// String creates a string value
func String(s string) Value { return Value{Kind: StringValue, Str: s} }

// Int creates an integer value
func Int(i int64) Value { return Value{Kind: IntValue, Int: i} }

// Bool creates a boolean value
func Bool(b bool) Value { return Value{Kind: BoolValue, Bool: b} }

// ClassRef creates a class literal value
func ClassRef(name string) Value { return Value{Kind: ClassValue, Str: name} }

// Enum creates an enum constant value
func Enum(constant string) Value { return Value{Kind: EnumValue, Str: constant} }

// Nested creates a nested annotation value
func Nested(a *Annotation) Value { return Value{Kind: AnnotationValue, Annotation: a} }

// Array creates an array value
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: ArrayValue, Elems: elems}
}

// String renders the value the way it would be written in source
func (v Value) String() string {
	switch v.Kind {
	case StringValue:
		return strconv.Quote(v.Str)
	case IntValue:
		return strconv.FormatInt(v.Int, 10)
	case BoolValue:
		return strconv.FormatBool(v.Bool)
	case ClassValue:
		return simpleName(v.Str) + ".class"
	case EnumValue:
		return v.Str
	case AnnotationValue:
		if v.Annotation == nil {
			return "null"
		}
		return v.Annotation.String()
	case ArrayValue:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "?"
	}
}

// Interface converts the value to plain Go data for serialisation
func (v Value) Interface() interface{} {
	switch v.Kind {
	case StringValue, ClassValue, EnumValue:
		return v.Str
	case IntValue:
		return v.Int
	case BoolValue:
		return v.Bool
	case AnnotationValue:
		if v.Annotation == nil {
			return nil
		}
		out := map[string]interface{}{"kind": v.Annotation.Kind().Name()}
		for name, member := range v.Annotation.Values() {
			out[name] = member.Interface()
		}
		return out
	case ArrayValue:
		out := make([]interface{}, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// MemberType is the declared type of an annotation member
type MemberType struct {
	Kind  ValueKind // component kind
	Array bool
	// Annotation is the component kind when Kind is AnnotationValue
	Annotation Kind
	// TypeName is the type as written, e.g. "String" or "Tag"
	TypeName string
}

// String returns the member type as written in source
func (t MemberType) String() string {
	name := t.TypeName
	if name == "" {
		name = t.Kind.String()
		if t.Kind == AnnotationValue && t.Annotation != nil {
			name = simpleName(t.Annotation.Name())
		}
	}
	if t.Array {
		return name + "[]"
	}
	return name
}

// Member is a declared annotation member (an element of an annotation type)
type Member struct {
	Name    string
	Type    MemberType
	Default *Value
}

func simpleName(name string) string {
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		return name[i+1:]
	}
	return name
}
