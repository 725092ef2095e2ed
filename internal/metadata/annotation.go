package metadata

import (
	"sort"
	"strings"

	"github.com/toyz/annoscope/internal/errors"
)

// Identity identifies one declared annotation instance. Two lookups reaching
// the same declaration yield equal identities.
type Identity struct {
	Kind     string
	Declarer string
	Ordinal  int
}

// Annotation is one concrete occurrence of a kind on an element
type Annotation struct {
	kind     Kind
	declarer Element
	ordinal  int
	values   Values
	location errors.SourceLocation
}

type ordinalSource interface {
	allocOrdinal() int
}

// NewAnnotation creates an annotation instance of kind declared on declarer.
// It is not attached to the declarer; use the declarer's Annotate methods for
// that. Nested instances held by a container are created this way.
func NewAnnotation(kind Kind, declarer Element, values Values) *Annotation {
	ordinal := 0
	if src, ok := declarer.(ordinalSource); ok {
		ordinal = src.allocOrdinal()
	}
	copied := make(Values, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Annotation{
		kind:     kind,
		declarer: declarer,
		ordinal:  ordinal,
		values:   copied,
	}
}

// Kind returns the annotation kind
func (a *Annotation) Kind() Kind { return a.kind }

// Declarer returns the element the annotation is declared on
func (a *Annotation) Declarer() Element { return a.declarer }

// Location returns where the annotation is written
func (a *Annotation) Location() errors.SourceLocation { return a.location }

// SetLocation records where the annotation is written
func (a *Annotation) SetLocation(loc errors.SourceLocation) { a.location = loc }

// Identity returns the declaration identity used for deduplication
func (a *Annotation) Identity() Identity {
	declarer := ""
	if a.declarer != nil {
		declarer = a.declarer.Name()
	}
	return Identity{Kind: a.kind.Name(), Declarer: declarer, Ordinal: a.ordinal}
}

// Value returns the explicit value of a member, falling back to the member's
// declared default
func (a *Annotation) Value(name string) (Value, error) {
	if v, ok := a.values[name]; ok {
		return v, nil
	}
	if m, ok := a.kind.Member(name); ok && m.Default != nil {
		return *m.Default, nil
	}
	return Value{}, errors.Newf(errors.ValidationErrorCode,
		"annotation @%s has no value for member '%s'", simpleName(a.kind.Name()), name).
		WithContext("kind", a.kind.Name()).
		WithContext("member", name)
}

// Values returns a copy of the explicitly written values
func (a *Annotation) Values() Values {
	out := make(Values, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// String renders the annotation as written in source
func (a *Annotation) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(simpleName(a.kind.Name()))
	if len(a.values) == 0 {
		return b.String()
	}
	b.WriteString("(")
	if v, ok := a.values["value"]; ok && len(a.values) == 1 {
		b.WriteString(v.String())
	} else {
		names := make([]string, 0, len(a.values))
		for name := range a.values {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			b.WriteString("=")
			b.WriteString(a.values[name].String())
		}
	}
	b.WriteString(")")
	return b.String()
}

// annotated holds the declared annotations of a concrete element
type annotated struct {
	annotations []*Annotation
	nextOrdinal int
}

func (a *annotated) allocOrdinal() int {
	a.nextOrdinal++
	return a.nextOrdinal
}

func (a *annotated) declared() []*Annotation {
	out := make([]*Annotation, len(a.annotations))
	copy(out, a.annotations)
	return out
}

func (a *annotated) annotate(self Element, kind Kind, values Values) *Annotation {
	ann := NewAnnotation(kind, self, values)
	a.annotations = append(a.annotations, ann)
	return ann
}

// annotateRepeated declares instances the way a compiler stores repeated
// annotations: a single use is declared directly, several uses of a
// repeatable kind are wrapped into one container instance
func (a *annotated) annotateRepeated(self Element, kind Kind, values []Values) []*Annotation {
	container := kind.RepeatableContainer()
	if len(values) <= 1 || container == nil {
		out := make([]*Annotation, 0, len(values))
		for _, v := range values {
			out = append(out, a.annotate(self, kind, v))
		}
		return out
	}

	holder := a.annotate(self, container, nil)
	nested := make([]*Annotation, 0, len(values))
	elems := make([]Value, 0, len(values))
	for _, v := range values {
		ann := NewAnnotation(kind, self, v)
		nested = append(nested, ann)
		elems = append(elems, Nested(ann))
	}
	holder.values["value"] = Array(elems...)
	return nested
}
