package search

import (
	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

// resultSet is an insertion-ordered set of annotations keyed by declaration
// identity
type resultSet struct {
	seen  map[metadata.Identity]bool
	items []*metadata.Annotation
}

func newResultSet() *resultSet {
	return &resultSet{seen: make(map[metadata.Identity]bool)}
}

func (r *resultSet) add(annotations ...*metadata.Annotation) {
	for _, a := range annotations {
		id := a.Identity()
		if r.seen[id] {
			continue
		}
		r.seen[id] = true
		r.items = append(r.items, a)
	}
}

// union concatenates the sequences dropping repeated declarations
func union(sequences ...[]*metadata.Annotation) []*metadata.Annotation {
	set := newResultSet()
	for _, s := range sequences {
		set.add(s...)
	}
	return set.items
}

// visitedSet tracks annotations already expanded during a meta search
type visitedSet map[metadata.Identity]bool

// visit marks a and reports whether it was unvisited
func (v visitedSet) visit(a *metadata.Annotation) bool {
	id := a.Identity()
	if v[id] {
		return false
	}
	v[id] = true
	return true
}

// searchable reports whether meta searches may descend into the annotation's
// kind
func searchable(a *metadata.Annotation) bool {
	return !metadata.IsMetaAnnotationKind(a.Kind())
}

// superclasses walks the superclass chain of t, stopping before the universal
// base type
func superclasses(t metadata.Type, visit func(metadata.Type) bool) {
	for super := t.Superclass(); super != nil && !metadata.IsUniversalBase(super); super = super.Superclass() {
		if !visit(super) {
			return
		}
	}
}

// presentAnnotations returns the annotations present on el: the declared ones
// and, for types, instances of inherited kinds declared on a superclass and
// not overridden by a subclass
func presentAnnotations(el metadata.Element) []*metadata.Annotation {
	declared := el.DeclaredAnnotations()
	t, ok := el.(metadata.Type)
	if !ok {
		return declared
	}

	present := append([]*metadata.Annotation(nil), declared...)
	kinds := make(map[string]bool, len(declared))
	for _, a := range declared {
		kinds[a.Kind().Name()] = true
	}
	superclasses(t, func(super metadata.Type) bool {
		var added []string
		for _, a := range super.DeclaredAnnotations() {
			name := a.Kind().Name()
			if a.Kind().Inherited() && !kinds[name] {
				present = append(present, a)
				added = append(added, name)
			}
		}
		for _, name := range added {
			kinds[name] = true
		}
		return true
	})
	return present
}

// declaredOfKind returns the first annotation of kind declared directly on el
func declaredOfKind(el metadata.Element, kind metadata.Kind) *metadata.Annotation {
	for _, a := range el.DeclaredAnnotations() {
		if metadata.SameKind(a.Kind(), kind) {
			return a
		}
	}
	return nil
}

// findAnnotation finds the first instance of kind that is directly present or
// meta-present on a directly present annotation. Inherited kinds are also
// looked up on superclasses and on the annotations types inherit.
func findAnnotation(el metadata.Element, kind metadata.Kind) *metadata.Annotation {
	if el == nil || kind == nil {
		return nil
	}
	return findAnnotationVisited(el, kind, visitedSet{})
}

func findAnnotationVisited(el metadata.Element, kind metadata.Kind, visited visitedSet) *metadata.Annotation {
	if a := declaredOfKind(el, kind); a != nil {
		return a
	}
	if a := findMetaAnnotation(el.DeclaredAnnotations(), kind, visited); a != nil {
		return a
	}

	t, isType := el.(metadata.Type)
	if !isType {
		return nil
	}
	if !kind.Inherited() {
		return nil
	}
	var inherited *metadata.Annotation
	superclasses(t, func(super metadata.Type) bool {
		inherited = declaredOfKind(super, kind)
		return inherited == nil
	})
	if inherited != nil {
		return inherited
	}
	return findMetaAnnotation(presentAnnotations(t), kind, visited)
}

func findMetaAnnotation(candidates []*metadata.Annotation, kind metadata.Kind, visited visitedSet) *metadata.Annotation {
	for _, candidate := range candidates {
		if !searchable(candidate) || !visited.visit(candidate) {
			continue
		}
		if a := findAnnotationVisited(candidate.Kind(), kind, visited); a != nil {
			return a
		}
	}
	return nil
}

// findRepeatableAnnotations collects every instance of a repeatable kind that
// is present, indirectly present or meta-present on el. On types, superclass
// instances come first when the container kind is inherited, then instances
// found through interfaces, then the element's own.
func findRepeatableAnnotations(el metadata.Element, kind metadata.Kind) ([]*metadata.Annotation, error) {
	if kind == nil {
		return nil, nil
	}
	container := kind.RepeatableContainer()
	if container == nil {
		return nil, errors.NotRepeatable(kind.Name())
	}
	if el == nil {
		return nil, nil
	}

	r := &repeatableSearch{
		kind:      kind,
		container: container,
		inherited: container.Inherited(),
		found:     newResultSet(),
		visited:   visitedSet{},
	}
	if err := r.element(el); err != nil {
		return nil, err
	}
	return r.found.items, nil
}

type repeatableSearch struct {
	kind      metadata.Kind
	container metadata.Kind
	inherited bool
	found     *resultSet
	visited   visitedSet
}

func (r *repeatableSearch) element(el metadata.Element) error {
	if t, ok := el.(metadata.Type); ok {
		if r.inherited {
			if super := t.Superclass(); super != nil && !metadata.IsUniversalBase(super) {
				if err := r.element(super); err != nil {
					return err
				}
			}
		}
		for _, iface := range t.Interfaces() {
			if err := r.element(iface); err != nil {
				return err
			}
		}
	}
	if err := r.candidates(el.DeclaredAnnotations()); err != nil {
		return err
	}
	return r.candidates(presentAnnotations(el))
}

func (r *repeatableSearch) candidates(candidates []*metadata.Annotation) error {
	for _, candidate := range candidates {
		if !searchable(candidate) || !r.visited.visit(candidate) {
			continue
		}
		switch {
		case metadata.SameKind(candidate.Kind(), r.kind):
			r.found.add(candidate)
		case metadata.SameKind(candidate.Kind(), r.container):
			held, err := containerContents(candidate)
			if err != nil {
				return err
			}
			r.found.add(held...)
		case IsContainer(candidate):
			// another kind's container: search the held instances' kinds
			held, err := containerContents(candidate)
			if err != nil {
				return err
			}
			for _, h := range held {
				if err := r.element(h.Kind()); err != nil {
					return err
				}
			}
		default:
			if err := r.element(candidate.Kind()); err != nil {
				return err
			}
		}
	}
	return nil
}

// associatedAnnotations returns the instances of kind associated with t: the
// directly declared ones plus the contents of declared containers, in
// declaration order. When there are none and the kind is inherited, the
// nearest superclass with associated instances supplies them.
func associatedAnnotations(t metadata.Type, kind metadata.Kind) ([]*metadata.Annotation, error) {
	if t == nil || kind == nil {
		return nil, nil
	}
	found, err := directlyAndIndirectlyPresent(t, kind)
	if err != nil || len(found) > 0 || !kind.Inherited() {
		return found, err
	}
	superclasses(t, func(super metadata.Type) bool {
		found, err = directlyAndIndirectlyPresent(super, kind)
		return err == nil && len(found) == 0
	})
	return found, err
}

func directlyAndIndirectlyPresent(el metadata.Element, kind metadata.Kind) ([]*metadata.Annotation, error) {
	container := kind.RepeatableContainer()
	var found []*metadata.Annotation
	for _, a := range el.DeclaredAnnotations() {
		switch {
		case metadata.SameKind(a.Kind(), kind):
			found = append(found, a)
		case metadata.SameKind(a.Kind(), container):
			held, err := containerContents(a)
			if err != nil {
				return nil, err
			}
			found = append(found, held...)
		}
	}
	return found, nil
}
