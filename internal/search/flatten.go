package search

import (
	"fmt"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
)

// containerMember is the accessor a container kind exposes its repeated
// instances through
const containerMember = "value"

var (
	// ErrMalformedContainer matches errors raised while reading a container
	// annotation that does not hold an array of annotations
	ErrMalformedContainer = errors.New(errors.MalformedContainerErrorCode, "malformed container annotation")

	// ErrNotRepeatable matches repeatable searches for a kind without a container
	ErrNotRepeatable = errors.New(errors.NotRepeatableErrorCode, "annotation kind is not repeatable")
)

// ContainedKind returns the kind whose repeated instances the container kind
// aggregates. A kind is a container when its value member is an array of
// annotations whose kind names it as repeatable container.
func ContainedKind(container metadata.Kind) (metadata.Kind, bool) {
	if container == nil {
		return nil, false
	}
	member, ok := container.Member(containerMember)
	if !ok || !member.Type.Array || member.Type.Kind != metadata.AnnotationValue || member.Type.Annotation == nil {
		return nil, false
	}
	contained := member.Type.Annotation
	if !metadata.SameKind(contained.RepeatableContainer(), container) {
		return nil, false
	}
	return contained, true
}

// IsContainer reports whether the annotation is a container instance
func IsContainer(a *metadata.Annotation) bool {
	_, ok := ContainedKind(a.Kind())
	return ok
}

// Flatten expands a container annotation into the instances it holds,
// recursively and in order. Any other annotation flattens to itself.
func Flatten(a *metadata.Annotation) ([]*metadata.Annotation, error) {
	if !IsContainer(a) {
		return []*metadata.Annotation{a}, nil
	}
	held, err := containerContents(a)
	if err != nil {
		return nil, err
	}
	out := make([]*metadata.Annotation, 0, len(held))
	for _, h := range held {
		inner, err := Flatten(h)
		if err != nil {
			return nil, err
		}
		out = append(out, inner...)
	}
	return out, nil
}

// FlattenAll flattens every annotation preserving declaration order
func FlattenAll(annotations []*metadata.Annotation) ([]*metadata.Annotation, error) {
	out := make([]*metadata.Annotation, 0, len(annotations))
	for _, a := range annotations {
		flat, err := Flatten(a)
		if err != nil {
			return nil, err
		}
		out = append(out, flat...)
	}
	return out, nil
}

// containerContents reads the value member of a container instance
func containerContents(container *metadata.Annotation) ([]*metadata.Annotation, error) {
	malformed := func(cause error) error {
		declarer := ""
		if container.Declarer() != nil {
			declarer = container.Declarer().Name()
		}
		return errors.WrapMalformedContainer(container.Kind().Name(), declarer, cause).
			WithLocation(container.Location())
	}

	value, err := container.Value(containerMember)
	if err != nil {
		return nil, malformed(err)
	}
	if value.Kind != metadata.ArrayValue {
		return nil, malformed(fmt.Errorf("member '%s' holds %s, expected an array of annotations", containerMember, value.Kind))
	}

	held := make([]*metadata.Annotation, 0, len(value.Elems))
	for i, elem := range value.Elems {
		if elem.Kind != metadata.AnnotationValue || elem.Annotation == nil {
			return nil, malformed(fmt.Errorf("element %d of member '%s' is %s, expected an annotation", i, containerMember, elem.Kind))
		}
		held = append(held, elem.Annotation)
	}
	return held, nil
}
