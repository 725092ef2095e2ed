// Package search finds annotations on program elements the way JUnit
// extensions expect: directly present, indirectly present through
// supertypes, meta-present through other annotations and present on an
// enclosing scope.
//
// The engine is stateless and never caches. It is safe for concurrent use as
// long as the metadata graph it reads is not mutated.
package search

import (
	"log/slog"

	"github.com/toyz/annoscope/internal/metadata"
)

const (
	// DefaultArgumentsSourceKind is the repeatable kind marking parameter argument sources
	DefaultArgumentsSourceKind = "org.junit.jupiter.params.provider.ArgumentsSource"
	// DefaultCartesianArgumentsSourceKind marks argument source annotations of cartesian tests
	DefaultCartesianArgumentsSourceKind = "org.junitpioneer.jupiter.cartesian.CartesianArgumentsSource"
)

// Engine answers annotation presence queries
type Engine struct {
	logger          *slog.Logger
	argumentsSource metadata.Kind
	cartesianSource metadata.Kind
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the debug logger for traversal steps
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithArgumentsSource sets the repeatable arguments source kind
func WithArgumentsSource(kind metadata.Kind) Option {
	return func(e *Engine) { e.argumentsSource = kind }
}

// WithCartesianArgumentsSource sets the cartesian arguments source marker kind
func WithCartesianArgumentsSource(kind metadata.Kind) Option {
	return func(e *Engine) { e.cartesianSource = kind }
}

// WithModelSourceKinds looks the argument source kinds up in the model by
// name. Empty names select the defaults; kinds missing from the model leave
// the corresponding lookups empty.
func WithModelSourceKinds(model *metadata.Model, argumentsSource, cartesianSource string) Option {
	return func(e *Engine) {
		if argumentsSource == "" {
			argumentsSource = DefaultArgumentsSourceKind
		}
		if cartesianSource == "" {
			cartesianSource = DefaultCartesianArgumentsSourceKind
		}
		e.argumentsSource, e.cartesianSource = nil, nil
		if kind, ok := model.LookupKind(argumentsSource); ok {
			e.argumentsSource = kind
		}
		if kind, ok := model.LookupKind(cartesianSource); ok {
			e.cartesianSource = kind
		}
	}
}

// NewEngine creates a search engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsAnnotationPresent reports whether the closest scope declares kind
func (e *Engine) IsAnnotationPresent(ctx Context, kind metadata.Kind) (bool, error) {
	a, err := e.FindClosestEnclosingAnnotation(ctx, kind)
	return a != nil, err
}

// IsAnyRepeatableAnnotationPresent reports whether the closest scope declares
// at least one instance of the repeatable kind
func (e *Engine) IsAnyRepeatableAnnotationPresent(ctx Context, kind metadata.Kind) (bool, error) {
	found, err := e.FindClosestEnclosingRepeatableAnnotations(ctx, kind)
	return len(found) > 0, err
}

// FindClosestEnclosingAnnotation returns the instance on the closest scope or nil
func (e *Engine) FindClosestEnclosingAnnotation(ctx Context, kind metadata.Kind) (*metadata.Annotation, error) {
	found, err := e.FindAnnotations(ctx, NewCriteria(kind, false, false))
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

// FindClosestEnclosingRepeatableAnnotations returns the instances of the
// repeatable kind on the closest scope that has any
func (e *Engine) FindClosestEnclosingRepeatableAnnotations(ctx Context, kind metadata.Kind) ([]*metadata.Annotation, error) {
	return e.FindAnnotations(ctx, NewCriteria(kind, true, false))
}

// FindAllEnclosingAnnotations returns the instances on every scope, closest first
func (e *Engine) FindAllEnclosingAnnotations(ctx Context, kind metadata.Kind) ([]*metadata.Annotation, error) {
	return e.FindAnnotations(ctx, NewCriteria(kind, false, true))
}

// FindAllEnclosingRepeatableAnnotations returns the instances of the
// repeatable kind on every scope, closest first
func (e *Engine) FindAllEnclosingRepeatableAnnotations(ctx Context, kind metadata.Kind) ([]*metadata.Annotation, error) {
	return e.FindAnnotations(ctx, NewCriteria(kind, true, true))
}

// FindAnnotatedAnnotations returns the annotations declared on el, with
// containers flattened, whose own kind carries marker
func (e *Engine) FindAnnotatedAnnotations(el metadata.Element, marker metadata.Kind) ([]*metadata.Annotation, error) {
	if el == nil || marker == nil {
		return nil, nil
	}
	declared, err := FlattenAll(el.DeclaredAnnotations())
	if err != nil {
		return nil, err
	}

	criteria := NewCriteria(marker, marker.RepeatableContainer() != nil, false)
	var out []*metadata.Annotation
	for _, a := range declared {
		onKind, err := e.findOnType(a.Kind(), criteria)
		if err != nil {
			return nil, err
		}
		if len(onKind) > 0 {
			out = append(out, a)
		}
	}
	e.logger.Debug("annotated annotations", "element", el.Name(), "marker", marker.Name(), "found", len(out))
	return out, nil
}

// FindParameterArgumentsSources returns, in parameter order, the first
// argument source annotation of every parameter that has one
func (e *Engine) FindParameterArgumentsSources(method metadata.Method) ([]*metadata.Annotation, error) {
	if method == nil {
		return nil, nil
	}
	var out []*metadata.Annotation
	for _, param := range method.Parameters() {
		sources, err := e.collectArgumentSources(param)
		if err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			out = append(out, sources[0])
		}
	}
	return out, nil
}

func (e *Engine) collectArgumentSources(param metadata.Parameter) ([]*metadata.Annotation, error) {
	var sources []*metadata.Annotation
	if a := findAnnotation(param, e.cartesianSource); a != nil {
		sources = append(sources, a)
	}
	switch {
	case e.argumentsSource == nil:
	case e.argumentsSource.RepeatableContainer() == nil:
		if a := findAnnotation(param, e.argumentsSource); a != nil {
			sources = append(sources, a)
		}
	default:
		found, err := findRepeatableAnnotations(param, e.argumentsSource)
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	}
	e.logger.Debug("parameter argument sources", "parameter", param.Name(), "found", len(sources))
	return sources, nil
}

// FindMethodArgumentsSources returns the annotations declared on the method
// whose kind carries the cartesian arguments source marker
func (e *Engine) FindMethodArgumentsSources(method metadata.Method) ([]*metadata.Annotation, error) {
	if method == nil || e.cartesianSource == nil {
		return nil, nil
	}
	var out []*metadata.Annotation
	for _, a := range method.DeclaredAnnotations() {
		if findAnnotation(a.Kind(), e.cartesianSource) != nil {
			out = append(out, a)
		}
	}
	return out, nil
}
