// Package query answers textual queries (a selector plus a kind name)
// against a loaded model. The CLI and the HTTP API both go through it.
package query

import (
	"log/slog"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
	"github.com/toyz/annoscope/internal/report"
	"github.com/toyz/annoscope/internal/search"
	"github.com/toyz/annoscope/internal/selector"
)

// Service runs queries against one model
type Service struct {
	model  *metadata.Model
	engine *search.Engine
	logger *slog.Logger
}

// NewService creates a query service; a nil logger discards
func NewService(model *metadata.Model, engine *search.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{model: model, engine: engine, logger: logger}
}

// Model returns the queried model
func (s *Service) Model() *metadata.Model { return s.model }

// Kinds lists the annotation kinds of the model
func (s *Service) Kinds() []report.KindView {
	return report.Kinds(s.model.Kinds())
}

// Present reports whether kind is present on the selected element or any
// enclosing scope
func (s *Service) Present(selectorText, kindName string, repeatable bool) (report.PresenceResult, error) {
	sel, ctx, err := s.resolve(selectorText)
	if err != nil {
		return report.PresenceResult{}, err
	}
	kind, err := s.model.ResolveKind(kindName)
	if err != nil {
		return report.PresenceResult{}, err
	}

	var present bool
	if repeatable {
		present, err = s.engine.IsAnyRepeatableAnnotationPresent(ctx, kind)
	} else {
		present, err = s.engine.IsAnnotationPresent(ctx, kind)
	}
	if err != nil {
		return report.PresenceResult{}, err
	}
	return report.PresenceResult{Selector: sel.String(), Kind: kind.Name(), Repeatable: repeatable, Present: present}, nil
}

// Find runs the closest or all-enclosing, singular or repeatable search
func (s *Service) Find(selectorText, kindName string, repeatable, allEnclosing bool) (report.QueryResult, error) {
	sel, ctx, err := s.resolve(selectorText)
	if err != nil {
		return report.QueryResult{}, err
	}
	kind, err := s.model.ResolveKind(kindName)
	if err != nil {
		return report.QueryResult{}, err
	}

	var found []*metadata.Annotation
	switch {
	case repeatable && allEnclosing:
		found, err = s.engine.FindAllEnclosingRepeatableAnnotations(ctx, kind)
	case repeatable:
		found, err = s.engine.FindClosestEnclosingRepeatableAnnotations(ctx, kind)
	case allEnclosing:
		found, err = s.engine.FindAllEnclosingAnnotations(ctx, kind)
	default:
		var closest *metadata.Annotation
		closest, err = s.engine.FindClosestEnclosingAnnotation(ctx, kind)
		if closest != nil {
			found = append(found, closest)
		}
	}
	if err != nil {
		return report.QueryResult{}, err
	}

	criteria := search.NewCriteria(kind, repeatable, allEnclosing)
	s.logger.Debug("find", "selector", sel.String(), "criteria", criteria.String(), "found", len(found))
	return report.QueryResult{
		Query:       criteria.String(),
		Selector:    sel.String(),
		Kind:        kind.Name(),
		Annotations: report.Annotations(found),
	}, nil
}

// Meta lists the annotations declared on the selected method, or class when
// the selector names no method, whose kind carries marker
func (s *Service) Meta(selectorText, markerName string) (report.QueryResult, error) {
	sel, ctx, err := s.resolve(selectorText)
	if err != nil {
		return report.QueryResult{}, err
	}
	marker, err := s.model.ResolveKind(markerName)
	if err != nil {
		return report.QueryResult{}, err
	}

	var element metadata.Element = ctx.TestClass()
	if method := ctx.TestMethod(); method != nil {
		element = method
	}
	found, err := s.engine.FindAnnotatedAnnotations(element, marker)
	if err != nil {
		return report.QueryResult{}, err
	}
	return report.QueryResult{
		Query:       "annotated-with(" + marker.Name() + ")",
		Selector:    sel.String(),
		Kind:        marker.Name(),
		Annotations: report.Annotations(found),
	}, nil
}

// Sources lists the parameter and method argument sources of the selected
// method
func (s *Service) Sources(selectorText string) (report.SourcesResult, error) {
	sel, ctx, err := s.resolve(selectorText)
	if err != nil {
		return report.SourcesResult{}, err
	}
	method := ctx.TestMethod()
	if method == nil {
		return report.SourcesResult{}, errors.Newf(errors.ValidationErrorCode, "selector %s does not name a method", sel).
			WithSuggestion("Append #method to the selector")
	}

	params, err := s.engine.FindParameterArgumentsSources(method)
	if err != nil {
		return report.SourcesResult{}, err
	}
	methodSources, err := s.engine.FindMethodArgumentsSources(method)
	if err != nil {
		return report.SourcesResult{}, err
	}
	return report.SourcesResult{
		Selector:   sel.String(),
		Parameters: report.Annotations(params),
		Method:     report.Annotations(methodSources),
	}, nil
}

func (s *Service) resolve(text string) (selector.Selector, search.Context, error) {
	sel, err := selector.Parse(text)
	if err != nil {
		return selector.Selector{}, nil, err
	}
	ctx, err := sel.Resolve(s.model)
	if err != nil {
		return selector.Selector{}, nil, err
	}
	return sel, ctx, nil
}
