package search

import (
	"github.com/toyz/annoscope/internal/metadata"
)

// FindAnnotations runs a search from the context's method outward through
// its declaring class and every enclosing class. Without FindAllEnclosing the
// first scope with a match wins; otherwise the matches of every scope are
// concatenated, closest first.
func (e *Engine) FindAnnotations(ctx Context, c Criteria) ([]*metadata.Annotation, error) {
	if ctx == nil || c.kind == nil {
		return nil, nil
	}

	var onMethod []*metadata.Annotation
	if method := ctx.TestMethod(); method != nil {
		found, err := e.findOnMethod(method, c)
		if err != nil {
			return nil, err
		}
		onMethod = found
		e.logger.Debug("lookup on method", "method", method.Name(), "criteria", c.String(), "found", len(onMethod))
	}
	if !c.findAllEnclosing && len(onMethod) > 0 {
		return onMethod, nil
	}

	onClass, err := e.findOnOuterClasses(ctx.TestClass(), c)
	if err != nil {
		return nil, err
	}
	return append(onMethod, onClass...), nil
}

func (e *Engine) findOnMethod(method metadata.Method, c Criteria) ([]*metadata.Annotation, error) {
	if c.findRepeated {
		return findRepeatableAnnotations(method, c.kind)
	}
	if a := findAnnotation(method, c.kind); a != nil {
		return []*metadata.Annotation{a}, nil
	}
	return nil, nil
}

func (e *Engine) findOnOuterClasses(t metadata.Type, c Criteria) ([]*metadata.Annotation, error) {
	if t == nil {
		return nil, nil
	}

	if !c.findAllEnclosing {
		onThisClass, err := associatedAnnotations(t, c.kind)
		if err != nil {
			return nil, err
		}
		if len(onThisClass) > 0 {
			e.logger.Debug("closest scope", "type", t.Name(), "criteria", c.String(), "found", len(onThisClass))
			return onThisClass, nil
		}
		onType, err := e.findOnType(t, c)
		if err != nil {
			return nil, err
		}
		if len(onType) > 0 {
			e.logger.Debug("closest scope", "type", t.Name(), "criteria", c.String(), "found", len(onType))
			return onType, nil
		}
		return e.findOnOuterClasses(t.EnclosingType(), c)
	}

	onType, err := e.findOnType(t, c)
	if err != nil {
		return nil, err
	}
	onOuter, err := e.findOnOuterClasses(t.EnclosingType(), c)
	if err != nil {
		return nil, err
	}
	return append(onType, onOuter...), nil
}
