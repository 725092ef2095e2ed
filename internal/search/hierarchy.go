package search

import (
	"github.com/toyz/annoscope/internal/metadata"
)

// findOnType collects the instances reachable from t: its own, those found
// through its interfaces and, for inherited kinds, those of its superclass.
// Interfaces are always walked; a non-inherited kind only looks past t itself
// when every enclosing scope is requested.
func (e *Engine) findOnType(t metadata.Type, c Criteria) ([]*metadata.Annotation, error) {
	if t == nil || metadata.IsUniversalBase(t) {
		return nil, nil
	}
	if c.findRepeated {
		found, err := findRepeatableAnnotations(t, c.kind)
		e.logger.Debug("repeatable lookup on type", "type", t.Name(), "criteria", c.String(), "found", len(found))
		return found, err
	}

	var onElement []*metadata.Annotation
	if a := findAnnotation(t, c.kind); a != nil {
		onElement = []*metadata.Annotation{a}
	}
	inherited := c.kind.Inherited()
	if !inherited && !c.findAllEnclosing {
		e.logger.Debug("lookup on type", "type", t.Name(), "criteria", c.String(), "found", len(onElement))
		return onElement, nil
	}

	var onInterfaces []*metadata.Annotation
	for _, iface := range t.Interfaces() {
		found, err := e.findOnType(iface, c)
		if err != nil {
			return nil, err
		}
		onInterfaces = append(onInterfaces, found...)
	}
	if !inherited {
		found := union(onElement, onInterfaces)
		e.logger.Debug("lookup on type and interfaces", "type", t.Name(), "criteria", c.String(), "found", len(found))
		return found, nil
	}

	onSuperclass, err := e.findOnType(t.Superclass(), c)
	if err != nil {
		return nil, err
	}
	found := union(onElement, onInterfaces, onSuperclass)
	e.logger.Debug("lookup on type hierarchy", "type", t.Name(), "criteria", c.String(), "found", len(found))
	return found, nil
}
