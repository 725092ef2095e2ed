package selector

import (
	"fmt"
	"strings"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/metadata"
	"github.com/toyz/annoscope/internal/search"
)

// Resolve looks the selected class and method up in the model and returns
// the search context for them
func (s Selector) Resolve(model *metadata.Model) (search.Context, error) {
	class, err := model.ResolveType(s.class)
	if err != nil {
		return nil, err
	}
	if err := s.checkEnclosing(model, class); err != nil {
		return nil, err
	}
	if !s.IsMethod() {
		return search.ForClass(class), nil
	}

	method, err := s.resolveMethod(class)
	if err != nil {
		return nil, err
	}
	return search.ForMethod(method), nil
}

// checkEnclosing verifies that the enclosing classes form the chain directly
// around the class. Leading outer levels may be omitted.
func (s Selector) checkEnclosing(model *metadata.Model, class *metadata.Class) error {
	current := metadata.Type(class)
	for i := len(s.enclosing) - 1; i >= 0; i-- {
		outer, err := model.ResolveType(s.enclosing[i])
		if err != nil {
			return err
		}
		enclosing := current.EnclosingType()
		if enclosing == nil || enclosing.Name() != outer.Name() {
			actual := "no enclosing class"
			if enclosing != nil {
				actual = enclosing.Name()
			}
			return errors.Newf(errors.ResolutionErrorCode, "%s is not enclosed by %s", current.Name(), outer.Name()).
				WithContext("selector", s.String()).
				WithSuggestion(fmt.Sprintf("The enclosing class of %s is %s", current.Name(), actual))
		}
		current = enclosing
	}
	return nil
}

func (s Selector) resolveMethod(class *metadata.Class) (*metadata.Func, error) {
	candidates := class.MethodsNamed(s.method)
	qualified := class.Name() + "#" + s.method
	if len(candidates) == 0 {
		return nil, errors.Unresolved("method", qualified)
	}

	if !s.hasParameters {
		if len(candidates) == 1 {
			return candidates[0], nil
		}
		return nil, errors.Ambiguous("method", qualified, methodNames(candidates)).
			WithSuggestion("Add the parameter types, e.g. " + qualified + "(int)")
	}

	wanted := s.ParameterTypeNames()
	for _, m := range candidates {
		if parametersMatch(m.ParameterTypes(), wanted) {
			return m, nil
		}
	}
	return nil, errors.Unresolved("method", fmt.Sprintf("%s(%s)", qualified, strings.Join(wanted, ", "))).
		WithSuggestion(fmt.Sprintf("Declared overloads: %v", methodNames(candidates)))
}

func parametersMatch(declared, wanted []string) bool {
	if len(declared) != len(wanted) {
		return false
	}
	for i := range declared {
		if !metadata.MatchesTypeName(declared[i], wanted[i]) && !metadata.MatchesTypeName(wanted[i], declared[i]) {
			return false
		}
	}
	return true
}

func methodNames(methods []*metadata.Func) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name()
	}
	return names
}
