package metadata

import (
	"strings"

	"github.com/toyz/annoscope/internal/errors"
)

// CheckHierarchy reports every registered type whose supertypes or enclosing
// types lead back to itself. Searches assume finite, acyclic chains.
func (m *Model) CheckHierarchy() error {
	var errs *errors.MultipleErrors
	for _, c := range m.Types() {
		if err := CheckHierarchy(c); err != nil {
			errors.AddToMultiple(&errs, err)
		}
	}
	return errs.ErrOrNil()
}

// CheckHierarchy reports a superclass or interface chain of c that returns to
// c, or an enclosing chain that does
func CheckHierarchy(c *Class) *errors.BaseError {
	if path := supertypeCycle(c, c, nil, map[*Class]bool{}); path != nil {
		return errors.Newf(errors.ValidationErrorCode, "type %s inherits from itself: %s",
			c.name, strings.Join(path, " -> ")).
			WithLocation(c.location).
			WithContext("type", c.name).
			WithSuggestion("Remove the superclass or interface that closes the cycle")
	}

	path := []string{c.name}
	seen := map[*Class]bool{c: true}
	for outer := c.enclosing; outer != nil; outer = outer.enclosing {
		path = append(path, outer.name)
		if outer == c {
			return errors.Newf(errors.ValidationErrorCode, "type %s encloses itself: %s",
				c.name, strings.Join(path, " -> ")).
				WithLocation(c.location).
				WithContext("type", c.name)
		}
		if seen[outer] {
			break // a cycle further out, reported for its own members
		}
		seen[outer] = true
	}
	return nil
}

func supertypeCycle(start, current *Class, path []string, seen map[*Class]bool) []string {
	path = append(path, current.name)
	next := current.interfaces
	if current.superclass != nil {
		next = append([]*Class{current.superclass}, next...)
	}
	for _, n := range next {
		if n == start {
			return append(path, n.name)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		if found := supertypeCycle(start, n, path, seen); found != nil {
			return found
		}
	}
	return nil
}
