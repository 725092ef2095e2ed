package search

import (
	"fmt"

	"github.com/toyz/annoscope/internal/metadata"
)

// Criteria is an immutable query: the kind to look for, whether repeated
// instances are collected and whether every enclosing scope is searched
// instead of only the closest one
type Criteria struct {
	kind             metadata.Kind
	findRepeated     bool
	findAllEnclosing bool
}

// NewCriteria creates search criteria. No validation happens here: a
// findRepeated search for a kind without a container fails when it runs.
func NewCriteria(kind metadata.Kind, findRepeated, findAllEnclosing bool) Criteria {
	return Criteria{
		kind:             kind,
		findRepeated:     findRepeated,
		findAllEnclosing: findAllEnclosing,
	}
}

func (c Criteria) Kind() metadata.Kind    { return c.kind }
func (c Criteria) FindRepeated() bool     { return c.findRepeated }
func (c Criteria) FindAllEnclosing() bool { return c.findAllEnclosing }

func (c Criteria) String() string {
	name := "<nil>"
	if c.kind != nil {
		name = c.kind.Name()
	}
	return fmt.Sprintf("%s(repeated=%t, allEnclosing=%t)", name, c.findRepeated, c.findAllEnclosing)
}
