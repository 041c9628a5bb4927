package esql

import "strings"

// Sort is one ordering instruction from a request layer.
type Sort struct {
	// Field is a field path with the same resolution rules as filters,
	// including a single relation hop.
	Field string
	// Desc orders descending; the default is ascending.
	Desc bool
}

// Ordering is the translated form of a sort list: the ORDER BY clause body
// and the join predicates required by relation-hopping sort fields.
type Ordering struct {
	Clause string
	Joins  []string
}

// OrderBy translates a sort list into "alias.column ASC|DESC" terms, in
// order. Field resolution failures abort the whole translation.
func (g *Generator) OrderBy(sorts []Sort) (*Ordering, error) {
	ordering := &Ordering{}
	joinsSeen := make(map[string]bool)

	terms := make([]string, 0, len(sorts))
	for _, s := range sorts {
		ref, err := g.resolveFieldRef(s.Field)
		if err != nil {
			return nil, err
		}
		if ref.join != "" && !joinsSeen[ref.joinKey] {
			joinsSeen[ref.joinKey] = true
			ordering.Joins = append(ordering.Joins, ref.join)
		}

		direction := " ASC"
		if s.Desc {
			direction = " DESC"
		}
		terms = append(terms, ref.alias+"."+ref.column+direction)
	}

	ordering.Clause = strings.Join(terms, ", ")
	return ordering, nil
}
