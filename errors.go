package esql

import (
	"errors"

	"github.com/nlstn/go-esql/internal/metadata"
)

// Error kinds surfaced by the library. All are terminal for the single
// operation that produced them; nothing is retried or partially applied.
// Test with errors.Is; messages carry the offending field, relation or
// operator.
var (
	// ErrUnmappedType reports a type without relational metadata.
	ErrUnmappedType = metadata.ErrUnmappedType

	// ErrUnknownField reports a field name absent from an entity's mapping.
	ErrUnknownField = errors.New("esql: unknown field")

	// ErrUnknownRelation reports that no relation exists between two
	// entity types.
	ErrUnknownRelation = errors.New("esql: unknown relation")

	// ErrUnsupportedOperator reports a filter operator outside the fixed
	// vocabulary.
	ErrUnsupportedOperator = errors.New("esql: unsupported filter operator")

	// ErrUnmappableRow reports a result row lacking the identifier columns
	// required to map it onto an entity.
	ErrUnmappableRow = errors.New("esql: row is missing identifier columns")
)
