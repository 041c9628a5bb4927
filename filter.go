package esql

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/nlstn/go-esql/internal/metadata"
)

// Operator is a filter comparison or composition operator. The vocabulary
// is fixed; anything else fails with ErrUnsupportedOperator rather than
// being silently dropped.
type Operator string

const (
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "neq"
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpLike           Operator = "like"
	OpIn             Operator = "in"
	OpIsNull         Operator = "is.null"

	// OpAnd and OpOr compose nested filters; precedence is explicit via
	// nesting, never inferred.
	OpAnd Operator = "and"
	OpOr  Operator = "or"
)

// Filter is one filter expression as received from a request layer, already
// split into field, operator and operand. Field may traverse one relation
// hop with a "/" separator ("Owner/Name"). For OpIn the value must be a
// slice of operands; for OpAnd and OpOr the Filters slice holds the nested
// expressions and Field and Value are ignored.
type Filter struct {
	Field   string
	Op      Operator
	Value   interface{}
	Filters []Filter
}

// Where is the parsed form of a filter collection: a single WHERE-clause
// condition, the join predicates required by relation-hopping filters
// (deduplicated, one per related entity), and the accumulated parameter
// bindings.
type Where struct {
	Condition string
	Joins     []string
	Params    Params
}

// Where parses a flat collection of filter expressions into one composed
// WHERE-clause fragment. Top-level expressions combine conjunctively, in
// order. Any malformed expression aborts the whole parse.
func (g *Generator) Where(filters []Filter) (*Where, error) {
	w := &Where{}
	joinsSeen := make(map[string]bool)

	conditions := make([]string, 0, len(filters))
	for _, f := range filters {
		condition, err := g.renderFilter(f, w, joinsSeen)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}

	w.Condition = strings.Join(conditions, " AND ")
	return w, nil
}

func (g *Generator) renderFilter(f Filter, w *Where, joinsSeen map[string]bool) (string, error) {
	switch f.Op {
	case OpAnd, OpOr:
		return g.renderComposite(f, w, joinsSeen)
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterOrEqual,
		OpLessThan, OpLessOrEqual, OpLike, OpIn, OpIsNull:
		return g.renderComparison(f, w, joinsSeen)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, f.Op)
	}
}

func (g *Generator) renderComposite(f Filter, w *Where, joinsSeen map[string]bool) (string, error) {
	if len(f.Filters) == 0 {
		return "", fmt.Errorf("%w: %q requires nested expressions", ErrUnsupportedOperator, f.Op)
	}

	connector := " AND "
	if f.Op == OpOr {
		connector = " OR "
	}

	nested := make([]string, 0, len(f.Filters))
	for _, inner := range f.Filters {
		condition, err := g.renderFilter(inner, w, joinsSeen)
		if err != nil {
			return "", err
		}
		nested = append(nested, condition)
	}

	return "(" + strings.Join(nested, connector) + ")", nil
}

func (g *Generator) renderComparison(f Filter, w *Where, joinsSeen map[string]bool) (string, error) {
	ref, err := g.resolveFieldRef(f.Field)
	if err != nil {
		return "", err
	}
	if ref.join != "" && !joinsSeen[ref.joinKey] {
		joinsSeen[ref.joinKey] = true
		w.Joins = append(w.Joins, ref.join)
	}

	column := ref.alias + "." + ref.column

	switch f.Op {
	case OpIsNull:
		return column + " IS NULL", nil
	case OpIn:
		operands, err := operandSlice(f.Value)
		if err != nil {
			return "", fmt.Errorf("filter on %q: %w", f.Field, err)
		}
		tokens := make([]string, len(operands))
		for i, operand := range operands {
			token := g.namer.unique(ref.alias, ref.field)
			tokens[i] = ":" + token
			w.Params = append(w.Params, Param{Name: token, Value: sqlValue(g.svc.dialect, operand)})
		}
		return column + " IN (" + strings.Join(tokens, ", ") + ")", nil
	}

	token := g.namer.unique(ref.alias, ref.field)
	w.Params = append(w.Params, Param{Name: token, Value: sqlValue(g.svc.dialect, f.Value)})

	var comparison string
	switch f.Op {
	case OpEqual:
		comparison = "="
	case OpNotEqual:
		comparison = "<>"
	case OpGreaterThan:
		comparison = ">"
	case OpGreaterOrEqual:
		comparison = ">="
	case OpLessThan:
		comparison = "<"
	case OpLessOrEqual:
		comparison = "<="
	case OpLike:
		comparison = "LIKE"
	}

	return column + " " + comparison + " :" + token, nil
}

// operandSlice unpacks the operand list of an in-expression.
func operandSlice(value interface{}) ([]interface{}, error) {
	if operands, ok := value.([]interface{}); ok {
		if len(operands) == 0 {
			return nil, fmt.Errorf("in operator requires at least one operand")
		}
		return operands, nil
	}

	v := reflect.ValueOf(value)
	if !v.IsValid() || v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("in operator requires a slice of operands, got %T", value)
	}
	if v.Len() == 0 {
		return nil, fmt.Errorf("in operator requires at least one operand")
	}
	operands := make([]interface{}, v.Len())
	for i := range operands {
		operands[i] = v.Index(i).Interface()
	}
	return operands, nil
}

// fieldRef is a resolved field path: the qualified column to compare
// against and, when the path hopped through a relation, the join predicate
// that makes the related alias reachable.
type fieldRef struct {
	alias   string
	column  string
	field   string
	join    string
	joinKey string
}

// resolveFieldRef resolves a field path against the subject entity. A path
// may traverse at most one relation hop ("Owner/Name").
func (g *Generator) resolveFieldRef(path string) (fieldRef, error) {
	segments := strings.Split(path, "/")

	switch len(segments) {
	case 1:
		meta, ok := g.subject.Field(segments[0])
		if !ok {
			return fieldRef{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, g.subject.EntityName, segments[0])
		}
		return fieldRef{alias: g.alias, column: meta.ColumnName, field: meta.Name}, nil

	case 2:
		rel, ok := g.subject.Relation(segments[0])
		if !ok {
			return fieldRef{}, fmt.Errorf("%w: %s has no relation field %q", ErrUnknownField, g.subject.EntityName, segments[0])
		}
		targetMeta, err := g.svc.provider.Resolve(reflect.New(rel.TargetType).Interface())
		if err != nil {
			return fieldRef{}, err
		}
		targetField, ok := targetMeta.Field(segments[1])
		if !ok {
			return fieldRef{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, targetMeta.EntityName, segments[1])
		}
		targetAlias := g.aliasFor(targetMeta)
		return fieldRef{
			alias:   targetAlias,
			column:  targetField.ColumnName,
			field:   targetField.Name,
			join:    g.relationJoin(rel, targetAlias),
			joinKey: rel.FieldName,
		}, nil

	default:
		return fieldRef{}, fmt.Errorf("%w: path %q traverses more than one relation", ErrUnknownField, path)
	}
}

// relationJoin emits the join predicate for a relation declared on the
// subject, with the owning side's foreign key on the left of its operand.
func (g *Generator) relationJoin(rel metadata.RelationMetadata, targetAlias string) string {
	if rel.Owned {
		return g.alias + "." + rel.ForeignKeyColumn + " = " + targetAlias + "." + rel.ReferencedColumn
	}
	return g.alias + "." + rel.ReferencedColumn + " = " + targetAlias + "." + rel.ForeignKeyColumn
}
