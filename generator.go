package esql

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/nlstn/go-esql/internal/metadata"
)

// Generator emits SQL fragments for one subject entity, pulling in related
// entities on demand for joins and relation-hopping filters. All emitted
// column and table references are qualified with a deterministic alias so
// fragments from several entities compose into one statement without
// ambiguity.
//
// A Generator is scoped to a single composed query. It is not safe for
// concurrent use; create one per query via Service.For.
type Generator struct {
	svc     *Service
	subject *metadata.EntityMetadata
	alias   string
	namer   *paramNamer
	aliases map[reflect.Type]string
	taken   map[string]reflect.Type
}

func newGenerator(svc *Service, subject *metadata.EntityMetadata) *Generator {
	g := &Generator{
		svc:     svc,
		subject: subject,
		namer:   newParamNamer(),
		aliases: make(map[reflect.Type]string),
		taken:   make(map[string]reflect.Type),
	}
	g.alias = g.aliasFor(subject)
	return g
}

// aliasFor returns the query-scoped alias for an entity, deriving it on
// first use. The default derivation lowercases the short type name; when
// two distinct types collide on that name (a self-join or same-named types
// from different packages) the later one gets a short digest of its package
// path appended, keeping the alias stable across calls.
func (g *Generator) aliasFor(meta *metadata.EntityMetadata) string {
	if alias, ok := g.aliases[meta.EntityType]; ok {
		return alias
	}

	candidate := g.svc.aliasFunc(meta.EntityName)
	if _, collision := g.taken[candidate]; collision {
		sum := xxhash.Sum64String(meta.EntityType.PkgPath() + "." + meta.EntityType.Name())
		candidate = fmt.Sprintf("%s_%04x", candidate, sum&0xffff)
	}
	base := candidate
	for i := 2; ; i++ {
		if _, collision := g.taken[candidate]; !collision {
			break
		}
		candidate = base + strconv.Itoa(i)
	}

	g.aliases[meta.EntityType] = candidate
	g.taken[candidate] = meta.EntityType
	return candidate
}

// Alias returns the subject entity's alias.
func (g *Generator) Alias() string {
	return g.alias
}

// Table returns the subject's table name qualified with its alias, ready
// for a FROM clause.
func (g *Generator) Table() string {
	return g.subject.TableName + " " + g.alias
}

// RelatedTable returns a related entity's table name qualified with its
// alias in this query's scope, ready for a JOIN clause alongside Join.
func (g *Generator) RelatedTable(related interface{}) (string, error) {
	relMeta, err := g.svc.provider.Resolve(related)
	if err != nil {
		return "", err
	}
	return relMeta.TableName + " " + g.aliasFor(relMeta), nil
}

// Columns emits "alias.column" for each named field, separated by ", ".
// With no fields given, all mapped fields are emitted in declaration order.
func (g *Generator) Columns(fields ...string) (Fragment, error) {
	return g.ColumnsSep(", ", fields...)
}

// ColumnsSep is Columns with an explicit separator.
func (g *Generator) ColumnsSep(sep string, fields ...string) (Fragment, error) {
	if len(fields) == 0 {
		fields = g.subject.FieldNames()
	}

	refs := make([]string, 0, len(fields))
	for _, field := range fields {
		ref, err := g.Column(field)
		if err != nil {
			return Fragment{}, err
		}
		refs = append(refs, ref)
	}

	return Fragment{SQL: strings.Join(refs, sep)}, nil
}

// Column returns the qualified column reference for a single field.
func (g *Generator) Column(field string) (string, error) {
	meta, ok := g.subject.Field(field)
	if !ok {
		return "", fmt.Errorf("%w: %s has no field %q", ErrUnknownField, g.subject.EntityName, field)
	}
	return g.alias + "." + meta.ColumnName, nil
}

// Identifier emits the conjunction of "alias.column = :token" over every
// identifier field. The parameter tokens equal the identifier field names
// unless an earlier fragment already claimed them.
func (g *Generator) Identifier() (Fragment, error) {
	var fragment Fragment
	comparisons := make([]string, 0, len(g.subject.Keys))
	for _, key := range g.subject.Keys {
		token := g.namer.name(g.alias, key.Name)
		comparisons = append(comparisons, g.alias+"."+key.ColumnName+" = :"+token)
		fragment.Params = append(fragment.Params, token)
	}
	fragment.SQL = strings.Join(comparisons, " AND ")
	return fragment, nil
}

// Predicates emits "alias.column = :token" for each named field, separated
// by ", ". This is the SET list of an UPDATE, or a generic WHERE clause
// with a different separator. With no fields given, all mapped fields are
// emitted.
func (g *Generator) Predicates(fields ...string) (Fragment, error) {
	return g.PredicatesSep(", ", fields...)
}

// PredicatesSep is Predicates with an explicit separator.
func (g *Generator) PredicatesSep(sep string, fields ...string) (Fragment, error) {
	if len(fields) == 0 {
		fields = g.subject.FieldNames()
	}

	var fragment Fragment
	predicates := make([]string, 0, len(fields))
	for _, field := range fields {
		meta, ok := g.subject.Field(field)
		if !ok {
			return Fragment{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, g.subject.EntityName, field)
		}
		token := g.namer.name(g.alias, field)
		predicates = append(predicates, g.alias+"."+meta.ColumnName+" = :"+token)
		fragment.Params = append(fragment.Params, token)
	}
	fragment.SQL = strings.Join(predicates, sep)
	return fragment, nil
}

// Join emits the join predicate between the subject and the related entity.
// The direction comes from the declared owning side: the side holding the
// foreign key column compares it against the other side's identifier
// column. The relation may be declared on either entity.
func (g *Generator) Join(related interface{}) (string, error) {
	relMeta, err := g.svc.provider.Resolve(related)
	if err != nil {
		return "", err
	}
	relAlias := g.aliasFor(relMeta)

	if rel, ok := g.subject.RelationTo(relMeta.EntityType); ok {
		return g.relationJoin(rel, relAlias), nil
	}

	if rel, ok := relMeta.RelationTo(g.subject.EntityType); ok {
		if rel.Owned {
			return g.alias + "." + rel.ReferencedColumn + " = " + relAlias + "." + rel.ForeignKeyColumn, nil
		}
		return g.alias + "." + rel.ForeignKeyColumn + " = " + relAlias + "." + rel.ReferencedColumn, nil
	}

	return "", fmt.Errorf("%w: no relation between %s and %s", ErrUnknownRelation, g.subject.EntityName, relMeta.EntityName)
}

// RelationField returns the navigation field on the subject entity that
// represents the relation to the given type.
func (g *Generator) RelationField(related interface{}) (string, error) {
	relMeta, err := g.svc.provider.Resolve(related)
	if err != nil {
		return "", err
	}
	if rel, ok := g.subject.RelationTo(relMeta.EntityType); ok {
		return rel.FieldName, nil
	}
	return "", fmt.Errorf("%w: %s has no relation to %s", ErrUnknownRelation, g.subject.EntityName, relMeta.EntityName)
}

// SQLValue normalizes a typed value for the named field into the literal
// form the configured dialect expects. Values pass through unchanged except
// where backends disagree on representation (notably booleans).
func (g *Generator) SQLValue(field string, value interface{}) (interface{}, error) {
	if _, ok := g.subject.Field(field); !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, g.subject.EntityName, field)
	}
	return sqlValue(g.svc.dialect, value), nil
}

// Parameters emits a comma-separated list of ":name" tokens matching the
// given bindings, in order. Pair it with an INSERT column list over the
// same fields as the VALUES list.
func (g *Generator) Parameters(params Params) (Fragment, error) {
	var fragment Fragment
	tokens := make([]string, 0, len(params))
	for _, p := range params {
		if _, ok := g.subject.Field(p.Name); !ok {
			return Fragment{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, g.subject.EntityName, p.Name)
		}
		tokens = append(tokens, ":"+p.Name)
		fragment.Params = append(fragment.Params, p.Name)
	}
	fragment.SQL = strings.Join(tokens, ", ")
	return fragment, nil
}
