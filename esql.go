package esql

// Package esql generates parameterized SQL fragments from the relational
// metadata of entity types. It is a shortcut for the repetitive metadata
// lookups in hand-written SQL, not a query builder: every operation returns
// a plain string or Fragment that the caller concatenates into SQL text it
// owns, plus a stable parameter-naming scheme for prepared-statement
// binding.
//
// # Usage
//
//	svc, err := esql.New(esql.Config{Dialect: esql.DialectPostgres})
//	gen, err := svc.For(Car{})
//
//	cols, _ := gen.Columns()
//	join, _ := gen.Join(Owner{})
//	owners, _ := gen.RelatedTable(Owner{})
//	ident, _ := gen.Identifier()
//
//	query := "SELECT " + cols.SQL +
//	    " FROM " + gen.Table() +
//	    " JOIN " + owners + " ON " + join +
//	    " WHERE " + ident.SQL
//
// Parameter tokens use the ":name" sigil and are pairwise distinct within
// one Generator, even when two joined entities share a field name. Bind
// converts a token-bearing statement into the positional placeholder form
// of the configured dialect.
//
// Entity metadata comes from struct tags by default (the esql tag, with
// gorm tags honored as a fallback) or from GORM's own schema parser via
// NewWithGormSchema.

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nlstn/go-esql/internal/metadata"
	"gorm.io/gorm/schema"
)

// Dialect identifies the SQL backend, which affects literal value
// normalization and placeholder binding only. No dialect-specific SQL is
// generated beyond that.
type Dialect string

const (
	// DialectSQLite targets SQLite; booleans normalize to "1"/"0".
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres targets PostgreSQL; booleans normalize to
	// "true"/"false" and binding uses $n placeholders.
	DialectPostgres Dialect = "postgres"
	// DialectMySQL targets MySQL; booleans normalize to "1"/"0".
	DialectMySQL Dialect = "mysql"
)

// Config controls service behaviour.
type Config struct {
	// Dialect selects the target SQL backend. Defaults to DialectSQLite.
	Dialect Dialect

	// AliasFunc derives the table alias for an entity from its type name.
	// Defaults to lowercasing the short type name.
	AliasFunc func(entityName string) string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Service resolves entity metadata and hands out per-query Generators.
// A Service is safe for concurrent use; the metadata cache is the only
// shared state and its population is idempotent.
type Service struct {
	provider  metadata.Provider
	dialect   Dialect
	aliasFunc func(string) string
	logger    *slog.Logger
}

// New creates a service whose metadata comes from struct-tag analysis.
func New(cfg Config) (*Service, error) {
	return newService(metadata.NewReflectProvider(), cfg)
}

// NewWithGormSchema creates a service whose metadata comes from GORM's
// schema parser, reusing GORM's naming strategy and association analysis.
// A nil namer uses GORM's default naming strategy.
func NewWithGormSchema(cfg Config, namer schema.Namer) (*Service, error) {
	return newService(metadata.NewGormProvider(namer), cfg)
}

func newService(provider metadata.Provider, cfg Config) (*Service, error) {
	dialect := cfg.Dialect
	if dialect == "" {
		dialect = DialectSQLite
	}
	switch dialect {
	case DialectSQLite, DialectPostgres, DialectMySQL:
	default:
		return nil, fmt.Errorf("esql: unsupported dialect %q", dialect)
	}

	aliasFunc := cfg.AliasFunc
	if aliasFunc == nil {
		aliasFunc = strings.ToLower
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		provider:  provider,
		dialect:   dialect,
		aliasFunc: aliasFunc,
		logger:    logger,
	}, nil
}

// Dialect returns the configured SQL dialect.
func (s *Service) Dialect() Dialect {
	return s.dialect
}

// For returns a Generator scoped to the given subject entity. One Generator
// covers one composed query: its alias table and parameter namer guarantee
// uniqueness only within that scope, so build a fresh Generator per query
// and never share one across goroutines.
func (s *Service) For(entity interface{}) (*Generator, error) {
	meta, err := s.provider.Resolve(entity)
	if err != nil {
		return nil, err
	}

	g := newGenerator(s, meta)
	s.logger.Debug("Resolved entity", "entity", meta.EntityName, "table", meta.TableName, "alias", g.alias)
	return g, nil
}

// TableOf returns the qualified table name with alias for an entity without
// constructing a full Generator. Alias derivation matches what a Generator
// for the same type would produce in isolation.
func (s *Service) TableOf(entity interface{}) (string, error) {
	gen, err := s.For(entity)
	if err != nil {
		return "", err
	}
	return gen.Table(), nil
}
