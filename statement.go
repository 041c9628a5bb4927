package esql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Bind rewrites the ":name" parameter tokens in a statement into the
// positional placeholder form of the given dialect ("?" for SQLite and
// MySQL, "$n" for PostgreSQL) and returns the argument values in placeholder
// order, taken from params. Every token in the statement must have a
// binding; "::" is left alone so PostgreSQL casts survive.
func Bind(query string, params Params, dialect Dialect) (string, []interface{}, error) {
	var out strings.Builder
	var args []interface{}
	placeholder := 0

	for i := 0; i < len(query); i++ {
		if query[i] != ':' {
			out.WriteByte(query[i])
			continue
		}
		if i+1 < len(query) && query[i+1] == ':' {
			out.WriteString("::")
			i++
			continue
		}

		start := i + 1
		end := start
		for end < len(query) && isTokenChar(query[end], end > start) {
			end++
		}
		if end == start {
			out.WriteByte(query[i])
			continue
		}

		name := query[start:end]
		value, ok := params.Get(name)
		if !ok {
			return "", nil, fmt.Errorf("esql: no binding for parameter %q", name)
		}

		placeholder++
		if dialect == DialectPostgres {
			out.WriteString("$" + strconv.Itoa(placeholder))
		} else {
			out.WriteByte('?')
		}
		args = append(args, value)
		i = end - 1
	}

	return out.String(), args, nil
}

func isTokenChar(c byte, notFirst bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case c >= '0' && c <= '9':
		return notFirst
	default:
		return false
	}
}

// ObservabilityConfig configures tracing and metrics for a DBAdapter.
// All providers are optional; when nil, the corresponding feature is
// disabled with zero overhead.
type ObservabilityConfig struct {
	// TracerProvider provides the OpenTelemetry tracer for statement spans.
	TracerProvider trace.TracerProvider

	// MeterProvider provides the OpenTelemetry meter for the statement
	// counter.
	MeterProvider metric.MeterProvider

	// ServiceName identifies this service in telemetry data.
	// Defaults to "esql" if not specified.
	ServiceName string
}

// DBAdapter wraps a database/sql connection with dialect information and
// executes token-bearing statements: each call binds the ":name" tokens
// for the dialect and forwards to the underlying connection. It is the
// glue between generated fragments and statement execution; transaction
// management stays with the caller.
type DBAdapter struct {
	// DB is the underlying database/sql connection.
	DB *sql.DB
	// Dialect identifies the database type for placeholder binding.
	Dialect Dialect

	logger      *slog.Logger
	tracer      trace.Tracer
	statements  metric.Int64Counter
	serviceName string
}

// NewDBAdapter creates an adapter around an open connection.
func NewDBAdapter(db *sql.DB, dialect Dialect) *DBAdapter {
	return &DBAdapter{
		DB:      db,
		Dialect: dialect,
		logger:  slog.Default(),
	}
}

// SetLogger sets a custom logger for the adapter.
// If logger is nil, slog.Default() is used.
func (a *DBAdapter) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	a.logger = logger
}

// SetObservability enables tracing and metrics for executed statements.
func (a *DBAdapter) SetObservability(cfg ObservabilityConfig) error {
	a.serviceName = cfg.ServiceName
	if a.serviceName == "" {
		a.serviceName = "esql"
	}

	if cfg.TracerProvider != nil {
		a.tracer = cfg.TracerProvider.Tracer("github.com/nlstn/go-esql")
	}
	if cfg.MeterProvider != nil {
		meter := cfg.MeterProvider.Meter("github.com/nlstn/go-esql")
		counter, err := meter.Int64Counter("esql.statements",
			metric.WithDescription("Number of statements executed through the adapter"))
		if err != nil {
			return fmt.Errorf("esql: failed to create statement counter: %w", err)
		}
		a.statements = counter
	}
	return nil
}

// QueryContext binds the statement and executes it, returning the rows.
func (a *DBAdapter) QueryContext(ctx context.Context, query string, params Params) (*sql.Rows, error) {
	bound, args, err := Bind(query, params, a.Dialect)
	if err != nil {
		return nil, err
	}

	ctx, end := a.observe(ctx, "query", bound)
	a.logger.Debug("Executing query", "sql", bound, "args", args)
	rows, err := a.DB.QueryContext(ctx, bound, args...)
	end(err)
	return rows, err
}

// QueryRowContext binds the statement and executes it for a single row.
func (a *DBAdapter) QueryRowContext(ctx context.Context, query string, params Params) (*sql.Row, error) {
	bound, args, err := Bind(query, params, a.Dialect)
	if err != nil {
		return nil, err
	}

	ctx, end := a.observe(ctx, "query_row", bound)
	a.logger.Debug("Executing query row", "sql", bound, "args", args)
	row := a.DB.QueryRowContext(ctx, bound, args...)
	end(nil)
	return row, nil
}

// ExecContext binds the statement and executes it without returning rows.
func (a *DBAdapter) ExecContext(ctx context.Context, query string, params Params) (sql.Result, error) {
	bound, args, err := Bind(query, params, a.Dialect)
	if err != nil {
		return nil, err
	}

	ctx, end := a.observe(ctx, "exec", bound)
	a.logger.Debug("Executing statement", "sql", bound, "args", args)
	result, err := a.DB.ExecContext(ctx, bound, args...)
	end(err)
	return result, err
}

// observe starts a statement span and bumps the statement counter when the
// corresponding providers are configured. The returned func finishes the
// span, recording a failure if one occurred.
func (a *DBAdapter) observe(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	if a.statements != nil {
		a.statements.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
	if a.tracer == nil {
		return ctx, func(error) {}
	}

	ctx, span := a.tracer.Start(ctx, "esql."+operation,
		trace.WithAttributes(
			attribute.String("service.name", a.serviceName),
			attribute.String("db.statement", statement),
		))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
