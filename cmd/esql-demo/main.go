// Command esql-demo runs a small end-to-end tour of the library against a
// real database: it maps two related entities through GORM's schema parser,
// composes a joined, filtered SELECT out of generated fragments and maps
// the result rows back onto structs.
//
// Configuration comes from the environment:
//
//	ESQL_DIALECT  target dialect, "sqlite" (default) or "postgres"
//	ESQL_DSN      database DSN, ":memory:" by default
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	esql "github.com/nlstn/go-esql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type config struct {
	Dialect string `env:"ESQL_DIALECT" envDefault:"sqlite"`
	DSN     string `env:"ESQL_DSN" envDefault:":memory:"`
}

type Owner struct {
	ID   uint
	Name string
}

type Car struct {
	ID      uint
	Color   string
	Price   float64
	OwnerID uint
	Owner   Owner `gorm:"foreignKey:OwnerID"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	dialect := esql.Dialect(cfg.Dialect)

	var dialector gorm.Dialector
	switch dialect {
	case esql.DialectSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case esql.DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := gormDB.AutoMigrate(&Owner{}, &Car{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	if err := seed(gormDB); err != nil {
		return fmt.Errorf("seeding data: %w", err)
	}

	svc, err := esql.NewWithGormSchema(esql.Config{Dialect: dialect}, nil)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	adapter := esql.NewDBAdapter(sqlDB, dialect)

	gen, err := svc.For(Car{})
	if err != nil {
		return err
	}

	columns, err := gen.Columns()
	if err != nil {
		return err
	}
	owners, err := gen.RelatedTable(Owner{})
	if err != nil {
		return err
	}
	where, err := gen.Where([]esql.Filter{
		{Field: "Color", Op: esql.OpEqual, Value: "blue"},
		{Field: "Owner/Name", Op: esql.OpLike, Value: "A%"},
	})
	if err != nil {
		return err
	}
	ordering, err := gen.OrderBy([]esql.Sort{{Field: "Price", Desc: true}})
	if err != nil {
		return err
	}

	query := "SELECT " + columns.SQL +
		" FROM " + gen.Table() +
		" JOIN " + owners + " ON " + where.Joins[0] +
		" WHERE " + where.Condition +
		" ORDER BY " + ordering.Clause

	rows, err := adapter.QueryContext(context.Background(), query, where.Params)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return err
	}

	for rows.Next() {
		row, err := scanRow(rows, columnNames)
		if err != nil {
			return err
		}

		var car Car
		if err := svc.MapRow(row, &car); err != nil {
			return err
		}
		fmt.Printf("car %d: %s, %.2f (owner %d)\n", car.ID, car.Color, car.Price, car.OwnerID)
	}

	return rows.Err()
}

func seed(db *gorm.DB) error {
	owners := []Owner{{Name: "Alice"}, {Name: "Bob"}}
	if err := db.Create(&owners).Error; err != nil {
		return err
	}

	cars := []Car{
		{Color: "blue", Price: 18500, OwnerID: owners[0].ID},
		{Color: "blue", Price: 9200, OwnerID: owners[1].ID},
		{Color: "red", Price: 27300, OwnerID: owners[0].ID},
	}
	return db.Create(&cars).Error
}

func scanRow(rows *sql.Rows, columns []string) (map[string]interface{}, error) {
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, err
	}

	row := make(map[string]interface{}, len(columns))
	for i, column := range columns {
		row[column] = values[i]
	}
	return row, nil
}
