package metadata

import (
	"reflect"

	"github.com/go-openapi/inflect"
	"gorm.io/gorm/schema"
)

// columnNamer is GORM's default naming strategy. It keeps acronym runs
// together ("OwnerID" becomes "owner_id", not "owner_i_d") and keeps the
// reflection provider's column names aligned with what GormProvider
// derives for the same struct.
var columnNamer = schema.NamingStrategy{}

// ColumnNameFor converts a Go field name to its default database column name.
func ColumnNameFor(fieldName string) string {
	return columnNamer.ColumnName("", fieldName)
}

// TableNameFor returns the default table name for an entity type: the
// pluralized, snake_cased type name, unless the type provides its own
// TableName() method (the GORM convention).
func TableNameFor(entityType reflect.Type) string {
	for entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	instance := reflect.New(entityType).Interface()
	if tabler, ok := instance.(interface{ TableName() string }); ok {
		return tabler.TableName()
	}

	return ColumnNameFor(inflect.Pluralize(entityType.Name()))
}
