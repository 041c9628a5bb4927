package esql

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// sqlValue normalizes a Go value to the literal form the target dialect
// expects as a bound parameter. Booleans are the one representation the
// backends disagree on: file-based and MySQL backends store them as 0/1,
// PostgreSQL as true/false. UUIDs, decimals and timestamps normalize to
// their canonical string forms so drivers without native support bind them
// portably; everything else passes through untouched.
func sqlValue(dialect Dialect, value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		if dialect == DialectPostgres {
			if v {
				return "true"
			}
			return "false"
		}
		if v {
			return "1"
		}
		return "0"
	case uuid.UUID:
		return v.String()
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return value
	}
}
