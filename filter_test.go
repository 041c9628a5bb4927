package esql

import (
	"errors"
	"reflect"
	"testing"
)

func TestWhere_SimpleConjunction(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{
		{Field: "Color", Op: OpEqual, Value: "blue"},
		{Field: "Sold", Op: OpEqual, Value: false},
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}

	expected := "car.color = :Color AND car.sold = :Sold"
	if where.Condition != expected {
		t.Errorf("Expected condition %q, got %q", expected, where.Condition)
	}
	if len(where.Joins) != 0 {
		t.Errorf("Expected no joins, got %v", where.Joins)
	}

	expectedParams := Params{
		{Name: "Color", Value: "blue"},
		{Name: "Sold", Value: "0"},
	}
	if !reflect.DeepEqual(where.Params, expectedParams) {
		t.Errorf("Expected params %v, got %v", expectedParams, where.Params)
	}
}

func TestWhere_BooleanNormalizationPerDialect(t *testing.T) {
	gen := newCarGenerator(t, DialectPostgres)

	where, err := gen.Where([]Filter{{Field: "Sold", Op: OpEqual, Value: false}})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}

	value, ok := where.Params.Get("Sold")
	if !ok {
		t.Fatal("Expected Sold binding")
	}
	if value != "false" {
		t.Errorf("Expected %q, got %v", "false", value)
	}
}

func TestWhere_ComparisonOperators(t *testing.T) {
	tests := []struct {
		op       Operator
		expected string
	}{
		{OpNotEqual, "car.color <> :Color"},
		{OpGreaterThan, "car.color > :Color"},
		{OpGreaterOrEqual, "car.color >= :Color"},
		{OpLessThan, "car.color < :Color"},
		{OpLessOrEqual, "car.color <= :Color"},
		{OpLike, "car.color LIKE :Color"},
	}

	for _, tt := range tests {
		gen := newCarGenerator(t, DialectSQLite)
		where, err := gen.Where([]Filter{{Field: "Color", Op: tt.op, Value: "blue"}})
		if err != nil {
			t.Fatalf("Where failed for %s: %v", tt.op, err)
		}
		if where.Condition != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.op, tt.expected, where.Condition)
		}
	}
}

func TestWhere_IsNull(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{{Field: "Color", Op: OpIsNull}})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}
	if where.Condition != "car.color IS NULL" {
		t.Errorf("Expected %q, got %q", "car.color IS NULL", where.Condition)
	}
	if len(where.Params) != 0 {
		t.Errorf("Expected no params, got %v", where.Params)
	}
}

func TestWhere_In(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{
		{Field: "Color", Op: OpIn, Value: []interface{}{"red", "blue", "green"}},
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}

	expected := "car.color IN (:Color, :Color_2, :Color_3)"
	if where.Condition != expected {
		t.Errorf("Expected %q, got %q", expected, where.Condition)
	}
	if len(where.Params) != 3 {
		t.Fatalf("Expected 3 params, got %d", len(where.Params))
	}
	if where.Params[1].Name != "Color_2" || where.Params[1].Value != "blue" {
		t.Errorf("Unexpected second param %v", where.Params[1])
	}
}

func TestWhere_InTypedSlice(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{{Field: "OwnerID", Op: OpIn, Value: []uint{1, 2}}})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}
	if where.Condition != "car.owner_id IN (:OwnerID, :OwnerID_2)" {
		t.Errorf("Unexpected condition %q", where.Condition)
	}
}

func TestWhere_InEmpty(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	if _, err := gen.Where([]Filter{{Field: "Color", Op: OpIn, Value: []interface{}{}}}); err == nil {
		t.Error("Expected error for empty in operand list")
	}
}

func TestWhere_RelationHop(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{
		{Field: "Owner/Name", Op: OpEqual, Value: "Alice"},
		{Field: "Color", Op: OpEqual, Value: "blue"},
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}

	expected := "owner.name = :Name AND car.color = :Color"
	if where.Condition != expected {
		t.Errorf("Expected %q, got %q", expected, where.Condition)
	}
	if len(where.Joins) != 1 || where.Joins[0] != "car.owner_id = owner.id" {
		t.Errorf("Expected join predicate, got %v", where.Joins)
	}
}

func TestWhere_RelationJoinDeduplicated(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{
		{Field: "Owner/Name", Op: OpLike, Value: "A%"},
		{Field: "Owner/Name", Op: OpNotEqual, Value: "Admin"},
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}

	if len(where.Joins) != 1 {
		t.Errorf("Expected 1 deduplicated join, got %v", where.Joins)
	}
	// Repeated filters on one field must not collide on token.
	expected := "owner.name LIKE :Name AND owner.name <> :Name_2"
	if where.Condition != expected {
		t.Errorf("Expected %q, got %q", expected, where.Condition)
	}
}

func TestWhere_SharedFieldNameAcrossEntities(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{
		{Field: "Name", Op: OpEqual, Value: "Fiesta"},
		{Field: "Owner/Name", Op: OpEqual, Value: "Alice"},
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}

	// The second entity's token is disambiguated with its alias.
	expected := "car.name = :Name AND owner.name = :owner_Name"
	if where.Condition != expected {
		t.Errorf("Expected %q, got %q", expected, where.Condition)
	}
}

func TestWhere_NestedComposition(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	where, err := gen.Where([]Filter{
		{Op: OpOr, Filters: []Filter{
			{Field: "Color", Op: OpEqual, Value: "blue"},
			{Op: OpAnd, Filters: []Filter{
				{Field: "Color", Op: OpEqual, Value: "red"},
				{Field: "Sold", Op: OpEqual, Value: false},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}

	expected := "(car.color = :Color OR (car.color = :Color_2 AND car.sold = :Sold))"
	if where.Condition != expected {
		t.Errorf("Expected %q, got %q", expected, where.Condition)
	}
}

func TestWhere_UnsupportedOperator(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	_, err := gen.Where([]Filter{{Field: "Color", Op: "regex", Value: ".*"}})
	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Errorf("Expected ErrUnsupportedOperator, got %v", err)
	}
}

func TestWhere_UnknownField(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	_, err := gen.Where([]Filter{{Field: "Mileage", Op: OpEqual, Value: 1}})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestWhere_UnknownRelationPath(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	_, err := gen.Where([]Filter{{Field: "Dealer/Name", Op: OpEqual, Value: "x"}})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestWhere_TwoHopPathRejected(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	_, err := gen.Where([]Filter{{Field: "Owner/Cars/Color", Op: OpEqual, Value: "x"}})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

// TestWhere_AbortsWholeParse verifies that a malformed expression rejects
// the full collection instead of dropping the bad clause.
func TestWhere_AbortsWholeParse(t *testing.T) {
	gen := newCarGenerator(t, DialectSQLite)

	_, err := gen.Where([]Filter{
		{Field: "Color", Op: OpEqual, Value: "blue"},
		{Field: "Color", Op: "between", Value: 1},
	})
	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Errorf("Expected ErrUnsupportedOperator, got %v", err)
	}
}
