package esql

import (
	"fmt"
	"reflect"
	"strings"
)

// MapRow maps a flat, column-name-keyed result row onto the target entity.
// The target must be a non-nil pointer to a mapped struct. Every identifier
// column must be present in the row or the call fails with ErrUnmappableRow;
// non-identifier columns absent from the row leave their fields untouched.
//
// Values are assigned or converted as-is, with no coercion beyond Go's
// convertibility rules. Joined columns belonging to a related entity are
// not hydrated from the same row: extract them with SubRow and map them
// with a second call against the related type.
func (s *Service) MapRow(row map[string]interface{}, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("esql: map target must be a non-nil pointer, got %T", target)
	}

	meta, err := s.provider.Resolve(target)
	if err != nil {
		return err
	}

	for _, key := range meta.Keys {
		if _, ok := row[key.ColumnName]; !ok {
			return fmt.Errorf("%w: %s requires column %q", ErrUnmappableRow, meta.EntityName, key.ColumnName)
		}
	}

	structValue := v.Elem()
	for _, field := range meta.Fields {
		raw, ok := row[field.ColumnName]
		if !ok || raw == nil {
			continue
		}

		dst := structValue.FieldByName(field.Name)
		if !dst.IsValid() || !dst.CanSet() {
			continue
		}
		if err := assign(dst, raw); err != nil {
			return fmt.Errorf("esql: cannot map column %q onto %s.%s: %w", field.ColumnName, meta.EntityName, field.Name, err)
		}
	}

	return nil
}

// assign sets a struct field from a raw row value, allocating through
// pointers and converting where Go allows it.
func assign(dst reflect.Value, raw interface{}) error {
	src := reflect.ValueOf(raw)

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}

	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("value of type %s is not assignable to %s", src.Type(), dst.Type())
	}
	return nil
}

// SubRow extracts the columns of a joined related entity from a combined
// row: every key starting with prefix is returned with the prefix stripped.
// Pair it with aliased column lists like "o.name AS owner_name" and a
// second MapRow call against the related type.
func SubRow(row map[string]interface{}, prefix string) map[string]interface{} {
	sub := make(map[string]interface{})
	for column, value := range row {
		if strings.HasPrefix(column, prefix) {
			sub[strings.TrimPrefix(column, prefix)] = value
		}
	}
	return sub
}
