package metadata

import (
	"fmt"
	"reflect"
	"strings"
)

// AnalyzeEntity extracts relational metadata from a Go struct.
//
// Columns are derived from `esql:"column:..."` tags (preferred), then
// `gorm:"column:..."` tags, then snake_case conversion of the field name.
// Identifier fields are marked with `esql:"key"` or `gorm:"primaryKey"`;
// when no explicit key is tagged, a field named "ID" is used. Relations
// are declared with foreignKey/references tags on struct or struct-slice
// fields, matching the GORM association conventions.
func AnalyzeEntity(entity interface{}) (*EntityMetadata, error) {
	entityType := reflect.TypeOf(entity)
	for entityType != nil && entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	if entityType == nil || entityType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: entity must be a struct, got %v", ErrUnmappedType, reflect.TypeOf(entity))
	}

	meta := &EntityMetadata{
		EntityType: entityType,
		EntityName: entityType.Name(),
		TableName:  TableNameFor(entityType),
	}

	for i := 0; i < entityType.NumField(); i++ {
		field := entityType.Field(i)
		if !field.IsExported() {
			continue
		}

		tags := parseFieldTags(field)
		if tags.skip {
			continue
		}

		if isNavigationField(field, tags) {
			relation, err := analyzeRelation(entityType, field, tags)
			if err != nil {
				return nil, fmt.Errorf("error analyzing relation %s.%s: %w", meta.EntityName, field.Name, err)
			}
			meta.Relations = append(meta.Relations, relation)
			continue
		}

		column := tags.column
		if column == "" {
			column = ColumnNameFor(field.Name)
		}

		meta.Fields = append(meta.Fields, FieldMetadata{
			Name:       field.Name,
			ColumnName: column,
			Type:       field.Type,
			IsKey:      tags.key,
		})
	}

	if len(meta.Fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no mapped fields", ErrUnmappedType, meta.EntityName)
	}

	collectKeys(meta)
	if len(meta.Keys) == 0 {
		return nil, fmt.Errorf("%w: %s has no identifier field (use `esql:\"key\"` or name a field 'ID')", ErrUnmappedType, meta.EntityName)
	}

	return meta, nil
}

// fieldTags holds the recognized tag values for one struct field.
type fieldTags struct {
	skip       bool
	column     string
	key        bool
	foreignKey string
	references string
}

// parseFieldTags reads the esql tag first and falls back to the gorm tag,
// so entities already tagged for GORM work without re-tagging.
func parseFieldTags(field reflect.StructField) fieldTags {
	var tags fieldTags

	if esqlTag := field.Tag.Get("esql"); esqlTag != "" {
		for _, part := range strings.Split(esqlTag, ",") {
			part = strings.TrimSpace(part)
			switch {
			case part == "-":
				tags.skip = true
			case part == "key":
				tags.key = true
			case strings.HasPrefix(part, "column:"):
				tags.column = strings.TrimPrefix(part, "column:")
			case strings.HasPrefix(part, "foreignKey:"):
				tags.foreignKey = strings.TrimPrefix(part, "foreignKey:")
			case strings.HasPrefix(part, "references:"):
				tags.references = strings.TrimPrefix(part, "references:")
			}
		}
		return tags
	}

	if gormTag := field.Tag.Get("gorm"); gormTag != "" {
		for _, part := range strings.Split(gormTag, ";") {
			part = strings.TrimSpace(part)
			switch {
			case part == "-":
				tags.skip = true
			case part == "primaryKey" || part == "primary_key":
				tags.key = true
			case strings.HasPrefix(part, "column:"):
				tags.column = strings.TrimPrefix(part, "column:")
			case strings.HasPrefix(part, "foreignKey:"):
				tags.foreignKey = strings.TrimPrefix(part, "foreignKey:")
			case strings.HasPrefix(part, "references:"):
				tags.references = strings.TrimPrefix(part, "references:")
			}
		}
	}

	return tags
}

// isNavigationField reports whether a field declares a relation to another
// entity rather than a column. Only struct (or struct-slice) fields with an
// explicit foreignKey or references tag are treated as relations; untagged
// struct fields such as time.Time map to plain columns.
func isNavigationField(field reflect.StructField, tags fieldTags) bool {
	if tags.foreignKey == "" && tags.references == "" {
		return false
	}
	return navigationTargetType(field.Type) != nil
}

// navigationTargetType unwraps slices and pointers down to the related
// struct type, or nil if the field cannot point at an entity.
func navigationTargetType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		return t
	}
	return nil
}

// analyzeRelation resolves the foreign key placement for a navigation field.
// The owning side is the type that physically holds the foreign key column:
// when the tagged key field exists on the subject the relation is owned
// (belongs-to), otherwise the target holds the column (has-one/has-many).
func analyzeRelation(subject reflect.Type, field reflect.StructField, tags fieldTags) (RelationMetadata, error) {
	target := navigationTargetType(field.Type)

	relation := RelationMetadata{
		FieldName:    field.Name,
		TargetName:   target.Name(),
		TargetType:   target,
		IsCollection: field.Type.Kind() == reflect.Slice,
	}

	fkField := tags.foreignKey
	if fkField == "" {
		// GORM convention: <NavigationField>ID on the subject for
		// belongs-to, <SubjectName>ID on the target otherwise.
		if _, ok := subject.FieldByName(field.Name + "ID"); ok {
			fkField = field.Name + "ID"
		} else {
			fkField = subject.Name() + "ID"
		}
	}

	references := tags.references
	if references == "" {
		references = "ID"
	}

	if sf, ok := subject.FieldByName(fkField); ok {
		relation.Owned = true
		relation.ForeignKeyColumn = columnNameOf(sf)
		rf, ok := target.FieldByName(references)
		if !ok {
			return RelationMetadata{}, fmt.Errorf("referenced field %s not found on %s", references, target.Name())
		}
		relation.ReferencedColumn = columnNameOf(rf)
		return relation, nil
	}

	tf, ok := target.FieldByName(fkField)
	if !ok {
		return RelationMetadata{}, fmt.Errorf("foreign key field %s not found on %s or %s", fkField, subject.Name(), target.Name())
	}
	relation.Owned = false
	relation.ForeignKeyColumn = columnNameOf(tf)
	rf, ok := subject.FieldByName(references)
	if !ok {
		return RelationMetadata{}, fmt.Errorf("referenced field %s not found on %s", references, subject.Name())
	}
	relation.ReferencedColumn = columnNameOf(rf)
	return relation, nil
}

// columnNameOf resolves the column name for a struct field, honoring
// explicit column tags.
func columnNameOf(field reflect.StructField) string {
	tags := parseFieldTags(field)
	if tags.column != "" {
		return tags.column
	}
	return ColumnNameFor(field.Name)
}

// collectKeys gathers identifier fields in declaration order, falling back
// to a field named "ID" when nothing is tagged.
func collectKeys(meta *EntityMetadata) {
	for i := range meta.Fields {
		if meta.Fields[i].IsKey {
			meta.Keys = append(meta.Keys, meta.Fields[i])
		}
	}
	if len(meta.Keys) > 0 {
		return
	}
	for i := range meta.Fields {
		if meta.Fields[i].Name == "ID" {
			meta.Fields[i].IsKey = true
			meta.Keys = append(meta.Keys, meta.Fields[i])
			return
		}
	}
}
