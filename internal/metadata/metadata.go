// Package metadata normalizes the relational metadata of entity types.
//
// An entity is any Go struct whose fields map onto the columns of a single
// database table. Metadata is extracted once per type and cached for the
// process lifetime; the resulting EntityMetadata values are never mutated
// after construction.
package metadata

import (
	"errors"
	"reflect"
)

// ErrUnmappedType is returned when a type carries no relational mapping.
// The caller must register or tag the type before fragments can be
// generated for it.
var ErrUnmappedType = errors.New("esql: type has no relational mapping")

// EntityMetadata holds the normalized relational metadata for one entity type.
type EntityMetadata struct {
	// EntityType is the underlying struct type (pointers dereferenced).
	EntityType reflect.Type
	// EntityName is the short type name, used for alias derivation.
	EntityName string
	// TableName is the database table backing this entity.
	TableName string
	// Fields holds the structural fields in declaration order.
	Fields []FieldMetadata
	// Keys holds the identifier fields in declaration order. Never empty.
	Keys []FieldMetadata
	// Relations holds declared associations to other entity types.
	Relations []RelationMetadata
}

// FieldMetadata describes one mapped struct field.
type FieldMetadata struct {
	// Name is the Go struct field name.
	Name string
	// ColumnName is the database column backing this field.
	ColumnName string
	// Type is the Go field type.
	Type reflect.Type
	// IsKey reports whether the field is part of the entity identifier.
	IsKey bool
}

// RelationMetadata describes a declared association between two entity types.
type RelationMetadata struct {
	// FieldName is the navigation field on the subject entity.
	FieldName string
	// TargetName is the entity name of the related type.
	TargetName string
	// TargetType is the related struct type.
	TargetType reflect.Type
	// ForeignKeyColumn is the foreign key column. It lives on the subject
	// table when Owned is true, on the target table otherwise.
	ForeignKeyColumn string
	// ReferencedColumn is the column the foreign key points at.
	ReferencedColumn string
	// Owned reports whether the subject entity holds the foreign key.
	Owned bool
	// IsCollection reports whether the navigation field is a slice.
	IsCollection bool
}

// Field returns the metadata for the named struct field.
func (m *EntityMetadata) Field(name string) (FieldMetadata, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldMetadata{}, false
}

// Relation returns the relation declared on the named navigation field.
func (m *EntityMetadata) Relation(fieldName string) (RelationMetadata, bool) {
	for _, r := range m.Relations {
		if r.FieldName == fieldName {
			return r, true
		}
	}
	return RelationMetadata{}, false
}

// RelationTo returns the first relation whose target is the given entity type.
func (m *EntityMetadata) RelationTo(target reflect.Type) (RelationMetadata, bool) {
	for _, r := range m.Relations {
		if r.TargetType == target {
			return r, true
		}
	}
	return RelationMetadata{}, false
}

// FieldNames returns the mapped field names in declaration order.
func (m *EntityMetadata) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// KeyNames returns the identifier field names in declaration order.
func (m *EntityMetadata) KeyNames() []string {
	names := make([]string, len(m.Keys))
	for i, f := range m.Keys {
		names[i] = f.Name
	}
	return names
}
