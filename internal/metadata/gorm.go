package metadata

import (
	"fmt"
	"sync"

	"gorm.io/gorm/schema"
)

// GormProvider resolves entity metadata through GORM's schema parser, so
// applications already mapped with GORM reuse its naming strategy, column
// overrides and association analysis verbatim instead of the esql tag
// conventions.
type GormProvider struct {
	namer      schema.Namer
	cacheStore *sync.Map
}

// NewGormProvider returns a provider backed by gorm.io/gorm/schema.
// A nil namer falls back to GORM's default naming strategy.
func NewGormProvider(namer schema.Namer) *GormProvider {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}
	return &GormProvider{
		namer:      namer,
		cacheStore: &sync.Map{},
	}
}

// Resolve parses the entity with GORM's schema package and converts the
// result to the normalized EntityMetadata form.
func (p *GormProvider) Resolve(entity interface{}) (*EntityMetadata, error) {
	s, err := schema.Parse(entity, p.cacheStore, p.namer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnmappedType, err)
	}

	meta := &EntityMetadata{
		EntityType: s.ModelType,
		EntityName: s.Name,
		TableName:  s.Table,
	}

	for _, f := range s.Fields {
		if f.DBName == "" {
			// Association fields carry no column of their own.
			continue
		}
		meta.Fields = append(meta.Fields, FieldMetadata{
			Name:       f.Name,
			ColumnName: f.DBName,
			Type:       f.FieldType,
			IsKey:      f.PrimaryKey,
		})
		if f.PrimaryKey {
			meta.Keys = append(meta.Keys, FieldMetadata{
				Name:       f.Name,
				ColumnName: f.DBName,
				Type:       f.FieldType,
				IsKey:      true,
			})
		}
	}

	if len(meta.Keys) == 0 {
		return nil, fmt.Errorf("%w: %s has no primary key", ErrUnmappedType, s.Name)
	}

	for _, rel := range relationsInFieldOrder(s) {
		if rel.Type == schema.Many2Many || len(rel.References) == 0 {
			// Join-table associations have no single foreign key column
			// to emit a join predicate from.
			continue
		}
		ref := rel.References[0]
		meta.Relations = append(meta.Relations, RelationMetadata{
			FieldName:        rel.Name,
			TargetName:       rel.FieldSchema.Name,
			TargetType:       rel.FieldSchema.ModelType,
			ForeignKeyColumn: ref.ForeignKey.DBName,
			ReferencedColumn: ref.PrimaryKey.DBName,
			Owned:            rel.Type == schema.BelongsTo,
			IsCollection:     rel.Type == schema.HasMany,
		})
	}

	return meta, nil
}

// relationsInFieldOrder returns the schema's relationships ordered by their
// struct field declaration, keeping metadata ordering deterministic (the
// Relations map iterates randomly).
func relationsInFieldOrder(s *schema.Schema) []*schema.Relationship {
	ordered := make([]*schema.Relationship, 0, len(s.Relationships.Relations))
	for i := 0; i < s.ModelType.NumField(); i++ {
		name := s.ModelType.Field(i).Name
		if rel, ok := s.Relationships.Relations[name]; ok {
			ordered = append(ordered, rel)
		}
	}
	return ordered
}
