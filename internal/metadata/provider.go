package metadata

import (
	"reflect"
	"sync"
)

// Provider resolves entity types to their relational metadata. It is the
// seam between the fragment generator and whatever system owns the actual
// mapping information (struct tags, a GORM schema, a hand-built registry).
//
// Resolve must be pure with respect to the underlying mapping state:
// resolving the same type twice yields equal metadata. Implementations may
// cache; first-population races are benign because population is idempotent.
type Provider interface {
	Resolve(entity interface{}) (*EntityMetadata, error)
}

// ReflectProvider analyzes entity structs via reflection and caches the
// result per type for the process lifetime.
type ReflectProvider struct {
	cache sync.Map // reflect.Type -> *EntityMetadata
}

// NewReflectProvider returns a provider backed by struct-tag analysis.
func NewReflectProvider() *ReflectProvider {
	return &ReflectProvider{}
}

// Resolve returns the metadata for the entity's type, analyzing it on
// first use.
func (p *ReflectProvider) Resolve(entity interface{}) (*EntityMetadata, error) {
	entityType := reflect.TypeOf(entity)
	for entityType != nil && entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}
	if entityType != nil {
		if cached, ok := p.cache.Load(entityType); ok {
			return cached.(*EntityMetadata), nil
		}
	}

	meta, err := AnalyzeEntity(entity)
	if err != nil {
		return nil, err
	}

	actual, _ := p.cache.LoadOrStore(meta.EntityType, meta)
	return actual.(*EntityMetadata), nil
}
