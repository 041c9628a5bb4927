package metadata

import (
	"errors"
	"testing"
)

func TestReflectProvider_CachesPerType(t *testing.T) {
	provider := NewReflectProvider()

	first, err := provider.Resolve(Car{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := provider.Resolve(&Car{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if first != second {
		t.Error("Expected the cached metadata instance for repeated resolution")
	}
}

func TestReflectProvider_UnmappedType(t *testing.T) {
	provider := NewReflectProvider()

	_, err := provider.Resolve("not a struct")
	if !errors.Is(err, ErrUnmappedType) {
		t.Errorf("Expected ErrUnmappedType, got %v", err)
	}
}

func TestReflectProvider_DistinctTypes(t *testing.T) {
	provider := NewReflectProvider()

	carMeta, err := provider.Resolve(Car{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	ownerMeta, err := provider.Resolve(Owner{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if carMeta.TableName == ownerMeta.TableName {
		t.Errorf("Expected distinct tables, got %q for both", carMeta.TableName)
	}
}
