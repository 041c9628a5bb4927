package metadata

import (
	"reflect"
	"testing"
)

func TestColumnNameFor(t *testing.T) {
	tests := []struct {
		field    string
		expected string
	}{
		{"ID", "id"},
		{"Name", "name"},
		{"OwnerID", "owner_id"},
		{"CreatedAt", "created_at"},
		{"HTTPTimeout", "http_timeout"},
		{"APIKey", "api_key"},
		{"UUID", "uuid"},
	}

	for _, tt := range tests {
		if got := ColumnNameFor(tt.field); got != tt.expected {
			t.Errorf("ColumnNameFor(%q): expected %q, got %q", tt.field, tt.expected, got)
		}
	}
}

func TestTableNameFor(t *testing.T) {
	if got := TableNameFor(reflect.TypeOf(Car{})); got != "cars" {
		t.Errorf("Expected %q, got %q", "cars", got)
	}
	if got := TableNameFor(reflect.TypeOf(&Owner{})); got != "owners" {
		t.Errorf("Expected %q, got %q", "owners", got)
	}
}

func TestTableNameFor_AcronymName(t *testing.T) {
	type APIToken struct {
		ID uint
	}
	if got := TableNameFor(reflect.TypeOf(APIToken{})); got != "api_tokens" {
		t.Errorf("Expected %q, got %q", "api_tokens", got)
	}
}

func TestTableNameFor_TablerOverride(t *testing.T) {
	if got := TableNameFor(reflect.TypeOf(legacyRecord{})); got != "legacy_records" {
		t.Errorf("Expected %q, got %q", "legacy_records", got)
	}
}
