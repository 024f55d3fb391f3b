package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestEntityFieldValue(t *testing.T) {
	entity := NewEntity(uuid.New(), "equipment", map[string]any{
		"Name": "Pump A",
		"age":  3.0,
	})

	if value, ok := entity.FieldValue("Name"); !ok || value != "Pump A" {
		t.Errorf("exact lookup = %v, %v", value, ok)
	}
	if value, ok := entity.FieldValue("name"); !ok || value != "Pump A" {
		t.Errorf("fold lookup = %v, %v", value, ok)
	}
	if _, ok := entity.FieldValue("missing"); ok {
		t.Error("missing property should not resolve")
	}
}

func TestEntityWithPropertyDoesNotMutateOriginal(t *testing.T) {
	original := NewEntity(uuid.New(), "equipment", map[string]any{"status": "ACTIVE"})
	updated := original.WithProperty("status", "RETIRED")

	if original.Properties["status"] != "ACTIVE" {
		t.Error("WithProperty mutated the original property bag")
	}
	if updated.Properties["status"] != "RETIRED" {
		t.Error("WithProperty did not set the new value")
	}
}

func TestEntityPropertiesJSONBRoundTrip(t *testing.T) {
	entity := NewEntity(uuid.New(), "equipment", map[string]any{"name": "Pump A", "age": 3.0})

	data, err := entity.GetPropertiesAsJSONB()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	properties, err := FromJSONBProperties(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if properties["name"] != "Pump A" || properties["age"] != 3.0 {
		t.Errorf("round trip = %v", properties)
	}
}

func TestNormalizePropertyKeys(t *testing.T) {
	fields := []FilterField{
		{Name: "name", Type: FilterFieldTypeText},
		{Name: "count", Type: FilterFieldTypeNumber},
	}
	properties := NormalizePropertyKeys(map[string]any{
		"Name":   "Pump A",
		"COUNT":  3.0,
		"vendor": "Acme",
	}, fields)

	if properties["name"] != "Pump A" {
		t.Errorf("name = %v, want cataloged key", properties["name"])
	}
	if properties["count"] != 3.0 {
		t.Errorf("count = %v, want cataloged key", properties["count"])
	}
	if properties["vendor"] != "Acme" {
		t.Errorf("vendor = %v, uncataloged key should survive verbatim", properties["vendor"])
	}
	if _, ok := properties["Name"]; ok {
		t.Error("original casing should be replaced")
	}
}
