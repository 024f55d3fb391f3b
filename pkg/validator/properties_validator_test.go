package validator

import (
	"testing"

	"github.com/rpattn/filterql/internal/domain"
)

var catalogFields = []domain.FilterField{
	{Name: "name", Type: domain.FilterFieldTypeText},
	{Name: "count", Type: domain.FilterFieldTypeNumber},
	{Name: "active", Type: domain.FilterFieldTypeBoolean},
	{Name: "installed", Type: domain.FilterFieldTypeDate},
	{Name: "status", Type: domain.FilterFieldTypeEnum, Options: []domain.FilterFieldOption{
		{Value: "ACTIVE"}, {Value: "RETIRED"},
	}},
}

func TestValidatePropertiesAccepts(t *testing.T) {
	pv := NewPropertiesValidator()

	result := pv.ValidateProperties(map[string]any{
		"name":      "Pump A",
		"count":     3.0,
		"active":    true,
		"installed": "2024-01-17T00:00:00Z",
		"status":    "active",
	}, catalogFields)

	if !result.IsValid {
		t.Errorf("expected valid, got errors %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings %+v", result.Warnings)
	}
}

func TestValidatePropertiesTypeErrors(t *testing.T) {
	pv := NewPropertiesValidator()

	tests := []struct {
		name  string
		props map[string]any
	}{
		{"number gets text", map[string]any{"count": "plenty"}},
		{"text gets number", map[string]any{"name": 3.0}},
		{"boolean gets text", map[string]any{"active": "sometimes"}},
		{"date gets garbage", map[string]any{"installed": "next tuesday"}},
		{"enum outside options", map[string]any{"status": "UNKNOWN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pv.ValidateProperties(tt.props, catalogFields)
			if result.IsValid || len(result.Errors) != 1 {
				t.Errorf("result = %+v, want one error", result)
			}
		})
	}
}

func TestValidatePropertiesCoercibleStrings(t *testing.T) {
	pv := NewPropertiesValidator()

	result := pv.ValidateProperties(map[string]any{
		"count":  "12.5",
		"active": "true",
	}, catalogFields)
	if !result.IsValid {
		t.Errorf("coercible strings should pass, got %+v", result.Errors)
	}
}

func TestValidatePropertiesUncatalogedWarns(t *testing.T) {
	pv := NewPropertiesValidator()

	result := pv.ValidateProperties(map[string]any{
		"name":   "Pump A",
		"serial": "XJ-42",
	}, catalogFields)

	if !result.IsValid {
		t.Errorf("uncataloged property should not invalidate, got %+v", result.Errors)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Field != "serial" {
		t.Errorf("warnings = %+v, want one about serial", result.Warnings)
	}
}

func TestValidatePropertiesMissingAndNilSkip(t *testing.T) {
	pv := NewPropertiesValidator()

	result := pv.ValidateProperties(map[string]any{"count": nil}, catalogFields)
	if !result.IsValid {
		t.Errorf("nil values should be skipped, got %+v", result.Errors)
	}
}

func TestValidatePropertiesCaseInsensitiveLookup(t *testing.T) {
	pv := NewPropertiesValidator()

	result := pv.ValidateProperties(map[string]any{"Count": "not a number"}, catalogFields)
	if result.IsValid {
		t.Error("property lookup should fold case when matching the catalog")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("folded match should not warn, got %+v", result.Warnings)
	}
}
