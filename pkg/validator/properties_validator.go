package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/filterql/internal/domain"
)

// PropertiesValidator checks entity properties against a filter field catalog.
type PropertiesValidator struct{}

func NewPropertiesValidator() *PropertiesValidator {
	return &PropertiesValidator{}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// ValidateProperties checks each cataloged field's value against its declared
// type. Properties without a catalog entry are reported as warnings, not
// errors: the catalog drives filtering, it does not own the property bag.
func (pv *PropertiesValidator) ValidateProperties(properties map[string]any, fields []domain.FilterField) ValidationResult {
	result := ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	for _, field := range fields {
		value, exists := lookupProperty(properties, field.Name)
		if !exists || value == nil {
			continue
		}
		if err := pv.validateFieldType(field, value); err != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   field.Name,
				Message: err.Error(),
				Value:   value,
			})
		}
	}

	for propertyName, value := range properties {
		if _, ok := domain.FindFilterField(fields, propertyName); !ok {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   propertyName,
				Message: fmt.Sprintf("property '%s' is not in the field catalog", propertyName),
				Value:   value,
			})
		}
	}

	return result
}

func (pv *PropertiesValidator) validateFieldType(field domain.FilterField, value any) error {
	switch field.Type {
	case domain.FilterFieldTypeText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' must be text, got %T", field.Name, value)
		}
	case domain.FilterFieldTypeNumber:
		if !isNumber(value) {
			return fmt.Errorf("field '%s' must be a number, got %T", field.Name, value)
		}
	case domain.FilterFieldTypeBoolean:
		if !isBoolean(value) {
			return fmt.Errorf("field '%s' must be a boolean, got %T", field.Name, value)
		}
	case domain.FilterFieldTypeDate, domain.FilterFieldTypeDateTime:
		if !isInstant(value) {
			return fmt.Errorf("field '%s' must be a date or timestamp, got %v", field.Name, value)
		}
	case domain.FilterFieldTypeEnum:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s' must be an enum value string, got %T", field.Name, value)
		}
		if len(field.Options) == 0 {
			return nil
		}
		for _, option := range field.Options {
			if strings.EqualFold(option.Value, strVal) {
				return nil
			}
		}
		return fmt.Errorf("field '%s' value '%s' is not an allowed option", field.Name, strVal)
	default:
		return fmt.Errorf("unknown field type: %s", field.Type)
	}
	return nil
}

func lookupProperty(properties map[string]any, name string) (any, bool) {
	if value, ok := properties[name]; ok {
		return value, true
	}
	for key, value := range properties {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case string:
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	default:
		return false
	}
}

func isBoolean(value any) bool {
	switch v := value.(type) {
	case bool:
		return true
	case string:
		_, err := strconv.ParseBool(strings.ToLower(v))
		return err == nil
	default:
		return false
	}
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func isInstant(value any) bool {
	switch v := value.(type) {
	case time.Time, *time.Time:
		return true
	case string:
		for _, layout := range instantLayouts {
			if _, err := time.Parse(layout, v); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}
