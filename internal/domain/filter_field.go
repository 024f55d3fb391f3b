package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FilterFieldType enumerates the comparison types a filterable field can have.
type FilterFieldType string

const (
	FilterFieldTypeText     FilterFieldType = "TEXT"
	FilterFieldTypeNumber   FilterFieldType = "NUMBER"
	FilterFieldTypeDate     FilterFieldType = "DATE"
	FilterFieldTypeDateTime FilterFieldType = "DATETIME"
	FilterFieldTypeBoolean  FilterFieldType = "BOOLEAN"
	FilterFieldTypeEnum     FilterFieldType = "ENUM"
)

// FilterFieldTypeFromString resolves a field type by its symbolic name,
// case-insensitively.
func FilterFieldTypeFromString(value string) (FilterFieldType, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(FilterFieldTypeText):
		return FilterFieldTypeText, true
	case string(FilterFieldTypeNumber):
		return FilterFieldTypeNumber, true
	case string(FilterFieldTypeDate):
		return FilterFieldTypeDate, true
	case string(FilterFieldTypeDateTime):
		return FilterFieldTypeDateTime, true
	case string(FilterFieldTypeBoolean):
		return FilterFieldTypeBoolean, true
	case string(FilterFieldTypeEnum):
		return FilterFieldTypeEnum, true
	}
	return "", false
}

// UnmarshalJSON accepts type names case-insensitively.
func (t *FilterFieldType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := FilterFieldTypeFromString(raw)
	if !ok {
		return fmt.Errorf("unknown filter field type %q", raw)
	}
	*t = parsed
	return nil
}

// IsDateKind reports whether the type compares as an instant in time.
func (t FilterFieldType) IsDateKind() bool {
	return t == FilterFieldTypeDate || t == FilterFieldTypeDateTime
}

// FilterFieldOption is one selectable value of an enum field.
type FilterFieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterField is host-supplied metadata describing a filterable field.
// Pure data, no behavior beyond lookup helpers.
type FilterField struct {
	Name    string              `json:"name"`
	Label   string              `json:"label"`
	Type    FilterFieldType     `json:"type"`
	Options []FilterFieldOption `json:"options,omitempty"`
}

// FindFilterField resolves a field by name, case-insensitively. The second
// return value is false when the name is not part of the catalog.
func FindFilterField(fields []FilterField, name string) (FilterField, bool) {
	for _, field := range fields {
		if strings.EqualFold(field.Name, name) {
			return field, true
		}
	}
	return FilterField{}, false
}
