package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// FilterCondition is a leaf predicate: one field, one operator, up to two
// operand values. ValueEnd is only read by range operators (BETWEEN holds
// the upper bound, IN_LAST / IN_NEXT hold the period unit).
type FilterCondition struct {
	ID       uuid.UUID      `json:"id"`
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    FilterValue    `json:"value"`
	ValueEnd FilterValue    `json:"valueEnd"`
}

// NewFilterCondition creates a condition with a fresh identifier.
func NewFilterCondition(field string, operator FilterOperator, value, valueEnd FilterValue) FilterCondition {
	return FilterCondition{
		ID:       uuid.New(),
		Field:    field,
		Operator: operator,
		Value:    value,
		ValueEnd: valueEnd,
	}
}

// Clone copies the condition. List-typed operand payloads are copied, not
// shared.
func (c FilterCondition) Clone() FilterCondition {
	c.Value = c.Value.Clone()
	c.ValueEnd = c.ValueEnd.Clone()
	return c
}

// FilterDefinition is a filter group: a logical operator over ordered child
// conditions and nested groups. Depth is caller-bounded; the model itself
// does not enforce a limit.
type FilterDefinition struct {
	Operator   LogicalOperator    `json:"operator"`
	Conditions []FilterCondition  `json:"conditions"`
	Groups     []FilterDefinition `json:"groups"`
}

// NewFilterDefinition returns an empty AND group, the neutral element that
// matches every item.
func NewFilterDefinition() FilterDefinition {
	return FilterDefinition{Operator: LogicalAnd}
}

// IsEmpty reports whether the group carries no conditions anywhere in its
// subtree.
func (f FilterDefinition) IsEmpty() bool {
	if len(f.Conditions) > 0 {
		return false
	}
	for _, group := range f.Groups {
		if !group.IsEmpty() {
			return false
		}
	}
	return true
}

// TotalConditionCount counts conditions across the whole subtree. Callers
// use it to enforce UI-level condition limits.
func (f FilterDefinition) TotalConditionCount() int {
	total := len(f.Conditions)
	for _, group := range f.Groups {
		total += group.TotalConditionCount()
	}
	return total
}

// Clone deep-copies the tree so an applied snapshot can be reverted without
// mutating the original.
func (f FilterDefinition) Clone() FilterDefinition {
	cloned := FilterDefinition{Operator: f.Operator}
	if f.Conditions != nil {
		cloned.Conditions = make([]FilterCondition, len(f.Conditions))
		for i, condition := range f.Conditions {
			cloned.Conditions[i] = condition.Clone()
		}
	}
	if f.Groups != nil {
		cloned.Groups = make([]FilterDefinition, len(f.Groups))
		for i, group := range f.Groups {
			cloned.Groups[i] = group.Clone()
		}
	}
	return cloned
}

// FilterToJSON serializes a filter tree to the wire format.
func FilterToJSON(f FilterDefinition) (json.RawMessage, error) {
	return json.Marshal(f)
}

// FilterFromJSON parses the wire format. Malformed input is a hard error;
// it is never silently degraded.
func FilterFromJSON(data json.RawMessage) (FilterDefinition, error) {
	var f FilterDefinition
	if err := json.Unmarshal(data, &f); err != nil {
		return FilterDefinition{}, fmt.Errorf("parse filter: %w", err)
	}
	return f, nil
}

// UnmarshalJSON reads a group, accepting operator names case-insensitively
// and defaulting a missing operator to AND.
func (f *FilterDefinition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Operator   string             `json:"operator"`
		Conditions []FilterCondition  `json:"conditions"`
		Groups     []FilterDefinition `json:"groups"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	operator := LogicalAnd
	if raw.Operator != "" {
		parsed, ok := LogicalOperatorFromString(raw.Operator)
		if !ok {
			return fmt.Errorf("unknown logical operator %q", raw.Operator)
		}
		operator = parsed
	}

	*f = FilterDefinition{
		Operator:   operator,
		Conditions: raw.Conditions,
		Groups:     raw.Groups,
	}
	return nil
}

// UnmarshalJSON reads a condition and re-tags operand slots whose meaning
// depends on the operator: date preset names and period unit names arrive
// as plain strings and are promoted to their symbolic tags here.
func (c *FilterCondition) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       uuid.UUID   `json:"id"`
		Field    string      `json:"field"`
		Operator string      `json:"operator"`
		Value    FilterValue `json:"value"`
		ValueEnd FilterValue `json:"valueEnd"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	operator, ok := FilterOperatorFromString(raw.Operator)
	if !ok {
		return fmt.Errorf("unknown filter operator %q", raw.Operator)
	}

	condition := FilterCondition{
		ID:       raw.ID,
		Field:    raw.Field,
		Operator: operator,
		Value:    raw.Value,
		ValueEnd: raw.ValueEnd,
	}

	if IsDatePresetOperator(operator) && condition.Value.Kind == ValueText {
		if preset, ok := DatePresetFromString(condition.Value.Text); ok {
			condition.Value = PresetValue(preset)
		}
	}
	if (operator == OperatorInLast || operator == OperatorInNext) && condition.ValueEnd.Kind == ValueText {
		if unit, ok := InLastPeriodFromString(condition.ValueEnd.Text); ok {
			condition.ValueEnd = PeriodValue(unit)
		}
	}

	*c = condition
	return nil
}
