package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FilterValueKind tags the variant held by a FilterValue.
type FilterValueKind string

const (
	ValueAbsent   FilterValueKind = "ABSENT"
	ValueText     FilterValueKind = "TEXT"
	ValueNumber   FilterValueKind = "NUMBER"
	ValueBoolean  FilterValueKind = "BOOLEAN"
	ValueInstant  FilterValueKind = "INSTANT"
	ValuePreset   FilterValueKind = "PRESET"
	ValuePeriod   FilterValueKind = "PERIOD"
	ValueTextList FilterValueKind = "TEXT_LIST"
)

// instantWireFormat is the round-trip layout used for instants on the wire.
// Deserialization only re-reads a string as an instant when re-formatting
// the parsed value reproduces the token exactly, so ordinary text that
// merely looks date-like stays text.
const instantWireFormat = time.RFC3339Nano

// FilterValue is the polymorphic operand slot of a condition: exactly one
// variant is populated, selected by Kind. The zero value is Absent.
type FilterValue struct {
	Kind    FilterValueKind
	Text    string
	Number  float64
	Boolean bool
	Instant time.Time
	Preset  DatePreset
	Period  InLastPeriod
	List    []string
}

func NoValue() FilterValue                    { return FilterValue{Kind: ValueAbsent} }
func TextValue(v string) FilterValue          { return FilterValue{Kind: ValueText, Text: v} }
func NumberValue(v float64) FilterValue       { return FilterValue{Kind: ValueNumber, Number: v} }
func BooleanValue(v bool) FilterValue         { return FilterValue{Kind: ValueBoolean, Boolean: v} }
func InstantValue(v time.Time) FilterValue    { return FilterValue{Kind: ValueInstant, Instant: v} }
func PresetValue(v DatePreset) FilterValue    { return FilterValue{Kind: ValuePreset, Preset: v} }
func PeriodValue(v InLastPeriod) FilterValue  { return FilterValue{Kind: ValuePeriod, Period: v} }
func TextListValue(v []string) FilterValue    { return FilterValue{Kind: ValueTextList, List: v} }

// IsAbsent reports whether no operand is present. A zero-valued FilterValue
// counts as absent so that an unset struct field behaves like null input.
func (v FilterValue) IsAbsent() bool {
	return v.Kind == ValueAbsent || v.Kind == ""
}

// Clone copies the value. List-typed payloads are copied so a cloned
// condition never shares mutable state with its source; scalars are shared.
func (v FilterValue) Clone() FilterValue {
	if v.Kind == ValueTextList && v.List != nil {
		copied := make([]string, len(v.List))
		copy(copied, v.List)
		v.List = copied
	}
	return v
}

// Equal compares two values structurally.
func (v FilterValue) Equal(other FilterValue) bool {
	if v.IsAbsent() && other.IsAbsent() {
		return true
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueText:
		return v.Text == other.Text
	case ValueNumber:
		return v.Number == other.Number
	case ValueBoolean:
		return v.Boolean == other.Boolean
	case ValueInstant:
		return v.Instant.Equal(other.Instant)
	case ValuePreset:
		return v.Preset == other.Preset
	case ValuePeriod:
		return v.Period == other.Period
	case ValueTextList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != other.List[i] {
				return false
			}
		}
		return true
	}
	return true
}

// MarshalJSON writes the wire representation: absent values serialize as
// null, symbolic tags as their names, instants in the fixed round-trip
// layout, everything else as the natural JSON scalar.
func (v FilterValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueAbsent, "":
		return []byte("null"), nil
	case ValueText:
		return json.Marshal(v.Text)
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueBoolean:
		return json.Marshal(v.Boolean)
	case ValueInstant:
		return json.Marshal(v.Instant.Format(instantWireFormat))
	case ValuePreset:
		return json.Marshal(string(v.Preset))
	case ValuePeriod:
		return json.Marshal(string(v.Period))
	case ValueTextList:
		list := v.List
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	}
	return nil, fmt.Errorf("unknown filter value kind %q", v.Kind)
}

// UnmarshalJSON reads the wire representation. String tokens only become
// instants when they exactly match the round-trip format used on write;
// preset and period tags are recovered later from the condition operator,
// since on the wire they are indistinguishable from plain text.
func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch value := raw.(type) {
	case nil:
		*v = NoValue()
	case bool:
		*v = BooleanValue(value)
	case float64:
		*v = NumberValue(value)
	case string:
		if parsed, err := time.Parse(instantWireFormat, value); err == nil &&
			parsed.Format(instantWireFormat) == value {
			*v = InstantValue(parsed)
		} else {
			*v = TextValue(value)
		}
	case []any:
		list := make([]string, 0, len(value))
		for _, item := range value {
			text, ok := item.(string)
			if !ok {
				return fmt.Errorf("filter value list may only contain strings, got %T", item)
			}
			list = append(list, text)
		}
		*v = TextListValue(list)
	default:
		return fmt.Errorf("unsupported filter value token %T", raw)
	}
	return nil
}
