package domain

import (
	"encoding/json"
	"testing"
)

func TestFilterDefinitionUnmarshalDefaults(t *testing.T) {
	def, err := FilterFromJSON([]byte(`{"conditions": []}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Operator != LogicalAnd {
		t.Errorf("missing operator defaulted to %s, want AND", def.Operator)
	}
}

func TestFilterDefinitionUnmarshalCaseInsensitive(t *testing.T) {
	def, err := FilterFromJSON([]byte(`{"operator": "or", "conditions": []}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Operator != LogicalOr {
		t.Errorf("operator = %s, want OR", def.Operator)
	}
}

func TestFilterDefinitionUnmarshalRejectsUnknownOperator(t *testing.T) {
	if _, err := FilterFromJSON([]byte(`{"operator": "XOR"}`)); err == nil {
		t.Fatal("expected error for unknown logical operator")
	}
	if _, err := FilterFromJSON([]byte(`{"conditions": [{"field": "a", "operator": "LOOKS_LIKE"}]}`)); err == nil {
		t.Fatal("expected error for unknown condition operator")
	}
}

func TestFilterConditionPromotesPresetTag(t *testing.T) {
	payload := `{"field": "joined", "operator": "DATE_IS", "value": "THIS_WEEK", "valueEnd": null}`
	var condition FilterCondition
	if err := json.Unmarshal([]byte(payload), &condition); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if condition.Value.Kind != ValuePreset || condition.Value.Preset != PresetThisWeek {
		t.Errorf("value = %+v, want THIS_WEEK preset", condition.Value)
	}
}

func TestFilterConditionPromotesPeriodTag(t *testing.T) {
	payload := `{"field": "joined", "operator": "in_last", "value": 7, "valueEnd": "DAYS"}`
	var condition FilterCondition
	if err := json.Unmarshal([]byte(payload), &condition); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if condition.Operator != OperatorInLast {
		t.Errorf("operator = %s, want IN_LAST", condition.Operator)
	}
	if condition.ValueEnd.Kind != ValuePeriod || condition.ValueEnd.Period != PeriodDays {
		t.Errorf("valueEnd = %+v, want DAYS period", condition.ValueEnd)
	}
}

func TestFilterConditionKeepsPresetNameAsTextForOtherOperators(t *testing.T) {
	payload := `{"field": "name", "operator": "EQUALS", "value": "TODAY"}`
	var condition FilterCondition
	if err := json.Unmarshal([]byte(payload), &condition); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if condition.Value.Kind != ValueText {
		t.Errorf("value kind = %s, want TEXT", condition.Value.Kind)
	}
}

func TestFilterDefinitionRoundTrip(t *testing.T) {
	def := NewFilterDefinition()
	def.Conditions = append(def.Conditions,
		NewFilterCondition("name", OperatorContains, TextValue("pump"), NoValue()),
		NewFilterCondition("age", OperatorBetween, NumberValue(10), NumberValue(20)),
	)
	def.Groups = append(def.Groups, FilterDefinition{
		Operator: LogicalOr,
		Conditions: []FilterCondition{
			NewFilterCondition("status", OperatorIn, TextListValue([]string{"ACTIVE", "PENDING"}), NoValue()),
			NewFilterCondition("joined", OperatorDateIs, PresetValue(PresetToday), NoValue()),
		},
	})

	data, err := FilterToJSON(def)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed, err := FilterFromJSON(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.Operator != def.Operator {
		t.Errorf("operator = %s, want %s", parsed.Operator, def.Operator)
	}
	if len(parsed.Conditions) != 2 || len(parsed.Groups) != 1 {
		t.Fatalf("shape = %d conditions, %d groups", len(parsed.Conditions), len(parsed.Groups))
	}
	if !parsed.Conditions[1].ValueEnd.Equal(NumberValue(20)) {
		t.Errorf("between upper bound = %+v", parsed.Conditions[1].ValueEnd)
	}
	preset := parsed.Groups[0].Conditions[1].Value
	if preset.Kind != ValuePreset || preset.Preset != PresetToday {
		t.Errorf("preset survived as %+v", preset)
	}
}

func TestFilterDefinitionIsEmpty(t *testing.T) {
	def := NewFilterDefinition()
	if !def.IsEmpty() {
		t.Error("fresh definition should be empty")
	}

	def.Groups = append(def.Groups, NewFilterDefinition())
	if !def.IsEmpty() {
		t.Error("definition with only empty groups should be empty")
	}

	def.Groups[0].Conditions = append(def.Groups[0].Conditions,
		NewFilterCondition("name", OperatorEquals, TextValue("x"), NoValue()))
	if def.IsEmpty() {
		t.Error("definition with a nested condition should not be empty")
	}
	if got := def.TotalConditionCount(); got != 1 {
		t.Errorf("TotalConditionCount = %d, want 1", got)
	}
}

func TestFilterDefinitionCloneIsIndependent(t *testing.T) {
	def := NewFilterDefinition()
	def.Conditions = append(def.Conditions,
		NewFilterCondition("status", OperatorIn, TextListValue([]string{"A"}), NoValue()))
	def.Groups = append(def.Groups, FilterDefinition{
		Operator:   LogicalOr,
		Conditions: []FilterCondition{NewFilterCondition("name", OperatorEquals, TextValue("x"), NoValue())},
	})

	cloned := def.Clone()
	cloned.Conditions[0].Value.List[0] = "B"
	cloned.Groups[0].Conditions[0].Value = TextValue("y")

	if def.Conditions[0].Value.List[0] != "A" {
		t.Error("clone shares condition list storage")
	}
	if def.Groups[0].Conditions[0].Value.Text != "x" {
		t.Error("clone shares nested group storage")
	}
}
