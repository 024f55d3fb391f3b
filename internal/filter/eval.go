package filter

import (
	"strings"
	"time"

	"github.com/rpattn/filterql/internal/domain"
)

// Predicate is a compiled in-memory filter over a single item.
type Predicate func(Source) bool

type settings struct {
	now func() time.Time
}

// Option customizes evaluation and compilation.
type Option func(*settings)

// WithNow overrides the clock used to resolve date presets and relative
// windows. Tests use it for deterministic intervals.
func WithNow(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Evaluate builds the direct in-memory predicate for a filter tree. The
// predicate never errors: incomplete conditions impose no restriction,
// unknown fields match nothing, and unreadable item values fail closed on
// comparison operators.
func Evaluate(def domain.FilterDefinition, fields []domain.FilterField, opts ...Option) Predicate {
	s := newSettings(opts)
	return func(item Source) bool {
		return evalGroup(def, fields, item, s.now())
	}
}

func evalGroup(def domain.FilterDefinition, fields []domain.FilterField, item Source, now time.Time) bool {
	results := make([]bool, 0, len(def.Conditions)+len(def.Groups))
	for _, condition := range def.Conditions {
		results = append(results, evalCondition(condition, fields, item, now))
	}
	for _, group := range def.Groups {
		results = append(results, evalGroup(group, fields, item, now))
	}

	// An empty reduction yields true under both AND and OR so an empty
	// filter is the neutral element.
	if len(results) == 0 {
		return true
	}
	if def.Operator == domain.LogicalOr {
		for _, matched := range results {
			if matched {
				return true
			}
		}
		return false
	}
	for _, matched := range results {
		if !matched {
			return false
		}
	}
	return true
}

// conditionIncomplete reports whether a required operand is missing or of a
// shape the operator cannot use. Incomplete conditions are vacuously true
// so a partially-edited filter never over-excludes.
func conditionIncomplete(c domain.FilterCondition) bool {
	if domain.IsValuelessOperator(c.Operator) {
		return false
	}
	switch c.Operator {
	case domain.OperatorBetween:
		return c.Value.IsAbsent() || c.ValueEnd.IsAbsent()
	case domain.OperatorInLast, domain.OperatorInNext:
		if _, ok := operandNumber(c.Value); !ok {
			return true
		}
		return c.ValueEnd.Kind != domain.ValuePeriod
	case domain.OperatorDateIs, domain.OperatorDateIsNot:
		return c.Value.Kind != domain.ValuePreset
	default:
		return c.Value.IsAbsent()
	}
}

// operandUsable reports whether the condition's operands coerce to the
// field's comparison type. Valueless and date-preset shapes are already
// covered by conditionIncomplete.
func operandUsable(c domain.FilterCondition, fieldType domain.FilterFieldType) bool {
	if domain.IsValuelessOperator(c.Operator) || domain.IsDatePresetOperator(c.Operator) {
		return true
	}
	switch c.Operator {
	case domain.OperatorInLast, domain.OperatorInNext:
		return true // shape handled by conditionIncomplete
	case domain.OperatorIn, domain.OperatorNotIn:
		_, ok := operandList(c.Value)
		return ok
	case domain.OperatorContains, domain.OperatorNotContains, domain.OperatorStartsWith, domain.OperatorEndsWith:
		_, ok := operandText(c.Value)
		return ok
	case domain.OperatorBetween:
		if fieldType.IsDateKind() {
			_, okLow := operandInstant(c.Value)
			_, okHigh := operandInstant(c.ValueEnd)
			return okLow && okHigh
		}
		_, okLow := operandNumber(c.Value)
		_, okHigh := operandNumber(c.ValueEnd)
		return okLow && okHigh
	default:
		switch fieldType {
		case domain.FilterFieldTypeNumber:
			_, ok := operandNumber(c.Value)
			return ok
		case domain.FilterFieldTypeDate, domain.FilterFieldTypeDateTime:
			_, ok := operandInstant(c.Value)
			return ok
		default:
			_, ok := operandText(c.Value)
			return ok
		}
	}
}

func evalCondition(c domain.FilterCondition, fields []domain.FilterField, item Source, now time.Time) bool {
	if conditionIncomplete(c) {
		return true
	}

	field, ok := domain.FindFilterField(fields, c.Field)
	if !ok {
		// Unknown field is a data-integrity mismatch, not in-progress
		// input: it excludes everything.
		return false
	}

	// An operator the catalog does not list for this type should never be
	// seen; if it is, stay neutral rather than raising.
	if !domain.OperatorAppliesTo(c.Operator, field.Type) {
		return true
	}

	// Operand coercion failure degrades to vacuous truth before any item
	// value is read, so both backends agree on the outcome.
	if !operandUsable(c, field.Type) {
		return true
	}

	// An empty candidate set is decided without reading the item: IN keeps
	// every item, NOT_IN keeps none.
	if c.Operator == domain.OperatorIn || c.Operator == domain.OperatorNotIn {
		if candidates, ok := operandList(c.Value); ok && len(candidates) == 0 {
			return c.Operator == domain.OperatorIn
		}
	}

	current, present := lookupAccessor(item.TypeName(), field.Name)(item)

	switch c.Operator {
	case domain.OperatorIsEmpty:
		return fieldValueEmpty(field.Type, current, present)
	case domain.OperatorIsNotEmpty:
		return !fieldValueEmpty(field.Type, current, present)
	case domain.OperatorIsTrue, domain.OperatorIsFalse:
		value, readable := itemBool(current)
		if !present || !readable {
			return false
		}
		if c.Operator == domain.OperatorIsTrue {
			return value
		}
		return !value
	}

	if !hasUsableValue(field.Type, current, present) {
		// Comparison operators fail closed on unreadable values.
		return false
	}

	switch c.Operator {
	case domain.OperatorEquals:
		matched, comparable := equalityMatch(field.Type, current, c.Value)
		return comparable && matched
	case domain.OperatorNotEquals:
		matched, comparable := equalityMatch(field.Type, current, c.Value)
		return comparable && !matched
	case domain.OperatorContains, domain.OperatorNotContains, domain.OperatorStartsWith, domain.OperatorEndsWith:
		return stringMatch(c.Operator, current, c.Value)
	case domain.OperatorGreaterThan, domain.OperatorGreaterOrEqual, domain.OperatorLessThan, domain.OperatorLessOrEqual:
		return orderingMatch(c.Operator, field.Type, current, c.Value)
	case domain.OperatorBetween:
		return betweenMatch(field.Type, current, c.Value, c.ValueEnd)
	case domain.OperatorDateIs, domain.OperatorDateIsNot:
		window, known := domain.ResolvePreset(c.Value.Preset, now)
		if !known {
			return true
		}
		instant, readable := itemInstant(current)
		if !readable {
			return false
		}
		if c.Operator == domain.OperatorDateIs {
			return window.Contains(instant)
		}
		return !window.Contains(instant)
	case domain.OperatorInLast:
		amount, _ := operandNumber(c.Value)
		instant, readable := itemInstant(current)
		if !readable {
			return false
		}
		cutoff := domain.RelativePast(int(amount), c.ValueEnd.Period, now)
		return !instant.Before(cutoff)
	case domain.OperatorInNext:
		amount, _ := operandNumber(c.Value)
		instant, readable := itemInstant(current)
		if !readable {
			return false
		}
		cutoff := domain.RelativeFuture(int(amount), c.ValueEnd.Period, now)
		return !instant.Before(now) && !instant.After(cutoff)
	case domain.OperatorIn, domain.OperatorNotIn:
		return membershipMatch(c.Operator, current, c.Value)
	}

	return true
}

// hasUsableValue reports whether the item carries a value the field's
// comparison type can actually use. It is the direct-backend counterpart
// of the compiled tree's HasValue guard; the two must agree.
func hasUsableValue(fieldType domain.FilterFieldType, current any, present bool) bool {
	if !present || current == nil {
		return false
	}
	switch fieldType {
	case domain.FilterFieldTypeNumber:
		_, ok := itemNumber(current)
		return ok
	case domain.FilterFieldTypeDate, domain.FilterFieldTypeDateTime:
		_, ok := itemInstant(current)
		return ok
	case domain.FilterFieldTypeBoolean:
		_, ok := itemBool(current)
		return ok
	}
	return true
}

// fieldValueEmpty implements IS_EMPTY: no usable value, or blank text.
func fieldValueEmpty(fieldType domain.FilterFieldType, current any, present bool) bool {
	if !hasUsableValue(fieldType, current, present) {
		return true
	}
	switch fieldType {
	case domain.FilterFieldTypeText, domain.FilterFieldTypeEnum:
		return itemIsEmpty(current, present)
	}
	return false
}

// equalityMatch compares an item value and a condition operand under the
// field's comparison type. The second return value is false when either
// side cannot be coerced; equality then fails closed while a bad operand
// alone degrades to vacuous truth.
func equalityMatch(fieldType domain.FilterFieldType, current any, operand domain.FilterValue) (matched, comparable bool) {
	switch fieldType {
	case domain.FilterFieldTypeNumber:
		want, okOperand := operandNumber(operand)
		if !okOperand {
			return true, true
		}
		have, okItem := itemNumber(current)
		if !okItem {
			return false, false
		}
		return have == want, true
	case domain.FilterFieldTypeDate, domain.FilterFieldTypeDateTime:
		want, okOperand := operandInstant(operand)
		if !okOperand {
			return true, true
		}
		have, okItem := itemInstant(current)
		if !okItem {
			return false, false
		}
		return have.Equal(want), true
	default:
		want, okOperand := operandText(operand)
		if !okOperand {
			return true, true
		}
		have, okItem := itemText(current)
		if !okItem {
			return false, false
		}
		return strings.EqualFold(have, want), true
	}
}

func stringMatch(op domain.FilterOperator, current any, operand domain.FilterValue) bool {
	term, okOperand := operandText(operand)
	if !okOperand {
		return true
	}
	have, okItem := itemText(current)
	if !okItem {
		return false
	}
	haveFolded := strings.ToLower(have)
	termFolded := strings.ToLower(term)

	switch op {
	case domain.OperatorContains:
		return strings.Contains(haveFolded, termFolded)
	case domain.OperatorNotContains:
		return !strings.Contains(haveFolded, termFolded)
	case domain.OperatorStartsWith:
		return strings.HasPrefix(haveFolded, termFolded)
	case domain.OperatorEndsWith:
		return strings.HasSuffix(haveFolded, termFolded)
	}
	return true
}

func orderingMatch(op domain.FilterOperator, fieldType domain.FilterFieldType, current any, operand domain.FilterValue) bool {
	if fieldType.IsDateKind() {
		want, okOperand := operandInstant(operand)
		if !okOperand {
			return true
		}
		have, okItem := itemInstant(current)
		if !okItem {
			return false
		}
		return orderingHolds(op, compareInstants(have, want))
	}

	want, okOperand := operandNumber(operand)
	if !okOperand {
		return true
	}
	have, okItem := itemNumber(current)
	if !okItem {
		return false
	}
	switch {
	case have < want:
		return orderingHolds(op, -1)
	case have > want:
		return orderingHolds(op, 1)
	default:
		return orderingHolds(op, 0)
	}
}

func compareInstants(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func orderingHolds(op domain.FilterOperator, cmp int) bool {
	switch op {
	case domain.OperatorGreaterThan:
		return cmp > 0
	case domain.OperatorGreaterOrEqual:
		return cmp >= 0
	case domain.OperatorLessThan:
		return cmp < 0
	case domain.OperatorLessOrEqual:
		return cmp <= 0
	}
	return true
}

// betweenMatch is inclusive on both bounds.
func betweenMatch(fieldType domain.FilterFieldType, current any, low, high domain.FilterValue) bool {
	if fieldType.IsDateKind() {
		lo, okLow := operandInstant(low)
		hi, okHigh := operandInstant(high)
		if !okLow || !okHigh {
			return true
		}
		have, okItem := itemInstant(current)
		if !okItem {
			return false
		}
		return !have.Before(lo) && !have.After(hi)
	}

	lo, okLow := operandNumber(low)
	hi, okHigh := operandNumber(high)
	if !okLow || !okHigh {
		return true
	}
	have, okItem := itemNumber(current)
	if !okItem {
		return false
	}
	return have >= lo && have <= hi
}

func membershipMatch(op domain.FilterOperator, current any, operand domain.FilterValue) bool {
	candidates, okOperand := operandList(operand)
	if !okOperand {
		return true
	}
	// An empty candidate set behaves like an absent filter: IN keeps
	// everything, NOT_IN keeps nothing.
	if len(candidates) == 0 {
		return op == domain.OperatorIn
	}
	have, okItem := itemText(current)
	if !okItem {
		return false
	}
	matched := false
	for _, candidate := range candidates {
		if strings.EqualFold(have, candidate) {
			matched = true
			break
		}
	}
	if op == domain.OperatorIn {
		return matched
	}
	return !matched
}
