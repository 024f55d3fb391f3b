package domain

import "strings"

// LogicalOperator combines child conditions and groups of a filter group.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// LogicalOperatorFromString resolves a logical operator case-insensitively.
func LogicalOperatorFromString(value string) (LogicalOperator, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(LogicalAnd):
		return LogicalAnd, true
	case string(LogicalOr):
		return LogicalOr, true
	}
	return "", false
}

// FilterOperator enumerates every condition operator the engine understands.
type FilterOperator string

const (
	OperatorEquals         FilterOperator = "EQUALS"
	OperatorNotEquals      FilterOperator = "NOT_EQUALS"
	OperatorContains       FilterOperator = "CONTAINS"
	OperatorNotContains    FilterOperator = "NOT_CONTAINS"
	OperatorStartsWith     FilterOperator = "STARTS_WITH"
	OperatorEndsWith       FilterOperator = "ENDS_WITH"
	OperatorGreaterThan    FilterOperator = "GREATER_THAN"
	OperatorGreaterOrEqual FilterOperator = "GREATER_OR_EQUAL"
	OperatorLessThan       FilterOperator = "LESS_THAN"
	OperatorLessOrEqual    FilterOperator = "LESS_OR_EQUAL"
	OperatorBetween        FilterOperator = "BETWEEN"
	OperatorDateIs         FilterOperator = "DATE_IS"
	OperatorDateIsNot      FilterOperator = "DATE_IS_NOT"
	OperatorInLast         FilterOperator = "IN_LAST"
	OperatorInNext         FilterOperator = "IN_NEXT"
	OperatorIn             FilterOperator = "IN"
	OperatorNotIn          FilterOperator = "NOT_IN"
	OperatorIsEmpty        FilterOperator = "IS_EMPTY"
	OperatorIsNotEmpty     FilterOperator = "IS_NOT_EMPTY"
	OperatorIsTrue         FilterOperator = "IS_TRUE"
	OperatorIsFalse        FilterOperator = "IS_FALSE"
)

var allFilterOperators = []FilterOperator{
	OperatorEquals, OperatorNotEquals,
	OperatorContains, OperatorNotContains, OperatorStartsWith, OperatorEndsWith,
	OperatorGreaterThan, OperatorGreaterOrEqual, OperatorLessThan, OperatorLessOrEqual,
	OperatorBetween,
	OperatorDateIs, OperatorDateIsNot, OperatorInLast, OperatorInNext,
	OperatorIn, OperatorNotIn,
	OperatorIsEmpty, OperatorIsNotEmpty,
	OperatorIsTrue, OperatorIsFalse,
}

// FilterOperatorFromString resolves an operator by symbolic name,
// case-insensitively.
func FilterOperatorFromString(value string) (FilterOperator, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, op := range allFilterOperators {
		if normalized == string(op) {
			return op, true
		}
	}
	return "", false
}

// Per-type operator lists. Order matters: it drives picker population in
// host UIs, so both backends and the catalog endpoint share these slices.
var (
	textOperators = []FilterOperator{
		OperatorEquals, OperatorNotEquals,
		OperatorContains, OperatorNotContains,
		OperatorStartsWith, OperatorEndsWith,
		OperatorIn, OperatorNotIn,
		OperatorIsEmpty, OperatorIsNotEmpty,
	}
	numberOperators = []FilterOperator{
		OperatorEquals, OperatorNotEquals,
		OperatorGreaterThan, OperatorGreaterOrEqual,
		OperatorLessThan, OperatorLessOrEqual,
		OperatorBetween,
		OperatorIsEmpty, OperatorIsNotEmpty,
	}
	dateOperators = []FilterOperator{
		OperatorDateIs, OperatorDateIsNot,
		OperatorInLast, OperatorInNext,
		OperatorGreaterThan, OperatorGreaterOrEqual,
		OperatorLessThan, OperatorLessOrEqual,
		OperatorBetween,
		OperatorIsEmpty, OperatorIsNotEmpty,
	}
	booleanOperators = []FilterOperator{
		OperatorIsTrue, OperatorIsFalse,
	}
	enumOperators = []FilterOperator{
		OperatorEquals, OperatorNotEquals,
		OperatorIn, OperatorNotIn,
		OperatorIsEmpty, OperatorIsNotEmpty,
	}
)

// OperatorsForFieldType returns the ordered list of operators that are legal
// for the given field type. Callers must not mutate the returned slice.
func OperatorsForFieldType(fieldType FilterFieldType) []FilterOperator {
	switch fieldType {
	case FilterFieldTypeText:
		return textOperators
	case FilterFieldTypeNumber:
		return numberOperators
	case FilterFieldTypeDate, FilterFieldTypeDateTime:
		return dateOperators
	case FilterFieldTypeBoolean:
		return booleanOperators
	case FilterFieldTypeEnum:
		return enumOperators
	}
	return nil
}

// OperatorAppliesTo reports whether the operator is listed for the type.
func OperatorAppliesTo(op FilterOperator, fieldType FilterFieldType) bool {
	for _, candidate := range OperatorsForFieldType(fieldType) {
		if candidate == op {
			return true
		}
	}
	return false
}

// IsValuelessOperator reports whether the operator reads no operands.
// Valueless operators are never considered incomplete.
func IsValuelessOperator(op FilterOperator) bool {
	switch op {
	case OperatorIsEmpty, OperatorIsNotEmpty, OperatorIsTrue, OperatorIsFalse:
		return true
	}
	return false
}

// IsRangeOperator reports whether the operator reads both Value and
// ValueEnd. IN_LAST and IN_NEXT store the amount in Value and the period
// unit in ValueEnd, so they classify as range operators too.
func IsRangeOperator(op FilterOperator) bool {
	switch op {
	case OperatorBetween, OperatorInLast, OperatorInNext:
		return true
	}
	return false
}

// IsDatePresetOperator reports whether the operator takes a DatePreset tag
// in Value and no ValueEnd.
func IsDatePresetOperator(op FilterOperator) bool {
	return op == OperatorDateIs || op == OperatorDateIsNot
}
