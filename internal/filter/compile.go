package filter

import (
	"strings"

	"github.com/rpattn/filterql/internal/domain"
)

// Compile builds the expression tree for a filter. The tree is
// semantically equivalent to the direct predicate from Evaluate — the only
// accepted divergence is case folding, where compiled string operations
// use the invariant strings.ToLower fold so a remote translator can lower
// them. Compilation never fails: every degenerate input folds into a
// Constant node.
func Compile(def domain.FilterDefinition, fields []domain.FilterField, opts ...Option) Node {
	s := newSettings(opts)
	return compileGroup(def, fields, s)
}

func compileGroup(def domain.FilterDefinition, fields []domain.FilterField, s settings) Node {
	children := make([]Node, 0, len(def.Conditions)+len(def.Groups))
	for _, condition := range def.Conditions {
		children = append(children, compileCondition(condition, fields, s))
	}
	for _, group := range def.Groups {
		children = append(children, compileGroup(group, fields, s))
	}

	if len(children) == 0 {
		return Constant{Value: true}
	}
	if len(children) == 1 {
		return children[0]
	}
	if def.Operator == domain.LogicalOr {
		return Or{Children: children}
	}
	return And{Children: children}
}

func compileCondition(c domain.FilterCondition, fields []domain.FilterField, s settings) Node {
	if conditionIncomplete(c) {
		return Constant{Value: true}
	}

	field, ok := domain.FindFilterField(fields, c.Field)
	if !ok {
		return Constant{Value: false}
	}
	if !domain.OperatorAppliesTo(c.Operator, field.Type) {
		return Constant{Value: true}
	}
	if !operandUsable(c, field.Type) {
		return Constant{Value: true}
	}

	ref := FieldRef{Name: field.Name, Type: field.Type}
	guarded := func(nodes ...Node) Node {
		children := append([]Node{HasValue{Field: ref}}, nodes...)
		if len(children) == 1 {
			return children[0]
		}
		return And{Children: children}
	}

	switch c.Operator {
	case domain.OperatorIsEmpty:
		if ref.Type == domain.FilterFieldTypeText || ref.Type == domain.FilterFieldTypeEnum {
			return Or{Children: []Node{
				Not{Child: HasValue{Field: ref}},
				StringMatch{Op: MatchExact, Field: ref, Term: ""},
			}}
		}
		return Not{Child: HasValue{Field: ref}}
	case domain.OperatorIsNotEmpty:
		if ref.Type == domain.FilterFieldTypeText || ref.Type == domain.FilterFieldTypeEnum {
			return guarded(StringMatch{Op: MatchExact, Field: ref, Term: "", Negate: true})
		}
		return HasValue{Field: ref}
	case domain.OperatorIsTrue:
		return guarded(Compare{Op: CmpEq, Field: ref, Value: Literal{Value: true}})
	case domain.OperatorIsFalse:
		return guarded(Compare{Op: CmpEq, Field: ref, Value: Literal{Value: false}})

	case domain.OperatorEquals, domain.OperatorNotEquals:
		return compileEquality(c, ref, guarded)

	case domain.OperatorContains:
		return guarded(stringNode(MatchContains, ref, c.Value, false))
	case domain.OperatorNotContains:
		return guarded(stringNode(MatchContains, ref, c.Value, true))
	case domain.OperatorStartsWith:
		return guarded(stringNode(MatchPrefix, ref, c.Value, false))
	case domain.OperatorEndsWith:
		return guarded(stringNode(MatchSuffix, ref, c.Value, false))

	case domain.OperatorGreaterThan, domain.OperatorGreaterOrEqual, domain.OperatorLessThan, domain.OperatorLessOrEqual:
		return compileOrdering(c, ref, guarded)

	case domain.OperatorBetween:
		return compileBetween(c, ref, guarded)

	case domain.OperatorDateIs, domain.OperatorDateIsNot:
		window, known := domain.ResolvePreset(c.Value.Preset, s.now())
		if !known {
			return Constant{Value: true}
		}
		inWindow := And{Children: []Node{
			Compare{Op: CmpGe, Field: ref, Value: Literal{Value: window.Start}},
			Compare{Op: CmpLt, Field: ref, Value: Literal{Value: window.End}},
		}}
		if c.Operator == domain.OperatorDateIs {
			return guarded(inWindow.Children...)
		}
		return guarded(Not{Child: inWindow})

	case domain.OperatorInLast:
		amount, _ := operandNumber(c.Value)
		cutoff := domain.RelativePast(int(amount), c.ValueEnd.Period, s.now())
		return guarded(Compare{Op: CmpGe, Field: ref, Value: Literal{Value: cutoff}})

	case domain.OperatorInNext:
		amount, _ := operandNumber(c.Value)
		now := s.now()
		cutoff := domain.RelativeFuture(int(amount), c.ValueEnd.Period, now)
		return guarded(
			Compare{Op: CmpGe, Field: ref, Value: Literal{Value: now}},
			Compare{Op: CmpLe, Field: ref, Value: Literal{Value: cutoff}},
		)

	case domain.OperatorIn, domain.OperatorNotIn:
		candidates, _ := operandList(c.Value)
		if len(candidates) == 0 {
			return Constant{Value: c.Operator == domain.OperatorIn}
		}
		folded := make([]string, len(candidates))
		for i, candidate := range candidates {
			folded[i] = strings.ToLower(candidate)
		}
		return guarded(SetMembership{
			Field:  ref,
			Values: folded,
			Negate: c.Operator == domain.OperatorNotIn,
		})
	}

	return Constant{Value: true}
}

func compileEquality(c domain.FilterCondition, ref FieldRef, guarded func(...Node) Node) Node {
	negate := c.Operator == domain.OperatorNotEquals

	switch ref.Type {
	case domain.FilterFieldTypeNumber:
		value, _ := operandNumber(c.Value)
		op := CmpEq
		if negate {
			op = CmpNe
		}
		return guarded(Compare{Op: op, Field: ref, Value: Literal{Value: value}})
	case domain.FilterFieldTypeDate, domain.FilterFieldTypeDateTime:
		value, _ := operandInstant(c.Value)
		op := CmpEq
		if negate {
			op = CmpNe
		}
		return guarded(Compare{Op: op, Field: ref, Value: Literal{Value: value}})
	default:
		return guarded(stringNode(MatchExact, ref, c.Value, negate))
	}
}

func stringNode(op StringMatchOp, ref FieldRef, operand domain.FilterValue, negate bool) Node {
	term, _ := operandText(operand)
	return StringMatch{Op: op, Field: ref, Term: strings.ToLower(term), Negate: negate}
}

func compileOrdering(c domain.FilterCondition, ref FieldRef, guarded func(...Node) Node) Node {
	var op CompareOp
	switch c.Operator {
	case domain.OperatorGreaterThan:
		op = CmpGt
	case domain.OperatorGreaterOrEqual:
		op = CmpGe
	case domain.OperatorLessThan:
		op = CmpLt
	default:
		op = CmpLe
	}

	if ref.Type.IsDateKind() {
		value, _ := operandInstant(c.Value)
		return guarded(Compare{Op: op, Field: ref, Value: Literal{Value: value}})
	}
	value, _ := operandNumber(c.Value)
	return guarded(Compare{Op: op, Field: ref, Value: Literal{Value: value}})
}

func compileBetween(c domain.FilterCondition, ref FieldRef, guarded func(...Node) Node) Node {
	if ref.Type.IsDateKind() {
		low, _ := operandInstant(c.Value)
		high, _ := operandInstant(c.ValueEnd)
		return guarded(Between{Field: ref, Low: Literal{Value: low}, High: Literal{Value: high}})
	}
	low, _ := operandNumber(c.Value)
	high, _ := operandNumber(c.ValueEnd)
	return guarded(Between{Field: ref, Low: Literal{Value: low}, High: Literal{Value: high}})
}
