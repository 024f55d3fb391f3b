package filter

import (
	"strings"
	"time"
)

// EvalNode renders a compiled expression tree directly against an item.
// It is the in-memory renderer of the IR; the repository layer provides
// the SQL renderer. Unknown node kinds evaluate to true, mirroring the
// engine's neutral degradation policy.
func EvalNode(node Node, item Source) bool {
	switch n := node.(type) {
	case Constant:
		return n.Value
	case And:
		for _, child := range n.Children {
			if !EvalNode(child, item) {
				return false
			}
		}
		return true
	case Or:
		if len(n.Children) == 0 {
			return true
		}
		for _, child := range n.Children {
			if EvalNode(child, item) {
				return true
			}
		}
		return false
	case Not:
		return !EvalNode(n.Child, item)
	case HasValue:
		current, present := readField(n.Field, item)
		return hasUsableValue(n.Field.Type, current, present)
	case Compare:
		return evalCompare(n, item)
	case StringMatch:
		return evalStringMatch(n, item)
	case Between:
		return evalBetween(n, item)
	case SetMembership:
		return evalSetMembership(n, item)
	}
	return true
}

func readField(ref FieldRef, item Source) (any, bool) {
	return lookupAccessor(item.TypeName(), ref.Name)(item)
}

func evalCompare(n Compare, item Source) bool {
	current, present := readField(n.Field, item)
	if !present || current == nil {
		return false
	}

	switch want := n.Value.Value.(type) {
	case float64:
		have, ok := itemNumber(current)
		if !ok {
			return false
		}
		return compareHolds(n.Op, compareFloats(have, want))
	case time.Time:
		have, ok := itemInstant(current)
		if !ok {
			return false
		}
		return compareHolds(n.Op, compareInstants(have, want))
	case bool:
		have, ok := itemBool(current)
		if !ok {
			return false
		}
		if n.Op == CmpNe {
			return have != want
		}
		return have == want
	case string:
		have, ok := itemText(current)
		if !ok {
			return false
		}
		cmp := strings.Compare(strings.ToLower(have), strings.ToLower(want))
		return compareHolds(n.Op, cmp)
	}
	return true
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareHolds(op CompareOp, cmp int) bool {
	switch op {
	case CmpEq:
		return cmp == 0
	case CmpNe:
		return cmp != 0
	case CmpGt:
		return cmp > 0
	case CmpGe:
		return cmp >= 0
	case CmpLt:
		return cmp < 0
	case CmpLe:
		return cmp <= 0
	}
	return true
}

func evalStringMatch(n StringMatch, item Source) bool {
	current, present := readField(n.Field, item)
	if !present || current == nil {
		return false
	}
	have, ok := itemText(current)
	if !ok {
		return false
	}
	folded := strings.ToLower(have)

	var matched bool
	switch n.Op {
	case MatchExact:
		matched = folded == n.Term
	case MatchContains:
		matched = strings.Contains(folded, n.Term)
	case MatchPrefix:
		matched = strings.HasPrefix(folded, n.Term)
	case MatchSuffix:
		matched = strings.HasSuffix(folded, n.Term)
	default:
		return true
	}
	if n.Negate {
		return !matched
	}
	return matched
}

func evalBetween(n Between, item Source) bool {
	current, present := readField(n.Field, item)
	if !present || current == nil {
		return false
	}

	switch low := n.Low.Value.(type) {
	case float64:
		high, _ := n.High.Value.(float64)
		have, ok := itemNumber(current)
		if !ok {
			return false
		}
		return have >= low && have <= high
	case time.Time:
		high, _ := n.High.Value.(time.Time)
		have, ok := itemInstant(current)
		if !ok {
			return false
		}
		return !have.Before(low) && !have.After(high)
	}
	return true
}

func evalSetMembership(n SetMembership, item Source) bool {
	current, present := readField(n.Field, item)
	if !present || current == nil {
		return false
	}
	have, ok := itemText(current)
	if !ok {
		return false
	}
	folded := strings.ToLower(have)

	matched := false
	for _, candidate := range n.Values {
		if folded == candidate {
			matched = true
			break
		}
	}
	if n.Negate {
		return !matched
	}
	return matched
}
