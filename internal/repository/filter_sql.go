package repository

import (
	"fmt"
	"strings"

	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/filter"
)

// sqlBuilder collects positional query arguments.
type sqlBuilder struct {
	args []any
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{args: make([]any, 0)}
}

func (b *sqlBuilder) addArg(value any) int {
	b.args = append(b.args, value)
	return len(b.args)
}

func (b *sqlBuilder) placeholder(idx int) string {
	return fmt.Sprintf("$%d", idx)
}

// Shape patterns for typed casts. Every cast of a JSONB text value is
// wrapped in a CASE WHEN on one of these, so a garbage value in a typed
// field yields NULL (row excluded) instead of aborting the query. A bare
// `guard AND (val)::type` is not enough: Postgres may evaluate the AND
// operands in either order.
const (
	numberPattern    = `^[+-]?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`
	timestampPattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}([T ][0-9]{2}:[0-9]{2}:[0-9]{2}(\.[0-9]+)?(Z|[+-][0-9]{2}:[0-9]{2})?)?$`
)

// renderFilterNode lowers a compiled filter node to a parameterized SQL
// clause over the aliased entities table. It is the second renderer of the
// engine's expression tree: every node kind maps onto JSONB primitives a
// Postgres planner can use directly.
func renderFilterNode(alias string, node filter.Node, b *sqlBuilder) string {
	switch n := node.(type) {
	case filter.Constant:
		if n.Value {
			return "TRUE"
		}
		return "FALSE"
	case filter.And:
		return renderJunction(alias, n.Children, " AND ", b)
	case filter.Or:
		if len(n.Children) == 0 {
			return "TRUE"
		}
		return renderJunction(alias, n.Children, " OR ", b)
	case filter.Not:
		return "NOT (" + renderFilterNode(alias, n.Child, b) + ")"
	case filter.HasValue:
		return renderHasValue(alias, n.Field, b)
	case filter.Compare:
		return renderCompare(alias, n, b)
	case filter.StringMatch:
		return renderStringMatch(alias, n, b)
	case filter.Between:
		return renderBetween(alias, n, b)
	case filter.SetMembership:
		return renderSetMembership(alias, n, b)
	}
	return "TRUE"
}

func renderJunction(alias string, children []filter.Node, separator string, b *sqlBuilder) string {
	if len(children) == 0 {
		return "TRUE"
	}
	clauses := make([]string, len(children))
	for i, child := range children {
		clauses[i] = renderFilterNode(alias, child, b)
	}
	return "(" + strings.Join(clauses, separator) + ")"
}

func propertyExpr(alias string, field filter.FieldRef, b *sqlBuilder) string {
	keyIdx := b.addArg(field.Name)
	return fmt.Sprintf("%s.properties ->> %s::text", alias, b.placeholder(keyIdx))
}

func existsExpr(alias string, field filter.FieldRef, b *sqlBuilder) string {
	keyIdx := b.addArg(field.Name)
	return fmt.Sprintf("%s.properties ? %s::text", alias, b.placeholder(keyIdx))
}

func renderHasValue(alias string, field filter.FieldRef, b *sqlBuilder) string {
	exists := existsExpr(alias, field, b)
	value := propertyExpr(alias, field, b)

	switch field.Type {
	case domain.FilterFieldTypeNumber:
		patternIdx := b.addArg(numberPattern)
		return fmt.Sprintf("(%s AND %s ~ %s)", exists, value, b.placeholder(patternIdx))
	case domain.FilterFieldTypeDate, domain.FilterFieldTypeDateTime:
		patternIdx := b.addArg(timestampPattern)
		return fmt.Sprintf("(%s AND %s ~ %s)", exists, value, b.placeholder(patternIdx))
	case domain.FilterFieldTypeBoolean:
		return fmt.Sprintf("(%s AND lower(%s) IN ('true', 'false'))", exists, value)
	}
	return fmt.Sprintf("(%s AND %s IS NOT NULL)", exists, value)
}

// numericCast, timestampCast and booleanCast yield NULL instead of raising
// when the stored text is not of the expected shape.
func numericCast(value string, b *sqlBuilder) string {
	patternIdx := b.addArg(numberPattern)
	return fmt.Sprintf("(CASE WHEN %s ~ %s THEN (%s)::numeric END)", value, b.placeholder(patternIdx), value)
}

func timestampCast(value string, b *sqlBuilder) string {
	patternIdx := b.addArg(timestampPattern)
	return fmt.Sprintf("(CASE WHEN %s ~ %s THEN (%s)::timestamptz END)", value, b.placeholder(patternIdx), value)
}

func booleanCast(value string) string {
	return fmt.Sprintf("(CASE WHEN lower(%s) IN ('true', 'false') THEN (%s)::boolean END)", value, value)
}

func renderCompare(alias string, n filter.Compare, b *sqlBuilder) string {
	value := propertyExpr(alias, n.Field, b)
	operator := string(n.Op)

	switch literal := n.Value.Value.(type) {
	case float64:
		cast := numericCast(value, b)
		valueIdx := b.addArg(literal)
		return fmt.Sprintf("%s %s %s", cast, operator, b.placeholder(valueIdx))
	case bool:
		valueIdx := b.addArg(literal)
		return fmt.Sprintf("%s %s %s", booleanCast(value), operator, b.placeholder(valueIdx))
	case string:
		valueIdx := b.addArg(strings.ToLower(literal))
		return fmt.Sprintf("lower(%s) %s %s", value, operator, b.placeholder(valueIdx))
	default: // time.Time
		cast := timestampCast(value, b)
		valueIdx := b.addArg(literal)
		return fmt.Sprintf("%s %s %s", cast, operator, b.placeholder(valueIdx))
	}
}

// escapeLikeTerm escapes LIKE wildcards in a user-supplied term.
func escapeLikeTerm(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func renderStringMatch(alias string, n filter.StringMatch, b *sqlBuilder) string {
	value := propertyExpr(alias, n.Field, b)

	var clause string
	switch n.Op {
	case filter.MatchExact:
		termIdx := b.addArg(n.Term)
		clause = fmt.Sprintf("lower(%s) = %s", value, b.placeholder(termIdx))
	case filter.MatchContains:
		patternIdx := b.addArg("%" + escapeLikeTerm(n.Term) + "%")
		clause = fmt.Sprintf(`lower(%s) LIKE %s ESCAPE '\'`, value, b.placeholder(patternIdx))
	case filter.MatchPrefix:
		patternIdx := b.addArg(escapeLikeTerm(n.Term) + "%")
		clause = fmt.Sprintf(`lower(%s) LIKE %s ESCAPE '\'`, value, b.placeholder(patternIdx))
	case filter.MatchSuffix:
		patternIdx := b.addArg("%" + escapeLikeTerm(n.Term))
		clause = fmt.Sprintf(`lower(%s) LIKE %s ESCAPE '\'`, value, b.placeholder(patternIdx))
	default:
		return "TRUE"
	}

	if n.Negate {
		return "NOT (" + clause + ")"
	}
	return clause
}

func renderBetween(alias string, n filter.Between, b *sqlBuilder) string {
	value := propertyExpr(alias, n.Field, b)

	if low, ok := n.Low.Value.(float64); ok {
		cast := numericCast(value, b)
		lowIdx := b.addArg(low)
		highIdx := b.addArg(n.High.Value)
		return fmt.Sprintf("%s BETWEEN %s AND %s", cast, b.placeholder(lowIdx), b.placeholder(highIdx))
	}
	cast := timestampCast(value, b)
	lowIdx := b.addArg(n.Low.Value)
	highIdx := b.addArg(n.High.Value)
	return fmt.Sprintf("%s BETWEEN %s AND %s", cast, b.placeholder(lowIdx), b.placeholder(highIdx))
}

func renderSetMembership(alias string, n filter.SetMembership, b *sqlBuilder) string {
	value := propertyExpr(alias, n.Field, b)
	valuesIdx := b.addArg(n.Values)
	clause := fmt.Sprintf("lower(%s) = ANY(%s::text[])", value, b.placeholder(valuesIdx))
	if n.Negate {
		return "NOT (" + clause + ")"
	}
	return clause
}
