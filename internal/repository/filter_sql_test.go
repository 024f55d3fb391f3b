package repository

import (
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/filter"
)

var sqlTestNow = time.Date(2024, time.January, 17, 15, 30, 0, 0, time.UTC)

var sqlTestFields = []domain.FilterField{
	{Name: "name", Type: domain.FilterFieldTypeText},
	{Name: "age", Type: domain.FilterFieldTypeNumber},
	{Name: "active", Type: domain.FilterFieldTypeBoolean},
	{Name: "joined", Type: domain.FilterFieldTypeDate},
	{Name: "status", Type: domain.FilterFieldTypeEnum},
}

func renderDefinition(t *testing.T, def domain.FilterDefinition) (string, []any) {
	t.Helper()
	node := filter.Compile(def, sqlTestFields, filter.WithNow(func() time.Time { return sqlTestNow }))
	b := newSQLBuilder()
	return renderFilterNode("e", node, b), b.args
}

func conditionDefinition(field string, op domain.FilterOperator, value, valueEnd domain.FilterValue) domain.FilterDefinition {
	def := domain.NewFilterDefinition()
	def.Conditions = append(def.Conditions, domain.NewFilterCondition(field, op, value, valueEnd))
	return def
}

func TestRenderEmptyFilter(t *testing.T) {
	clause, args := renderDefinition(t, domain.NewFilterDefinition())
	if clause != "TRUE" {
		t.Errorf("clause = %q, want TRUE", clause)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestRenderUnknownField(t *testing.T) {
	def := conditionDefinition("serial", domain.OperatorEquals, domain.TextValue("x"), domain.NoValue())
	clause, args := renderDefinition(t, def)
	if clause != "FALSE" {
		t.Errorf("clause = %q, want FALSE", clause)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestRenderTextEquals(t *testing.T) {
	def := conditionDefinition("name", domain.OperatorEquals, domain.TextValue("Pump A"), domain.NoValue())
	clause, args := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND e.properties ->> $2::text IS NOT NULL) AND lower(e.properties ->> $3::text) = $4)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	wantArgs := []any{"name", "name", "name", "pump a"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestRenderNumberComparison(t *testing.T) {
	def := conditionDefinition("age", domain.OperatorGreaterThan, domain.NumberValue(10), domain.NoValue())
	clause, args := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND e.properties ->> $2::text ~ $3) AND " +
		"(CASE WHEN e.properties ->> $4::text ~ $5 THEN (e.properties ->> $4::text)::numeric END) > $6)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	wantArgs := []any{"age", "age", numberPattern, "age", numberPattern, 10.0}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestRenderContainsEscapesWildcards(t *testing.T) {
	def := conditionDefinition("name", domain.OperatorContains, domain.TextValue("50%_A"), domain.NoValue())
	clause, args := renderDefinition(t, def)

	want := `((e.properties ? $1::text AND e.properties ->> $2::text IS NOT NULL) AND lower(e.properties ->> $3::text) LIKE $4 ESCAPE '\')`
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if args[3] != `%50\%\_a%` {
		t.Errorf("pattern arg = %q, want %q", args[3], `%50\%\_a%`)
	}
}

func TestRenderNotContains(t *testing.T) {
	def := conditionDefinition("name", domain.OperatorNotContains, domain.TextValue("valve"), domain.NoValue())
	clause, _ := renderDefinition(t, def)

	want := `((e.properties ? $1::text AND e.properties ->> $2::text IS NOT NULL) AND NOT (lower(e.properties ->> $3::text) LIKE $4 ESCAPE '\'))`
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
}

func TestRenderBetween(t *testing.T) {
	def := conditionDefinition("age", domain.OperatorBetween, domain.NumberValue(5), domain.NumberValue(15))
	clause, args := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND e.properties ->> $2::text ~ $3) AND " +
		"(CASE WHEN e.properties ->> $4::text ~ $5 THEN (e.properties ->> $4::text)::numeric END) BETWEEN $6 AND $7)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if args[5] != 5.0 || args[6] != 15.0 {
		t.Errorf("bounds = %v, %v, want 5 and 15", args[5], args[6])
	}
}

func TestRenderMembership(t *testing.T) {
	def := conditionDefinition("status", domain.OperatorIn,
		domain.TextListValue([]string{"ACTIVE", "Pending"}), domain.NoValue())
	clause, args := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND e.properties ->> $2::text IS NOT NULL) AND lower(e.properties ->> $3::text) = ANY($4::text[]))"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if !reflect.DeepEqual(args[3], []string{"active", "pending"}) {
		t.Errorf("set arg = %v, want lowercased values", args[3])
	}
}

func TestRenderNotInWrapsNegation(t *testing.T) {
	def := conditionDefinition("status", domain.OperatorNotIn,
		domain.TextListValue([]string{"RETIRED"}), domain.NoValue())
	clause, _ := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND e.properties ->> $2::text IS NOT NULL) AND NOT (lower(e.properties ->> $3::text) = ANY($4::text[])))"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
}

func TestRenderEmptyMembershipConstants(t *testing.T) {
	in := conditionDefinition("status", domain.OperatorIn, domain.TextListValue(nil), domain.NoValue())
	if clause, _ := renderDefinition(t, in); clause != "TRUE" {
		t.Errorf("IN over empty set = %q, want TRUE", clause)
	}
	notIn := conditionDefinition("status", domain.OperatorNotIn, domain.TextListValue(nil), domain.NoValue())
	if clause, _ := renderDefinition(t, notIn); clause != "FALSE" {
		t.Errorf("NOT_IN over empty set = %q, want FALSE", clause)
	}
}

func TestRenderDateIsToday(t *testing.T) {
	def := conditionDefinition("joined", domain.OperatorDateIs,
		domain.PresetValue(domain.PresetToday), domain.NoValue())
	clause, args := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND e.properties ->> $2::text ~ $3) AND " +
		"(CASE WHEN e.properties ->> $4::text ~ $5 THEN (e.properties ->> $4::text)::timestamptz END) >= $6 AND " +
		"(CASE WHEN e.properties ->> $7::text ~ $8 THEN (e.properties ->> $7::text)::timestamptz END) < $9)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}

	start := time.Date(2024, time.January, 17, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 18, 0, 0, 0, 0, time.UTC)
	if !args[5].(time.Time).Equal(start) {
		t.Errorf("window start = %v, want %v", args[5], start)
	}
	if !args[8].(time.Time).Equal(end) {
		t.Errorf("window end = %v, want %v", args[8], end)
	}
}

func TestRenderBooleanOperator(t *testing.T) {
	def := conditionDefinition("active", domain.OperatorIsTrue, domain.NoValue(), domain.NoValue())
	clause, args := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND lower(e.properties ->> $2::text) IN ('true', 'false')) AND " +
		"(CASE WHEN lower(e.properties ->> $3::text) IN ('true', 'false') THEN (e.properties ->> $3::text)::boolean END) = $4)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if args[3] != true {
		t.Errorf("literal = %v, want true", args[3])
	}
}

func TestRenderIsEmptyOnText(t *testing.T) {
	def := conditionDefinition("name", domain.OperatorIsEmpty, domain.NoValue(), domain.NoValue())
	clause, _ := renderDefinition(t, def)

	want := "(NOT ((e.properties ? $1::text AND e.properties ->> $2::text IS NOT NULL)) OR lower(e.properties ->> $3::text) = $4)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
}

func TestRenderNestedGroups(t *testing.T) {
	def := domain.NewFilterDefinition()
	def.Conditions = append(def.Conditions,
		domain.NewFilterCondition("name", domain.OperatorIsNotEmpty, domain.NoValue(), domain.NoValue()))
	def.Groups = append(def.Groups, domain.FilterDefinition{
		Operator: domain.LogicalOr,
		Conditions: []domain.FilterCondition{
			domain.NewFilterCondition("age", domain.OperatorLessThan, domain.NumberValue(5), domain.NoValue()),
			domain.NewFilterCondition("age", domain.OperatorGreaterThan, domain.NumberValue(50), domain.NoValue()),
		},
	})
	clause, args := renderDefinition(t, def)

	if clause[0] != '(' || clause[len(clause)-1] != ')' {
		t.Fatalf("clause not parenthesized: %q", clause)
	}
	if want := 16; len(args) != want {
		t.Errorf("len(args) = %d, want %d", len(args), want)
	}
	// Outer junction is AND over the condition and the OR group.
	if !strings.Contains(clause, " OR ") || !strings.Contains(clause, " AND ") {
		t.Errorf("expected both junctions in %q", clause)
	}
}

func TestRenderDateComparisonGuardsCast(t *testing.T) {
	instant := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	def := conditionDefinition("joined", domain.OperatorGreaterThan, domain.InstantValue(instant), domain.NoValue())
	clause, args := renderDefinition(t, def)

	want := "((e.properties ? $1::text AND e.properties ->> $2::text ~ $3) AND " +
		"(CASE WHEN e.properties ->> $4::text ~ $5 THEN (e.properties ->> $4::text)::timestamptz END) > $6)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if !args[5].(time.Time).Equal(instant) {
		t.Errorf("literal = %v, want %v", args[5], instant)
	}
}

func TestNumberPatternShape(t *testing.T) {
	re := regexp.MustCompile(numberPattern)
	accept := []string{"1", "+1", "-2.5", "3.14", "1e5", "-1.2E-3"}
	for _, s := range accept {
		if !re.MatchString(s) {
			t.Errorf("pattern rejected %q", s)
		}
	}
	reject := []string{"", "abc", "1.2.3", "12kg", " 1"}
	for _, s := range reject {
		if re.MatchString(s) {
			t.Errorf("pattern accepted %q", s)
		}
	}
}

func TestTimestampPatternShape(t *testing.T) {
	re := regexp.MustCompile(timestampPattern)
	accept := []string{
		"2024-01-17",
		"2024-01-17T15:30:00Z",
		"2024-01-17 15:30:00",
		"2024-01-17T15:30:00.123+02:00",
	}
	for _, s := range accept {
		if !re.MatchString(s) {
			t.Errorf("pattern rejected %q", s)
		}
	}
	reject := []string{"", "not a date", "17/01/2024", "2024-01", "tomorrow"}
	for _, s := range reject {
		if re.MatchString(s) {
			t.Errorf("pattern accepted %q", s)
		}
	}
}
