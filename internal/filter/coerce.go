package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/filterql/internal/domain"
)

// Layouts accepted when an item stores an instant as text. The wire format
// comes first; the rest cover common ingestion shapes.
var itemTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// itemText renders an item value for text comparison. Nil values are
// unreadable; everything else has a string form.
func itemText(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case time.Time:
		return v.Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return v.String(), true
	}
	return fmt.Sprintf("%v", value), true
}

// itemNumber normalizes numeric item values to a common width. Text that
// does not parse as a number is unreadable, not an error.
func itemNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// itemInstant reads an item value as an instant in time.
func itemInstant(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range itemTimeLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// itemBool reads an item value as a boolean.
func itemBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return parsed, true
	case float64:
		return v != 0, true
	}
	return false, false
}

// itemIsEmpty implements the IS_EMPTY notion for text values: absent, nil,
// or the empty string.
func itemIsEmpty(value any, present bool) bool {
	if !present || value == nil {
		return true
	}
	if v, ok := value.(string); ok {
		return v == ""
	}
	return false
}

// Condition operand coercions. Failure here means the user supplied an
// operand the field type cannot use; per the engine's resilience policy
// that degrades the condition to vacuous truth, so these report ok=false
// instead of erroring.

func operandText(v domain.FilterValue) (string, bool) {
	switch v.Kind {
	case domain.ValueText:
		return v.Text, true
	case domain.ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64), true
	case domain.ValueBoolean:
		return strconv.FormatBool(v.Boolean), true
	}
	return "", false
}

func operandNumber(v domain.FilterValue) (float64, bool) {
	switch v.Kind {
	case domain.ValueNumber:
		return v.Number, true
	case domain.ValueText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func operandInstant(v domain.FilterValue) (time.Time, bool) {
	switch v.Kind {
	case domain.ValueInstant:
		return v.Instant, true
	case domain.ValueText:
		return itemInstant(v.Text)
	}
	return time.Time{}, false
}

func operandList(v domain.FilterValue) ([]string, bool) {
	switch v.Kind {
	case domain.ValueTextList:
		return v.List, true
	case domain.ValueText:
		return []string{v.Text}, true
	}
	return nil, false
}
