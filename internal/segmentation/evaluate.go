package segmentation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EvaluateContact reports whether a contact record matches a rule tree.
// The record is the dot-path addressable view of a contact. A nil or
// empty group matches every contact (vacuous truth). Evaluation never
// panics on malformed data; unmatched expectations degrade to false.
func EvaluateContact(record map[string]any, group *RuleGroup) bool {
	if group == nil {
		return true
	}
	return evaluateGroup(record, group)
}

func evaluateGroup(record map[string]any, g *RuleGroup) bool {
	if len(g.Conditions) == 0 && len(g.Groups) == 0 {
		return true
	}

	if g.Operator == LogicOr {
		for i := range g.Conditions {
			if EvaluateCondition(record, &g.Conditions[i]) {
				return true
			}
		}
		for i := range g.Groups {
			if evaluateGroup(record, &g.Groups[i]) {
				return true
			}
		}
		return false
	}

	// AND is the combinator for anything that isn't explicitly OR.
	for i := range g.Conditions {
		if !EvaluateCondition(record, &g.Conditions[i]) {
			return false
		}
	}
	for i := range g.Groups {
		if !evaluateGroup(record, &g.Groups[i]) {
			return false
		}
	}
	return true
}

// EvaluateCondition evaluates a single condition against a contact
// record. An operator missing from the registry matches nothing;
// ValidateRules rejects such trees up front, this is the safety net for
// trees that bypassed it.
func EvaluateCondition(record map[string]any, cond *Condition) bool {
	op, ok := operatorIndex[cond.Operator]
	if !ok {
		return false
	}
	value, found := resolvePath(record, cond.Field)
	return op.eval(value, found, cond)
}

// ==========================================
// OPERATOR IMPLEMENTATIONS
// ==========================================

func evalEquals(value any, _ bool, cond *Condition) bool {
	return strings.EqualFold(stringify(value), stringify(cond.Value))
}

func evalNotEquals(value any, found bool, cond *Condition) bool {
	return !evalEquals(value, found, cond)
}

func evalContains(value any, _ bool, cond *Condition) bool {
	return strings.Contains(lower(value), lower(cond.Value))
}

func evalNotContains(value any, found bool, cond *Condition) bool {
	return !evalContains(value, found, cond)
}

func evalStartsWith(value any, _ bool, cond *Condition) bool {
	return strings.HasPrefix(lower(value), lower(cond.Value))
}

func evalEndsWith(value any, _ bool, cond *Condition) bool {
	return strings.HasSuffix(lower(value), lower(cond.Value))
}

// A value is present when the path resolved to something that is neither
// null nor the empty string. Zero and false count as present.
func evalExists(value any, found bool, _ *Condition) bool {
	return found && value != nil && value != ""
}

func evalNotExists(value any, found bool, cond *Condition) bool {
	return !evalExists(value, found, cond)
}

func evalGreaterThan(value any, _ bool, cond *Condition) bool {
	f, ok := toFloat64(value)
	target, ok2 := toFloat64(cond.Value)
	return ok && ok2 && f > target
}

func evalLessThan(value any, _ bool, cond *Condition) bool {
	f, ok := toFloat64(value)
	target, ok2 := toFloat64(cond.Value)
	return ok && ok2 && f < target
}

// between is inclusive on both bounds.
func evalBetween(value any, _ bool, cond *Condition) bool {
	f, ok := toFloat64(value)
	lo, ok2 := toFloat64(cond.Value)
	hi, ok3 := toFloat64(cond.Value2)
	return ok && ok2 && ok3 && f >= lo && f <= hi
}

func evalBefore(value any, _ bool, cond *Condition) bool {
	ft, ok := parseTime(value)
	target, ok2 := parseTime(cond.Value)
	return ok && ok2 && ft.Before(target)
}

func evalAfter(value any, _ bool, cond *Condition) bool {
	ft, ok := parseTime(value)
	target, ok2 := parseTime(cond.Value)
	return ok && ok2 && ft.After(target)
}

// on compares calendar days (UTC), not timestamps.
func evalOn(value any, _ bool, cond *Condition) bool {
	ft, ok := parseTime(value)
	target, ok2 := parseTime(cond.Value)
	if !ok || !ok2 {
		return false
	}
	y1, m1, d1 := ft.UTC().Date()
	y2, m2, d2 := target.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func evalInLastDays(value any, _ bool, cond *Condition) bool {
	ft, ok := parseTime(value)
	days, ok2 := toFloat64(cond.Value)
	if !ok || !ok2 {
		return false
	}
	cutoff := time.Now().Add(-time.Duration(days * float64(24*time.Hour)))
	return !ft.Before(cutoff)
}

func evalNotInLastDays(value any, _ bool, cond *Condition) bool {
	ft, ok := parseTime(value)
	days, ok2 := toFloat64(cond.Value)
	if !ok || !ok2 {
		return false
	}
	cutoff := time.Now().Add(-time.Duration(days * float64(24*time.Hour)))
	return ft.Before(cutoff)
}

func evalArrayContains(value any, _ bool, cond *Condition) bool {
	target := lower(cond.Value)
	for _, el := range elementsOf(value) {
		if lower(el) == target {
			return true
		}
	}
	return false
}

func evalArrayNotContains(value any, found bool, cond *Condition) bool {
	return !evalArrayContains(value, found, cond)
}

func evalArrayContainsAll(value any, _ bool, cond *Condition) bool {
	want, ok := valueStrings(cond.Value)
	if !ok {
		return false
	}
	have := elementsOf(value)
	for _, w := range want {
		w = strings.ToLower(w)
		matched := false
		for _, el := range have {
			if lower(el) == w {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Non-array fields count as empty for the emptiness operators.
func evalArrayIsEmpty(value any, _ bool, _ *Condition) bool {
	return len(elementsOf(value)) == 0
}

func evalArrayIsNotEmpty(value any, _ bool, _ *Condition) bool {
	return len(elementsOf(value)) > 0
}

func evalIsTrue(value any, _ bool, _ *Condition) bool {
	return value == true || value == "true"
}

// is_false also matches an unresolved path: a contact that never set the
// flag counts as false. An explicit null does not.
func evalIsFalse(value any, found bool, _ *Condition) bool {
	return !found || value == false || value == "false"
}

func evalIn(value any, _ bool, cond *Condition) bool {
	options, ok := valueStrings(cond.Value)
	if !ok {
		return false
	}
	fv := stringify(value)
	for _, opt := range options {
		if opt == fv {
			return true
		}
	}
	return false
}

func evalNotIn(value any, _ bool, cond *Condition) bool {
	options, ok := valueStrings(cond.Value)
	if !ok {
		return false
	}
	fv := stringify(value)
	for _, opt := range options {
		if opt == fv {
			return false
		}
	}
	return true
}

// ==========================================
// COERCION HELPERS
// ==========================================

// stringify coerces a value to its string form for the string-compare
// operators. Numbers render without a trailing ".0" so 5 matches "5".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func lower(v any) string {
	return strings.ToLower(stringify(v))
}

// toFloat64 coerces a value to a number. Anything that does not parse is
// reported as not-a-number, which makes every comparison against it
// false.
func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime coerces a value to a timestamp. Strings try the common
// layouts; numbers are treated as epoch seconds below 1e12 and epoch
// milliseconds above.
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	default:
		epoch, ok := toFloat64(v)
		if !ok {
			return time.Time{}, false
		}
		if epoch > 1e12 { // milliseconds
			return time.UnixMilli(int64(epoch)).UTC(), true
		}
		return time.Unix(int64(epoch), 0).UTC(), true
	}
}

// elementsOf returns the field value as a list. Non-array values come
// back empty, which is how the array operators treat them.
func elementsOf(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

// valueStrings interprets a condition value that must be an array (in,
// not_in, array_contains_all) as a string list.
func valueStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, len(t))
		for i, el := range t {
			out[i] = stringify(el)
		}
		return out, true
	default:
		return nil, false
	}
}
