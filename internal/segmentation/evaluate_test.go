package segmentation

import (
	"encoding/json"
	"testing"
	"time"
)

func cond(field string, op Operator, value any) Condition {
	return Condition{ID: "c1", Field: field, Operator: op, Value: value}
}

func condRange(field string, op Operator, value, value2 any) Condition {
	return Condition{ID: "c1", Field: field, Operator: op, Value: value, Value2: value2}
}

// evalOne runs a single condition against a record.
func evalOne(t *testing.T, record map[string]any, c Condition) bool {
	t.Helper()
	return EvaluateCondition(record, &c)
}

func TestStringOperators(t *testing.T) {
	record := map[string]any{
		"first_name": "Jordan",
		"email":      "jordan@Example.COM",
		"score":      float64(5),
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals case-insensitive", cond("first_name", OpEquals, "jordan"), true},
		{"equals exact", cond("first_name", OpEquals, "Jordan"), true},
		{"equals mismatch", cond("first_name", OpEquals, "Jo"), false},
		{"equals coerces numbers", cond("score", OpEquals, "5"), true},
		{"equals numeric value against numeric field", cond("score", OpEquals, float64(5)), true},
		{"not_equals", cond("first_name", OpNotEquals, "casey"), true},
		{"not_equals matching value", cond("first_name", OpNotEquals, "JORDAN"), false},
		{"contains case-insensitive", cond("email", OpContains, "@example"), true},
		{"contains miss", cond("email", OpContains, "@corp"), false},
		{"not_contains", cond("email", OpNotContains, "@corp"), true},
		{"starts_with", cond("first_name", OpStartsWith, "jor"), true},
		{"starts_with miss", cond("first_name", OpStartsWith, "dan"), false},
		{"ends_with", cond("email", OpEndsWith, ".com"), true},
		{"ends_with miss", cond("email", OpEndsWith, ".org"), false},
		{"contains on missing field", cond("last_name", OpContains, "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalOne(t, record, tt.cond); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPresenceOperators(t *testing.T) {
	record := map[string]any{
		"first_name": "Jordan",
		"last_name":  "",
		"notes":      nil,
		"score":      float64(0),
		"active":     false,
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"exists on set field", cond("first_name", OpExists, nil), true},
		{"exists on empty string", cond("last_name", OpExists, nil), false},
		{"exists on null", cond("notes", OpExists, nil), false},
		{"exists on missing", cond("phone", OpExists, nil), false},
		{"zero counts as present", cond("score", OpExists, nil), true},
		{"false counts as present", cond("active", OpExists, nil), true},
		{"not_exists on missing", cond("phone", OpNotExists, nil), true},
		{"not_exists on set field", cond("first_name", OpNotExists, nil), false},
		{"not_exists on empty string", cond("last_name", OpNotExists, nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalOne(t, record, tt.cond); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNumericOperators(t *testing.T) {
	record := map[string]any{
		"balance":     float64(150),
		"as_string":   "99.5",
		"not_numeric": "abc",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"greater_than true", cond("balance", OpGreaterThan, float64(100)), true},
		{"greater_than false", cond("balance", OpGreaterThan, float64(150)), false},
		{"greater_than string value", cond("balance", OpGreaterThan, "100"), true},
		{"less_than true", cond("balance", OpLessThan, float64(200)), true},
		{"less_than false", cond("balance", OpLessThan, float64(150)), false},
		{"string field coerces", cond("as_string", OpGreaterThan, float64(99)), true},
		{"non-numeric field degrades", cond("not_numeric", OpGreaterThan, float64(0)), false},
		{"non-numeric never matches less_than", cond("not_numeric", OpLessThan, float64(1e9)), false},
		{"missing field degrades", cond("missing", OpGreaterThan, float64(-1)), false},
		{"between inclusive low", condRange("balance", OpBetween, float64(150), float64(200)), true},
		{"between inclusive high", condRange("balance", OpBetween, float64(100), float64(150)), true},
		{"between inside", condRange("balance", OpBetween, float64(100), float64(200)), true},
		{"between below", condRange("balance", OpBetween, float64(150.001), float64(200)), false},
		{"between above", condRange("balance", OpBetween, float64(100), float64(149.999)), false},
		{"between string bounds", condRange("balance", OpBetween, "100", "200"), true},
		{"between missing second bound", cond("balance", OpBetween, float64(100)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalOne(t, record, tt.cond); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateOperators(t *testing.T) {
	now := time.Now()
	record := map[string]any{
		"enrolled_at":   "2024-03-10T14:30:00Z",
		"expiry_recent": now.AddDate(0, 0, -3).Format(time.RFC3339),
		"expiry_old":    now.AddDate(0, 0, -10).Format(time.RFC3339),
		"date_only":     "2024-03-10",
		"epoch_seconds": float64(1710080000), // 2024-03-10T14:13:20Z
		"bad_date":      "not a date",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"before true", cond("enrolled_at", OpBefore, "2024-04-01"), true},
		{"before false", cond("enrolled_at", OpBefore, "2024-03-01"), false},
		{"after true", cond("enrolled_at", OpAfter, "2024-03-01"), true},
		{"after false", cond("enrolled_at", OpAfter, "2024-04-01"), false},
		{"on same calendar day", cond("enrolled_at", OpOn, "2024-03-10"), true},
		{"on ignores time of day", cond("enrolled_at", OpOn, "2024-03-10T23:59:00Z"), true},
		{"on different day", cond("enrolled_at", OpOn, "2024-03-11"), false},
		{"on with date-only field", cond("date_only", OpOn, "2024-03-10"), true},
		{"epoch seconds parse", cond("epoch_seconds", OpOn, "2024-03-10"), true},
		{"in_last_days inside window", cond("expiry_recent", OpInLastDays, float64(5)), true},
		{"in_last_days outside window", cond("expiry_old", OpInLastDays, float64(5)), false},
		{"in_last_days string count", cond("expiry_recent", OpInLastDays, "5"), true},
		{"not_in_last_days outside window", cond("expiry_old", OpNotInLastDays, float64(5)), true},
		{"not_in_last_days inside window", cond("expiry_recent", OpNotInLastDays, float64(5)), false},
		{"unparseable field", cond("bad_date", OpBefore, "2024-04-01"), false},
		{"unparseable target", cond("enrolled_at", OpBefore, "soon"), false},
		{"missing field", cond("missing", OpInLastDays, float64(5)), false},
		{"missing field not_in_last_days", cond("missing", OpNotInLastDays, float64(5)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalOne(t, record, tt.cond); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArrayOperators(t *testing.T) {
	record := map[string]any{
		"tags":       []any{"vip", "Beta", "early-adopter"},
		"empty_tags": []any{},
		"not_array":  "vip",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"contains case-insensitive", cond("tags", OpArrayContains, "VIP"), true},
		{"contains exact", cond("tags", OpArrayContains, "beta"), true},
		{"contains miss", cond("tags", OpArrayContains, "churned"), false},
		{"contains on non-array", cond("not_array", OpArrayContains, "vip"), false},
		{"contains on missing", cond("missing", OpArrayContains, "vip"), false},
		{"not_contains", cond("tags", OpArrayNotContains, "churned"), true},
		{"not_contains present element", cond("tags", OpArrayNotContains, "vip"), false},
		{"not_contains on non-array", cond("not_array", OpArrayNotContains, "vip"), true},
		{"contains_all full match", cond("tags", OpArrayContainsAll, []any{"VIP", "beta"}), true},
		{"contains_all partial", cond("tags", OpArrayContainsAll, []any{"vip", "churned"}), false},
		{"contains_all empty wanted list", cond("tags", OpArrayContainsAll, []any{}), true},
		{"contains_all non-array value", cond("tags", OpArrayContainsAll, "vip"), false},
		{"is_empty on empty", cond("empty_tags", OpArrayIsEmpty, nil), true},
		{"is_empty on populated", cond("tags", OpArrayIsEmpty, nil), false},
		{"is_empty on non-array", cond("not_array", OpArrayIsEmpty, nil), true},
		{"is_empty on missing", cond("missing", OpArrayIsEmpty, nil), true},
		{"is_not_empty on populated", cond("tags", OpArrayIsNotEmpty, nil), true},
		{"is_not_empty on non-array", cond("not_array", OpArrayIsNotEmpty, nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalOne(t, record, tt.cond); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBooleanOperators(t *testing.T) {
	record := map[string]any{
		"opt_in_email":  true,
		"opt_in_str":    "true",
		"opt_out":       false,
		"opt_out_str":   "false",
		"explicit_null": nil,
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"is_true on true", cond("opt_in_email", OpIsTrue, nil), true},
		{"is_true on string true", cond("opt_in_str", OpIsTrue, nil), true},
		{"is_true on false", cond("opt_out", OpIsTrue, nil), false},
		{"is_true on missing", cond("opt_in_sms", OpIsTrue, nil), false},
		{"is_false on false", cond("opt_out", OpIsFalse, nil), true},
		{"is_false on string false", cond("opt_out_str", OpIsFalse, nil), true},
		{"is_false on true", cond("opt_in_email", OpIsFalse, nil), false},
		// Absence defaults to false; an explicit null does not.
		{"is_false on missing", cond("opt_in_sms", OpIsFalse, nil), true},
		{"is_false on explicit null", cond("explicit_null", OpIsFalse, nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalOne(t, record, tt.cond); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMembershipOperators(t *testing.T) {
	record := map[string]any{
		"lifecycle_stage": "customer",
		"tier_num":        float64(2),
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"in match", cond("lifecycle_stage", OpIn, []any{"lead", "customer"}), true},
		{"in miss", cond("lifecycle_stage", OpIn, []any{"lead", "vip"}), false},
		{"in is case-sensitive", cond("lifecycle_stage", OpIn, []any{"Customer"}), false},
		{"in coerces field", cond("tier_num", OpIn, []any{"2", "3"}), true},
		{"in non-array value", cond("lifecycle_stage", OpIn, "customer"), false},
		{"not_in miss", cond("lifecycle_stage", OpNotIn, []any{"lead", "vip"}), true},
		{"not_in match", cond("lifecycle_stage", OpNotIn, []any{"customer"}), false},
		{"not_in non-array value", cond("lifecycle_stage", OpNotIn, "lead"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalOne(t, record, tt.cond); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnknownOperatorMatchesNothing(t *testing.T) {
	record := map[string]any{"first_name": "Jordan"}
	c := cond("first_name", Operator("fuzzy_match"), "Jordan")
	if EvaluateCondition(record, &c) {
		t.Errorf("unknown operator matched; want false")
	}
}

func TestEmptyGroupsMatchEverything(t *testing.T) {
	record := map[string]any{"email": "a@b.c"}

	tests := []struct {
		name  string
		group *RuleGroup
	}{
		{"nil tree", nil},
		{"empty AND", &RuleGroup{ID: "g1", Operator: LogicAnd}},
		{"empty OR", &RuleGroup{ID: "g1", Operator: LogicOr}},
		{"no operator at all", &RuleGroup{ID: "g1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !EvaluateContact(record, tt.group) {
				t.Errorf("empty group did not match; want vacuous true")
			}
		})
	}
}

func TestGroupCombinators(t *testing.T) {
	record := map[string]any{
		"lifecycle_stage": "customer",
		"email_opens":     float64(12),
	}

	match := cond("lifecycle_stage", OpEquals, "customer")
	miss := cond("email_opens", OpGreaterThan, float64(100))

	tests := []struct {
		name  string
		group RuleGroup
		want  bool
	}{
		{"AND all match", RuleGroup{Operator: LogicAnd, Conditions: []Condition{match, match}}, true},
		{"AND one miss", RuleGroup{Operator: LogicAnd, Conditions: []Condition{match, miss}}, false},
		{"OR one match", RuleGroup{Operator: LogicOr, Conditions: []Condition{miss, match}}, true},
		{"OR all miss", RuleGroup{Operator: LogicOr, Conditions: []Condition{miss, miss}}, false},
		{"default combinator is AND", RuleGroup{Conditions: []Condition{match, miss}}, false},
		{"empty subgroup counts as true under AND", RuleGroup{
			Operator:   LogicAnd,
			Conditions: []Condition{match},
			Groups:     []RuleGroup{{ID: "sub"}},
		}, true},
		{"empty subgroup satisfies OR", RuleGroup{
			Operator:   LogicOr,
			Conditions: []Condition{miss},
			Groups:     []RuleGroup{{ID: "sub"}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateContact(record, &tt.group); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// The canonical nested-tree scenario: customer AND (vip tag OR balance > 100).
func TestNestedGroups(t *testing.T) {
	rules := &RuleGroup{
		ID:       "root",
		Operator: LogicAnd,
		Conditions: []Condition{
			{ID: "c1", Field: "lifecycle_stage", Operator: OpEquals, Value: "customer"},
		},
		Groups: []RuleGroup{
			{
				ID:       "inner",
				Operator: LogicOr,
				Conditions: []Condition{
					{ID: "c2", Field: "tags", Operator: OpArrayContains, Value: "vip"},
					{ID: "c3", Field: "cashback_info.current_balance", Operator: OpGreaterThan, Value: float64(100)},
				},
			},
		},
	}

	tests := []struct {
		name   string
		record map[string]any
		want   bool
	}{
		{
			"matches via balance",
			map[string]any{
				"lifecycle_stage": "customer",
				"tags":            []any{"new"},
				"cashback_info":   map[string]any{"current_balance": float64(150)},
			},
			true,
		},
		{
			"matches via tag",
			map[string]any{
				"lifecycle_stage": "customer",
				"tags":            []any{"VIP"},
				"cashback_info":   map[string]any{"current_balance": float64(10)},
			},
			true,
		},
		{
			"outer condition fails",
			map[string]any{
				"lifecycle_stage": "lead",
				"tags":            []any{"vip"},
				"cashback_info":   map[string]any{"current_balance": float64(150)},
			},
			false,
		},
		{
			"inner group fails",
			map[string]any{
				"lifecycle_stage": "customer",
				"tags":            []any{"new"},
				"cashback_info":   map[string]any{"current_balance": float64(50)},
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateContact(tt.record, rules); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// Trees built by the rule-builder UI arrive as JSON; evaluation must be
// identical after a round trip through it.
func TestRuleTreeJSONRoundTrip(t *testing.T) {
	rules := &RuleGroup{
		ID:       "root",
		Operator: LogicAnd,
		Conditions: []Condition{
			{ID: "c1", Field: "lifecycle_stage", Operator: OpIn, Value: []any{"customer", "vip"}},
			{ID: "c2", Field: "cashback_info.current_balance", Operator: OpBetween, Value: float64(10), Value2: float64(500)},
		},
		Groups: []RuleGroup{
			{
				ID:       "inner",
				Operator: LogicOr,
				Conditions: []Condition{
					{ID: "c3", Field: "tags", Operator: OpArrayContains, Value: "vip"},
					{ID: "c4", Field: "opt_in_sms", Operator: OpIsFalse},
				},
			},
		},
	}

	raw, err := json.Marshal(rules)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded RuleGroup
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	records := []map[string]any{
		{
			"lifecycle_stage": "customer",
			"cashback_info":   map[string]any{"current_balance": float64(100)},
			"tags":            []any{"vip"},
		},
		{
			"lifecycle_stage": "lead",
			"cashback_info":   map[string]any{"current_balance": float64(100)},
			"tags":            []any{"vip"},
		},
		{
			"lifecycle_stage": "vip",
			"cashback_info":   map[string]any{"current_balance": float64(9)},
		},
		{},
	}

	for i, record := range records {
		before := EvaluateContact(record, rules)
		after := EvaluateContact(record, &decoded)
		if before != after {
			t.Errorf("record %d: evaluation changed across JSON round trip: before=%v after=%v", i, before, after)
		}
	}
}
