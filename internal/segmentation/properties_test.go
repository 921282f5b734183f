package segmentation

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: an empty rule group matches every contact, whatever the
// record looks like and whichever combinator it carries.
func TestProperty_EmptyGroupLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("empty groups evaluate to true for any record", prop.ForAll(
		func(name string, balance float64, optIn bool, useOr bool) bool {
			record := map[string]any{
				"first_name":    name,
				"opt_in_email":  optIn,
				"cashback_info": map[string]any{"current_balance": balance},
			}
			op := LogicAnd
			if useOr {
				op = LogicOr
			}
			return EvaluateContact(record, &RuleGroup{ID: "g", Operator: op})
		},
		gen.AlphaString(),
		gen.Float64Range(-1e6, 1e6),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: an AND group's result equals the conjunction of its members'
// individual results; OR equals the disjunction.
func TestProperty_CombinatorEquivalence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	buildGroup := func(op LogicOperator, thresholds []float64) *RuleGroup {
		g := &RuleGroup{ID: "g", Operator: op}
		for i, th := range thresholds {
			g.Conditions = append(g.Conditions, Condition{
				ID:       "c" + string(rune('a'+i%26)),
				Field:    "cashback_info.current_balance",
				Operator: OpGreaterThan,
				Value:    th,
			})
		}
		return g
	}

	properties.Property("AND equals conjunction of condition results", prop.ForAll(
		func(balance float64, thresholds []float64) bool {
			record := map[string]any{
				"cashback_info": map[string]any{"current_balance": balance},
			}
			group := buildGroup(LogicAnd, thresholds)

			want := true
			for i := range group.Conditions {
				want = want && EvaluateCondition(record, &group.Conditions[i])
			}
			return EvaluateContact(record, group) == want
		},
		gen.Float64Range(-1000, 1000),
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
	))

	properties.Property("OR equals disjunction of condition results", prop.ForAll(
		func(balance float64, thresholds []float64) bool {
			record := map[string]any{
				"cashback_info": map[string]any{"current_balance": balance},
			}
			group := buildGroup(LogicOr, thresholds)

			want := len(group.Conditions) == 0 // vacuous truth
			for i := range group.Conditions {
				want = want || EvaluateCondition(record, &group.Conditions[i])
			}
			return EvaluateContact(record, group) == want
		},
		gen.Float64Range(-1000, 1000),
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
	))

	properties.TestingRun(t)
}

// Property: between is inclusive on both bounds and exclusive outside
// them.
func TestProperty_BetweenBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("between includes bounds, excludes outside", prop.ForAll(
		func(lo int, span int) bool {
			hi := lo + span
			c := Condition{
				ID:       "c1",
				Field:    "cashback_info.current_balance",
				Operator: OpBetween,
				Value:    float64(lo),
				Value2:   float64(hi),
			}
			at := func(v int) bool {
				record := map[string]any{
					"cashback_info": map[string]any{"current_balance": float64(v)},
				}
				return EvaluateCondition(record, &c)
			}
			return at(lo) && at(hi) && !at(lo-1) && !at(hi+1)
		},
		gen.IntRange(-10000, 10000),
		gen.IntRange(0, 10000),
	))

	properties.TestingRun(t)
}

// Property: serializing a rule tree to JSON and parsing it back yields a
// tree that evaluates identically.
func TestProperty_JSONRoundTripPreservesEvaluation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	stages := []string{"subscriber", "lead", "customer", "vip", "churned"}

	properties.Property("round-tripped trees evaluate identically", prop.ForAll(
		func(stageIdx int, threshold float64, tagIdx int, useOr bool, balance float64, contactStageIdx int) bool {
			tags := []string{"vip", "beta", "early-adopter", "churn-risk"}
			op := LogicAnd
			if useOr {
				op = LogicOr
			}
			rules := &RuleGroup{
				ID:       "root",
				Operator: op,
				Conditions: []Condition{
					{ID: "c1", Field: "lifecycle_stage", Operator: OpEquals, Value: stages[stageIdx%len(stages)]},
					{ID: "c2", Field: "cashback_info.current_balance", Operator: OpGreaterThan, Value: threshold},
				},
				Groups: []RuleGroup{
					{
						ID:       "sub",
						Operator: LogicOr,
						Conditions: []Condition{
							{ID: "c3", Field: "tags", Operator: OpArrayContains, Value: tags[tagIdx%len(tags)]},
						},
					},
				},
			}

			raw, err := json.Marshal(rules)
			if err != nil {
				return false
			}
			var decoded RuleGroup
			if err := json.Unmarshal(raw, &decoded); err != nil {
				return false
			}

			record := map[string]any{
				"lifecycle_stage": stages[contactStageIdx%len(stages)],
				"tags":            []any{"vip", "beta"},
				"cashback_info":   map[string]any{"current_balance": balance},
			}
			return EvaluateContact(record, rules) == EvaluateContact(record, &decoded)
		},
		gen.IntRange(0, 4),
		gen.Float64Range(-500, 500),
		gen.IntRange(0, 3),
		gen.Bool(),
		gen.Float64Range(-500, 500),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

// Property: evaluation never panics, whatever junk the record holds.
func TestProperty_EvaluationNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	operators := []Operator{
		OpEquals, OpContains, OpExists, OpGreaterThan, OpBetween,
		OpBefore, OpInLastDays, OpArrayContains, OpArrayContainsAll,
		OpIsTrue, OpIsFalse, OpIn, Operator("bogus"),
	}

	properties.Property("evaluation never panics regardless of input", prop.ForAll(
		func(opIdx int, fieldVal string, useNumber bool, num float64) bool {
			var value any = fieldVal
			if useNumber {
				value = num
			}
			record := map[string]any{
				"email":         value,
				"tags":          value, // wrong type on purpose
				"cashback_info": value, // scalar where a map is expected
			}
			c := Condition{
				ID:       "c1",
				Field:    "cashback_info.current_balance",
				Operator: operators[opIdx%len(operators)],
				Value:    fieldVal,
			}
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("EvaluateCondition panicked: %v", r)
				}
			}()
			_ = EvaluateCondition(record, &c)
			c.Field = "email"
			_ = EvaluateCondition(record, &c)
			c.Field = "tags"
			_ = EvaluateCondition(record, &c)
			return true
		},
		gen.IntRange(0, len(operators)-1),
		gen.AlphaString(),
		gen.Bool(),
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}
