package segmentation

import (
	"fmt"
)

// ValidateRules checks a rule tree against the field and operator
// registries and returns one message per offending node. A nil tree is
// valid. Trees must pass before a segment is created, updated, or
// previewed; the evaluator's degrade-to-false behavior is only a safety
// net behind this gate.
func ValidateRules(group *RuleGroup) []string {
	if group == nil {
		return nil
	}
	var errs []string
	validateGroup(group, &errs)
	return errs
}

func validateGroup(g *RuleGroup, errs *[]string) {
	if g.Operator != "" && g.Operator != LogicAnd && g.Operator != LogicOr {
		*errs = append(*errs, fmt.Sprintf("group %s: unknown combinator %q", nodeID(g.ID), g.Operator))
	}
	for i := range g.Conditions {
		validateCondition(&g.Conditions[i], errs)
	}
	for i := range g.Groups {
		validateGroup(&g.Groups[i], errs)
	}
}

func validateCondition(c *Condition, errs *[]string) {
	ref := nodeID(c.ID)

	if c.Field == "" {
		*errs = append(*errs, fmt.Sprintf("condition %s: missing field", ref))
		return
	}

	field, ok := FieldByKey(c.Field)
	if !ok {
		*errs = append(*errs, fmt.Sprintf("condition %s: unknown field %q", ref, c.Field))
		return
	}

	op, ok := operatorIndex[c.Operator]
	if !ok {
		*errs = append(*errs, fmt.Sprintf("condition %s: unknown operator %q", ref, c.Operator))
		return
	}

	if !operatorAppliesTo(op, field.Type) {
		*errs = append(*errs, fmt.Sprintf("condition %s: operator %s is not valid for %s field %s",
			ref, c.Operator, field.Type, c.Field))
	}

	if op.RequiresValue && isMissing(c.Value) {
		*errs = append(*errs, fmt.Sprintf("condition %s: operator %s requires a value for field %s",
			ref, c.Operator, c.Field))
	}
	if op.RequiresSecondary && isMissing(c.Value2) {
		*errs = append(*errs, fmt.Sprintf("condition %s: operator %s requires a secondary value for field %s",
			ref, c.Operator, c.Field))
	}
	if op.RequiresArray && !isMissing(c.Value) {
		if _, ok := valueStrings(c.Value); !ok {
			*errs = append(*errs, fmt.Sprintf("condition %s: operator %s requires an array of values for field %s",
				ref, c.Operator, c.Field))
		}
	}
}

func isMissing(v any) bool {
	return v == nil || v == ""
}

func nodeID(id string) string {
	if id == "" {
		return "(no id)"
	}
	return fmt.Sprintf("%q", id)
}
