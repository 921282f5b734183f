package segmentation

import (
	"fmt"
)

// OperatorMetadata describes an operator for validation and for the rule
// builder UI.
type OperatorMetadata struct {
	Operator          Operator    `json:"operator"`
	Label             string      `json:"label"`
	ApplicableTypes   []FieldType `json:"applicable_types"`
	RequiresValue     bool        `json:"requires_value"`
	RequiresSecondary bool        `json:"requires_secondary"` // between
	RequiresArray     bool        `json:"requires_array"`     // in, not_in, array_contains_all
}

// evalFunc evaluates one operator against a resolved field value. found
// reports whether the dot path resolved at all; a resolved nil (explicit
// null) and an unresolved path are different cases for some operators.
type evalFunc func(value any, found bool, cond *Condition) bool

// operatorSpec couples an operator's metadata with its evaluation
// function. The table below is the single registration point: adding an
// operator means adding one entry here.
type operatorSpec struct {
	OperatorMetadata
	eval evalFunc
}

func entry(op Operator, label string, types []FieldType, val, secondary, array bool, fn evalFunc) operatorSpec {
	return operatorSpec{
		OperatorMetadata: OperatorMetadata{
			Operator:          op,
			Label:             label,
			ApplicableTypes:   types,
			RequiresValue:     val,
			RequiresSecondary: secondary,
			RequiresArray:     array,
		},
		eval: fn,
	}
}

var operatorTable = []operatorSpec{
	// String operators (equals/not_equals also serve number and select)
	entry(OpEquals, "Equals", []FieldType{FieldString, FieldNumber, FieldSelect}, true, false, false, evalEquals),
	entry(OpNotEquals, "Does not equal", []FieldType{FieldString, FieldNumber, FieldSelect}, true, false, false, evalNotEquals),
	entry(OpContains, "Contains", []FieldType{FieldString}, true, false, false, evalContains),
	entry(OpNotContains, "Does not contain", []FieldType{FieldString}, true, false, false, evalNotContains),
	entry(OpStartsWith, "Starts with", []FieldType{FieldString}, true, false, false, evalStartsWith),
	entry(OpEndsWith, "Ends with", []FieldType{FieldString}, true, false, false, evalEndsWith),

	// Presence operators
	entry(OpExists, "Has a value", []FieldType{FieldString, FieldNumber, FieldDate}, false, false, false, evalExists),
	entry(OpNotExists, "Has no value", []FieldType{FieldString, FieldNumber, FieldDate}, false, false, false, evalNotExists),

	// Numeric operators
	entry(OpGreaterThan, "Greater than", []FieldType{FieldNumber}, true, false, false, evalGreaterThan),
	entry(OpLessThan, "Less than", []FieldType{FieldNumber}, true, false, false, evalLessThan),
	entry(OpBetween, "Between", []FieldType{FieldNumber}, true, true, false, evalBetween),

	// Date operators
	entry(OpBefore, "Before", []FieldType{FieldDate}, true, false, false, evalBefore),
	entry(OpAfter, "After", []FieldType{FieldDate}, true, false, false, evalAfter),
	entry(OpOn, "On date", []FieldType{FieldDate}, true, false, false, evalOn),
	entry(OpInLastDays, "In the last X days", []FieldType{FieldDate}, true, false, false, evalInLastDays),
	entry(OpNotInLastDays, "Not in the last X days", []FieldType{FieldDate}, true, false, false, evalNotInLastDays),

	// Array operators
	entry(OpArrayContains, "Contains", []FieldType{FieldArray}, true, false, false, evalArrayContains),
	entry(OpArrayNotContains, "Does not contain", []FieldType{FieldArray}, true, false, false, evalArrayNotContains),
	entry(OpArrayContainsAll, "Contains all of", []FieldType{FieldArray}, true, false, true, evalArrayContainsAll),
	entry(OpArrayIsEmpty, "Is empty", []FieldType{FieldArray}, false, false, false, evalArrayIsEmpty),
	entry(OpArrayIsNotEmpty, "Is not empty", []FieldType{FieldArray}, false, false, false, evalArrayIsNotEmpty),

	// Boolean operators
	entry(OpIsTrue, "Is true", []FieldType{FieldBoolean}, false, false, false, evalIsTrue),
	entry(OpIsFalse, "Is false", []FieldType{FieldBoolean}, false, false, false, evalIsFalse),

	// Membership operators
	entry(OpIn, "Is any of", []FieldType{FieldSelect}, true, false, true, evalIn),
	entry(OpNotIn, "Is none of", []FieldType{FieldSelect}, true, false, true, evalNotIn),
}

var operatorIndex = buildOperatorIndex()

func buildOperatorIndex() map[Operator]*operatorSpec {
	idx := make(map[Operator]*operatorSpec, len(operatorTable))
	for i := range operatorTable {
		idx[operatorTable[i].Operator] = &operatorTable[i]
	}
	return idx
}

var validFieldTypes = map[FieldType]bool{
	FieldString:  true,
	FieldNumber:  true,
	FieldDate:    true,
	FieldBoolean: true,
	FieldArray:   true,
	FieldSelect:  true,
}

// ValidFieldType reports whether t is a recognized field type. Callers
// handling external input check this before OperatorsFor.
func ValidFieldType(t FieldType) bool {
	return validFieldTypes[t]
}

// OperatorsFor returns the operators legal for a field type, in table
// order. An unrecognized type is a programming error and panics.
func OperatorsFor(t FieldType) []OperatorMetadata {
	if !validFieldTypes[t] {
		panic(fmt.Sprintf("segmentation: unknown field type %q", t))
	}
	var out []OperatorMetadata
	for i := range operatorTable {
		for _, ft := range operatorTable[i].ApplicableTypes {
			if ft == t {
				out = append(out, operatorTable[i].OperatorMetadata)
				break
			}
		}
	}
	return out
}

// GetOperatorMetadata returns metadata for every registered operator, in
// table order.
func GetOperatorMetadata() []OperatorMetadata {
	out := make([]OperatorMetadata, len(operatorTable))
	for i := range operatorTable {
		out[i] = operatorTable[i].OperatorMetadata
	}
	return out
}

// NoValueOperators returns the set of operators that take no comparison
// value. The rule builder and validator consult this; the evaluator still
// tolerates a stray value on these.
func NoValueOperators() map[Operator]bool {
	set := make(map[Operator]bool)
	for i := range operatorTable {
		if !operatorTable[i].RequiresValue {
			set[operatorTable[i].Operator] = true
		}
	}
	return set
}

// operatorAppliesTo reports whether op is legal for field type t.
func operatorAppliesTo(op *operatorSpec, t FieldType) bool {
	for _, ft := range op.ApplicableTypes {
		if ft == t {
			return true
		}
	}
	return false
}
