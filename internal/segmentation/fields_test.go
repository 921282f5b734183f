package segmentation

import (
	"testing"
)

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	if len(catalog) == 0 {
		t.Fatal("catalog is empty")
	}

	// Declaration order is the contract: the UI renders it as-is.
	if catalog[0].Key != "email" {
		t.Errorf("first catalog entry = %s, want email", catalog[0].Key)
	}

	seen := make(map[string]bool)
	for _, f := range catalog {
		if f.Key == "" || f.Label == "" || f.Group == "" {
			t.Errorf("catalog entry incomplete: %+v", f)
		}
		if seen[f.Key] {
			t.Errorf("duplicate catalog key %s", f.Key)
		}
		seen[f.Key] = true
		if !validFieldTypes[f.Type] {
			t.Errorf("field %s has invalid type %q", f.Key, f.Type)
		}
		if f.Type == FieldSelect && len(f.Options) == 0 {
			t.Errorf("select field %s has no options", f.Key)
		}
		if f.Type != FieldSelect && len(f.Options) != 0 {
			t.Errorf("non-select field %s carries options", f.Key)
		}
	}

	for _, key := range []string{"lifecycle_stage", "tags", "opt_in_sms", "cashback_info.current_balance", "cashback_info.expiry_date"} {
		if !seen[key] {
			t.Errorf("catalog missing expected field %s", key)
		}
	}
}

func TestFieldByKey(t *testing.T) {
	f, ok := FieldByKey("cashback_info.tier")
	if !ok {
		t.Fatal("cashback_info.tier not found")
	}
	if f.Type != FieldSelect {
		t.Errorf("tier type = %s, want select", f.Type)
	}

	if _, ok := FieldByKey("no_such_field"); ok {
		t.Error("lookup of unknown key succeeded")
	}
}

func TestOperatorsFor(t *testing.T) {
	tests := []struct {
		fieldType FieldType
		contains  []Operator
		excludes  []Operator
	}{
		{FieldString, []Operator{OpEquals, OpContains, OpStartsWith, OpEndsWith, OpExists}, []Operator{OpGreaterThan, OpIsTrue, OpArrayContains}},
		{FieldNumber, []Operator{OpEquals, OpGreaterThan, OpLessThan, OpBetween}, []Operator{OpContains, OpArrayIsEmpty}},
		{FieldDate, []Operator{OpBefore, OpAfter, OpOn, OpInLastDays, OpNotInLastDays}, []Operator{OpEquals, OpBetween}},
		{FieldBoolean, []Operator{OpIsTrue, OpIsFalse}, []Operator{OpEquals, OpExists}},
		{FieldArray, []Operator{OpArrayContains, OpArrayContainsAll, OpArrayIsEmpty}, []Operator{OpEquals, OpIn}},
		{FieldSelect, []Operator{OpEquals, OpIn, OpNotIn}, []Operator{OpContains, OpGreaterThan}},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			ops := OperatorsFor(tt.fieldType)
			have := make(map[Operator]bool, len(ops))
			for _, m := range ops {
				have[m.Operator] = true
				if m.Label == "" {
					t.Errorf("operator %s has no label", m.Operator)
				}
			}
			for _, op := range tt.contains {
				if !have[op] {
					t.Errorf("%s missing operator %s", tt.fieldType, op)
				}
			}
			for _, op := range tt.excludes {
				if have[op] {
					t.Errorf("%s should not offer operator %s", tt.fieldType, op)
				}
			}
		})
	}
}

func TestOperatorsFor_UnknownTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("OperatorsFor on unknown type did not panic")
		}
	}()
	OperatorsFor(FieldType("geojson"))
}

func TestNoValueOperators(t *testing.T) {
	want := map[Operator]bool{
		OpExists:          true,
		OpNotExists:       true,
		OpIsTrue:          true,
		OpIsFalse:         true,
		OpArrayIsEmpty:    true,
		OpArrayIsNotEmpty: true,
	}
	got := NoValueOperators()
	if len(got) != len(want) {
		t.Fatalf("NoValueOperators = %v, want %v", got, want)
	}
	for op := range want {
		if !got[op] {
			t.Errorf("missing no-value operator %s", op)
		}
	}
}

func TestOperatorRegistryIsComplete(t *testing.T) {
	for _, m := range GetOperatorMetadata() {
		spec, ok := operatorIndex[m.Operator]
		if !ok {
			t.Fatalf("operator %s missing from index", m.Operator)
		}
		if spec.eval == nil {
			t.Errorf("operator %s registered without an eval func", m.Operator)
		}
		if len(m.ApplicableTypes) == 0 {
			t.Errorf("operator %s applies to no field types", m.Operator)
		}
	}

	// Every catalog field type must offer at least one operator.
	for _, f := range Catalog() {
		if len(OperatorsFor(f.Type)) == 0 {
			t.Errorf("field type %s has no operators", f.Type)
		}
	}
}
