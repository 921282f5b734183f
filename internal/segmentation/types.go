// Package segmentation implements the audience segmentation rule engine:
// a recursive tree of AND/OR condition groups evaluated against contact
// records to produce matching email sets, plus the static membership kind
// that bypasses rules entirely.
package segmentation

import (
	"time"
)

// ==========================================
// OPERATORS
// ==========================================

// Operator represents a comparison operator
type Operator string

const (
	// String operators
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"

	// Presence operators
	OpExists    Operator = "exists"
	OpNotExists Operator = "not_exists"

	// Numeric operators
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpBetween     Operator = "between"

	// Date operators
	OpBefore        Operator = "before"
	OpAfter         Operator = "after"
	OpOn            Operator = "on"
	OpInLastDays    Operator = "in_last_days"
	OpNotInLastDays Operator = "not_in_last_days"

	// Array operators
	OpArrayContains    Operator = "array_contains"
	OpArrayNotContains Operator = "array_not_contains"
	OpArrayContainsAll Operator = "array_contains_all"
	OpArrayIsEmpty     Operator = "array_is_empty"
	OpArrayIsNotEmpty  Operator = "array_is_not_empty"

	// Boolean operators
	OpIsTrue  Operator = "is_true"
	OpIsFalse Operator = "is_false"

	// Membership operators (select fields)
	OpIn    Operator = "in"
	OpNotIn Operator = "not_in"
)

// ==========================================
// FIELD TYPES
// ==========================================

// FieldType represents the data type of a segmentable field
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldSelect  FieldType = "select"
)

// FieldDefinition is a static catalog entry declaring one segmentable
// contact attribute. Key is a dot path into the contact record.
type FieldDefinition struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Group   string    `json:"group"`
	Options []string  `json:"options,omitempty"`
}

// ==========================================
// LOGIC OPERATORS
// ==========================================

// LogicOperator for combining results within a rule group
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// ==========================================
// RULE TREE
// ==========================================

// Condition is a leaf node of a rule tree: one field compared against a
// value. Value2 is only used by range operators (between). Value holds
// whatever JSON the builder produced (string, number, bool, or array);
// the evaluator coerces as the operator requires.
type Condition struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
	Value2   any      `json:"value2,omitempty"`
}

// RuleGroup is a recursive rule-tree node: direct conditions plus nested
// sub-groups, combined with AND or OR. An empty group (no conditions, no
// sub-groups) evaluates to true; that vacuous-truth convention is part of
// the contract, not an accident.
type RuleGroup struct {
	ID         string        `json:"id"`
	Operator   LogicOperator `json:"operator"`
	Conditions []Condition   `json:"conditions,omitempty"`
	Groups     []RuleGroup   `json:"groups,omitempty"`
}

// ==========================================
// SEGMENTS
// ==========================================

// SegmentType distinguishes rule-derived segments from fixed member lists.
type SegmentType string

const (
	SegmentDynamic SegmentType = "dynamic"
	SegmentStatic  SegmentType = "static"
)

// Segment is a persisted audience definition. Rules is present only for
// dynamic segments and round-trips through JSON unchanged. ContactCount is
// a cached snapshot: it is recomputed after membership mutations and
// explicit refreshes, never kept live against the contact table.
type Segment struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	Type            SegmentType `json:"type"`
	Rules           *RuleGroup  `json:"rules,omitempty"`
	ContactCount    int         `json:"contact_count"`
	LastEvaluatedAt *time.Time  `json:"last_evaluated_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsDynamic returns true for rule-derived segments.
func (s *Segment) IsDynamic() bool { return s.Type == SegmentDynamic }

// SegmentMember is one email in a static segment's member set, keyed by
// (segment id, email).
type SegmentMember struct {
	SegmentID string    `json:"segment_id"`
	Email     string    `json:"email"`
	AddedAt   time.Time `json:"added_at"`
}

// ==========================================
// EVALUATION RESULTS
// ==========================================

// EvalResult is the outcome of a full batch evaluation.
type EvalResult struct {
	SegmentID    string    `json:"segment_id,omitempty"`
	Emails       []string  `json:"emails,omitempty"`
	MatchedCount int       `json:"matched_count"`
	ScannedCount int       `json:"scanned_count"`
	EvaluatedAt  time.Time `json:"evaluated_at"`
	DurationMs   int64     `json:"duration_ms"`
}

// SegmentPreview is a capped ad-hoc evaluation used by the rule builder
// before a segment is saved.
type SegmentPreview struct {
	MatchedCount   int              `json:"matched_count"`
	ScannedCount   int              `json:"scanned_count"`
	SampleContacts []ContactPreview `json:"sample_contacts"`
	CalculatedAt   time.Time        `json:"calculated_at"`
}

// ContactPreview is a minimal contact representation for previews.
type ContactPreview struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AudienceSnapshot is a frozen resolved audience at a point in time,
// archived when a segment is refreshed or a campaign send is resolved.
type AudienceSnapshot struct {
	SegmentID  string    `json:"segment_id,omitempty"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Purpose    string    `json:"purpose"` // refresh, campaign
	Emails     []string  `json:"emails"`
	Count      int       `json:"count"`
	SnapshotAt time.Time `json:"snapshot_at"`
}
