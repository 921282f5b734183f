package segmentation

// The field catalog is the fixed universe of segmentable contact
// attributes. Declaration order is the stable presentation order; Group
// only organizes the rule-builder UI and has no evaluation meaning.
// Extending the contact schema means adding an entry here.
var fieldCatalog = []FieldDefinition{
	// Profile
	{Key: "email", Label: "Email", Type: FieldString, Group: "Profile"},
	{Key: "first_name", Label: "First name", Type: FieldString, Group: "Profile"},
	{Key: "last_name", Label: "Last name", Type: FieldString, Group: "Profile"},
	{Key: "phone", Label: "Phone", Type: FieldString, Group: "Profile"},
	{Key: "lifecycle_stage", Label: "Lifecycle stage", Type: FieldSelect, Group: "Profile",
		Options: []string{"subscriber", "lead", "customer", "vip", "churned"}},
	{Key: "source", Label: "Signup source", Type: FieldSelect, Group: "Profile",
		Options: []string{"organic", "referral", "paid", "partner", "import"}},
	{Key: "created_at", Label: "Created", Type: FieldDate, Group: "Profile"},

	// Engagement
	{Key: "last_activity_at", Label: "Last activity", Type: FieldDate, Group: "Engagement"},
	{Key: "email_opens", Label: "Email opens", Type: FieldNumber, Group: "Engagement"},
	{Key: "email_clicks", Label: "Email clicks", Type: FieldNumber, Group: "Engagement"},
	{Key: "last_open_at", Label: "Last open", Type: FieldDate, Group: "Engagement"},

	// Cashback
	{Key: "cashback_info.enrolled", Label: "Cashback enrolled", Type: FieldBoolean, Group: "Cashback"},
	{Key: "cashback_info.tier", Label: "Cashback tier", Type: FieldSelect, Group: "Cashback",
		Options: []string{"bronze", "silver", "gold", "platinum"}},
	{Key: "cashback_info.current_balance", Label: "Current balance", Type: FieldNumber, Group: "Cashback"},
	{Key: "cashback_info.total_earned", Label: "Total earned", Type: FieldNumber, Group: "Cashback"},
	{Key: "cashback_info.enrolled_at", Label: "Enrolled", Type: FieldDate, Group: "Cashback"},
	{Key: "cashback_info.expiry_date", Label: "Balance expiry", Type: FieldDate, Group: "Cashback"},

	// Preferences
	{Key: "opt_in_email", Label: "Email opt-in", Type: FieldBoolean, Group: "Preferences"},
	{Key: "opt_in_sms", Label: "SMS opt-in", Type: FieldBoolean, Group: "Preferences"},
	{Key: "tags", Label: "Tags", Type: FieldArray, Group: "Preferences"},

	// Custom fields
	{Key: "custom_fields.company", Label: "Company", Type: FieldString, Group: "Custom"},
	{Key: "custom_fields.referral_code", Label: "Referral code", Type: FieldString, Group: "Custom"},
	{Key: "custom_fields.purchase_count", Label: "Purchase count", Type: FieldNumber, Group: "Custom"},
	{Key: "custom_fields.last_purchase_at", Label: "Last purchase", Type: FieldDate, Group: "Custom"},
}

var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]*FieldDefinition {
	idx := make(map[string]*FieldDefinition, len(fieldCatalog))
	for i := range fieldCatalog {
		idx[fieldCatalog[i].Key] = &fieldCatalog[i]
	}
	return idx
}

// Catalog returns the full field catalog in declaration order. Callers
// must treat the returned slice as read-only.
func Catalog() []FieldDefinition {
	return fieldCatalog
}

// FieldByKey looks up a catalog entry by its dot-path key.
func FieldByKey(key string) (*FieldDefinition, bool) {
	f, ok := fieldIndex[key]
	return f, ok
}
