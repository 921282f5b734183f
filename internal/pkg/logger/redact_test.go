package logger

import (
	"testing"
)

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
		{"", "***@***"},
	}
	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactPIIValue(t *testing.T) {
	tests := []struct {
		key  string
		val  string
		want string
	}{
		{"email", "jordan@example.com", "jo***@example.com"},
		{"recipient", "jordan@example.com", "jo***@example.com"},
		{"contact_id", "ct_001", "ct_001"},
		{"error", "send to jordan@example.com failed", "send to jo***@example.com failed"},
		{"count", "42", "42"},
	}
	for _, tt := range tests {
		if got := redactPIIValue(tt.key, tt.val); got != tt.want {
			t.Errorf("redactPIIValue(%q, %q) = %q, want %q", tt.key, tt.val, got, tt.want)
		}
	}
}
