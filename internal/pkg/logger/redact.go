package logger

import "strings"

// RedactEmail masks an address so logs can reference a contact without
// storing the address itself. The first two characters of the local part
// survive: "jordan@example.com" becomes "jo***@example.com". Local parts
// of two characters or fewer are masked entirely, and anything not
// shaped like an email collapses to "***@***".
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}
