package otp

import "strings"

// Mask obscures an identifier for logs and user-facing messages. Emails keep
// the first and last character of the local part ("j***e@example.com");
// phone numbers keep the leading three and trailing four characters
// ("+15***4567").
func Mask(id Identifier) string {
	s := string(id)
	if id.IsEmail() {
		local, domain, _ := strings.Cut(s, "@")
		return maskPart(local, 1, 1) + "@" + domain
	}
	return maskPart(s, 3, 4)
}

func maskPart(s string, lead, trail int) string {
	if len(s) <= lead+trail {
		return strings.Repeat("*", len(s))
	}
	return s[:lead] + "***" + s[len(s)-trail:]
}
