package otp

import (
	"errors"
	"strings"
)

// ErrInvalidIdentifier is returned when a raw string cannot be canonicalized
// into an email address or an E.164 phone number.
var ErrInvalidIdentifier = errors.New("otp: invalid identifier")

// Identifier is a canonicalized email address (lower-cased) or phone number
// (digits with a leading +). All OTP and rate-limit state is keyed by it;
// two different identifiers are never related, even when they resolve to
// the same account.
type Identifier string

// IsEmail reports whether the identifier is an email address. The delivery
// channel is selected by this shape.
func (i Identifier) IsEmail() bool {
	return strings.ContainsRune(string(i), '@')
}

func (i Identifier) String() string {
	return string(i)
}

const (
	phoneMinDigits = 8
	phoneMaxDigits = 15 // E.164 upper bound
)

// Canonicalize normalizes a raw user-supplied identifier. Emails are trimmed
// and lower-cased. Phone numbers are stripped of separators and prefixed
// with defaultCountryCode when no + prefix is present, e.g. ("0812 345 678",
// "+62") becomes "+62812345678".
func Canonicalize(raw, defaultCountryCode string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidIdentifier
	}

	if strings.ContainsRune(raw, '@') {
		return canonicalizeEmail(raw)
	}
	return canonicalizePhone(raw, defaultCountryCode)
}

func canonicalizeEmail(raw string) (Identifier, error) {
	email := strings.ToLower(raw)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsRune(domain, '@') {
		return "", ErrInvalidIdentifier
	}
	if !strings.ContainsRune(domain, '.') || strings.ContainsAny(email, " \t") {
		return "", ErrInvalidIdentifier
	}
	return Identifier(email), nil
}

func canonicalizePhone(raw, defaultCountryCode string) (Identifier, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separators are dropped
		default:
			return "", ErrInvalidIdentifier
		}
	}

	phone := b.String()
	if !strings.HasPrefix(phone, "+") {
		phone = strings.TrimLeft(phone, "0")
		cc := strings.TrimSpace(defaultCountryCode)
		if !strings.HasPrefix(cc, "+") {
			cc = "+" + cc
		}
		phone = cc + phone
	}

	digits := len(phone) - 1
	if digits < phoneMinDigits || digits > phoneMaxDigits {
		return "", ErrInvalidIdentifier
	}
	return Identifier(phone), nil
}
