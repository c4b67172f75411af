package otp

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		cc   string
		want Identifier
	}{
		{"email lower-cased", " John.Doe@Example.COM ", "+1", "john.doe@example.com"},
		{"phone with plus kept", "+1 (555) 123-4567", "+62", "+15551234567"},
		{"phone without plus gets country code", "0812-3456-7890", "+62", "+6281234567890"},
		{"country code without plus", "5551234567", "1", "+15551234567"},
		{"dots stripped", "+1.555.123.4567", "", "+15551234567"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.raw, tc.cc)
			if err != nil {
				t.Fatalf("Canonicalize(%q): %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("Canonicalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCanonicalizeInvalid(t *testing.T) {
	for _, raw := range []string{
		"", "@example.com", "user@", "user@host", "a b@example.com",
		"123", "+123", "abc123", "555+1234567", "+123456789012345678",
	} {
		if _, err := Canonicalize(raw, "+1"); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("Canonicalize(%q) err = %v, want ErrInvalidIdentifier", raw, err)
		}
	}
}

func TestIsEmail(t *testing.T) {
	if !Identifier("a@b.com").IsEmail() {
		t.Error("a@b.com not detected as email")
	}
	if Identifier("+15551234567").IsEmail() {
		t.Error("+15551234567 detected as email")
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		id   Identifier
		want string
	}{
		{"jane@example.com", "j***e@example.com"},
		{"ab@example.com", "**@example.com"},
		{"+15551234567", "+15***4567"},
		{"+628123", "*******"},
	}
	for _, tc := range tests {
		if got := Mask(tc.id); got != tc.want {
			t.Errorf("Mask(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
