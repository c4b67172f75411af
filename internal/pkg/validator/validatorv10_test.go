package validator

import (
	"strings"
	"testing"
)

type signupInput struct {
	FullName string `validate:"required,min=2,max=100,alphaspace"`
	Password string `validate:"required,password"`
}

func newTestValidator(t *testing.T) *V10Validator {
	t.Helper()

	// Construction must survive the default English translation set, which
	// already carries keys the custom rules overlap with.
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator: %v", err)
	}
	return v
}

func TestValidatePasses(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate(signupInput{FullName: "Jane Doe", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateCustomRules(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name      string
		in        signupInput
		wantField string
		wantMsg   string
	}{
		{
			name:      "digits in name",
			in:        signupInput{FullName: "Jane D03", Password: "correct-horse"},
			wantField: "full_name",
			wantMsg:   "letters and spaces",
		},
		{
			name:      "password too short",
			in:        signupInput{FullName: "Jane Doe", Password: "short"},
			wantField: "password",
			wantMsg:   "8-72",
		},
		{
			name:      "password too long",
			in:        signupInput{FullName: "Jane Doe", Password: strings.Repeat("x", 73)},
			wantField: "password",
			wantMsg:   "8-72",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.in)
			if err == nil {
				t.Fatal("Validate returned nil, want field error")
			}

			verr, ok := err.(V10ValidationError)
			if !ok {
				t.Fatalf("error type = %T, want V10ValidationError", err)
			}
			msg, ok := verr.Values()[tc.wantField]
			if !ok {
				t.Fatalf("no message for field %q: %v", tc.wantField, verr)
			}
			if !strings.Contains(msg, tc.wantMsg) {
				t.Errorf("message = %q, want it to mention %q", msg, tc.wantMsg)
			}
		})
	}
}
