package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewServer(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error via errors.As")
	}
	if gerr.Type() != TypeServer {
		t.Errorf("Type = %v, want TypeServer", gerr.Type())
	}
	if gerr.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", gerr.StatusCode())
	}
}

func TestBusinessStatusCodes(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeTimeout, http.StatusRequestTimeout},
	}

	for _, tc := range cases {
		var gerr *Error
		if !errors.As(NewBusiness("x", tc.code), &gerr) {
			t.Fatalf("expected *Error")
		}
		if got := gerr.StatusCode(); got != tc.want {
			t.Errorf("code %v: StatusCode = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestInvalidInputFields(t *testing.T) {
	var gerr *Error
	if !errors.As(NewInvalidInput(nil, "email", "must be valid"), &gerr) {
		t.Fatalf("expected *Error")
	}
	if gerr.Fields()["email"] != "must be valid" {
		t.Errorf("Fields = %v, want email entry", gerr.Fields())
	}
	if gerr.StatusCode() != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", gerr.StatusCode())
	}
}
