// Package totp wraps time-based one-time password generation and validation
// for authenticator-app 2FA flows.
package totp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTP defines the contract for time-based OTP operations.
type TOTP interface {
	// Generate creates a secret and provisioning URI for an account name.
	Generate(accountName string) (secret string, uri string, err error)
	// Validate checks whether a code is valid at the given time.
	Validate(code, secret string, at time.Time) bool
	// GenerateCode creates a code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
}

// Generator implements TOTP per RFC 6238.
type Generator struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// New constructs a Generator with sensible defaults: 6 digits unless 8 is
// requested, a 30-second period, and one period of clock skew.
func New(issuer string, period, skew uint, digits otp.Digits) *Generator {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	if period == 0 {
		period = 30
	}
	if skew == 0 {
		skew = 1
	}

	return &Generator{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// Generate creates a secret and provisioning URI for an account name.
func (g *Generator) Generate(accountName string) (secret string, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.issuer,
		AccountName: accountName,
		Period:      g.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      g.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// Validate checks whether a code is valid at the given time.
func (g *Generator) Validate(code, secret string, at time.Time) bool {
	rv, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    g.period,
		Skew:      g.skew,
		Digits:    g.digits,
		Algorithm: otp.AlgorithmSHA1,
	})

	return rv && err == nil
}

// GenerateCode creates a code for the given secret and time.
func (g *Generator) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    g.period,
		Skew:      g.skew,
		Digits:    g.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}
