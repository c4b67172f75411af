// Package jwt issues and verifies the access tokens carried on authenticated
// requests. Tokens only ever report the canonical account id; session state
// lives in refresh tokens, not here.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned for tokens signed with anything but HS512.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 key is shorter than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes")

	// ErrTokenExpired is returned for expired tokens.
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidToken is returned for malformed or unverifiable tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT generates and verifies access tokens.
type JWT interface {
	// Generate creates a signed token for the account.
	Generate(accountID int64, email string) (string, error)
	// Verify parses and validates the token and returns its claims.
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Claims extends the registered claims with the authenticated account.
type Claims struct {
	jwt.RegisteredClaims
	// AccountID is the canonical account identifier.
	AccountID int64 `json:"account_id,string"`
	// Email is the account's primary identifier at issuance time.
	Email string `json:"email"`
}

// Config holds the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key (>= 64 bytes for HS512).
	Secret []byte
	// Issuer is written into the iss claim.
	Issuer string
	// Audiences are the accepted aud values.
	Audiences []string
	// TTL is the access token lifetime.
	TTL time.Duration
	// Clock is the time source.
	Clock clocker
	// UUID generates jti values.
	UUID generator
}

type authContextKey struct{}

// GetAuth returns the claims stored on the context by the auth middleware.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authContextKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

// SetAuth stores claims on the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authContextKey{}, clm)
}
