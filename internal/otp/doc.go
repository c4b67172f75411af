// Package otp implements one-time code issuance, verification and abuse
// control for the identity flows (login, registration, password reset and
// credential change).
//
// Two cooperating pieces live here. RateLimiter tracks a per-identifier
// sliding request window with a lockout deadline. Service generates
// single-use numeric codes, supersedes older ones, and validates each code
// exactly once. All state is keyed by a canonical Identifier and lives in
// the durable stores; the package itself holds no mutable state, so
// concurrent requests coordinate only through the store.
//
// Recoverable outcomes (rate limited, expired, already used, ...) are
// returned as Status values. The error path is reserved for store and
// infrastructure faults, and those always fail closed.
package otp
