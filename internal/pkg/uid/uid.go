// Package uid provides the ID generators used across the service: numeric
// primary keys, correlation IDs and opaque string tokens.
package uid

// NumberID generates int64 identifiers suitable for primary keys.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers (correlation IDs, opaque tokens).
type StringID interface {
	Generate() string
}
