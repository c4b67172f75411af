// Package config exposes runtime configuration behind a small interface so
// modules never depend on a concrete provider.
package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values by dotted key. Implementations
// return zero values for missing keys; callers supply their own defaults.
type Config interface {
	io.Closer

	// GetString returns the value for key as a string.
	GetString(key string) string
	// GetBool returns the value for key as a bool.
	GetBool(key string) bool

	// GetInt returns the value for key as an int.
	GetInt(key string) int
	// GetInt32 returns the value for key as an int32.
	GetInt32(key string) int32
	// GetInt64 returns the value for key as an int64.
	GetInt64(key string) int64
	// GetUint returns the value for key as a uint.
	GetUint(key string) uint
	// GetUint16 returns the value for key as a uint16.
	GetUint16(key string) uint16
	// GetFloat64 returns the value for key as a float64.
	GetFloat64(key string) float64

	// GetSecond reads an integer value and interprets it as seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer value and interprets it as minutes.
	GetMinute(key string) time.Duration
	// GetHour reads an integer value and interprets it as hours.
	GetHour(key string) time.Duration
	// GetDay reads an integer value and interprets it as days (24h).
	GetDay(key string) time.Duration

	// GetBinary reads a base64-encoded value and returns the raw bytes.
	GetBinary(key string) []byte
	// GetArray reads a comma-separated value as a string slice.
	GetArray(key string) []string
	// GetMap reads a "k1:v1,k2:v2" value as a string map.
	GetMap(key string) map[string]string
}
